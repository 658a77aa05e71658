package repository

import (
	"context"
	"fmt"
	"time"
)

// BlacklistToken records a revoked token identifier until its natural expiry
func (r *Repository) BlacklistToken(ctx context.Context, jti string, expiresAt time.Time) error {
	query := `
		INSERT INTO token_blacklist (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, jti, expiresAt); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

// IsTokenBlacklisted reports whether a token identifier has been revoked
// and has not yet expired.
func (r *Repository) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM token_blacklist
			WHERE jti = $1 AND expires_at > CURRENT_TIMESTAMP
		)`
	if err := r.db.QueryRowContext(ctx, query, jti).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists, nil
}

// PurgeExpiredTokens removes blacklist rows whose tokens have expired.
// Ran periodically; expired tokens are already rejected by the expiry check.
func (r *Repository) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM token_blacklist WHERE expires_at <= CURRENT_TIMESTAMP`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge blacklist: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to purge blacklist: %w", err)
	}
	return affected, nil
}
