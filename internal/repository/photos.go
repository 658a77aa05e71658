package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/dkravets/photoshare-service/internal/apperrors"
	"github.com/dkravets/photoshare-service/internal/models"
)

const photoColumns = `
	p.id, p.user_id, u.username, p.url, p.public_id, p.description,
	p.created_at, p.updated_at, AVG(r.score)::float8, COUNT(r.id)`

// CreatePhoto inserts a photo together with its tag associations.
func (r *Repository) CreatePhoto(ctx context.Context, photo *models.Photo, tags []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO photos (user_id, url, public_id, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, query, photo.OwnerID, photo.URL, photo.PublicID, photo.Description).
		Scan(&photo.ID, &photo.CreatedAt, &photo.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}

	if err := attachTagsTx(ctx, tx, photo.ID, tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit photo: %w", err)
	}
	photo.Tags = tags
	return nil
}

// ReplacePhotoTags replaces the full tag set of a photo.
func (r *Repository) ReplacePhotoTags(ctx context.Context, photoID int64, tags []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM photo_tags WHERE photo_id = $1`, photoID); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}
	if err := attachTagsTx(ctx, tx, photoID, tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tags: %w", err)
	}
	return nil
}

// attachTagsTx gets or creates each named tag and links it to the photo.
// Tag names must already be normalized.
func attachTagsTx(ctx context.Context, tx *sql.Tx, photoID int64, tags []string) error {
	for _, name := range tags {
		var tagID int64
		// Upsert keeps the insert race-free against concurrent tag creation.
		query := `
			INSERT INTO tags (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`
		if err := tx.QueryRowContext(ctx, query, name).Scan(&tagID); err != nil {
			return fmt.Errorf("failed to upsert tag %q: %w", name, err)
		}
		link := `
			INSERT INTO photo_tags (photo_id, tag_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`
		if _, err := tx.ExecContext(ctx, link, photoID, tagID); err != nil {
			return fmt.Errorf("failed to link tag %q: %w", name, err)
		}
	}
	return nil
}

// FindPhotoByID retrieves a photo with its owner, tags and rating aggregate.
func (r *Repository) FindPhotoByID(ctx context.Context, id int64) (*models.Photo, error) {
	photo := &models.Photo{}
	var avg sql.NullFloat64
	query := `
		SELECT` + photoColumns + `
		FROM photos p
		JOIN users u ON u.id = p.user_id
		LEFT JOIN ratings r ON r.photo_id = p.id
		WHERE p.id = $1
		GROUP BY p.id, u.username`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&photo.ID, &photo.OwnerID, &photo.OwnerUsername, &photo.URL, &photo.PublicID,
			&photo.Description, &photo.CreatedAt, &photo.UpdatedAt, &avg, &photo.RatingsCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("photo not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find photo: %w", err)
	}
	photo.AverageRating = averagePtr(avg)

	if err := r.loadTags(ctx, []*models.Photo{photo}); err != nil {
		return nil, err
	}
	return photo, nil
}

// ListPhotos returns a page of photos, newest first, with the total count.
func (r *Repository) ListPhotos(ctx context.Context, limit, offset int) ([]*models.Photo, int, error) {
	query := `
		SELECT` + photoColumns + `
		FROM photos p
		JOIN users u ON u.id = p.user_id
		LEFT JOIN ratings r ON r.photo_id = p.id
		GROUP BY p.id, u.username
		ORDER BY p.created_at DESC
		LIMIT $1 OFFSET $2`
	photos, err := r.queryPhotos(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM photos`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count photos: %w", err)
	}
	return photos, total, nil
}

// ListPhotosByUser returns a page of a single user's photos, newest first.
func (r *Repository) ListPhotosByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Photo, error) {
	query := `
		SELECT` + photoColumns + `
		FROM photos p
		JOIN users u ON u.id = p.user_id
		LEFT JOIN ratings r ON r.photo_id = p.id
		WHERE p.user_id = $1
		GROUP BY p.id, u.username
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3`
	return r.queryPhotos(ctx, query, userID, limit, offset)
}

// UpdatePhotoDescription updates the description of a photo
func (r *Repository) UpdatePhotoDescription(ctx context.Context, id int64, description string) error {
	query := `
		UPDATE photos
		SET description = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, description, id)
	if err != nil {
		return fmt.Errorf("failed to update photo: %w", err)
	}
	return requireAffected(res, "photo")
}

// DeletePhoto removes a photo; tags, comments, ratings and transformations
// cascade at the database level.
func (r *Repository) DeletePhoto(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return requireAffected(res, "photo")
}

// SearchParams describes the conjunctive photo search filters.
type SearchParams struct {
	Keyword    string
	Tag        string
	UploaderID int64
	MinRating  float64
	MaxRating  float64
	DateFrom   time.Time
	DateTo     time.Time
	SortBy     string // "created_at" or "rating"
	SortOrder  string // "asc" or "desc"
	Limit      int
	Offset     int
}

// SearchPhotos composes the filters conjunctively and returns matching
// photos with the total match count. Rating filters and rating sort operate
// on the read-time aggregate.
func (r *Repository) SearchPhotos(ctx context.Context, p SearchParams) ([]*models.Photo, int, error) {
	var (
		where  []string
		having []string
		args   []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	join := ""
	if p.Tag != "" {
		join = `
		JOIN photo_tags pt ON pt.photo_id = p.id
		JOIN tags t ON t.id = pt.tag_id`
		where = append(where, "t.name = "+arg(strings.ToLower(strings.TrimSpace(p.Tag))))
	}
	if p.Keyword != "" {
		where = append(where, "p.description ILIKE "+arg("%"+p.Keyword+"%"))
	}
	if p.UploaderID != 0 {
		where = append(where, "p.user_id = "+arg(p.UploaderID))
	}
	if !p.DateFrom.IsZero() {
		where = append(where, "p.created_at >= "+arg(p.DateFrom))
	}
	if !p.DateTo.IsZero() {
		where = append(where, "p.created_at <= "+arg(p.DateTo))
	}
	if p.MinRating > 0 {
		having = append(having, "COALESCE(AVG(r.score), 0) >= "+arg(p.MinRating))
	}
	if p.MaxRating > 0 {
		having = append(having, "COALESCE(AVG(r.score), 0) <= "+arg(p.MaxRating))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "\nWHERE " + strings.Join(where, " AND ")
	}
	havingClause := ""
	if len(having) > 0 {
		havingClause = "\nHAVING " + strings.Join(having, " AND ")
	}

	order := "p.created_at"
	if p.SortBy == "rating" {
		order = "COALESCE(AVG(r.score), 0)"
	}
	dir := "DESC"
	if p.SortOrder == "asc" {
		dir = "ASC"
	}

	base := `
		FROM photos p
		JOIN users u ON u.id = p.user_id
		LEFT JOIN ratings r ON r.photo_id = p.id` + join + whereClause + `
		GROUP BY p.id, u.username` + havingClause

	countQuery := `SELECT COUNT(*) FROM (SELECT p.id` + base + `) matched`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count search results: %w", err)
	}

	query := `SELECT` + photoColumns + base +
		fmt.Sprintf("\nORDER BY %s %s\nLIMIT %s OFFSET %s", order, dir, arg(p.Limit), arg(p.Offset))
	photos, err := r.queryPhotos(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return photos, total, nil
}

func (r *Repository) queryPhotos(ctx context.Context, query string, args ...interface{}) ([]*models.Photo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	var photos []*models.Photo
	for rows.Next() {
		photo := &models.Photo{}
		var avg sql.NullFloat64
		err := rows.Scan(&photo.ID, &photo.OwnerID, &photo.OwnerUsername, &photo.URL,
			&photo.PublicID, &photo.Description, &photo.CreatedAt, &photo.UpdatedAt,
			&avg, &photo.RatingsCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photo.AverageRating = averagePtr(avg)
		photos = append(photos, photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read photos: %w", err)
	}

	if err := r.loadTags(ctx, photos); err != nil {
		return nil, err
	}
	return photos, nil
}

// loadTags fills the Tags slice of each photo in one query.
func (r *Repository) loadTags(ctx context.Context, photos []*models.Photo) error {
	if len(photos) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Photo, len(photos))
	ids := make([]int64, 0, len(photos))
	for _, p := range photos {
		p.Tags = []string{}
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	query := `
		SELECT pt.photo_id, t.name
		FROM photo_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.photo_id = ANY($1)
		ORDER BY t.name`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var photoID int64
		var name string
		if err := rows.Scan(&photoID, &name); err != nil {
			return fmt.Errorf("failed to scan tag: %w", err)
		}
		if p, ok := byID[photoID]; ok {
			p.Tags = append(p.Tags, name)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read tags: %w", err)
	}
	return nil
}

// CreateTransformation stores a derived-image record for a photo
func (r *Repository) CreateTransformation(ctx context.Context, t *models.Transformation) error {
	query := `
		INSERT INTO photo_transformations (photo_id, url, public_id, params, qr_code)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, t.PhotoID, t.URL, t.PublicID, t.Params, t.QRCode).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transformation: %w", err)
	}
	return nil
}

// ListTransformationsByPhoto returns a photo's transformations, newest first
func (r *Repository) ListTransformationsByPhoto(ctx context.Context, photoID int64) ([]*models.Transformation, error) {
	query := `
		SELECT id, photo_id, url, public_id, params, qr_code, created_at
		FROM photo_transformations
		WHERE photo_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, photoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transformations: %w", err)
	}
	defer rows.Close()

	var out []*models.Transformation
	for rows.Next() {
		t := &models.Transformation{}
		if err := rows.Scan(&t.ID, &t.PhotoID, &t.URL, &t.PublicID, &t.Params, &t.QRCode, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transformation: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transformations: %w", err)
	}
	return out, nil
}

// averagePtr converts a nullable aggregate into the API shape: nil when the
// photo has no ratings, otherwise the mean rounded to one decimal.
func averagePtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	rounded := math.Round(n.Float64*10) / 10
	return &rounded
}

func requireAffected(res sql.Result, entity string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return apperrors.NotFound("%s not found", entity)
	}
	return nil
}
