package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkravets/photoshare-service/internal/apperrors"
	"github.com/dkravets/photoshare-service/internal/models"
)

var commentRows = []string{"id", "photo_id", "user_id", "body", "edited", "created_at", "updated_at"}

func expectFindComment(mock sqlmock.Sqlmock, commentID, authorID int64) {
	now := time.Now()
	mock.ExpectQuery(`SELECT id, photo_id, user_id, body`).
		WithArgs(commentID).
		WillReturnRows(sqlmock.NewRows(commentRows).
			AddRow(commentID, int64(10), authorID, "nice shot", false, now, now))
}

func TestAddComment(t *testing.T) {
	svc, mock, _ := newTestService(t)
	actor := &models.User{ID: 3, Role: models.RoleUser}

	expectFindPhoto(mock, 10, 1)
	mock.ExpectQuery(`INSERT INTO comments`).
		WithArgs(int64(10), int64(3), "nice shot").
		WillReturnRows(sqlmock.NewRows([]string{"id", "edited", "created_at", "updated_at"}).
			AddRow(int64(1), false, time.Now(), time.Now()))

	comment, err := svc.AddComment(context.Background(), actor, 10, "  nice shot  ")
	require.NoError(t, err)
	assert.Equal(t, "nice shot", comment.Body)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddCommentEmptyBody(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.AddComment(context.Background(), &models.User{ID: 3}, 10, "   ")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}

func TestEditCommentForbiddenForModerator(t *testing.T) {
	svc, mock, _ := newTestService(t)
	moderator := &models.User{ID: 2, Role: models.RoleModerator}

	expectFindComment(mock, 1, 3)

	_, err := svc.EditComment(context.Background(), moderator, 1, "edited")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCommentByModerator(t *testing.T) {
	svc, mock, _ := newTestService(t)
	moderator := &models.User{ID: 2, Role: models.RoleModerator}

	expectFindComment(mock, 1, 3)
	mock.ExpectExec(`DELETE FROM comments`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.DeleteComment(context.Background(), moderator, 1))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCommentByStranger(t *testing.T) {
	svc, mock, _ := newTestService(t)
	stranger := &models.User{ID: 9, Role: models.RoleUser}

	expectFindComment(mock, 1, 3)

	err := svc.DeleteComment(context.Background(), stranger, 1)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetUserBannedRequiresAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.SetUserBanned(context.Background(), &models.User{ID: 2, Role: models.RoleModerator}, 3, true)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
}

func TestSetUserBannedSelf(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.SetUserBanned(context.Background(), &models.User{ID: 1, Role: models.RoleAdmin}, 1, true)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}

func TestSetUserBanned(t *testing.T) {
	svc, mock, _ := newTestService(t)
	admin := &models.User{ID: 1, Role: models.RoleAdmin}

	expectFindUser(mock, int64(3), 3, "hash", false)
	mock.ExpectExec(`UPDATE users`).
		WithArgs(true, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	target, err := svc.SetUserBanned(context.Background(), admin, 3, true)
	require.NoError(t, err)
	assert.True(t, target.Banned)
	require.NoError(t, mock.ExpectationsWereMet())
}
