package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkravets/photoshare-service/internal/apperrors"
	"github.com/dkravets/photoshare-service/internal/models"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func TestCreateRating(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO ratings`).
		WithArgs(int64(10), int64(3), 4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
			AddRow(int64(1), time.Now()))

	rating := &models.Rating{PhotoID: 10, RaterID: 3, Score: 4}
	require.NoError(t, repo.CreateRating(context.Background(), rating))
	assert.Equal(t, int64(1), rating.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRatingDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO ratings`).
		WithArgs(int64(10), int64(3), 4).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "ratings_photo_user_unique"})

	err := repo.CreateRating(context.Background(), &models.Rating{PhotoID: 10, RaterID: 3, Score: 4})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRatingNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM ratings`).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteRating(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPhotoRatingStats(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT AVG\(score\)`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"avg", "count"}).AddRow(4.0, 3))

	stats, err := repo.PhotoRatingStats(context.Background(), 10)
	require.NoError(t, err)
	require.NotNil(t, stats.Average)
	assert.Equal(t, 4.0, *stats.Average)
	assert.Equal(t, 3, stats.Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPhotoRatingStatsUnrated(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT AVG\(score\)`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"avg", "count"}).AddRow(nil, 0))

	stats, err := repo.PhotoRatingStats(context.Background(), 10)
	require.NoError(t, err)
	assert.Nil(t, stats.Average)
	assert.Equal(t, 0, stats.Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingAverageRounding(t *testing.T) {
	repo, mock := newMockRepo(t)

	// two ratings of 3 and 4 average to 3.5; one of 1 and two of 5
	// average to 3.666... which rounds to 3.7
	mock.ExpectQuery(`SELECT AVG\(score\)`).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"avg", "count"}).AddRow(11.0/3.0, 3))

	stats, err := repo.PhotoRatingStats(context.Background(), 11)
	require.NoError(t, err)
	require.NotNil(t, stats.Average)
	assert.Equal(t, 3.7, *stats.Average)
	require.NoError(t, mock.ExpectationsWereMet())
}
