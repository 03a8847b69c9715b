package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/api/models"
)

func setupMetricStore(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresMetricStore) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock database")
	return db, mock, NewMetricStore(db)
}

func TestMetricStore_CreateMetric(t *testing.T) {
	db, mock, store := setupMetricStore(t)
	defer db.Close()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO metrics`).
		WithArgs("m-1", 9, "MRR", "currency", "#10B981", 3).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	metric := &models.Metric{ID: "m-1", UserID: 9, Name: "MRR", Type: "currency", Color: "#10B981"}
	require.NoError(t, store.CreateMetric(context.Background(), metric, 3))
	assert.Equal(t, created, metric.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricStore_CreateMetric_LimitReached(t *testing.T) {
	db, mock, store := setupMetricStore(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO metrics`).
		WithArgs("m-4", 9, "Churn", "number", "#3B82F6", 3).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}))

	err := store.CreateMetric(context.Background(), &models.Metric{ID: "m-4", UserID: 9, Name: "Churn", Type: "number", Color: "#3B82F6"}, 3)
	assert.ErrorIs(t, err, models.ErrMetricLimitReached)
}

func TestMetricStore_ListMetricValues(t *testing.T) {
	db, mock, store := setupMetricStore(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, metric_id, user_id, value, to_char\(date, 'YYYY-MM-DD'\), notes, created_at\s+FROM metric_values\s+WHERE user_id = \$1\s+ORDER BY date ASC`).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "metric_id", "user_id", "value", "date", "notes", "created_at"}).
			AddRow("v-1", "m-1", 9, 1200.5, "2025-03-01", "", now).
			AddRow("v-2", "m-1", 9, 1350.0, "2025-03-02", "launch", now))

	values, err := store.ListMetricValues(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "2025-03-01", values[0].Date)
	assert.Equal(t, 1350.0, values[1].Value)
	assert.Equal(t, "launch", values[1].Notes)
}

func TestMetricStore_UpsertMetricValue(t *testing.T) {
	db, mock, store := setupMetricStore(t)
	defer db.Close()

	created := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO metric_values .* ON CONFLICT \(metric_id, date\) DO UPDATE`).
		WithArgs("v-new", "m-1", 9, 99.5, "2025-03-01", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("v-1", created))

	mv := &models.MetricValue{ID: "v-new", MetricID: "m-1", UserID: 9, Value: 99.5, Date: "2025-03-01"}
	require.NoError(t, store.UpsertMetricValue(context.Background(), mv))
	assert.Equal(t, "v-1", mv.ID, "existing row keeps its id")
	assert.Equal(t, created, mv.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricStore_UpsertMetricValue_ForeignMetric(t *testing.T) {
	db, mock, store := setupMetricStore(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO metric_values`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))

	err := store.UpsertMetricValue(context.Background(), &models.MetricValue{ID: "v", MetricID: "m-other", UserID: 9, Date: "2025-03-01"})
	var nf *models.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestMetricStore_DeleteMetric(t *testing.T) {
	db, mock, store := setupMetricStore(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM metrics WHERE id = \$1 AND user_id = \$2`).
		WithArgs("m-1", 9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM metrics`).
		WithArgs("m-1", 10).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.DeleteMetric(context.Background(), "m-1", 9))

	err := store.DeleteMetric(context.Background(), "m-1", 10)
	var nf *models.NotFoundError
	assert.ErrorAs(t, err, &nf)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricStore_DeleteMetricValue_DatabaseError(t *testing.T) {
	db, mock, store := setupMetricStore(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM metric_values`).WithArgs("v-1", 9).WillReturnError(errors.New("boom"))

	err := store.DeleteMetricValue(context.Background(), "v-1", 9)
	require.Error(t, err)
	var nf *models.NotFoundError
	assert.False(t, errors.As(err, &nf))
}
