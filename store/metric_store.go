package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pulse/api/models"
)

// PostgresMetricStore keeps metrics and their daily values in Postgres.
// metric_values carries UNIQUE (metric_id, date), which the upsert targets.
type PostgresMetricStore struct {
	db *sql.DB
}

func NewMetricStore(db *sql.DB) *PostgresMetricStore {
	return &PostgresMetricStore{db: db}
}

// CreateMetric checks the cap and inserts in one statement; an empty result
// means the user is at the limit.
func (s *PostgresMetricStore) CreateMetric(ctx context.Context, metric *models.Metric, limit int) error {
	query := `
		INSERT INTO metrics (id, user_id, name, type, color)
		SELECT $1::text, $2::integer, $3::text, $4::text, $5::text
		WHERE $6::integer <= 0 OR (SELECT COUNT(*) FROM metrics WHERE user_id = $2) < $6::integer
		RETURNING created_at;
	`
	err := s.db.QueryRowContext(ctx, query, metric.ID, metric.UserID, metric.Name, metric.Type, metric.Color, limit).
		Scan(&metric.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrMetricLimitReached
	}
	if err != nil {
		return fmt.Errorf("failed to create metric: %w", err)
	}
	return nil
}

func (s *PostgresMetricStore) ListMetrics(ctx context.Context, userID int) ([]models.Metric, error) {
	query := `
		SELECT id, user_id, name, type, color, created_at
		FROM metrics
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC;
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	metrics := []models.Metric{}
	for rows.Next() {
		var m models.Metric
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Type, &m.Color, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return metrics, nil
}

func (s *PostgresMetricStore) ListMetricValues(ctx context.Context, userID int) ([]models.MetricValue, error) {
	query := `
		SELECT id, metric_id, user_id, value, to_char(date, 'YYYY-MM-DD'), notes, created_at
		FROM metric_values
		WHERE user_id = $1
		ORDER BY date ASC, id ASC;
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query metric values: %w", err)
	}
	defer rows.Close()

	values := []models.MetricValue{}
	for rows.Next() {
		var v models.MetricValue
		if err := rows.Scan(&v.ID, &v.MetricID, &v.UserID, &v.Value, &v.Date, &v.Notes, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan metric value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return values, nil
}

// DeleteMetric removes the metric; its values go with it through ON DELETE CASCADE.
func (s *PostgresMetricStore) DeleteMetric(ctx context.Context, id string, userID int) error {
	return s.deleteOwned(ctx, `DELETE FROM metrics WHERE id = $1 AND user_id = $2`, id, userID, "metric not found")
}

// UpsertMetricValue only writes when the metric belongs to value.UserID. The
// returned id is the existing row's when the day was already recorded.
func (s *PostgresMetricStore) UpsertMetricValue(ctx context.Context, value *models.MetricValue) error {
	query := `
		INSERT INTO metric_values (id, metric_id, user_id, value, date, notes)
		SELECT $1::text, m.id, m.user_id, $4::double precision, $5::date, $6::text
		FROM metrics m
		WHERE m.id = $2 AND m.user_id = $3
		ON CONFLICT (metric_id, date) DO UPDATE
		SET value = EXCLUDED.value, notes = EXCLUDED.notes
		RETURNING id, created_at;
	`
	err := s.db.QueryRowContext(ctx, query, value.ID, value.MetricID, value.UserID, value.Value, value.Date, value.Notes).
		Scan(&value.ID, &value.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.NotFoundError{Message: "metric not found"}
	}
	if err != nil {
		return fmt.Errorf("failed to save metric value: %w", err)
	}
	return nil
}

func (s *PostgresMetricStore) DeleteMetricValue(ctx context.Context, id string, userID int) error {
	return s.deleteOwned(ctx, `DELETE FROM metric_values WHERE id = $1 AND user_id = $2`, id, userID, "metric value not found")
}

func (s *PostgresMetricStore) deleteOwned(ctx context.Context, query, id string, userID int, notFound string) error {
	res, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return &models.NotFoundError{Message: notFound}
	}
	return nil
}
