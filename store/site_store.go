package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pulse/api/models"
)

// PostgresSiteStore keeps the site registry in Postgres. sites.api_key carries
// a unique index so key lookups are a single index probe.
type PostgresSiteStore struct {
	db *sql.DB
}

func NewSiteStore(db *sql.DB) *PostgresSiteStore {
	return &PostgresSiteStore{db: db}
}

func (s *PostgresSiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresSiteStore) CreateSite(ctx context.Context, site *models.Site) error {
	query := `
		INSERT INTO sites (id, user_id, name, domain, api_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at;
	`
	err := s.db.QueryRowContext(ctx, query, site.ID, site.UserID, site.Name, site.Domain, site.APIKey).
		Scan(&site.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create site: %w", err)
	}
	return nil
}

func (s *PostgresSiteStore) GetSiteByAPIKey(ctx context.Context, apiKey string) (*models.Site, error) {
	query := `
		SELECT id, user_id, name, domain, api_key, created_at
		FROM sites
		WHERE api_key = $1;
	`
	return s.getOne(ctx, query, apiKey)
}

func (s *PostgresSiteStore) GetSiteByID(ctx context.Context, id string) (*models.Site, error) {
	query := `
		SELECT id, user_id, name, domain, api_key, created_at
		FROM sites
		WHERE id = $1;
	`
	return s.getOne(ctx, query, id)
}

func (s *PostgresSiteStore) getOne(ctx context.Context, query string, arg string) (*models.Site, error) {
	site := &models.Site{}
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&site.ID,
		&site.UserID,
		&site.Name,
		&site.Domain,
		&site.APIKey,
		&site.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Message: "site not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site: %w", err)
	}
	return site, nil
}

func (s *PostgresSiteStore) ListSitesByUser(ctx context.Context, userID int) ([]models.Site, error) {
	query := `
		SELECT id, user_id, name, domain, api_key, created_at
		FROM sites
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC;
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sites: %w", err)
	}
	defer rows.Close()

	sites := []models.Site{}
	for rows.Next() {
		var site models.Site
		if err := rows.Scan(&site.ID, &site.UserID, &site.Name, &site.Domain, &site.APIKey, &site.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sites, nil
}

func (s *PostgresSiteStore) DeleteSite(ctx context.Context, id string, userID int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sites WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete site: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return &models.NotFoundError{Message: "site not found"}
	}
	return nil
}
