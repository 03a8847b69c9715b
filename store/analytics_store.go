package store

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"

	"pulse/api/models"
)

// AnalyticsStore keeps pageview and event rows in ClickHouse. Both tables are
// MergeTree ordered by (site_id, timestamp) so range scans stay cheap.
type AnalyticsStore struct {
	conn clickhouse.Conn
}

func NewAnalyticsStore(conn clickhouse.Conn) *AnalyticsStore {
	return &AnalyticsStore{conn: conn}
}

func (s *AnalyticsStore) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

func (s *AnalyticsStore) InsertPageView(ctx context.Context, pv models.PageView) error {
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO page_views (
			id, site_id, path, referrer, user_agent, country, region, city,
			browser, os, device, session_id, visitor_id, timestamp
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare page view insert: %w", err)
	}

	err = batch.Append(
		pv.ID,
		pv.SiteID,
		pv.Path,
		pv.Referrer,
		pv.UserAgent,
		pv.Country,
		pv.Region,
		pv.City,
		pv.Browser,
		pv.OS,
		pv.Device,
		pv.SessionID,
		pv.VisitorID,
		pv.Timestamp,
	)
	if err != nil {
		_ = batch.Abort()
		return fmt.Errorf("failed to append page view %s: %w", pv.ID, err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send page view batch: %w", err)
	}
	return nil
}

func (s *AnalyticsStore) InsertEvent(ctx context.Context, ev models.Event) error {
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO events (
			id, site_id, name, properties, visitor_id, session_id, path, timestamp
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare event insert: %w", err)
	}

	err = batch.Append(
		ev.ID,
		ev.SiteID,
		ev.Name,
		string(ev.Properties),
		ev.VisitorID,
		ev.SessionID,
		ev.Path,
		ev.Timestamp,
	)
	if err != nil {
		_ = batch.Abort()
		return fmt.Errorf("failed to append event %s: %w", ev.ID, err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send event batch: %w", err)
	}
	return nil
}

func (s *AnalyticsStore) ListPageViews(ctx context.Context, siteID string, r models.Range) ([]models.PageView, error) {
	query := `
		SELECT id, site_id, path, referrer, user_agent, country, region, city,
			browser, os, device, session_id, visitor_id, timestamp
		FROM page_views
		WHERE site_id = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC, id ASC
	`
	rows, err := s.conn.Query(ctx, query, siteID, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("failed to query page views: %w", err)
	}
	defer rows.Close()

	pageViews := []models.PageView{}
	for rows.Next() {
		var pv models.PageView
		err := rows.Scan(
			&pv.ID, &pv.SiteID, &pv.Path, &pv.Referrer, &pv.UserAgent, &pv.Country, &pv.Region, &pv.City,
			&pv.Browser, &pv.OS, &pv.Device, &pv.SessionID, &pv.VisitorID, &pv.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page view: %w", err)
		}
		pv.Timestamp = pv.Timestamp.UTC()
		pageViews = append(pageViews, pv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for page views: %w", err)
	}

	return pageViews, nil
}

func (s *AnalyticsStore) ListEvents(ctx context.Context, siteID string, r models.Range) ([]models.Event, error) {
	query := `
		SELECT id, site_id, name, properties, visitor_id, session_id, path, timestamp
		FROM events
		WHERE site_id = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC, id ASC
	`
	rows, err := s.conn.Query(ctx, query, siteID, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var (
			ev         models.Event
			properties string
		)
		if err := rows.Scan(&ev.ID, &ev.SiteID, &ev.Name, &properties, &ev.VisitorID, &ev.SessionID, &ev.Path, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if properties != "" {
			ev.Properties = []byte(properties)
		}
		ev.Timestamp = ev.Timestamp.UTC()
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for events: %w", err)
	}

	return events, nil
}

func (s *AnalyticsStore) CountForSites(ctx context.Context, siteIDs []string) (map[string]models.SiteCounts, error) {
	counts := make(map[string]models.SiteCounts, len(siteIDs))
	if len(siteIDs) == 0 {
		return counts, nil
	}
	for _, id := range siteIDs {
		counts[id] = models.SiteCounts{}
	}

	tables := []struct {
		name string
		set  func(c *models.SiteCounts, n uint64)
	}{
		{"page_views", func(c *models.SiteCounts, n uint64) { c.PageViews = n }},
		{"events", func(c *models.SiteCounts, n uint64) { c.Events = n }},
	}

	for _, table := range tables {
		query := fmt.Sprintf(`
			SELECT site_id, count() AS total
			FROM %s
			WHERE has(?, site_id)
			GROUP BY site_id
		`, table.name)

		rows, err := s.conn.Query(ctx, query, siteIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table.name, err)
		}

		for rows.Next() {
			var (
				siteID string
				total  uint64
			)
			if err := rows.Scan(&siteID, &total); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan %s count: %w", table.name, err)
			}
			c := counts[siteID]
			table.set(&c, total)
			counts[siteID] = c
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("error iterating %s counts: %w", table.name, err)
		}
	}

	return counts, nil
}
