package store

import (
	"context"
	"errors"

	"pulse/api/models"
)

// ErrEmailTaken is returned by CreateUser when the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

type UserRepository interface {
	CreateUser(ctx context.Context, email string, hashedPassword []byte) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// SiteStore lookups return *models.NotFoundError when no site matches.
type SiteStore interface {
	CreateSite(ctx context.Context, site *models.Site) error
	GetSiteByAPIKey(ctx context.Context, apiKey string) (*models.Site, error)
	GetSiteByID(ctx context.Context, id string) (*models.Site, error)
	ListSitesByUser(ctx context.Context, userID int) ([]models.Site, error)
	DeleteSite(ctx context.Context, id string, userID int) error
}

// MetricStore keeps manually tracked metrics and their daily values. Every
// call is scoped to the owning user; a metric or value owned by someone else
// is reported as *models.NotFoundError.
type MetricStore interface {
	// CreateMetric fails with models.ErrMetricLimitReached when the user
	// already owns limit metrics. A limit of zero or less means no cap.
	CreateMetric(ctx context.Context, metric *models.Metric, limit int) error
	ListMetrics(ctx context.Context, userID int) ([]models.Metric, error)
	// ListMetricValues returns all of the user's values ordered by date.
	ListMetricValues(ctx context.Context, userID int) ([]models.MetricValue, error)
	DeleteMetric(ctx context.Context, id string, userID int) error
	// UpsertMetricValue replaces the value already stored for the same
	// metric and date, keeping its ID.
	UpsertMetricValue(ctx context.Context, value *models.MetricValue) error
	DeleteMetricValue(ctx context.Context, id string, userID int) error
}

// EventStore holds the immutable pageview and event rows. List calls return
// rows inside the half-open range ordered by timestamp ascending.
type EventStore interface {
	InsertPageView(ctx context.Context, pv models.PageView) error
	InsertEvent(ctx context.Context, ev models.Event) error
	ListPageViews(ctx context.Context, siteID string, r models.Range) ([]models.PageView, error)
	ListEvents(ctx context.Context, siteID string, r models.Range) ([]models.Event, error)
	CountForSites(ctx context.Context, siteIDs []string) (map[string]models.SiteCounts, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}
