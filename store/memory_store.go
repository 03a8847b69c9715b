package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pulse/api/models"
)

// MemoryStore keeps users, sites, metrics and rows in process memory. It backs the
// "memory" datastore mode and doubles as the fake in tests.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]*models.User
	nextUser  int
	sites     map[string]*models.Site
	pageViews []models.PageView
	events    []models.Event
	metrics   map[string]*models.Metric
	values    map[string]*models.MetricValue

	// err, when set, is returned by every EventStore, SiteStore and MetricStore call.
	err error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]*models.User),
		sites:   make(map[string]*models.Site),
		metrics: make(map[string]*models.Metric),
		values:  make(map[string]*models.MetricValue),
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *MemoryStore) CreateUser(ctx context.Context, email string, hashedPassword []byte) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[email]; ok {
		return nil, ErrEmailTaken
	}
	s.nextUser++
	now := time.Now().UTC()
	user := &models.User{
		ID:             s.nextUser,
		Email:          email,
		HashedPassword: hashedPassword,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.users[email] = user
	cp := *user
	return &cp, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[email]
	if !ok {
		return nil, &models.NotFoundError{Message: fmt.Sprintf("user with email '%s' not found", email)}
	}
	cp := *user
	return &cp, nil
}

func (s *MemoryStore) CreateSite(ctx context.Context, site *models.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	for _, existing := range s.sites {
		if existing.APIKey == site.APIKey {
			return fmt.Errorf("failed to create site: duplicate api key")
		}
	}
	if site.CreatedAt.IsZero() {
		site.CreatedAt = time.Now().UTC()
	}
	cp := *site
	s.sites[site.ID] = &cp
	return nil
}

func (s *MemoryStore) GetSiteByAPIKey(ctx context.Context, apiKey string) (*models.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}
	for _, site := range s.sites {
		if site.APIKey == apiKey {
			cp := *site
			return &cp, nil
		}
	}
	return nil, &models.NotFoundError{Message: "site not found"}
}

func (s *MemoryStore) GetSiteByID(ctx context.Context, id string) (*models.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}
	site, ok := s.sites[id]
	if !ok {
		return nil, &models.NotFoundError{Message: "site not found"}
	}
	cp := *site
	return &cp, nil
}

func (s *MemoryStore) ListSitesByUser(ctx context.Context, userID int) ([]models.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}
	sites := []models.Site{}
	for _, site := range s.sites {
		if site.UserID == userID {
			sites = append(sites, *site)
		}
	}
	sort.Slice(sites, func(i, j int) bool {
		if sites[i].CreatedAt.Equal(sites[j].CreatedAt) {
			return sites[i].ID < sites[j].ID
		}
		return sites[i].CreatedAt.Before(sites[j].CreatedAt)
	})
	return sites, nil
}

func (s *MemoryStore) DeleteSite(ctx context.Context, id string, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	site, ok := s.sites[id]
	if !ok || site.UserID != userID {
		return &models.NotFoundError{Message: "site not found"}
	}
	delete(s.sites, id)
	return nil
}

func (s *MemoryStore) InsertPageView(ctx context.Context, pv models.PageView) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.pageViews = append(s.pageViews, pv)
	return nil
}

func (s *MemoryStore) InsertEvent(ctx context.Context, ev models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *MemoryStore) ListPageViews(ctx context.Context, siteID string, r models.Range) ([]models.PageView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}
	out := []models.PageView{}
	for _, pv := range s.pageViews {
		if pv.SiteID == siteID && r.Contains(pv.Timestamp) {
			out = append(out, pv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *MemoryStore) ListEvents(ctx context.Context, siteID string, r models.Range) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}
	out := []models.Event{}
	for _, ev := range s.events {
		if ev.SiteID == siteID && r.Contains(ev.Timestamp) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *MemoryStore) CountForSites(ctx context.Context, siteIDs []string) (map[string]models.SiteCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}
	counts := make(map[string]models.SiteCounts, len(siteIDs))
	for _, id := range siteIDs {
		counts[id] = models.SiteCounts{}
	}
	for _, pv := range s.pageViews {
		if c, ok := counts[pv.SiteID]; ok {
			c.PageViews++
			counts[pv.SiteID] = c
		}
	}
	for _, ev := range s.events {
		if c, ok := counts[ev.SiteID]; ok {
			c.Events++
			counts[ev.SiteID] = c
		}
	}
	return counts, nil
}

func (s *MemoryStore) CreateMetric(ctx context.Context, metric *models.Metric, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	if limit > 0 {
		owned := 0
		for _, m := range s.metrics {
			if m.UserID == metric.UserID {
				owned++
			}
		}
		if owned >= limit {
			return models.ErrMetricLimitReached
		}
	}
	if metric.CreatedAt.IsZero() {
		metric.CreatedAt = time.Now().UTC()
	}
	cp := *metric
	s.metrics[metric.ID] = &cp
	return nil
}

func (s *MemoryStore) ListMetrics(ctx context.Context, userID int) ([]models.Metric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}
	out := []models.Metric{}
	for _, m := range s.metrics {
		if m.UserID == userID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) ListMetricValues(ctx context.Context, userID int) ([]models.MetricValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}
	out := []models.MetricValue{}
	for _, v := range s.values {
		if v.UserID == userID {
			out = append(out, *v)
		}
	}
	// YYYY-MM-DD sorts lexically.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date == out[j].Date {
			return out[i].ID < out[j].ID
		}
		return out[i].Date < out[j].Date
	})
	return out, nil
}

func (s *MemoryStore) DeleteMetric(ctx context.Context, id string, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	m, ok := s.metrics[id]
	if !ok || m.UserID != userID {
		return &models.NotFoundError{Message: "metric not found"}
	}
	delete(s.metrics, id)
	for vid, v := range s.values {
		if v.MetricID == id {
			delete(s.values, vid)
		}
	}
	return nil
}

func (s *MemoryStore) UpsertMetricValue(ctx context.Context, value *models.MetricValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	m, ok := s.metrics[value.MetricID]
	if !ok || m.UserID != value.UserID {
		return &models.NotFoundError{Message: "metric not found"}
	}
	for _, existing := range s.values {
		if existing.MetricID == value.MetricID && existing.Date == value.Date {
			existing.Value = value.Value
			existing.Notes = value.Notes
			value.ID = existing.ID
			value.CreatedAt = existing.CreatedAt
			return nil
		}
	}
	if value.CreatedAt.IsZero() {
		value.CreatedAt = time.Now().UTC()
	}
	cp := *value
	s.values[value.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteMetricValue(ctx context.Context, id string, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	v, ok := s.values[id]
	if !ok || v.UserID != userID {
		return &models.NotFoundError{Message: "metric value not found"}
	}
	delete(s.values, id)
	return nil
}

// SetErr makes every subsequent store call fail with err (nil clears it).
func (s *MemoryStore) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
