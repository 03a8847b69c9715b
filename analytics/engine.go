package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"pulse/api/metrics"
	"pulse/api/models"
	"pulse/api/store"
	"pulse/api/utils"
)

const (
	topPagesLimit  = 10
	referrersLimit = 5
	countriesLimit = 10
	cohortWeeks    = 4

	// Per-page unique visitors are estimated, not counted.
	pageUniqueFactor = 0.7

	directReferrer = "Direct"
	unknownCountry = "Unknown"

	chartDateLayout = "Jan 2"
	dayLayout       = "2006-01-02"
	week            = 7 * 24 * time.Hour
)

// Engine builds reports from raw rows. It keeps no state between calls.
type Engine struct {
	events store.EventStore
}

func NewEngine(events store.EventStore) *Engine {
	return &Engine{events: events}
}

// Aggregate reads the site's rows inside r and computes the dashboard
// report. Store failures come back as *models.DependencyError; the caller
// decides whether to substitute sample data.
func (e *Engine) Aggregate(ctx context.Context, siteID string, r models.Range) (*models.AnalyticsReport, error) {
	started := time.Now()
	defer func() { metrics.ObserveAggregation(r.Token, time.Since(started)) }()

	pageViews, err := e.events.ListPageViews(ctx, siteID, r)
	if err != nil {
		return nil, &models.DependencyError{Op: "list page views", Err: err}
	}
	events, err := e.events.ListEvents(ctx, siteID, r)
	if err != nil {
		return nil, &models.DependencyError{Op: "list events", Err: err}
	}

	return BuildReport(pageViews, events, r), nil
}

// Records fetches the raw rows for export, newest first.
func (e *Engine) Records(ctx context.Context, siteID string, r models.Range) (models.ExportRecords, error) {
	pageViews, err := e.events.ListPageViews(ctx, siteID, r)
	if err != nil {
		return models.ExportRecords{}, &models.DependencyError{Op: "list page views", Err: err}
	}
	events, err := e.events.ListEvents(ctx, siteID, r)
	if err != nil {
		return models.ExportRecords{}, &models.DependencyError{Op: "list events", Err: err}
	}

	sort.SliceStable(pageViews, func(i, j int) bool { return pageViews[i].Timestamp.After(pageViews[j].Timestamp) })
	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp.After(events[j].Timestamp) })
	return models.ExportRecords{PageViews: pageViews, Events: events}, nil
}

// BuildReport is the pure part of Aggregate. Rows outside r are ignored.
func BuildReport(pageViews []models.PageView, events []models.Event, r models.Range) *models.AnalyticsReport {
	inRange := make([]models.PageView, 0, len(pageViews))
	for _, pv := range pageViews {
		if r.Contains(pv.Timestamp) {
			inRange = append(inRange, pv)
		}
	}
	evInRange := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if r.Contains(ev.Timestamp) {
			evInRange = append(evInRange, ev)
		}
	}

	rng := r
	avgSession, bounce := sessionStats(inRange)
	return &models.AnalyticsReport{
		Source: models.SourceLive,
		Range:  &rng,
		Overview: models.Overview{
			TotalPageViews:     len(inRange),
			UniqueVisitors:     uniqueVisitors(inRange),
			TotalEvents:        len(evInRange),
			AvgSessionDuration: FormatDuration(avgSession),
			BounceRate:         bounce,
		},
		ChartData: dailySeries(inRange, r),
		TopPages:  topPages(inRange),
		Referrers: referrers(inRange),
		Devices:   devices(inRange),
		Countries: countries(inRange),
		Events:    eventStats(evInRange),
		Retention: retention(inRange, r),
	}
}

func utcDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dailySeries(pageViews []models.PageView, r models.Range) []models.DailyPoint {
	views := make(map[string]int)
	visitors := make(map[string]map[string]struct{})
	for _, pv := range pageViews {
		day := pv.Timestamp.UTC().Format(dayLayout)
		views[day]++
		if visitors[day] == nil {
			visitors[day] = make(map[string]struct{})
		}
		visitors[day][pv.VisitorID] = struct{}{}
	}

	first, last := utcDate(r.Start), utcDate(r.End)
	points := []models.DailyPoint{}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		day := d.Format(dayLayout)
		points = append(points, models.DailyPoint{
			Date:      d.Format(chartDateLayout),
			Day:       day,
			PageViews: views[day],
			Visitors:  len(visitors[day]),
		})
	}
	return points
}

func uniqueVisitors(pageViews []models.PageView) int {
	seen := make(map[string]struct{}, len(pageViews))
	for _, pv := range pageViews {
		seen[pv.VisitorID] = struct{}{}
	}
	return len(seen)
}

type bucket struct {
	key   string
	count int
}

// rank orders by count descending, then key ascending, and keeps at most
// limit entries (limit <= 0 keeps all).
func rank(counts map[string]int, limit int) []bucket {
	out := make([]bucket, 0, len(counts))
	for k, n := range counts {
		out = append(out, bucket{key: k, count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func countBy(pageViews []models.PageView, key func(models.PageView) string) map[string]int {
	counts := make(map[string]int)
	for _, pv := range pageViews {
		counts[key(pv)]++
	}
	return counts
}

func topPages(pageViews []models.PageView) []models.PageStat {
	ranked := rank(countBy(pageViews, func(pv models.PageView) string { return pv.Path }), topPagesLimit)
	out := make([]models.PageStat, 0, len(ranked))
	for _, b := range ranked {
		out = append(out, models.PageStat{
			Path:                    b.key,
			Views:                   b.count,
			UniqueVisitors:          int(math.Floor(pageUniqueFactor * float64(b.count))),
			UniqueVisitorsEstimated: true,
		})
	}
	return out
}

func referrers(pageViews []models.PageView) []models.ReferrerStat {
	ranked := rank(countBy(pageViews, func(pv models.PageView) string {
		if pv.Referrer == "" {
			return directReferrer
		}
		return pv.Referrer
	}), referrersLimit)
	out := make([]models.ReferrerStat, 0, len(ranked))
	for _, b := range ranked {
		out = append(out, models.ReferrerStat{Source: b.key, Visits: b.count})
	}
	return out
}

func devices(pageViews []models.PageView) []models.DeviceStat {
	ranked := rank(countBy(pageViews, func(pv models.PageView) string {
		return utils.DeviceLabel(pv.Device)
	}), 0)
	out := make([]models.DeviceStat, 0, len(ranked))
	for _, b := range ranked {
		out = append(out, models.DeviceStat{Name: b.key, Value: b.count})
	}
	return out
}

// countries reports percentages against every pageview in range, so a long
// tail beyond the top entries leaves the sum below 100.
func countries(pageViews []models.PageView) []models.CountryStat {
	ranked := rank(countBy(pageViews, func(pv models.PageView) string {
		if pv.Country == "" {
			return unknownCountry
		}
		return pv.Country
	}), countriesLimit)
	out := make([]models.CountryStat, 0, len(ranked))
	for _, b := range ranked {
		out = append(out, models.CountryStat{
			Country:    b.key,
			Visits:     b.count,
			Percentage: percent(b.count, len(pageViews)),
		})
	}
	return out
}

func eventStats(events []models.Event) []models.EventStat {
	counts := make(map[string]int)
	latest := make(map[string]time.Time)
	for _, ev := range events {
		counts[ev.Name]++
		if ev.Timestamp.After(latest[ev.Name]) {
			latest[ev.Name] = ev.Timestamp
		}
	}
	ranked := rank(counts, 0)
	out := make([]models.EventStat, 0, len(ranked))
	for _, b := range ranked {
		out = append(out, models.EventStat{
			Name:          b.key,
			Count:         b.count,
			LastTriggered: latest[b.key].UTC().Format(time.RFC3339),
		})
	}
	return out
}

func sessionKey(pv models.PageView) string {
	if pv.SessionID != "" {
		return "s:" + pv.SessionID
	}
	return "v:" + pv.VisitorID
}

// sessionStats groups pageviews by session id (visitor id when absent) and
// returns the mean first-to-last span and the share of single-page sessions.
func sessionStats(pageViews []models.PageView) (time.Duration, int) {
	type span struct {
		first, last time.Time
		views       int
	}
	sessions := make(map[string]*span)
	for _, pv := range pageViews {
		s, ok := sessions[sessionKey(pv)]
		if !ok {
			sessions[sessionKey(pv)] = &span{first: pv.Timestamp, last: pv.Timestamp, views: 1}
			continue
		}
		if pv.Timestamp.Before(s.first) {
			s.first = pv.Timestamp
		}
		if pv.Timestamp.After(s.last) {
			s.last = pv.Timestamp
		}
		s.views++
	}
	if len(sessions) == 0 {
		return 0, 0
	}

	var total time.Duration
	bounces := 0
	for _, s := range sessions {
		total += s.last.Sub(s.first)
		if s.views == 1 {
			bounces++
		}
	}
	return total / time.Duration(len(sessions)), percent(bounces, len(sessions))
}

// retention buckets visitors into weekly cohorts by the week (counted from
// r.Start) they were first seen, then reports the share of each cohort seen
// again in each following week. Weeks past r.End report 0.
func retention(pageViews []models.PageView, r models.Range) []models.RetentionCohort {
	weekOf := func(t time.Time) int { return int(t.Sub(r.Start) / week) }

	firstWeek := make(map[string]int)
	active := make(map[int]map[string]struct{})
	for _, pv := range pageViews {
		w := weekOf(pv.Timestamp)
		if fw, ok := firstWeek[pv.VisitorID]; !ok || w < fw {
			firstWeek[pv.VisitorID] = w
		}
		if active[w] == nil {
			active[w] = make(map[string]struct{})
		}
		active[w][pv.VisitorID] = struct{}{}
	}

	cohorts := make(map[int][]string)
	for visitor, w := range firstWeek {
		cohorts[w] = append(cohorts[w], visitor)
	}

	out := []models.RetentionCohort{}
	for c := 0; c < cohortWeeks; c++ {
		if !r.Start.Add(time.Duration(c) * week).Before(r.End) {
			break
		}
		members := cohorts[c]
		var shares [5]int
		for n := range shares {
			seen := active[c+n]
			if len(members) == 0 || len(seen) == 0 {
				continue
			}
			hits := 0
			for _, v := range members {
				if _, ok := seen[v]; ok {
					hits++
				}
			}
			shares[n] = percent(hits, len(members))
		}
		out = append(out, models.RetentionCohort{
			Cohort: fmt.Sprintf("Week %d", c+1),
			Week0:  shares[0],
			Week1:  shares[1],
			Week2:  shares[2],
			Week3:  shares[3],
			Week4:  shares[4],
		})
	}
	return out
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// FormatDuration renders whole minutes and seconds, e.g. "3m 24s".
func FormatDuration(d time.Duration) string {
	secs := int(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}
