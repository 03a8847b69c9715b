package analytics

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"pulse/api/models"
	"pulse/api/utils"
)

const (
	sampleDays          = 7
	sampleExportHours   = 168
	samplePageViewCount = 100
	sampleEventCount    = 50
	sampleSiteID        = "demo"
)

var (
	samplePaths     = []string{"/", "/pricing", "/features", "/docs", "/blog"}
	sampleReferrers = []string{"google.com", "twitter.com", "github.com", "Direct", "linkedin.com"}
	sampleCountries = []string{"United States", "United Kingdom", "Germany", "France", "Canada"}
	sampleBrowsers  = []string{"Chrome", "Firefox", "Safari", "Edge"}
	sampleEvents    = []string{"signup_click", "pricing_view", "demo_request", "download_started", "contact_form"}
	sampleDevices   = []string{utils.DeviceDesktop, utils.DeviceMobile, utils.DeviceTablet}
)

// SampleGenerator produces synthetic reports and export rows shaped like
// the real ones. It is safe for concurrent use.
type SampleGenerator struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	clock utils.Clock
}

// NewSampleGenerator seeds from the wall clock when rnd is nil.
func NewSampleGenerator(rnd *rand.Rand, clock utils.Clock) *SampleGenerator {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(clock.Now().UnixNano()))
	}
	return &SampleGenerator{rnd: rnd, clock: clock}
}

func (g *SampleGenerator) between(lo, hi int) int {
	return lo + g.rnd.Intn(hi-lo)
}

// Report returns a demo report tagged with source.
func (g *SampleGenerator) Report(source string) *models.AnalyticsReport {
	g.mu.Lock()
	defer g.mu.Unlock()

	today := utcDate(g.clock.Now())
	chart := make([]models.DailyPoint, 0, sampleDays)
	totalViews, totalVisitors := 0, 0
	for i := sampleDays - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		p := models.DailyPoint{
			Date:      d.Format(chartDateLayout),
			Day:       d.Format(dayLayout),
			PageViews: g.between(2000, 5000),
			Visitors:  g.between(800, 1800),
		}
		totalViews += p.PageViews
		totalVisitors += p.Visitors
		chart = append(chart, p)
	}

	pages := make([]models.PageStat, 0, len(samplePaths))
	for _, path := range samplePaths {
		views := g.between(1000, 9000)
		pages = append(pages, models.PageStat{
			Path:                    path,
			Views:                   views,
			UniqueVisitors:          int(pageUniqueFactor * float64(views)),
			UniqueVisitorsEstimated: true,
		})
	}
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Views > pages[j].Views })

	refs := make([]models.ReferrerStat, 0, len(sampleReferrers))
	for _, src := range sampleReferrers {
		refs = append(refs, models.ReferrerStat{Source: src, Visits: g.between(500, 6000)})
	}
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].Visits > refs[j].Visits })

	// Tablet takes the remainder and keeps at least 3%.
	desktop := g.between(50, 65)
	mobile := g.between(25, 98-desktop)
	devs := []models.DeviceStat{
		{Name: "Desktop", Value: desktop},
		{Name: "Mobile", Value: mobile},
		{Name: "Tablet", Value: 100 - desktop - mobile},
	}

	ctry := make([]models.CountryStat, 0, len(sampleCountries))
	for _, name := range sampleCountries {
		ctry = append(ctry, models.CountryStat{Country: name, Visits: g.between(1000, 9000)})
	}
	sort.SliceStable(ctry, func(i, j int) bool { return ctry[i].Visits > ctry[j].Visits })
	// Leave room for a long tail of unlisted countries.
	tail := g.between(totalViews/10, totalViews/4)
	listed := 0
	for _, c := range ctry {
		listed += c.Visits
	}
	for i := range ctry {
		ctry[i].Percentage = percent(ctry[i].Visits, listed+tail)
	}

	now := g.clock.Now().UTC()
	evs := make([]models.EventStat, 0, len(sampleEvents))
	totalEvents := 0
	for _, name := range sampleEvents {
		n := g.between(100, 1500)
		totalEvents += n
		evs = append(evs, models.EventStat{
			Name:          name,
			Count:         n,
			LastTriggered: now.Add(-time.Duration(g.between(1, 30)) * time.Minute).Format(time.RFC3339),
		})
	}
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].Count > evs[j].Count })

	cohorts := make([]models.RetentionCohort, 0, cohortWeeks)
	for c := 0; c < cohortWeeks; c++ {
		w1 := g.between(60, 75)
		w2 := w1 - g.between(8, 16)
		w3 := w2 - g.between(6, 12)
		w4 := w3 - g.between(3, 8)
		if c == cohortWeeks-1 {
			w4 = 0
		}
		cohorts = append(cohorts, models.RetentionCohort{
			Cohort: fmt.Sprintf("Week %d", c+1),
			Week0:  100, Week1: w1, Week2: w2, Week3: w3, Week4: w4,
		})
	}

	return &models.AnalyticsReport{
		Source: source,
		Overview: models.Overview{
			TotalPageViews:     totalViews,
			UniqueVisitors:     totalVisitors,
			TotalEvents:        totalEvents,
			AvgSessionDuration: FormatDuration(time.Duration(g.between(90, 300)) * time.Second),
			BounceRate:         g.between(30, 60),
		},
		ChartData: chart,
		TopPages:  pages,
		Referrers: refs,
		Devices:   devs,
		Countries: ctry,
		Events:    evs,
		Retention: cohorts,
	}
}

func pick[T any](rnd *rand.Rand, items []T) T {
	return items[rnd.Intn(len(items))]
}

// ExportRecords returns synthetic rows spread over the past week, newest first.
func (g *SampleGenerator) ExportRecords() models.ExportRecords {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now().UTC()
	at := func() time.Time {
		return now.Add(-time.Duration(g.rnd.Intn(sampleExportHours)) * time.Hour)
	}

	pvs := make([]models.PageView, 0, samplePageViewCount)
	for i := 0; i < samplePageViewCount; i++ {
		referrer := pick(g.rnd, sampleReferrers)
		if referrer == directReferrer {
			referrer = ""
		}
		pvs = append(pvs, models.PageView{
			ID:        fmt.Sprintf("pv-%d", i),
			SiteID:    sampleSiteID,
			Path:      pick(g.rnd, samplePaths),
			Referrer:  referrer,
			Country:   pick(g.rnd, sampleCountries),
			Browser:   pick(g.rnd, sampleBrowsers),
			OS:        "Unknown",
			Device:    pick(g.rnd, sampleDevices),
			VisitorID: fmt.Sprintf("v%d", g.rnd.Intn(40)),
			Timestamp: at(),
		})
	}

	evs := make([]models.Event, 0, sampleEventCount)
	for i := 0; i < sampleEventCount; i++ {
		evs = append(evs, models.Event{
			ID:        fmt.Sprintf("ev-%d", i),
			SiteID:    sampleSiteID,
			Name:      pick(g.rnd, sampleEvents[:4]),
			Path:      pick(g.rnd, samplePaths[:3]),
			VisitorID: fmt.Sprintf("v%d", g.rnd.Intn(40)),
			Timestamp: at(),
		})
	}

	sort.SliceStable(pvs, func(i, j int) bool { return pvs[i].Timestamp.After(pvs[j].Timestamp) })
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].Timestamp.After(evs[j].Timestamp) })
	return models.ExportRecords{PageViews: pvs, Events: evs}
}
