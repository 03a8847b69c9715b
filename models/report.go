package models

const (
	SourceLive     = "live"
	SourceDemo     = "demo"
	SourceFallback = "fallback"
)

// AnalyticsReport is the dashboard payload. Source tells the client whether
// the numbers are real, demo data, or a fallback after an internal failure.
type AnalyticsReport struct {
	Source    string            `json:"source"`
	Range     *Range            `json:"range,omitempty"`
	Overview  Overview          `json:"overview"`
	ChartData []DailyPoint      `json:"chartData"`
	TopPages  []PageStat        `json:"topPages"`
	Referrers []ReferrerStat    `json:"referrers"`
	Devices   []DeviceStat      `json:"devices"`
	Countries []CountryStat     `json:"countries"`
	Events    []EventStat       `json:"events"`
	Retention []RetentionCohort `json:"retention"`
}

type Overview struct {
	TotalPageViews     int    `json:"totalPageViews"`
	UniqueVisitors     int    `json:"uniqueVisitors"`
	TotalEvents        int    `json:"totalEvents"`
	AvgSessionDuration string `json:"avgSessionDuration"`
	BounceRate         int    `json:"bounceRate"`
}

type DailyPoint struct {
	Date      string `json:"date"`
	Day       string `json:"day"`
	PageViews int    `json:"pageViews"`
	Visitors  int    `json:"visitors"`
}

// PageStat.UniqueVisitors is floor(0.7 * Views), not a distinct count.
type PageStat struct {
	Path                    string `json:"path"`
	Views                   int    `json:"views"`
	UniqueVisitors          int    `json:"uniqueVisitors"`
	UniqueVisitorsEstimated bool   `json:"uniqueVisitorsEstimated"`
}

type ReferrerStat struct {
	Source string `json:"source"`
	Visits int    `json:"visits"`
}

type DeviceStat struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type CountryStat struct {
	Country    string `json:"country"`
	Visits     int    `json:"visits"`
	Percentage int    `json:"percentage"`
}

type EventStat struct {
	Name          string `json:"name"`
	Count         int    `json:"count"`
	LastTriggered string `json:"lastTriggered"`
}

type RetentionCohort struct {
	Cohort string `json:"cohort"`
	Week0  int    `json:"week0"`
	Week1  int    `json:"week1"`
	Week2  int    `json:"week2"`
	Week3  int    `json:"week3"`
	Week4  int    `json:"week4"`
}
