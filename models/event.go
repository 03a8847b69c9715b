package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Properties is a free-form JSON value attached to an event. It is kept in
// compact form and decoding compacts again, so an indented export decodes
// back to the stored bytes.
type Properties []byte

func (p Properties) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

func (p *Properties) UnmarshalJSON(data []byte) error {
	compacted, err := CompactProperties(data)
	if err != nil {
		return err
	}
	*p = compacted
	return nil
}

// CompactProperties strips insignificant whitespace. Empty input and a JSON
// null both yield nil.
func CompactProperties(raw []byte) (Properties, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return Properties(buf.Bytes()), nil
}

// PageView is one stored page load.
type PageView struct {
	ID        string    `json:"id"`
	SiteID    string    `json:"siteId"`
	Path      string    `json:"path"`
	Referrer  string    `json:"referrer"`
	UserAgent string    `json:"userAgent"`
	Country   string    `json:"country"`
	Region    string    `json:"region"`
	City      string    `json:"city"`
	Browser   string    `json:"browser"`
	OS        string    `json:"os"`
	Device    string    `json:"device"`
	SessionID string    `json:"sessionId"`
	VisitorID string    `json:"visitorId"`
	Timestamp time.Time `json:"timestamp"`
}

// Event is one stored custom action, e.g. "signup_click".
type Event struct {
	ID         string     `json:"id"`
	SiteID     string     `json:"siteId"`
	Name       string     `json:"name"`
	Properties Properties `json:"properties,omitempty"`
	VisitorID  string     `json:"visitorId"`
	SessionID  string     `json:"sessionId"`
	Path       string     `json:"path"`
	Timestamp  time.Time  `json:"timestamp"`
}

// PageViewColumns is the column order used by tabular exports.
var PageViewColumns = []string{
	"id", "siteId", "path", "referrer", "userAgent", "country", "region", "city",
	"browser", "os", "device", "sessionId", "visitorId", "timestamp",
}

// Values returns the row in PageViewColumns order.
func (p PageView) Values() []string {
	return []string{
		p.ID, p.SiteID, p.Path, p.Referrer, p.UserAgent, p.Country, p.Region, p.City,
		p.Browser, p.OS, p.Device, p.SessionID, p.VisitorID, formatTimestamp(p.Timestamp),
	}
}

// EventColumns is the column order used by tabular exports.
var EventColumns = []string{
	"id", "siteId", "name", "properties", "visitorId", "sessionId", "path", "timestamp",
}

// Values returns the row in EventColumns order.
func (e Event) Values() []string {
	return []string{
		e.ID, e.SiteID, e.Name, string(e.Properties), e.VisitorID, e.SessionID, e.Path,
		formatTimestamp(e.Timestamp),
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// ExportRecords is the raw row set handed to the export formatter.
type ExportRecords struct {
	PageViews []PageView `json:"pageViews"`
	Events    []Event    `json:"events"`
}

// SiteCounts holds the stored row totals for one site.
type SiteCounts struct {
	PageViews uint64 `json:"pageViews"`
	Events    uint64 `json:"events"`
}
