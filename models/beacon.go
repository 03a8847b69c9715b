package models

import "encoding/json"

const (
	BeaconPageView = "pageview"
	BeaconEvent    = "event"
)

// Beacon is the body posted by the tracking snippet. Data stays raw until the
// normalizer knows which variant Type selects.
type Beacon struct {
	APIKey string          `json:"apiKey"`
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
}

// PageViewData is the data payload of a "pageview" beacon.
type PageViewData struct {
	Path      string `json:"path"`
	Referrer  string `json:"referrer"`
	Country   string `json:"country"`
	Region    string `json:"region"`
	City      string `json:"city"`
	SessionID string `json:"sessionId"`
}

// EventData is the data payload of an "event" beacon.
type EventData struct {
	Name       string          `json:"name"`
	Properties json.RawMessage `json:"properties"`
	SessionID  string          `json:"sessionId"`
	Path       string          `json:"path"`
}
