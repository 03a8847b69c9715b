package models

import (
	"encoding/json"
	"errors"
	"time"
)

const (
	MetricTypeNumber   = "number"
	DefaultMetricColor = "#3B82F6"

	// MetricDateLayout is the calendar-day format of MetricValue.Date.
	MetricDateLayout = "2006-01-02"
)

// ErrMetricLimitReached is returned by CreateMetric when the owner already has
// as many metrics as the configured cap allows.
var ErrMetricLimitReached = errors.New("metric limit reached")

// Metric is a manually tracked business number (MRR, signups, churn) that
// sits next to the traffic reports on the dashboard.
type Metric struct {
	ID        string    `json:"id"`
	UserID    int       `json:"userId"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

// MetricValue is the reading of one metric on one calendar day. A metric has
// at most one value per day; writing the same day again replaces it.
type MetricValue struct {
	ID        string    `json:"id"`
	MetricID  string    `json:"metricId"`
	UserID    int       `json:"userId"`
	Value     float64   `json:"value"`
	Date      string    `json:"date"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateMetricRequest struct {
	Name  string `json:"name" binding:"required,max=120"`
	Type  string `json:"type" binding:"omitempty,max=32"`
	Color string `json:"color" binding:"omitempty,hexcolor"`
}

// MetricValueRequest accepts value as a JSON number or a numeric string.
type MetricValueRequest struct {
	MetricID string      `json:"metricId" binding:"required"`
	Value    json.Number `json:"value" binding:"required"`
	Date     string      `json:"date" binding:"required,datetime=2006-01-02"`
	Notes    string      `json:"notes" binding:"max=500"`
}

// MetricSummary is a metric with its history and the latest movement.
type MetricSummary struct {
	Metric
	Values        []MetricValue `json:"values"`
	CurrentValue  float64       `json:"currentValue"`
	PreviousValue float64       `json:"previousValue"`
	// Growth is the percent change from PreviousValue, 0 when there is no
	// non-zero previous reading.
	Growth float64 `json:"growth"`
}

// SummarizeMetric expects values ordered by date ascending.
func SummarizeMetric(m Metric, values []MetricValue) MetricSummary {
	if values == nil {
		values = []MetricValue{}
	}
	s := MetricSummary{Metric: m, Values: values}
	if n := len(values); n > 0 {
		s.CurrentValue = values[n-1].Value
		if n > 1 {
			s.PreviousValue = values[n-2].Value
		}
	}
	if s.PreviousValue != 0 {
		s.Growth = (s.CurrentValue - s.PreviousValue) / s.PreviousValue * 100
	}
	return s
}
