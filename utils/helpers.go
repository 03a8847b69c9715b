package utils

import (
	"time"

	"pulse/api/models"
)

const DefaultRange = "7d"

var rangeDurations = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

func IsValidRange(token string) bool {
	_, ok := rangeDurations[token]
	return ok
}

// ResolveRange maps a range token to [now-window, now) in UTC. Unrecognized
// tokens resolve to the 7d window and report "7d" as their token.
func ResolveRange(token string, now time.Time) models.Range {
	window, ok := rangeDurations[token]
	if !ok {
		token = DefaultRange
		window = rangeDurations[DefaultRange]
	}
	end := now.UTC()
	return models.Range{
		Token: token,
		Start: end.Add(-window),
		End:   end,
	}
}

// Clock is the time source used by ingestion and reporting.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
