package models

import "time"

// Range is a resolved half-open [Start, End) window.
type Range struct {
	Token string    `json:"token"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the half-open window.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}
