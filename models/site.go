package models

import "time"

// Site is a tracked property. APIKey authenticates beacons from the embedded
// snippet and must only ever be serialized to the owner.
type Site struct {
	ID        string    `json:"id"`
	UserID    int       `json:"userId"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	APIKey    string    `json:"apiKey"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateSiteRequest struct {
	Name   string `json:"name" binding:"required,max=120"`
	Domain string `json:"domain" binding:"required,max=255"`
}

// SiteSummary is a site listing entry with its stored row counts.
type SiteSummary struct {
	Site
	Counts SiteCounts `json:"_count"`
}
