package ingest

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"pulse/api/models"
	"pulse/api/utils"
)

const (
	defaultPath    = "/"
	unknownCountry = "Unknown"
)

// Request carries the transport-level facts a beacon arrives with.
type Request struct {
	ClientAddress string
	UserAgent     string
	ReceivedAt    time.Time
}

func decodeData(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &models.ValidationError{Field: "data", Message: "malformed payload"}
	}
	return nil
}

// NormalizePageView shapes a pageview payload into a stored row.
func NormalizePageView(site *models.Site, raw json.RawMessage, req Request) (models.PageView, error) {
	var data models.PageViewData
	if err := decodeData(raw, &data); err != nil {
		return models.PageView{}, err
	}

	if data.Path == "" {
		data.Path = defaultPath
	}
	if data.Country == "" {
		data.Country = unknownCountry
	}

	ua := utils.ParseUserAgent(req.UserAgent)
	return models.PageView{
		ID:        uuid.New().String(),
		SiteID:    site.ID,
		Path:      data.Path,
		Referrer:  data.Referrer,
		UserAgent: req.UserAgent,
		Country:   data.Country,
		Region:    data.Region,
		City:      data.City,
		Browser:   ua.Browser,
		OS:        ua.OS,
		Device:    ua.Device,
		SessionID: data.SessionID,
		VisitorID: utils.DeriveVisitorID(req.ClientAddress, req.UserAgent),
		Timestamp: req.ReceivedAt.UTC(),
	}, nil
}

// NormalizeEvent shapes a custom event payload into a stored row. The event
// name is required.
func NormalizeEvent(site *models.Site, raw json.RawMessage, req Request) (models.Event, error) {
	var data models.EventData
	if err := decodeData(raw, &data); err != nil {
		return models.Event{}, err
	}

	if data.Name == "" {
		return models.Event{}, &models.ValidationError{Field: "name", Message: "event name is required"}
	}

	props, err := models.CompactProperties(data.Properties)
	if err != nil {
		return models.Event{}, &models.ValidationError{Field: "properties", Message: "properties must be valid JSON"}
	}

	return models.Event{
		ID:         uuid.New().String(),
		SiteID:     site.ID,
		Name:       data.Name,
		Properties: props,
		VisitorID:  utils.DeriveVisitorID(req.ClientAddress, req.UserAgent),
		SessionID:  data.SessionID,
		Path:       data.Path,
		Timestamp:  req.ReceivedAt.UTC(),
	}, nil
}
