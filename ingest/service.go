package ingest

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"pulse/api/metrics"
	"pulse/api/models"
	"pulse/api/store"
	"pulse/api/utils"
)

const unknownAddress = "unknown"

type Service struct {
	sites  store.SiteStore
	events store.EventStore
	clock  utils.Clock
}

func NewService(sites store.SiteStore, events store.EventStore, clock utils.Clock) *Service {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &Service{sites: sites, events: events, clock: clock}
}

// Ingest authenticates the beacon by API key, normalizes it and writes
// exactly one row. It returns *models.AuthError, *models.ValidationError or
// *models.DependencyError; nothing is written on error.
func (s *Service) Ingest(ctx context.Context, beacon models.Beacon, clientAddress, userAgent string) error {
	if beacon.APIKey == "" {
		metrics.RecordBeaconRejected("auth")
		return &models.AuthError{Message: "invalid API key"}
	}

	site, err := s.sites.GetSiteByAPIKey(ctx, beacon.APIKey)
	if err != nil {
		var nf *models.NotFoundError
		if errors.As(err, &nf) {
			metrics.RecordBeaconRejected("auth")
			return &models.AuthError{Message: "invalid API key"}
		}
		metrics.RecordBeaconRejected("dependency")
		return &models.DependencyError{Op: "lookup site", Err: err}
	}

	if clientAddress == "" {
		clientAddress = unknownAddress
	}
	req := Request{
		ClientAddress: clientAddress,
		UserAgent:     userAgent,
		ReceivedAt:    s.clock.Now(),
	}

	switch beacon.Type {
	case models.BeaconPageView:
		pv, err := NormalizePageView(site, beacon.Data, req)
		if err != nil {
			metrics.RecordBeaconRejected("validation")
			return err
		}
		if err := s.events.InsertPageView(ctx, pv); err != nil {
			metrics.RecordBeaconRejected("dependency")
			return &models.DependencyError{Op: "insert page view", Err: err}
		}
	case models.BeaconEvent:
		ev, err := NormalizeEvent(site, beacon.Data, req)
		if err != nil {
			metrics.RecordBeaconRejected("validation")
			return err
		}
		if err := s.events.InsertEvent(ctx, ev); err != nil {
			metrics.RecordBeaconRejected("dependency")
			return &models.DependencyError{Op: "insert event", Err: err}
		}
	default:
		metrics.RecordBeaconRejected("validation")
		return &models.ValidationError{Field: "type", Message: "must be one of pageview, event"}
	}

	metrics.RecordBeaconAccepted(beacon.Type)
	log.Debug().Str("site_id", site.ID).Str("type", beacon.Type).Msg("beacon accepted")
	return nil
}
