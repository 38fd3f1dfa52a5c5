package service

import (
	"context"
	"strings"
	"time"

	"idportal/internal/cache"
	"idportal/internal/models"
	"idportal/internal/observability"
	"idportal/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// TrackingService answers public status lookups and citizen lookups.
type TrackingService struct {
	reg         repository.Registry
	cache       *cache.Cache
	ttl         time.Duration
	nationality string
}

func NewTrackingService(reg repository.Registry, c *cache.Cache, ttl time.Duration, nationality string) *TrackingService {
	if ttl <= 0 {
		ttl = cache.DefaultTrackingTTL
	}
	if nationality == "" {
		nationality = "Kenyan"
	}
	return &TrackingService{reg: reg, cache: c, ttl: ttl, nationality: nationality}
}

// Track resolves number against every numbering space in order and returns
// the first match.
func (s *TrackingService) Track(ctx context.Context, number string) (*models.TrackingView, error) {
	refs := models.CandidateRefs(number)
	if len(refs) == 0 {
		return nil, models.NewNotFoundMessage("Application not found")
	}

	ctx, span := observability.StartWorkflow(ctx, "tracking", "track",
		attribute.String("idportal.tracking_number", number))
	var view models.TrackingView
	err := s.cache.Aside(ctx, cache.TrackKey(refs[0].Number()), &view, s.ttl, func() error {
		for _, ref := range refs {
			found, err := s.resolve(ctx, ref)
			if err != nil {
				return err
			}
			if found != nil {
				observability.TrackingLookups.WithLabelValues(ref.Workflow()).Inc()
				view = *found
				return nil
			}
		}
		observability.TrackingLookups.WithLabelValues("none").Inc()
		return models.NewNotFoundMessage("Application not found")
	})
	span.Finish(err)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *TrackingService) resolve(ctx context.Context, ref models.TrackingRef) (*models.TrackingView, error) {
	switch r := ref.(type) {
	case models.ApplicationRef:
		return s.reg.Applications().TrackingView(ctx, r.Number())
	case models.LostIDRef:
		return s.reg.LostIDs().TrackingView(ctx, r.Number())
	default:
		return nil, nil
	}
}

// TrackLost looks up a waiting card number only.
func (s *TrackingService) TrackLost(ctx context.Context, number string) (*models.LostIDTrackingView, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, models.NewNotFoundMessage("Application not found")
	}

	var view models.LostIDTrackingView
	err := s.cache.Aside(ctx, cache.TrackLostKey(number), &view, s.ttl, func() error {
		found, err := s.reg.LostIDs().LostTrackingView(ctx, number)
		if err != nil {
			return err
		}
		if found == nil {
			return models.NewNotFoundMessage("Application not found")
		}
		view = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Citizen resolves an ID number, preferring the issuing application over the
// citizens projection.
func (s *TrackingService) Citizen(ctx context.Context, idNumber string) (*models.Citizen, error) {
	idNumber = strings.TrimSpace(idNumber)
	if idNumber == "" {
		return nil, models.NewNotFoundMessage("Citizen not found")
	}

	var citizen models.Citizen
	err := s.cache.Aside(ctx, cache.CitizenKey(idNumber), &citizen, cache.CitizenTTL, func() error {
		issued, err := s.reg.Applications().FindIssued(ctx, idNumber)
		if err != nil {
			return err
		}
		if issued != nil {
			citizen = *models.CitizenFromApplication(issued, s.nationality)
			return nil
		}
		stored, err := s.reg.Citizens().GetByIDNumber(ctx, idNumber)
		if err != nil {
			return err
		}
		if stored == nil {
			return models.NewNotFoundMessage("Citizen not found")
		}
		citizen = *stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &citizen, nil
}
