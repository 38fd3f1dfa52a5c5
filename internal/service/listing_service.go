package service

import (
	"context"
	"sort"

	"idportal/internal/models"
	"idportal/internal/repository"

	"golang.org/x/sync/errgroup"
)

// ListingService builds the merged dashboards. Both workflows are queried
// concurrently and interleaved newest first.
type ListingService struct {
	reg repository.Registry
}

func NewListingService(reg repository.Registry) *ListingService {
	return &ListingService{reg: reg}
}

// AdminApplications merges new applications and lost-ID replacements.
func (s *ListingService) AdminApplications(ctx context.Context) ([]models.AdminApplicationRow, error) {
	var regular, lost []models.AdminApplicationRow

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		regular, err = s.reg.Applications().ListAdmin(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		lost, err = s.reg.LostIDs().ListAdminMerged(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := append(make([]models.AdminApplicationRow, 0, len(regular)+len(lost)), regular...)
	out = append(out, lost...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// OfficerApplications merges the officer's own submissions of both kinds.
func (s *ListingService) OfficerApplications(ctx context.Context, officerID uint) ([]models.OfficerApplicationRow, error) {
	var regular, lost []models.OfficerApplicationRow

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		regular, err = s.reg.Applications().ListByOfficer(ctx, officerID)
		return err
	})
	g.Go(func() error {
		var err error
		lost, err = s.reg.LostIDs().ListByOfficerMerged(ctx, officerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := append(make([]models.OfficerApplicationRow, 0, len(regular)+len(lost)), regular...)
	out = append(out, lost...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *ListingService) AdminLostIDs(ctx context.Context) ([]models.AdminLostIDRow, error) {
	rows, err := s.reg.LostIDs().ListAdmin(ctx)
	if rows == nil && err == nil {
		rows = []models.AdminLostIDRow{}
	}
	return rows, err
}

func (s *ListingService) OfficerLostIDs(ctx context.Context, officerID uint) ([]models.OfficerLostIDRow, error) {
	rows, err := s.reg.LostIDs().ListByOfficer(ctx, officerID)
	if rows == nil && err == nil {
		rows = []models.OfficerLostIDRow{}
	}
	return rows, err
}

// Approved lists applications waiting for dispatch.
func (s *ListingService) Approved(ctx context.Context) ([]models.ApprovedApplicationRow, error) {
	rows, err := s.reg.Applications().ListApproved(ctx)
	if rows == nil && err == nil {
		rows = []models.ApprovedApplicationRow{}
	}
	return rows, err
}
