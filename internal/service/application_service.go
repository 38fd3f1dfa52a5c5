package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"idportal/internal/cache"
	"idportal/internal/featureflags"
	"idportal/internal/middleware"
	"idportal/internal/models"
	"idportal/internal/notifications"
	"idportal/internal/observability"
	"idportal/internal/repository"
	"idportal/internal/storage"
	"idportal/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const workflowApplication = "application"

// SubmitApplicationInput is a new-ID submission. Fields uses the form's
// camelCase keys.
type SubmitApplicationInput struct {
	OfficerID           uint
	Fields              map[string]string
	SupportingDocuments string
	Files               []Upload
}

// ApplicationService runs the new-ID workflow.
type ApplicationService struct {
	reg    repository.Registry
	store  storage.Store
	ids    *IdentifierGenerator
	flags  *featureflags.Manager
	events statusEvents
}

func NewApplicationService(
	reg repository.Registry,
	store storage.Store,
	ids *IdentifierGenerator,
	flags *featureflags.Manager,
	c *cache.Cache,
	pub notifications.Publisher,
) *ApplicationService {
	return &ApplicationService{
		reg:    reg,
		store:  store,
		ids:    ids,
		flags:  flags,
		events: statusEvents{cache: c, events: pub},
	}
}

// Submit validates and persists a new application with its documents. The
// application number, row and document rows are written in one transaction;
// files stored by a failed attempt are removed.
func (s *ApplicationService) Submit(ctx context.Context, in SubmitApplicationInput) (*models.Application, error) {
	if missing := validation.MissingFields(in.Fields, validation.ApplicationRequiredFields); len(missing) > 0 {
		return nil, models.NewValidationError(validation.MissingFieldsMessage(missing))
	}

	var app *models.Application
	writer := &documentWriter{store: s.store}
	ctx, span := observability.StartWorkflow(ctx, workflowApplication, "submit",
		attribute.Int64("idportal.officer_id", int64(in.OfficerID)))

	err := retryOnConflict(ctx, workflowApplication, func() error {
		err := s.reg.Transaction(ctx, func(tx repository.Registry) error {
			number, err := s.ids.Next(ctx, tx.Sequences(), ClassApplication)
			if err != nil {
				return err
			}

			now := s.ids.Now()
			app = applicationFromFields(in, number, now)
			if err := tx.Applications().Create(ctx, app); err != nil {
				return err
			}

			docs, err := writer.storeDocuments(ctx, in.Files, models.ApplicationDocumentSlots, func(up Upload) string {
				return fmt.Sprintf("%s_%s_%s", number, up.Field, storage.SecureFilename(up.Filename))
			})
			if err != nil {
				return err
			}
			for i := range docs {
				docs[i].ApplicationID = &app.ID
			}
			if err := tx.Documents().CreateBatch(ctx, docs); err != nil {
				return err
			}
			app.Documents = docs
			return nil
		})
		if err != nil {
			_ = writer.cleanup(ctx)
		}
		return err
	})
	span.Finish(err)
	if err != nil {
		return nil, err
	}

	observability.Submissions.WithLabelValues(workflowApplication).Inc()
	middleware.Logger.InfoContext(ctx, "application submitted",
		slog.String("application_number", app.ApplicationNumber),
		slog.Uint64("officer_id", uint64(app.OfficerID)),
		slog.Int("documents", len(app.Documents)))
	s.events.committed(ctx, workflowApplication, app.ID, app.ApplicationNumber, string(app.Status), app.OfficerID, app.CreatedAt)
	return app, nil
}

func applicationFromFields(in SubmitApplicationInput, number string, now time.Time) *models.Application {
	f := func(key string) string { return strings.TrimSpace(in.Fields[key]) }
	supporting := strings.TrimSpace(in.SupportingDocuments)
	if supporting == "" {
		supporting = "{}"
	}
	return &models.Application{
		ApplicationNumber:   number,
		FullNames:           f("fullNames"),
		DateOfBirth:         f("dateOfBirth"),
		Gender:              f("gender"),
		FatherName:          f("fatherName"),
		MotherName:          f("motherName"),
		MaritalStatus:       f("maritalStatus"),
		HusbandName:         f("husbandName"),
		HusbandIDNo:         f("husbandIdNo"),
		DistrictOfBirth:     f("districtOfBirth"),
		Tribe:               f("tribe"),
		Clan:                f("clan"),
		Family:              f("family"),
		HomeDistrict:        f("homeDistrict"),
		Division:            f("division"),
		Constituency:        f("constituency"),
		Location:            f("location"),
		SubLocation:         f("subLocation"),
		VillageEstate:       f("villageEstate"),
		HomeAddress:         f("homeAddress"),
		Occupation:          f("occupation"),
		SupportingDocuments: supporting,
		ApplicationType:     models.ApplicationTypeNew,
		Status:              models.ApplicationStatusSubmitted,
		OfficerID:           in.OfficerID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// Approve moves a submitted application to approved and issues its ID number.
func (s *ApplicationService) Approve(ctx context.Context, id uint) (string, error) {
	var idNumber string
	var app *models.Application
	err := retryOnConflict(ctx, workflowApplication, func() error {
		var err error
		app, err = s.transition(ctx, id, models.ActionApprove, "Application not found or already processed",
			func(tx repository.Registry, app *models.Application, now time.Time) error {
				if err := app.CanApprove(); err != nil {
					return err
				}
				n, err := s.ids.Next(ctx, tx.Sequences(), ClassIDNumber)
				if err != nil {
					return err
				}
				idNumber = n
				return app.Approve(n, now)
			})
		return err
	})
	if err != nil {
		return "", err
	}
	middleware.Logger.InfoContext(ctx, "ID number issued",
		slog.String("application_number", app.ApplicationNumber), slog.String("id_number", idNumber))
	return idNumber, nil
}

func (s *ApplicationService) Reject(ctx context.Context, id uint) error {
	_, err := s.transition(ctx, id, models.ActionReject, "Application not found or already processed",
		func(_ repository.Registry, app *models.Application, now time.Time) error {
			return app.Reject(now)
		})
	return err
}

func (s *ApplicationService) Dispatch(ctx context.Context, id uint) error {
	_, err := s.transition(ctx, id, models.ActionDispatch, "Application not found or not approved",
		func(_ repository.Registry, app *models.Application, now time.Time) error {
			return app.Dispatch(now)
		})
	return err
}

func (s *ApplicationService) MarkCardArrived(ctx context.Context, id uint) error {
	_, err := s.transition(ctx, id, models.ActionCardArrived, "Application not found or not in dispatched status",
		func(_ repository.Registry, app *models.Application, now time.Time) error {
			return app.MarkCardArrived(now)
		})
	return err
}

// MarkCardCollected completes the workflow. When the legacy collect fallback
// flag is on, applications that never recorded arrival are accepted too.
func (s *ApplicationService) MarkCardCollected(ctx context.Context, id uint) error {
	_, err := s.transition(ctx, id, models.ActionCardCollected, "Application not found or card not arrived yet",
		func(_ repository.Registry, app *models.Application, now time.Time) error {
			legacy := s.flags.Enabled(featureflags.LegacyCollectFallback, app.ApplicationNumber)
			return app.Collect(now, legacy)
		})
	return err
}

// transition locks the row, applies mutate and saves it conditionally on the
// status read under the lock.
func (s *ApplicationService) transition(
	ctx context.Context,
	id uint,
	action models.Action,
	guardMessage string,
	mutate func(tx repository.Registry, app *models.Application, now time.Time) error,
) (*models.Application, error) {
	var app *models.Application
	var from models.ApplicationStatus
	ctx, span := observability.StartWorkflow(ctx, workflowApplication, string(action),
		attribute.Int64("idportal.record_id", int64(id)))

	err := s.reg.Transaction(ctx, func(tx repository.Registry) error {
		var err error
		app, err = tx.Applications().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		from = app.Status
		if err := mutate(tx, app, s.ids.Now()); err != nil {
			return err
		}
		ok, err := tx.Applications().SaveTransition(ctx, app, from)
		if err != nil {
			return err
		}
		if !ok {
			return &models.TransitionError{Workflow: workflowApplication, From: string(from), Action: action}
		}
		return nil
	})
	err = guardError(err, guardMessage)
	observability.RecordTransition(workflowApplication, string(action), err)
	span.Finish(err)
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "application status changed",
		slog.Uint64("application_id", uint64(app.ID)),
		slog.String("from", string(from)), slog.String("to", string(app.Status)))
	s.events.committed(ctx, workflowApplication, app.ID, app.ApplicationNumber, string(app.Status), app.OfficerID, app.UpdatedAt)
	return app, nil
}

// Detail returns one application with its officer name and documents.
func (s *ApplicationService) Detail(ctx context.Context, id uint) (*models.ApplicationDetail, error) {
	return s.reg.Applications().GetDetail(ctx, id)
}
