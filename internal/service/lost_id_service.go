package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"idportal/internal/cache"
	"idportal/internal/middleware"
	"idportal/internal/models"
	"idportal/internal/notifications"
	"idportal/internal/observability"
	"idportal/internal/repository"
	"idportal/internal/storage"
	"idportal/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const workflowLostID = "lost_id"

// SubmitLostIDInput is a lost-ID replacement submission. Fields uses the
// form's snake_case keys.
type SubmitLostIDInput struct {
	OfficerID uint
	Fields    map[string]string
	Files     []Upload
}

// LostIDOptions carries the configured fee and nationality.
type LostIDOptions struct {
	Fee         float64
	Nationality string
}

// LostIDService runs the lost-ID replacement workflow.
type LostIDService struct {
	reg    repository.Registry
	store  storage.Store
	ids    *IdentifierGenerator
	opts   LostIDOptions
	cache  *cache.Cache
	events statusEvents
}

func NewLostIDService(
	reg repository.Registry,
	store storage.Store,
	ids *IdentifierGenerator,
	opts LostIDOptions,
	c *cache.Cache,
	pub notifications.Publisher,
) *LostIDService {
	if opts.Nationality == "" {
		opts.Nationality = "Kenyan"
	}
	return &LostIDService{
		reg:    reg,
		store:  store,
		ids:    ids,
		opts:   opts,
		cache:  c,
		events: statusEvents{cache: c, events: pub},
	}
}

// Submit records a replacement request, its pending payment and documents.
// The citizen must already be known or hold an issued ID; nothing is written
// otherwise.
func (s *LostIDService) Submit(ctx context.Context, in SubmitLostIDInput) (*models.LostIDApplication, error) {
	if missing := validation.MissingFields(in.Fields, validation.LostIDRequiredFields); len(missing) > 0 {
		return nil, models.NewValidationError(validation.MissingFieldsMessage(missing))
	}
	if missing := missingFiles(in.Files, models.LostIDRequiredFiles); len(missing) > 0 {
		return nil, models.NewValidationError(validation.MissingFilesMessage(missing))
	}

	idNumber := strings.TrimSpace(in.Fields["id_number"])
	var app *models.LostIDApplication
	writer := &documentWriter{store: s.store}
	ctx, span := observability.StartWorkflow(ctx, workflowLostID, "submit",
		attribute.Int64("idportal.officer_id", int64(in.OfficerID)))

	err := retryOnConflict(ctx, workflowLostID, func() error {
		err := s.reg.Transaction(ctx, func(tx repository.Registry) error {
			if err := s.ensureCitizen(ctx, tx, idNumber); err != nil {
				return err
			}

			number, err := s.ids.Next(ctx, tx.Sequences(), ClassWaitingCard)
			if err != nil {
				return err
			}
			now := s.ids.Now()
			app = &models.LostIDApplication{
				WaitingCardNumber: number,
				CitizenIDNumber:   idNumber,
				OBNumber:          strings.TrimSpace(in.Fields["ob_number"]),
				OBDescription:     strings.TrimSpace(in.Fields["ob_description"]),
				PaymentMethod:     strings.TrimSpace(in.Fields["payment_method"]),
				PaymentAmount:     s.opts.Fee,
				Status:            models.LostIDStatusSubmitted,
				OfficerID:         in.OfficerID,
				CreatedAt:         now,
				UpdatedAt:         now,
			}
			if err := tx.LostIDs().Create(ctx, app); err != nil {
				return err
			}

			docs, err := writer.storeDocuments(ctx, in.Files, models.LostIDDocumentSlots, func(up Upload) string {
				return fmt.Sprintf("lost_id/%s_%s_%s", number, up.Field, storage.SecureFilename(up.Filename))
			})
			if err != nil {
				return err
			}
			for i := range docs {
				docs[i].LostIDApplicationID = &app.ID
			}
			if err := tx.Documents().CreateBatch(ctx, docs); err != nil {
				return err
			}
			app.Documents = docs

			payment := &models.Payment{
				LostIDApplicationID: app.ID,
				Amount:              app.PaymentAmount,
				PaymentMethod:       app.PaymentMethod,
				Status:              models.PaymentStatusPending,
				CreatedAt:           now,
				UpdatedAt:           now,
			}
			if err := tx.Payments().Create(ctx, payment); err != nil {
				return err
			}
			app.Payment = payment
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

	observability.Submissions.WithLabelValues(workflowLostID).Inc()
	middleware.Logger.InfoContext(ctx, "lost ID application submitted",
		slog.String("waiting_card_number", app.WaitingCardNumber),
		slog.Uint64("officer_id", uint64(app.OfficerID)))
	s.cache.InvalidateCitizen(ctx, idNumber)
	s.events.committed(ctx, workflowLostID, app.ID, app.WaitingCardNumber, string(app.Status), app.OfficerID, app.CreatedAt)
	return app, nil
}

// ensureCitizen makes sure a citizens row exists for idNumber, backfilling it
// from the issuing application when needed.
func (s *LostIDService) ensureCitizen(ctx context.Context, tx repository.Registry, idNumber string) error {
	citizen, err := tx.Citizens().GetByIDNumber(ctx, idNumber)
	if err != nil {
		return err
	}
	if citizen != nil {
		return nil
	}

	issued, err := tx.Applications().FindIssued(ctx, idNumber)
	if err != nil {
		return err
	}
	if issued == nil {
		return models.NewNotFoundMessage("Citizen not found in system")
	}
	return tx.Citizens().Backfill(ctx, models.CitizenFromApplication(issued, s.opts.Nationality))
}

func missingFiles(files []Upload, required []string) []string {
	present := make(map[string]bool, len(files))
	for _, f := range files {
		if f.Filename != "" {
			present[f.Field] = true
		}
	}
	var missing []string
	for _, name := range required {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

// Approve approves a submitted replacement and settles its payment in the
// same transaction.
func (s *LostIDService) Approve(ctx context.Context, id uint) error {
	return s.transition(ctx, id, models.ActionApprove, "Application not found or already processed",
		func(tx repository.Registry, app *models.LostIDApplication, now time.Time) error {
			if err := app.Transition(models.ActionApprove, now); err != nil {
				return err
			}
			payment, err := tx.Payments().GetForUpdate(ctx, app.ID)
			if err != nil {
				return err
			}
			if payment == nil {
				return models.NewInternalError(fmt.Errorf("lost ID application %d has no payment", app.ID))
			}
			payment.Complete(now)
			return tx.Payments().Save(ctx, payment)
		})
}

func (s *LostIDService) Reject(ctx context.Context, id uint) error {
	return s.simple(ctx, id, models.ActionReject, "Application not found or already processed")
}

func (s *LostIDService) Dispatch(ctx context.Context, id uint) error {
	return s.simple(ctx, id, models.ActionDispatch, "Application not found or not approved")
}

func (s *LostIDService) MarkCardArrived(ctx context.Context, id uint) error {
	return s.simple(ctx, id, models.ActionCardArrived, "Application not found or not in dispatched status")
}

func (s *LostIDService) MarkCardCollected(ctx context.Context, id uint) error {
	return s.simple(ctx, id, models.ActionCardCollected, "Application not found or card not ready for collection")
}

func (s *LostIDService) simple(ctx context.Context, id uint, action models.Action, guardMessage string) error {
	return s.transition(ctx, id, action, guardMessage,
		func(_ repository.Registry, app *models.LostIDApplication, now time.Time) error {
			return app.Transition(action, now)
		})
}

func (s *LostIDService) transition(
	ctx context.Context,
	id uint,
	action models.Action,
	guardMessage string,
	mutate func(tx repository.Registry, app *models.LostIDApplication, now time.Time) error,
) error {
	var app *models.LostIDApplication
	var from models.LostIDStatus
	ctx, span := observability.StartWorkflow(ctx, workflowLostID, string(action),
		attribute.Int64("idportal.record_id", int64(id)))

	err := s.reg.Transaction(ctx, func(tx repository.Registry) error {
		var err error
		app, err = tx.LostIDs().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		from = app.Status
		if err := mutate(tx, app, s.ids.Now()); err != nil {
			return err
		}
		ok, err := tx.LostIDs().SaveTransition(ctx, app, from)
		if err != nil {
			return err
		}
		if !ok {
			return &models.TransitionError{Workflow: workflowLostID, From: string(from), Action: action}
		}
		return nil
	})
	err = guardError(err, guardMessage)
	observability.RecordTransition(workflowLostID, string(action), err)
	span.Finish(err)
	if err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "lost ID status changed",
		slog.Uint64("lost_id_application_id", uint64(app.ID)),
		slog.String("from", string(from)), slog.String("to", string(app.Status)))
	s.events.committed(ctx, workflowLostID, app.ID, app.WaitingCardNumber, string(app.Status), app.OfficerID, app.UpdatedAt)
	return nil
}
