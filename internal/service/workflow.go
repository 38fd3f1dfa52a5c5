package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"idportal/internal/cache"
	"idportal/internal/middleware"
	"idportal/internal/models"
	"idportal/internal/notifications"
	"idportal/internal/observability"
	"idportal/internal/storage"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-multierror"
)

// maxSubmitAttempts bounds retries after an identifier collision.
const maxSubmitAttempts = 5

// Upload is one file from a submission form. Open may be called more than
// once when a submission is retried.
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// documentWriter stores uploads and remembers what it wrote so a failed
// transaction can remove them again.
type documentWriter struct {
	store  storage.Store
	stored []string
}

func (w *documentWriter) put(ctx context.Context, key string, up Upload) (string, error) {
	rc, err := up.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", up.Field, err)
	}
	defer func() { _ = rc.Close() }()

	done := observability.ObserveStorage(w.store.Backend())
	location, err := w.store.Put(ctx, key, rc, up.Size, up.ContentType)
	done()
	if err != nil {
		return "", fmt.Errorf("store upload %s: %w", up.Field, err)
	}
	w.stored = append(w.stored, location)
	return location, nil
}

// cleanup deletes everything written so far. It uses a detached context so a
// cancelled request still removes its files.
func (w *documentWriter) cleanup(ctx context.Context) error {
	if len(w.stored) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	var result *multierror.Error
	for _, location := range w.stored {
		if err := w.store.Delete(ctx, location); err != nil {
			result = multierror.Append(result, fmt.Errorf("delete %s: %w", location, err))
		}
	}
	w.stored = nil
	if err := result.ErrorOrNil(); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to clean up stored documents", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// storeDocuments writes every mapped upload and returns the document rows to
// insert. Fields without a slot are skipped.
func (w *documentWriter) storeDocuments(
	ctx context.Context, uploads []Upload, slots map[string]string, keyFor func(up Upload) string,
) ([]models.Document, error) {
	var docs []models.Document
	for _, up := range uploads {
		docType, ok := slots[up.Field]
		if !ok || up.Filename == "" {
			continue
		}
		location, err := w.put(ctx, keyFor(up), up)
		if err != nil {
			return nil, err
		}
		docs = append(docs, models.Document{DocumentType: docType, FilePath: location})
		observability.DocumentsStored.WithLabelValues(docType).Inc()
	}
	return docs, nil
}

// newSubmitBackOff is the retry policy for identifier collisions.
func newSubmitBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(b, maxSubmitAttempts-1), ctx)
}

// retryOnConflict re-runs op while it fails with a conflict AppError. A
// conflict that outlasts the retries is reported as an internal error.
func retryOnConflict(ctx context.Context, workflow string, op func() error) error {
	err := backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if models.HasCode(err, models.CodeConflict) {
			observability.IdentifierCollisions.WithLabelValues(workflow).Inc()
			middleware.Logger.WarnContext(ctx, "identifier collision, retrying",
				slog.String("workflow", workflow), slog.String("error", err.Error()))
			return err
		}
		return backoff.Permanent(err)
	}, newSubmitBackOff(ctx))
	if models.HasCode(err, models.CodeConflict) {
		return models.NewInternalError(err)
	}
	return err
}

// statusEvents publishes committed transitions and keeps tracking caches fresh.
// Neither failure affects the caller; the row is already committed.
type statusEvents struct {
	cache  *cache.Cache
	events notifications.Publisher
}

func (e statusEvents) committed(ctx context.Context, workflow string, id uint, number, status string, officerID uint, at time.Time) {
	e.cache.InvalidateTracking(ctx, number)

	if e.events == nil {
		return
	}
	ev := notifications.StatusEvent{
		Type:      notifications.EventStatusChanged,
		Workflow:  workflow,
		ID:        id,
		Number:    number,
		Status:    status,
		OfficerID: officerID,
		At:        at,
	}
	if err := e.events.PublishStatus(ctx, ev); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish status event",
			slog.String("workflow", workflow), slog.String("number", number), slog.String("error", err.Error()))
	}
}

// guardError converts a rejected transition into the caller-facing 404.
// Other errors, including an unknown id, pass through unchanged.
func guardError(err error, message string) error {
	if errors.Is(err, models.ErrInvalidTransition) {
		return models.NewNotFoundMessage(message)
	}
	return err
}
