package service

import (
	"context"
	"testing"

	"idportal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryOnConflict(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after transient conflicts", func(t *testing.T) {
		calls := 0
		err := retryOnConflict(ctx, workflowApplication, func() error {
			calls++
			if calls < 3 {
				return models.NewConflictError("Application number already in use", nil)
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausted conflicts become internal errors", func(t *testing.T) {
		calls := 0
		err := retryOnConflict(ctx, workflowApplication, func() error {
			calls++
			return models.NewConflictError("Application number already in use", nil)
		})
		requireAppError(t, err, models.CodeInternal, "Internal server error")
		assert.Equal(t, maxSubmitAttempts, calls)
		assert.Equal(t, 500, models.StatusOf(err))
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		calls := 0
		err := retryOnConflict(ctx, workflowApplication, func() error {
			calls++
			return models.NewNotFoundMessage("Application not found")
		})
		requireAppError(t, err, models.CodeNotFound, "Application not found")
		assert.Equal(t, 1, calls)
	})
}
