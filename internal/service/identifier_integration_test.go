//go:build integration

package service

import (
	"context"
	"sync"
	"testing"

	"idportal/internal/cache"
	"idportal/internal/featureflags"
	"idportal/internal/models"
	"idportal/internal/notifications"
	"idportal/internal/repository"
	"idportal/internal/storage"
	"idportal/internal/testutil"
	"idportal/internal/testutil/containers"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestIdentifierGenerator_ConcurrentPostgres(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	gen := NewIdentifierGenerator(fixedClock)
	seq := repository.NewSequenceRepository(pg.DB)

	const workers = 50
	var (
		mu   sync.Mutex
		seen = make(map[string]bool, workers)
	)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			id, err := gen.Next(ctx, seq, ClassApplication)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			seen[id] = true
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Len(t, seen, workers)
	assert.True(t, seen["APP2026000001"])
	assert.True(t, seen["APP2026000050"])

	current, err := seq.Current(context.Background(), ClassApplication.Counter, 2026)
	require.NoError(t, err)
	assert.EqualValues(t, workers, current)
}

func TestApplicationService_ApproveRollbackPostgres(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	reg := repository.NewRegistry(pg.DB, nil)
	officer := testutil.CreateOfficer(t, pg.DB, "wanjiru@police.go.ke", models.OfficerStatusApproved)
	app := testutil.CreateApplication(t, pg.DB, "APP2026000001", officer.ID, models.ApplicationStatusSubmitted, "")

	svc := NewApplicationService(reg, storage.NewLocalStoreFs(afero.NewMemMapFs(), "uploads"),
		NewIdentifierGenerator(fixedClock), featureflags.NewManager(""), cache.New(nil), notifications.Discard{})
	id, err := svc.Approve(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, "ID202600000001", id)

	_, err = svc.Approve(context.Background(), app.ID)
	require.Error(t, err)

	current, err := reg.Sequences().Current(context.Background(), ClassIDNumber.Counter, 2026)
	require.NoError(t, err)
	assert.EqualValues(t, 1, current, "a failed guard must not consume a number")
}
