package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"idportal/internal/cache"
	"idportal/internal/featureflags"
	"idportal/internal/models"
	"idportal/internal/notifications"
	"idportal/internal/repository"
	"idportal/internal/storage"
	"idportal/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, time.March, 15, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type recordingPublisher struct {
	mu     sync.Mutex
	events []notifications.StatusEvent
}

func (p *recordingPublisher) PublishStatus(_ context.Context, ev notifications.StatusEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Status)
	}
	return out
}

// flakyStore fails the Nth Put and records deletions.
type flakyStore struct {
	storage.Store
	failOn  int
	puts    int
	deleted []string
}

func (s *flakyStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	s.puts++
	if s.puts == s.failOn {
		return "", errors.New("disk full")
	}
	return s.Store.Put(ctx, key, r, size, contentType)
}

func (s *flakyStore) Delete(ctx context.Context, location string) error {
	s.deleted = append(s.deleted, location)
	return s.Store.Delete(ctx, location)
}

type testEnv struct {
	db     *gorm.DB
	reg    repository.Registry
	fs     afero.Fs
	store  storage.Store
	ids    *IdentifierGenerator
	events *recordingPublisher
	cache  *cache.Cache
	mr     *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	fs := afero.NewMemMapFs()
	return &testEnv{
		db:     db,
		reg:    repository.NewRegistry(db, nil),
		fs:     fs,
		store:  storage.NewLocalStoreFs(fs, "uploads"),
		ids:    NewIdentifierGenerator(fixedClock),
		events: &recordingPublisher{},
		cache:  cache.New(rdb),
		mr:     mr,
	}
}

func (e *testEnv) applications(flags string) *ApplicationService {
	return NewApplicationService(e.reg, e.store, e.ids, featureflags.NewManager(flags), e.cache, e.events)
}

func (e *testEnv) lostIDs() *LostIDService {
	return NewLostIDService(e.reg, e.store, e.ids, LostIDOptions{Fee: 1000}, e.cache, e.events)
}

func textUpload(field, filename, body string) Upload {
	return Upload{
		Field:       field,
		Filename:    filename,
		ContentType: "image/jpeg",
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func validApplicationFields() map[string]string {
	return map[string]string{
		"fullNames":       "Achieng Akinyi Odhiambo",
		"dateOfBirth":     "2007-06-01",
		"gender":          "female",
		"fatherName":      "Otieno Odhiambo",
		"motherName":      "Awino Odhiambo",
		"districtOfBirth": "Kisumu",
		"tribe":           "Luo",
		"homeDistrict":    "Kisumu",
		"division":        "Winam",
		"constituency":    "Kisumu Central",
		"location":        "Kondele",
		"subLocation":     "Manyatta",
		"villageEstate":   "Manyatta B",
		"occupation":      "Student",
	}
}

// issueID walks an application through approval and returns its ID number.
func issueID(t *testing.T, svc *ApplicationService, officerID uint) (*models.Application, string) {
	t.Helper()
	ctx := context.Background()
	app, err := svc.Submit(ctx, SubmitApplicationInput{OfficerID: officerID, Fields: validApplicationFields()})
	require.NoError(t, err)
	idNumber, err := svc.Approve(ctx, app.ID)
	require.NoError(t, err)
	return app, idNumber
}
