package repository

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"idportal/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestSequenceRepository_Next_SQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSequenceRepository(db)
	ctx := context.Background()

	tests := []struct {
		name         string
		mockBehavior func()
		want         int64
		wantErr      bool
	}{
		{
			name: "Upsert returns value",
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO id_sequences (name, year, value, updated_at) VALUES ($1, $2, 1, $3)`)).
					WithArgs("application", 2026, sqlmock.AnyArg()).
					WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(7))
			},
			want: 7,
		},
		{
			name: "Database error",
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO id_sequences`)).
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			got, err := repo.Next(ctx, "application", 2026)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSequenceRepository_Next_Monotonic(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewSequenceRepository(db)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := repo.Next(ctx, "application", 2026)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// Counters are independent per class and per year.
	got, err := repo.Next(ctx, "id_number", 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	got, err = repo.Next(ctx, "application", 2027)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	current, err := repo.Current(ctx, "application", 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(3), current)
}

func TestSequenceRepository_Next_ConcurrentCallersGetDistinctValues(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewSequenceRepository(db)
	ctx := context.Background()

	const n = 20
	var (
		mu   sync.Mutex
		seen = make(map[int64]bool, n)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := repo.Next(ctx, "waiting_card", 2026)
			assert.NoError(t, err)
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
	for v := int64(1); v <= n; v++ {
		assert.True(t, seen[v], "missing %d", v)
	}
}

func TestSequenceRepository_Taken_SQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSequenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "applications" WHERE "application_number" = $1`)).
		WithArgs("APP2026000001").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "lost_id_applications" WHERE "waiting_card_number" = $1`)).
		WithArgs("WAIT2026000004").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	taken, err := repo.Taken(context.Background(), "applications", "application_number", "APP2026000001")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.Taken(context.Background(), "lost_id_applications", "waiting_card_number", "WAIT2026000004")
	require.NoError(t, err)
	assert.False(t, taken)
	assert.NoError(t, mock.ExpectationsWereMet())
}
