package service

import (
	"context"
	"testing"
	"time"

	"idportal/internal/models"
	"idportal/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifierClass_Format(t *testing.T) {
	t.Parallel()
	tests := []struct {
		class IdentifierClass
		seq   int64
		want  string
	}{
		{ClassApplication, 1, "APP2026000001"},
		{ClassApplication, 123456, "APP2026123456"},
		{ClassIDNumber, 42, "ID202600000042"},
		{ClassWaitingCard, 7, "WAIT2026000007"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.class.Format(2026, tt.seq))
	}
}

func TestIdentifierGenerator_SequencePerClassAndYear(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seq := env.reg.Sequences()

	year := 2026
	gen := NewIdentifierGenerator(func() time.Time { return time.Date(year, 12, 31, 23, 0, 0, 0, time.UTC) })

	first, err := gen.Next(ctx, seq, ClassApplication)
	require.NoError(t, err)
	second, err := gen.Next(ctx, seq, ClassApplication)
	require.NoError(t, err)
	wait, err := gen.Next(ctx, seq, ClassWaitingCard)
	require.NoError(t, err)

	assert.Equal(t, "APP2026000001", first)
	assert.Equal(t, "APP2026000002", second)
	assert.Equal(t, "WAIT2026000001", wait)

	year = 2027
	next, err := gen.Next(ctx, seq, ClassApplication)
	require.NoError(t, err)
	assert.Equal(t, "APP2027000001", next)
}

func TestIdentifierGenerator_SkipsNumbersAlreadyInUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	officer := testutil.CreateOfficer(t, env.db, "imports@station.go.ke", models.OfficerStatusApproved)
	// Rows numbered before the counters existed.
	testutil.CreateApplication(t, env.db, "APP2026000001", officer.ID, models.ApplicationStatusSubmitted, "")
	testutil.CreateApplication(t, env.db, "APP2026000002", officer.ID, models.ApplicationStatusApproved, "ID202600000001")

	next, err := env.ids.Next(ctx, env.reg.Sequences(), ClassApplication)
	require.NoError(t, err)
	assert.Equal(t, "APP2026000003", next)

	current, err := env.reg.Sequences().Current(ctx, ClassApplication.Counter, 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(3), current)
}

func TestApplicationService_SubmitAndApproveAfterImportedRows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	officer := testutil.CreateOfficer(t, env.db, "imports@station.go.ke", models.OfficerStatusApproved)
	testutil.CreateApplication(t, env.db, "APP2026000001", officer.ID, models.ApplicationStatusApproved, "ID202600000001")
	svc := env.applications("")

	app, err := svc.Submit(ctx, SubmitApplicationInput{OfficerID: officer.ID, Fields: validApplicationFields()})
	require.NoError(t, err)
	assert.Equal(t, "APP2026000002", app.ApplicationNumber)

	idNumber, err := svc.Approve(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "ID202600000002", idNumber)
}
