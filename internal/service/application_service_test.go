package service

import (
	"context"
	"errors"
	"testing"

	"idportal/internal/cache"
	"idportal/internal/models"
	"idportal/internal/testutil"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireAppError(t *testing.T, err error, code, message string) {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

func TestApplicationService_Submit(t *testing.T) {
	env := newTestEnv(t)
	officer := testutil.CreateOfficer(t, env.db, "submit@station.go.ke", models.OfficerStatusApproved)
	svc := env.applications("")
	ctx := context.Background()

	app, err := svc.Submit(ctx, SubmitApplicationInput{
		OfficerID: officer.ID,
		Fields:    validApplicationFields(),
		Files: []Upload{
			textUpload("passportPhoto", "me.jpg", "face"),
			textUpload("birthCertificate", "../cert.pdf", "cert"),
			textUpload("selfie", "extra.jpg", "ignored"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "APP2026000001", app.ApplicationNumber)
	assert.Equal(t, models.ApplicationStatusSubmitted, app.Status)
	assert.Equal(t, "{}", app.SupportingDocuments)
	assert.Nil(t, app.GeneratedIDNumber)
	require.Len(t, app.Documents, 2)

	docs, err := env.reg.Documents().ListByApplication(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	types := []string{docs[0].DocumentType, docs[1].DocumentType}
	assert.ElementsMatch(t, []string{models.DocPassportPhoto, models.DocBirthCertificate}, types)

	for _, d := range docs {
		ok, err := afero.Exists(env.fs, d.FilePath)
		require.NoError(t, err)
		assert.True(t, ok, d.FilePath)
		assert.NotContains(t, d.FilePath, "..")
	}

	assert.Equal(t, []string{"submitted"}, env.events.statuses())

	second, err := svc.Submit(ctx, SubmitApplicationInput{OfficerID: officer.ID, Fields: validApplicationFields()})
	require.NoError(t, err)
	assert.Equal(t, "APP2026000002", second.ApplicationNumber)
}

func TestApplicationService_SubmitMissingFields(t *testing.T) {
	env := newTestEnv(t)
	fields := validApplicationFields()
	delete(fields, "tribe")
	fields["occupation"] = "  "

	_, err := env.applications("").Submit(context.Background(), SubmitApplicationInput{OfficerID: 1, Fields: fields})
	requireAppError(t, err, models.CodeValidation, "Missing required fields: tribe, occupation")

	var count int64
	require.NoError(t, env.db.Model(&models.Application{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestApplicationService_SubmitCleansUpOnStorageFailure(t *testing.T) {
	env := newTestEnv(t)
	officer := testutil.CreateOfficer(t, env.db, "flaky@station.go.ke", models.OfficerStatusApproved)
	store := &flakyStore{Store: env.store, failOn: 2}
	svc := NewApplicationService(env.reg, store, env.ids, nil, env.cache, env.events)

	_, err := svc.Submit(context.Background(), SubmitApplicationInput{
		OfficerID: officer.ID,
		Fields:    validApplicationFields(),
		Files: []Upload{
			textUpload("passportPhoto", "me.jpg", "face"),
			textUpload("birthCertificate", "cert.pdf", "cert"),
		},
	})
	require.Error(t, err)

	require.Len(t, store.deleted, 1)
	ok, err := afero.Exists(env.fs, store.deleted[0])
	require.NoError(t, err)
	assert.False(t, ok)

	var count int64
	require.NoError(t, env.db.Model(&models.Application{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, env.events.statuses())
}

func TestApplicationService_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	officer := testutil.CreateOfficer(t, env.db, "life@station.go.ke", models.OfficerStatusApproved)
	svc := env.applications("")
	ctx := context.Background()

	app, idNumber := issueID(t, svc, officer.ID)
	assert.Equal(t, "ID202600000001", idNumber)

	_, err := svc.Approve(ctx, app.ID)
	requireAppError(t, err, models.CodeNotFound, "Application not found or already processed")
	requireAppError(t, svc.Reject(ctx, app.ID), models.CodeNotFound, "Application not found or already processed")
	requireAppError(t, svc.MarkCardArrived(ctx, app.ID), models.CodeNotFound, "Application not found or not in dispatched status")

	require.NoError(t, svc.Dispatch(ctx, app.ID))
	requireAppError(t, svc.Dispatch(ctx, app.ID), models.CodeNotFound, "Application not found or not approved")
	require.NoError(t, svc.MarkCardArrived(ctx, app.ID))
	require.NoError(t, svc.MarkCardCollected(ctx, app.ID))
	requireAppError(t, svc.MarkCardCollected(ctx, app.ID), models.CodeNotFound, "Application not found or card not arrived yet")

	stored, err := env.reg.Applications().GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusCollected, stored.Status)
	assert.Equal(t, idNumber, stored.IDNumber())

	assert.Equal(t,
		[]string{"submitted", "approved", "dispatched", "ready_for_collection", "collected"},
		env.events.statuses())
}

func TestApplicationService_RejectIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	officer := testutil.CreateOfficer(t, env.db, "reject@station.go.ke", models.OfficerStatusApproved)
	svc := env.applications("")
	ctx := context.Background()

	app, err := svc.Submit(ctx, SubmitApplicationInput{OfficerID: officer.ID, Fields: validApplicationFields()})
	require.NoError(t, err)
	require.NoError(t, svc.Reject(ctx, app.ID))

	_, err = svc.Approve(ctx, app.ID)
	requireAppError(t, err, models.CodeNotFound, "Application not found or already processed")

	stored, err := env.reg.Applications().GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.GeneratedIDNumber)
}

func TestApplicationService_UnknownID(t *testing.T) {
	env := newTestEnv(t)
	svc := env.applications("")

	_, err := svc.Approve(context.Background(), 999)
	requireAppError(t, err, models.CodeNotFound, "Application not found")
	requireAppError(t, svc.Dispatch(context.Background(), 999), models.CodeNotFound, "Application not found")
}

func TestApplicationService_LegacyCollectFallback(t *testing.T) {
	tests := []struct {
		name    string
		flags   string
		status  models.ApplicationStatus
		idNum   string
		wantErr bool
	}{
		{"Dispatched with flag on", "", models.ApplicationStatusDispatched, "ID202500000009", false},
		{"Dispatched with flag off", "legacy_collect_fallback=off", models.ApplicationStatusDispatched, "ID202500000009", true},
		{"Dispatched without ID number", "", models.ApplicationStatusDispatched, "", true},
		{"Approved is never collectable", "", models.ApplicationStatusApproved, "ID202500000009", true},
		{"Dispatched with empty but non-null ID number", "", models.ApplicationStatusDispatched, "-", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			officer := testutil.CreateOfficer(t, env.db, "legacy@station.go.ke", models.OfficerStatusApproved)
			app := testutil.CreateApplication(t, env.db, "APP2025000009", officer.ID, tt.status, tt.idNum)
			if tt.idNum == "-" {
				require.NoError(t, env.db.Model(app).Update("generated_id_number", "").Error)
			}

			err := env.applications(tt.flags).MarkCardCollected(context.Background(), app.ID)
			if tt.wantErr {
				requireAppError(t, err, models.CodeNotFound, "Application not found or card not arrived yet")
				return
			}
			require.NoError(t, err)
			stored, err := env.reg.Applications().GetByID(context.Background(), app.ID)
			require.NoError(t, err)
			assert.Equal(t, models.ApplicationStatusCollected, stored.Status)
		})
	}
}

func TestApplicationService_TransitionInvalidatesTrackingCache(t *testing.T) {
	env := newTestEnv(t)
	officer := testutil.CreateOfficer(t, env.db, "cache@station.go.ke", models.OfficerStatusApproved)
	svc := env.applications("")
	tracking := NewTrackingService(env.reg, env.cache, 0, "")
	ctx := context.Background()

	app, err := svc.Submit(ctx, SubmitApplicationInput{OfficerID: officer.ID, Fields: validApplicationFields()})
	require.NoError(t, err)

	view, err := tracking.Track(ctx, app.ApplicationNumber)
	require.NoError(t, err)
	assert.Equal(t, "submitted", view.Status)
	assert.True(t, env.mr.Exists(cache.TrackKey(app.ApplicationNumber)))

	_, err = svc.Approve(ctx, app.ID)
	require.NoError(t, err)
	assert.False(t, env.mr.Exists(cache.TrackKey(app.ApplicationNumber)))

	view, err = tracking.Track(ctx, app.ApplicationNumber)
	require.NoError(t, err)
	assert.Equal(t, "approved", view.Status)
}
