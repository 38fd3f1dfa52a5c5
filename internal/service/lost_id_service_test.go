package service

import (
	"context"
	"testing"

	"idportal/internal/models"
	"idportal/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lostIDInput(officerID uint, idNumber string) SubmitLostIDInput {
	return SubmitLostIDInput{
		OfficerID: officerID,
		Fields: map[string]string{
			"id_number":      idNumber,
			"ob_number":      "OB/12/03/2026",
			"ob_description": "Lost at Kisumu bus park",
			"payment_method": "mpesa",
		},
		Files: []Upload{
			textUpload("ob_photo", "ob.jpg", "ob"),
			textUpload("passport_photo", "face.jpg", "face"),
			textUpload("birth_certificate", "cert.jpg", "cert"),
		},
	}
}

func countRows(t *testing.T, env *testEnv, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.db.Model(model).Count(&n).Error)
	return n
}

func TestLostIDService_SubmitBackfillsCitizen(t *testing.T) {
	env := newTestEnv(t)
	officer := testutil.CreateOfficer(t, env.db, "lost@station.go.ke", models.OfficerStatusApproved)
	_, idNumber := issueID(t, env.applications(""), officer.ID)
	ctx := context.Background()

	lost, err := env.lostIDs().Submit(ctx, lostIDInput(officer.ID, idNumber))
	require.NoError(t, err)

	assert.Equal(t, "WAIT2026000001", lost.WaitingCardNumber)
	assert.Equal(t, models.LostIDStatusSubmitted, lost.Status)
	assert.Equal(t, 1000.0, lost.PaymentAmount)
	require.NotNil(t, lost.Payment)
	assert.Equal(t, models.PaymentStatusPending, lost.Payment.Status)
	assert.Len(t, lost.Documents, 3)

	citizen, err := env.reg.Citizens().GetByIDNumber(ctx, idNumber)
	require.NoError(t, err)
	require.NotNil(t, citizen)
	assert.Equal(t, "Achieng Akinyi Odhiambo", citizen.FullNames)
	assert.Equal(t, "Kenyan", citizen.Nationality)

	docs, err := env.reg.Documents().ListByLostID(ctx, lost.ID)
	require.NoError(t, err)
	types := make([]string, 0, len(docs))
	for _, d := range docs {
		types = append(types, d.DocumentType)
		assert.Contains(t, d.FilePath, "lost_id/WAIT2026000001_")
	}
	assert.ElementsMatch(t, []string{models.DocOBPhoto, models.DocNewPassportPhoto, models.DocBirthCertPhoto}, types)
}

func TestLostIDService_SubmitUnknownCitizen(t *testing.T) {
	env := newTestEnv(t)
	officer := testutil.CreateOfficer(t, env.db, "nobody@station.go.ke", models.OfficerStatusApproved)

	_, err := env.lostIDs().Submit(context.Background(), lostIDInput(officer.ID, "ID209900000001"))
	requireAppError(t, err, models.CodeNotFound, "Citizen not found in system")

	assert.Zero(t, countRows(t, env, &models.LostIDApplication{}))
	assert.Zero(t, countRows(t, env, &models.Payment{}))
	assert.Zero(t, countRows(t, env, &models.Document{}))
	assert.Zero(t, countRows(t, env, &models.Citizen{}))
	assert.Empty(t, env.events.statuses())
}

func TestLostIDService_SubmitValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := env.lostIDs()

	in := lostIDInput(1, "ID202600000001")
	delete(in.Fields, "ob_number")
	_, err := svc.Submit(context.Background(), in)
	requireAppError(t, err, models.CodeValidation, "Missing required fields: ob_number")

	in = lostIDInput(1, "ID202600000001")
	in.Files = in.Files[:1]
	_, err = svc.Submit(context.Background(), in)
	requireAppError(t, err, models.CodeValidation, "Missing required files: passport_photo, birth_certificate")
}

func TestLostIDService_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	officer := testutil.CreateOfficer(t, env.db, "cycle@station.go.ke", models.OfficerStatusApproved)
	_, idNumber := issueID(t, env.applications(""), officer.ID)
	svc := env.lostIDs()
	ctx := context.Background()

	lost, err := svc.Submit(ctx, lostIDInput(officer.ID, idNumber))
	require.NoError(t, err)

	requireAppError(t, svc.Dispatch(ctx, lost.ID), models.CodeNotFound, "Application not found or not approved")
	require.NoError(t, svc.Approve(ctx, lost.ID))
	requireAppError(t, svc.Approve(ctx, lost.ID), models.CodeNotFound, "Application not found or already processed")

	payment, err := env.reg.Payments().GetForUpdate(ctx, lost.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)

	requireAppError(t, svc.MarkCardCollected(ctx, lost.ID), models.CodeNotFound, "Application not found or card not ready for collection")
	require.NoError(t, svc.Dispatch(ctx, lost.ID))
	require.NoError(t, svc.MarkCardArrived(ctx, lost.ID))
	require.NoError(t, svc.MarkCardCollected(ctx, lost.ID))

	stored, err := env.reg.LostIDs().GetByID(ctx, lost.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LostIDStatusCollected, stored.Status)
}

func TestLostIDService_RejectLeavesPaymentPending(t *testing.T) {
	env := newTestEnv(t)
	officer := testutil.CreateOfficer(t, env.db, "rej@station.go.ke", models.OfficerStatusApproved)
	_, idNumber := issueID(t, env.applications(""), officer.ID)
	svc := env.lostIDs()
	ctx := context.Background()

	lost, err := svc.Submit(ctx, lostIDInput(officer.ID, idNumber))
	require.NoError(t, err)
	require.NoError(t, svc.Reject(ctx, lost.ID))
	requireAppError(t, svc.Approve(ctx, lost.ID), models.CodeNotFound, "Application not found or already processed")

	payment, err := env.reg.Payments().GetForUpdate(ctx, lost.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
}
