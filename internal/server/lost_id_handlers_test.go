package server

import (
	"net/http"
	"strconv"
	"testing"

	"idportal/internal/models"
	"idportal/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lostIDFields(idNumber string) map[string]string {
	return map[string]string{
		"id_number":      idNumber,
		"ob_number":      "OB/44/02/2026",
		"ob_description": "Wallet stolen in Eldoret town",
		"payment_method": "mpesa",
	}
}

func lostIDFiles() map[string]string {
	return map[string]string{
		"ob_photo":          "ob",
		"passport_photo":    "face",
		"birth_certificate": "cert",
	}
}

func TestSubmitLostID_HTTP(t *testing.T) {
	ts := newTestServer(t)
	officer, token := ts.approvedOfficer(t, "chebet@police.go.ke")
	testutil.CreateApplication(t, ts.db, "APP2025000009", officer.ID, models.ApplicationStatusCollected, "ID202500000009")

	resp, body := ts.do(t, multipartRequest(t, "/api/lost-id-applications", token, lostIDFields("ID202500000009"), lostIDFiles()))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "Lost ID application submitted successfully", body["message"])
	assert.Equal(t, "WAIT2026000001", body["waiting_card_number"])

	resp, body = ts.do(t, jsonRequest(http.MethodGet, "/api/applications/track-lost/WAIT2026000001", "", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view, _ := body["application"].(map[string]any)
	assert.Equal(t, "submitted", view["status"])
	assert.Equal(t, "Jane Wanjiku Doe", view["citizen_name"])

	// The general tracker also resolves waiting card numbers.
	resp, _ = ts.do(t, jsonRequest(http.MethodGet, "/api/applications/track/WAIT2026000001", "", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSubmitLostID_Rejections(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.approvedOfficer(t, "chebet@police.go.ke")

	t.Run("unknown citizen", func(t *testing.T) {
		resp, body := ts.do(t, multipartRequest(t, "/api/lost-id-applications", token, lostIDFields("ID209900000001"), lostIDFiles()))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Citizen not found in system", body["error"])
	})

	t.Run("missing files", func(t *testing.T) {
		resp, body := ts.do(t, multipartRequest(t, "/api/lost-id-applications", token, lostIDFields("ID209900000001"), nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Missing required files: ob_photo, passport_photo, birth_certificate", body["error"])
	})

	var count int64
	require.NoError(t, ts.db.Model(&models.LostIDApplication{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLostIDLifecycle_HTTP(t *testing.T) {
	ts := newTestServer(t)
	officer, officerToken := ts.approvedOfficer(t, "chebet@police.go.ke")
	adminToken := ts.adminToken(t)
	testutil.CreateApplication(t, ts.db, "APP2025000009", officer.ID, models.ApplicationStatusCollected, "ID202500000009")

	resp, _ := ts.do(t, multipartRequest(t, "/api/lost-id-applications", officerToken, lostIDFields("ID202500000009"), lostIDFiles()))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var lost models.LostIDApplication
	require.NoError(t, ts.db.First(&lost).Error)
	id := strconv.FormatUint(uint64(lost.ID), 10)

	resp, body := ts.do(t, jsonRequest(http.MethodGet, "/api/admin/lost-id-applications", adminToken, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rows, _ := body["applications"].([]any)
	require.Len(t, rows, 1)
	row, _ := rows[0].(map[string]any)
	assert.Equal(t, officer.FullName, row["officer_name"])
	assert.Equal(t, "Jane Wanjiku Doe", row["citizen_name"])

	resp, body = ts.do(t, jsonRequest(http.MethodGet, "/api/admin/applications", adminToken, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	merged, _ := body["applications"].([]any)
	assert.Len(t, merged, 2)

	steps := []struct {
		target  string
		token   string
		message string
	}{
		{"/api/admin/lost-id-applications/" + id + "/approve", adminToken, "Lost ID application approved successfully"},
		{"/api/admin/lost-id-applications/" + id + "/dispatch", adminToken, "Lost ID replacement dispatched successfully"},
		{"/api/officer/lost-id-applications/" + id + "/card-arrived", officerToken, "Lost ID replacement card arrival confirmed"},
		{"/api/officer/lost-id-applications/" + id + "/card-collected", officerToken, "Lost ID replacement card collection confirmed"},
	}
	for _, step := range steps {
		resp, body = ts.do(t, jsonRequest(http.MethodPut, step.target, step.token, nil))
		require.Equal(t, http.StatusOK, resp.StatusCode, step.target)
		assert.Equal(t, step.message, body["message"])
	}

	resp, body = ts.do(t, jsonRequest(http.MethodPut, "/api/admin/lost-id-applications/"+id+"/reject", adminToken, nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Application not found or already processed", body["error"])

	var payment models.Payment
	require.NoError(t, ts.db.Where("lost_id_application_id = ?", lost.ID).First(&payment).Error)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)

	resp, _ = ts.do(t, jsonRequest(http.MethodGet, "/api/officer/lost-id-applications", officerToken, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
