package server

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"idportal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applicationFiles() map[string]string {
	return map[string]string{
		"passportPhoto":    "jpeg-bytes",
		"birthCertificate": "pdf-bytes",
		"parentsId":        "id-bytes",
	}
}

func TestSubmitApplication_Multipart(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.approvedOfficer(t, "kibet@police.go.ke")

	resp, body := ts.do(t, multipartRequest(t, "/api/applications", token, applicationFields(), applicationFiles()))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "Application submitted successfully", body["message"])
	assert.Equal(t, "APP2026000001", body["applicationNumber"])

	var docs int64
	require.NoError(t, ts.db.Model(&models.Document{}).Count(&docs).Error)
	assert.EqualValues(t, 3, docs)

	resp, body = ts.do(t, jsonRequest(http.MethodGet, "/api/applications/track/APP2026000001", "", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view, _ := body["application"].(map[string]any)
	assert.Equal(t, "APP2026000001", view["application_number"])
	assert.Equal(t, "Kiprono Kibet Ruto", view["full_names"])
	assert.Equal(t, "submitted", view["status"])
}

func TestSubmitApplication_JSON(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.approvedOfficer(t, "kibet@police.go.ke")

	payload := map[string]any{}
	for k, v := range applicationFields() {
		payload[k] = v
	}
	payload["maritalStatus"] = "married"
	payload["husbandIdNo"] = 12345678
	payload["supportingDocuments"] = map[string]any{"clinicCard": true, "pages": 100}

	resp, body := ts.do(t, jsonRequest(http.MethodPost, "/api/applications", token, payload))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	var app models.Application
	require.NoError(t, ts.db.Where("application_number = ?", body["applicationNumber"]).First(&app).Error)
	assert.JSONEq(t, `{"clinicCard":true,"pages":100}`, app.SupportingDocuments)
	assert.Equal(t, "12345678", app.HusbandIDNo)
	assert.Equal(t, "married", app.MaritalStatus)
}

func TestSubmitApplication_Validation(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.approvedOfficer(t, "kibet@police.go.ke")

	fields := applicationFields()
	delete(fields, "gender")
	delete(fields, "occupation")

	resp, body := ts.do(t, multipartRequest(t, "/api/applications", token, fields, nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing required fields: gender, occupation", body["error"])

	oversized := map[string]string{"passportPhoto": strings.Repeat("x", 1<<20+1)}
	resp, body = ts.do(t, multipartRequest(t, "/api/applications", token, applicationFields(), oversized))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "File passportPhoto exceeds the 1 MB limit", body["error"])
}

func TestTrackApplication_NotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, jsonRequest(http.MethodGet, "/api/applications/track/APP1999000001", "", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Application not found", body["error"])
}

func TestApplicationLifecycle_HTTP(t *testing.T) {
	ts := newTestServer(t)
	officer, officerToken := ts.approvedOfficer(t, "kibet@police.go.ke")
	adminToken := ts.adminToken(t)

	resp, body := ts.do(t, multipartRequest(t, "/api/applications", officerToken, applicationFields(), applicationFiles()))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var app models.Application
	require.NoError(t, ts.db.Where("application_number = ?", body["applicationNumber"]).First(&app).Error)
	id := strconv.FormatUint(uint64(app.ID), 10)

	resp, body = ts.do(t, jsonRequest(http.MethodGet, "/api/admin/applications/"+id, adminToken, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail, _ := body["application"].(map[string]any)
	assert.Equal(t, officer.FullName, detail["officer_name"])

	// Dispatch before approval is refused.
	resp, body = ts.do(t, jsonRequest(http.MethodPut, "/api/admin/applications/"+id+"/dispatch", adminToken, nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Application not found or not approved", body["error"])

	resp, body = ts.do(t, jsonRequest(http.MethodPut, "/api/admin/applications/"+id+"/approve", adminToken, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Application approved successfully", body["message"])
	assert.Equal(t, "ID202600000001", body["id_number"])

	resp, body = ts.do(t, jsonRequest(http.MethodPut, "/api/admin/applications/"+id+"/approve", adminToken, nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Application not found or already processed", body["error"])

	resp, _ = ts.do(t, jsonRequest(http.MethodGet, "/api/admin/applications/approved", adminToken, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	steps := []struct {
		target  string
		token   string
		message string
	}{
		{"/api/admin/applications/" + id + "/dispatch", adminToken, "Application dispatched successfully"},
		{"/api/officer/applications/" + id + "/card-arrived", officerToken, "Card arrival confirmed"},
		{"/api/officer/applications/" + id + "/card-collected", officerToken, "Card collection confirmed"},
	}
	for _, step := range steps {
		resp, body = ts.do(t, jsonRequest(http.MethodPut, step.target, step.token, nil))
		require.Equal(t, http.StatusOK, resp.StatusCode, step.target)
		assert.Equal(t, step.message, body["message"])
	}

	resp, body = ts.do(t, jsonRequest(http.MethodGet, "/api/citizen/ID202600000001", officerToken, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Kiprono Kibet Ruto", body["full_names"])

	resp, body = ts.do(t, jsonRequest(http.MethodGet, "/api/applications/track/"+app.ApplicationNumber, "", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view, _ := body["application"].(map[string]any)
	assert.Equal(t, "collected", view["status"])
}

func TestApplicationTransitions_InvalidID(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.adminToken(t)

	resp, body := ts.do(t, jsonRequest(http.MethodPut, "/api/admin/applications/abc/approve", adminToken, nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid ID", body["error"])

	resp, body = ts.do(t, jsonRequest(http.MethodGet, "/api/admin/applications/999", adminToken, nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Application not found", body["error"])
}
