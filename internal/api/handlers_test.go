package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/opdflow/internal/api"
	"github.com/clinicore/opdflow/internal/clinic"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	reg := clinic.NewMemoryRegistry()
	cl := clinic.New(reg, reg, 20, zerolog.Nop())
	return api.NewRouter(api.RouterConfig{
		Clinic:  cl,
		Logger:  zerolog.Nop(),
		Env:     "test",
		Version: "test",
	})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func seedClinic(t *testing.T, h http.Handler) {
	t.Helper()
	for id := 1; id <= 3; id++ {
		rec := doJSON(t, h, http.MethodPost, "/patients", map[string]any{
			"id": id, "name": fmt.Sprintf("P%d", id), "age": 30,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, h, http.MethodPost, "/doctors", map[string]any{
		"id": 1, "name": "Dr. Rao", "specialization": "General",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	for _, slot := range []map[string]any{
		{"slot_id": 101, "start": "09:00", "end": "09:15"},
		{"slot_id": 102, "start": "09:15", "end": "09:30"},
	} {
		rec := doJSON(t, h, http.MethodPost, "/doctors/1/slots", slot)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
}

func TestBookingFlow(t *testing.T) {
	h := newTestServer(t)
	seedClinic(t, h)

	rec := doJSON(t, h, http.MethodPost, "/bookings", map[string]any{"patient_id": 1, "doctor_id": 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	tok := decode[api.TokenResponse](t, rec)
	assert.Equal(t, 1000, tok.TokenID)
	require.NotNil(t, tok.SlotID)
	assert.Equal(t, 102, *tok.SlotID, "most recently added slot is booked first")
	assert.Equal(t, "ROUTINE", tok.Type)

	rec = doJSON(t, h, http.MethodPost, "/bookings", map[string]any{"patient_id": 2, "doctor_id": 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	// no slots left
	rec = doJSON(t, h, http.MethodPost, "/bookings", map[string]any{"patient_id": 3, "doctor_id": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)
	errResp := decode[api.ErrorResponse](t, rec)
	assert.Equal(t, "no_free_slot", errResp.Error)
}

func TestBookingUnknownEntities(t *testing.T) {
	h := newTestServer(t)
	seedClinic(t, h)

	rec := doJSON(t, h, http.MethodPost, "/bookings", map[string]any{"patient_id": 42, "doctor_id": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "patient_not_found", decode[api.ErrorResponse](t, rec).Error)

	rec = doJSON(t, h, http.MethodPost, "/bookings", map[string]any{"patient_id": 1, "doctor_id": 42})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "doctor_not_found", decode[api.ErrorResponse](t, rec).Error)
}

func TestCancelBooking(t *testing.T) {
	h := newTestServer(t)
	seedClinic(t, h)

	rec := doJSON(t, h, http.MethodPost, "/bookings", map[string]any{"patient_id": 1, "doctor_id": 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	tok := decode[api.TokenResponse](t, rec)

	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/bookings/%d", tok.TokenID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/bookings/%d", tok.TokenID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/bookings/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServePreemptionAndUndo(t *testing.T) {
	h := newTestServer(t)
	seedClinic(t, h)

	rec := doJSON(t, h, http.MethodPost, "/bookings", map[string]any{"patient_id": 1, "doctor_id": 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/triage", map[string]any{"patient_id": 3, "severity": 0})
	require.Equal(t, http.StatusCreated, rec.Code)
	emergency := decode[api.TokenResponse](t, rec)
	assert.Equal(t, "EMERGENCY", emergency.Type)
	assert.Nil(t, emergency.SlotID)

	rec = doJSON(t, h, http.MethodPost, "/serve", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	served := decode[api.TokenResponse](t, rec)
	assert.Equal(t, emergency.TokenID, served.TokenID, "triage preempts routine")

	rec = doJSON(t, h, http.MethodPost, "/serve", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	served = decode[api.TokenResponse](t, rec)
	assert.Equal(t, 1, served.PatientID)
	assert.Equal(t, "ROUTINE", served.Type)

	rec = doJSON(t, h, http.MethodPost, "/serve", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code, "nothing left to serve")

	rec = doJSON(t, h, http.MethodPost, "/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	undo := decode[api.UndoResponse](t, rec)
	assert.Contains(t, undo.Outcome, "Undid serving of routine token")
}

func TestUndoEmptyLog(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Nothing to undo", decode[api.UndoResponse](t, rec).Outcome)
}

func TestReports(t *testing.T) {
	h := newTestServer(t)
	seedClinic(t, h)

	rec := doJSON(t, h, http.MethodPost, "/bookings", map[string]any{"patient_id": 1, "doctor_id": 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/reports/doctors", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doctors := decode[[]clinic.DoctorReport](t, rec)
	require.Len(t, doctors, 1)
	assert.Equal(t, "Dr. Rao", doctors[0].DoctorName)
	assert.Equal(t, 1, doctors[0].PendingBookedSlots)
	require.NotNil(t, doctors[0].NextFreeSlotID)
	assert.Equal(t, 101, *doctors[0].NextFreeSlotID)

	rec = doJSON(t, h, http.MethodGet, "/reports/load", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	load := decode[clinic.LoadReport](t, rec)
	assert.Equal(t, clinic.LoadReport{Served: 0, Pending: 1}, load)

	doJSON(t, h, http.MethodPost, "/serve", nil)

	rec = doJSON(t, h, http.MethodGet, "/reports/frequent-patients?k=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	top := decode[[]clinic.PatientCount](t, rec)
	require.Len(t, top, 1)
	assert.Equal(t, clinic.PatientCount{PatientID: 1, Count: 1}, top[0])

	rec = doJSON(t, h, http.MethodGet, "/reports/frequent-patients?k=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPatient(t *testing.T) {
	h := newTestServer(t)
	seedClinic(t, h)

	rec := doJSON(t, h, http.MethodGet, "/patients/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "P1", decode[api.PatientResponse](t, rec).Name)

	rec = doJSON(t, h, http.MethodGet, "/patients/42", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMalformedBody(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/patients", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// memory backend: no external dependencies to check
	rec = doJSON(t, h, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ready := decode[api.ReadinessResponse](t, rec)
	assert.Equal(t, "ok", ready.Status)
	assert.Empty(t, ready.Dependencies)
}

func TestRequestIDHeader(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/health/live", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-ID"))
}
