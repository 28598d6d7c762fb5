package booking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinibook/clinic-booking/pkg/config"
	"github.com/clinibook/clinic-booking/pkg/logger"
	"github.com/clinibook/clinic-booking/pkg/types"
)

// setupTestRouter wires a Service with an in-memory repository behind a
// real mux router.
func setupTestRouter(t *testing.T) (*mux.Router, *MemoryRepository) {
	t.Helper()
	repo := NewMemoryRepository()
	require.NoError(t, repo.CreateDoctor(&types.Doctor{
		ID:         "doc-1",
		Name:       "Dr. Reyes",
		Specialty:  "dermatology",
		Price:      120,
		Discount:   20,
		IsApproved: true,
		IsVerified: true,
	}))

	cfg := &config.Config{}
	log := logger.New("error")
	clock := fixedClock{now: time.Date(2030, 6, 1, 8, 0, 0, 0, time.Local)}

	service := &Service{
		config:        cfg,
		logger:        log,
		repository:    repo,
		clock:         clock,
		availability:  NewAvailabilityManager(repo, clock, log),
		notifications: NewAppointmentNotificationManager(NewLogSender(log), repo, clock, &cfg.Notification, log),
	}

	router := mux.NewRouter()
	service.setupRoutes(router)
	return router, repo
}

func doJSON(t *testing.T, router *mux.Router, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func declareSlots(t *testing.T, router *mux.Router, maxPatients int) {
	t.Helper()
	rec := doJSON(t, router, "POST", "/api/v1/doctors/doc-1/availability", map[string]interface{}{
		"date": "2030-06-15",
		"hours": []map[string]string{
			{"start": "09:00", "end": "10:00"},
			{"start": "10:00", "end": "11:00"},
		},
		"max_patients": maxPatients,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func bookSlot(t *testing.T, router *mux.Router, patientID, hour string) (*httptest.ResponseRecorder, types.Appointment) {
	t.Helper()
	rec := doJSON(t, router, "POST", "/api/v1/appointments", map[string]string{
		"patient_id":       patientID,
		"doctor_id":        "doc-1",
		"appointment_date": "2030-06-15",
		"appointment_hour": hour,
	})
	var apt types.Appointment
	if rec.Code == http.StatusCreated {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apt))
	}
	return rec, apt
}

func TestHTTPAddAvailability(t *testing.T) {
	router, _ := setupTestRouter(t)

	declareSlots(t, router, 2)

	rec := doJSON(t, router, "GET", "/api/v1/doctors/doc-1/availability", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Availability []*types.Availability `json:"availability"`
		Count        int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Availability, 1)
	assert.Len(t, resp.Availability[0].Hours, 2)
	assert.True(t, resp.Availability[0].Hours[0].Available)
}

func TestHTTPAddAvailability_BadRequest(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, "POST", "/api/v1/doctors/doc-1/availability", map[string]interface{}{
		"date":         "not-a-date",
		"hours":        []map[string]string{{"start": "09:00", "end": "10:00"}},
		"max_patients": 2,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation", resp["kind"])
}

func TestHTTPBookAppointment(t *testing.T) {
	router, _ := setupTestRouter(t)
	declareSlots(t, router, 2)

	rec, apt := bookSlot(t, router, "pat-1", "09:00")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, types.StatusPending, apt.Status)
	assert.Equal(t, 100.0, apt.Price)
}

func TestHTTPBookAppointment_UnknownDoctor(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, "POST", "/api/v1/appointments", map[string]string{
		"patient_id":       "pat-1",
		"doctor_id":        "doc-ghost",
		"appointment_date": "2030-06-15",
		"appointment_hour": "09:00",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPBookAppointment_FullSlotConflict(t *testing.T) {
	router, _ := setupTestRouter(t)
	declareSlots(t, router, 1)

	rec, _ := bookSlot(t, router, "pat-1", "09:00")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = bookSlot(t, router, "pat-2", "09:00")
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "slot_unavailable", resp["kind"])
}

func TestHTTPBookAppointment_UndeclaredSlot(t *testing.T) {
	router, _ := setupTestRouter(t)
	declareSlots(t, router, 1)

	rec := doJSON(t, router, "POST", "/api/v1/appointments", map[string]string{
		"patient_id":       "pat-1",
		"doctor_id":        "doc-1",
		"appointment_date": "2030-06-15",
		"appointment_hour": "13:00",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "slot_not_found", resp["kind"])
}

func TestHTTPBookAppointment_InvalidBody(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest("POST", "/api/v1/appointments", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPStatusTransitions(t *testing.T) {
	router, _ := setupTestRouter(t)
	declareSlots(t, router, 2)

	rec, apt := bookSlot(t, router, "pat-1", "09:00")
	require.Equal(t, http.StatusCreated, rec.Code)

	// confirm with a note
	rec = doJSON(t, router, "PUT", fmt.Sprintf("/api/v1/appointments/%s/status", apt.ID),
		map[string]string{"status": "confirmed", "doctor_notes": "bring prior scans"})
	require.Equal(t, http.StatusOK, rec.Code)

	var confirmed types.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirmed))
	assert.Equal(t, types.StatusConfirmed, confirmed.Status)
	assert.Equal(t, "bring prior scans", confirmed.DoctorNotes)

	// confirmed -> declined is illegal, 400
	rec = doJSON(t, router, "PUT", fmt.Sprintf("/api/v1/appointments/%s/status", apt.ID),
		map[string]string{"status": "declined"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_transition", resp["kind"])

	// cancel via DELETE
	rec = doJSON(t, router, "DELETE", "/api/v1/appointments/"+apt.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// canceling again is illegal
	rec = doJSON(t, router, "DELETE", "/api/v1/appointments/"+apt.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPStatusTransition_UnknownStatus(t *testing.T) {
	router, _ := setupTestRouter(t)
	declareSlots(t, router, 2)

	rec, apt := bookSlot(t, router, "pat-1", "09:00")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, "PUT", fmt.Sprintf("/api/v1/appointments/%s/status", apt.ID),
		map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPReschedule(t *testing.T) {
	router, repo := setupTestRouter(t)
	declareSlots(t, router, 1)

	rec, apt := bookSlot(t, router, "pat-1", "09:00")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, "POST", fmt.Sprintf("/api/v1/appointments/%s/reschedule", apt.ID),
		map[string]string{"appointment_date": "2030-06-15", "appointment_hour": "10:00"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var moved types.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &moved))
	assert.Equal(t, "10:00", moved.Hour)
	assert.Equal(t, types.StatusPending, moved.Status)

	// old slot capacity is free again
	slot, err := repo.GetHourSlot("doc-1", "2030-06-15", "09:00")
	require.NoError(t, err)
	assert.Equal(t, 0, slot.ReservedCount)
}

func TestHTTPGetAppointment_NotFound(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, "GET", "/api/v1/appointments/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPPatientUpcoming(t *testing.T) {
	router, _ := setupTestRouter(t)
	declareSlots(t, router, 3)

	rec, _ := bookSlot(t, router, "pat-1", "09:00")
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, canceled := bookSlot(t, router, "pat-1", "10:00")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, "DELETE", "/api/v1/appointments/"+canceled.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, "GET", "/api/v1/patients/pat-1/appointments/upcoming", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Appointments []*types.Appointment `json:"appointments"`
		Count        int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestHTTPDeleteAvailability_Conflict(t *testing.T) {
	router, _ := setupTestRouter(t)
	declareSlots(t, router, 1)

	rec, _ := bookSlot(t, router, "pat-1", "09:00")
	require.Equal(t, http.StatusCreated, rec.Code)

	// find the availability id
	rec = doJSON(t, router, "GET", "/api/v1/doctors/doc-1/availability", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Availability []*types.Availability `json:"availability"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Availability, 1)

	rec = doJSON(t, router, "DELETE",
		"/api/v1/doctors/doc-1/availability/"+listing.Availability[0].ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHTTPHealthFallback(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}
