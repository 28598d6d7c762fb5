package booking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/clinibook/clinic-booking/pkg/types"
)

// setupRoutes configures HTTP routes for the booking service
func (s *Service) setupRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()

	// Doctor availability routes
	api.HandleFunc("/doctors/{doctorId}/availability", s.addAvailabilityHandler).Methods("POST")
	api.HandleFunc("/doctors/{doctorId}/availability", s.getAvailabilityHandler).Methods("GET")
	api.HandleFunc("/doctors/{doctorId}/availability/{id}", s.updateAvailabilityHandler).Methods("PUT")
	api.HandleFunc("/doctors/{doctorId}/availability/{id}", s.deleteAvailabilityHandler).Methods("DELETE")

	// Appointment routes
	api.HandleFunc("/appointments", s.bookAppointmentHandler).Methods("POST")
	api.HandleFunc("/appointments/{id}", s.getAppointmentHandler).Methods("GET")
	api.HandleFunc("/appointments/{id}/status", s.updateStatusHandler).Methods("PUT")
	api.HandleFunc("/appointments/{id}/reschedule", s.rescheduleHandler).Methods("POST")
	api.HandleFunc("/appointments/{id}", s.cancelAppointmentHandler).Methods("DELETE")

	// Appointment listings
	api.HandleFunc("/patients/{patientId}/appointments/upcoming", s.getPatientUpcomingHandler).Methods("GET")
	api.HandleFunc("/doctors/{doctorId}/appointments", s.getDoctorAppointmentsHandler).Methods("GET")

	// Reminder sweep, intended for a scheduler to call
	api.HandleFunc("/reminders/run", s.runRemindersHandler).Methods("POST")

	// Health and metrics
	if s.health != nil {
		router.HandleFunc(s.config.Monitoring.HealthPath, s.health.HTTPHandler()).Methods("GET")
	} else {
		router.HandleFunc("/health", s.healthCheckHandler).Methods("GET")
	}
	if s.metrics != nil {
		router.Handle(s.config.Monitoring.MetricsPath, s.metrics.Handler()).Methods("GET")
	}

	s.logger.Info("Booking service routes configured")
}

// availabilityRequest is the wire form for declaring or updating availability.
type availabilityRequest struct {
	Date        string            `json:"date"`
	Hours       []types.HourRange `json:"hours"`
	MaxPatients int               `json:"max_patients"`
}

// statusRequest is the wire form for a status transition.
type statusRequest struct {
	Status      string `json:"status"`
	DoctorNotes string `json:"doctor_notes,omitempty"`
}

// rescheduleRequest is the wire form for moving an appointment.
type rescheduleRequest struct {
	Date string `json:"appointment_date"`
	Hour string `json:"appointment_hour"`
}

// addAvailabilityHandler handles availability declaration
func (s *Service) addAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	doctorID := vars["doctorId"]

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, types.NewValidationError(types.ErrCodeInvalidInput,
			"invalid request body", nil))
		return
	}

	av, err := s.AddAvailability(doctorID, req.Date, req.Hours, req.MaxPatients)
	if err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, av)
}

// getAvailabilityHandler handles availability retrieval
func (s *Service) getAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	doctorID := vars["doctorId"]

	entries, err := s.GetAvailability(doctorID)
	if err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"availability": entries,
		"count":        len(entries),
	})
}

// updateAvailabilityHandler handles availability updates
func (s *Service) updateAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	doctorID := vars["doctorId"]
	availabilityID := vars["id"]

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, types.NewValidationError(types.ErrCodeInvalidInput,
			"invalid request body", nil))
		return
	}

	av, err := s.UpdateAvailability(doctorID, availabilityID, req.Date, req.Hours, req.MaxPatients)
	if err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, av)
}

// deleteAvailabilityHandler handles availability deletion
func (s *Service) deleteAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := s.DeleteAvailability(vars["doctorId"], vars["id"]); err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// bookAppointmentHandler handles appointment booking
func (s *Service) bookAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	var req types.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, types.NewValidationError(types.ErrCodeInvalidInput,
			"invalid request body", nil))
		return
	}

	apt, err := s.BookAppointment(&req)
	if err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, apt)
}

// getAppointmentHandler handles appointment retrieval
func (s *Service) getAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	apt, err := s.GetAppointment(vars["id"])
	if err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, apt)
}

// updateStatusHandler handles appointment status transitions
func (s *Service) updateStatusHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, types.NewValidationError(types.ErrCodeInvalidInput,
			"invalid request body", nil))
		return
	}

	status := types.AppointmentStatus(req.Status)
	if !status.Valid() {
		s.writeErrorResponse(w, types.NewValidationError(types.ErrCodeInvalidInput,
			"unknown appointment status: "+req.Status, nil))
		return
	}

	apt, err := s.UpdateAppointmentStatus(vars["id"], status, req.DoctorNotes)
	if err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, apt)
}

// cancelAppointmentHandler handles appointment cancellation
func (s *Service) cancelAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	apt, err := s.CancelAppointment(vars["id"])
	if err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, apt)
}

// rescheduleHandler handles moving an appointment to a new slot
func (s *Service) rescheduleHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, types.NewValidationError(types.ErrCodeInvalidInput,
			"invalid request body", nil))
		return
	}

	apt, err := s.RescheduleAppointment(vars["id"], req.Date, req.Hour)
	if err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, apt)
}

// getPatientUpcomingHandler handles a patient's upcoming appointment listing
func (s *Service) getPatientUpcomingHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	appointments, err := s.GetPatientUpcomingAppointments(vars["patientId"])
	if err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"appointments": appointments,
		"count":        len(appointments),
	})
}

// getDoctorAppointmentsHandler handles a doctor's appointment listing
func (s *Service) getDoctorAppointmentsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	appointments, err := s.GetDoctorAppointments(vars["doctorId"])
	if err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"appointments": appointments,
		"count":        len(appointments),
	})
}

// runRemindersHandler triggers a reminder sweep
func (s *Service) runRemindersHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.SendUpcomingReminders(); err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "completed"})
}

// healthCheckHandler handles basic health checks when monitoring is disabled
func (s *Service) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "booking",
	})
}

// writeJSONResponse writes a JSON response
func (s *Service) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// writeErrorResponse maps a domain error to its HTTP status and writes the
// error payload.
func (s *Service) writeErrorResponse(w http.ResponseWriter, err error) {
	statusCode := statusForError(err)
	if statusCode == http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
	}

	response := map[string]interface{}{
		"error": err.Error(),
	}
	var bookingErr *types.BookingError
	if errors.As(err, &bookingErr) {
		response["error"] = bookingErr.Message
		response["kind"] = string(bookingErr.Kind)
		response["code"] = bookingErr.Code
		if len(bookingErr.Details) > 0 {
			response["details"] = bookingErr.Details
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		s.logger.WithError(encodeErr).Error("Failed to encode error response")
	}
}

// statusForError maps error kinds onto HTTP status codes. Precondition
// failures are 400, missing resources 404, capacity races 409 and anything
// unclassified 500.
func statusForError(err error) int {
	switch types.KindOf(err) {
	case types.ErrorKindValidation, types.ErrorKindInvalidTransition:
		return http.StatusBadRequest
	case types.ErrorKindNotFound, types.ErrorKindSlotNotFound:
		return http.StatusNotFound
	case types.ErrorKindSlotUnavailable, types.ErrorKindCapacityConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
