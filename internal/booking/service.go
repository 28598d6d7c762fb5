package booking

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/clinibook/clinic-booking/pkg/config"
	"github.com/clinibook/clinic-booking/pkg/database"
	"github.com/clinibook/clinic-booking/pkg/interfaces"
	"github.com/clinibook/clinic-booking/pkg/logger"
	"github.com/clinibook/clinic-booking/pkg/monitoring"
	"github.com/clinibook/clinic-booking/pkg/types"
)

// Service implements the BookingService interface.
type Service struct {
	config        *config.Config
	logger        *logger.Logger
	repository    interfaces.BookingRepository
	clock         interfaces.Clock
	availability  *AvailabilityManager
	notifications *AppointmentNotificationManager
	metrics       *monitoring.MetricsCollector
	health        *monitoring.HealthManager
	server        *http.Server
	db            *database.DB
}

// New creates a new booking service with its storage driver chosen by
// configuration.
func New(cfg *config.Config, log *logger.Logger) interfaces.BookingService {
	clock := systemClock{}

	var repo interfaces.BookingRepository
	var db *database.DB
	switch cfg.Database.Driver {
	case "memory":
		repo = NewMemoryRepository()
	default:
		conn, err := database.NewConnection(&cfg.Database, log)
		if err != nil {
			log.WithError(err).Error("Failed to connect to database")
			panic(err)
		}
		if err := conn.CreateSchema(context.Background()); err != nil {
			log.WithError(err).Error("Failed to create database schema")
			panic(err)
		}
		db = conn
		repo = NewRepository(conn, log)
	}

	var metrics *monitoring.MetricsCollector
	var health *monitoring.HealthManager
	if cfg.Monitoring.Enabled {
		metrics = monitoring.NewMetricsCollector("booking")
		health = monitoring.NewHealthManager("booking", "1.0.0")
		if db != nil {
			health.RegisterChecker("database", monitoring.NewDatabaseHealthChecker(db.DB))
		}
	}

	sender := NewLogSender(log)
	notifications := NewAppointmentNotificationManager(sender, repo, clock, &cfg.Notification, log)

	return &Service{
		config:        cfg,
		logger:        log,
		repository:    repo,
		clock:         clock,
		availability:  NewAvailabilityManager(repo, clock, log),
		notifications: notifications,
		metrics:       metrics,
		health:        health,
		db:            db,
	}
}

// AddAvailability declares slots for a doctor on a date.
func (s *Service) AddAvailability(doctorID, date string, hours []types.HourRange, maxPatients int) (*types.Availability, error) {
	return s.availability.AddAvailability(doctorID, date, hours, maxPatients)
}

// UpdateAvailability replaces the hour list of an availability entry.
func (s *Service) UpdateAvailability(doctorID, availabilityID, date string, hours []types.HourRange, maxPatients int) (*types.Availability, error) {
	return s.availability.UpdateAvailability(doctorID, availabilityID, date, hours, maxPatients)
}

// DeleteAvailability removes an availability entry.
func (s *Service) DeleteAvailability(doctorID, availabilityID string) error {
	return s.availability.DeleteAvailability(doctorID, availabilityID)
}

// GetAvailability returns a doctor's entries with derived slot availability.
func (s *Service) GetAvailability(doctorID string) ([]*types.Availability, error) {
	return s.availability.GetAvailability(doctorID)
}

// BookAppointment reserves one unit of slot capacity and creates the
// appointment in a single storage transaction. Losing a capacity race
// surfaces as SlotUnavailable, which the patient may retry with another slot.
func (s *Service) BookAppointment(req *types.BookingRequest) (*types.Appointment, error) {
	if err := s.validateBookingRequest(req); err != nil {
		s.recordBooking("invalid")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"patient_id": req.PatientID,
		"doctor_id":  req.DoctorID,
		"date":       req.Date,
		"hour":       req.Hour,
	}).Info("Booking appointment")

	doctor, err := s.repository.GetDoctorByID(req.DoctorID)
	if err != nil {
		s.recordBooking("doctor_not_found")
		return nil, err
	}
	if !doctor.Bookable() {
		s.recordBooking("doctor_not_bookable")
		return nil, types.NewNotFoundError(types.ErrCodeNotFound,
			"doctor is not accepting bookings")
	}

	slot, err := s.repository.GetHourSlot(req.DoctorID, req.Date, req.Hour)
	if err != nil {
		s.recordBooking("slot_not_found")
		return nil, err
	}
	if !slotAvailable(slot, req.Date, s.clock.Now()) {
		s.recordBooking("slot_unavailable")
		return nil, types.NewSlotUnavailableError(
			fmt.Sprintf("slot %s on %s is full or has passed", req.Hour, req.Date))
	}

	apt := &types.Appointment{
		ID:             uuid.New().String(),
		PatientID:      req.PatientID,
		DoctorID:       req.DoctorID,
		Date:           req.Date,
		Hour:           req.Hour,
		Status:         types.StatusPending,
		Price:          snapshotPrice(doctor),
		ReasonForVisit: req.ReasonForVisit,
		CreatedAt:      s.clock.Now(),
		UpdatedAt:      s.clock.Now(),
	}

	// The conditional increment inside the repository is the authoritative
	// capacity check; the read above only filters obviously stale requests.
	if err := s.repository.ReserveAndCreateAppointment(apt); err != nil {
		if types.IsKind(err, types.ErrorKindSlotUnavailable) {
			s.recordBooking("slot_unavailable")
		} else {
			s.recordBooking("error")
		}
		return nil, err
	}

	s.recordBooking("booked")
	s.recordReservation("reserve")
	s.logger.Audit(req.PatientID, "book_appointment", apt.ID, true, map[string]interface{}{
		"doctor_id": req.DoctorID,
		"date":      req.Date,
		"hour":      req.Hour,
	})

	if err := s.notifications.SendBookingConfirmation(apt); err != nil {
		s.logger.WithError(err).Warn("Failed to send booking confirmation")
	}

	return apt, nil
}

// UpdateAppointmentStatus applies a lifecycle transition. Transitions into
// canceled or declined release the appointment's reservation exactly once.
// doctorNotes, when non-empty, is attached to the appointment alongside the
// transition.
func (s *Service) UpdateAppointmentStatus(appointmentID string, status types.AppointmentStatus, doctorNotes string) (*types.Appointment, error) {
	apt, err := s.repository.GetAppointmentByID(appointmentID)
	if err != nil {
		return nil, err
	}

	if err := checkTransition(apt.Status, status); err != nil {
		return nil, err
	}

	release := releasesReservation(status)
	if err := s.repository.TransitionStatus(appointmentID, apt.Status, status, release, doctorNotes); err != nil {
		return nil, err
	}

	s.recordStatusTransition(string(apt.Status), string(status))
	if release && !apt.SlotReleased {
		s.recordReservation("release")
	}

	previous := apt.Status
	apt.Status = status
	if release {
		apt.SlotReleased = true
	}
	if doctorNotes != "" {
		apt.DoctorNotes = doctorNotes
	}
	apt.UpdatedAt = s.clock.Now()

	s.logger.Audit(apt.DoctorID, "update_appointment_status", appointmentID, true, map[string]interface{}{
		"from": string(previous),
		"to":   string(status),
	})

	changeType := "updated"
	switch status {
	case types.StatusCanceled:
		changeType = "canceled"
	case types.StatusDeclined:
		changeType = "declined"
	case types.StatusConfirmed:
		changeType = "confirmed"
	}
	if err := s.notifications.SendStatusChangeNotification(apt, changeType); err != nil {
		s.logger.WithError(err).Warn("Failed to send status change notification")
	}

	return apt, nil
}

// CancelAppointment cancels an appointment on behalf of either party.
func (s *Service) CancelAppointment(appointmentID string) (*types.Appointment, error) {
	return s.UpdateAppointmentStatus(appointmentID, types.StatusCanceled, "")
}

// RescheduleAppointment moves an appointment to a new slot: the new slot is
// reserved, the old reservation released and the status reset to pending, all
// in one transaction. A failed reservation leaves everything untouched.
func (s *Service) RescheduleAppointment(appointmentID, newDate, newHour string) (*types.Appointment, error) {
	if err := validateDateFormat(newDate); err != nil {
		return nil, err
	}
	if err := validateHourFormat(newHour); err != nil {
		return nil, err
	}

	apt, err := s.repository.GetAppointmentByID(appointmentID)
	if err != nil {
		return nil, err
	}

	if err := checkReschedulable(apt.Status); err != nil {
		return nil, err
	}

	if apt.Date == newDate && apt.Hour == newHour && !apt.SlotReleased {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			"appointment is already booked on this slot", nil)
	}

	slot, err := s.repository.GetHourSlot(apt.DoctorID, newDate, newHour)
	if err != nil {
		return nil, err
	}
	if !slotAvailable(slot, newDate, s.clock.Now()) {
		return nil, types.NewSlotUnavailableError(
			fmt.Sprintf("slot %s on %s is full or has passed", newHour, newDate))
	}

	if err := s.repository.RescheduleAppointment(appointmentID, apt.Status, newDate, newHour); err != nil {
		return nil, err
	}

	s.recordStatusTransition(string(apt.Status), string(types.StatusPending))
	s.recordReservation("reserve")
	if !apt.SlotReleased {
		s.recordReservation("release")
	}

	apt.Date = newDate
	apt.Hour = newHour
	apt.Status = types.StatusPending
	apt.SlotReleased = false
	apt.UpdatedAt = s.clock.Now()

	s.logger.Audit(apt.PatientID, "reschedule_appointment", appointmentID, true, map[string]interface{}{
		"date": newDate,
		"hour": newHour,
	})

	if err := s.notifications.SendStatusChangeNotification(apt, "rescheduled"); err != nil {
		s.logger.WithError(err).Warn("Failed to send reschedule notification")
	}

	return apt, nil
}

// GetAppointment retrieves an appointment by id.
func (s *Service) GetAppointment(appointmentID string) (*types.Appointment, error) {
	return s.repository.GetAppointmentByID(appointmentID)
}

// GetPatientUpcomingAppointments returns a patient's pending and confirmed
// appointments from today onward.
func (s *Service) GetPatientUpcomingAppointments(patientID string) ([]*types.Appointment, error) {
	filters := &types.AppointmentFilters{
		PatientID: patientID,
		Statuses:  []types.AppointmentStatus{types.StatusPending, types.StatusConfirmed},
		FromDate:  s.clock.Now().Format(types.DateFormat),
	}
	return s.repository.GetAppointments(filters)
}

// GetDoctorAppointments returns all of a doctor's appointments sorted by date.
func (s *Service) GetDoctorAppointments(doctorID string) ([]*types.Appointment, error) {
	filters := &types.AppointmentFilters{
		DoctorID: doctorID,
	}
	return s.repository.GetAppointments(filters)
}

// SendUpcomingReminders dispatches reminders for appointments inside the
// configured reminder window. Best effort.
func (s *Service) SendUpcomingReminders() error {
	return s.notifications.SendUpcomingReminders()
}

// Start starts the booking service HTTP server.
func (s *Service) Start(addr string) error {
	router := mux.NewRouter()
	s.setupRoutes(router)

	var handler http.Handler = router
	if s.metrics != nil {
		handler = s.metrics.HTTPMiddleware(router)
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.config.Server.IdleTimeout) * time.Second,
	}

	s.logger.WithField("addr", addr).Info("Starting booking service")
	return s.server.ListenAndServe()
}

// Stop stops the booking service.
func (s *Service) Stop() error {
	if s.server != nil {
		s.logger.Info("Stopping booking service")
		if err := s.server.Close(); err != nil {
			return err
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// validateBookingRequest validates required booking fields and formats.
func (s *Service) validateBookingRequest(req *types.BookingRequest) error {
	if req.PatientID == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "patient id is required", nil)
	}
	if req.DoctorID == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "doctor id is required", nil)
	}
	if err := validateDateFormat(req.Date); err != nil {
		return err
	}
	return validateHourFormat(req.Hour)
}

// snapshotPrice captures the doctor's effective price at booking time. The
// flat discount never takes the price below zero.
func snapshotPrice(doctor *types.Doctor) float64 {
	price := doctor.Price - doctor.Discount
	if price < 0 {
		return 0
	}
	return price
}

func (s *Service) recordBooking(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordBooking(outcome)
	}
}

func (s *Service) recordReservation(action string) {
	if s.metrics != nil {
		s.metrics.RecordReservation(action)
	}
}

func (s *Service) recordStatusTransition(from, to string) {
	if s.metrics != nil {
		s.metrics.RecordStatusTransition(from, to)
	}
}
