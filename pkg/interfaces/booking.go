package interfaces

import (
	"time"

	"github.com/clinibook/clinic-booking/pkg/types"
)

// BookingService defines the interface for availability and appointment
// management exposed to the HTTP layer.
type BookingService interface {
	// Availability management
	AddAvailability(doctorID, date string, hours []types.HourRange, maxPatients int) (*types.Availability, error)
	UpdateAvailability(doctorID, availabilityID, date string, hours []types.HourRange, maxPatients int) (*types.Availability, error)
	DeleteAvailability(doctorID, availabilityID string) error
	GetAvailability(doctorID string) ([]*types.Availability, error)

	// Booking and lifecycle
	BookAppointment(req *types.BookingRequest) (*types.Appointment, error)
	UpdateAppointmentStatus(appointmentID string, status types.AppointmentStatus, doctorNotes string) (*types.Appointment, error)
	CancelAppointment(appointmentID string) (*types.Appointment, error)
	RescheduleAppointment(appointmentID, newDate, newHour string) (*types.Appointment, error)

	// Queries
	GetAppointment(appointmentID string) (*types.Appointment, error)
	GetPatientUpcomingAppointments(patientID string) ([]*types.Appointment, error)
	GetDoctorAppointments(doctorID string) ([]*types.Appointment, error)

	// Notifications
	SendUpcomingReminders() error

	// Service management
	Start(addr string) error
	Stop() error
}

// BookingRepository defines the interface for booking data persistence.
// Implementations must make ReserveAndCreateAppointment, TransitionStatus and
// RescheduleAppointment atomic: a reservation and its appointment mutation
// succeed or fail together, and capacity release happens at most once per
// appointment.
type BookingRepository interface {
	// Doctors
	CreateDoctor(doctor *types.Doctor) error
	GetDoctorByID(id string) (*types.Doctor, error)

	// Availability
	CreateAvailability(av *types.Availability) error
	GetAvailabilityByID(doctorID, availabilityID string) (*types.Availability, error)
	GetAvailabilityByDate(doctorID, date string) ([]*types.Availability, error)
	GetDoctorAvailability(doctorID string) ([]*types.Availability, error)
	ReplaceAvailabilityHours(av *types.Availability) error
	DeleteAvailability(doctorID, availabilityID string) error
	GetHourSlot(doctorID, date, start string) (*types.HourSlot, error)

	// Appointments
	ReserveAndCreateAppointment(apt *types.Appointment) error
	GetAppointmentByID(id string) (*types.Appointment, error)
	TransitionStatus(id string, from, to types.AppointmentStatus, release bool, doctorNotes string) error
	RescheduleAppointment(id string, from types.AppointmentStatus, newDate, newHour string) error
	GetAppointments(filters *types.AppointmentFilters) ([]*types.Appointment, error)
}

// NotificationSender delivers best-effort patient and doctor notifications.
// Failures are logged by callers and never fail the triggering operation.
type NotificationSender interface {
	SendEmail(to, subject, body string) error
	SendPushNotification(userID, title, message string) error
}

// Clock abstracts time for derived slot availability, so tests can pin "now".
type Clock interface {
	Now() time.Time
}
