package types

import "time"

// DateFormat is the calendar-date layout used across the service.
const DateFormat = "2006-01-02"

// HourFormat is the wall-clock layout for slot boundaries.
const HourFormat = "15:04"

// Doctor represents a bookable practitioner. Only approved and verified
// doctors accept bookings.
type Doctor struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Specialty  string    `json:"specialty" db:"specialty"`
	Price      float64   `json:"price" db:"price"`
	Discount   float64   `json:"discount" db:"discount"`
	IsApproved bool      `json:"is_approved" db:"is_approved"`
	IsVerified bool      `json:"is_verified" db:"is_verified"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Bookable reports whether the doctor may accept new appointments.
func (d *Doctor) Bookable() bool {
	return d.IsApproved && d.IsVerified
}

// HourRange is an hour interval as submitted by a doctor when declaring
// availability, "HH:MM" 24-hour strings.
type HourRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// HourSlot is a capacity-bounded bookable interval on a given date.
// Available is derived at read time from ReservedCount, Capacity and the
// current time; it is never read back from storage as an authority.
type HourSlot struct {
	Start         string `json:"start" db:"start_time"`
	End           string `json:"end" db:"end_time"`
	Capacity      int    `json:"capacity" db:"capacity"`
	ReservedCount int    `json:"reserved_count" db:"reserved_count"`
	Available     bool   `json:"is_available" db:"-"`
}

// Availability is a doctor's declared set of hour slots for one date.
type Availability struct {
	ID        string     `json:"id" db:"id"`
	DoctorID  string     `json:"doctor_id" db:"doctor_id"`
	Date      string     `json:"date" db:"date"`
	Hours     []HourSlot `json:"hours"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// AppointmentStatus represents appointment lifecycle states.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusDeclined  AppointmentStatus = "declined"
	StatusCanceled  AppointmentStatus = "canceled"
)

// Valid reports whether s is one of the known lifecycle states.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusDeclined, StatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCanceled
}

// Appointment is a patient's claim on one unit of slot capacity. Appointments
// are never deleted; cancellation is a status. SlotReleased records whether
// the appointment's reservation has been handed back to its hour slot, which
// makes capacity release idempotent per appointment.
type Appointment struct {
	ID             string            `json:"id" db:"id"`
	PatientID      string            `json:"patient_id" db:"patient_id"`
	DoctorID       string            `json:"doctor_id" db:"doctor_id"`
	Date           string            `json:"appointment_date" db:"appointment_date"`
	Hour           string            `json:"appointment_hour" db:"appointment_hour"`
	Status         AppointmentStatus `json:"status" db:"status"`
	Price          float64           `json:"price" db:"price"`
	ReasonForVisit string            `json:"reason_for_visit,omitempty" db:"reason_for_visit"`
	DoctorNotes    string            `json:"doctor_notes,omitempty" db:"doctor_notes"`
	SlotReleased   bool              `json:"-" db:"slot_released"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

// BookingRequest carries a patient's booking intent into the booking engine.
type BookingRequest struct {
	PatientID      string `json:"patient_id"`
	DoctorID       string `json:"doctor_id"`
	Date           string `json:"appointment_date"`
	Hour           string `json:"appointment_hour"`
	ReasonForVisit string `json:"reason_for_visit,omitempty"`
}

// AppointmentFilters represents filters for appointment queries.
type AppointmentFilters struct {
	PatientID string              `json:"patient_id,omitempty"`
	DoctorID  string              `json:"doctor_id,omitempty"`
	Statuses  []AppointmentStatus `json:"statuses,omitempty"`
	FromDate  string              `json:"from_date,omitempty"`
	ToDate    string              `json:"to_date,omitempty"`
	Limit     int                 `json:"limit,omitempty"`
	Offset    int                 `json:"offset,omitempty"`
}
