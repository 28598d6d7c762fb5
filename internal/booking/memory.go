package booking

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/clinibook/clinic-booking/pkg/interfaces"
	"github.com/clinibook/clinic-booking/pkg/types"
)

// MemoryRepository is an in-memory BookingRepository guarded by a single
// mutex. It enforces the same conditional semantics as the PostgreSQL
// implementation and backs the "memory" database driver and tests.
type MemoryRepository struct {
	mu            sync.Mutex
	doctors       map[string]*types.Doctor
	availability  map[string]*types.Availability
	appointments  map[string]*types.Appointment
	slotsByDoctor map[string]map[string]*types.HourSlot
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		doctors:       make(map[string]*types.Doctor),
		availability:  make(map[string]*types.Availability),
		appointments:  make(map[string]*types.Appointment),
		slotsByDoctor: make(map[string]map[string]*types.HourSlot),
	}
}

var _ interfaces.BookingRepository = (*MemoryRepository)(nil)

func slotKey(date, start string) string {
	return date + "/" + start
}

func (m *MemoryRepository) doctorSlots(doctorID string) map[string]*types.HourSlot {
	slots, ok := m.slotsByDoctor[doctorID]
	if !ok {
		slots = make(map[string]*types.HourSlot)
		m.slotsByDoctor[doctorID] = slots
	}
	return slots
}

func copyDoctor(d *types.Doctor) *types.Doctor {
	cp := *d
	return &cp
}

func copyAvailability(av *types.Availability) *types.Availability {
	cp := *av
	cp.Hours = make([]types.HourSlot, len(av.Hours))
	copy(cp.Hours, av.Hours)
	return &cp
}

func copyAppointment(apt *types.Appointment) *types.Appointment {
	cp := *apt
	return &cp
}

// CreateDoctor stores a doctor record.
func (m *MemoryRepository) CreateDoctor(doctor *types.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.doctors[doctor.ID]; exists {
		return fmt.Errorf("doctor already exists: %s", doctor.ID)
	}
	now := time.Now()
	cp := copyDoctor(doctor)
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.doctors[doctor.ID] = cp
	return nil
}

// GetDoctorByID retrieves a doctor by id.
func (m *MemoryRepository) GetDoctorByID(id string) (*types.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doctor, ok := m.doctors[id]
	if !ok {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound,
			fmt.Sprintf("doctor not found: %s", id))
	}
	return copyDoctor(doctor), nil
}

// CreateAvailability stores an availability entry and indexes its slots.
func (m *MemoryRepository) CreateAvailability(av *types.Availability) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cp := copyAvailability(av)
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.availability[av.ID] = cp

	slots := m.doctorSlots(av.DoctorID)
	for i := range cp.Hours {
		slots[slotKey(av.Date, cp.Hours[i].Start)] = &cp.Hours[i]
	}
	return nil
}

// GetAvailabilityByID retrieves one entry owned by the doctor.
func (m *MemoryRepository) GetAvailabilityByID(doctorID, availabilityID string) (*types.Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	av, ok := m.availability[availabilityID]
	if !ok || av.DoctorID != doctorID {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound,
			fmt.Sprintf("availability not found: %s", availabilityID))
	}
	return copyAvailability(av), nil
}

// GetAvailabilityByDate retrieves a doctor's entries for one date.
func (m *MemoryRepository) GetAvailabilityByDate(doctorID, date string) ([]*types.Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []*types.Availability
	for _, av := range m.availability {
		if av.DoctorID == doctorID && av.Date == date {
			entries = append(entries, copyAvailability(av))
		}
	}
	sortAvailability(entries)
	return entries, nil
}

// GetDoctorAvailability retrieves all of a doctor's entries.
func (m *MemoryRepository) GetDoctorAvailability(doctorID string) ([]*types.Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []*types.Availability
	for _, av := range m.availability {
		if av.DoctorID == doctorID {
			entries = append(entries, copyAvailability(av))
		}
	}
	sortAvailability(entries)
	return entries, nil
}

func sortAvailability(entries []*types.Availability) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}

// ReplaceAvailabilityHours swaps an entry's hour list, re-reading live
// reserved counts so a concurrent booking is never dropped.
func (m *MemoryRepository) ReplaceAvailabilityHours(av *types.Availability) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.availability[av.ID]
	if !ok || existing.DoctorID != av.DoctorID {
		return types.NewNotFoundError(types.ErrCodeNotFound,
			fmt.Sprintf("availability not found: %s", av.ID))
	}

	reserved := make(map[string]int)
	for _, slot := range existing.Hours {
		if slot.ReservedCount > 0 {
			reserved[slot.Start] = slot.ReservedCount
		}
	}

	kept := make(map[string]bool, len(av.Hours))
	hours := make([]types.HourSlot, len(av.Hours))
	copy(hours, av.Hours)
	for i := range hours {
		count := reserved[hours[i].Start]
		if count > hours[i].Capacity {
			return types.NewCapacityConflictError(
				fmt.Sprintf("slot %s holds %d reservations, cannot shrink capacity to %d",
					hours[i].Start, count, hours[i].Capacity),
				map[string]interface{}{"start": hours[i].Start, "reserved": count},
			)
		}
		hours[i].ReservedCount = count
		kept[hours[i].Start] = true
	}
	for start, count := range reserved {
		if !kept[start] {
			return types.NewCapacityConflictError(
				fmt.Sprintf("slot %s holds %d reservations and cannot be removed", start, count),
				map[string]interface{}{"start": start, "reserved": count},
			)
		}
	}

	slots := m.doctorSlots(existing.DoctorID)
	for _, slot := range existing.Hours {
		delete(slots, slotKey(existing.Date, slot.Start))
	}

	existing.Date = av.Date
	existing.Hours = hours
	existing.UpdatedAt = time.Now()
	for i := range existing.Hours {
		slots[slotKey(existing.Date, existing.Hours[i].Start)] = &existing.Hours[i]
	}
	return nil
}

// DeleteAvailability removes an entry unless it holds live reservations.
func (m *MemoryRepository) DeleteAvailability(doctorID, availabilityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	av, ok := m.availability[availabilityID]
	if !ok || av.DoctorID != doctorID {
		return types.NewNotFoundError(types.ErrCodeNotFound,
			fmt.Sprintf("availability not found: %s", availabilityID))
	}

	for _, slot := range av.Hours {
		if slot.ReservedCount > 0 {
			return types.NewCapacityConflictError(
				"availability holds live reservations and cannot be deleted", nil)
		}
	}

	slots := m.doctorSlots(doctorID)
	for _, slot := range av.Hours {
		delete(slots, slotKey(av.Date, slot.Start))
	}
	delete(m.availability, availabilityID)
	return nil
}

// GetHourSlot retrieves one slot addressed by (doctor, date, start).
func (m *MemoryRepository) GetHourSlot(doctorID, date, start string) (*types.HourSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, err := m.lookupSlot(doctorID, date, start)
	if err != nil {
		return nil, err
	}
	cp := *slot
	return &cp, nil
}

func (m *MemoryRepository) lookupSlot(doctorID, date, start string) (*types.HourSlot, error) {
	slot, ok := m.doctorSlots(doctorID)[slotKey(date, start)]
	if !ok {
		return nil, types.NewSlotNotFoundError(
			fmt.Sprintf("no slot declared at %s on %s", start, date))
	}
	return slot, nil
}

// ReserveAndCreateAppointment takes one unit of capacity and stores the
// appointment under the same lock, so the capacity check and the write are
// one atomic step.
func (m *MemoryRepository) ReserveAndCreateAppointment(apt *types.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, err := m.lookupSlot(apt.DoctorID, apt.Date, apt.Hour)
	if err != nil {
		return err
	}
	if slot.ReservedCount >= slot.Capacity {
		return types.NewSlotUnavailableError(
			fmt.Sprintf("slot %s on %s is fully booked", apt.Hour, apt.Date))
	}
	slot.ReservedCount++

	now := time.Now()
	cp := copyAppointment(apt)
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.appointments[apt.ID] = cp
	return nil
}

// GetAppointmentByID retrieves an appointment by id.
func (m *MemoryRepository) GetAppointmentByID(id string) (*types.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	apt, ok := m.appointments[id]
	if !ok {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound,
			fmt.Sprintf("appointment not found: %s", id))
	}
	return copyAppointment(apt), nil
}

// TransitionStatus applies a compare-and-swap status change with a keyed
// slot release. A non-empty doctorNotes is attached with the transition.
func (m *MemoryRepository) TransitionStatus(id string, from, to types.AppointmentStatus, release bool, doctorNotes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	apt, ok := m.appointments[id]
	if !ok {
		return types.NewNotFoundError(types.ErrCodeNotFound,
			fmt.Sprintf("appointment not found: %s", id))
	}
	if apt.Status != from {
		return types.NewInvalidTransitionError(
			fmt.Sprintf("appointment status changed from %s to %s concurrently", from, apt.Status),
			map[string]interface{}{"expected": string(from), "actual": string(apt.Status), "requested": string(to)},
		)
	}

	apt.Status = to
	if doctorNotes != "" {
		apt.DoctorNotes = doctorNotes
	}
	apt.UpdatedAt = time.Now()

	if release && !apt.SlotReleased {
		apt.SlotReleased = true
		if slot, err := m.lookupSlot(apt.DoctorID, apt.Date, apt.Hour); err == nil && slot.ReservedCount > 0 {
			slot.ReservedCount--
		}
	}
	return nil
}

// RescheduleAppointment moves an appointment to a new slot atomically.
func (m *MemoryRepository) RescheduleAppointment(id string, from types.AppointmentStatus, newDate, newHour string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	apt, ok := m.appointments[id]
	if !ok {
		return types.NewNotFoundError(types.ErrCodeNotFound,
			fmt.Sprintf("appointment not found: %s", id))
	}
	if apt.Status != from {
		return types.NewInvalidTransitionError(
			fmt.Sprintf("appointment status changed from %s to %s concurrently", from, apt.Status),
			map[string]interface{}{"expected": string(from), "actual": string(apt.Status)},
		)
	}

	newSlot, err := m.lookupSlot(apt.DoctorID, newDate, newHour)
	if err != nil {
		return err
	}
	if newSlot.ReservedCount >= newSlot.Capacity {
		return types.NewSlotUnavailableError(
			fmt.Sprintf("slot %s on %s is fully booked", newHour, newDate))
	}
	newSlot.ReservedCount++

	if !apt.SlotReleased {
		if oldSlot, err := m.lookupSlot(apt.DoctorID, apt.Date, apt.Hour); err == nil && oldSlot.ReservedCount > 0 {
			oldSlot.ReservedCount--
		}
	}

	apt.Date = newDate
	apt.Hour = newHour
	apt.Status = types.StatusPending
	apt.SlotReleased = false
	apt.UpdatedAt = time.Now()
	return nil
}

// GetAppointments retrieves appointments matching the filters, ordered by
// date then hour.
func (m *MemoryRepository) GetAppointments(filters *types.AppointmentFilters) ([]*types.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*types.Appointment
	for _, apt := range m.appointments {
		if filters.PatientID != "" && apt.PatientID != filters.PatientID {
			continue
		}
		if filters.DoctorID != "" && apt.DoctorID != filters.DoctorID {
			continue
		}
		if len(filters.Statuses) > 0 && !statusIn(apt.Status, filters.Statuses) {
			continue
		}
		if filters.FromDate != "" && apt.Date < filters.FromDate {
			continue
		}
		if filters.ToDate != "" && apt.Date > filters.ToDate {
			continue
		}
		matched = append(matched, copyAppointment(apt))
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date != matched[j].Date {
			return matched[i].Date < matched[j].Date
		}
		return matched[i].Hour < matched[j].Hour
	})

	if filters.Offset > 0 {
		if filters.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(matched) {
		matched = matched[:filters.Limit]
	}
	return matched, nil
}

func statusIn(status types.AppointmentStatus, set []types.AppointmentStatus) bool {
	for _, st := range set {
		if st == status {
			return true
		}
	}
	return false
}
