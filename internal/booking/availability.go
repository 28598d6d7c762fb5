package booking

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/clinibook/clinic-booking/pkg/interfaces"
	"github.com/clinibook/clinic-booking/pkg/logger"
	"github.com/clinibook/clinic-booking/pkg/types"
)

// AvailabilityManager owns a doctor's declared slots: shape validation,
// overlap rules and reservation-preserving edits.
type AvailabilityManager struct {
	repository interfaces.BookingRepository
	clock      interfaces.Clock
	logger     *logger.Logger
}

// NewAvailabilityManager creates a new availability manager.
func NewAvailabilityManager(repo interfaces.BookingRepository, clock interfaces.Clock, log *logger.Logger) *AvailabilityManager {
	return &AvailabilityManager{
		repository: repo,
		clock:      clock,
		logger:     log,
	}
}

// AddAvailability declares new slots for one date. Every submitted hour range
// becomes an HourSlot with capacity maxPatients and no reservations.
func (am *AvailabilityManager) AddAvailability(doctorID, date string, hours []types.HourRange, maxPatients int) (*types.Availability, error) {
	if err := validateDateFormat(date); err != nil {
		return nil, err
	}
	if err := validateHourRanges(hours); err != nil {
		return nil, err
	}
	if maxPatients < 1 {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "max patients must be at least 1", nil)
	}

	if _, err := am.repository.GetDoctorByID(doctorID); err != nil {
		return nil, err
	}

	existing, err := am.repository.GetAvailabilityByDate(doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing availability: %w", err)
	}
	for _, av := range existing {
		if rangesOverlapSlots(hours, av.Hours) {
			return nil, types.NewValidationError(
				types.ErrCodeInvalidInput,
				fmt.Sprintf("submitted hours overlap slots already declared for %s", date),
				nil,
			)
		}
	}

	av := &types.Availability{
		ID:       uuid.New().String(),
		DoctorID: doctorID,
		Date:     date,
		Hours:    make([]types.HourSlot, 0, len(hours)),
	}
	for _, hr := range hours {
		av.Hours = append(av.Hours, types.HourSlot{
			Start:    hr.Start,
			End:      hr.End,
			Capacity: maxPatients,
		})
	}

	if err := am.repository.CreateAvailability(av); err != nil {
		return nil, fmt.Errorf("failed to create availability: %w", err)
	}

	am.logger.Audit(doctorID, "add_availability", av.ID, true, map[string]interface{}{
		"date":  date,
		"slots": len(av.Hours),
	})

	annotateAvailability([]*types.Availability{av}, am.clock.Now())
	return av, nil
}

// UpdateAvailability replaces the hour list of an existing entry. Reserved
// counts carry over for hours that still exist, matched by start time, and an
// edit that would shrink capacity below live reservations is rejected.
func (am *AvailabilityManager) UpdateAvailability(doctorID, availabilityID, date string, hours []types.HourRange, maxPatients int) (*types.Availability, error) {
	if err := validateDateFormat(date); err != nil {
		return nil, err
	}
	if err := validateHourRanges(hours); err != nil {
		return nil, err
	}
	if maxPatients < 1 {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "max patients must be at least 1", nil)
	}

	current, err := am.repository.GetAvailabilityByID(doctorID, availabilityID)
	if err != nil {
		return nil, err
	}

	reservedByStart := make(map[string]int, len(current.Hours))
	for _, slot := range current.Hours {
		if slot.ReservedCount > 0 {
			reservedByStart[slot.Start] = slot.ReservedCount
		}
	}

	updated := &types.Availability{
		ID:       current.ID,
		DoctorID: doctorID,
		Date:     date,
		Hours:    make([]types.HourSlot, 0, len(hours)),
	}
	kept := make(map[string]bool, len(hours))
	for _, hr := range hours {
		reserved := reservedByStart[hr.Start]
		if reserved > maxPatients {
			return nil, types.NewCapacityConflictError(
				fmt.Sprintf("slot %s holds %d reservations, cannot shrink capacity to %d", hr.Start, reserved, maxPatients),
				map[string]interface{}{"start": hr.Start, "reserved": reserved, "capacity": maxPatients},
			)
		}
		kept[hr.Start] = true
		updated.Hours = append(updated.Hours, types.HourSlot{
			Start:         hr.Start,
			End:           hr.End,
			Capacity:      maxPatients,
			ReservedCount: reserved,
		})
	}

	// Dropping an hour that still holds reservations would orphan them.
	for start, reserved := range reservedByStart {
		if !kept[start] {
			return nil, types.NewCapacityConflictError(
				fmt.Sprintf("slot %s holds %d reservations and cannot be removed", start, reserved),
				map[string]interface{}{"start": start, "reserved": reserved},
			)
		}
	}

	others, err := am.repository.GetAvailabilityByDate(doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing availability: %w", err)
	}
	for _, av := range others {
		if av.ID == availabilityID {
			continue
		}
		if rangesOverlapSlots(hours, av.Hours) {
			return nil, types.NewValidationError(
				types.ErrCodeInvalidInput,
				fmt.Sprintf("submitted hours overlap slots already declared for %s", date),
				nil,
			)
		}
	}

	if err := am.repository.ReplaceAvailabilityHours(updated); err != nil {
		return nil, fmt.Errorf("failed to update availability: %w", err)
	}

	am.logger.Audit(doctorID, "update_availability", availabilityID, true, map[string]interface{}{
		"date":  date,
		"slots": len(updated.Hours),
	})

	annotateAvailability([]*types.Availability{updated}, am.clock.Now())
	return updated, nil
}

// DeleteAvailability removes an availability entry and its slots. Deleting an
// id that does not exist for the doctor is an error, and entries with live
// reservations cannot be removed.
func (am *AvailabilityManager) DeleteAvailability(doctorID, availabilityID string) error {
	current, err := am.repository.GetAvailabilityByID(doctorID, availabilityID)
	if err != nil {
		return err
	}

	for _, slot := range current.Hours {
		if slot.ReservedCount > 0 {
			return types.NewCapacityConflictError(
				fmt.Sprintf("slot %s holds %d reservations and cannot be deleted", slot.Start, slot.ReservedCount),
				map[string]interface{}{"start": slot.Start, "reserved": slot.ReservedCount},
			)
		}
	}

	if err := am.repository.DeleteAvailability(doctorID, availabilityID); err != nil {
		return fmt.Errorf("failed to delete availability: %w", err)
	}

	am.logger.Audit(doctorID, "delete_availability", availabilityID, true, nil)
	return nil
}

// GetAvailability returns all entries for a doctor, each slot annotated with
// its derived availability at the current time.
func (am *AvailabilityManager) GetAvailability(doctorID string) ([]*types.Availability, error) {
	if _, err := am.repository.GetDoctorByID(doctorID); err != nil {
		return nil, err
	}

	entries, err := am.repository.GetDoctorAvailability(doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}

	annotateAvailability(entries, am.clock.Now())
	return entries, nil
}
