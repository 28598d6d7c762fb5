package booking

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/clinibook/clinic-booking/pkg/types"
)

// hourPattern matches 24-hour "HH:MM" wall-clock strings.
var hourPattern = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

// timeToMinutes converts an "HH:MM" string to minutes since midnight.
// The format must be validated before calling.
func timeToMinutes(hhmm string) int {
	var hour, minute int
	fmt.Sscanf(hhmm, "%d:%d", &hour, &minute)
	return hour*60 + minute
}

// validateHourFormat checks that hhmm is a well-formed "HH:MM" string.
func validateHourFormat(hhmm string) error {
	if !hourPattern.MatchString(hhmm) {
		return types.NewValidationError(
			types.ErrCodeInvalidInput,
			fmt.Sprintf("%q is not a valid time format (HH:MM)", hhmm),
			nil,
		)
	}
	return nil
}

// validateDateFormat checks that date is a well-formed calendar date.
func validateDateFormat(date string) error {
	if _, err := time.Parse(types.DateFormat, date); err != nil {
		return types.NewValidationError(
			types.ErrCodeInvalidInput,
			fmt.Sprintf("%q is not a valid date (YYYY-MM-DD)", date),
			nil,
		)
	}
	return nil
}

// validateHourRanges checks format and ordering of each range and rejects
// overlaps within the set. Ranges are compared sorted by start time.
func validateHourRanges(hours []types.HourRange) error {
	if len(hours) == 0 {
		return types.NewValidationError(types.ErrCodeInvalidInput, "at least one hour range is required", nil)
	}

	for _, hr := range hours {
		if err := validateHourFormat(hr.Start); err != nil {
			return err
		}
		if err := validateHourFormat(hr.End); err != nil {
			return err
		}
		if timeToMinutes(hr.Start) >= timeToMinutes(hr.End) {
			return types.NewValidationError(
				types.ErrCodeInvalidInput,
				fmt.Sprintf("start time %s must be before end time %s", hr.Start, hr.End),
				nil,
			)
		}
	}

	sorted := make([]types.HourRange, len(hours))
	copy(sorted, hours)
	sort.Slice(sorted, func(i, j int) bool {
		return timeToMinutes(sorted[i].Start) < timeToMinutes(sorted[j].Start)
	})

	for i := 0; i < len(sorted)-1; i++ {
		if timeToMinutes(sorted[i].End) > timeToMinutes(sorted[i+1].Start) {
			return types.NewValidationError(
				types.ErrCodeInvalidInput,
				fmt.Sprintf("hour ranges %s-%s and %s-%s overlap",
					sorted[i].Start, sorted[i].End, sorted[i+1].Start, sorted[i+1].End),
				nil,
			)
		}
	}

	return nil
}

// rangesOverlapSlots reports whether any of the submitted ranges overlaps one
// of the already-declared slots for the same date.
func rangesOverlapSlots(hours []types.HourRange, existing []types.HourSlot) bool {
	for _, hr := range hours {
		start := timeToMinutes(hr.Start)
		end := timeToMinutes(hr.End)
		for _, slot := range existing {
			if start < timeToMinutes(slot.End) && end > timeToMinutes(slot.Start) {
				return true
			}
		}
	}
	return false
}

// slotStartTime resolves a slot's (date, start) pair to an absolute time in
// the service's single implicit time zone.
func slotStartTime(date, start string) (time.Time, error) {
	return time.ParseInLocation(types.DateFormat+" "+types.HourFormat, date+" "+start, time.Local)
}

// slotAvailable computes the derived availability of a slot: capacity left
// and start time still ahead of the clock. A persisted availability flag is
// never consulted; this is the only definition of "available".
func slotAvailable(slot *types.HourSlot, date string, now time.Time) bool {
	if slot.ReservedCount >= slot.Capacity {
		return false
	}
	start, err := slotStartTime(date, slot.Start)
	if err != nil {
		return false
	}
	return now.Before(start)
}

// annotateAvailability recomputes the derived Available flag on every slot of
// the given entries.
func annotateAvailability(entries []*types.Availability, now time.Time) {
	for _, av := range entries {
		for i := range av.Hours {
			av.Hours[i].Available = slotAvailable(&av.Hours[i], av.Date, now)
		}
	}
}

// systemClock is the production Clock backed by time.Now.
type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
