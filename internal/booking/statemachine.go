package booking

import (
	"fmt"

	"github.com/clinibook/clinic-booking/pkg/types"
)

// allowedTransitions is the appointment lifecycle:
// pending may be confirmed, declined or canceled; confirmed and declined may
// only be canceled; canceled is terminal. A declined appointment cannot flip
// to confirmed, the patient has to cancel and rebook.
var allowedTransitions = map[types.AppointmentStatus]map[types.AppointmentStatus]bool{
	types.StatusPending: {
		types.StatusConfirmed: true,
		types.StatusDeclined:  true,
		types.StatusCanceled:  true,
	},
	types.StatusConfirmed: {
		types.StatusCanceled: true,
	},
	types.StatusDeclined: {
		types.StatusCanceled: true,
	},
	types.StatusCanceled: {},
}

// checkTransition validates a status change against the lifecycle rules.
func checkTransition(from, to types.AppointmentStatus) error {
	if !to.Valid() {
		return types.NewValidationError(
			types.ErrCodeInvalidInput,
			fmt.Sprintf("unknown appointment status %q", to),
			nil,
		)
	}

	if from == types.StatusCanceled {
		return types.NewInvalidTransitionError(
			"appointment is already canceled",
			transitionDetails(from, to),
		)
	}

	if from == to {
		return types.NewInvalidTransitionError(
			fmt.Sprintf("appointment is already %s", from),
			transitionDetails(from, to),
		)
	}

	if from == types.StatusDeclined && to == types.StatusConfirmed {
		return types.NewInvalidTransitionError(
			"a declined appointment cannot be confirmed; cancel and book again",
			transitionDetails(from, to),
		)
	}

	if !allowedTransitions[from][to] {
		return types.NewInvalidTransitionError(
			fmt.Sprintf("cannot transition appointment from %s to %s", from, to),
			transitionDetails(from, to),
		)
	}

	return nil
}

// releasesReservation reports whether entering the given status hands the
// appointment's capacity unit back to its hour slot.
func releasesReservation(to types.AppointmentStatus) bool {
	return to == types.StatusCanceled || to == types.StatusDeclined
}

// checkReschedulable validates that an appointment in the given status may be
// moved to a new slot. Rescheduling re-enters pending from any non-terminal
// state.
func checkReschedulable(from types.AppointmentStatus) error {
	if from.Terminal() {
		return types.NewInvalidTransitionError(
			"a canceled appointment cannot be rescheduled",
			transitionDetails(from, types.StatusPending),
		)
	}
	return nil
}

func transitionDetails(from, to types.AppointmentStatus) map[string]interface{} {
	return map[string]interface{}{
		"from": string(from),
		"to":   string(to),
	}
}
