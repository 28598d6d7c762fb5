package booking

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/clinibook/clinic-booking/pkg/database"
	"github.com/clinibook/clinic-booking/pkg/interfaces"
	"github.com/clinibook/clinic-booking/pkg/logger"
	"github.com/clinibook/clinic-booking/pkg/types"
)

// Repository implements BookingRepository on PostgreSQL. Capacity is enforced
// with conditional updates (reserved_count < capacity inside the UPDATE), so
// concurrent bookings never read-then-write a stale count.
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new booking repository.
func NewRepository(db *database.DB, log *logger.Logger) interfaces.BookingRepository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

// CreateDoctor inserts a doctor record.
func (r *Repository) CreateDoctor(doctor *types.Doctor) error {
	query := `
		INSERT INTO doctors (id, name, specialty, price, discount, is_approved, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(query,
		doctor.ID,
		doctor.Name,
		doctor.Specialty,
		doctor.Price,
		doctor.Discount,
		doctor.IsApproved,
		doctor.IsVerified,
	)
	if err != nil {
		r.logger.WithError(err).Error("Failed to create doctor")
		return fmt.Errorf("failed to create doctor: %w", err)
	}

	return nil
}

// GetDoctorByID retrieves a doctor by id.
func (r *Repository) GetDoctorByID(id string) (*types.Doctor, error) {
	query := `
		SELECT id, name, specialty, price, discount, is_approved, is_verified,
		       created_at, updated_at
		FROM doctors
		WHERE id = $1`

	doctor := &types.Doctor{}
	err := r.db.QueryRow(query, id).Scan(
		&doctor.ID,
		&doctor.Name,
		&doctor.Specialty,
		&doctor.Price,
		&doctor.Discount,
		&doctor.IsApproved,
		&doctor.IsVerified,
		&doctor.CreatedAt,
		&doctor.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound,
				fmt.Sprintf("doctor not found: %s", id))
		}
		r.logger.WithError(err).Error("Failed to get doctor")
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}

	return doctor, nil
}

// CreateAvailability inserts an availability entry and its hour slots in one
// transaction.
func (r *Repository) CreateAvailability(av *types.Availability) error {
	ctx := context.Background()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO availability (id, doctor_id, date) VALUES ($1, $2, $3)`,
		av.ID, av.DoctorID, av.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to create availability: %w", err)
	}

	for _, slot := range av.Hours {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO hour_slots (availability_id, doctor_id, date, start_time, end_time, capacity, reserved_count)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			av.ID, av.DoctorID, av.Date, slot.Start, slot.End, slot.Capacity, slot.ReservedCount,
		)
		if err != nil {
			return fmt.Errorf("failed to create hour slot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit availability: %w", err)
	}

	return nil
}

// GetAvailabilityByID retrieves one availability entry owned by the doctor.
func (r *Repository) GetAvailabilityByID(doctorID, availabilityID string) (*types.Availability, error) {
	query := `
		SELECT id, doctor_id, to_char(date, 'YYYY-MM-DD'), created_at, updated_at
		FROM availability
		WHERE id = $1 AND doctor_id = $2`

	av := &types.Availability{}
	err := r.db.QueryRow(query, availabilityID, doctorID).Scan(
		&av.ID, &av.DoctorID, &av.Date, &av.CreatedAt, &av.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound,
				fmt.Sprintf("availability not found: %s", availabilityID))
		}
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}

	if err := r.loadHours(av); err != nil {
		return nil, err
	}
	return av, nil
}

// GetAvailabilityByDate retrieves a doctor's entries for one date.
func (r *Repository) GetAvailabilityByDate(doctorID, date string) ([]*types.Availability, error) {
	query := `
		SELECT id, doctor_id, to_char(date, 'YYYY-MM-DD'), created_at, updated_at
		FROM availability
		WHERE doctor_id = $1 AND date = $2
		ORDER BY created_at ASC`

	return r.queryAvailability(query, doctorID, date)
}

// GetDoctorAvailability retrieves all of a doctor's availability entries.
func (r *Repository) GetDoctorAvailability(doctorID string) ([]*types.Availability, error) {
	query := `
		SELECT id, doctor_id, to_char(date, 'YYYY-MM-DD'), created_at, updated_at
		FROM availability
		WHERE doctor_id = $1
		ORDER BY date ASC, created_at ASC`

	return r.queryAvailability(query, doctorID)
}

func (r *Repository) queryAvailability(query string, args ...interface{}) ([]*types.Availability, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.WithError(err).Error("Failed to get availability")
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}
	defer rows.Close()

	var entries []*types.Availability
	for rows.Next() {
		av := &types.Availability{}
		if err := rows.Scan(&av.ID, &av.DoctorID, &av.Date, &av.CreatedAt, &av.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan availability: %w", err)
		}
		entries = append(entries, av)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating availability: %w", err)
	}

	for _, av := range entries {
		if err := r.loadHours(av); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (r *Repository) loadHours(av *types.Availability) error {
	query := `
		SELECT start_time, end_time, capacity, reserved_count
		FROM hour_slots
		WHERE availability_id = $1
		ORDER BY start_time ASC`

	rows, err := r.db.Query(query, av.ID)
	if err != nil {
		return fmt.Errorf("failed to get hour slots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var slot types.HourSlot
		if err := rows.Scan(&slot.Start, &slot.End, &slot.Capacity, &slot.ReservedCount); err != nil {
			return fmt.Errorf("failed to scan hour slot: %w", err)
		}
		slot.Start = strings.TrimSpace(slot.Start)
		slot.End = strings.TrimSpace(slot.End)
		av.Hours = append(av.Hours, slot)
	}
	return rows.Err()
}

// ReplaceAvailabilityHours swaps an entry's hour list. Reserved counts are
// re-read under lock inside the transaction so a booking that lands between
// the caller's read and this write cannot be dropped.
func (r *Repository) ReplaceAvailabilityHours(av *types.Availability) error {
	ctx := context.Background()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT start_time, reserved_count FROM hour_slots WHERE availability_id = $1 FOR UPDATE`,
		av.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to lock hour slots: %w", err)
	}
	reserved := make(map[string]int)
	for rows.Next() {
		var start string
		var count int
		if err := rows.Scan(&start, &count); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan hour slot: %w", err)
		}
		if count > 0 {
			reserved[strings.TrimSpace(start)] = count
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("error iterating hour slots: %w", err)
	}
	rows.Close()

	kept := make(map[string]bool, len(av.Hours))
	for i := range av.Hours {
		count := reserved[av.Hours[i].Start]
		if count > av.Hours[i].Capacity {
			return types.NewCapacityConflictError(
				fmt.Sprintf("slot %s holds %d reservations, cannot shrink capacity to %d",
					av.Hours[i].Start, count, av.Hours[i].Capacity),
				map[string]interface{}{"start": av.Hours[i].Start, "reserved": count},
			)
		}
		av.Hours[i].ReservedCount = count
		kept[av.Hours[i].Start] = true
	}
	for start, count := range reserved {
		if !kept[start] {
			return types.NewCapacityConflictError(
				fmt.Sprintf("slot %s holds %d reservations and cannot be removed", start, count),
				map[string]interface{}{"start": start, "reserved": count},
			)
		}
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE availability SET date = $2, updated_at = NOW() WHERE id = $1 AND doctor_id = $3`,
		av.ID, av.Date, av.DoctorID,
	)
	if err != nil {
		return fmt.Errorf("failed to update availability: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return types.NewNotFoundError(types.ErrCodeNotFound,
			fmt.Sprintf("availability not found: %s", av.ID))
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM hour_slots WHERE availability_id = $1`, av.ID,
	); err != nil {
		return fmt.Errorf("failed to clear hour slots: %w", err)
	}

	for _, slot := range av.Hours {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO hour_slots (availability_id, doctor_id, date, start_time, end_time, capacity, reserved_count)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			av.ID, av.DoctorID, av.Date, slot.Start, slot.End, slot.Capacity, slot.ReservedCount,
		)
		if err != nil {
			return fmt.Errorf("failed to create hour slot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit availability update: %w", err)
	}
	return nil
}

// DeleteAvailability removes an entry and its slots. Entries with live
// reservations are never deleted.
func (r *Repository) DeleteAvailability(doctorID, availabilityID string) error {
	result, err := r.db.Exec(
		`DELETE FROM availability
		 WHERE id = $1 AND doctor_id = $2
		   AND NOT EXISTS (
		     SELECT 1 FROM hour_slots
		     WHERE availability_id = $1 AND reserved_count > 0
		   )`,
		availabilityID, doctorID,
	)
	if err != nil {
		r.logger.WithError(err).Error("Failed to delete availability")
		return fmt.Errorf("failed to delete availability: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		err := r.db.QueryRow(
			`SELECT EXISTS (SELECT 1 FROM availability WHERE id = $1 AND doctor_id = $2)`,
			availabilityID, doctorID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check availability: %w", err)
		}
		if exists {
			return types.NewCapacityConflictError(
				"availability holds live reservations and cannot be deleted", nil)
		}
		return types.NewNotFoundError(types.ErrCodeNotFound,
			fmt.Sprintf("availability not found: %s", availabilityID))
	}

	return nil
}

// GetHourSlot retrieves one slot addressed by (doctor, date, start).
func (r *Repository) GetHourSlot(doctorID, date, start string) (*types.HourSlot, error) {
	query := `
		SELECT start_time, end_time, capacity, reserved_count
		FROM hour_slots
		WHERE doctor_id = $1 AND date = $2 AND start_time = $3`

	slot := &types.HourSlot{}
	err := r.db.QueryRow(query, doctorID, date, start).Scan(
		&slot.Start, &slot.End, &slot.Capacity, &slot.ReservedCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewSlotNotFoundError(
				fmt.Sprintf("no slot declared at %s on %s", start, date))
		}
		return nil, fmt.Errorf("failed to get hour slot: %w", err)
	}
	slot.Start = strings.TrimSpace(slot.Start)
	slot.End = strings.TrimSpace(slot.End)

	return slot, nil
}

// ReserveAndCreateAppointment atomically takes one unit of slot capacity and
// inserts the appointment. The conditional UPDATE is the capacity check;
// losing the race rolls everything back.
func (r *Repository) ReserveAndCreateAppointment(apt *types.Appointment) error {
	ctx := context.Background()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := reserveSlotTx(ctx, tx, apt.DoctorID, apt.Date, apt.Hour); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO appointments
		 (id, patient_id, doctor_id, appointment_date, appointment_hour, status, price, reason_for_visit)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		apt.ID, apt.PatientID, apt.DoctorID, apt.Date, apt.Hour,
		string(apt.Status), apt.Price, apt.ReasonForVisit,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	return nil
}

// reserveSlotTx performs the conditional capacity increment inside tx.
func reserveSlotTx(ctx context.Context, tx *sql.Tx, doctorID, date, hour string) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE hour_slots
		 SET reserved_count = reserved_count + 1
		 WHERE doctor_id = $1 AND date = $2 AND start_time = $3
		   AND reserved_count < capacity`,
		doctorID, date, hour,
	)
	if err != nil {
		return fmt.Errorf("failed to reserve slot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (
				SELECT 1 FROM hour_slots
				WHERE doctor_id = $1 AND date = $2 AND start_time = $3
			)`,
			doctorID, date, hour,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check slot: %w", err)
		}
		if !exists {
			return types.NewSlotNotFoundError(
				fmt.Sprintf("no slot declared at %s on %s", hour, date))
		}
		return types.NewSlotUnavailableError(
			fmt.Sprintf("slot %s on %s is fully booked", hour, date))
	}

	return nil
}

// releaseSlotTx hands one unit of capacity back inside tx. The count never
// drops below zero even if the slot row was rebuilt meanwhile.
func releaseSlotTx(ctx context.Context, tx *sql.Tx, doctorID, date, hour string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE hour_slots
		 SET reserved_count = reserved_count - 1
		 WHERE doctor_id = $1 AND date = $2 AND start_time = $3
		   AND reserved_count > 0`,
		doctorID, date, hour,
	)
	if err != nil {
		return fmt.Errorf("failed to release slot: %w", err)
	}
	return nil
}

// GetAppointmentByID retrieves an appointment by id.
func (r *Repository) GetAppointmentByID(id string) (*types.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, to_char(appointment_date, 'YYYY-MM-DD'),
		       appointment_hour, status, price, COALESCE(reason_for_visit, ''),
		       COALESCE(doctor_notes, ''), slot_released, created_at, updated_at
		FROM appointments
		WHERE id = $1`

	apt := &types.Appointment{}
	err := r.db.QueryRow(query, id).Scan(
		&apt.ID, &apt.PatientID, &apt.DoctorID, &apt.Date, &apt.Hour,
		&apt.Status, &apt.Price, &apt.ReasonForVisit, &apt.DoctorNotes,
		&apt.SlotReleased, &apt.CreatedAt, &apt.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound,
				fmt.Sprintf("appointment not found: %s", id))
		}
		r.logger.WithError(err).Error("Failed to get appointment")
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	apt.Hour = strings.TrimSpace(apt.Hour)

	return apt, nil
}

// TransitionStatus applies a compare-and-swap status change. When release is
// set and the reservation is still held, the owning slot's count is
// decremented in the same transaction; the slot_released flag keys the
// release to the appointment so retries cannot double-release. A non-empty
// doctorNotes is written with the transition.
func (r *Repository) TransitionStatus(id string, from, to types.AppointmentStatus, release bool, doctorNotes string) error {
	ctx := context.Background()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var doctorID, date, hour string
	var released bool
	err = tx.QueryRowContext(ctx,
		`SELECT doctor_id, to_char(appointment_date, 'YYYY-MM-DD'), appointment_hour, slot_released
		 FROM appointments
		 WHERE id = $1 AND status = $2
		 FOR UPDATE`,
		id, string(from),
	).Scan(&doctorID, &date, &hour, &released)
	if err != nil {
		if err == sql.ErrNoRows {
			return r.transitionConflict(ctx, id, from, to)
		}
		return fmt.Errorf("failed to lock appointment: %w", err)
	}
	hour = strings.TrimSpace(hour)

	_, err = tx.ExecContext(ctx,
		`UPDATE appointments
		 SET status = $2, slot_released = $3,
		     doctor_notes = CASE WHEN $4 <> '' THEN $4 ELSE doctor_notes END,
		     updated_at = NOW()
		 WHERE id = $1`,
		id, string(to), released || release, doctorNotes,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	if release && !released {
		if err := releaseSlotTx(ctx, tx, doctorID, date, hour); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status transition: %w", err)
	}

	return nil
}

// transitionConflict distinguishes a missing appointment from one whose
// status moved concurrently.
func (r *Repository) transitionConflict(ctx context.Context, id string, from, to types.AppointmentStatus) error {
	var current string
	err := r.db.QueryRowContext(ctx,
		`SELECT status FROM appointments WHERE id = $1`, id,
	).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.NewNotFoundError(types.ErrCodeNotFound,
				fmt.Sprintf("appointment not found: %s", id))
		}
		return fmt.Errorf("failed to check appointment: %w", err)
	}
	return types.NewInvalidTransitionError(
		fmt.Sprintf("appointment status changed from %s to %s concurrently", from, current),
		map[string]interface{}{"expected": string(from), "actual": current, "requested": string(to)},
	)
}

// RescheduleAppointment moves an appointment to a new slot in one
// transaction: reserve new, release old if still held, reset to pending.
// Any failure rolls back with no mutation to either slot.
func (r *Repository) RescheduleAppointment(id string, from types.AppointmentStatus, newDate, newHour string) error {
	ctx := context.Background()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var doctorID, oldDate, oldHour string
	var released bool
	err = tx.QueryRowContext(ctx,
		`SELECT doctor_id, to_char(appointment_date, 'YYYY-MM-DD'), appointment_hour, slot_released
		 FROM appointments
		 WHERE id = $1 AND status = $2
		 FOR UPDATE`,
		id, string(from),
	).Scan(&doctorID, &oldDate, &oldHour, &released)
	if err != nil {
		if err == sql.ErrNoRows {
			return r.transitionConflict(ctx, id, from, types.StatusPending)
		}
		return fmt.Errorf("failed to lock appointment: %w", err)
	}
	oldHour = strings.TrimSpace(oldHour)

	if err := reserveSlotTx(ctx, tx, doctorID, newDate, newHour); err != nil {
		return err
	}

	if !released {
		if err := releaseSlotTx(ctx, tx, doctorID, oldDate, oldHour); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE appointments
		 SET appointment_date = $2, appointment_hour = $3, status = $4,
		     slot_released = FALSE, updated_at = NOW()
		 WHERE id = $1`,
		id, newDate, newHour, string(types.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reschedule: %w", err)
	}

	return nil
}

// GetAppointments retrieves appointments based on filters.
func (r *Repository) GetAppointments(filters *types.AppointmentFilters) ([]*types.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, to_char(appointment_date, 'YYYY-MM-DD'),
		       appointment_hour, status, price, COALESCE(reason_for_visit, ''),
		       COALESCE(doctor_notes, ''), slot_released, created_at, updated_at
		FROM appointments
		WHERE 1=1`

	args := []interface{}{}
	argIndex := 1

	if filters.PatientID != "" {
		query += fmt.Sprintf(" AND patient_id = $%d", argIndex)
		args = append(args, filters.PatientID)
		argIndex++
	}

	if filters.DoctorID != "" {
		query += fmt.Sprintf(" AND doctor_id = $%d", argIndex)
		args = append(args, filters.DoctorID)
		argIndex++
	}

	if len(filters.Statuses) > 0 {
		statuses := make([]string, 0, len(filters.Statuses))
		for _, st := range filters.Statuses {
			statuses = append(statuses, string(st))
		}
		query += fmt.Sprintf(" AND status = ANY($%d)", argIndex)
		args = append(args, pq.Array(statuses))
		argIndex++
	}

	if filters.FromDate != "" {
		query += fmt.Sprintf(" AND appointment_date >= $%d", argIndex)
		args = append(args, filters.FromDate)
		argIndex++
	}

	if filters.ToDate != "" {
		query += fmt.Sprintf(" AND appointment_date <= $%d", argIndex)
		args = append(args, filters.ToDate)
		argIndex++
	}

	query += " ORDER BY appointment_date ASC, appointment_hour ASC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filters.Limit)
		argIndex++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.WithError(err).Error("Failed to get appointments")
		return nil, fmt.Errorf("failed to get appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*types.Appointment
	for rows.Next() {
		apt := &types.Appointment{}
		err := rows.Scan(
			&apt.ID, &apt.PatientID, &apt.DoctorID, &apt.Date, &apt.Hour,
			&apt.Status, &apt.Price, &apt.ReasonForVisit, &apt.DoctorNotes,
			&apt.SlotReleased, &apt.CreatedAt, &apt.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		apt.Hour = strings.TrimSpace(apt.Hour)
		appointments = append(appointments, apt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointments: %w", err)
	}

	return appointments, nil
}
