package database

import (
	"context"
	"fmt"
)

// CreateSchema creates the database schema for the booking service.
func (db *DB) CreateSchema(ctx context.Context) error {
	db.logger.Info("Creating database schema...")

	if err := db.createExtensions(ctx); err != nil {
		return fmt.Errorf("failed to create extensions: %w", err)
	}

	tables := []string{
		createDoctorsTable,
		createAvailabilityTable,
		createHourSlotsTable,
		createAppointmentsTable,
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		createAvailabilityIndexes,
		createHourSlotsIndexes,
		createAppointmentsIndexes,
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	db.logger.Info("Database schema created successfully")
	return nil
}

// createExtensions creates required PostgreSQL extensions.
func (db *DB) createExtensions(ctx context.Context) error {
	extensions := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}

	for _, ext := range extensions {
		if _, err := db.ExecContext(ctx, ext); err != nil {
			return fmt.Errorf("failed to create extension: %w", err)
		}
	}

	return nil
}

// SQL DDL statements for table creation. The hour_slots CHECK constraint is
// the storage-level backstop for the reservation invariant; the conditional
// UPDATE in the repository is what enforces it without races.
const (
	createDoctorsTable = `
		CREATE TABLE IF NOT EXISTS doctors (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name VARCHAR(255) NOT NULL,
			specialty VARCHAR(255) NOT NULL,
			price NUMERIC(10,2) NOT NULL,
			discount NUMERIC(10,2) NOT NULL DEFAULT 0,
			is_approved BOOLEAN NOT NULL DEFAULT FALSE,
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`

	createAvailabilityTable = `
		CREATE TABLE IF NOT EXISTS availability (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			doctor_id UUID NOT NULL REFERENCES doctors(id),
			date DATE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`

	createHourSlotsTable = `
		CREATE TABLE IF NOT EXISTS hour_slots (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			availability_id UUID NOT NULL REFERENCES availability(id) ON DELETE CASCADE,
			doctor_id UUID NOT NULL REFERENCES doctors(id),
			date DATE NOT NULL,
			start_time CHAR(5) NOT NULL,
			end_time CHAR(5) NOT NULL,
			capacity INTEGER NOT NULL,
			reserved_count INTEGER NOT NULL DEFAULT 0,
			CONSTRAINT hour_slots_capacity_check
				CHECK (reserved_count >= 0 AND reserved_count <= capacity),
			CONSTRAINT hour_slots_unique_start
				UNIQUE (doctor_id, date, start_time)
		);`

	createAppointmentsTable = `
		CREATE TABLE IF NOT EXISTS appointments (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			patient_id UUID NOT NULL,
			doctor_id UUID NOT NULL REFERENCES doctors(id),
			appointment_date DATE NOT NULL,
			appointment_hour CHAR(5) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending', 'confirmed', 'declined', 'canceled')),
			price NUMERIC(10,2) NOT NULL,
			reason_for_visit TEXT,
			doctor_notes TEXT,
			slot_released BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`

	createAvailabilityIndexes = `
		CREATE INDEX IF NOT EXISTS idx_availability_doctor_date
			ON availability(doctor_id, date);`

	createHourSlotsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_hour_slots_doctor_date
			ON hour_slots(doctor_id, date);`

	createAppointmentsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_appointments_patient_date
			ON appointments(patient_id, appointment_date);
		CREATE INDEX IF NOT EXISTS idx_appointments_doctor_date
			ON appointments(doctor_id, appointment_date);
		CREATE INDEX IF NOT EXISTS idx_appointments_status
			ON appointments(status);`
)
