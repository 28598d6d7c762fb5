package booking

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinibook/clinic-booking/pkg/database"
	"github.com/clinibook/clinic-booking/pkg/logger"
	"github.com/clinibook/clinic-booking/pkg/types"
)

func setupMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db := &database.DB{DB: sqlDB}
	repo := NewRepository(db, logger.New("error")).(*Repository)
	return repo, mock
}

func TestRepositoryGetDoctorByID(t *testing.T) {
	repo, mock := setupMockRepo(t)

	rows := sqlmock.NewRows([]string{
		"id", "name", "specialty", "price", "discount", "is_approved", "is_verified",
		"created_at", "updated_at",
	}).AddRow("doc-1", "Dr. Reyes", "dermatology", 120.0, 20.0, true, true, time.Now(), time.Now())

	mock.ExpectQuery(`SELECT id, name, specialty`).
		WithArgs("doc-1").
		WillReturnRows(rows)

	doctor, err := repo.GetDoctorByID("doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Reyes", doctor.Name)
	assert.True(t, doctor.Bookable())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetDoctorByID_NotFound(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectQuery(`SELECT id, name, specialty`).
		WithArgs("doc-ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetDoctorByID("doc-ghost")
	assert.True(t, types.IsKind(err, types.ErrorKindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryReserveAndCreateAppointment(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE hour_slots`)).
		WithArgs("doc-1", "2030-06-15", "09:00").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO appointments`)).
		WithArgs("apt-1", "pat-1", "doc-1", "2030-06-15", "09:00", "pending", 100.0, "rash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReserveAndCreateAppointment(&types.Appointment{
		ID:             "apt-1",
		PatientID:      "pat-1",
		DoctorID:       "doc-1",
		Date:           "2030-06-15",
		Hour:           "09:00",
		Status:         types.StatusPending,
		Price:          100.0,
		ReasonForVisit: "rash",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryReserveAndCreateAppointment_FullSlot(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE hour_slots`)).
		WithArgs("doc-1", "2030-06-15", "09:00").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("doc-1", "2030-06-15", "09:00").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.ReserveAndCreateAppointment(&types.Appointment{
		ID: "apt-1", PatientID: "pat-1", DoctorID: "doc-1",
		Date: "2030-06-15", Hour: "09:00", Status: types.StatusPending,
	})
	assert.True(t, types.IsKind(err, types.ErrorKindSlotUnavailable))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryReserveAndCreateAppointment_SlotMissing(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE hour_slots`)).
		WithArgs("doc-1", "2030-06-15", "13:00").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("doc-1", "2030-06-15", "13:00").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err := repo.ReserveAndCreateAppointment(&types.Appointment{
		ID: "apt-1", PatientID: "pat-1", DoctorID: "doc-1",
		Date: "2030-06-15", Hour: "13:00", Status: types.StatusPending,
	})
	assert.True(t, types.IsKind(err, types.ErrorKindSlotNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryTransitionStatus_WithRelease(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT doctor_id,`).
		WithArgs("apt-1", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"doctor_id", "to_char", "appointment_hour", "slot_released"}).
			AddRow("doc-1", "2030-06-15", "09:00", false))
	mock.ExpectExec(`UPDATE appointments`).
		WithArgs("apt-1", "canceled", true, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE hour_slots`)).
		WithArgs("doc-1", "2030-06-15", "09:00").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.TransitionStatus("apt-1", types.StatusPending, types.StatusCanceled, true, "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryTransitionStatus_AlreadyReleased(t *testing.T) {
	repo, mock := setupMockRepo(t)

	// declined -> canceled: release requested but the key blocks a second one
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT doctor_id,`).
		WithArgs("apt-1", "declined").
		WillReturnRows(sqlmock.NewRows([]string{"doctor_id", "to_char", "appointment_hour", "slot_released"}).
			AddRow("doc-1", "2030-06-15", "09:00", true))
	mock.ExpectExec(`UPDATE appointments`).
		WithArgs("apt-1", "canceled", true, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.TransitionStatus("apt-1", types.StatusDeclined, types.StatusCanceled, true, "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryTransitionStatus_CASConflict(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT doctor_id,`).
		WithArgs("apt-1", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"doctor_id", "to_char", "appointment_hour", "slot_released"}))
	mock.ExpectQuery(`SELECT status FROM appointments`).
		WithArgs("apt-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("confirmed"))
	mock.ExpectRollback()

	err := repo.TransitionStatus("apt-1", types.StatusPending, types.StatusDeclined, true, "")
	assert.True(t, types.IsKind(err, types.ErrorKindInvalidTransition))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryRescheduleAppointment(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT doctor_id,`).
		WithArgs("apt-1", "confirmed").
		WillReturnRows(sqlmock.NewRows([]string{"doctor_id", "to_char", "appointment_hour", "slot_released"}).
			AddRow("doc-1", "2030-06-15", "09:00", false))
	// reserve the new slot
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE hour_slots`)).
		WithArgs("doc-1", "2030-06-16", "10:00").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// release the old one
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE hour_slots`)).
		WithArgs("doc-1", "2030-06-15", "09:00").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE appointments`)).
		WithArgs("apt-1", "2030-06-16", "10:00", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.RescheduleAppointment("apt-1", types.StatusConfirmed, "2030-06-16", "10:00")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryRescheduleAppointment_TargetFullRollsBack(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT doctor_id,`).
		WithArgs("apt-1", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"doctor_id", "to_char", "appointment_hour", "slot_released"}).
			AddRow("doc-1", "2030-06-15", "09:00", false))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE hour_slots`)).
		WithArgs("doc-1", "2030-06-16", "10:00").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("doc-1", "2030-06-16", "10:00").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.RescheduleAppointment("apt-1", types.StatusPending, "2030-06-16", "10:00")
	assert.True(t, types.IsKind(err, types.ErrorKindSlotUnavailable))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDeleteAvailability_Conflict(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM availability`)).
		WithArgs("av-1", "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("av-1", "doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.DeleteAvailability("doc-1", "av-1")
	assert.True(t, types.IsKind(err, types.ErrorKindCapacityConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetHourSlot_NotFound(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectQuery(`SELECT start_time, end_time`).
		WithArgs("doc-1", "2030-06-15", "13:00").
		WillReturnRows(sqlmock.NewRows([]string{"start_time"}))

	_, err := repo.GetHourSlot("doc-1", "2030-06-15", "13:00")
	assert.True(t, types.IsKind(err, types.ErrorKindSlotNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
