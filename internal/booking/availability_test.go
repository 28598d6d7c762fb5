package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinibook/clinic-booking/pkg/logger"
	"github.com/clinibook/clinic-booking/pkg/types"
)

// fixedClock pins Now for deterministic availability annotation.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func setupAvailabilityManager(t *testing.T) (*AvailabilityManager, *MemoryRepository) {
	t.Helper()
	repo := NewMemoryRepository()
	require.NoError(t, repo.CreateDoctor(&types.Doctor{
		ID:         "doc-1",
		Name:       "Dr. Reyes",
		Specialty:  "dermatology",
		Price:      120,
		IsApproved: true,
		IsVerified: true,
	}))

	clock := fixedClock{now: time.Date(2030, 6, 1, 8, 0, 0, 0, time.Local)}
	return NewAvailabilityManager(repo, clock, logger.New("error")), repo
}

func TestAddAvailability_Success(t *testing.T) {
	manager, _ := setupAvailabilityManager(t)

	av, err := manager.AddAvailability("doc-1", "2030-06-15", []types.HourRange{
		{Start: "09:00", End: "10:00"},
		{Start: "10:00", End: "11:00"},
	}, 3)
	require.NoError(t, err)

	assert.NotEmpty(t, av.ID)
	require.Len(t, av.Hours, 2)
	for _, slot := range av.Hours {
		assert.Equal(t, 3, slot.Capacity)
		assert.Equal(t, 0, slot.ReservedCount)
		assert.True(t, slot.Available)
	}
}

func TestAddAvailability_Validation(t *testing.T) {
	manager, _ := setupAvailabilityManager(t)

	_, err := manager.AddAvailability("doc-1", "June 15th", []types.HourRange{{Start: "09:00", End: "10:00"}}, 3)
	assert.True(t, types.IsKind(err, types.ErrorKindValidation))

	_, err = manager.AddAvailability("doc-1", "2030-06-15", nil, 3)
	assert.True(t, types.IsKind(err, types.ErrorKindValidation))

	_, err = manager.AddAvailability("doc-1", "2030-06-15", []types.HourRange{{Start: "09:00", End: "10:00"}}, 0)
	assert.True(t, types.IsKind(err, types.ErrorKindValidation))
}

func TestAddAvailability_UnknownDoctor(t *testing.T) {
	manager, _ := setupAvailabilityManager(t)

	_, err := manager.AddAvailability("doc-ghost", "2030-06-15", []types.HourRange{{Start: "09:00", End: "10:00"}}, 3)
	assert.True(t, types.IsKind(err, types.ErrorKindNotFound))
}

func TestAddAvailability_RejectsOverlapWithExisting(t *testing.T) {
	manager, _ := setupAvailabilityManager(t)

	_, err := manager.AddAvailability("doc-1", "2030-06-15", []types.HourRange{{Start: "09:00", End: "11:00"}}, 3)
	require.NoError(t, err)

	_, err = manager.AddAvailability("doc-1", "2030-06-15", []types.HourRange{{Start: "10:00", End: "12:00"}}, 3)
	assert.True(t, types.IsKind(err, types.ErrorKindValidation))

	// a different date is unaffected
	_, err = manager.AddAvailability("doc-1", "2030-06-16", []types.HourRange{{Start: "10:00", End: "12:00"}}, 3)
	assert.NoError(t, err)
}

func TestUpdateAvailability_PreservesReservations(t *testing.T) {
	manager, repo := setupAvailabilityManager(t)

	av, err := manager.AddAvailability("doc-1", "2030-06-15", []types.HourRange{
		{Start: "09:00", End: "10:00"},
		{Start: "10:00", End: "11:00"},
	}, 2)
	require.NoError(t, err)

	newTestAppointment(repo, t, "09:00")

	updated, err := manager.UpdateAvailability("doc-1", av.ID, "2030-06-15", []types.HourRange{
		{Start: "09:00", End: "10:00"},
		{Start: "11:00", End: "12:00"},
	}, 4)
	require.NoError(t, err)

	require.Len(t, updated.Hours, 2)
	assert.Equal(t, 1, updated.Hours[0].ReservedCount)
	assert.Equal(t, 4, updated.Hours[0].Capacity)
	assert.Equal(t, 0, updated.Hours[1].ReservedCount)
}

func TestUpdateAvailability_RejectsShrinkBelowReservations(t *testing.T) {
	manager, repo := setupAvailabilityManager(t)

	av, err := manager.AddAvailability("doc-1", "2030-06-15", []types.HourRange{
		{Start: "09:00", End: "10:00"},
	}, 3)
	require.NoError(t, err)

	newTestAppointment(repo, t, "09:00")
	newTestAppointment(repo, t, "09:00")

	_, err = manager.UpdateAvailability("doc-1", av.ID, "2030-06-15", []types.HourRange{
		{Start: "09:00", End: "10:00"},
	}, 1)
	assert.True(t, types.IsKind(err, types.ErrorKindCapacityConflict))
}

func TestUpdateAvailability_RejectsDroppingReservedHour(t *testing.T) {
	manager, repo := setupAvailabilityManager(t)

	av, err := manager.AddAvailability("doc-1", "2030-06-15", []types.HourRange{
		{Start: "09:00", End: "10:00"},
		{Start: "10:00", End: "11:00"},
	}, 2)
	require.NoError(t, err)

	newTestAppointment(repo, t, "09:00")

	_, err = manager.UpdateAvailability("doc-1", av.ID, "2030-06-15", []types.HourRange{
		{Start: "10:00", End: "11:00"},
	}, 2)
	assert.True(t, types.IsKind(err, types.ErrorKindCapacityConflict))
}

func TestUpdateAvailability_NotFound(t *testing.T) {
	manager, _ := setupAvailabilityManager(t)

	_, err := manager.UpdateAvailability("doc-1", "missing", "2030-06-15", []types.HourRange{
		{Start: "09:00", End: "10:00"},
	}, 2)
	assert.True(t, types.IsKind(err, types.ErrorKindNotFound))
}

func TestDeleteAvailability(t *testing.T) {
	manager, repo := setupAvailabilityManager(t)

	av, err := manager.AddAvailability("doc-1", "2030-06-15", []types.HourRange{
		{Start: "09:00", End: "10:00"},
	}, 2)
	require.NoError(t, err)

	// reserved entries cannot be removed
	apt := newTestAppointment(repo, t, "09:00")
	err = manager.DeleteAvailability("doc-1", av.ID)
	assert.True(t, types.IsKind(err, types.ErrorKindCapacityConflict))

	// releasing the reservation unblocks the delete
	require.NoError(t, repo.TransitionStatus(apt.ID, types.StatusPending, types.StatusCanceled, true, ""))
	require.NoError(t, manager.DeleteAvailability("doc-1", av.ID))

	err = manager.DeleteAvailability("doc-1", av.ID)
	assert.True(t, types.IsKind(err, types.ErrorKindNotFound))
}

func TestGetAvailability_DerivedFlags(t *testing.T) {
	manager, repo := setupAvailabilityManager(t)

	_, err := manager.AddAvailability("doc-1", "2030-06-15", []types.HourRange{
		{Start: "09:00", End: "10:00"},
	}, 1)
	require.NoError(t, err)

	entries, err := manager.GetAvailability("doc-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Hours[0].Available)

	// fill the slot and read again; the flag is recomputed, not cached
	newTestAppointment(repo, t, "09:00")
	entries, err = manager.GetAvailability("doc-1")
	require.NoError(t, err)
	assert.False(t, entries[0].Hours[0].Available)
}
