package roster

import (
	"context"
	"errors"
	"testing"

	"github.com/route-roster/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRouteKey(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := routeEntry(testUser, day(1), 10, 1)
	require.NoError(t, s.Upsert(ctx, first))
	assert.NotZero(t, first.ID)

	// same natural key and employee updates in place
	again := routeEntry(testUser, day(1), 10, 1)
	require.NoError(t, s.Upsert(ctx, again))
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 1, s.Len())

	// a different employee is never written over the holder
	other := routeEntry(testUser, day(1), 10, 2)
	err := s.Upsert(ctx, other)
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := s.FindByRouteDate(ctx, testUser, day(1), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.EmployeeID)

	_, err = s.FindByRouteDate(ctx, testUser, day(2), 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// owners do not see each other's entries
	_, err = s.FindByRouteDate(ctx, testUser+1, day(1), 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStoreEmployeeCell(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Upsert(ctx, routeEntry(testUser, day(3), 10, 1)))
	require.NoError(t, s.Upsert(ctx, routeEntry(testUser, day(3), 12, 1)))
	label := &domain.ScheduleEntry{UserID: testUser, EmployeeID: 1, Date: day(3), AssignmentType: domain.AssignmentLabel, Label: ptr("URL")}
	require.NoError(t, s.Upsert(ctx, label))

	entries, err := s.FindAllByEmployeeDate(ctx, testUser, day(3), 1)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(10), *entries[0].RouteID)
	assert.Equal(t, int64(12), *entries[1].RouteID)
	assert.Equal(t, "URL", *entries[2].Label)

	// a second label without id lands on the existing non-route entry
	second := &domain.ScheduleEntry{UserID: testUser, EmployeeID: 1, Date: day(3), AssignmentType: domain.AssignmentLabel, Label: ptr("L4")}
	require.NoError(t, s.Upsert(ctx, second))
	assert.Equal(t, label.ID, second.ID)
	assert.Equal(t, 3, s.Len())
}

func TestMemoryStoreUpsertByID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	entry := routeEntry(testUser, day(5), 10, 1)
	require.NoError(t, s.Upsert(ctx, entry))

	// route -> label on the same row
	relabel := &domain.ScheduleEntry{ID: entry.ID, UserID: testUser, EmployeeID: 1, Date: day(5), AssignmentType: domain.AssignmentLabel, Label: ptr("SZK")}
	require.NoError(t, s.Upsert(ctx, relabel))

	got, err := s.GetEntry(ctx, testUser, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentLabel, got.AssignmentType)
	assert.Nil(t, got.RouteID)

	missing := &domain.ScheduleEntry{ID: 999, UserID: testUser, EmployeeID: 1, Date: day(5), AssignmentType: domain.AssignmentNone}
	assert.ErrorIs(t, s.Upsert(ctx, missing), domain.ErrNotFound)

	wrongDay := &domain.ScheduleEntry{ID: entry.ID, UserID: testUser, EmployeeID: 1, Date: day(6), AssignmentType: domain.AssignmentNone}
	assert.ErrorIs(t, s.Upsert(ctx, wrongDay), domain.ErrValidation)
}

func TestMemoryStoreRejectsInvalidEntry(t *testing.T) {
	s := NewMemoryStore()
	bad := &domain.ScheduleEntry{UserID: testUser, EmployeeID: 1, Date: day(1), AssignmentType: domain.AssignmentRoute, RouteID: ptr(int64(10)), Label: ptr("URL")}
	assert.ErrorIs(t, s.Upsert(context.Background(), bad), domain.ErrValidation)
	assert.Zero(t, s.Len())
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	entry := routeEntry(testUser, day(1), 10, 1)
	require.NoError(t, s.Upsert(ctx, entry))

	assert.ErrorIs(t, s.Delete(ctx, testUser+1, entry.ID), domain.ErrNotFound)
	require.NoError(t, s.Delete(ctx, testUser, entry.ID))
	assert.ErrorIs(t, s.Delete(ctx, testUser, entry.ID), domain.ErrNotFound)
}

func TestMemoryStoreListRange(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, d := range []int{1, 15, 31} {
		require.NoError(t, s.Upsert(ctx, routeEntry(testUser, day(d), 10, 1)))
	}
	require.NoError(t, s.Upsert(ctx, routeEntry(testUser, domain.NewDate(2024, 4, 1), 10, 1)))

	from, to := domain.MonthRange(3, 2024)
	entries, err := s.ListRange(ctx, testUser, from, to)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestMemoryStoreNestedRollback(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx Store) error {
		require.NoError(t, tx.Upsert(ctx, routeEntry(testUser, day(1), 10, 1)))

		inner := tx.InTx(ctx, func(sp Store) error {
			require.NoError(t, sp.Upsert(ctx, routeEntry(testUser, day(1), 11, 1)))
			return boom
		})
		assert.ErrorIs(t, inner, boom)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, s.Len())
	_, err = s.FindByRouteDate(ctx, testUser, day(1), 11)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// outer failure discards everything
	err = s.InTx(ctx, func(tx Store) error {
		require.NoError(t, tx.Upsert(ctx, routeEntry(testUser, day(2), 10, 1)))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, s.Len())
}
