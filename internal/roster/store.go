package roster

import (
	"context"

	"github.com/route-roster/backend/internal/domain"
)

// Store is the authoritative collection of schedule entries of one owning user.
//
// Upsert resolves the row to write as follows:
//   - entry.ID set: that row is updated, ErrNotFound when it does not exist
//   - route entry: natural key (date, route_id)
//   - label/none entry: the first non-route entry of (date, employee_id)
//
// A route entry held by a different employee is never overwritten; Upsert returns ErrConflict.
type Store interface {
	FindByRouteDate(ctx context.Context, userID int64, date domain.Date, routeID int64) (*domain.ScheduleEntry, error)
	FindAllByEmployeeDate(ctx context.Context, userID int64, date domain.Date, employeeID int64) ([]*domain.ScheduleEntry, error)
	GetEntry(ctx context.Context, userID int64, id int64) (*domain.ScheduleEntry, error)
	Upsert(ctx context.Context, entry *domain.ScheduleEntry) error
	Delete(ctx context.Context, userID int64, id int64) error
	ListRange(ctx context.Context, userID int64, from, to domain.Date) ([]*domain.ScheduleEntry, error)

	// InTx runs fn as one unit of work. Calling InTx on the Store handed to fn nests the work
	// so that its failure is rolled back without discarding the outer unit.
	InTx(ctx context.Context, fn func(tx Store) error) error
}
