package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/route-roster/backend/internal/domain"
)

// Engine applies assignment intents for one owning user against a Store.
// It is built per request around that request's Directory snapshot.
type Engine struct {
	store  Store
	dir    *Directory
	locker Locker
	logger *slog.Logger
}

func NewEngine(store Store, dir *Directory, locker Locker, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:  store,
		dir:    dir,
		locker: locker,
		logger: logger,
	}
}

type AssignRouteInput struct {
	Date       domain.Date
	RouteID    int64
	EmployeeID int64
	EntryID    *int64 // converts this entry instead of looking the cell up by route
}

type AssignRouteResult struct {
	Entry       *domain.ScheduleEntry `json:"entry"`
	PairedEntry *domain.ScheduleEntry `json:"pairedEntry"`
	// PairSkipped is set when the paired route is already held by another employee.
	PairSkipped bool  `json:"pairSkipped"`
	PairError   error `json:"-"`
}

type AssignLabelInput struct {
	Date       domain.Date
	EmployeeID int64
	LabelCode  string
	EntryID    *int64
}

// AssignRoute assigns employee to route on date and propagates the assignment to the paired
// route unless that route is already held by someone else. The pair step never undoes the
// primary assignment; its failure is reported in PairError.
func (e *Engine) AssignRoute(ctx context.Context, in AssignRouteInput) (*AssignRouteResult, error) {
	if in.Date.IsZero() || in.RouteID <= 0 || in.EmployeeID <= 0 {
		return nil, fmt.Errorf("%w: date, route and employee are required", domain.ErrValidation)
	}
	if _, ok := e.dir.Route(in.RouteID); !ok {
		return nil, fmt.Errorf("route %d: %w", in.RouteID, domain.ErrNotFound)
	}
	if !e.dir.Schedulable(in.RouteID) {
		return nil, fmt.Errorf("%w: route %d has no working hours", domain.ErrValidation, in.RouteID)
	}
	if _, ok := e.dir.Employee(in.EmployeeID); !ok {
		return nil, fmt.Errorf("employee %d: %w", in.EmployeeID, domain.ErrNotFound)
	}

	unlock, err := e.locker.Lock(ctx, cellKey(e.dir.UserID, in.Date, in.RouteID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	// converting a route entry frees its current cell, which is locked as well
	if in.EntryID != nil {
		current, err := e.store.GetEntry(ctx, e.dir.UserID, *in.EntryID)
		if err != nil {
			return nil, err
		}
		if current.RouteID != nil && *current.RouteID != in.RouteID {
			unlockCurrent, err := e.locker.Lock(ctx, cellKey(e.dir.UserID, in.Date, *current.RouteID))
			if err != nil {
				return nil, err
			}
			defer unlockCurrent()
		}
	}

	pair, hasPair := e.dir.PairOf(in.RouteID)
	if hasPair && !e.dir.Schedulable(pair.ID) {
		hasPair = false
	}

	// pair cell is locked outside the transaction so a busy pair only costs the pair
	var unlockPair func()
	var pairLockErr error
	if hasPair {
		unlockPair, pairLockErr = e.locker.Lock(ctx, cellKey(e.dir.UserID, in.Date, pair.ID))
		if pairLockErr == nil {
			defer unlockPair()
		}
	}

	result := &AssignRouteResult{}
	err = e.store.InTx(ctx, func(tx Store) error {
		primary, err := e.upsertPrimary(ctx, tx, in)
		if err != nil {
			return err
		}
		result.Entry = primary

		if !hasPair {
			return nil
		}
		if pairLockErr != nil {
			result.PairError = fmt.Errorf("paired route %d: %w", pair.ID, pairLockErr)
			return nil
		}

		perr := tx.InTx(ctx, func(sp Store) error {
			paired, skipped, err := e.propagatePair(ctx, sp, in.Date, pair.ID, in.EmployeeID)
			if err != nil {
				return err
			}
			result.PairedEntry = paired
			result.PairSkipped = skipped
			return nil
		})
		if perr != nil {
			result.PairError = fmt.Errorf("paired route %d: %w", pair.ID, perr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.PairError != nil {
		e.logger.Warn("paired route was not assigned",
			"date", in.Date, "routeID", in.RouteID, "pairRouteID", pair.ID, "error", result.PairError)
	}

	return result, nil
}

func (e *Engine) upsertPrimary(ctx context.Context, tx Store, in AssignRouteInput) (*domain.ScheduleEntry, error) {
	existing, err := tx.FindByRouteDate(ctx, e.dir.UserID, in.Date, in.RouteID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if existing != nil && existing.EmployeeID != in.EmployeeID {
		return nil, fmt.Errorf("%w: route %d is already assigned to another employee on %s", domain.ErrConflict, in.RouteID, in.Date)
	}

	entry := routeEntry(e.dir.UserID, in.Date, in.RouteID, in.EmployeeID)
	if in.EntryID != nil {
		target, err := tx.GetEntry(ctx, e.dir.UserID, *in.EntryID)
		if err != nil {
			return nil, err
		}
		if target.EmployeeID != in.EmployeeID {
			if target.AssignmentType == domain.AssignmentRoute {
				return nil, fmt.Errorf("%w: entry %d holds a route of another employee", domain.ErrConflict, target.ID)
			}
			return nil, fmt.Errorf("%w: entry %d belongs to another employee", domain.ErrValidation, target.ID)
		}
		if target.Date != in.Date {
			return nil, fmt.Errorf("%w: entry %d is not on %s", domain.ErrValidation, target.ID, in.Date)
		}
		if existing != nil && existing.ID != target.ID {
			return nil, fmt.Errorf("%w: route %d is already in entry %d for this employee", domain.ErrValidation, in.RouteID, existing.ID)
		}
		entry.ID = target.ID
	} else if existing != nil {
		entry.ID = existing.ID
	}

	if err := tx.Upsert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// propagatePair assigns the pair to the employee when it is free or already theirs.
func (e *Engine) propagatePair(ctx context.Context, tx Store, date domain.Date, pairID int64, employeeID int64) (*domain.ScheduleEntry, bool, error) {
	existing, err := tx.FindByRouteDate(ctx, e.dir.UserID, date, pairID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	if existing != nil && existing.EmployeeID != employeeID {
		return nil, true, nil
	}

	entry := routeEntry(e.dir.UserID, date, pairID, employeeID)
	if existing != nil {
		entry.ID = existing.ID
	}
	if err := tx.Upsert(ctx, entry); err != nil {
		return nil, false, err
	}
	return entry, false, nil
}

// AssignLabel puts a label on one of the employee's entries for date. Without EntryID the
// first non-route entry of the cell is reused, or a new entry is created.
func (e *Engine) AssignLabel(ctx context.Context, in AssignLabelInput) (*domain.ScheduleEntry, error) {
	if in.Date.IsZero() || in.EmployeeID <= 0 || in.LabelCode == "" {
		return nil, fmt.Errorf("%w: date, employee and label are required", domain.ErrValidation)
	}
	if _, ok := e.dir.Employee(in.EmployeeID); !ok {
		return nil, fmt.Errorf("employee %d: %w", in.EmployeeID, domain.ErrNotFound)
	}
	if _, ok := e.dir.Label(in.LabelCode); !ok {
		return nil, fmt.Errorf("label %q: %w", in.LabelCode, domain.ErrNotFound)
	}

	code := in.LabelCode
	entry := &domain.ScheduleEntry{
		UserID:         e.dir.UserID,
		EmployeeID:     in.EmployeeID,
		Date:           in.Date,
		AssignmentType: domain.AssignmentLabel,
		Label:          &code,
	}
	if in.EntryID != nil {
		entry.ID = *in.EntryID
	}

	err := e.store.InTx(ctx, func(tx Store) error {
		return tx.Upsert(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ClearEntry deletes exactly one entry and returns it. A paired route's entry is left alone.
func (e *Engine) ClearEntry(ctx context.Context, entryID int64) (*domain.ScheduleEntry, error) {
	if entryID <= 0 {
		return nil, fmt.Errorf("%w: entry id is required", domain.ErrValidation)
	}

	var deleted *domain.ScheduleEntry
	err := e.store.InTx(ctx, func(tx Store) error {
		entry, err := tx.GetEntry(ctx, e.dir.UserID, entryID)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, e.dir.UserID, entryID); err != nil {
			return err
		}
		deleted = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// Schedule returns the city's entries for month in insertion order.
func (e *Engine) Schedule(ctx context.Context, month time.Month, year int) ([]*domain.ScheduleEntry, error) {
	from, to := domain.MonthRange(month, year)
	entries, err := e.store.ListRange(ctx, e.dir.UserID, from, to)
	if err != nil {
		return nil, err
	}

	res := make([]*domain.ScheduleEntry, 0, len(entries))
	for _, entry := range entries {
		if e.dir.CityEntry(entry) {
			res = append(res, entry)
		}
	}
	return res, nil
}

// Aggregator loads the whole quarter containing month and returns an hours aggregator over it.
func (e *Engine) Aggregator(ctx context.Context, month time.Month, year int) (*Aggregator, error) {
	from, to := domain.QuarterRange(month, year)
	entries, err := e.store.ListRange(ctx, e.dir.UserID, from, to)
	if err != nil {
		return nil, err
	}
	return NewAggregator(e.dir, entries, e.logger), nil
}

// DayEntries returns every entry of the owning user on date.
func (e *Engine) DayEntries(ctx context.Context, date domain.Date) ([]*domain.ScheduleEntry, error) {
	return e.store.ListRange(ctx, e.dir.UserID, date, date)
}

func routeEntry(userID int64, date domain.Date, routeID int64, employeeID int64) *domain.ScheduleEntry {
	id := routeID
	return &domain.ScheduleEntry{
		UserID:         userID,
		EmployeeID:     employeeID,
		Date:           date,
		AssignmentType: domain.AssignmentRoute,
		RouteID:        &id,
	}
}
