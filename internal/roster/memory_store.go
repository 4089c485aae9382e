package roster

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/route-roster/backend/internal/domain"
)

// MemoryStore keeps entries in process memory. Writes inside InTx hold the write lock for the
// whole unit, so readers never see half of a unit.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[int64]*domain.ScheduleEntry
	nextID  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[int64]*domain.ScheduleEntry),
		nextID:  1,
	}
}

func (s *MemoryStore) FindByRouteDate(ctx context.Context, userID int64, date domain.Date, routeID int64) (*domain.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findByRouteDate(userID, date, routeID)
}

func (s *MemoryStore) FindAllByEmployeeDate(ctx context.Context, userID int64, date domain.Date, employeeID int64) ([]*domain.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findAllByEmployeeDate(userID, date, employeeID), nil
}

func (s *MemoryStore) GetEntry(ctx context.Context, userID int64, id int64) (*domain.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getEntry(userID, id)
}

func (s *MemoryStore) Upsert(ctx context.Context, entry *domain.ScheduleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsert(entry)
}

func (s *MemoryStore) Delete(ctx context.Context, userID int64, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delete(userID, id)
}

func (s *MemoryStore) ListRange(ctx context.Context, userID int64, from, to domain.Date) ([]*domain.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]*domain.ScheduleEntry, 0)
	for _, e := range s.sorted() {
		if e.UserID != userID || e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		res = append(res, e.Clone())
	}
	return res, nil
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memoryTx{s: s}).InTx(ctx, fn)
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// The methods below expect the caller to hold s.mu.

func (s *MemoryStore) sorted() []*domain.ScheduleEntry {
	res := make([]*domain.ScheduleEntry, 0, len(s.entries))
	for _, e := range s.entries {
		res = append(res, e)
	}
	// ids grow monotonically so id order is insertion order
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (s *MemoryStore) findByRouteDate(userID int64, date domain.Date, routeID int64) (*domain.ScheduleEntry, error) {
	for _, e := range s.sorted() {
		if e.UserID == userID && e.Date == date && e.HoldsRoute(routeID) {
			return e.Clone(), nil
		}
	}
	return nil, fmt.Errorf("entry for route %d on %s: %w", routeID, date, domain.ErrNotFound)
}

func (s *MemoryStore) findAllByEmployeeDate(userID int64, date domain.Date, employeeID int64) []*domain.ScheduleEntry {
	res := make([]*domain.ScheduleEntry, 0)
	for _, e := range s.sorted() {
		if e.UserID == userID && e.Date == date && e.EmployeeID == employeeID {
			res = append(res, e.Clone())
		}
	}
	return res
}

func (s *MemoryStore) getEntry(userID int64, id int64) (*domain.ScheduleEntry, error) {
	e, ok := s.entries[id]
	if !ok || e.UserID != userID {
		return nil, fmt.Errorf("entry %d: %w", id, domain.ErrNotFound)
	}
	return e.Clone(), nil
}

func (s *MemoryStore) upsert(entry *domain.ScheduleEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	target, err := s.resolveTarget(entry)
	if err != nil {
		return err
	}

	if target == 0 {
		entry.ID = s.nextID
		s.nextID++
	} else {
		entry.ID = target
	}
	s.entries[entry.ID] = entry.Clone()
	return nil
}

// resolveTarget returns the id of the row the entry should overwrite, 0 for a new row.
func (s *MemoryStore) resolveTarget(entry *domain.ScheduleEntry) (int64, error) {
	var holder *domain.ScheduleEntry
	if entry.AssignmentType == domain.AssignmentRoute {
		holder, _ = s.findByRouteDate(entry.UserID, entry.Date, *entry.RouteID)
	}

	if entry.ID != 0 {
		existing, err := s.getEntry(entry.UserID, entry.ID)
		if err != nil {
			return 0, err
		}
		if existing.Date != entry.Date {
			return 0, fmt.Errorf("%w: entry %d belongs to %s, not %s", domain.ErrValidation, entry.ID, existing.Date, entry.Date)
		}
		if holder != nil && holder.ID != entry.ID {
			return 0, fmt.Errorf("%w: route %d is already held by entry %d on %s", domain.ErrConflict, *entry.RouteID, holder.ID, entry.Date)
		}
		return entry.ID, nil
	}

	if entry.AssignmentType == domain.AssignmentRoute {
		if holder == nil {
			return 0, nil
		}
		if holder.EmployeeID != entry.EmployeeID {
			return 0, fmt.Errorf("%w: route %d is already assigned to employee %d on %s", domain.ErrConflict, *entry.RouteID, holder.EmployeeID, entry.Date)
		}
		return holder.ID, nil
	}

	for _, e := range s.findAllByEmployeeDate(entry.UserID, entry.Date, entry.EmployeeID) {
		if e.AssignmentType != domain.AssignmentRoute {
			return e.ID, nil
		}
	}
	return 0, nil
}

func (s *MemoryStore) delete(userID int64, id int64) error {
	if _, err := s.getEntry(userID, id); err != nil {
		return err
	}
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) snapshot() (map[int64]*domain.ScheduleEntry, int64) {
	cp := make(map[int64]*domain.ScheduleEntry, len(s.entries))
	for id, e := range s.entries {
		cp[id] = e.Clone()
	}
	return cp, s.nextID
}

// memoryTx is the Store view handed to InTx callbacks; the parent lock is already held.
type memoryTx struct {
	s *MemoryStore
}

func (t *memoryTx) FindByRouteDate(ctx context.Context, userID int64, date domain.Date, routeID int64) (*domain.ScheduleEntry, error) {
	return t.s.findByRouteDate(userID, date, routeID)
}

func (t *memoryTx) FindAllByEmployeeDate(ctx context.Context, userID int64, date domain.Date, employeeID int64) ([]*domain.ScheduleEntry, error) {
	return t.s.findAllByEmployeeDate(userID, date, employeeID), nil
}

func (t *memoryTx) GetEntry(ctx context.Context, userID int64, id int64) (*domain.ScheduleEntry, error) {
	return t.s.getEntry(userID, id)
}

func (t *memoryTx) Upsert(ctx context.Context, entry *domain.ScheduleEntry) error {
	return t.s.upsert(entry)
}

func (t *memoryTx) Delete(ctx context.Context, userID int64, id int64) error {
	return t.s.delete(userID, id)
}

func (t *memoryTx) ListRange(ctx context.Context, userID int64, from, to domain.Date) ([]*domain.ScheduleEntry, error) {
	res := make([]*domain.ScheduleEntry, 0)
	for _, e := range t.s.sorted() {
		if e.UserID == userID && !e.Date.Before(from) && !e.Date.After(to) {
			res = append(res, e.Clone())
		}
	}
	return res, nil
}

func (t *memoryTx) InTx(ctx context.Context, fn func(tx Store) error) error {
	entries, nextID := t.s.snapshot()
	if err := fn(t); err != nil {
		t.s.entries, t.s.nextID = entries, nextID
		return err
	}
	return nil
}
