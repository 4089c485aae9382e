package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/route-roster/backend/internal/domain"
	"github.com/route-roster/backend/internal/roster"
)

const entryColumns = `id, user_id, employee_id, date, assignment_type, route_id, label`

var (
	_ roster.Store = (*Repository)(nil)
	_ roster.Store = (*scheduleStore)(nil)
)

// scheduleStore runs the roster.Store queries against either the pool or an open transaction.
type scheduleStore struct {
	r     *Repository
	q     querier
	tx    *sql.Tx
	depth int
}

func (r *Repository) pool() *scheduleStore {
	return &scheduleStore{r: r, q: r.dbpool}
}

func (r *Repository) FindByRouteDate(ctx context.Context, userID int64, date domain.Date, routeID int64) (*domain.ScheduleEntry, error) {
	return r.pool().FindByRouteDate(ctx, userID, date, routeID)
}

func (r *Repository) FindAllByEmployeeDate(ctx context.Context, userID int64, date domain.Date, employeeID int64) ([]*domain.ScheduleEntry, error) {
	return r.pool().FindAllByEmployeeDate(ctx, userID, date, employeeID)
}

func (r *Repository) GetEntry(ctx context.Context, userID int64, id int64) (*domain.ScheduleEntry, error) {
	return r.pool().GetEntry(ctx, userID, id)
}

// Upsert outside a transaction still needs the lookup and the write to be atomic.
func (r *Repository) Upsert(ctx context.Context, entry *domain.ScheduleEntry) error {
	return r.InTx(ctx, func(tx roster.Store) error {
		return tx.Upsert(ctx, entry)
	})
}

func (r *Repository) Delete(ctx context.Context, userID int64, id int64) error {
	return r.pool().Delete(ctx, userID, id)
}

func (r *Repository) ListRange(ctx context.Context, userID int64, from, to domain.Date) ([]*domain.ScheduleEntry, error) {
	return r.pool().ListRange(ctx, userID, from, to)
}

func (r *Repository) InTx(ctx context.Context, fn func(tx roster.Store) error) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&scheduleStore{r: r, q: tx, tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// InTx on a transaction store opens a savepoint; the outer transaction survives a failed fn.
func (s *scheduleStore) InTx(ctx context.Context, fn func(tx roster.Store) error) error {
	if s.tx == nil {
		return s.r.InTx(ctx, fn)
	}

	nested := &scheduleStore{r: s.r, q: s.tx, tx: s.tx, depth: s.depth + 1}
	name := fmt.Sprintf("roster_sp_%d", nested.depth)
	if _, err := s.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return err
	}

	if err := fn(nested); err != nil {
		if _, rbErr := s.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}

	_, err := s.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name)
	return err
}

func scanEntry(row interface{ Scan(dest ...any) error }) (*domain.ScheduleEntry, error) {
	var (
		e       domain.ScheduleEntry
		routeID sql.NullInt64
		label   sql.NullString
		typ     string
	)
	dst := []any{
		&e.ID,
		&e.UserID,
		&e.EmployeeID,
		&e.Date,
		&typ,
		&routeID,
		&label,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	e.AssignmentType = domain.AssignmentType(typ)
	if routeID.Valid {
		id := routeID.Int64
		e.RouteID = &id
	}
	if label.Valid {
		l := label.String
		e.Label = &l
	}
	return &e, nil
}

func (s *scheduleStore) queryEntries(ctx context.Context, query string, args ...any) ([]*domain.ScheduleEntry, error) {
	ctx, cancel := s.r.queryContext(ctx)
	defer cancel()

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.ScheduleEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *scheduleStore) FindByRouteDate(ctx context.Context, userID int64, date domain.Date, routeID int64) (*domain.ScheduleEntry, error) {
	ctx, cancel := s.r.queryContext(ctx)
	defer cancel()

	query := `SELECT ` + entryColumns + ` FROM schedule
		WHERE user_id = $1 AND date = $2 AND route_id = $3 AND assignment_type = 'route'
		ORDER BY id LIMIT 1` + s.lockClause()

	e, err := scanEntry(s.q.QueryRowContext(ctx, query, userID, date, routeID))
	if err != nil {
		return nil, fmt.Errorf("entry for route %d on %s: %w", routeID, date, mapError(err))
	}
	return e, nil
}

func (s *scheduleStore) FindAllByEmployeeDate(ctx context.Context, userID int64, date domain.Date, employeeID int64) ([]*domain.ScheduleEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM schedule
		WHERE user_id = $1 AND date = $2 AND employee_id = $3
		ORDER BY id` + s.lockClause()
	return s.queryEntries(ctx, query, userID, date, employeeID)
}

func (s *scheduleStore) GetEntry(ctx context.Context, userID int64, id int64) (*domain.ScheduleEntry, error) {
	ctx, cancel := s.r.queryContext(ctx)
	defer cancel()

	query := `SELECT ` + entryColumns + ` FROM schedule WHERE user_id = $1 AND id = $2` + s.lockClause()

	e, err := scanEntry(s.q.QueryRowContext(ctx, query, userID, id))
	if err != nil {
		return nil, fmt.Errorf("entry %d: %w", id, mapError(err))
	}
	return e, nil
}

func (s *scheduleStore) ListRange(ctx context.Context, userID int64, from, to domain.Date) ([]*domain.ScheduleEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM schedule
		WHERE user_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY id`
	return s.queryEntries(ctx, query, userID, from, to)
}

func (s *scheduleStore) Delete(ctx context.Context, userID int64, id int64) error {
	ctx, cancel := s.r.queryContext(ctx)
	defer cancel()

	res, err := s.q.ExecContext(ctx, `DELETE FROM schedule WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("entry %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *scheduleStore) Upsert(ctx context.Context, entry *domain.ScheduleEntry) error {
	if s.tx == nil {
		return s.r.Upsert(ctx, entry)
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	target, err := s.resolveTarget(ctx, entry)
	if err != nil {
		return err
	}

	ctx, cancel := s.r.queryContext(ctx)
	defer cancel()

	if target == 0 {
		query := `
			INSERT INTO schedule (user_id, employee_id, date, assignment_type, route_id, label)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`
		err := s.q.QueryRowContext(ctx, query, entry.UserID, entry.EmployeeID, entry.Date, string(entry.AssignmentType), entry.RouteID, entry.Label).Scan(&entry.ID)
		return mapError(err)
	}

	query := `
		UPDATE schedule
		SET employee_id = $1, assignment_type = $2, route_id = $3, label = $4
		WHERE user_id = $5 AND id = $6
	`
	if _, err := s.q.ExecContext(ctx, query, entry.EmployeeID, string(entry.AssignmentType), entry.RouteID, entry.Label, entry.UserID, target); err != nil {
		return mapError(err)
	}
	entry.ID = target
	return nil
}

// resolveTarget returns the id of the row the entry overwrites, 0 for a new row.
func (s *scheduleStore) resolveTarget(ctx context.Context, entry *domain.ScheduleEntry) (int64, error) {
	var holder *domain.ScheduleEntry
	if entry.AssignmentType == domain.AssignmentRoute {
		h, err := s.FindByRouteDate(ctx, entry.UserID, entry.Date, *entry.RouteID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return 0, err
		}
		holder = h
	}

	if entry.ID != 0 {
		existing, err := s.GetEntry(ctx, entry.UserID, entry.ID)
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

	entries, err := s.FindAllByEmployeeDate(ctx, entry.UserID, entry.Date, entry.EmployeeID)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if e.AssignmentType != domain.AssignmentRoute {
			return e.ID, nil
		}
	}
	return 0, nil
}

// lockClause locks the rows read inside a transaction until it ends.
func (s *scheduleStore) lockClause() string {
	if s.tx == nil {
		return ""
	}
	return " FOR UPDATE"
}
