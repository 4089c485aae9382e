package repository

import (
	"context"
	"fmt"
	"time"
)

// InitSchema creates the roster tables when they do not exist. Cities, employees, routes and
// labels are owned by the CRUD side; they are created here so a fresh database can be seeded.
func (r *Repository) InitSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS cities (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS employees (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			part_time DOUBLE PRECISION NOT NULL DEFAULT 1.0,
			city_id BIGINT NOT NULL REFERENCES cities (id)
		)`,
		`CREATE TABLE IF NOT EXISTS routes (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			main_city_id BIGINT NOT NULL REFERENCES cities (id),
			additional_city_id BIGINT REFERENCES cities (id),
			working_hours JSONB NOT NULL DEFAULT '{"segments":[]}',
			linked_route_id BIGINT REFERENCES routes (id) ON DELETE SET NULL
		)`,
		`CREATE TABLE IF NOT EXISTS labels (
			code TEXT PRIMARY KEY,
			default_hours DOUBLE PRECISION NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS schedule (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			employee_id BIGINT NOT NULL,
			date DATE NOT NULL,
			assignment_type TEXT NOT NULL,
			route_id BIGINT,
			label TEXT,
			CONSTRAINT schedule_employee_id_fkey FOREIGN KEY (employee_id) REFERENCES employees (id) ON DELETE CASCADE,
			CONSTRAINT schedule_route_id_fkey FOREIGN KEY (route_id) REFERENCES routes (id) ON DELETE CASCADE,
			CONSTRAINT schedule_label_fkey FOREIGN KEY (label) REFERENCES labels (code),
			CONSTRAINT schedule_assignment_check CHECK (
				(assignment_type = 'route' AND route_id IS NOT NULL AND label IS NULL) OR
				(assignment_type = 'label' AND label IS NOT NULL AND route_id IS NULL) OR
				(assignment_type = 'none' AND route_id IS NULL AND label IS NULL)
			)
		)`,
		// one holder per (date, route); label rows have a NULL route and are not constrained
		`CREATE UNIQUE INDEX IF NOT EXISTS schedule_user_date_route_key ON schedule (user_id, date, route_id)`,
		`CREATE INDEX IF NOT EXISTS schedule_user_date_employee_idx ON schedule (user_id, date, employee_id)`,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}
	return nil
}
