package repository

import (
	"context"

	"github.com/route-roster/backend/internal/domain"
)

// The insert methods below are only used by cmd/seed; record CRUD belongs to another service.

func (r *Repository) CreateCity(ctx context.Context, userID int64, name string) (int64, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	var id int64
	err := r.dbpool.QueryRowContext(ctx, `INSERT INTO cities (user_id, name) VALUES ($1, $2) RETURNING id`, userID, name).Scan(&id)
	return id, err
}

func (r *Repository) CreateEmployee(ctx context.Context, userID int64, e *domain.Employee) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO employees (user_id, first_name, last_name, part_time, city_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.dbpool.QueryRowContext(ctx, query, userID, e.FirstName, e.LastName, e.PartTime, e.CityID).Scan(&e.ID)
}

func (r *Repository) CreateRoute(ctx context.Context, userID int64, route *domain.Route) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO routes (user_id, name, main_city_id, additional_city_id, working_hours, linked_route_id)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)
		RETURNING id
	`
	args := []any{
		userID,
		route.Name,
		route.MainCityID,
		route.AdditionalCityID,
		string(route.WorkingHours),
		route.LinkedRouteID,
	}
	return mapError(r.dbpool.QueryRowContext(ctx, query, args...).Scan(&route.ID))
}

func (r *Repository) UpsertLabel(ctx context.Context, l *domain.Label) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO labels (code, default_hours, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET default_hours = EXCLUDED.default_hours, description = EXCLUDED.description
	`
	_, err := r.dbpool.ExecContext(ctx, query, l.Code, l.DefaultHours, l.Description)
	return err
}
