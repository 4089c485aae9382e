package repository

import (
	"context"
	"database/sql"

	"github.com/route-roster/backend/internal/domain"
	"github.com/route-roster/backend/internal/roster"
)

var _ roster.DirectorySource = (*Repository)(nil)

func (r *Repository) GetEmployeesByCity(ctx context.Context, userID int64, cityID int64) ([]*domain.Employee, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT id, first_name, last_name, part_time, city_id
		FROM employees
		WHERE user_id = $1 AND city_id = $2
		ORDER BY last_name, first_name, id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, userID, cityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]*domain.Employee, 0)
	for rows.Next() {
		var e domain.Employee
		dst := []any{
			&e.ID,
			&e.FirstName,
			&e.LastName,
			&e.PartTime,
			&e.CityID,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		employees = append(employees, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}

const routeColumns = `id, name, main_city_id, additional_city_id, working_hours::text, linked_route_id`

// GetRoutesByCity returns routes whose main or additional city is cityID.
func (r *Repository) GetRoutesByCity(ctx context.Context, userID int64, cityID int64) ([]*domain.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes
		WHERE user_id = $1 AND (main_city_id = $2 OR additional_city_id = $2)
		ORDER BY id`
	return r.queryRoutes(ctx, query, userID, cityID)
}

func (r *Repository) GetPairCandidates(ctx context.Context, userID int64, ids []int64) ([]*domain.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes
		WHERE user_id = $1 AND (id = ANY($2) OR linked_route_id = ANY($2))
		ORDER BY id`
	return r.queryRoutes(ctx, query, userID, ids)
}

func (r *Repository) queryRoutes(ctx context.Context, query string, args ...any) ([]*domain.Route, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routes := make([]*domain.Route, 0)
	for rows.Next() {
		var (
			route      domain.Route
			additional sql.NullInt64
			linked     sql.NullInt64
			hours      sql.NullString
		)
		dst := []any{
			&route.ID,
			&route.Name,
			&route.MainCityID,
			&additional,
			&hours,
			&linked,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if additional.Valid {
			id := additional.Int64
			route.AdditionalCityID = &id
		}
		if linked.Valid {
			id := linked.Int64
			route.LinkedRouteID = &id
		}
		// malformed documents are kept and reported when the directory parses them
		route.WorkingHours = []byte(hours.String)

		routes = append(routes, &route)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return routes, nil
}

func (r *Repository) GetAllLabels(ctx context.Context) ([]*domain.Label, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, `SELECT code, default_hours, description FROM labels ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	labels := make([]*domain.Label, 0)
	for rows.Next() {
		var l domain.Label
		if err := rows.Scan(&l.Code, &l.DefaultHours, &l.Description); err != nil {
			return nil, err
		}
		labels = append(labels, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return labels, nil
}
