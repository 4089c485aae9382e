package roster

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/route-roster/backend/internal/domain"
	"github.com/route-roster/backend/internal/worktime"
)

// DirectorySource provides the employee, route and label records kept by the CRUD side.
type DirectorySource interface {
	GetEmployeesByCity(ctx context.Context, userID int64, cityID int64) ([]*domain.Employee, error)
	GetRoutesByCity(ctx context.Context, userID int64, cityID int64) ([]*domain.Route, error)
	// GetPairCandidates returns routes whose id is in ids or whose linked_route_id is in ids.
	GetPairCandidates(ctx context.Context, userID int64, ids []int64) ([]*domain.Route, error)
	GetAllLabels(ctx context.Context) ([]*domain.Label, error)
}

// Directory is a read-only snapshot of one city's employees, routes and labels,
// built once per request.
type Directory struct {
	UserID int64
	CityID int64

	employees     map[int64]*domain.Employee
	employeeOrder []int64
	routes        map[int64]*domain.Route
	cityRoutes    []int64
	labels        map[string]*domain.Label
	labelOrder    []string

	routeHours  map[int64]float64
	schedulable map[int64]bool
	linkedFrom  map[int64][]int64 // route id -> ids of routes whose linked_route_id points at it
}

// LoadDirectory reads the snapshot for cityID. Routes of other cities that are paired with
// a city route are loaded too so pairing works across city borders.
func LoadDirectory(ctx context.Context, src DirectorySource, userID int64, cityID int64, logger *slog.Logger) (*Directory, error) {
	employees, err := src.GetEmployeesByCity(ctx, userID, cityID)
	if err != nil {
		return nil, fmt.Errorf("load employees of city %d: %w", cityID, err)
	}

	routes, err := src.GetRoutesByCity(ctx, userID, cityID)
	if err != nil {
		return nil, fmt.Errorf("load routes of city %d: %w", cityID, err)
	}

	ids := make([]int64, 0, len(routes)*2)
	for _, r := range routes {
		ids = append(ids, r.ID)
		if r.LinkedRouteID != nil {
			ids = append(ids, *r.LinkedRouteID)
		}
	}
	if len(ids) > 0 {
		candidates, err := src.GetPairCandidates(ctx, userID, ids)
		if err != nil {
			return nil, fmt.Errorf("load linked routes of city %d: %w", cityID, err)
		}
		routes = append(routes, candidates...)
	}

	labels, err := src.GetAllLabels(ctx)
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}

	return NewDirectory(userID, cityID, employees, routes, labels, logger), nil
}

// NewDirectory builds a snapshot from already loaded records. Duplicate routes are ignored.
func NewDirectory(userID int64, cityID int64, employees []*domain.Employee, routes []*domain.Route, labels []*domain.Label, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}

	d := &Directory{
		UserID:      userID,
		CityID:      cityID,
		employees:   make(map[int64]*domain.Employee, len(employees)),
		routes:      make(map[int64]*domain.Route, len(routes)),
		labels:      make(map[string]*domain.Label, len(labels)),
		routeHours:  make(map[int64]float64, len(routes)),
		schedulable: make(map[int64]bool, len(routes)),
		linkedFrom:  make(map[int64][]int64),
	}

	for _, e := range employees {
		if _, ok := d.employees[e.ID]; ok {
			continue
		}
		d.employees[e.ID] = e
		d.employeeOrder = append(d.employeeOrder, e.ID)
	}

	for _, r := range routes {
		if _, ok := d.routes[r.ID]; ok {
			continue
		}
		d.routes[r.ID] = r
		if r.InCity(cityID) {
			d.cityRoutes = append(d.cityRoutes, r.ID)
		}
		if r.LinkedRouteID != nil && *r.LinkedRouteID != r.ID {
			d.linkedFrom[*r.LinkedRouteID] = append(d.linkedFrom[*r.LinkedRouteID], r.ID)
		}

		wh, err := worktime.ParseWorkingHours(r.WorkingHours)
		if err != nil {
			logger.Warn("route working hours cannot be parsed", "routeID", r.ID, "error", err)
			continue
		}
		d.schedulable[r.ID] = worktime.HasSegments(wh)

		hours, err := worktime.Duration(wh)
		if err != nil {
			logger.Warn("route working hours are malformed", "routeID", r.ID, "error", err)
			continue
		}
		d.routeHours[r.ID] = hours
	}
	for _, ids := range d.linkedFrom {
		slices.Sort(ids)
	}

	for _, l := range labels {
		if _, ok := d.labels[l.Code]; ok {
			continue
		}
		d.labels[l.Code] = l
		d.labelOrder = append(d.labelOrder, l.Code)
	}
	sort.Strings(d.labelOrder)

	return d
}

func (d *Directory) Employee(id int64) (*domain.Employee, bool) {
	e, ok := d.employees[id]
	return e, ok
}

func (d *Directory) Route(id int64) (*domain.Route, bool) {
	r, ok := d.routes[id]
	return r, ok
}

func (d *Directory) Label(code string) (*domain.Label, bool) {
	l, ok := d.labels[code]
	return l, ok
}

// Employees returns the city's employees in load order.
func (d *Directory) Employees() []*domain.Employee {
	res := make([]*domain.Employee, 0, len(d.employeeOrder))
	for _, id := range d.employeeOrder {
		res = append(res, d.employees[id])
	}
	return res
}

// Routes returns the city's routes that have at least one working segment.
func (d *Directory) Routes() []*domain.Route {
	res := make([]*domain.Route, 0, len(d.cityRoutes))
	for _, id := range d.cityRoutes {
		if d.schedulable[id] {
			res = append(res, d.routes[id])
		}
	}
	return res
}

func (d *Directory) Labels() []*domain.Label {
	res := make([]*domain.Label, 0, len(d.labelOrder))
	for _, code := range d.labelOrder {
		res = append(res, d.labels[code])
	}
	return res
}

// Schedulable reports whether the route has at least one parsable, non-empty segment.
func (d *Directory) Schedulable(routeID int64) bool {
	return d.schedulable[routeID]
}

// RouteHours returns the route duration; unknown or malformed routes count as zero.
func (d *Directory) RouteHours(routeID int64) (float64, bool) {
	h, ok := d.routeHours[routeID]
	return h, ok
}

// PairOf returns the route paired with routeID. The route's own linked_route_id wins,
// otherwise the lowest-id route linking back to it. Only one hop is followed each way.
func (d *Directory) PairOf(routeID int64) (*domain.Route, bool) {
	r, ok := d.routes[routeID]
	if !ok {
		return nil, false
	}

	if r.LinkedRouteID != nil && *r.LinkedRouteID != routeID {
		if pair, ok := d.routes[*r.LinkedRouteID]; ok {
			return pair, true
		}
	}

	for _, id := range d.linkedFrom[routeID] {
		if id != routeID {
			return d.routes[id], true
		}
	}
	return nil, false
}

// CityEntry reports whether an entry belongs to this city's roster: either its employee
// or its route is part of the snapshot's city.
func (d *Directory) CityEntry(e *domain.ScheduleEntry) bool {
	if _, ok := d.employees[e.EmployeeID]; ok {
		return true
	}
	if e.RouteID == nil {
		return false
	}
	r, ok := d.routes[*e.RouteID]
	return ok && r.InCity(d.CityID)
}
