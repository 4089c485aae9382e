package roster

import (
	"github.com/route-roster/backend/internal/domain"
)

// AvailableRoutes lists the city's schedulable routes that no other employee holds on date.
// entries may contain any day; only those on date are considered.
func (d *Directory) AvailableRoutes(entries []*domain.ScheduleEntry, date domain.Date, employeeID int64) []*domain.Route {
	taken := make(map[int64]bool)
	for _, e := range entries {
		if e.Date == date && e.AssignmentType == domain.AssignmentRoute && e.RouteID != nil && e.EmployeeID != employeeID {
			taken[*e.RouteID] = true
		}
	}

	res := make([]*domain.Route, 0)
	for _, r := range d.Routes() {
		if !taken[r.ID] {
			res = append(res, r)
		}
	}
	return res
}

// AvailableEmployees lists the city's employees holding no route on date, plus whoever
// currently holds routeID.
func (d *Directory) AvailableEmployees(entries []*domain.ScheduleEntry, date domain.Date, routeID int64) []*domain.Employee {
	busy := make(map[int64]bool)
	var holder int64
	for _, e := range entries {
		if e.Date != date || e.AssignmentType != domain.AssignmentRoute {
			continue
		}
		if e.HoldsRoute(routeID) {
			holder = e.EmployeeID
			continue
		}
		busy[e.EmployeeID] = true
	}

	res := make([]*domain.Employee, 0)
	for _, emp := range d.Employees() {
		if emp.ID == holder || !busy[emp.ID] {
			res = append(res, emp)
		}
	}
	return res
}
