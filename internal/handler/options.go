package handler

import (
	"fmt"
	"net/http"

	"github.com/route-roster/backend/internal/domain"
)

type routeOption struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Hours         *float64 `json:"hours"`
	LinkedRouteID *int64   `json:"linkedRouteID"`
}

// GetRouteOptions lists routes an employee can still take on a date.
func (h *Handler) GetRouteOptions(w http.ResponseWriter, r *http.Request) {
	date, err := dateQuery(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	employeeID, err := idQuery(r, "employeeID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	dir := directoryFrom(r.Context())
	if _, ok := dir.Employee(employeeID); !ok {
		h.domainError(w, r, fmt.Errorf("employee %d: %w", employeeID, domain.ErrNotFound))
		return
	}

	entries, err := h.engine(r.Context()).DayEntries(r.Context(), date)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	routes := dir.AvailableRoutes(entries, date, employeeID)
	options := make([]routeOption, 0, len(routes))
	for _, route := range routes {
		opt := routeOption{ID: route.ID, Name: route.Name, LinkedRouteID: route.LinkedRouteID}
		if hours, ok := dir.RouteHours(route.ID); ok {
			opt.Hours = &hours
		}
		options = append(options, opt)
	}

	h.successResponse(w, r, "route options loaded", options)
}

// GetEmployeeOptions lists employees that can take a route on a date.
func (h *Handler) GetEmployeeOptions(w http.ResponseWriter, r *http.Request) {
	date, err := dateQuery(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	routeID, err := idQuery(r, "routeID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	dir := directoryFrom(r.Context())
	if _, ok := dir.Route(routeID); !ok {
		h.domainError(w, r, fmt.Errorf("route %d: %w", routeID, domain.ErrNotFound))
		return
	}

	entries, err := h.engine(r.Context()).DayEntries(r.Context(), date)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "employee options loaded", dir.AvailableEmployees(entries, date, routeID))
}
