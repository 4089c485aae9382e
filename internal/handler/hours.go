package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/route-roster/backend/internal/domain"
	"github.com/route-roster/backend/internal/roster"
)

type cityHoursResponse struct {
	Month     time.Month             `json:"month"`
	Year      int                    `json:"year"`
	Employees []roster.EmployeeHours `json:"employees"`
}

// GetCityHours returns monthly and quarterly totals for every employee of the city.
func (h *Handler) GetCityHours(w http.ResponseWriter, r *http.Request) {
	month, year, err := monthQuery(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	agg, err := h.engine(r.Context()).Aggregator(r.Context(), month, year)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "hours loaded", cityHoursResponse{
		Month:     month,
		Year:      year,
		Employees: agg.MonthlyReport(month, year),
	})
}

type employeeHoursResponse struct {
	EmployeeID int64        `json:"employeeID"`
	Month      time.Month   `json:"month"`
	Year       int          `json:"year"`
	Date       *domain.Date `json:"date,omitempty"`
	Daily      *float64     `json:"daily,omitempty"`
	Monthly    float64      `json:"monthly"`
	Quarterly  float64      `json:"quarterly"`
}

// GetEmployeeHours returns the employee's month and quarter totals, and the day total when
// a date is given.
func (h *Handler) GetEmployeeHours(w http.ResponseWriter, r *http.Request) {
	employeeID, err := idParam(r, "employeeID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	month, year, err := monthQuery(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	dir := directoryFrom(r.Context())
	if _, ok := dir.Employee(employeeID); !ok {
		h.domainError(w, r, fmt.Errorf("employee %d: %w", employeeID, domain.ErrNotFound))
		return
	}

	agg, err := h.engine(r.Context()).Aggregator(r.Context(), month, year)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	resp := employeeHoursResponse{
		EmployeeID: employeeID,
		Month:      month,
		Year:       year,
		Monthly:    agg.MonthlyHours(employeeID, month, year),
		Quarterly:  agg.QuarterlyHours(employeeID, month, year),
	}

	if r.URL.Query().Has("date") {
		date, err := dateQuery(r)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		if from, to := domain.QuarterRange(month, year); date.Before(from) || date.After(to) {
			h.badRequest(w, r, fmt.Errorf("%w: date %s is outside the requested quarter", domain.ErrValidation, date))
			return
		}
		daily := agg.DailyHours(employeeID, date)
		resp.Date = &date
		resp.Daily = &daily
	}

	h.successResponse(w, r, "hours loaded", resp)
}
