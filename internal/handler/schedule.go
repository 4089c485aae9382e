package handler

import (
	"net/http"

	"github.com/route-roster/backend/internal/domain"
	"github.com/route-roster/backend/internal/roster"
)

func (h *Handler) GetCitySchedule(w http.ResponseWriter, r *http.Request) {
	month, year, err := monthQuery(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	entries, err := h.engine(r.Context()).Schedule(r.Context(), month, year)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "schedule loaded", entries)
}

type assignRouteResponse struct {
	Entry       *domain.ScheduleEntry `json:"entry"`
	PairedEntry *domain.ScheduleEntry `json:"pairedEntry"`
	PairSkipped bool                  `json:"pairSkipped"`
	PairError   string                `json:"pairError,omitempty"`
}

func (h *Handler) AssignRouteCell(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date       string `json:"date" validate:"required,datetime=2006-01-02"`
		RouteID    int64  `json:"routeID" validate:"required,gt=0"`
		EmployeeID int64  `json:"employeeID" validate:"required,gt=0"`
		EntryID    *int64 `json:"entryID" validate:"omitempty,gt=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	date, err := domain.ParseDate(req.Date)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	dir := directoryFrom(r.Context())
	res, err := h.engine(r.Context()).AssignRoute(r.Context(), roster.AssignRouteInput{
		Date:       date,
		RouteID:    req.RouteID,
		EmployeeID: req.EmployeeID,
		EntryID:    req.EntryID,
	})
	h.metrics.Operation("assign_route", err)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	if res.PairSkipped {
		h.metrics.PairSkipped()
	}

	event := domain.ScheduleChangedEvent{
		Type:       domain.EventRouteAssigned,
		UserID:     dir.UserID,
		EntryID:    res.Entry.ID,
		EmployeeID: res.Entry.EmployeeID,
		Date:       res.Entry.Date,
		RouteID:    res.Entry.RouteID,
	}
	if res.PairedEntry != nil {
		event.PairedID = res.PairedEntry.RouteID
	}
	h.publish(r.Context(), event)

	resp := assignRouteResponse{
		Entry:       res.Entry,
		PairedEntry: res.PairedEntry,
		PairSkipped: res.PairSkipped,
	}
	if res.PairError != nil {
		resp.PairError = res.PairError.Error()
	}
	h.successResponse(w, r, "route assigned", resp)
}

func (h *Handler) AssignLabelCell(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date       string `json:"date" validate:"required,datetime=2006-01-02"`
		EmployeeID int64  `json:"employeeID" validate:"required,gt=0"`
		Label      string `json:"label" validate:"required,max=32"`
		EntryID    *int64 `json:"entryID" validate:"omitempty,gt=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	date, err := domain.ParseDate(req.Date)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	dir := directoryFrom(r.Context())
	entry, err := h.engine(r.Context()).AssignLabel(r.Context(), roster.AssignLabelInput{
		Date:       date,
		EmployeeID: req.EmployeeID,
		LabelCode:  req.Label,
		EntryID:    req.EntryID,
	})
	h.metrics.Operation("assign_label", err)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.publish(r.Context(), domain.ScheduleChangedEvent{
		Type:       domain.EventLabelAssigned,
		UserID:     dir.UserID,
		EntryID:    entry.ID,
		EmployeeID: entry.EmployeeID,
		Date:       entry.Date,
		Label:      req.Label,
	})

	h.successResponse(w, r, "label assigned", entry)
}

func (h *Handler) ClearEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := idParam(r, "entryID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	dir := directoryFrom(r.Context())
	entry, err := h.engine(r.Context()).ClearEntry(r.Context(), entryID)
	h.metrics.Operation("clear_entry", err)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	event := domain.ScheduleChangedEvent{
		Type:       domain.EventEntryCleared,
		UserID:     dir.UserID,
		EntryID:    entry.ID,
		EmployeeID: entry.EmployeeID,
		Date:       entry.Date,
		RouteID:    entry.RouteID,
	}
	if entry.Label != nil {
		event.Label = *entry.Label
	}
	h.publish(r.Context(), event)

	h.successResponse(w, r, "entry cleared", nil)
}
