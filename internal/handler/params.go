package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/route-roster/backend/internal/domain"
)

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", domain.ErrValidation, name)
	}
	return id, nil
}

func idQuery(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: query parameter %s must be a positive id", domain.ErrValidation, name)
	}
	return id, nil
}

func dateQuery(r *http.Request) (domain.Date, error) {
	return domain.ParseDate(r.URL.Query().Get("date"))
}

// monthQuery reads month (1-12) and year from the query string.
func monthQuery(r *http.Request) (time.Month, int, error) {
	q := r.URL.Query()

	month, err := strconv.Atoi(q.Get("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: month must be between 1 and 12", domain.ErrValidation)
	}
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil || year < 1 || year > 9999 {
		return 0, 0, fmt.Errorf("%w: invalid year", domain.ErrValidation)
	}
	return time.Month(month), year, nil
}
