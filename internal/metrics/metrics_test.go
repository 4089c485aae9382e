package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/route-roster/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "conflict", Outcome(fmt.Errorf("route 1: %w", domain.ErrConflict)))
	assert.Equal(t, "not_found", Outcome(domain.ErrNotFound))
	assert.Equal(t, "invalid", Outcome(domain.ErrValidation))
	assert.Equal(t, "error", Outcome(errors.New("boom")))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.Operation("assign_route", nil)
	m.Operation("assign_route", domain.ErrConflict)
	m.Operation("assign_route", domain.ErrConflict)
	m.PairSkipped()
	m.ObserveRequest(http.MethodPut, "/schedule/city/{cityID}/route-cell", http.StatusOK, 20*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("assign_route", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("assign_route", "conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pairSkipped))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requests))

	// a second registration on the same registry reuses the collectors
	again, err := New(reg)
	require.NoError(t, err)
	again.Operation("assign_route", nil)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("assign_route", "ok")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "roster_pair_skipped_total 1"))
}
