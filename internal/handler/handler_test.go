package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/route-roster/backend/internal/config"
	"github.com/route-roster/backend/internal/domain"
	"github.com/route-roster/backend/internal/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	testUser   = int64(7)
)

type staticSource struct {
	employees []*domain.Employee
	routes    []*domain.Route
	labels    []*domain.Label
}

func (s *staticSource) GetEmployeesByCity(ctx context.Context, userID int64, cityID int64) ([]*domain.Employee, error) {
	res := []*domain.Employee{}
	for _, e := range s.employees {
		if e.CityID == cityID {
			res = append(res, e)
		}
	}
	return res, nil
}

func (s *staticSource) GetRoutesByCity(ctx context.Context, userID int64, cityID int64) ([]*domain.Route, error) {
	res := []*domain.Route{}
	for _, r := range s.routes {
		if r.InCity(cityID) {
			res = append(res, r)
		}
	}
	return res, nil
}

func (s *staticSource) GetPairCandidates(ctx context.Context, userID int64, ids []int64) ([]*domain.Route, error) {
	return s.routes, nil
}

func (s *staticSource) GetAllLabels(ctx context.Context) ([]*domain.Label, error) {
	return s.labels, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ScheduleChangedEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event domain.ScheduleChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type testServer struct {
	h      *Handler
	store  *roster.MemoryStore
	events *recordingPublisher
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret
	cfg.JWT.CookieName = "__route_roster_token"

	hours := func(doc string) []byte { return []byte(doc) }
	src := &staticSource{
		employees: []*domain.Employee{
			{ID: 1, FirstName: "Jan", LastName: "Kowalski", PartTime: 1, CityID: 1},
			{ID: 2, FirstName: "Anna", LastName: "Nowak", PartTime: 0.5, CityID: 1},
		},
		routes: []*domain.Route{
			{ID: 10, Name: "A morning", MainCityID: 1, WorkingHours: hours(`{"segments":[{"start":"06:00","end":"10:00"}]}`)},
			{ID: 11, Name: "A evening", MainCityID: 1, WorkingHours: hours(`{"segments":[{"start":"14:00","end":"18:00"}]}`), LinkedRouteID: ptr(int64(10))},
			{ID: 12, Name: "B split", MainCityID: 1, WorkingHours: hours(`"{\"segments\":[{\"start\":\"08:00\",\"end\":\"12:00\"},{\"start\":\"13:00\",\"end\":\"17:00\"}]}"`)},
		},
		labels: []*domain.Label{{Code: "URL", DefaultHours: 8, Description: "vacation"}},
	}

	store := roster.NewMemoryStore()
	events := &recordingPublisher{}
	h, err := NewHandler(cfg, Options{
		Store:     store,
		Directory: src,
		Locker:    roster.NewLocalLocker(100 * time.Millisecond),
		Events:    events,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	h.RegisterRoutes()

	return &testServer{h: h, store: store, events: events, token: signToken(t, strconv.FormatInt(testUser, 10))}
}

func ptr[T any](v T) *T { return &v }

func signToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	ss, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return ss
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+s.token)
	rec := httptest.NewRecorder()
	s.h.Mux.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/schedule/city/1/?month=3&year=2024", nil)
	rec := httptest.NewRecorder()
	s.h.Mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/schedule/city/1/?month=3&year=2024", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "not-a-number"))
	rec = httptest.NewRecorder()
	s.h.Mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/schedule/city/1/?month=3&year=2024", nil)
	req.AddCookie(&http.Cookie{Name: "__route_roster_token", Value: s.token})
	rec = httptest.NewRecorder()
	s.h.Mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAssignRouteCell(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPut, "/schedule/city/1/route-cell", map[string]any{
		"date": "2024-03-05", "routeID": 10, "employeeID": 1,
	})
	require.Equal(t, http.StatusOK, code, env.Message)

	var res assignRouteResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotNil(t, res.Entry)
	require.NotNil(t, res.PairedEntry)
	assert.Equal(t, int64(11), *res.PairedEntry.RouteID)
	assert.False(t, res.PairSkipped)
	assert.Empty(t, res.PairError)

	code, _ = s.do(t, http.MethodPut, "/schedule/city/1/route-cell", map[string]any{
		"date": "2024-03-05", "routeID": 10, "employeeID": 2,
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, 2, s.store.Len())

	require.Len(t, s.events.events, 1)
	ev := s.events.events[0]
	assert.Equal(t, domain.EventRouteAssigned, ev.Type)
	assert.Equal(t, testUser, ev.UserID)
	assert.Equal(t, int64(11), *ev.PairedID)
}

func TestAssignRouteCellRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing date", map[string]any{"routeID": 10, "employeeID": 1}, http.StatusBadRequest},
		{"bad date", map[string]any{"date": "05.03.2024", "routeID": 10, "employeeID": 1}, http.StatusBadRequest},
		{"unknown field", map[string]any{"date": "2024-03-05", "routeID": 10, "employeeID": 1, "city": 1}, http.StatusBadRequest},
		{"unknown employee", map[string]any{"date": "2024-03-05", "routeID": 10, "employeeID": 99}, http.StatusNotFound},
		{"unknown route", map[string]any{"date": "2024-03-05", "routeID": 99, "employeeID": 1}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(t, http.MethodPut, "/schedule/city/1/route-cell", tt.body)
			assert.Equal(t, tt.want, code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Message)
		})
	}
	assert.Zero(t, s.store.Len())
}

func TestLabelCellAndClear(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPut, "/schedule/city/1/label-cell", map[string]any{
		"date": "2024-03-06", "employeeID": 2, "label": "URL",
	})
	require.Equal(t, http.StatusOK, code, env.Message)

	var entry domain.ScheduleEntry
	require.NoError(t, json.Unmarshal(env.Data, &entry))
	assert.Equal(t, domain.AssignmentLabel, entry.AssignmentType)

	code, _ = s.do(t, http.MethodPut, "/schedule/city/1/label-cell", map[string]any{
		"date": "2024-03-06", "employeeID": 2, "label": "NOPE",
	})
	assert.Equal(t, http.StatusNotFound, code)

	path := "/schedule/city/1/entries/" + strconv.FormatInt(entry.ID, 10)
	code, _ = s.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodDelete, "/schedule/city/1/entries/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	require.Len(t, s.events.events, 2)
	assert.Equal(t, domain.EventLabelAssigned, s.events.events[0].Type)
	assert.Equal(t, domain.EventEntryCleared, s.events.events[1].Type)
	assert.Equal(t, "URL", s.events.events[1].Label)
}

func TestScheduleAndHours(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPut, "/schedule/city/1/route-cell", map[string]any{
		"date": "2024-02-29", "routeID": 12, "employeeID": 1,
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	code, env = s.do(t, http.MethodPut, "/schedule/city/1/label-cell", map[string]any{
		"date": "2024-03-01", "employeeID": 2, "label": "URL",
	})
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = s.do(t, http.MethodGet, "/schedule/city/1/?month=2&year=2024", nil)
	require.Equal(t, http.StatusOK, code)
	var entries []*domain.ScheduleEntry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, domain.NewDate(2024, time.February, 29), entries[0].Date)

	code, env = s.do(t, http.MethodGet, "/schedule/city/1/employees/1/hours?month=2&year=2024&date=2024-02-29", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	var hours employeeHoursResponse
	require.NoError(t, json.Unmarshal(env.Data, &hours))
	require.NotNil(t, hours.Daily)
	assert.Equal(t, 8.0, *hours.Daily)
	assert.Equal(t, 8.0, hours.Monthly)
	assert.Equal(t, 8.0, hours.Quarterly)

	code, env = s.do(t, http.MethodGet, "/schedule/city/1/hours?month=3&year=2024", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	var report cityHoursResponse
	require.NoError(t, json.Unmarshal(env.Data, &report))
	require.Len(t, report.Employees, 2)
	assert.Equal(t, 0.0, report.Employees[0].Monthly)
	assert.Equal(t, 8.0, report.Employees[0].Quarterly)
	assert.Equal(t, 4.0, report.Employees[1].Monthly)

	code, _ = s.do(t, http.MethodGet, "/schedule/city/1/hours?month=13&year=2024", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(t, http.MethodGet, "/schedule/city/1/employees/42/hours?month=3&year=2024", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestOptions(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPut, "/schedule/city/1/route-cell", map[string]any{
		"date": "2024-03-07", "routeID": 12, "employeeID": 1,
	})
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = s.do(t, http.MethodGet, "/schedule/city/1/options/routes?date=2024-03-07&employeeID=2", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	var routes []routeOption
	require.NoError(t, json.Unmarshal(env.Data, &routes))
	ids := []int64{}
	for _, r := range routes {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{10, 11}, ids)

	code, env = s.do(t, http.MethodGet, "/schedule/city/1/options/employees?date=2024-03-07&routeID=10", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	var emps []*domain.Employee
	require.NoError(t, json.Unmarshal(env.Data, &emps))
	require.Len(t, emps, 1)
	assert.Equal(t, int64(2), emps[0].ID)

	code, _ = s.do(t, http.MethodGet, "/schedule/city/1/options/routes?date=2024-03-07", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	s.h.pinger = failingPinger{}
	code, _ = s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPut, "/schedule/city/1/route-cell", map[string]any{
		"date": "2024-03-07", "routeID": 10, "employeeID": 1,
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	code, _ = s.do(t, http.MethodPut, "/schedule/city/1/route-cell", map[string]any{
		"date": "2024-03-07", "routeID": 10, "employeeID": 2,
	})
	require.Equal(t, http.StatusConflict, code)

	rec := httptest.NewRecorder()
	s.h.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `roster_operations_total{operation="assign_route",outcome="ok"} 1`)
	assert.Contains(t, body, `roster_operations_total{operation="assign_route",outcome="conflict"} 1`)
	assert.Contains(t, body, `route="/schedule/city/{cityID}/route-cell"`)
}
