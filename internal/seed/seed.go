package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/route-roster/backend/internal/domain"
	"github.com/route-roster/backend/internal/roster"
	"github.com/route-roster/backend/internal/utils"
)

// Writer creates the directory records a demo roster needs.
type Writer interface {
	CreateCity(ctx context.Context, userID int64, name string) (int64, error)
	CreateEmployee(ctx context.Context, userID int64, e *domain.Employee) error
	CreateRoute(ctx context.Context, userID int64, route *domain.Route) error
	UpsertLabel(ctx context.Context, l *domain.Label) error
}

var DefaultLabels = []*domain.Label{
	{Code: "URL", DefaultHours: 8, Description: "vacation"},
	{Code: "L4", DefaultHours: 8, Description: "sick leave"},
	{Code: "SZK", DefaultHours: 6, Description: "training"},
	{Code: "WS", DefaultHours: 0, Description: "day off"},
}

type Options struct {
	Cities           int
	EmployeesPerCity int
	RoutesPerCity    int
}

// Generate inserts labels and random cities with employees and routes. Every second route
// is an afternoon leg linked to the morning route before it.
func Generate(ctx context.Context, w Writer, userID int64, opts Options) ([]int64, error) {
	for _, l := range DefaultLabels {
		if err := w.UpsertLabel(ctx, l); err != nil {
			return nil, fmt.Errorf("insert label %s: %w", l.Code, err)
		}
	}

	cityIDs := make([]int64, 0, opts.Cities)
	for i := 0; i < opts.Cities; i++ {
		cityID, err := w.CreateCity(ctx, userID, utils.GenerateRandomCityName())
		if err != nil {
			return nil, fmt.Errorf("insert city: %w", err)
		}
		cityIDs = append(cityIDs, cityID)

		for j := 0; j < opts.EmployeesPerCity; j++ {
			if err := w.CreateEmployee(ctx, userID, utils.GenerateRandomEmployee(cityID)); err != nil {
				return nil, fmt.Errorf("insert employee: %w", err)
			}
		}

		var morning *domain.Route
		for j := 0; j < opts.RoutesPerCity; j++ {
			route := &domain.Route{
				Name:       fmt.Sprintf("Line %s", utils.GenerateRandomID(1, 3)),
				MainCityID: cityID,
			}
			if j%2 == 0 {
				route.WorkingHours = utils.GenerateRandomWorkingHours(utils.GenerateRandomShift(5))
			} else {
				route.WorkingHours = utils.GenerateRandomWorkingHours(utils.GenerateRandomShift(14))
				route.LinkedRouteID = &morning.ID
			}

			if err := w.CreateRoute(ctx, userID, route); err != nil {
				return nil, fmt.Errorf("insert route: %w", err)
			}
			morning = route
		}
	}

	return cityIDs, nil
}

// RouteRecord is one row of a routes CSV file.
type RouteRecord struct {
	Name     string
	Segments []domain.Segment
	// LinkedTo names another row of the same file.
	LinkedTo string
}

// ReadRoutesCSV reads "name,segments,linked_to" rows. Segments are "HH:MM-HH:MM" pairs joined
// with "|"; linked_to may be empty.
func ReadRoutesCSV(r io.Reader) ([]RouteRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if headers[0] != "name" || headers[1] != "segments" || headers[2] != "linked_to" {
		return nil, fmt.Errorf("unexpected header %v", headers)
	}

	var records []RouteRecord
	names := make(map[string]bool)
	for {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		rec := RouteRecord{Name: row[0], LinkedTo: row[2]}
		if rec.Name == "" {
			return nil, fmt.Errorf("line %d: empty name", len(records)+2)
		}
		for _, part := range strings.Split(row[1], "|") {
			if part == "" {
				continue
			}
			start, end, ok := strings.Cut(part, "-")
			if !ok {
				return nil, fmt.Errorf("line %d: segment %q is not start-end", len(records)+2, part)
			}
			rec.Segments = append(rec.Segments, domain.Segment{Start: start, End: end})
		}

		names[rec.Name] = true
		records = append(records, rec)
	}

	for _, rec := range records {
		if rec.LinkedTo != "" && !names[rec.LinkedTo] {
			return nil, fmt.Errorf("route %q links to unknown route %q", rec.Name, rec.LinkedTo)
		}
	}
	return records, nil
}

// ImportRoutes creates the records in cityID and resolves links by name. A link to a later
// row is stored on the later route instead, pairing is symmetric.
func ImportRoutes(ctx context.Context, w Writer, userID int64, cityID int64, records []RouteRecord) ([]*domain.Route, error) {
	byName := make(map[string]*domain.Route)
	pending := make(map[string]*domain.Route) // forward links by target name
	routes := make([]*domain.Route, 0, len(records))

	for _, rec := range records {
		route := &domain.Route{
			Name:         rec.Name,
			MainCityID:   cityID,
			WorkingHours: utils.GenerateRandomWorkingHours(rec.Segments...),
		}
		if linked, ok := byName[rec.LinkedTo]; ok {
			route.LinkedRouteID = &linked.ID
		} else if earlier, ok := pending[rec.Name]; ok {
			route.LinkedRouteID = &earlier.ID
		}
		if err := w.CreateRoute(ctx, userID, route); err != nil {
			return nil, fmt.Errorf("insert route %q: %w", rec.Name, err)
		}
		byName[rec.Name] = route
		if rec.LinkedTo != "" && route.LinkedRouteID == nil {
			pending[rec.LinkedTo] = route
		}
		routes = append(routes, route)
	}
	return routes, nil
}

// FillMonth staffs every schedulable route of the directory on every day of the month,
// giving each route to the first employee without a route that day. Paired legs are
// propagated by the engine. Routes already held are left alone.
func FillMonth(ctx context.Context, eng *roster.Engine, dir *roster.Directory, month time.Month, year int, logger *slog.Logger) (int, error) {
	employees := dir.Employees()
	ids := make([]int64, 0, len(employees))
	for _, e := range employees {
		ids = append(ids, e.ID)
	}

	assigned := 0
	from, to := domain.MonthRange(month, year)
	for day := from; !day.After(to); day = day.AddDays(1) {
		entries, err := eng.DayEntries(ctx, day)
		if err != nil {
			return assigned, err
		}

		busy := make(map[int64]bool)
		held := make(map[int64]bool)
		for _, e := range entries {
			if e.AssignmentType == domain.AssignmentRoute && e.RouteID != nil {
				busy[e.EmployeeID] = true
				held[*e.RouteID] = true
			}
		}

		queue := utils.ShuffleIDs(ids)
		for _, route := range dir.Routes() {
			if held[route.ID] {
				continue
			}
			for len(queue) > 0 && busy[queue[0]] {
				queue = queue[1:]
			}
			if len(queue) == 0 {
				break
			}
			employeeID := queue[0]

			res, err := eng.AssignRoute(ctx, roster.AssignRouteInput{Date: day, RouteID: route.ID, EmployeeID: employeeID})
			if err != nil {
				if errors.Is(err, domain.ErrConflict) {
					logger.Warn("route taken while seeding", "date", day, "routeID", route.ID)
					continue
				}
				return assigned, err
			}

			assigned++
			busy[employeeID] = true
			if res.PairedEntry != nil {
				assigned++
				held[*res.PairedEntry.RouteID] = true
			}
		}
	}
	return assigned, nil
}
