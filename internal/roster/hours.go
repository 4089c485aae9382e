package roster

import (
	"log/slog"
	"math"
	"time"

	"github.com/route-roster/backend/internal/domain"
)

// Aggregator derives worked hours from a read snapshot of entries. It never fails:
// entries whose route or label cannot be resolved contribute zero and are logged.
type Aggregator struct {
	dir    *Directory
	cells  map[int64]map[domain.Date][]*domain.ScheduleEntry
	logger *slog.Logger
}

type EmployeeHours struct {
	EmployeeID int64   `json:"employeeID"`
	FullName   string  `json:"fullName"`
	Monthly    float64 `json:"monthly"`
	Quarterly  float64 `json:"quarterly"`
}

func NewAggregator(dir *Directory, entries []*domain.ScheduleEntry, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}

	cells := make(map[int64]map[domain.Date][]*domain.ScheduleEntry)
	for _, e := range entries {
		if _, ok := cells[e.EmployeeID]; !ok {
			cells[e.EmployeeID] = make(map[domain.Date][]*domain.ScheduleEntry)
		}
		cells[e.EmployeeID][e.Date] = append(cells[e.EmployeeID][e.Date], e)
	}

	return &Aggregator{dir: dir, cells: cells, logger: logger}
}

// DailyHours sums every entry the employee holds on date.
func (a *Aggregator) DailyHours(employeeID int64, date domain.Date) float64 {
	total := 0.0
	for _, e := range a.cells[employeeID][date] {
		total += a.entryHours(e)
	}
	return total
}

func (a *Aggregator) MonthlyHours(employeeID int64, month time.Month, year int) float64 {
	total := 0.0
	for day := 1; day <= domain.DaysIn(month, year); day++ {
		total += a.DailyHours(employeeID, domain.NewDate(year, month, day))
	}
	return total
}

// QuarterlyHours sums the three months of the fixed quarter that contains month.
func (a *Aggregator) QuarterlyHours(employeeID int64, month time.Month, year int) float64 {
	total := 0.0
	for _, m := range domain.QuarterMonths(month) {
		total += a.MonthlyHours(employeeID, m, year)
	}
	return total
}

// MonthlyReport returns month and quarter totals for every employee of the directory.
func (a *Aggregator) MonthlyReport(month time.Month, year int) []EmployeeHours {
	employees := a.dir.Employees()
	res := make([]EmployeeHours, 0, len(employees))
	for _, emp := range employees {
		res = append(res, EmployeeHours{
			EmployeeID: emp.ID,
			FullName:   emp.FullName(),
			Monthly:    a.MonthlyHours(emp.ID, month, year),
			Quarterly:  a.QuarterlyHours(emp.ID, month, year),
		})
	}
	return res
}

func (a *Aggregator) entryHours(e *domain.ScheduleEntry) float64 {
	switch e.AssignmentType {
	case domain.AssignmentRoute:
		if e.RouteID == nil {
			return 0
		}
		hours, ok := a.dir.RouteHours(*e.RouteID)
		if !ok {
			a.logger.Warn("route hours unavailable, counting zero", "entryID", e.ID, "routeID", *e.RouteID)
			return 0
		}
		return hours

	case domain.AssignmentLabel:
		if e.Label == nil {
			return 0
		}
		label, ok := a.dir.Label(*e.Label)
		if !ok || !finite(label.DefaultHours) {
			a.logger.Warn("label hours unavailable, counting zero", "entryID", e.ID, "label", *e.Label)
			return 0
		}
		return label.DefaultHours * a.partTime(e.EmployeeID)

	default:
		return 0
	}
}

// partTime defaults to a full-time multiplier for employees outside the snapshot.
func (a *Aggregator) partTime(employeeID int64) float64 {
	emp, ok := a.dir.Employee(employeeID)
	if !ok {
		return 1.0
	}
	if !finite(emp.PartTime) {
		a.logger.Warn("employee part time is not a number, counting zero", "employeeID", employeeID)
		return 0
	}
	return emp.PartTime
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
