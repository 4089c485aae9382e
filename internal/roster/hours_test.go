package roster

import (
	"context"
	"testing"
	"time"

	"github.com/route-roster/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labelEntry(employeeID int64, date domain.Date, code string) *domain.ScheduleEntry {
	return &domain.ScheduleEntry{UserID: testUser, EmployeeID: employeeID, Date: date, AssignmentType: domain.AssignmentLabel, Label: ptr(code)}
}

func TestDailyHoursScenarios(t *testing.T) {
	f := newFixture(t)
	d := day(6)

	entries := []*domain.ScheduleEntry{
		labelEntry(2, d, "URL"),             // part time 0.5
		routeEntry(testUser, d, 12, 1),      // 08-12 + 13-17
		routeEntry(testUser, d, 15, 3),      // 22-06
		labelEntry(3, d, "SZK"),             // full time, 6h
		routeEntry(testUser, day(7), 14, 1), // broken hours
		labelEntry(1, day(7), "GONE"),       // unknown label
		{UserID: testUser, EmployeeID: 1, Date: day(7), AssignmentType: domain.AssignmentNone},
	}
	agg := NewAggregator(f.dir, entries, discard)

	assert.Equal(t, 4.0, agg.DailyHours(2, d))
	assert.Equal(t, 8.0, agg.DailyHours(1, d))
	assert.Equal(t, 14.0, agg.DailyHours(3, d))
	assert.Equal(t, 0.0, agg.DailyHours(1, day(7)))
	assert.Equal(t, 0.0, agg.DailyHours(2, day(7)))
}

func TestMonthlyHoursLeapYear(t *testing.T) {
	f := newFixture(t)

	var entries []*domain.ScheduleEntry
	for _, year := range []int{2023, 2024} {
		for d := 1; d <= 31; d++ {
			date := domain.NewDate(year, time.February, 1).AddDays(d - 1)
			if date.Month != time.February {
				break
			}
			entries = append(entries, labelEntry(1, date, "URL"))
		}
	}
	agg := NewAggregator(f.dir, entries, discard)

	assert.Equal(t, 29*8.0, agg.MonthlyHours(1, time.February, 2024))
	assert.Equal(t, 28*8.0, agg.MonthlyHours(1, time.February, 2023))
	assert.Equal(t, 0.0, agg.MonthlyHours(1, time.March, 2024))
}

func TestQuarterlyHours(t *testing.T) {
	f := newFixture(t)

	entries := []*domain.ScheduleEntry{
		routeEntry(testUser, domain.NewDate(2024, time.January, 31), 12, 1),
		routeEntry(testUser, domain.NewDate(2024, time.February, 29), 12, 1),
		routeEntry(testUser, domain.NewDate(2024, time.March, 1), 12, 1),
		routeEntry(testUser, domain.NewDate(2024, time.April, 1), 12, 1),
		routeEntry(testUser, domain.NewDate(2023, time.March, 1), 12, 1),
	}
	agg := NewAggregator(f.dir, entries, discard)

	for _, m := range []time.Month{time.January, time.February, time.March} {
		assert.Equal(t, 24.0, agg.QuarterlyHours(1, m, 2024), "month %s", m)
	}
	assert.Equal(t, 8.0, agg.QuarterlyHours(1, time.June, 2024))
	assert.Equal(t, 0.0, agg.QuarterlyHours(1, time.December, 2024))
}

func TestMonthlyReportThroughEngine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.eng.AssignRoute(ctx, AssignRouteInput{Date: domain.NewDate(2024, time.January, 10), RouteID: 10, EmployeeID: 1})
	require.NoError(t, err)
	_, err = f.eng.AssignLabel(ctx, AssignLabelInput{Date: day(10), EmployeeID: 2, LabelCode: "URL"})
	require.NoError(t, err)

	agg, err := f.eng.Aggregator(ctx, time.March, 2024)
	require.NoError(t, err)

	report := agg.MonthlyReport(time.March, 2024)
	require.Len(t, report, 3)

	byID := map[int64]EmployeeHours{}
	for _, r := range report {
		byID[r.EmployeeID] = r
	}
	// employee 1 worked both legs of the pair in January: 4h + 4h
	assert.Equal(t, 0.0, byID[1].Monthly)
	assert.Equal(t, 8.0, byID[1].Quarterly)
	assert.Equal(t, 4.0, byID[2].Monthly)
	assert.Equal(t, 4.0, byID[2].Quarterly)
	assert.Equal(t, "Piotr Zielinski", byID[3].FullName)
}
