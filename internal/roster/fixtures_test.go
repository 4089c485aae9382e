package roster

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/route-roster/backend/internal/domain"
)

const (
	testUser = int64(7)
	testCity = int64(1)
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func ptr[T any](v T) *T { return &v }

func hoursJSON(segments ...string) []byte {
	doc := `{"segments":[`
	for i := 0; i+1 < len(segments); i += 2 {
		if i > 0 {
			doc += ","
		}
		doc += fmt.Sprintf(`{"start":%q,"end":%q}`, segments[i], segments[i+1])
	}
	return []byte(doc + `]}`)
}

// fixture: routes 10 and 11 are paired (11 -> 10), 12 is single, 13 has no segments,
// 14 has broken working hours.
type fixture struct {
	store *MemoryStore
	dir   *Directory
	eng   *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	employees := []*domain.Employee{
		{ID: 1, FirstName: "Jan", LastName: "Kowalski", PartTime: 1, CityID: testCity},
		{ID: 2, FirstName: "Anna", LastName: "Nowak", PartTime: 0.5, CityID: testCity},
		{ID: 3, FirstName: "Piotr", LastName: "Zielinski", PartTime: 1, CityID: testCity},
	}
	routes := []*domain.Route{
		{ID: 10, Name: "A morning", MainCityID: testCity, WorkingHours: hoursJSON("05:00", "09:00")},
		{ID: 11, Name: "A evening", MainCityID: testCity, WorkingHours: hoursJSON("15:00", "19:00"), LinkedRouteID: ptr(int64(10))},
		{ID: 12, Name: "B split", MainCityID: testCity, WorkingHours: hoursJSON("08:00", "12:00", "13:00", "17:00")},
		{ID: 13, Name: "Empty", MainCityID: testCity, WorkingHours: []byte(`{"segments":[]}`)},
		{ID: 14, Name: "Broken", MainCityID: testCity, WorkingHours: hoursJSON("08:00", "xx:00")},
		{ID: 15, Name: "Night", MainCityID: 2, AdditionalCityID: ptr(testCity), WorkingHours: hoursJSON("22:00", "06:00")},
	}
	labels := []*domain.Label{
		{Code: "URL", DefaultHours: 8, Description: "vacation"},
		{Code: "L4", DefaultHours: 8, Description: "sick leave"},
		{Code: "SZK", DefaultHours: 6, Description: "training"},
	}

	store := NewMemoryStore()
	dir := NewDirectory(testUser, testCity, employees, routes, labels, discard)
	return &fixture{
		store: store,
		dir:   dir,
		eng:   NewEngine(store, dir, NewLocalLocker(50*time.Millisecond), discard),
	}
}

func day(d int) domain.Date {
	return domain.NewDate(2024, time.March, d)
}
