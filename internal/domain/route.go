package domain

type Segment struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type WorkingHours struct {
	Segments []Segment `json:"segments"`
}

type Route struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	MainCityID       int64  `json:"mainCityID"`
	AdditionalCityID *int64 `json:"additionalCityID"`
	// WorkingHours is kept raw; it is parsed lazily so one broken route cannot fail a whole listing.
	WorkingHours  []byte `json:"-"`
	LinkedRouteID *int64 `json:"linkedRouteID"` // nil when the route is not paired
}

// InCity reports whether the route serves the city as main or additional city.
func (r *Route) InCity(cityID int64) bool {
	if r.MainCityID == cityID {
		return true
	}
	return r.AdditionalCityID != nil && *r.AdditionalCityID == cityID
}
