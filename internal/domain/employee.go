package domain

type Employee struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	PartTime  float64 `json:"partTime"` // full-time-equivalent multiplier applied to label hours
	CityID    int64   `json:"cityID"`
}

func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}
