package domain

import "fmt"

type AssignmentType string

const (
	AssignmentRoute AssignmentType = "route"
	AssignmentLabel AssignmentType = "label"
	AssignmentNone  AssignmentType = "none"
)

type ScheduleEntry struct {
	ID             int64          `json:"id"`
	UserID         int64          `json:"-"`
	EmployeeID     int64          `json:"employeeID"`
	Date           Date           `json:"date"`
	AssignmentType AssignmentType `json:"assignmentType"`
	RouteID        *int64         `json:"routeID"`
	Label          *string        `json:"label"`
}

// Validate checks that exactly one of RouteID/Label matches the assignment type.
func (e *ScheduleEntry) Validate() error {
	switch e.AssignmentType {
	case AssignmentRoute:
		if e.RouteID == nil || e.Label != nil {
			return fmt.Errorf("%w: route entry must carry a route and no label", ErrValidation)
		}
	case AssignmentLabel:
		if e.Label == nil || *e.Label == "" || e.RouteID != nil {
			return fmt.Errorf("%w: label entry must carry a label and no route", ErrValidation)
		}
	case AssignmentNone:
		if e.RouteID != nil || e.Label != nil {
			return fmt.Errorf("%w: empty entry must carry neither route nor label", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown assignment type %q", ErrValidation, e.AssignmentType)
	}
	if e.EmployeeID == 0 {
		return fmt.Errorf("%w: employee is required", ErrValidation)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	return nil
}

func (e *ScheduleEntry) HoldsRoute(routeID int64) bool {
	return e.AssignmentType == AssignmentRoute && e.RouteID != nil && *e.RouteID == routeID
}

// Clone returns a deep copy so stores never hand out shared pointers.
func (e *ScheduleEntry) Clone() *ScheduleEntry {
	c := *e
	if e.RouteID != nil {
		id := *e.RouteID
		c.RouteID = &id
	}
	if e.Label != nil {
		l := *e.Label
		c.Label = &l
	}
	return &c
}
