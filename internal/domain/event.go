package domain

// ScheduleChangedEvent is published to the notification queue after a roster mutation.
type ScheduleChangedEvent struct {
	Type       string `json:"type"` // route_assigned, label_assigned, entry_cleared
	UserID     int64  `json:"userID"`
	EntryID    int64  `json:"entryID"`
	EmployeeID int64  `json:"employeeID"`
	Date       Date   `json:"date"`
	RouteID    *int64 `json:"routeID,omitempty"`
	PairedID   *int64 `json:"pairedRouteID,omitempty"`
	Label      string `json:"label,omitempty"`
}

const (
	EventRouteAssigned = "route_assigned"
	EventLabelAssigned = "label_assigned"
	EventEntryCleared  = "entry_cleared"
)
