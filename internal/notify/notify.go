// Package notify turns roster change events into planner e-mails.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/route-roster/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

var bodyTemplate = template.Must(template.New("event").Funcs(template.FuncMap{
	"deref": func(p *int64) int64 {
		if p == nil {
			return 0
		}
		return *p
	},
}).Parse(`Roster change on {{.Date}}

{{- if eq .Type "route_assigned"}}
Employee {{.EmployeeID}} was assigned to route {{deref .RouteID}} (entry {{.EntryID}}).
{{- if .PairedID}}
The paired route {{deref .PairedID}} was assigned to the same employee.
{{- end}}
{{- else if eq .Type "label_assigned"}}
Employee {{.EmployeeID}} was marked as {{.Label}} (entry {{.EntryID}}).
{{- else}}
Entry {{.EntryID}} of employee {{.EmployeeID}} was cleared.
{{- end}}
`))

var subjects = map[string]string{
	domain.EventRouteAssigned: "Route assigned",
	domain.EventLabelAssigned: "Label assigned",
	domain.EventEntryCleared:  "Entry cleared",
}

// Decode parses a queued event and rejects types the worker does not know.
func Decode(body []byte) (domain.ScheduleChangedEvent, error) {
	var ev domain.ScheduleChangedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, err
	}
	if _, ok := subjects[ev.Type]; !ok {
		return ev, fmt.Errorf("unsupported event type %q", ev.Type)
	}
	return ev, nil
}

// NewMessage builds the notification mail for ev.
func NewMessage(from string, to []string, ev domain.ScheduleChangedEvent) (*mail.Msg, error) {
	if len(to) == 0 {
		return nil, fmt.Errorf("no recipients configured")
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(to...); err != nil {
		return nil, fmt.Errorf("set recipients: %w", err)
	}

	var body bytes.Buffer
	if err := bodyTemplate.Execute(&body, ev); err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}

	msg.Subject(fmt.Sprintf("Route roster - %s (%s)", subjects[ev.Type], ev.Date))
	msg.SetBodyString(mail.TypeTextPlain, body.String())
	return msg, nil
}
