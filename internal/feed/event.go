package feed

import (
	"context"
	"time"

	"github.com/emersion/go-ical"
)

// Event is a raw calendar event as delivered by the feed
type Event struct {
	UID      string
	Summary  string
	Location string
	Start    time.Time
	End      time.Time // Zero when the feed gives no end
	AllDay   bool
}

// Source produces the finite sequence of raw events for one feed
type Source interface {
	Events(ctx context.Context) ([]Event, error)
}

// parseComponent extracts an Event from a VEVENT component
func parseComponent(comp *ical.Component) (Event, bool) {
	if comp.Name != ical.CompEvent {
		return Event{}, false
	}

	event := Event{}

	if prop := comp.Props.Get(ical.PropUID); prop != nil {
		event.UID = prop.Value
	}

	if prop := comp.Props.Get(ical.PropSummary); prop != nil {
		event.Summary = prop.Value
	}

	if prop := comp.Props.Get(ical.PropLocation); prop != nil {
		event.Location = prop.Value
	}

	if prop := comp.Props.Get(ical.PropDateTimeStart); prop != nil {
		t, err := prop.DateTime(time.UTC)
		if err == nil {
			event.Start = t
		}
		// Date-valued DTSTART means an all-day event
		if valueType := prop.Params.Get(ical.ParamValue); valueType == string(ical.ValueDate) {
			event.AllDay = true
		}
	}

	if prop := comp.Props.Get(ical.PropDateTimeEnd); prop != nil {
		t, err := prop.DateTime(time.UTC)
		if err == nil {
			event.End = t
		}
	}

	return event, true
}
