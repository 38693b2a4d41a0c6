package sync

import (
	"time"

	"github.com/notisync/notisync/internal/notion"
)

const dateLayout = "2006-01-02"

// Event is one calendar event in the shape the destination understands.
// Identity is the stable key linking it to at most one destination row
// across runs.
type Event struct {
	Identity string
	Title    string
	Start    time.Time
	End      time.Time // Zero when the feed gave no end
	AllDay   bool
	Location string
}

// DateRange returns the destination date value for the event. Feeds use
// exclusive end dates for all-day events while the destination expects
// inclusive ones, so the end moves back a day and collapses when it meets
// the start. Timed events are written in UTC.
func (e Event) DateRange() notion.DateValue {
	if e.AllDay {
		start := e.Start.Format(dateLayout)
		value := notion.DateValue{Start: start}
		if !e.End.IsZero() {
			end := e.End.AddDate(0, 0, -1).Format(dateLayout)
			if end != start {
				value.End = end
			}
		}
		return value
	}

	value := notion.DateValue{Start: e.Start.UTC().Format(time.RFC3339)}
	if !e.End.IsZero() {
		value.End = e.End.UTC().Format(time.RFC3339)
	}
	return value
}
