package sync

import (
	"time"

	"github.com/notisync/notisync/internal/notion"
)

// Action classifies a sync decision
type Action int

const (
	ActionCreate Action = iota
	ActionUpdate
	ActionSkip
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionSkip:
		return "skip"
	}
	return "unknown"
}

// Decision is the outcome of diffing one event against the index
type Decision struct {
	Action Action
	Event  Event
	PageID string // Set for update and skip
}

// Diff classifies each event against the destination index, preserving
// input order. Rows present in the index but absent from the feed produce
// no decision at all: the engine never deletes.
func Diff(events []Event, ix *Index) []Decision {
	decisions := make([]Decision, 0, len(events))

	for _, ev := range events {
		row, ok := ix.Lookup(ev.Identity)
		if !ok {
			decisions = append(decisions, Decision{Action: ActionCreate, Event: ev})
			continue
		}
		if rowChanged(row, ev, ix.props) {
			decisions = append(decisions, Decision{Action: ActionUpdate, Event: ev, PageID: row.PageID})
		} else {
			decisions = append(decisions, Decision{Action: ActionSkip, Event: ev, PageID: row.PageID})
		}
	}

	return decisions
}

// rowChanged compares the destination row against the event field by
// field. Dates are compared as instants, not strings, so a representation
// difference alone never triggers a write.
func rowChanged(row Row, ev Event, props PropertyNames) bool {
	if row.Title != ev.Title {
		return true
	}
	if props.Location != "" && row.Location != ev.Location {
		return true
	}
	dateRange := ev.DateRange()
	return !equalDate(row.Date, &dateRange)
}

func equalDate(a, b *notion.DateValue) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return equalInstant(a.Start, b.Start) && equalInstant(a.End, b.End)
}

// equalInstant compares two date strings as points in time. Date-only and
// timed values never compare equal to each other; unparseable values only
// compare equal verbatim.
func equalInstant(a, b string) bool {
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}

	at, aDateOnly, err := parseDate(a)
	if err != nil {
		return false
	}
	bt, bDateOnly, err := parseDate(b)
	if err != nil {
		return false
	}
	return aDateOnly == bDateOnly && at.Equal(bt)
}

func parseDate(s string) (time.Time, bool, error) {
	if len(s) == len(dateLayout) {
		t, err := time.Parse(dateLayout, s)
		return t, true, err
	}
	t, err := time.Parse(time.RFC3339, s)
	return t, false, err
}
