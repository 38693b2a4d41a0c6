package sync

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/notisync/notisync/internal/feed"
)

// ErrMalformedEvent marks a feed event missing its identity or start time
var ErrMalformedEvent = errors.New("malformed event")

// FilterWindow keeps events whose start date falls within
// [now-dayPast, now+dayFuture], both edges inclusive, at day granularity.
// Events without a start time are dropped: they have no window position
// and no usable date range downstream.
func FilterWindow(events []feed.Event, now time.Time, dayPast, dayFuture int) []feed.Event {
	earliest := dateOnly(now.AddDate(0, 0, -dayPast))
	latest := dateOnly(now.AddDate(0, 0, dayFuture))

	var kept []feed.Event
	for _, ev := range events {
		if ev.Start.IsZero() {
			log.WithField("uid", ev.UID).Debug("event has no start time, excluded")
			continue
		}
		start := dateOnly(ev.Start)
		if start.Before(earliest) || start.After(latest) {
			continue
		}
		kept = append(kept, ev)
	}
	return kept
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Normalize converts raw events into their destination shape. Events
// without a UID cannot be matched across runs and are dropped; the second
// return value counts them. When the feed repeats a UID the last
// occurrence wins.
func Normalize(events []feed.Event) ([]Event, int) {
	malformed := 0
	byIdentity := make(map[string]int, len(events))
	var normalized []Event

	for _, raw := range events {
		ev, err := normalizeEvent(raw)
		if err != nil {
			malformed++
			log.WithField("summary", raw.Summary).Warnf("dropping event: %v", err)
			continue
		}
		if i, ok := byIdentity[ev.Identity]; ok {
			log.WithField("identity", ev.Identity).Debug("feed repeats identity, last occurrence wins")
			normalized[i] = ev
			continue
		}
		byIdentity[ev.Identity] = len(normalized)
		normalized = append(normalized, ev)
	}

	return normalized, malformed
}

func normalizeEvent(raw feed.Event) (Event, error) {
	if raw.UID == "" {
		return Event{}, fmt.Errorf("%w: no UID", ErrMalformedEvent)
	}
	if raw.Start.IsZero() {
		return Event{}, fmt.Errorf("%w: no start time", ErrMalformedEvent)
	}

	return Event{
		Identity: raw.UID,
		Title:    raw.Summary,
		Start:    raw.Start,
		End:      raw.End,
		AllDay:   raw.AllDay,
		Location: raw.Location,
	}, nil
}
