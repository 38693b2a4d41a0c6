package sync

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/notisync/notisync/internal/feed"
)

// Clock provides the current time; injectable for tests
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// Options configure a Syncer
type Options struct {
	Properties  PropertyNames
	DayPast     int
	DayFuture   int
	Parallelism int
	DryRun      bool
	Clock       Clock // Defaults to the wall clock
}

// Syncer runs one-way synchronization passes from a feed into the store.
// It holds no state between passes: every pass relists the destination
// and rebuilds the index, so local belief can never drift from it.
type Syncer struct {
	source feed.Source
	store  Store
	opts   Options
	clock  Clock
}

// New creates a Syncer over live collaborators
func New(source feed.Source, store Store, opts Options) *Syncer {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return &Syncer{
		source: source,
		store:  store,
		opts:   opts,
		clock:  clock,
	}
}

// Run performs one synchronization pass: fetch, filter, normalize, index,
// diff, apply. A feed or listing failure aborts the pass; individual
// write failures are recorded in the summary and do not.
func (s *Syncer) Run(ctx context.Context) (Summary, error) {
	raw, err := s.source.Events(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch feed: %w", err)
	}
	log.WithField("events", len(raw)).Info("Fetched calendar feed")

	inWindow := FilterWindow(raw, s.clock.Now(), s.opts.DayPast, s.opts.DayFuture)
	events, malformed := Normalize(inWindow)

	pages, err := s.store.ListPages(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list destination rows: %w", err)
	}
	log.WithField("rows", len(pages)).Info("Listed destination rows")

	ix := BuildIndex(pages, s.opts.Properties)
	decisions := Diff(events, ix)

	executor := NewExecutor(s.store, s.opts.Properties, s.opts.Parallelism, s.opts.DryRun)
	summary := executor.Apply(ctx, decisions)
	summary.Malformed = malformed
	summary.Duplicates = ix.Duplicates

	log.Infof("Pass finished: %s", summary)
	return summary, nil
}
