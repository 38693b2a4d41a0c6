package sync

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/notisync/notisync/internal/notion"
)

// Store is the destination database as seen by the engine
type Store interface {
	ListPages(ctx context.Context) ([]notion.Page, error)
	CreatePage(ctx context.Context, properties notion.Properties) (string, error)
	UpdatePage(ctx context.Context, pageID string, properties notion.Properties) error
}

// Failure records one decision that could not be applied
type Failure struct {
	Identity string
	Action   Action
	Err      error
}

// Summary is the outcome of one synchronization pass
type Summary struct {
	Created    int
	Updated    int
	Skipped    int
	Failed     int
	Malformed  int
	Duplicates int
	DryRun     bool
	Failures   []Failure
}

func (s Summary) String() string {
	return fmt.Sprintf("created %d, updated %d, skipped %d, failed %d",
		s.Created, s.Updated, s.Skipped, s.Failed)
}

func (s *Summary) count(a Action) {
	switch a {
	case ActionCreate:
		s.Created++
	case ActionUpdate:
		s.Updated++
	case ActionSkip:
		s.Skipped++
	}
}

// Executor applies sync decisions against the store
type Executor struct {
	store       Store
	props       PropertyNames
	parallelism int
	dryRun      bool
}

// NewExecutor creates an executor with the given write fan-out
func NewExecutor(store Store, props PropertyNames, parallelism int, dryRun bool) *Executor {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Executor{
		store:       store,
		props:       props,
		parallelism: parallelism,
		dryRun:      dryRun,
	}
}

type applyResult struct {
	decision Decision
	err      error
}

// Apply executes every decision. Writes run concurrently up to the
// configured fan-out and each one succeeds or fails on its own. Once ctx
// is cancelled no further writes start, in-flight ones are drained, and
// nothing is retried.
func (x *Executor) Apply(ctx context.Context, decisions []Decision) Summary {
	summary := Summary{DryRun: x.dryRun}

	var writes []Decision
	for _, d := range decisions {
		switch d.Action {
		case ActionSkip:
			log.WithField("identity", d.Event.Identity).Debug("up to date")
			summary.count(d.Action)
		case ActionCreate, ActionUpdate:
			if x.dryRun {
				log.Infof("[dry-run] would %s event %q", d.Action, d.Event.Title)
				summary.count(d.Action)
				continue
			}
			writes = append(writes, d)
		}
	}

	if len(writes) == 0 {
		return summary
	}

	sem := make(chan struct{}, x.parallelism)
	results := make(chan applyResult, len(writes))
	launched := 0

dispatch:
	for _, d := range writes {
		if ctx.Err() != nil {
			log.Warnf("pass cancelled, %d writes not applied", len(writes)-launched)
			break
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			log.Warnf("pass cancelled, %d writes not applied", len(writes)-launched)
			break dispatch
		}
		launched++
		go func(d Decision) {
			defer func() { <-sem }()
			results <- applyResult{decision: d, err: x.applyOne(ctx, d)}
		}(d)
	}

	for i := 0; i < launched; i++ {
		res := <-results
		if res.err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{
				Identity: res.decision.Event.Identity,
				Action:   res.decision.Action,
				Err:      res.err,
			})
			log.WithField("identity", res.decision.Event.Identity).
				Errorf("%s failed: %v", res.decision.Action, res.err)
			continue
		}
		summary.count(res.decision.Action)
	}

	return summary
}

func (x *Executor) applyOne(ctx context.Context, d Decision) error {
	properties := writeProperties(d.Event, x.props)

	switch d.Action {
	case ActionCreate:
		log.Infof("Creating event %q", d.Event.Title)
		_, err := x.store.CreatePage(ctx, properties)
		return err
	case ActionUpdate:
		log.Infof("Updating event %q", d.Event.Title)
		return x.store.UpdatePage(ctx, d.PageID, properties)
	}
	return nil
}

// writeProperties builds the destination payload for one event. The
// location property is always included when configured: an event that
// lost its location must have the stale value cleared, not kept.
func writeProperties(ev Event, props PropertyNames) notion.Properties {
	properties := notion.Properties{
		props.Title:    notion.NewTitle(ev.Title),
		props.Identity: notion.NewText(ev.Identity),
		props.Date:     notion.NewDate(ev.DateRange()),
	}
	if props.Location != "" {
		properties[props.Location] = notion.NewText(ev.Location)
	}
	return properties
}
