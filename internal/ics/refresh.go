package ics

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	appLog "timelane/internal/log"
	"timelane/internal/model"
)

// Sink receives the freshly imported items of one feed, replacing whatever
// that feed contributed before.
type Sink interface {
	ReplaceSource(source string, items []model.Item) error
}

// Refresher re-imports a set of feeds into a Sink.
type Refresher struct {
	fetcher *Fetcher
	sources []Source
	sink    Sink
}

func NewRefresher(fetcher *Fetcher, sources []Source, sink Sink) *Refresher {
	return &Refresher{fetcher: fetcher, sources: sources, sink: sink}
}

// RefreshOnce fetches and parses every feed and hands the items to the sink.
// A feed that fails to fetch or parse keeps its previous items. The number
// of feeds updated is returned together with the individual errors.
func (r *Refresher) RefreshOnce(ctx context.Context) (int, []error) {
	results, errs := r.fetcher.FetchAll(ctx, r.sources)

	updated := 0
	for _, res := range results {
		items, err := ParseItems(res.Source, res.Body)
		if err != nil {
			errs = append(errs, fmt.Errorf("parse %s: %w", res.Source.ID, err))
			continue
		}
		if err := r.sink.ReplaceSource(res.Source.ID, items); err != nil {
			appLog.Error("ics import rejected", err, "id", res.Source.ID)
			errs = append(errs, fmt.Errorf("import %s: %w", res.Source.ID, err))
			continue
		}
		updated++
	}

	appLog.Info("ics refresh completed", "feeds", len(r.sources), "updated", updated, "error_count", len(errs))
	return updated, errs
}

// Start runs RefreshOnce on the given cron schedule until ctx is canceled.
func (r *Refresher) Start(ctx context.Context, schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { r.RefreshOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	c.Start()
	appLog.Info("ics refresh scheduled", "schedule", schedule, "feeds", len(r.sources))

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		appLog.Debug("ics refresh scheduler stopped")
	}()
	return nil
}
