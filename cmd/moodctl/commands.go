package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/mood-journal/internal/service"
)

const storeTimeout = 30 * time.Second

type ScoreCmd struct {
	Text []string `arg:"" help:"Text to score."`
	JSON bool     `help:"Print the full result as JSON."`
}

func (c *ScoreCmd) Run(a *app) error {
	res := a.analyzer.Analyze(strings.Join(c.Text, " "))

	if c.JSON {
		return printJSON(a, res)
	}

	fmt.Fprintf(a.out, "score:    %d\n", res.Score)
	fmt.Fprintf(a.out, "label:    %s\n", res.Label)
	fmt.Fprintf(a.out, "positive: %s\n", strings.Join(res.Positive, ", "))
	fmt.Fprintf(a.out, "negative: %s\n", strings.Join(res.Negative, ", "))
	return nil
}

// MigrateCmd opens the store, which applies pending migrations (goose for
// the SQL stores, indexes for MongoDB), and closes it again.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(a *app) error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	store, err := a.openStore(ctx)
	if err != nil {
		return fmt.Errorf("migrating: %w", err)
	}
	defer store.Close()

	fmt.Fprintln(a.out, "migrations applied")
	return nil
}

type CalendarCmd struct {
	Owner string `required:"" help:"User ID whose entries to aggregate."`
}

func (c *CalendarCmd) Run(a *app) error {
	return withJournal(a, func(ctx context.Context, js *service.JournalService) (any, error) {
		return js.Calendar(ctx, c.Owner)
	})
}

type TrendsCmd struct {
	Owner string `required:"" help:"User ID whose entries to aggregate."`
}

func (c *TrendsCmd) Run(a *app) error {
	return withJournal(a, func(ctx context.Context, js *service.JournalService) (any, error) {
		return js.Trends(ctx, c.Owner)
	})
}

func withJournal(a *app, fn func(context.Context, *service.JournalService) (any, error)) error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	js := service.NewJournalService(store, a.analyzer, nil, a.logger)
	v, err := fn(ctx, js)
	if err != nil {
		return err
	}
	return printJSON(a, v)
}

func printJSON(a *app, v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
