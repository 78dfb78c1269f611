// Command moodctl is the operator CLI for the mood journal: it scores text
// with the server's lexicon, applies store migrations and prints a user's
// calendar or trend aggregation.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/sakif/mood-journal/internal/config"
	"github.com/sakif/mood-journal/internal/logging"
	"github.com/sakif/mood-journal/internal/repository"
	"github.com/sakif/mood-journal/internal/repository/backend"
	"github.com/sakif/mood-journal/internal/sentiment"
)

type CLI struct {
	Lexicon  string `help:"Word list to score with instead of the embedded AFINN list." env:"LEXICON_PATH" type:"existingfile"`
	LogLevel string `help:"Log level." env:"LOG_LEVEL" default:"warn" enum:"debug,info,warn,error"`

	Score    ScoreCmd    `cmd:"" help:"Score text with the sentiment analyzer."`
	Migrate  MigrateCmd  `cmd:"" help:"Apply schema migrations to the configured store."`
	Calendar CalendarCmd `cmd:"" help:"Print a user's mood calendar as JSON."`
	Trends   TrendsCmd   `cmd:"" help:"Print a user's daily sentiment counts as JSON."`
}

// app is what every command's Run receives.
type app struct {
	out       io.Writer
	logger    *slog.Logger
	analyzer  *sentiment.Analyzer
	openStore func(ctx context.Context) (repository.Store, error)
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("moodctl"),
		kong.Description("Mood journal operator tool"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	a, err := newApp(&cli, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := kctx.Run(a); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(cli *CLI, out io.Writer) (*app, error) {
	analyzer := sentiment.Default()
	if cli.Lexicon != "" {
		lex, err := sentiment.LoadLexicon(cli.Lexicon)
		if err != nil {
			return nil, err
		}
		analyzer = sentiment.New(lex)
	}

	return &app{
		out:      out,
		logger:   slog.New(logging.NewHandler(os.Stderr, cli.LogLevel, "text")),
		analyzer: analyzer,
		openStore: func(ctx context.Context) (repository.Store, error) {
			storage, err := config.LoadStorage()
			if err != nil {
				return nil, err
			}
			return backend.Open(ctx, storage.Backend(), nil)
		},
	}, nil
}
