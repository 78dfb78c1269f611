// Package backend opens the repository.Store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"

	"github.com/sakif/mood-journal/internal/repository"
	"github.com/sakif/mood-journal/internal/repository/mongostore"
	"github.com/sakif/mood-journal/internal/repository/postgres"
	"github.com/sakif/mood-journal/internal/repository/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Options struct {
	Driver        string
	SQLitePath    string
	PostgresURL   string
	MongoURI      string
	MongoDatabase string
}

// Open connects to the configured backend and runs its migrations.
func Open(ctx context.Context, opts Options, clock clockwork.Clock) (repository.Store, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		if opts.SQLitePath != ":memory:" {
			if dir := filepath.Dir(opts.SQLitePath); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("creating data directory: %w", err)
				}
			}
		}
		return sqlite.New(ctx, opts.SQLitePath, clock)

	case DriverPostgres:
		if opts.PostgresURL == "" {
			return nil, fmt.Errorf("driver %q requires DATABASE_URL", opts.Driver)
		}
		return postgres.New(ctx, opts.PostgresURL, clock)

	case DriverMongo:
		if opts.MongoURI == "" {
			return nil, fmt.Errorf("driver %q requires MONGO_URI", opts.Driver)
		}
		return mongostore.New(ctx, opts.MongoURI, opts.MongoDatabase, clock)

	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
