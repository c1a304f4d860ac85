package account

import (
	"context"
	"io/fs"
	"sort"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

const migrationsDir = "data/sql/migrations"

// RunMigrations applies the embedded up migrations in filename order.
// Every statement is idempotent so running it on an already migrated
// database is a no-op.
func RunMigrations(ctx context.Context, db *bun.DB) error {
	names, err := fs.Glob(migrationsFS, migrationsDir+"/*.up.sql")
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to list migrations")
	}
	sort.Strings(names)

	for _, name := range names {
		raw, err := fs.ReadFile(migrationsFS, name)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to read migration").
				WithMetadata(map[string]any{"migration": name})
		}

		for _, stmt := range strings.Split(string(raw), ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}

			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return errors.Wrap(err, errors.CategoryInternal, "failed to apply migration").
					WithMetadata(map[string]any{"migration": name})
			}
		}
	}

	return nil
}
