package account

import (
	"embed"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

//go:embed views
var viewsFS embed.FS

// GetViewsFS returns the bundled account templates
func GetViewsFS() embed.FS {
	return viewsFS
}
