package db

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// getMigrationsFS returns the migration source. The embedded copy is
// used everywhere except when WALLSWEEP_MIGRATIONS_DIR points at a
// directory, which lets migration tests and local schema work run
// against files on disk without rebuilding.
func getMigrationsFS() (fs.FS, error) {
	if dir := os.Getenv("WALLSWEEP_MIGRATIONS_DIR"); dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to stat migrations dir %q: %w", dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("migrations path %q is not a directory", dir)
		}
		return os.DirFS(dir), nil
	}
	return fs.Sub(embeddedMigrations, "migrations")
}
