package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// RunSqliteMigrations applies all embedded SQLite files, one statement at a time.
func RunSqliteMigrations(ctx context.Context, db *sql.DB) error {
	files, err := readMigrations(SqliteFS, "sqlite")
	if err != nil {
		return err
	}

	for _, f := range files {
		if err := validateNoSemicolonInStrings(f.sql); err != nil {
			return fmt.Errorf("validate migration %s: %w", f.name, err)
		}
		for _, stmt := range splitStatements(f.sql) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", f.name, err)
			}
		}
	}

	return nil
}
