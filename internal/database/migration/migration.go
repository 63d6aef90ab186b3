// Package migration creates the notes schema and the change notification
// trigger the live feed listens on.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"noteally/internal/logging"
)

const component = "database"

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_notes",
		SQL: `CREATE TABLE IF NOT EXISTS notes (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  title          TEXT        NOT NULL,
  subject        TEXT        NOT NULL DEFAULT '',
  file_url       TEXT        NOT NULL,
  storage_path   TEXT        NOT NULL UNIQUE,
  user_id        TEXT        NOT NULL,
  uploader_email TEXT        NOT NULL DEFAULT '',
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  likes          INTEGER     NOT NULL DEFAULT 0 CHECK (likes >= 0),
  liked_by       TEXT[]      NOT NULL DEFAULT '{}',
  views          INTEGER     NOT NULL DEFAULT 0 CHECK (views >= 0)
);`,
	},
	{
		Name: "create_index_notes_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_notes_created_at ON notes (created_at DESC, id DESC);`,
	},
	{
		Name: "create_index_notes_user_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_notes_user_id ON notes (user_id, created_at DESC);`,
	},
	{
		Name: "create_function_notify_notes_changed",
		SQL: `CREATE OR REPLACE FUNCTION notify_notes_changed() RETURNS trigger AS $$
BEGIN
  PERFORM pg_notify('notes_changed', TG_OP);
  RETURN NULL;
END;
$$ LANGUAGE plpgsql;`,
	},
	{
		Name: "drop_trigger_notes_changed",
		SQL:  `DROP TRIGGER IF EXISTS notes_changed ON notes;`,
	},
	{
		Name: "create_trigger_notes_changed",
		SQL: `CREATE TRIGGER notes_changed
  AFTER INSERT OR UPDATE OR DELETE ON notes
  FOR EACH STATEMENT EXECUTE FUNCTION notify_notes_changed();`,
	},
}

// EnsureMigrated checks if the 'notes' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *logging.Logger, dbHost string) error {
	start := time.Now()

	log.Info(component, "db_migration_check", map[string]any{
		"status":  "starting",
		"db_host": dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.notes') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		err = fmt.Errorf("failed to check sentinel table: %w", err)
		log.Error(component, "db_migration_failed", err, map[string]any{
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return err
	}

	if exists {
		log.Info(component, "db_migration_skip", map[string]any{
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	return Run(ctx, db, log, dbHost)
}

// Run applies every step unconditionally. Each step is idempotent.
func Run(ctx context.Context, db *sql.DB, log *logging.Logger, dbHost string) error {
	start := time.Now()

	log.Info(component, "db_migration_start", map[string]any{
		"status":  "in_progress",
		"db_host": dbHost,
		"steps":   len(steps),
	})

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error(component, "db_migration_failed", err, map[string]any{
				"migration_step":   step.Name,
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info(component, "db_migration_step", map[string]any{
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	log.Info(component, "db_migration_success", map[string]any{
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}
