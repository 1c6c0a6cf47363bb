package store

import (
	"database/sql"

	"codeberg.org/mutker/barologd/internal/errors"
)

// initSchema creates the sample, diagnostics and event tables. Columns are
// only ever added, never altered; historical rows read back with NULL/0 for
// columns they predate.
func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS pressure_samples (
            id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
            timestamp_utc_ms INTEGER NOT NULL,
            pressure_hpa REAL,
            mode TEXT NOT NULL,
            result TEXT NOT NULL
        );

        CREATE INDEX IF NOT EXISTS idx_pressure_samples_timestamp
            ON pressure_samples(timestamp_utc_ms);

        CREATE TABLE IF NOT EXISTS sample_diagnostics (
            id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
            sample_id INTEGER NOT NULL,
            recorded_at_utc_ms INTEGER NOT NULL,
            duration_ms INTEGER NOT NULL,
            is_doze_mode INTEGER NOT NULL,
            is_power_save_mode INTEGER NOT NULL,
            battery_percent INTEGER,
            app_standby_bucket INTEGER,
            stop_reason TEXT,
            failure_class TEXT,
            failure_message TEXT,
            worker_run_id TEXT NOT NULL,
            run_attempt_count INTEGER NOT NULL,
            FOREIGN KEY(sample_id) REFERENCES pressure_samples(id) ON DELETE CASCADE
        );

        CREATE UNIQUE INDEX IF NOT EXISTS idx_sample_diagnostics_sample_id
            ON sample_diagnostics(sample_id);

        CREATE TABLE IF NOT EXISTS app_events (
            id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
            timestamp_utc_ms INTEGER NOT NULL,
            type TEXT NOT NULL,
            detail TEXT
        );

        CREATE INDEX IF NOT EXISTS idx_app_events_timestamp
            ON app_events(timestamp_utc_ms);
    `)
	if err != nil {
		return errors.New().Wrap(ErrSchemaInitFailed, err)
	}

	return nil
}
