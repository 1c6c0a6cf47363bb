package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/mutker/barologd/internal/errors"
	"codeberg.org/mutker/barologd/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

type sqliteRepository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewRepository(cfg Config) (Repository, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	logger.Debug().Msgf("Initializing sample repository at: %s", cfg.DBPath)

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	// Cascade delete of diagnostics requires foreign keys on.
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=on")
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	return &sqliteRepository{
		db: db,
	}, nil
}

func (r *sqliteRepository) InsertSampleWithDiagnostics(ctx context.Context, sample *Sample, diagnostics *Diagnostics) error {
	errFactory := errors.New()

	if sample == nil || diagnostics == nil {
		return errFactory.New(ErrInvalidSample)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
        INSERT INTO pressure_samples (timestamp_utc_ms, pressure_hpa, mode, result)
        VALUES (?, ?, ?, ?)
    `,
		sample.TimestampUTCMS,
		nullFloat(sample.PressureHpa),
		string(sample.Mode),
		string(sample.Result),
	)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	sampleID, err := res.LastInsertId()
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO sample_diagnostics (
            sample_id, recorded_at_utc_ms, duration_ms,
            is_doze_mode, is_power_save_mode,
            battery_percent, app_standby_bucket, stop_reason,
            failure_class, failure_message,
            worker_run_id, run_attempt_count
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `,
		sampleID,
		diagnostics.RecordedAtUTCMS,
		diagnostics.DurationMS,
		boolToInt(diagnostics.DozeMode),
		boolToInt(diagnostics.PowerSaveMode),
		nullInt(diagnostics.BatteryPercent),
		nullInt(diagnostics.StandbyBucket),
		nullString(diagnostics.StopReason),
		nullString(diagnostics.FailureClass),
		nullString(diagnostics.FailureMessage),
		diagnostics.WorkerRunID,
		diagnostics.RunAttemptCount,
	)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}
	committed = true

	sample.ID = sampleID
	diagnostics.SampleID = sampleID

	return nil
}

func (r *sqliteRepository) InsertEvent(ctx context.Context, event *Event) error {
	errFactory := errors.New()

	if event == nil {
		return errFactory.New(ErrInvalidSample)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `
        INSERT INTO app_events (timestamp_utc_ms, type, detail)
        VALUES (?, ?, ?)
    `,
		event.TimestampUTCMS,
		string(event.Type),
		event.Detail,
	)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	if id, err := res.LastInsertId(); err == nil {
		event.ID = id
	}

	return nil
}

func (r *sqliteRepository) SamplesForRange(ctx context.Context, startUTCMS, endUTCMS int64) ([]Sample, error) {
	errFactory := errors.New()

	rows, err := r.db.QueryContext(ctx, `
        SELECT
            s.id, s.timestamp_utc_ms, s.pressure_hpa, s.mode, s.result,
            d.recorded_at_utc_ms, d.duration_ms,
            d.is_doze_mode, d.is_power_save_mode,
            d.battery_percent, d.app_standby_bucket, d.stop_reason,
            d.failure_class, d.failure_message,
            d.worker_run_id, d.run_attempt_count
        FROM pressure_samples s
        LEFT JOIN sample_diagnostics d ON d.sample_id = s.id
        WHERE s.timestamp_utc_ms >= ? AND s.timestamp_utc_ms < ?
        ORDER BY s.timestamp_utc_ms ASC
    `, startUTCMS, endUTCMS)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var (
			s            Sample
			pressure     sql.NullFloat64
			mode, result string

			recordedAt      sql.NullInt64
			durationMS      sql.NullInt64
			dozeMode        sql.NullInt64
			powerSaveMode   sql.NullInt64
			batteryPercent  sql.NullInt64
			standbyBucket   sql.NullInt64
			stopReason      sql.NullString
			failureClass    sql.NullString
			failureMessage  sql.NullString
			workerRunID     sql.NullString
			runAttemptCount sql.NullInt64
		)

		if err := rows.Scan(
			&s.ID, &s.TimestampUTCMS, &pressure, &mode, &result,
			&recordedAt, &durationMS,
			&dozeMode, &powerSaveMode,
			&batteryPercent, &standbyBucket, &stopReason,
			&failureClass, &failureMessage,
			&workerRunID, &runAttemptCount,
		); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}

		s.Mode = SampleMode(mode)
		s.Result = SampleResult(result)
		if pressure.Valid {
			v := pressure.Float64
			s.PressureHpa = &v
		}
		if recordedAt.Valid {
			s.Diagnostics = &Diagnostics{
				SampleID:        s.ID,
				RecordedAtUTCMS: recordedAt.Int64,
				DurationMS:      durationMS.Int64,
				DozeMode:        dozeMode.Int64 != 0,
				PowerSaveMode:   powerSaveMode.Int64 != 0,
				BatteryPercent:  intPtr(batteryPercent),
				StandbyBucket:   intPtr(standbyBucket),
				StopReason:      strPtr(stopReason),
				FailureClass:    strPtr(failureClass),
				FailureMessage:  strPtr(failureMessage),
				WorkerRunID:     workerRunID.String,
				RunAttemptCount: int(runAttemptCount.Int64),
			}
		}

		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return samples, nil
}

func (r *sqliteRepository) EventsForRange(ctx context.Context, startUTCMS, endUTCMS int64) ([]Event, error) {
	errFactory := errors.New()

	rows, err := r.db.QueryContext(ctx, `
        SELECT id, timestamp_utc_ms, type, detail
        FROM app_events
        WHERE timestamp_utc_ms >= ? AND timestamp_utc_ms < ?
        ORDER BY timestamp_utc_ms ASC
    `, startUTCMS, endUTCMS)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e         Event
			eventType string
			detail    sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.TimestampUTCMS, &eventType, &detail); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		e.Type = EventType(eventType)
		e.Detail = detail.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return events, nil
}

func (r *sqliteRepository) DistinctDays(ctx context.Context, limit int) ([]string, error) {
	errFactory := errors.New()

	rows, err := r.db.QueryContext(ctx, `
        SELECT DISTINCT date(timestamp_utc_ms / 1000, 'unixepoch', 'localtime')
        FROM pressure_samples
        ORDER BY 1 DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return days, nil
}

func (r *sqliteRepository) DeleteSample(ctx context.Context, id int64) error {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM pressure_samples WHERE id = ?`, id); err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *sqliteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}
	return nil
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func strPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
