package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/domain"
)

// UpsertRelayDesired writes the whole (mode, state) tuple in one statement.
// Callers pass state=nil for auto mode.
func (r *Repos) UpsertRelayDesired(ctx context.Context, deviceID int64, mode string, state *int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO relay_desired (device_id, mode, state, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (device_id)
		 DO UPDATE SET mode = EXCLUDED.mode, state = EXCLUDED.state, updated_at = now()`,
		deviceID, mode, state)
	if err != nil {
		return fmt.Errorf("upsert relay desired: %w", err)
	}
	return nil
}

// ReadAndClearRelayTimer returns the desired relay row, clearing the
// timer_enable flag in the same statement when it was set. The returned
// TimerEnable reports the value before the clear, so the flag is delivered
// to exactly one reader even though the device polls every second.
// Returns ErrNotFound when the device has no relay_desired row yet.
func (r *Repos) ReadAndClearRelayTimer(ctx context.Context, deviceID int64) (*domain.RelayDesired, error) {
	var row domain.RelayDesired

	// Conditional one-shot: matches only while the flag is set, and reports
	// the pre-clear value back.
	err := r.db.GetContext(ctx, &row,
		`UPDATE relay_desired
		 SET timer_enable = FALSE
		 WHERE device_id = $1 AND timer_enable
		 RETURNING device_id, mode, state, TRUE AS timer_enable,
		           timer_duration_min, target_temp, updated_at`, deviceID)
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("clear relay timer: %w", err)
	}

	err = r.db.GetContext(ctx, &row,
		`SELECT device_id, mode, state, timer_enable, timer_duration_min, target_temp, updated_at
		 FROM relay_desired WHERE device_id = $1`, deviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read relay desired: %w", err)
	}
	return &row, nil
}

func (t *txn) InsertRelayLog(ctx context.Context, deviceID int64, state int) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO relay_logs (device_id, state) VALUES ($1, $2)`, deviceID, state)
	if err != nil {
		return fmt.Errorf("insert relay log: %w", err)
	}
	return nil
}

func (r *Repos) LatestRelayLog(ctx context.Context, deviceID int64) (*domain.RelayLog, error) {
	var row domain.RelayLog
	err := r.db.GetContext(ctx, &row,
		`SELECT id, device_id, state, created_at
		 FROM relay_logs
		 WHERE device_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`, deviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest relay log: %w", err)
	}
	return &row, nil
}
