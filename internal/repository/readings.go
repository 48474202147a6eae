package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/domain"
)

func (t *txn) InsertReading(ctx context.Context, sensorID int64, value float64) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO readings (sensor_id, value) VALUES ($1, $2)`, sensorID, value)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func (r *Repos) ReadingsInWindow(ctx context.Context, sensorIDs []int64, from, to time.Time) ([]domain.Reading, error) {
	query, args, err := sqlx.In(
		`SELECT id, sensor_id, value, created_at
		 FROM readings
		 WHERE sensor_id IN (?) AND created_at >= ? AND created_at <= ?
		 ORDER BY created_at ASC`, sensorIDs, from, to)
	if err != nil {
		return nil, err
	}

	var out []domain.Reading
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("readings in window: %w", err)
	}
	return out, nil
}

// LatestReadings returns the most recent reading of every sensor on the
// device, ordered by sensor_uid.
func (r *Repos) LatestReadings(ctx context.Context, deviceID int64) ([]domain.SensorReading, error) {
	var out []domain.SensorReading
	err := r.db.SelectContext(ctx, &out,
		`SELECT * FROM (
		     SELECT DISTINCT ON (s.id)
		            r.id, s.sensor_uid, s.type, s.unit, r.value, r.created_at
		     FROM sensors s
		     JOIN readings r ON r.sensor_id = s.id
		     WHERE s.device_id = $1
		     ORDER BY s.id, r.created_at DESC, r.id DESC
		 ) latest
		 ORDER BY latest.sensor_uid ASC`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("latest readings: %w", err)
	}
	return out, nil
}

func (r *Repos) ReadingHistory(ctx context.Context, deviceID int64, limit int) ([]domain.SensorReading, error) {
	var out []domain.SensorReading
	err := r.db.SelectContext(ctx, &out,
		`SELECT r.id, s.sensor_uid, s.type, s.unit, r.value, r.created_at
		 FROM readings r
		 JOIN sensors s ON s.id = r.sensor_id
		 WHERE s.device_id = $1
		 ORDER BY r.created_at DESC
		 LIMIT $2`, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return out, nil
}
