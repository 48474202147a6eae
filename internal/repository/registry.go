package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/domain"
)

func (t *txn) ResolveOrCreateDevice(ctx context.Context, deviceUID, name string) (int64, error) {
	var id int64
	err := sqlx.GetContext(ctx, t.tx, &id,
		`SELECT id FROM devices WHERE device_uid = $1`, deviceUID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup device %q: %w", deviceUID, err)
	}

	if name == "" {
		name = deviceUID
	}
	err = sqlx.GetContext(ctx, t.tx, &id,
		`INSERT INTO devices (device_uid, name) VALUES ($1, $2)
		 ON CONFLICT (device_uid) DO NOTHING
		 RETURNING id`, deviceUID, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("create device %q: %w", deviceUID, err)
	}

	// Lost a first-seen race: another request inserted the row between our
	// lookup and insert. It exists now, so look it up again.
	err = sqlx.GetContext(ctx, t.tx, &id,
		`SELECT id FROM devices WHERE device_uid = $1`, deviceUID)
	if err != nil {
		return 0, fmt.Errorf("re-lookup device %q: %w", deviceUID, err)
	}
	return id, nil
}

func (t *txn) UpsertSensor(ctx context.Context, deviceID int64, sensorUID, sensorType, unit string) (int64, error) {
	var id int64
	err := sqlx.GetContext(ctx, t.tx, &id,
		`INSERT INTO sensors (device_id, sensor_uid, type, unit)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (device_id, sensor_uid)
		 DO UPDATE SET type = EXCLUDED.type, unit = EXCLUDED.unit
		 RETURNING id`, deviceID, sensorUID, sensorType, unit)
	if err != nil {
		return 0, fmt.Errorf("upsert sensor %q: %w", sensorUID, err)
	}
	return id, nil
}

func (r *Repos) DeviceByUID(ctx context.Context, deviceUID string) (*domain.Device, error) {
	var dev domain.Device
	err := r.db.GetContext(ctx, &dev,
		`SELECT id, device_uid, COALESCE(name, device_uid) AS name, t_on, created_at
		 FROM devices WHERE device_uid = $1`, deviceUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get device %q: %w", deviceUID, err)
	}
	return &dev, nil
}

func (r *Repos) ListDevices(ctx context.Context) ([]domain.Device, error) {
	var out []domain.Device
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, device_uid, COALESCE(name, device_uid) AS name, t_on, created_at
		 FROM devices ORDER BY id`)
	return out, err
}

func (r *Repos) SetDeviceThreshold(ctx context.Context, deviceID int64, tOn float64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE devices SET t_on = $1 WHERE id = $2`, tOn, deviceID)
	return err
}

func (r *Repos) SensorIDsByType(ctx context.Context, deviceID int64, types ...string) (map[string]int64, error) {
	query, args, err := sqlx.In(
		`SELECT id, type FROM sensors WHERE device_id = ? AND type IN (?)`,
		deviceID, types)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ID   int64  `db:"id"`
		Type string `db:"type"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list sensors by type: %w", err)
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Type] = row.ID
	}
	return out, nil
}
