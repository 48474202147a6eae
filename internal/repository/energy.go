package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/domain"
)

// UpsertEnergyHourly replaces the kWh value for the (device, hour) bucket.
// Replacement, not accumulation: recomputing a bucket from the same raw
// readings must store the same value.
func (r *Repos) UpsertEnergyHourly(ctx context.Context, deviceID int64, hourStart time.Time, kwh float64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO energy_hourly (device_id, hour_start, kwh)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (device_id, hour_start)
		 DO UPDATE SET kwh = EXCLUDED.kwh, created_at = now()`,
		deviceID, hourStart, kwh)
	if err != nil {
		return fmt.Errorf("upsert energy bucket: %w", err)
	}
	return nil
}

func (r *Repos) EnergySince(ctx context.Context, deviceID int64, from time.Time) ([]domain.EnergyHourly, error) {
	var out []domain.EnergyHourly
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, device_id, hour_start, kwh, created_at
		 FROM energy_hourly
		 WHERE device_id = $1 AND hour_start >= $2
		 ORDER BY hour_start ASC`, deviceID, from)
	if err != nil {
		return nil, fmt.Errorf("energy since: %w", err)
	}
	return out, nil
}
