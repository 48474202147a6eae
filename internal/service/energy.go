package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/domain"
	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/repository"
)

// sampleIntervalSec is the firmware's nominal sampling cadence. Energy is
// integrated with this fixed interval, not with measured timestamp deltas,
// so irregular sampling skews the totals. Known limitation; changing it to
// delta-time integration changes every stored value.
const sampleIntervalSec = 2.0

// RecomputeResult summarises one aggregation run.
type RecomputeResult struct {
	DeviceUID string  `json:"device_uid"`
	Hours     int     `json:"hours"`
	TotalKWh  float64 `json:"total_kwh"`
}

type EnergyService struct {
	store repository.Store
}

// Recompute rebuilds the hourly energy buckets for a device from the raw
// voltage/current readings of the trailing window. Buckets are replaced,
// never incremented, so overlapping runs stay idempotent.
//
// Unknown devices and devices without both sensor types return the
// ErrDeviceNotFound / ErrSensorsMissing sentinels; batch callers treat both
// as a skip, not a failure.
func (s *EnergyService) Recompute(ctx context.Context, deviceUID string, lookbackHours float64) (*RecomputeResult, error) {
	dev, err := s.store.DeviceByUID(ctx, deviceUID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, err
	}

	ids, err := s.store.SensorIDsByType(ctx, dev.ID, "voltage", "current")
	if err != nil {
		return nil, err
	}
	voltID, okV := ids["voltage"]
	currID, okC := ids["current"]
	if !okV || !okC {
		return nil, ErrSensorsMissing
	}

	now := time.Now().UTC()
	from := now.Add(-time.Duration(lookbackHours * float64(time.Hour)))
	rows, err := s.store.ReadingsInWindow(ctx, []int64{voltID, currID}, from, now)
	if err != nil {
		return nil, err
	}

	var voltage, current []domain.Reading
	for _, r := range rows {
		switch r.SensorID {
		case voltID:
			voltage = append(voltage, r)
		case currID:
			current = append(current, r)
		}
	}

	res := &RecomputeResult{DeviceUID: deviceUID}
	for _, bucket := range BucketHourlyEnergy(voltage, current) {
		if err := s.store.UpsertEnergyHourly(ctx, dev.ID, bucket.HourStart, bucket.KWh); err != nil {
			return nil, err
		}
		res.Hours++
		res.TotalKWh += bucket.KWh
	}
	return res, nil
}

// HourBucket is one clock hour's accumulated energy.
type HourBucket struct {
	HourStart time.Time
	KWh       float64
}

// BucketHourlyEnergy pairs voltage and current samples by exact timestamp,
// converts each pair's instantaneous power to an energy contribution over
// the fixed sampling interval, and sums contributions into UTC clock-hour
// buckets, returned in hour order.
//
// A timestamp carrying only one of the two samples contributes nothing:
// sensors are assumed to sample synchronously, so there is no interpolation
// and no carry-forward. Duplicate samples at the same timestamp collapse to
// the last one seen.
func BucketHourlyEnergy(voltage, current []domain.Reading) []HourBucket {
	voltAt := make(map[int64]float64, len(voltage))
	for _, r := range voltage {
		voltAt[r.CreatedAt.UnixNano()] = r.Value
	}
	currAt := make(map[int64]float64, len(current))
	for _, r := range current {
		currAt[r.CreatedAt.UnixNano()] = r.Value
	}

	paired := make([]int64, 0, len(voltAt))
	for ts := range voltAt {
		if _, ok := currAt[ts]; ok {
			paired = append(paired, ts)
		}
	}
	// Stable accumulation order keeps recomputed sums bit-identical.
	sort.Slice(paired, func(i, j int) bool { return paired[i] < paired[j] })

	sums := make(map[time.Time]float64)
	for _, ts := range paired {
		watts := voltAt[ts] * currAt[ts]
		kwh := watts * sampleIntervalSec / 3_600_000
		hour := time.Unix(0, ts).UTC().Truncate(time.Hour)
		sums[hour] += kwh
	}

	out := make([]HourBucket, 0, len(sums))
	for hour, kwh := range sums {
		out = append(out, HourBucket{HourStart: hour, KWh: kwh})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HourStart.Before(out[j].HourStart) })
	return out
}
