package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/repository"
)

// Batch is the ingest request unit, posted by the device over HTTP or
// published on the telemetry topic.
type Batch struct {
	DeviceUID string `json:"device_uid"`
	// LegacyDeviceID is the key older firmware uses for the same value.
	LegacyDeviceID string         `json:"device_id"`
	DeviceName     string         `json:"device_name"`
	Readings       []BatchReading `json:"readings"`
	// RelayState is logged only when the key is present in the payload;
	// a pointer distinguishes an explicit 0 from absence.
	RelayState *float64 `json:"relay_state"`
}

// BatchReading is one sensor sample inside a batch. Value stays untyped
// because the firmware sometimes quotes numbers.
type BatchReading struct {
	SensorUID string `json:"sensor_uid"`
	Type      string `json:"type"`
	Unit      string `json:"unit"`
	Value     any    `json:"value"`
}

// IngestResult reports what a successful batch persisted.
type IngestResult struct {
	DeviceUID string
	Inserted  int
}

type IngestService struct {
	store repository.Store
}

// Ingest validates and persists one telemetry batch inside a single
// transaction. Readings without a sensor_uid or a numeric value are skipped
// silently; the rest of the batch still commits. Any storage error rolls
// the whole batch back.
func (s *IngestService) Ingest(ctx context.Context, batch Batch) (*IngestResult, error) {
	uid := batch.DeviceUID
	if uid == "" {
		uid = batch.LegacyDeviceID
	}
	if uid == "" || len(batch.Readings) == 0 {
		return nil, ErrBadBatch
	}

	inserted := 0
	err := s.store.WithTx(ctx, func(tx repository.Txn) error {
		deviceID, err := tx.ResolveOrCreateDevice(ctx, uid, batch.DeviceName)
		if err != nil {
			return err
		}

		for _, rd := range batch.Readings {
			value, ok := numericValue(rd.Value)
			if rd.SensorUID == "" || !ok {
				// Noisy sensor entries are dropped without failing the batch.
				continue
			}
			sensorID, err := tx.UpsertSensor(ctx, deviceID, rd.SensorUID, rd.Type, rd.Unit)
			if err != nil {
				return err
			}
			if err := tx.InsertReading(ctx, sensorID, value); err != nil {
				return err
			}
			inserted++
		}

		if batch.RelayState != nil {
			state := 0
			if *batch.RelayState != 0 {
				state = 1
			}
			if err := tx.InsertRelayLog(ctx, deviceID, state); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &IngestResult{DeviceUID: uid, Inserted: inserted}, nil
}

// FromMQTT decodes a telemetry payload from the broker and runs it through
// the same ingest path the HTTP endpoint uses.
func (s *IngestService) FromMQTT(ctx context.Context, payload []byte) error {
	var batch Batch
	if err := json.Unmarshal(payload, &batch); err != nil {
		return fmt.Errorf("decode telemetry payload: %w", err)
	}
	res, err := s.Ingest(ctx, batch)
	if err != nil {
		return err
	}
	log.Debug().Str("device_uid", res.DeviceUID).Int("inserted", res.Inserted).Msg("mqtt batch ingested")
	return nil
}

// numericValue accepts JSON numbers and numeric strings.
func numericValue(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
