package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/domain"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Txn is the write surface available inside an ingest transaction. All of
// its operations either fully commit or fully roll back together.
type Txn interface {
	// ResolveOrCreateDevice returns the id for device_uid, creating the
	// device on first sight. A lost creation race falls back to a lookup.
	ResolveOrCreateDevice(ctx context.Context, deviceUID, name string) (int64, error)

	// UpsertSensor creates or updates the (device, sensor_uid) row and
	// returns its id. Type and unit are last-write-wins.
	UpsertSensor(ctx context.Context, deviceID int64, sensorUID, sensorType, unit string) (int64, error)

	// InsertReading appends one immutable reading with the server clock.
	InsertReading(ctx context.Context, sensorID int64, value float64) error

	// InsertRelayLog appends one relay state log entry.
	InsertRelayLog(ctx context.Context, deviceID int64, state int) error
}

// Store is the persistence surface the services depend on. Implemented by
// Repos; test doubles implement it in-memory.
type Store interface {
	// WithTx runs fn inside one transaction; any error rolls everything back.
	WithTx(ctx context.Context, fn func(Txn) error) error

	DeviceByUID(ctx context.Context, deviceUID string) (*domain.Device, error)
	ListDevices(ctx context.Context) ([]domain.Device, error)
	SetDeviceThreshold(ctx context.Context, deviceID int64, tOn float64) error

	// SensorIDsByType maps sensor type -> sensor id for the device,
	// restricted to the given types.
	SensorIDsByType(ctx context.Context, deviceID int64, types ...string) (map[string]int64, error)
	ReadingsInWindow(ctx context.Context, sensorIDs []int64, from, to time.Time) ([]domain.Reading, error)
	LatestReadings(ctx context.Context, deviceID int64) ([]domain.SensorReading, error)
	ReadingHistory(ctx context.Context, deviceID int64, limit int) ([]domain.SensorReading, error)

	UpsertEnergyHourly(ctx context.Context, deviceID int64, hourStart time.Time, kwh float64) error
	EnergySince(ctx context.Context, deviceID int64, from time.Time) ([]domain.EnergyHourly, error)

	UpsertRelayDesired(ctx context.Context, deviceID int64, mode string, state *int) error
	ReadAndClearRelayTimer(ctx context.Context, deviceID int64) (*domain.RelayDesired, error)
	LatestRelayLog(ctx context.Context, deviceID int64) (*domain.RelayLog, error)
}

// Repos implements Store on PostgreSQL.
type Repos struct {
	db *sqlx.DB
}

var _ Store = (*Repos)(nil)

func New(db *sqlx.DB) *Repos { return &Repos{db: db} }

func (r *Repos) WithTx(ctx context.Context, fn func(Txn) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&txn{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// txn implements Txn over an open sqlx transaction.
type txn struct {
	tx *sqlx.Tx
}
