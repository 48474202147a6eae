package service

import (
	"errors"

	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/repository"
)

// Sentinel errors the HTTP layer maps onto status codes.
var (
	// ErrBadBatch rejects an ingest request whose top-level shape is invalid.
	ErrBadBatch = errors.New("missing device_uid or readings")

	// ErrDeviceNotFound reports an unknown device_uid.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrSensorsMissing reports a device without both a voltage-type and a
	// current-type sensor. Expected for devices that have not reported yet.
	ErrSensorsMissing = errors.New("voltage/current sensors missing")

	// ErrStateRequired rejects manual relay mode without an explicit state.
	ErrStateRequired = errors.New("state required for manual mode")

	// ErrInvalidMode rejects relay modes other than auto/manual.
	ErrInvalidMode = errors.New("invalid relay mode")
)

type Services struct {
	Store  repository.Store
	Ingest *IngestService
	Energy *EnergyService
	Relay  *RelayService
}

func New(store repository.Store) *Services {
	return &Services{
		Store:  store,
		Ingest: &IngestService{store: store},
		Energy: &EnergyService{store: store},
		Relay:  &RelayService{store: store},
	}
}
