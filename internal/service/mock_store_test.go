package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/domain"
	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/repository"
)

var errInjected = errors.New("injected store failure")

// memStore is an in-memory repository.Store with real transaction
// semantics: WithTx snapshots the state and restores it when fn fails.
type memStore struct {
	nextID    int64
	devices   []domain.Device
	sensors   []domain.Sensor
	readings  []domain.Reading
	relayLogs []domain.RelayLog
	energy    map[string]float64
	desired   map[int64]domain.RelayDesired

	failReadings bool // InsertReading fails when set
}

func newMemStore() *memStore {
	return &memStore{
		energy:  make(map[string]float64),
		desired: make(map[int64]domain.RelayDesired),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func energyKey(deviceID int64, hour time.Time) string {
	return fmt.Sprintf("%d/%s", deviceID, hour.UTC().Format(time.RFC3339))
}

func (m *memStore) WithTx(ctx context.Context, fn func(repository.Txn) error) error {
	devices := append([]domain.Device(nil), m.devices...)
	sensors := append([]domain.Sensor(nil), m.sensors...)
	readings := append([]domain.Reading(nil), m.readings...)
	relayLogs := append([]domain.RelayLog(nil), m.relayLogs...)
	nextID := m.nextID

	if err := fn(&memTxn{m}); err != nil {
		m.devices, m.sensors, m.readings, m.relayLogs, m.nextID =
			devices, sensors, readings, relayLogs, nextID
		return err
	}
	return nil
}

type memTxn struct {
	m *memStore
}

func (t *memTxn) ResolveOrCreateDevice(ctx context.Context, deviceUID, name string) (int64, error) {
	for _, d := range t.m.devices {
		if d.DeviceUID == deviceUID {
			return d.ID, nil
		}
	}
	if name == "" {
		name = deviceUID
	}
	dev := domain.Device{ID: t.m.id(), DeviceUID: deviceUID, Name: name, CreatedAt: time.Now()}
	t.m.devices = append(t.m.devices, dev)
	return dev.ID, nil
}

func (t *memTxn) UpsertSensor(ctx context.Context, deviceID int64, sensorUID, sensorType, unit string) (int64, error) {
	for i, s := range t.m.sensors {
		if s.DeviceID == deviceID && s.SensorUID == sensorUID {
			t.m.sensors[i].Type = sensorType
			t.m.sensors[i].Unit = unit
			return s.ID, nil
		}
	}
	s := domain.Sensor{ID: t.m.id(), DeviceID: deviceID, SensorUID: sensorUID, Type: sensorType, Unit: unit}
	t.m.sensors = append(t.m.sensors, s)
	return s.ID, nil
}

func (t *memTxn) InsertReading(ctx context.Context, sensorID int64, value float64) error {
	if t.m.failReadings {
		return errInjected
	}
	t.m.readings = append(t.m.readings, domain.Reading{
		ID: t.m.id(), SensorID: sensorID, Value: value, CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (t *memTxn) InsertRelayLog(ctx context.Context, deviceID int64, state int) error {
	t.m.relayLogs = append(t.m.relayLogs, domain.RelayLog{
		ID: t.m.id(), DeviceID: deviceID, State: state, CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (m *memStore) DeviceByUID(ctx context.Context, deviceUID string) (*domain.Device, error) {
	for i := range m.devices {
		if m.devices[i].DeviceUID == deviceUID {
			dev := m.devices[i]
			return &dev, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) ListDevices(ctx context.Context) ([]domain.Device, error) {
	return append([]domain.Device(nil), m.devices...), nil
}

func (m *memStore) SetDeviceThreshold(ctx context.Context, deviceID int64, tOn float64) error {
	for i := range m.devices {
		if m.devices[i].ID == deviceID {
			v := tOn
			m.devices[i].TOn = &v
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memStore) SensorIDsByType(ctx context.Context, deviceID int64, types ...string) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, s := range m.sensors {
		if s.DeviceID != deviceID {
			continue
		}
		for _, typ := range types {
			if s.Type == typ {
				out[typ] = s.ID
			}
		}
	}
	return out, nil
}

func (m *memStore) ReadingsInWindow(ctx context.Context, sensorIDs []int64, from, to time.Time) ([]domain.Reading, error) {
	want := make(map[int64]bool, len(sensorIDs))
	for _, id := range sensorIDs {
		want[id] = true
	}
	var out []domain.Reading
	for _, r := range m.readings {
		if want[r.SensorID] && !r.CreatedAt.Before(from) && !r.CreatedAt.After(to) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) LatestReadings(ctx context.Context, deviceID int64) ([]domain.SensorReading, error) {
	return nil, nil
}

func (m *memStore) ReadingHistory(ctx context.Context, deviceID int64, limit int) ([]domain.SensorReading, error) {
	return nil, nil
}

func (m *memStore) UpsertEnergyHourly(ctx context.Context, deviceID int64, hourStart time.Time, kwh float64) error {
	m.energy[energyKey(deviceID, hourStart)] = kwh
	return nil
}

func (m *memStore) EnergySince(ctx context.Context, deviceID int64, from time.Time) ([]domain.EnergyHourly, error) {
	var out []domain.EnergyHourly
	for key, kwh := range m.energy {
		var id int64
		var ts string
		fmt.Sscanf(key, "%d/%s", &id, &ts)
		hour, _ := time.Parse(time.RFC3339, ts)
		if id == deviceID && !hour.Before(from) {
			out = append(out, domain.EnergyHourly{DeviceID: id, HourStart: hour, KWh: kwh})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HourStart.Before(out[j].HourStart) })
	return out, nil
}

func (m *memStore) UpsertRelayDesired(ctx context.Context, deviceID int64, mode string, state *int) error {
	row := m.desired[deviceID]
	row.DeviceID = deviceID
	row.Mode = mode
	row.State = state
	row.UpdatedAt = time.Now().UTC()
	m.desired[deviceID] = row
	return nil
}

func (m *memStore) ReadAndClearRelayTimer(ctx context.Context, deviceID int64) (*domain.RelayDesired, error) {
	row, ok := m.desired[deviceID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	prior := row
	if row.TimerEnable {
		row.TimerEnable = false
		m.desired[deviceID] = row
	}
	return &prior, nil
}

func (m *memStore) LatestRelayLog(ctx context.Context, deviceID int64) (*domain.RelayLog, error) {
	for i := len(m.relayLogs) - 1; i >= 0; i-- {
		if m.relayLogs[i].DeviceID == deviceID {
			row := m.relayLogs[i]
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

var _ repository.Store = (*memStore)(nil)
