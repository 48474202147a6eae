package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/database"
	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/domain"
)

// testRepos connects to the database named by TEST_DB_DSN and wipes the
// telemetry tables. Tests are skipped when the variable is unset so the
// unit suite stays runnable without infrastructure.
func testRepos(t *testing.T) *Repos {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	db, err := sqlx.Connect("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))

	for _, table := range []string{"readings", "relay_logs", "energy_hourly", "relay_desired", "sensors", "devices"} {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}
	return New(db)
}

func resolveDevice(t *testing.T, repos *Repos, uid string) int64 {
	t.Helper()
	var id int64
	err := repos.WithTx(context.Background(), func(tx Txn) error {
		var err error
		id, err = tx.ResolveOrCreateDevice(context.Background(), uid, "")
		return err
	})
	require.NoError(t, err)
	return id
}

func TestResolveOrCreateDeviceIdempotent(t *testing.T) {
	repos := testRepos(t)

	first := resolveDevice(t, repos, "ESP32-BOILER-01")
	second := resolveDevice(t, repos, "ESP32-BOILER-01")
	assert.Equal(t, first, second)

	devices, err := repos.ListDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "ESP32-BOILER-01", devices[0].Name) // name defaults to uid
}

func TestUpsertSensorLastWriteWins(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()
	deviceID := resolveDevice(t, repos, "ESP32-BOILER-01")

	var firstID, secondID int64
	err := repos.WithTx(ctx, func(tx Txn) error {
		var err error
		firstID, err = tx.UpsertSensor(ctx, deviceID, "temp-1", "temperature", "C")
		if err != nil {
			return err
		}
		secondID, err = tx.UpsertSensor(ctx, deviceID, "temp-1", "temp", "K")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)

	ids, err := repos.SensorIDsByType(ctx, deviceID, "temp", "temperature")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"temp": firstID}, ids)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repos.WithTx(ctx, func(tx Txn) error {
		deviceID, err := tx.ResolveOrCreateDevice(ctx, "ESP32-ROLLBACK", "")
		if err != nil {
			return err
		}
		sensorID, err := tx.UpsertSensor(ctx, deviceID, "temp-1", "temperature", "C")
		if err != nil {
			return err
		}
		if err := tx.InsertReading(ctx, sensorID, 42); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repos.DeviceByUID(ctx, "ESP32-ROLLBACK")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertEnergyHourlyReplaces(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()
	deviceID := resolveDevice(t, repos, "ESP32-BOILER-01")
	hour := time.Now().UTC().Truncate(time.Hour)

	require.NoError(t, repos.UpsertEnergyHourly(ctx, deviceID, hour, 0.5))
	require.NoError(t, repos.UpsertEnergyHourly(ctx, deviceID, hour, 0.3))

	rows, err := repos.EnergySince(ctx, deviceID, hour.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0.3, rows[0].KWh) // replaced, not accumulated
}

func TestReadAndClearRelayTimerOneShot(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()
	deviceID := resolveDevice(t, repos, "ESP32-BOILER-01")

	require.NoError(t, repos.UpsertRelayDesired(ctx, deviceID, domain.RelayModeAuto, nil))
	_, err := repos.db.Exec(
		`UPDATE relay_desired SET timer_enable = TRUE, timer_duration_min = 30 WHERE device_id = $1`, deviceID)
	require.NoError(t, err)

	first, err := repos.ReadAndClearRelayTimer(ctx, deviceID)
	require.NoError(t, err)
	assert.True(t, first.TimerEnable)
	assert.Equal(t, 30, first.TimerDurationMin)

	second, err := repos.ReadAndClearRelayTimer(ctx, deviceID)
	require.NoError(t, err)
	assert.False(t, second.TimerEnable)
}

func TestLatestReadingsPerSensor(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()
	deviceID := resolveDevice(t, repos, "ESP32-BOILER-01")

	err := repos.WithTx(ctx, func(tx Txn) error {
		tempID, err := tx.UpsertSensor(ctx, deviceID, "temp-1", "temperature", "C")
		if err != nil {
			return err
		}
		flowID, err := tx.UpsertSensor(ctx, deviceID, "flow-1", "flow", "L/min")
		if err != nil {
			return err
		}
		for _, v := range []float64{40, 41, 42} {
			if err := tx.InsertReading(ctx, tempID, v); err != nil {
				return err
			}
		}
		return tx.InsertReading(ctx, flowID, 4.2)
	})
	require.NoError(t, err)

	latest, err := repos.LatestReadings(ctx, deviceID)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "flow-1", latest[0].SensorUID)
	assert.Equal(t, "temp-1", latest[1].SensorUID)
	assert.Equal(t, 42.0, latest[1].Value)

	history, err := repos.ReadingHistory(ctx, deviceID, 2)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestConcurrentDeviceCreationSingleRow(t *testing.T) {
	repos := testRepos(t)

	type result struct {
		id  int64
		err error
	}
	done := make(chan result, 8)
	for i := 0; i < 8; i++ {
		go func() {
			var id int64
			err := repos.WithTx(context.Background(), func(tx Txn) error {
				var err error
				id, err = tx.ResolveOrCreateDevice(context.Background(), "ESP32-RACE", "")
				return err
			})
			done <- result{id: id, err: err}
		}()
	}
	ids := make(map[int64]bool)
	for i := 0; i < 8; i++ {
		res := <-done
		require.NoError(t, res.err)
		ids[res.id] = true
	}
	assert.Len(t, ids, 1)

	devices, err := repos.ListDevices(context.Background())
	require.NoError(t, err)
	assert.Len(t, devices, 1)
}
