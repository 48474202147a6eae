package main

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/config"
	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/database"
	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/repository"
	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/service"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	db, err := database.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	store := repository.New(db)
	svcs := service.New(store)

	interval := time.Duration(config.AggregateIntervalMin()) * time.Minute
	lookback := config.EnergyLookbackHours()
	log.Info().Dur("interval", interval).Msg("aggregator running; Ctrl+C to stop")

	recomputeAll(store, svcs, lookback)
	for range time.Tick(interval) {
		recomputeAll(store, svcs, lookback)
	}
}

func recomputeAll(store repository.Store, svcs *service.Services, lookback float64) {
	ctx := context.Background()
	devices, err := store.ListDevices(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list devices failed")
		return
	}

	for _, dev := range devices {
		res, err := svcs.Energy.Recompute(ctx, dev.DeviceUID, lookback)
		if errors.Is(err, service.ErrSensorsMissing) || errors.Is(err, service.ErrDeviceNotFound) {
			// Nothing to do for this device; not a failure of the run.
			log.Debug().Str("device_uid", dev.DeviceUID).Err(err).Msg("recompute skipped")
			continue
		}
		if err != nil {
			log.Error().Err(err).Str("device_uid", dev.DeviceUID).Msg("recompute failed")
			continue
		}
		log.Info().
			Str("device_uid", res.DeviceUID).
			Int("hours", res.Hours).
			Float64("total_kwh", res.TotalKWh).
			Msg("energy recomputed")
	}
}
