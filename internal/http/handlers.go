package http

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/config"
	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/repository"
	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/service"
)

func Register(app *fiber.App, svcs *service.Services) {
	api := app.Group("/api")
	api.Post("/ingest", ingest(svcs))
	api.Get("/relay", relayGet(svcs))
	api.Post("/relay", relaySet(svcs))
	api.Post("/settings", settingsSet(svcs))
	api.Get("/energy/recalc", energyRecalc(svcs))
	api.Get("/devices/:device_uid/latest", deviceLatest(svcs))
	api.Get("/devices/:device_uid/readings", deviceReadings(svcs))
	api.Get("/devices/:device_uid/energy", deviceEnergy(svcs))
}

func ingest(svcs *service.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var batch service.Batch
		if err := json.Unmarshal(c.Body(), &batch); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_json"})
		}

		res, err := svcs.Ingest.Ingest(c.Context(), batch)
		if errors.Is(err, service.ErrBadBatch) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_params"})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server_error", "detail": err.Error()})
		}
		return c.JSON(fiber.Map{"ok": true, "inserted": res.Inserted, "device_uid": res.DeviceUID})
	}
}

func relayGet(svcs *service.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deviceUID := c.Query("device_uid")
		if deviceUID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_device_uid"})
		}
		cmd, err := svcs.Relay.Poll(c.Context(), deviceUID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server_error", "detail": err.Error()})
		}
		return c.JSON(cmd)
	}
}

func relaySet(svcs *service.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			DeviceUID string `json:"device_uid" form:"device_uid"`
			Mode      string `json:"mode" form:"mode"`
			State     *int   `json:"state" form:"state"`
		}
		// Params may arrive as JSON, form fields or query string; the
		// firmware and the dashboard do not agree on one.
		_ = c.BodyParser(&req)
		if req.DeviceUID == "" {
			req.DeviceUID = c.Query("device_uid")
		}
		if req.Mode == "" {
			req.Mode = c.Query("mode")
		}
		if req.State == nil {
			if s := c.Query("state"); s != "" {
				if n, err := strconv.Atoi(s); err == nil {
					req.State = &n
				}
			}
		}
		if req.DeviceUID == "" || req.Mode == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_params"})
		}

		err := svcs.Relay.SetDesired(c.Context(), req.DeviceUID, req.Mode, req.State)
		switch {
		case errors.Is(err, service.ErrStateRequired):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "state_required_for_manual"})
		case errors.Is(err, service.ErrInvalidMode):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_mode"})
		case errors.Is(err, service.ErrDeviceNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "device_not_found"})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server_error", "detail": err.Error()})
		}
		return c.JSON(fiber.Map{"ok": true, "device_uid": req.DeviceUID, "mode": req.Mode, "state": req.State})
	}
}

func settingsSet(svcs *service.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			DeviceUID string   `json:"device_uid" form:"device_uid"`
			TOn       *float64 `json:"t_on" form:"t_on"`
		}
		_ = c.BodyParser(&req)
		if req.DeviceUID == "" {
			req.DeviceUID = c.Query("device_uid")
		}
		if req.TOn == nil {
			if s := c.Query("t_on"); s != "" {
				if f, err := strconv.ParseFloat(s, 64); err == nil {
					req.TOn = &f
				}
			}
		}
		if req.DeviceUID == "" || req.TOn == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_params"})
		}

		err := svcs.Relay.SetThreshold(c.Context(), req.DeviceUID, *req.TOn)
		switch {
		case errors.Is(err, service.ErrDeviceNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "device_not_found"})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server_error", "detail": err.Error()})
		}
		return c.JSON(fiber.Map{"ok": true, "device_uid": req.DeviceUID, "t_on": *req.TOn})
	}
}

func energyRecalc(svcs *service.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deviceUID := c.Query("device")
		if deviceUID == "" {
			deviceUID = config.DefaultDeviceUID()
		}
		lookback := config.EnergyLookbackHours()
		if s := c.Query("hours"); s != "" {
			if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
				lookback = f
			}
		}

		_, err := svcs.Energy.Recompute(c.Context(), deviceUID, lookback)
		switch {
		case errors.Is(err, service.ErrDeviceNotFound):
			return c.Status(fiber.StatusNotFound).SendString("Device not found\n")
		case errors.Is(err, service.ErrSensorsMissing):
			// Recoverable: the device has not reported both sensor types yet.
			return c.SendString("Sensors missing\n")
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).SendString("Recalc failed: " + err.Error() + "\n")
		}
		return c.SendString("OK\n")
	}
}

func deviceLatest(svcs *service.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dev, err := svcs.Store.DeviceByUID(c.Context(), c.Params("device_uid"))
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "device_not_found"})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server_error", "detail": err.Error()})
		}

		sensors, err := svcs.Store.LatestReadings(c.Context(), dev.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server_error", "detail": err.Error()})
		}

		relay, err := svcs.Store.LatestRelayLog(c.Context(), dev.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server_error", "detail": err.Error()})
		}

		return c.JSON(fiber.Map{
			"device_uid": dev.DeviceUID,
			"name":       dev.Name,
			"t_on":       dev.TOn,
			"sensors":    sensors,
			"relay":      relay,
		})
	}
}

func deviceReadings(svcs *service.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dev, err := svcs.Store.DeviceByUID(c.Context(), c.Params("device_uid"))
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "device_not_found"})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server_error", "detail": err.Error()})
		}

		limit := c.QueryInt("limit", 50)
		if limit < 1 || limit > 1000 {
			limit = 50
		}
		rows, err := svcs.Store.ReadingHistory(c.Context(), dev.ID, limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server_error", "detail": err.Error()})
		}
		return c.JSON(fiber.Map{"device_uid": dev.DeviceUID, "readings": rows})
	}
}

func deviceEnergy(svcs *service.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dev, err := svcs.Store.DeviceByUID(c.Context(), c.Params("device_uid"))
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "device_not_found"})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server_error", "detail": err.Error()})
		}

		hours := c.QueryInt("hours", 24)
		if hours < 1 {
			hours = 24
		}
		from := time.Now().UTC().Add(-time.Duration(hours) * time.Hour).Truncate(time.Hour)
		rows, err := svcs.Store.EnergySince(c.Context(), dev.ID, from)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server_error", "detail": err.Error()})
		}
		return c.JSON(fiber.Map{"device_uid": dev.DeviceUID, "hours": rows})
	}
}
