package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/config"
	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/database"
	httpHandlers "github.com/ANIKETSHETTY47/digital-boiler-platform/internal/http"
	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/repository"
	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	db, err := database.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	svcs := service.New(repository.New(db))
	app := fiber.New()

	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })

	httpHandlers.Register(app, svcs)

	addr := config.APIAddr()
	log.Info().Str("addr", addr).Msg("api listening")
	log.Fatal().Err(app.Listen(addr)).Msg("server exit")
}
