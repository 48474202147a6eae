package main

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
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

	svcs := service.New(repository.New(db))

	opts := mqtt.NewClientOptions().AddBroker(config.MQTTBroker())
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		if err := svcs.Ingest.FromMQTT(context.Background(), msg.Payload()); err != nil {
			log.Error().Err(err).Str("topic", msg.Topic()).Msg("ingest failed")
		}
	}

	topic := config.MQTTTopic()
	if token := client.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("subscribe failed")
	}

	log.Info().Str("topic", topic).Msg("ingestor running; Ctrl+C to stop")
	for {
		time.Sleep(10 * time.Second)
	}
}
