package main

import (
	"encoding/json"
	"math/rand"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/config"
	"github.com/ANIKETSHETTY47/digital-boiler-platform/internal/service"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	opts := mqtt.NewClientOptions().AddBroker(config.MQTTBroker())
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	topic := config.MQTTTopic()
	deviceUID := config.DefaultDeviceUID()

	for i := 0; i < 100; i++ {
		relay := float64(rand.Intn(2))
		batch := service.Batch{
			DeviceUID:  deviceUID,
			DeviceName: "Boiler (simulated)",
			Readings: []service.BatchReading{
				{SensorUID: "temp-1", Type: "temperature", Unit: "C", Value: 40 + rand.Float64()*20},
				{SensorUID: "zmpt-1", Type: "voltage", Unit: "V", Value: 225 + rand.Float64()*10},
				{SensorUID: "acs-1", Type: "current", Unit: "A", Value: 1.5 + rand.Float64()},
				{SensorUID: "flow-1", Type: "flow", Unit: "L/min", Value: 4 + rand.Float64()*2},
			},
			RelayState: &relay,
		}
		payload, _ := json.Marshal(batch)
		token := client.Publish(topic, 0, false, payload)
		token.Wait()
		time.Sleep(2 * time.Second)
	}
	log.Info().Msg("simulation done")
}
