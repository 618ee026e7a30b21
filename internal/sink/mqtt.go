package sink

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"gnss-analyzer/internal/config"
)

const mqttTimeout = 10 * time.Second

func SummaryTopic(prefix, stem string) string {
	return strings.Trim(prefix, "/") + "/" + stem + "/summary"
}

// PublishMQTT publishes the summary as a retained message so late
// subscribers still see the latest run for each log.
func PublishMQTT(cfg config.MQTTConfig, s Summary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("mqtt marshal: %w", err)
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(mqttTimeout)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); !token.WaitTimeout(mqttTimeout) {
		return fmt.Errorf("mqtt connect %s: timeout", cfg.Broker)
	} else if token.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}
	defer client.Disconnect(250)

	topic := SummaryTopic(cfg.TopicPrefix, s.Log)
	token := client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(mqttTimeout) {
		return fmt.Errorf("mqtt publish %s: timeout", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, token.Error())
	}
	log.Printf("mqtt: published topic=%s bytes=%d", topic, len(payload))
	return nil
}
