package ingest

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// MQTTConfig configures the station broker connection.
type MQTTConfig struct {
	BrokerURL string
	ClientID  string
	Topic     string
	TLS       *tls.Config
}

// NewMQTTClient builds an auto-reconnecting client for the station broker.
func NewMQTTClient(cfg MQTTConfig) mqtt.Client {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetCleanSession(false)
	if cfg.TLS != nil {
		opts.SetTLSConfig(cfg.TLS)
	}
	return mqtt.NewClient(opts)
}

// DeviceFromTopic extracts the station id from a topic of the form
// stations/<id>/detections. It returns "" for any other shape.
func DeviceFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "stations" || parts[2] != "detections" {
		return ""
	}
	return parts[1]
}

// MQTTSubscriber feeds station detections into an Ingestor.
type MQTTSubscriber struct {
	client  mqtt.Client
	topic   string
	ingest  *Ingestor
	logger  zerolog.Logger
	timeout time.Duration
}

func NewMQTTSubscriber(client mqtt.Client, topic string, ingest *Ingestor, logger zerolog.Logger) *MQTTSubscriber {
	return &MQTTSubscriber{
		client:  client,
		topic:   topic,
		ingest:  ingest,
		logger:  logger.With().Str("component", "mqtt").Str("topic", topic).Logger(),
		timeout: 10 * time.Second,
	}
}

// Run connects, subscribes and blocks until ctx is cancelled.
func (s *MQTTSubscriber) Run(ctx context.Context) error {
	if token := s.client.Connect(); !token.WaitTimeout(s.timeout) || token.Error() != nil {
		return fmt.Errorf("connect mqtt broker: %v", tokenErr(token))
	}
	defer s.client.Disconnect(250)

	token := s.client.Subscribe(s.topic, 1, s.messageHandler(ctx))
	if !token.WaitTimeout(s.timeout) || token.Error() != nil {
		return fmt.Errorf("subscribe %s: %v", s.topic, tokenErr(token))
	}
	s.logger.Info().Msg("subscribed to station detections")

	<-ctx.Done()
	s.logger.Info().Msg("mqtt subscriber stopped")
	return nil
}

func (s *MQTTSubscriber) messageHandler(ctx context.Context) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		_ = s.ingest.Handle(ctx, msg.Payload(), DeviceFromTopic(msg.Topic()))
	}
}

func tokenErr(token mqtt.Token) error {
	if err := token.Error(); err != nil {
		return err
	}
	return fmt.Errorf("timed out")
}
