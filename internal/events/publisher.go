// Package events publishes call and joke domain events to kafka. With kafka
// disabled the publisher only logs.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "knockline.events"

type Recorder interface {
	EventPublished(err error)
}

type Config struct {
	Brokers  []string
	Topic    string
	Enabled  bool
	Recorder Recorder
	Log      *slog.Logger
}

type Publisher struct {
	writer   *kafka.Writer
	topic    string
	enabled  bool
	recorder Recorder
	logger   *slog.Logger
}

func New(cfg Config) *Publisher {
	logger := cfg.Log
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "events")

	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	p := &Publisher{topic: topic, recorder: cfg.Recorder, logger: logger}
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		logger.Info("kafka disabled, using log-only mode")
		return p
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}
	p.enabled = true

	logger.Info("kafka publisher initialized", "brokers", cfg.Brokers, "topic", topic)
	return p
}

func (p *Publisher) Enabled() bool {
	return p != nil && p.enabled
}

// Mode is "kafka" or "log".
func (p *Publisher) Mode() string {
	if p.Enabled() {
		return "kafka"
	}
	return "log"
}

func (p *Publisher) Publish(ctx context.Context, key string, evt Event) error {
	if p == nil {
		return nil
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		p.logger.Error("marshal event failed", "type", evt.Type, "error", err)
		return err
	}

	p.logger.Debug("publishing event", "type", evt.Type, "key", key, "payload", string(payload))

	if !p.enabled || p.writer == nil {
		p.record(nil)
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(evt.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("kafka write failed", "type", evt.Type, "key", key, "error", err)
		p.record(err)
		return err
	}

	p.record(nil)
	return nil
}

func (p *Publisher) record(err error) {
	if p.recorder != nil {
		p.recorder.EventPublished(err)
	}
}

func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		p.logger.Error("close kafka writer failed", "error", err)
		return err
	}
	return nil
}
