package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"errors"
	"log/slog"
	"strconv"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Kafka publishes events to a single topic, keyed by user id so one
// user's trail stays ordered within a partition.
type Kafka struct {
	client *kgo.Client
	topic  string
	log    *slog.Logger
}

// NewKafka connects to the brokers and creates the topic if it does not
// exist yet.
func NewKafka(ctx context.Context, brokers []string, topic string, log *slog.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create audit topic: %w", err)
	}
	for _, t := range resp.Sorted() {
		if t.Err != nil && !errors.Is(t.Err, kerr.TopicAlreadyExists) {
			log.Warn("audit topic creation", "topic", t.Topic, "err", t.Err)
		}
	}

	return &Kafka{client: client, topic: topic, log: log}, nil
}

func (k *Kafka) Publish(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		k.log.Error("audit event encode failed", "action", ev.Action, "err", err)
		return
	}
	rec := &kgo.Record{
		Key:   []byte(strconv.FormatInt(ev.UserID, 10)),
		Value: payload,
	}
	k.client.Produce(ctx, rec, func(r *kgo.Record, err error) {
		if err != nil {
			k.log.Error("audit publish failed", "action", ev.Action, "err", err)
		}
	})
}

func (k *Kafka) Close() {
	k.client.Close()
}
