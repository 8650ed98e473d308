// Package kafka mirrors audit entries onto a Kafka topic for downstream
// retention and alerting.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "safedesk/pkg/platform/audit"
)

// Sink publishes each appended entry as a JSON record keyed by case.
type Sink struct {
	client *kgo.Client
	topic  string
}

// payload is the wire shape consumers decode.
type payload struct {
	ID          string         `json:"id"`
	Action      string         `json:"action"`
	Category    string         `json:"category"`
	ActorID     string         `json:"actor_id,omitempty"`
	ComplaintID string         `json:"complaint_id,omitempty"`
	Details     map[string]any `json:"details"`
	RequestID   string         `json:"request_id,omitempty"`
	Timestamp   string         `json:"timestamp"`
}

// New connects to brokers and makes sure topic exists.
func New(ctx context.Context, brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(5*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, kadm.NewClient(client), topic); err != nil {
		client.Close()
		return nil, err
	}
	return &Sink{client: client, topic: topic}, nil
}

func ensureTopic(ctx context.Context, adm *kadm.Client, topic string) error {
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create audit topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Append produces entry synchronously.
func (s *Sink) Append(ctx context.Context, entry audit.Entry) error {
	p := payload{
		ID:        entry.ID.String(),
		Action:    string(entry.Action),
		Category:  string(entry.Action.Category()),
		ActorID:   entry.ActorID,
		Details:   entry.Details,
		RequestID: entry.RequestID,
		Timestamp: entry.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	var key []byte
	if !entry.ComplaintID.IsNil() {
		p.ComplaintID = entry.ComplaintID.String()
		key = []byte(p.ComplaintID)
	}

	value, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   key,
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "category", Value: []byte(p.Category)},
		},
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit record: %w", err)
	}
	return nil
}

func (s *Sink) Close() {
	s.client.Close()
}
