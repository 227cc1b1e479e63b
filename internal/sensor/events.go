package sensor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Action identifies the kind of mutation a change event describes.
type Action string

// Change event actions.
const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// ChangeEvent is the message published to the broker after every
// committed mutation. Payload carries the post-mutation snapshot for
// created and updated events and is absent for deleted events.
//
// Timestamp is the emission time, not the row's updatedAt: the two may
// differ by the gap between commit and publish.
type ChangeEvent struct {
	Action    Action            `json:"action"`
	SensorID  string            `json:"sensorId"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   *SensorDefinition `json:"payload,omitempty"`
}

// Publisher delivers change events to downstream consumers.
//
// Implementations must preserve per-sensor ordering: two events for the
// same SensorID published in sequence must be observed in that sequence.
type Publisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
}

// BrokerClient is the transport the BrokerPublisher produces through.
// Satisfied by the kafka infrastructure client.
type BrokerClient interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// BrokerPublisher publishes change events to a broker topic, keyed by
// sensorId so per-sensor ordering survives partitioning.
type BrokerPublisher struct {
	client BrokerClient
	topic  string
}

// NewBrokerPublisher creates a publisher producing to the given topic.
func NewBrokerPublisher(client BrokerClient, topic string) *BrokerPublisher {
	return &BrokerPublisher{
		client: client,
		topic:  topic,
	}
}

// Publish marshals the event and produces it with the sensorId as the
// record key.
func (p *BrokerPublisher) Publish(ctx context.Context, event ChangeEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling change event: %w", err)
	}

	if err := p.client.Publish(ctx, p.topic, []byte(event.SensorID), value); err != nil {
		return fmt.Errorf("producing change event: %w", err)
	}
	return nil
}
