package kafka

import "errors"

// Domain-specific errors for Kafka operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when attempting operations on a closed client.
	ErrNotConnected = errors.New("kafka: client not connected")

	// ErrConnectionFailed is returned when the client cannot be constructed.
	ErrConnectionFailed = errors.New("kafka: connection failed")

	// ErrPublishFailed is returned when a produce operation fails.
	ErrPublishFailed = errors.New("kafka: publish failed")

	// ErrInvalidTopic is returned when an empty topic is provided.
	ErrInvalidTopic = errors.New("kafka: topic cannot be empty")

	// ErrNoBrokers is returned when no bootstrap servers are configured.
	ErrNoBrokers = errors.New("kafka: no bootstrap servers configured")
)
