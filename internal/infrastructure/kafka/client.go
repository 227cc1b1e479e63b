package kafka

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/nerrad567/sensor-manager/internal/infrastructure/config"
)

// Operation timeouts and limits.
const (
	// defaultPublishTimeout bounds a synchronous produce when the caller's
	// context carries no deadline of its own.
	defaultPublishTimeout = 10 * time.Second

	// defaultCloseTimeout bounds the flush of buffered records on shutdown.
	defaultCloseTimeout = 5 * time.Second

	// maxRecordSize caps record values at 1MB, matching the broker's
	// default message.max.bytes.
	maxRecordSize = 1 << 20
)

// Client wraps franz-go with sensor-manager-specific functionality.
//
// It provides an idempotent producer for change events. Records with the
// same key land on the same partition, so per-sensor event ordering is
// preserved end to end.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	client *kgo.Client
	cfg    config.KafkaConfig

	// closed tracks whether Close has been called.
	closed bool
	connMu sync.RWMutex

	// logger for produce error logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Connect builds a Kafka producer client from configuration.
//
// Construction does not dial the brokers: franz-go connects lazily on
// the first produce, so the broker may be down when the process starts.
// Use HealthCheck to verify reachability.
//
// The producer is idempotent (franz-go's default) with acks from all
// in-sync replicas, so a committed mutation's event is written at most
// once per produce attempt even across retries.
//
// Parameters:
//   - cfg: Kafka configuration from config.yaml
//
// Returns:
//   - *Client: Producer client ready for use
//   - error: If the configuration is invalid
func Connect(cfg config.KafkaConfig) (*Client, error) {
	brokers := splitBrokers(cfg.BootstrapServers)
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchMaxBytes(maxRecordSize),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return &Client{
		client: client,
		cfg:    cfg,
	}, nil
}

// splitBrokers parses a comma-separated bootstrap server list.
func splitBrokers(servers string) []string {
	var brokers []string
	for _, s := range strings.Split(servers, ",") {
		if s = strings.TrimSpace(s); s != "" {
			brokers = append(brokers, s)
		}
	}
	return brokers
}

// Publish produces a single record and waits for broker acknowledgment.
//
// The record key determines the partition; callers that need ordered
// delivery for a logical entity must use a stable key for that entity.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - topic: The topic to produce to
//   - key: Partitioning key (may be nil for round-robin)
//   - value: The record payload (typically JSON, max 1MB)
//
// Returns:
//   - error: nil once the broker has acknowledged the record
func (c *Client) Publish(ctx context.Context, topic string, key, value []byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if len(value) > maxRecordSize {
		return fmt.Errorf("%w: record size %d exceeds maximum %d bytes", ErrPublishFailed, len(value), maxRecordSize)
	}
	if c.isClosed() {
		return ErrNotConnected
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultPublishTimeout)
		defer cancel()
	}

	record := &kgo.Record{
		Topic: topic,
		Key:   key,
		Value: value,
	}

	if err := c.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// Close flushes buffered records and releases broker connections.
//
// Safe to call more than once.
func (c *Client) Close() error {
	c.connMu.Lock()
	if c.closed {
		c.connMu.Unlock()
		return nil
	}
	c.closed = true
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultCloseTimeout)
	defer cancel()

	if err := c.client.Flush(ctx); err != nil {
		if logger := c.getLogger(); logger != nil {
			logger.Warn("kafka flush on close failed", "error", err)
		}
	}

	c.client.Close()
	return nil
}

// HealthCheck verifies the brokers are reachable.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.isClosed() {
		return ErrNotConnected
	}

	if err := c.client.Ping(ctx); err != nil {
		return fmt.Errorf("kafka health check: %w", err)
	}
	return nil
}

// isClosed returns whether Close has been called.
func (c *Client) isClosed() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.closed
}

// SetLogger sets a logger for produce and shutdown error logging.
// If not set, non-fatal errors are silently ignored.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}
