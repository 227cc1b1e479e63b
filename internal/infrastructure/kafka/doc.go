// Package kafka provides the Kafka producer used to publish sensor
// configuration change events.
//
// This package manages:
//   - Lazy broker connection via franz-go
//   - Idempotent, acks-all record production
//   - Keyed partitioning for per-entity ordering
//   - Broker health monitoring
//
// # Architecture
//
// The registry publishes one change event per committed mutation. Events
// for the same sensor carry the same record key, which pins them to one
// partition and preserves their order for downstream consumers.
//
//	Sensor Manager → Kafka Broker → Downstream consumers
//
// Event delivery is best effort relative to the store: the row commit is
// the source of truth and a failed produce never rolls it back. Callers
// surface produce failures to their own callers rather than retrying
// here.
//
// # Usage
//
//	client, err := kafka.Connect(cfg.Kafka)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Publish(ctx, cfg.Kafka.ConfigTopic,
//	    []byte("temp-1"), payload)
package kafka
