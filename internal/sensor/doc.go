// Package sensor implements the sensor configuration domain: durable
// definitions, validated CRUD through the Registry, and one change
// event per committed mutation.
//
// # Architecture
//
//	API handlers → Registry → Repository (SQL store)
//	                       ↘ Publisher (broker)
//
// The Registry is the only writer. Every mutation follows the same
// sequence: validate, commit to the repository, publish a ChangeEvent
// keyed by the sensor's logical id. The commit is the source of truth;
// a failed publish never rolls it back, it surfaces as
// ErrEventNotPublished alongside the committed snapshot.
//
// # Identity
//
// Each definition carries two identifiers: the system-generated UUID
// (ID) and the operator-assigned logical name (SensorID, unique and
// immutable). Lookups and mutations are keyed by either, through
// parallel method pairs (Get/GetBySensorID and so on).
package sensor
