package sensor

import "time"

// Paging and interval defaults.
const (
	// DefaultPageSize is used when a list request specifies no page size.
	DefaultPageSize = 50

	// MaxPageSize caps the page size a caller can request.
	MaxPageSize = 500

	// DefaultIntervalMs is stored when a create supplies a non-positive
	// sampling interval.
	DefaultIntervalMs = 1000
)

// SensorDefinition is the durable configuration record for one sensor.
// This matches the database schema in migrations/20260301_000000_create_sensors.up.sql.
//
// ID is the system-generated surrogate key; SensorID is the
// human-assigned logical identifier (unique, immutable after create).
// JSON field names are camelCase to match the wire format consumed by
// downstream services.
type SensorDefinition struct {
	// Identity
	ID       string `json:"id"`
	SensorID string `json:"sensorId"`

	// Classification
	SensorType string `json:"sensorType"`
	Unit       string `json:"unit"`

	// Value bands. Operating is the physical range the sensor reports;
	// warning is the band that should trigger attention.
	OperatingMin float64 `json:"operatingMin"`
	OperatingMax float64 `json:"operatingMax"`
	WarningMin   float64 `json:"warningMin"`
	WarningMax   float64 `json:"warningMax"`

	// Sampling
	IntervalMs int  `json:"intervalMs"`
	Enabled    bool `json:"enabled"`
	Simulate   bool `json:"simulate"`

	// Timestamps
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Copy returns an independent copy of the definition.
// SensorDefinition has only value fields, so a shallow copy is complete.
func (s *SensorDefinition) Copy() *SensorDefinition {
	if s == nil {
		return nil
	}
	cpy := *s
	return &cpy
}

// Input carries the caller-supplied fields for create and update
// operations. The system-managed fields (id, timestamps) are absent;
// on update the sensorId field is ignored rather than applied.
type Input struct {
	SensorID     string  `json:"sensorId"`
	SensorType   string  `json:"sensorType"`
	Unit         string  `json:"unit"`
	OperatingMin float64 `json:"operatingMin"`
	OperatingMax float64 `json:"operatingMax"`
	WarningMin   float64 `json:"warningMin"`
	WarningMax   float64 `json:"warningMax"`
	IntervalMs   int     `json:"intervalMs"`
	Enabled      bool    `json:"enabled"`
	Simulate     bool    `json:"simulate"`
}

// Filter selects definitions by equality on classification fields.
// Nil pointer fields mean "no filter".
type Filter struct {
	SensorType string
	Enabled    *bool
	Simulate   *bool
}

// ListResult is the paged envelope returned by List.
type ListResult struct {
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
	Total    int                `json:"total"`
	Items    []SensorDefinition `json:"items"`
}
