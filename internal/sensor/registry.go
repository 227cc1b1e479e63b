package sensor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry provides sensor definition management: validated mutations
// against the repository, each followed by a change event to the
// publisher.
//
// Ordering contract: the repository commit happens before the publish,
// and a failed commit publishes nothing. A publish failure after a
// commit does not roll the mutation back; the mutating operation then
// returns the snapshot together with an error wrapping
// ErrEventNotPublished.
//
// All public methods are safe for concurrent use.
type Registry struct {
	repo      Repository
	publisher Publisher
	logger    Logger
}

// NewRegistry creates a sensor registry. The publisher may be nil, in
// which case mutations commit without emitting events.
func NewRegistry(repo Repository, publisher Publisher) *Registry {
	return &Registry{
		repo:      repo,
		publisher: publisher,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Create registers a new sensor definition.
//
// Validation failures return ErrInvalidSensor; a duplicate sensorId
// returns ErrSensorExists (checked up front, and again by the unique
// index for concurrent creates). A non-positive interval is stored as
// DefaultIntervalMs.
//
// On success the committed snapshot is returned and a created event is
// published. If only the publish fails, the snapshot is still returned
// along with an error wrapping ErrEventNotPublished.
func (r *Registry) Create(ctx context.Context, in Input) (*SensorDefinition, error) {
	if err := ValidateInput(in); err != nil {
		return nil, err
	}

	exists, err := r.repo.ExistsBySensorID(ctx, in.SensorID)
	if err != nil {
		return nil, fmt.Errorf("checking sensor exists: %w", err)
	}
	if exists {
		return nil, ErrSensorExists
	}

	def := &SensorDefinition{
		ID:           uuid.NewString(),
		SensorID:     in.SensorID,
		SensorType:   in.SensorType,
		Unit:         in.Unit,
		OperatingMin: in.OperatingMin,
		OperatingMax: in.OperatingMax,
		WarningMin:   in.WarningMin,
		WarningMax:   in.WarningMax,
		IntervalMs:   in.IntervalMs,
		Enabled:      in.Enabled,
		Simulate:     in.Simulate,
	}
	if def.IntervalMs <= 0 {
		def.IntervalMs = DefaultIntervalMs
	}

	if err := r.repo.Create(ctx, def); err != nil {
		return nil, err
	}

	r.logger.Info("sensor created", "sensor_id", def.SensorID, "id", def.ID)

	if err := r.publishEvent(ctx, ActionCreated, def.SensorID, def); err != nil {
		return def, err
	}
	return def, nil
}

// Update replaces the mutable fields of the definition with the given
// system id. The sensorId is immutable: any value in the input is
// ignored. A non-positive interval keeps the stored interval; every
// other field is written as given, without validation.
//
// Returns ErrSensorNotFound if no row matches. On success the
// post-mutation snapshot is returned and an updated event is published.
func (r *Registry) Update(ctx context.Context, id string, in Input) (*SensorDefinition, error) {
	def, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.applyUpdate(ctx, def, in)
}

// UpdateBySensorID is Update keyed by the logical sensorId.
func (r *Registry) UpdateBySensorID(ctx context.Context, sensorID string, in Input) (*SensorDefinition, error) {
	def, err := r.repo.GetBySensorID(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	return r.applyUpdate(ctx, def, in)
}

// applyUpdate writes the input over an existing definition and
// publishes the updated event. Fields are replaced as given; only the
// interval is guarded, keeping the stored value on non-positive input.
func (r *Registry) applyUpdate(ctx context.Context, def *SensorDefinition, in Input) (*SensorDefinition, error) {
	def.SensorType = in.SensorType
	def.Unit = in.Unit
	def.OperatingMin = in.OperatingMin
	def.OperatingMax = in.OperatingMax
	def.WarningMin = in.WarningMin
	def.WarningMax = in.WarningMax
	def.Enabled = in.Enabled
	def.Simulate = in.Simulate
	if in.IntervalMs > 0 {
		def.IntervalMs = in.IntervalMs
	}

	if err := r.repo.Update(ctx, def); err != nil {
		return nil, err
	}

	r.logger.Info("sensor updated", "sensor_id", def.SensorID, "id", def.ID)

	if err := r.publishEvent(ctx, ActionUpdated, def.SensorID, def); err != nil {
		return def, err
	}
	return def, nil
}

// Delete removes the definition with the given system id and publishes
// a deleted event (no payload).
//
// Returns ErrSensorNotFound if no row matches.
func (r *Registry) Delete(ctx context.Context, id string) error {
	def, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return r.applyDelete(ctx, def)
}

// DeleteBySensorID is Delete keyed by the logical sensorId.
func (r *Registry) DeleteBySensorID(ctx context.Context, sensorID string) error {
	def, err := r.repo.GetBySensorID(ctx, sensorID)
	if err != nil {
		return err
	}
	return r.applyDelete(ctx, def)
}

func (r *Registry) applyDelete(ctx context.Context, def *SensorDefinition) error {
	if err := r.repo.Delete(ctx, def.ID); err != nil {
		return err
	}

	r.logger.Info("sensor deleted", "sensor_id", def.SensorID, "id", def.ID)

	return r.publishEvent(ctx, ActionDeleted, def.SensorID, nil)
}

// Get retrieves a definition by system id. Read-only, no event.
func (r *Registry) Get(ctx context.Context, id string) (*SensorDefinition, error) {
	return r.repo.GetByID(ctx, id)
}

// GetBySensorID retrieves a definition by logical sensorId.
func (r *Registry) GetBySensorID(ctx context.Context, sensorID string) (*SensorDefinition, error) {
	return r.repo.GetBySensorID(ctx, sensorID)
}

// List retrieves a page of definitions matching the filter, ordered by
// sensorId ascending.
//
// Page and pageSize are normalized: page < 1 becomes 1, pageSize < 1
// becomes DefaultPageSize, pageSize > MaxPageSize becomes MaxPageSize.
func (r *Registry) List(ctx context.Context, filter Filter, page, pageSize int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	items, total, err := r.repo.List(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	if items == nil {
		items = []SensorDefinition{}
	}

	return &ListResult{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		Items:    items,
	}, nil
}

// publishEvent emits a change event for a committed mutation. A nil
// publisher skips emission. Failures are wrapped in
// ErrEventNotPublished; the caller decides how loudly to surface them.
func (r *Registry) publishEvent(ctx context.Context, action Action, sensorID string, payload *SensorDefinition) error {
	if r.publisher == nil {
		return nil
	}

	event := ChangeEvent{
		Action:    action,
		SensorID:  sensorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload.Copy(),
	}

	if err := r.publisher.Publish(ctx, event); err != nil {
		r.logger.Warn("change event not published",
			"action", string(action),
			"sensor_id", sensorID,
			"error", err,
		)
		return fmt.Errorf("%w: %s event for %s: %w", ErrEventNotPublished, action, sensorID, err)
	}

	return nil
}
