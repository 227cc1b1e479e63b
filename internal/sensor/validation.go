package sensor

import (
	"fmt"
	"strings"
)

// ValidateInput checks the caller-supplied fields for a create.
// Returns an error wrapping ErrInvalidSensor describing the first
// failure found.
//
// The identifier fields must be non-blank; whitespace-only values are
// rejected. No length limit applies, and value bands and interval are
// not validated here: interval coercion is a registry concern, and
// band semantics are owned by the consumers of the configuration.
func ValidateInput(in Input) error {
	if err := validateField("sensorId", in.SensorID); err != nil {
		return err
	}
	if err := validateField("sensorType", in.SensorType); err != nil {
		return err
	}
	return validateField("unit", in.Unit)
}

// validateField checks a required free-form string field.
func validateField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidSensor, name)
	}
	return nil
}
