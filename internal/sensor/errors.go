package sensor

import "errors"

// Domain errors for the sensor package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, sensor.ErrSensorNotFound) {
//	    // handle not found case
//	}
var (
	// ErrSensorNotFound is returned when no definition matches the given key.
	ErrSensorNotFound = errors.New("sensor: not found")

	// ErrSensorExists is returned when creating a definition whose
	// sensorId is already registered.
	ErrSensorExists = errors.New("sensor: already exists")

	// ErrInvalidSensor is returned when input validation fails.
	// The wrapping error names the offending field.
	ErrInvalidSensor = errors.New("sensor: invalid")

	// ErrEventNotPublished is returned when a mutation committed but its
	// change event could not be delivered to the broker. The mutation is
	// NOT rolled back; callers treat this as "applied, notification
	// unconfirmed".
	ErrEventNotPublished = errors.New("sensor: change event not published")
)
