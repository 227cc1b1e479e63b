package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/sensor-manager/internal/sensor"
)

// handleListSensors returns a page of sensor definitions.
//
// Query parameters:
//   - sensorType: equality filter on the type field
//   - enabled: boolean filter ("true"/"false")
//   - simulate: boolean filter ("true"/"false")
//   - page: 1-based page number (values < 1 become 1)
//   - pageSize: window size (default 50, max 500)
func (s *Server) handleListSensors(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	page, pageSize, err := parsePaging(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	result, err := s.registry.List(r.Context(), filter, page, pageSize)
	if err != nil {
		s.logger.Error("listing sensors failed", "error", err)
		writeInternalError(w, "failed to list sensors")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetSensor returns a single definition by system id.
func (s *Server) handleGetSensor(w http.ResponseWriter, r *http.Request) {
	def, err := s.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeSensorError(w, err, "failed to get sensor")
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// handleGetSensorBySensorID returns a single definition by logical id.
func (s *Server) handleGetSensorBySensorID(w http.ResponseWriter, r *http.Request) {
	def, err := s.registry.GetBySensorID(r.Context(), chi.URLParam(r, "sensorID"))
	if err != nil {
		s.writeSensorError(w, err, "failed to get sensor")
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// handleCreateSensor registers a new definition.
//
// Responds 201 with the committed snapshot and a Location header. A
// publish failure after the commit still responds 201; the unconfirmed
// notification is logged.
func (s *Server) handleCreateSensor(w http.ResponseWriter, r *http.Request) {
	var in sensor.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	def, err := s.registry.Create(r.Context(), in)
	if err != nil && !errors.Is(err, sensor.ErrEventNotPublished) {
		s.writeSensorError(w, err, "failed to create sensor")
		return
	}
	if err != nil {
		s.logger.Warn("sensor created but event unconfirmed", "sensor_id", def.SensorID, "error", err)
	}

	w.Header().Set("Location", "/sensors/"+def.ID)
	writeJSON(w, http.StatusCreated, def)
}

// handleUpdateSensor replaces the mutable fields of a definition by
// system id.
func (s *Server) handleUpdateSensor(w http.ResponseWriter, r *http.Request) {
	s.updateSensor(w, r, func(in sensor.Input) (*sensor.SensorDefinition, error) {
		return s.registry.Update(r.Context(), chi.URLParam(r, "id"), in)
	})
}

// handleUpdateSensorBySensorID replaces the mutable fields of a
// definition by logical id.
func (s *Server) handleUpdateSensorBySensorID(w http.ResponseWriter, r *http.Request) {
	s.updateSensor(w, r, func(in sensor.Input) (*sensor.SensorDefinition, error) {
		return s.registry.UpdateBySensorID(r.Context(), chi.URLParam(r, "sensorID"), in)
	})
}

// updateSensor is the shared body of the two PUT routes.
func (s *Server) updateSensor(w http.ResponseWriter, r *http.Request, apply func(sensor.Input) (*sensor.SensorDefinition, error)) {
	var in sensor.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	def, err := apply(in)
	if err != nil && !errors.Is(err, sensor.ErrEventNotPublished) {
		s.writeSensorError(w, err, "failed to update sensor")
		return
	}
	if err != nil {
		s.logger.Warn("sensor updated but event unconfirmed", "sensor_id", def.SensorID, "error", err)
	}

	writeJSON(w, http.StatusOK, def)
}

// handleDeleteSensor removes a definition by system id. Responds 204.
func (s *Server) handleDeleteSensor(w http.ResponseWriter, r *http.Request) {
	s.deleteSensor(w, s.registry.Delete(r.Context(), chi.URLParam(r, "id")))
}

// handleDeleteSensorBySensorID removes a definition by logical id.
func (s *Server) handleDeleteSensorBySensorID(w http.ResponseWriter, r *http.Request) {
	s.deleteSensor(w, s.registry.DeleteBySensorID(r.Context(), chi.URLParam(r, "sensorID")))
}

func (s *Server) deleteSensor(w http.ResponseWriter, err error) {
	if err != nil && !errors.Is(err, sensor.ErrEventNotPublished) {
		s.writeSensorError(w, err, "failed to delete sensor")
		return
	}
	if err != nil {
		s.logger.Warn("sensor deleted but event unconfirmed", "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeSensorError maps registry errors onto HTTP status codes.
func (s *Server) writeSensorError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, sensor.ErrInvalidSensor):
		writeValidationError(w, err.Error())
	case errors.Is(err, sensor.ErrSensorNotFound):
		writeNotFound(w, "sensor not found")
	case errors.Is(err, sensor.ErrSensorExists):
		writeConflict(w, "sensorId already registered")
	default:
		s.logger.Error(fallback, "error", err)
		writeInternalError(w, fallback)
	}
}

// parseFilter extracts the equality filters from the query string.
// Invalid boolean values are rejected rather than ignored.
func parseFilter(r *http.Request) (sensor.Filter, error) {
	filter := sensor.Filter{
		SensorType: r.URL.Query().Get("sensorType"),
	}

	for _, q := range []struct {
		name string
		dest **bool
	}{
		{"enabled", &filter.Enabled},
		{"simulate", &filter.Simulate},
	} {
		raw := r.URL.Query().Get(q.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return sensor.Filter{}, errors.New("invalid boolean value for " + q.name)
		}
		*q.dest = &v
	}

	return filter, nil
}

// parsePaging extracts page and pageSize from the query string. Absent
// values are zero; the registry applies defaults and clamps.
func parsePaging(r *http.Request) (page, pageSize int, err error) {
	if raw := r.URL.Query().Get("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil {
			return 0, 0, errors.New("invalid integer value for page")
		}
	}
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		if pageSize, err = strconv.Atoi(raw); err != nil {
			return 0, 0, errors.New("invalid integer value for pageSize")
		}
	}
	return page, pageSize, nil
}
