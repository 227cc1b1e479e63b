package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/sensor-manager/internal/infrastructure/config"
	"github.com/nerrad567/sensor-manager/internal/infrastructure/logging"
	"github.com/nerrad567/sensor-manager/internal/sensor"
)

// testSchema mirrors migrations/20260301_000000_create_sensors.up.sql.
const testSchema = `
	CREATE TABLE sensors (
		id TEXT PRIMARY KEY,
		sensor_id TEXT NOT NULL,
		sensor_type TEXT NOT NULL,
		unit TEXT NOT NULL,
		operating_min DOUBLE PRECISION NOT NULL,
		operating_max DOUBLE PRECISION NOT NULL,
		warning_min DOUBLE PRECISION NOT NULL,
		warning_max DOUBLE PRECISION NOT NULL,
		interval_ms INTEGER NOT NULL,
		enabled BOOLEAN NOT NULL,
		simulate BOOLEAN NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE UNIQUE INDEX idx_sensors_sensor_id ON sensors (sensor_id);
`

// capturePublisher records published change events.
type capturePublisher struct {
	events []sensor.ChangeEvent
}

func (p *capturePublisher) Publish(_ context.Context, event sensor.ChangeEvent) error {
	p.events = append(p.events, event)
	return nil
}

// failingPublisher simulates an unreachable broker.
type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, sensor.ChangeEvent) error {
	return errors.New("broker unreachable")
}

// setupTestServer builds a server over an in-memory store and returns
// its handler plus the event capture.
func setupTestServer(t *testing.T, publisher sensor.Publisher) *httptest.Server {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("creating test schema: %v", err)
	}

	registry := sensor.NewRegistry(sensor.NewSQLRepository(db), publisher)

	srv, err := New(Deps{
		Config:   config.APIConfig{Host: "127.0.0.1", Port: 0},
		Logger:   logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test"),
		Registry: registry,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ts := httptest.NewServer(srv.buildRouter())
	t.Cleanup(ts.Close)
	return ts
}

func postSensor(t *testing.T, ts *httptest.Server, in sensor.Input) (*http.Response, sensor.SensorDefinition) {
	t.Helper()

	body, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshalling input: %v", err)
	}

	resp, err := http.Post(ts.URL+"/sensors", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /sensors: %v", err)
	}

	var def sensor.SensorDefinition
	if resp.StatusCode == http.StatusCreated {
		if err := json.NewDecoder(resp.Body).Decode(&def); err != nil {
			t.Fatalf("decoding created sensor: %v", err)
		}
	}
	resp.Body.Close()
	return resp, def
}

func doRequest(t *testing.T, method, url string, body []byte) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func testInput(sensorID string) sensor.Input {
	return sensor.Input{
		SensorID:     sensorID,
		SensorType:   "temperature",
		Unit:         "°C",
		OperatingMin: 0,
		OperatingMax: 100,
		WarningMin:   10,
		WarningMax:   90,
		IntervalMs:   1000,
		Enabled:      true,
	}
}

func TestRootAndHealth(t *testing.T) {
	ts := setupTestServer(t, &capturePublisher{})

	t.Run("banner", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/")
		if err != nil {
			t.Fatalf("GET /: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
		var banner map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&banner); err != nil {
			t.Fatalf("decoding banner: %v", err)
		}
		if banner["service"] != "sensor-manager" {
			t.Errorf("service = %v, want sensor-manager", banner["service"])
		}
	})

	t.Run("liveness", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/health/live")
		if err != nil {
			t.Fatalf("GET /health/live: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("readiness without store handle", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/health/ready")
		if err != nil {
			t.Fatalf("GET /health/ready: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", resp.StatusCode)
		}
	})
}

func TestSensorLifecycle(t *testing.T) {
	publisher := &capturePublisher{}
	ts := setupTestServer(t, publisher)

	// Create with a non-positive interval: coerced to the default.
	in := testInput("temp-9")
	in.IntervalMs = 0
	resp, created := postSensor(t, ts, in)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want 201", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/sensors/"+created.ID {
		t.Errorf("Location = %q, want /sensors/%s", loc, created.ID)
	}
	if created.IntervalMs != sensor.DefaultIntervalMs {
		t.Errorf("IntervalMs = %d, want %d", created.IntervalMs, sensor.DefaultIntervalMs)
	}

	// Read back through both key routes.
	for _, url := range []string{
		ts.URL + "/sensors/" + created.ID,
		ts.URL + "/sensors/by-sensorId/temp-9",
	} {
		resp := doRequest(t, http.MethodGet, url, nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", url, resp.StatusCode)
		}
		var got sensor.SensorDefinition
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("decoding sensor: %v", err)
		}
		resp.Body.Close()
		if got.ID != created.ID {
			t.Errorf("GET %s returned id %q, want %q", url, got.ID, created.ID)
		}
	}

	// Update with a negative interval: the stored default survives, and
	// the body's sensorId is ignored.
	update := testInput("renamed")
	update.Unit = "K"
	update.IntervalMs = -5
	body, _ := json.Marshal(update)
	resp = doRequest(t, http.MethodPut, ts.URL+"/sensors/"+created.ID, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want 200", resp.StatusCode)
	}
	var updated sensor.SensorDefinition
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("decoding updated sensor: %v", err)
	}
	resp.Body.Close()
	if updated.SensorID != "temp-9" {
		t.Errorf("SensorID = %q, must stay temp-9", updated.SensorID)
	}
	if updated.Unit != "K" {
		t.Errorf("Unit = %q, want K", updated.Unit)
	}
	if updated.IntervalMs != sensor.DefaultIntervalMs {
		t.Errorf("IntervalMs = %d, want stored %d", updated.IntervalMs, sensor.DefaultIntervalMs)
	}

	// Delete, then both routes answer 404.
	resp = doRequest(t, http.MethodDelete, ts.URL+"/sensors/"+created.ID, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want 204", resp.StatusCode)
	}
	resp = doRequest(t, http.MethodGet, ts.URL+"/sensors/"+created.ID, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want 404", resp.StatusCode)
	}

	// One ordered event per committed mutation.
	want := []sensor.Action{sensor.ActionCreated, sensor.ActionUpdated, sensor.ActionDeleted}
	if len(publisher.events) != len(want) {
		t.Fatalf("published %d events, want %d", len(publisher.events), len(want))
	}
	for i, action := range want {
		if publisher.events[i].Action != action {
			t.Errorf("events[%d].Action = %q, want %q", i, publisher.events[i].Action, action)
		}
		if publisher.events[i].SensorID != "temp-9" {
			t.Errorf("events[%d].SensorID = %q, want temp-9", i, publisher.events[i].SensorID)
		}
	}
}

func TestCreateSensorRejections(t *testing.T) {
	ts := setupTestServer(t, &capturePublisher{})

	t.Run("validation failure", func(t *testing.T) {
		in := testInput("")
		resp, _ := postSensor(t, ts, in)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, ts.URL+"/sensors", []byte("{not json"))
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("duplicate sensorId", func(t *testing.T) {
		if resp, _ := postSensor(t, ts, testInput("temp-1")); resp.StatusCode != http.StatusCreated {
			t.Fatalf("first create status = %d, want 201", resp.StatusCode)
		}
		resp, _ := postSensor(t, ts, testInput("temp-1"))
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("duplicate create status = %d, want 409", resp.StatusCode)
		}
	})
}

func TestUpdateAndDeleteNotFound(t *testing.T) {
	ts := setupTestServer(t, &capturePublisher{})

	body, _ := json.Marshal(testInput("ghost"))
	for _, tc := range []struct {
		method string
		url    string
		body   []byte
		want   int
	}{
		{http.MethodPut, ts.URL + "/sensors/missing", body, http.StatusNotFound},
		{http.MethodPut, ts.URL + "/sensors/by-sensorId/missing", body, http.StatusNotFound},
		{http.MethodDelete, ts.URL + "/sensors/missing", nil, http.StatusNotFound},
		{http.MethodDelete, ts.URL + "/sensors/by-sensorId/missing", nil, http.StatusNotFound},
	} {
		resp := doRequest(t, tc.method, tc.url, tc.body)
		resp.Body.Close()
		if resp.StatusCode != tc.want {
			t.Errorf("%s %s status = %d, want %d", tc.method, tc.url, resp.StatusCode, tc.want)
		}
	}
}

func TestListSensors(t *testing.T) {
	ts := setupTestServer(t, &capturePublisher{})

	for i := 0; i < 3; i++ {
		in := testInput(fmt.Sprintf("temp-%d", i))
		in.Enabled = i%2 == 0
		if resp, _ := postSensor(t, ts, in); resp.StatusCode != http.StatusCreated {
			t.Fatalf("seed create status = %d", resp.StatusCode)
		}
	}

	decodeList := func(t *testing.T, resp *http.Response) sensor.ListResult {
		t.Helper()
		defer resp.Body.Close()
		var result sensor.ListResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("decoding list: %v", err)
		}
		return result
	}

	t.Run("defaults", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, ts.URL+"/sensors", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		result := decodeList(t, resp)
		if result.Page != 1 || result.PageSize != sensor.DefaultPageSize {
			t.Errorf("page/pageSize = %d/%d, want 1/%d", result.Page, result.PageSize, sensor.DefaultPageSize)
		}
		if result.Total != 3 || len(result.Items) != 3 {
			t.Errorf("total = %d, items = %d, want 3, 3", result.Total, len(result.Items))
		}
	})

	t.Run("boolean filter", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, ts.URL+"/sensors?enabled=true", nil)
		result := decodeList(t, resp)
		if result.Total != 2 {
			t.Errorf("total = %d, want 2", result.Total)
		}
	})

	t.Run("window", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, ts.URL+"/sensors?page=2&pageSize=2", nil)
		result := decodeList(t, resp)
		if result.Total != 3 || len(result.Items) != 1 {
			t.Errorf("total = %d, items = %d, want 3, 1", result.Total, len(result.Items))
		}
	})

	t.Run("oversized pageSize clamped", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, ts.URL+"/sensors?pageSize=10000", nil)
		result := decodeList(t, resp)
		if result.PageSize != sensor.MaxPageSize {
			t.Errorf("pageSize = %d, want clamp to %d", result.PageSize, sensor.MaxPageSize)
		}
	})

	t.Run("invalid boolean", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, ts.URL+"/sensors?enabled=banana", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("invalid page", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, ts.URL+"/sensors?page=abc", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestMutationsSucceedWhenPublishFails(t *testing.T) {
	ts := setupTestServer(t, failingPublisher{})

	resp, created := postSensor(t, ts, testInput("temp-1"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want 201 despite failed publish", resp.StatusCode)
	}

	body, _ := json.Marshal(testInput("temp-1"))
	putResp := doRequest(t, http.MethodPut, ts.URL+"/sensors/"+created.ID, body)
	putResp.Body.Close()
	if putResp.StatusCode != http.StatusOK {
		t.Errorf("PUT status = %d, want 200 despite failed publish", putResp.StatusCode)
	}

	delResp := doRequest(t, http.MethodDelete, ts.URL+"/sensors/"+created.ID, nil)
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want 204 despite failed publish", delResp.StatusCode)
	}
}
