package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestNewRejectsRelativeBase(t *testing.T) {
	if _, err := New("/api", nil); err == nil {
		t.Fatal("expected error for relative base url")
	}
}

func TestFetchJSONSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/current-data" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"AMBIENT_TEMPERATURE": 40, "MODULE_TEMPERATURE": 30, "IRRADIATION": 0.5, "HUMIDITY": 50}`))
	})

	var v any
	if err := c.FetchJSON(context.Background(), "/current-data", nil, &v); err != nil {
		t.Fatalf("FetchJSON() error: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected JSON object, got %T", v)
	}
	if m["AMBIENT_TEMPERATURE"] != 40.0 {
		t.Errorf("expected 40, got %v", m["AMBIENT_TEMPERATURE"])
	}
}

func TestFetchJSONHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "boom"}`, http.StatusInternalServerError)
	})

	err := c.FetchJSON(context.Background(), "/history", nil, nil)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %T: %v", err, err)
	}
	if httpErr.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", httpErr.Status)
	}
	if Kind(err) != "http" {
		t.Errorf("expected kind http, got %q", Kind(err))
	}
}

func TestFetchJSONDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})

	var v any
	err := c.FetchJSON(context.Background(), "/alerts", nil, &v)
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("expected *DecodeError, got %T: %v", err, err)
	}
}

func TestFetchJSONNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := New(base, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	err = c.FetchJSON(context.Background(), "/alerts", nil, nil)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *NetworkError, got %T: %v", err, err)
	}
}

func TestFetchJSONCancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.FetchJSON(ctx, "/alerts", nil, nil)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *NetworkError, got %T: %v", err, err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped DeadlineExceeded, got %v", err)
	}
}

func TestFetchJSONBaseWithPathPrefix(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"power": 1}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/api/", nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := c.CurrentPower(context.Background()); err != nil {
		t.Fatalf("CurrentPower() error: %v", err)
	}
	if gotPath != "/api/current-power" {
		t.Errorf("expected /api/current-power, got %q", gotPath)
	}
}

func TestHistoryQueryAndOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("days") != "30" {
			t.Errorf("expected days=30, got %q", r.URL.RawQuery)
		}
		w.Write([]byte(`[
			{"DATE_TIME": "2024-05-03 10:00:00", "AC_POWER": 3},
			{"DATE_TIME": "2024-05-01 10:00:00", "AC_POWER": 1},
			{"DATE_TIME": "2024-05-02 10:00:00", "AC_POWER": 2}
		]`))
	})

	points, err := c.History(context.Background(), 30)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	for i, want := range []float64{3, 1, 2} {
		if points[i].ACPower != want {
			t.Errorf("point %d: expected AC_POWER %v (backend order), got %v", i, want, points[i].ACPower)
		}
	}
}

func TestHistoryNoDataMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": "No data available."}`))
	})

	points, err := c.History(context.Background(), 5)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("expected empty series, got %d points", len(points))
	}
}

func TestPredictBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		var got SensorReading
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}
		if got.Month != 6 || got.Hour != 13 || got.DayOfWeek != 0 {
			t.Errorf("unexpected calendar features: %+v", got)
		}
		w.Write([]byte(`{"prediction": [123.5]}`))
	})

	// 2024-06-03 was a Monday.
	at := time.Date(2024, time.June, 3, 13, 0, 0, 0, time.UTC)
	p, err := c.Predict(context.Background(), NewSensorReading(25, 35, 0.7, at))
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	if p != 123.5 {
		t.Errorf("expected 123.5, got %v", p)
	}
}

func TestPredictScalarResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prediction": 88}`))
	})
	p, err := c.Predict(context.Background(), SensorReading{})
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	if p != 88 {
		t.Errorf("expected 88, got %v", p)
	}
}

func TestAlertsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"alerts": null}`))
	})
	alerts, err := c.Alerts(context.Background())
	if err != nil {
		t.Fatalf("Alerts() error: %v", err)
	}
	if alerts == nil || len(alerts) != 0 {
		t.Errorf("expected empty non-nil alerts, got %#v", alerts)
	}
}

func TestCurrentDataMissingField(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"AMBIENT_TEMPERATURE": 21.5}`))
	})
	d, err := c.CurrentData(context.Background())
	if err != nil {
		t.Fatalf("CurrentData() error: %v", err)
	}
	if d.AmbientTemperature == nil || *d.AmbientTemperature != 21.5 {
		t.Errorf("expected ambient 21.5, got %v", d.AmbientTemperature)
	}
	if d.Humidity != nil {
		t.Errorf("expected missing humidity to be nil, got %v", *d.Humidity)
	}
}
