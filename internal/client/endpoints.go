package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Backend endpoint paths.
const (
	PathCurrentData      = "/current-data"
	PathCurrentPower     = "/current-power"
	PathHistory          = "/history"
	PathAlerts           = "/alerts"
	PathPredictFuture    = "/predict-future"
	PathPredict          = "/predict"
	PathCheckMaintenance = "/check-maintenance"
	PathFaultyEquipment  = "/faulty-equipment"
)

// CurrentData is the latest sensor reading. Pointer fields are nil when the
// backend omitted the value.
type CurrentData struct {
	DateTime           string   `json:"DATE_TIME,omitempty"`
	AmbientTemperature *float64 `json:"AMBIENT_TEMPERATURE"`
	ModuleTemperature  *float64 `json:"MODULE_TEMPERATURE"`
	Irradiation        *float64 `json:"IRRADIATION"`
	Humidity           *float64 `json:"HUMIDITY"`
	ACPower            *float64 `json:"AC_POWER,omitempty"`
}

// Value returns the reading for a backend field name.
func (d CurrentData) Value(field string) *float64 {
	switch field {
	case "AMBIENT_TEMPERATURE":
		return d.AmbientTemperature
	case "MODULE_TEMPERATURE":
		return d.ModuleTemperature
	case "IRRADIATION":
		return d.Irradiation
	case "HUMIDITY":
		return d.Humidity
	case "AC_POWER":
		return d.ACPower
	default:
		return nil
	}
}

// PowerReading is the generated power in kW.
type PowerReading struct {
	Power float64 `json:"power"`
}

// HistoryPoint is one row of the history series.
type HistoryPoint struct {
	DateTime           string  `json:"DATE_TIME"`
	ACPower            float64 `json:"AC_POWER"`
	AmbientTemperature float64 `json:"AMBIENT_TEMPERATURE"`
	ModuleTemperature  float64 `json:"MODULE_TEMPERATURE"`
}

type alertsResponse struct {
	Alerts []string `json:"alerts"`
}

// Prediction is a forecast for a single future timestamp.
type Prediction struct {
	Date       string  `json:"date"`
	Prediction float64 `json:"prediction"`
}

type predictionsResponse struct {
	Predictions []Prediction `json:"predictions"`
}

// SensorReading is the request body for an on-demand prediction.
type SensorReading struct {
	AmbientTemperature float64 `json:"AMBIENT_TEMPERATURE"`
	ModuleTemperature  float64 `json:"MODULE_TEMPERATURE"`
	Irradiation        float64 `json:"IRRADIATION"`
	Hour               int     `json:"HOUR"`
	DayOfWeek          int     `json:"DAY_OF_WEEK"`
	Month              int     `json:"MONTH"`
}

// NewSensorReading fills the calendar features from at. DayOfWeek counts
// from Monday = 0.
func NewSensorReading(ambient, module, irradiation float64, at time.Time) SensorReading {
	return SensorReading{
		AmbientTemperature: ambient,
		ModuleTemperature:  module,
		Irradiation:        irradiation,
		Hour:               at.Hour(),
		DayOfWeek:          (int(at.Weekday()) + 6) % 7,
		Month:              int(at.Month()),
	}
}

// flexFloat accepts either a number or a list of numbers, keeping the first.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []float64
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		if len(list) == 0 {
			return fmt.Errorf("empty prediction list")
		}
		*f = flexFloat(list[0])
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type predictResponse struct {
	Prediction flexFloat `json:"prediction"`
}

// Maintenance is the backend's maintenance verdict.
type Maintenance struct {
	Alert string `json:"maintenance_alert"`
}

type faultyResponse struct {
	FaultyPanels []string `json:"faulty_panels"`
}

// CurrentData fetches the latest sensor readings.
func (c *Client) CurrentData(ctx context.Context) (CurrentData, error) {
	var d CurrentData
	err := c.FetchJSON(ctx, PathCurrentData, nil, &d)
	return d, err
}

// CurrentPower fetches the generated power in kW.
func (c *Client) CurrentPower(ctx context.Context) (float64, error) {
	var p PowerReading
	if err := c.FetchJSON(ctx, PathCurrentPower, nil, &p); err != nil {
		return 0, err
	}
	return p.Power, nil
}

// History fetches the series for the last days days, in backend order. A
// {"message": ...} object, which the backend sends when it has no rows, is
// an empty series.
func (c *Client) History(ctx context.Context, days int) ([]HistoryPoint, error) {
	q := url.Values{}
	q.Set("days", strconv.Itoa(days))

	var raw json.RawMessage
	if err := c.FetchJSON(ctx, PathHistory, &RequestOptions{Query: q}, &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var msg struct {
			Message *string `json:"message"`
		}
		if err := json.Unmarshal(trimmed, &msg); err == nil && msg.Message != nil {
			return []HistoryPoint{}, nil
		}
	}
	var points []HistoryPoint
	if err := json.Unmarshal(trimmed, &points); err != nil {
		target, _ := c.resolve(PathHistory, q)
		return nil, &DecodeError{URL: target, Err: err}
	}
	if points == nil {
		points = []HistoryPoint{}
	}
	return points, nil
}

// Alerts fetches the active risk alerts.
func (c *Client) Alerts(ctx context.Context) ([]string, error) {
	var r alertsResponse
	if err := c.FetchJSON(ctx, PathAlerts, nil, &r); err != nil {
		return nil, err
	}
	if r.Alerts == nil {
		r.Alerts = []string{}
	}
	return r.Alerts, nil
}

// PredictFuture fetches the forecast for the coming days.
func (c *Client) PredictFuture(ctx context.Context) ([]Prediction, error) {
	var r predictionsResponse
	if err := c.FetchJSON(ctx, PathPredictFuture, nil, &r); err != nil {
		return nil, err
	}
	return r.Predictions, nil
}

// Predict requests a power prediction for a single reading.
func (c *Client) Predict(ctx context.Context, reading SensorReading) (float64, error) {
	var r predictResponse
	opts := &RequestOptions{Method: http.MethodPost, Body: reading}
	if err := c.FetchJSON(ctx, PathPredict, opts, &r); err != nil {
		return 0, err
	}
	return float64(r.Prediction), nil
}

// CheckMaintenance fetches the maintenance verdict.
func (c *Client) CheckMaintenance(ctx context.Context) (Maintenance, error) {
	var m Maintenance
	err := c.FetchJSON(ctx, PathCheckMaintenance, nil, &m)
	return m, err
}

// FaultyEquipment lists panels producing under half their expected power.
func (c *Client) FaultyEquipment(ctx context.Context) ([]string, error) {
	var r faultyResponse
	if err := c.FetchJSON(ctx, PathFaultyEquipment, nil, &r); err != nil {
		return nil, err
	}
	return r.FaultyPanels, nil
}
