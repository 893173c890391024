package threshold

import (
	"errors"
	"fmt"
	"math"
)

// Metric names a monitored measurement as it appears in backend payloads.
type Metric string

const (
	AmbientTemperature Metric = "AMBIENT_TEMPERATURE"
	ModuleTemperature  Metric = "MODULE_TEMPERATURE"
	Irradiation        Metric = "IRRADIATION"
	Humidity           Metric = "HUMIDITY"
	ACPower            Metric = "AC_POWER"
)

// Status is the derived pass/fail state of a single reading.
type Status int

const (
	OutOfRange Status = iota
	OK
)

func (s Status) String() string {
	if s == OK {
		return "OK"
	}
	return "OUT_OF_RANGE"
}

// MarshalText lets statuses appear by name in JSON payloads.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrUnknownMetric is matched by every ConfigError.
var ErrUnknownMetric = errors.New("metric not in threshold table")

// ConfigError reports a metric the evaluator has no range for.
type ConfigError struct {
	Metric Metric
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("threshold: no range configured for %q", e.Metric)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrUnknownMetric
}

// Threshold is the acceptable inclusive range for one metric.
type Threshold struct {
	Metric Metric
	Min    float64
	Max    float64
	Unit   string
	Label  string
}

// DefaultTable is the fixed range table for the installation.
var DefaultTable = []Threshold{
	{Metric: AmbientTemperature, Min: 15, Max: 35, Unit: "°C", Label: "Ambient temp"},
	{Metric: ModuleTemperature, Min: 20, Max: 50, Unit: "°C", Label: "Module temp"},
	{Metric: Irradiation, Min: 0.2, Max: 1.0, Unit: "kW/m²", Label: "Irradiation"},
	{Metric: Humidity, Min: 20, Max: 80, Unit: "%", Label: "Humidity"},
}

// Evaluator maps metric values onto statuses. It is immutable after
// construction and safe for concurrent use.
type Evaluator struct {
	table map[Metric]Threshold
	order []Metric
}

// NewEvaluator builds an evaluator from a threshold table. Each entry must
// satisfy Min <= Max and metrics may not repeat.
func NewEvaluator(table []Threshold) (*Evaluator, error) {
	e := &Evaluator{table: make(map[Metric]Threshold, len(table))}
	for _, t := range table {
		if math.IsNaN(t.Min) || math.IsNaN(t.Max) || t.Min > t.Max {
			return nil, fmt.Errorf("threshold: invalid range [%v, %v] for %s", t.Min, t.Max, t.Metric)
		}
		if _, dup := e.table[t.Metric]; dup {
			return nil, fmt.Errorf("threshold: duplicate entry for %s", t.Metric)
		}
		e.table[t.Metric] = t
		e.order = append(e.order, t.Metric)
	}
	return e, nil
}

// Default returns an evaluator over DefaultTable.
func Default() *Evaluator {
	e, err := NewEvaluator(DefaultTable)
	if err != nil {
		panic(err)
	}
	return e
}

// Evaluate returns OK iff min <= value <= max for the metric's range.
// NaN is always out of range. Unknown metrics yield a *ConfigError.
func (e *Evaluator) Evaluate(metric Metric, value float64) (Status, error) {
	t, ok := e.table[metric]
	if !ok {
		return OutOfRange, &ConfigError{Metric: metric}
	}
	if math.IsNaN(value) {
		return OutOfRange, nil
	}
	if value >= t.Min && value <= t.Max {
		return OK, nil
	}
	return OutOfRange, nil
}

// EvaluateOptional treats an absent value as out of range.
func (e *Evaluator) EvaluateOptional(metric Metric, value *float64) (Status, error) {
	if value == nil {
		if _, ok := e.table[metric]; !ok {
			return OutOfRange, &ConfigError{Metric: metric}
		}
		return OutOfRange, nil
	}
	return e.Evaluate(metric, *value)
}

// Require checks that every metric has a configured range.
func (e *Evaluator) Require(metrics ...Metric) error {
	var errs []error
	for _, m := range metrics {
		if _, ok := e.table[m]; !ok {
			errs = append(errs, &ConfigError{Metric: m})
		}
	}
	return errors.Join(errs...)
}

// Lookup returns the configured range for a metric.
func (e *Evaluator) Lookup(metric Metric) (Threshold, bool) {
	t, ok := e.table[metric]
	return t, ok
}

// Metrics returns the configured metrics in table order.
func (e *Evaluator) Metrics() []Metric {
	out := make([]Metric, len(e.order))
	copy(out, e.order)
	return out
}

// Band classifies generated power for display colouring.
type Band int

const (
	BandLow Band = iota
	BandMedium
	BandHigh
)

func (b Band) String() string {
	switch b {
	case BandLow:
		return "low"
	case BandMedium:
		return "medium"
	default:
		return "high"
	}
}

func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// PowerBand buckets a power reading in kW: below 100 is low, below 200 is
// medium, anything else high.
func PowerBand(kw float64) Band {
	switch {
	case kw < 100:
		return BandLow
	case kw < 200:
		return BandMedium
	default:
		return BandHigh
	}
}
