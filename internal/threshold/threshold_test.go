package threshold

import (
	"errors"
	"math"
	"testing"
)

func TestEvaluateBoundaries(t *testing.T) {
	e := Default()
	const eps = 1e-9
	for _, th := range DefaultTable {
		tests := []struct {
			value float64
			want  Status
		}{
			{th.Min, OK},
			{th.Max, OK},
			{(th.Min + th.Max) / 2, OK},
			{th.Min - eps, OutOfRange},
			{th.Max + eps, OutOfRange},
		}
		for _, tt := range tests {
			got, err := e.Evaluate(th.Metric, tt.value)
			if err != nil {
				t.Fatalf("Evaluate(%s, %v) error: %v", th.Metric, tt.value, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%s, %v) = %v, want %v", th.Metric, tt.value, got, tt.want)
			}
		}
	}
}

func TestEvaluateNaN(t *testing.T) {
	got, err := Default().Evaluate(Humidity, math.NaN())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != OutOfRange {
		t.Errorf("NaN should be OUT_OF_RANGE, got %v", got)
	}
}

func TestEvaluateOptionalAbsent(t *testing.T) {
	got, err := Default().EvaluateOptional(Irradiation, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != OutOfRange {
		t.Errorf("absent value should be OUT_OF_RANGE, got %v", got)
	}
}

func TestEvaluateUnknownMetric(t *testing.T) {
	_, err := Default().Evaluate(ACPower, 150)
	if !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Metric != ACPower {
		t.Errorf("expected *ConfigError for AC_POWER, got %v", err)
	}
}

func TestEndToEndReadingStatuses(t *testing.T) {
	e := Default()
	readings := map[Metric]float64{
		AmbientTemperature: 40,
		ModuleTemperature:  30,
		Irradiation:        0.5,
		Humidity:           50,
	}
	want := map[Metric]Status{
		AmbientTemperature: OutOfRange,
		ModuleTemperature:  OK,
		Irradiation:        OK,
		Humidity:           OK,
	}
	for m, v := range readings {
		got, err := e.Evaluate(m, v)
		if err != nil {
			t.Fatalf("Evaluate(%s) error: %v", m, err)
		}
		if got != want[m] {
			t.Errorf("%s: got %v, want %v", m, got, want[m])
		}
	}
}

func TestNewEvaluatorRejectsInvertedRange(t *testing.T) {
	_, err := NewEvaluator([]Threshold{{Metric: Humidity, Min: 80, Max: 20}})
	if err == nil {
		t.Fatal("expected error for min > max")
	}
}

func TestNewEvaluatorRejectsDuplicate(t *testing.T) {
	_, err := NewEvaluator([]Threshold{
		{Metric: Humidity, Min: 20, Max: 80},
		{Metric: Humidity, Min: 10, Max: 90},
	})
	if err == nil {
		t.Fatal("expected error for duplicate metric")
	}
}

func TestRequire(t *testing.T) {
	e := Default()
	if err := e.Require(AmbientTemperature, Humidity); err != nil {
		t.Errorf("Require() on known metrics: %v", err)
	}
	if err := e.Require(Humidity, ACPower); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("Require() should report AC_POWER, got %v", err)
	}
}

func TestPowerBand(t *testing.T) {
	tests := []struct {
		kw   float64
		want Band
	}{
		{0, BandLow},
		{99.9, BandLow},
		{100, BandMedium},
		{199.9, BandMedium},
		{200, BandHigh},
		{512, BandHigh},
	}
	for _, tt := range tests {
		if got := PowerBand(tt.kw); got != tt.want {
			t.Errorf("PowerBand(%v) = %v, want %v", tt.kw, got, tt.want)
		}
	}
}
