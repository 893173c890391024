package journal

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tonhe/sol/internal/client"
	"github.com/tonhe/sol/internal/logging"
	"github.com/tonhe/sol/internal/panel"
	"github.com/tonhe/sol/internal/threshold"
)

func ptr(v float64) *float64 { return &v }

func openTest(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(logging.Discard(), filepath.Join(t.TempDir(), "data", "journal.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func sampleReadings(t *testing.T) panel.Readings {
	t.Helper()
	r, err := panel.EvaluateReadings(threshold.Default(), threshold.Default().Metrics(), client.CurrentData{
		DateTime:           "2024-06-03 13:00:00",
		AmbientTemperature: ptr(40),
		ModuleTemperature:  ptr(30),
		Irradiation:        ptr(0.5),
	})
	if err != nil {
		t.Fatalf("EvaluateReadings() error: %v", err)
	}
	return r
}

func TestRecordAndRecent(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()
	at := time.Date(2024, time.June, 3, 13, 0, 5, 0, time.UTC)

	if err := j.Record(ctx, "readings", sampleReadings(t), at); err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	n, err := j.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 rows, got %d", n)
	}

	entries, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	byMetric := make(map[string]Entry)
	for _, e := range entries {
		byMetric[e.Metric] = e
		if e.ID == "" {
			t.Error("entry without id")
		}
		if !e.TakenAt.Equal(at) {
			t.Errorf("expected taken_at %v, got %v", at, e.TakenAt)
		}
	}
	if e := byMetric["AMBIENT_TEMPERATURE"]; e.Status != "OUT_OF_RANGE" || e.Value == nil || *e.Value != 40 {
		t.Errorf("unexpected ambient entry %+v", e)
	}
	if e := byMetric["HUMIDITY"]; e.Value != nil || e.Status != "OUT_OF_RANGE" {
		t.Errorf("missing humidity should be stored as null and out of range, got %+v", e)
	}
	if e := byMetric["MODULE_TEMPERATURE"]; e.SampledAt != "2024-06-03 13:00:00" {
		t.Errorf("expected backend timestamp to be kept, got %q", e.SampledAt)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()
	r := sampleReadings(t)
	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	j.Record(ctx, "readings", r, older)
	j.Record(ctx, "readings", r, newer)

	entries, err := j.Recent(ctx, 4)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected limit of 4, got %d", len(entries))
	}
	for _, e := range entries {
		if !e.TakenAt.Equal(newer.UTC()) {
			t.Errorf("expected only the newest snapshot, got %v", e.TakenAt)
		}
	}
}

func TestCleanup(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()
	r := sampleReadings(t)
	j.Record(ctx, "readings", r, time.Now().Add(-48*time.Hour))
	j.Record(ctx, "readings", r, time.Now())

	n, err := j.Cleanup(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Cleanup() error: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 rows deleted, got %d", n)
	}
	if left, _ := j.Count(ctx); left != 4 {
		t.Errorf("expected 4 rows left, got %d", left)
	}
}

func TestWriteCSV(t *testing.T) {
	at := time.Date(2024, time.June, 3, 13, 0, 0, 0, time.UTC)
	entries := []Entry{
		{TakenAt: at, Panel: "readings", Metric: "HUMIDITY", Value: ptr(55.5), Status: "OK"},
		{TakenAt: at, Panel: "readings", Metric: "IRRADIATION", Status: "OUT_OF_RANGE"},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, entries); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "taken_at,panel,metric,value,status,sampled_at" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != "2024-06-03T13:00:00Z,readings,HUMIDITY,55.5,OK," {
		t.Errorf("unexpected row %q", lines[1])
	}
	if lines[2] != "2024-06-03T13:00:00Z,readings,IRRADIATION,,OUT_OF_RANGE," {
		t.Errorf("unexpected row %q", lines[2])
	}
}
