package panel

import (
	"context"
	"testing"
	"time"

	"github.com/tonhe/sol/internal/client"
)

func ptr(v float64) *float64 { return &v }

// fakeSource serves canned data. Nil funcs return zero values.
type fakeSource struct {
	current func(ctx context.Context) (client.CurrentData, error)
	power   func(ctx context.Context) (float64, error)
	history func(ctx context.Context, days int) ([]client.HistoryPoint, error)
	alerts  func(ctx context.Context) ([]string, error)
	future  func(ctx context.Context) ([]client.Prediction, error)
	predict func(ctx context.Context, r client.SensorReading) (float64, error)
}

func (f *fakeSource) CurrentData(ctx context.Context) (client.CurrentData, error) {
	if f.current == nil {
		return client.CurrentData{}, nil
	}
	return f.current(ctx)
}

func (f *fakeSource) CurrentPower(ctx context.Context) (float64, error) {
	if f.power == nil {
		return 0, nil
	}
	return f.power(ctx)
}

func (f *fakeSource) History(ctx context.Context, days int) ([]client.HistoryPoint, error) {
	if f.history == nil {
		return []client.HistoryPoint{}, nil
	}
	return f.history(ctx, days)
}

func (f *fakeSource) Alerts(ctx context.Context) ([]string, error) {
	if f.alerts == nil {
		return []string{}, nil
	}
	return f.alerts(ctx)
}

func (f *fakeSource) PredictFuture(ctx context.Context) ([]client.Prediction, error) {
	if f.future == nil {
		return nil, nil
	}
	return f.future(ctx)
}

func (f *fakeSource) Predict(ctx context.Context, r client.SensorReading) (float64, error) {
	if f.predict == nil {
		return 0, nil
	}
	return f.predict(ctx, r)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
