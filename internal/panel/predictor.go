package panel

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tonhe/sol/internal/client"
	"github.com/tonhe/sol/internal/logging"
)

// ErrRateLimited is returned when on-demand predictions arrive faster than
// the configured rate.
var ErrRateLimited = errors.New("prediction rate limit exceeded")

// PredictionResult is the outcome of the latest on-demand prediction.
type PredictionResult struct {
	Reading client.SensorReading `json:"reading"`
	KW      float64              `json:"prediction"`
	Err     error                `json:"-"`
	At      time.Time            `json:"at"`
	Valid   bool                 `json:"-"`
}

// Predictor runs /predict on demand. It has no poller.
type Predictor struct {
	src     Source
	limiter *rate.Limiter
	opts    Options
	log     *slog.Logger

	mu   sync.RWMutex
	last PredictionResult
}

// NewPredictor allows perMinute requests per minute with a burst of the
// same size. perMinute <= 0 disables limiting.
func NewPredictor(src Source, perMinute int, opts Options) *Predictor {
	limit, burst := rate.Inf, 1
	if perMinute > 0 {
		limit, burst = rate.Every(time.Minute/time.Duration(perMinute)), perMinute
	}
	return &Predictor{
		src:     src,
		limiter: rate.NewLimiter(limit, burst),
		opts:    opts,
		log:     opts.logger().With(slog.String("component", "predictor")),
	}
}

// Predict posts reading to the backend and records the outcome.
func (p *Predictor) Predict(ctx context.Context, reading client.SensorReading) (float64, error) {
	if !p.limiter.Allow() {
		p.opts.Metrics.ObservePrediction("rate_limited")
		return 0, ErrRateLimited
	}
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	kw, err := p.src.Predict(ctx, reading)
	p.opts.Metrics.ObservePrediction(client.Kind(err))

	res := PredictionResult{Reading: reading, KW: kw, Err: err, At: time.Now(), Valid: err == nil}
	p.mu.Lock()
	p.last = res
	p.mu.Unlock()

	if err != nil {
		p.log.Warn("prediction failed", logging.Err(err))
		return 0, err
	}
	p.log.Debug("prediction", slog.Float64("kw", kw))
	return kw, nil
}

// Last returns the most recent outcome. At is zero before the first call.
func (p *Predictor) Last() PredictionResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}
