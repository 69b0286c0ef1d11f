package pitch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shawHuaZe/SingMaster/internal/domain"
)

// simulatedConfidence is the confidence stamped on simulated frames.
const simulatedConfidence = 0.95

// subscriberBuffer is the per-subscriber channel capacity.
const subscriberBuffer = 32

// EngineConfig describes the capture pipeline. Real capture is not wired;
// the values bound the accepted vocal range and are reported to clients.
type EngineConfig struct {
	SampleRate   int     `toml:"sample_rate" json:"sample_rate" validate:"min=8000"`
	BufferSize   int     `toml:"buffer_size" json:"buffer_size" validate:"min=64"`
	FFTSize      int     `toml:"fft_size" json:"fft_size" validate:"min=64"`
	MinFrequency float64 `toml:"min_frequency" json:"min_frequency" validate:"gt=0"`
	MaxFrequency float64 `toml:"max_frequency" json:"max_frequency" validate:"gtfield=MinFrequency"`
}

// DefaultEngineConfig covers E2..B5, the practical singing range.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		SampleRate:   44100,
		BufferSize:   2048,
		FFTSize:      4096,
		MinFrequency: 80,
		MaxFrequency: 1000,
	}
}

// Engine is the stubbed pitch detector. Frames are injected with Simulate
// and fanned out to every active subscription.
type Engine struct {
	mu       sync.Mutex
	cfg      EngineConfig
	running  bool
	released bool
	done     chan struct{}
	subs     map[int]chan domain.PitchSample
	nextID   int
	now      func() time.Time
	log      *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the sample timestamp source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates a stopped engine.
func NewEngine(cfg EngineConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:  cfg,
		done: make(chan struct{}),
		subs: make(map[int]chan domain.PitchSample),
		now:  time.Now,
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() EngineConfig { return e.cfg }

// Start begins accepting frames.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return
	}
	e.running = true
}

// Stop pauses detection. Subscriptions stay open.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
}

// IsActive reports whether the engine is accepting frames.
func (e *Engine) IsActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Release stops the engine and closes every subscription. The engine
// cannot be restarted afterwards.
func (e *Engine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
	if !e.released {
		e.released = true
		close(e.done)
	}
	for id, ch := range e.subs {
		close(ch)
		delete(e.subs, id)
	}
}

// Subscribe returns a stream of samples that is closed when ctx is done or
// the engine is released.
func (e *Engine) Subscribe(ctx context.Context) <-chan domain.PitchSample {
	ch := make(chan domain.PitchSample, subscriberBuffer)

	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		close(ch)
		return ch
	}
	id := e.nextID
	e.nextID++
	e.subs[id] = ch
	e.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			e.unsubscribe(id)
		case <-e.done:
		}
	}()
	return ch
}

// Subscribers returns the number of open subscriptions.
func (e *Engine) Subscribers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

func (e *Engine) unsubscribe(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ch, ok := e.subs[id]; ok {
		close(ch)
		delete(e.subs, id)
	}
}

// InRange reports whether hz lies inside the configured vocal range.
func (e *Engine) InRange(hz float64) bool {
	return hz >= e.cfg.MinFrequency && hz <= e.cfg.MaxFrequency
}

// Simulate injects a detected frequency. Returns false when the engine is
// not running. Subscribers that are not keeping up miss the frame.
func (e *Engine) Simulate(hz float64) (domain.PitchSample, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return domain.PitchSample{}, false
	}

	sample := BuildPitchSampleAt(hz, simulatedConfidence, e.now())
	for id, ch := range e.subs {
		select {
		case ch <- sample:
		default:
			e.log.Debug("subscriber lagging, frame dropped", zap.Int("subscriber", id))
		}
	}
	return sample, true
}
