package queue

import (
	"time"

	"github.com/ShayCichocki/taskforge/internal/logging"
)

const (
	// DefaultConcurrency is the default number of tasks running at once.
	DefaultConcurrency = 3
	// DefaultMaxRetries is the default number of retries after a failed attempt.
	DefaultMaxRetries = 3
	// DefaultBaseDelay is the backoff unit; retry n waits n * BaseDelay.
	DefaultBaseDelay = time.Second
	// DefaultPollInterval is how often the scheduler rechecks readiness
	// when no completion arrives.
	DefaultPollInterval = 100 * time.Millisecond
)

// Option configures a Queue. Use With* functions to create Options.
type Option func(*queueOptions)

// queueOptions holds all optional configuration.
type queueOptions struct {
	concurrency  int
	maxRetries   int
	baseDelay    time.Duration
	pollInterval time.Duration
	logger       *logging.DebugLogger
	metrics      Recorder
	events       *EventEmitter
}

func defaultOptions() queueOptions {
	return queueOptions{
		concurrency:  DefaultConcurrency,
		maxRetries:   DefaultMaxRetries,
		baseDelay:    DefaultBaseDelay,
		pollInterval: DefaultPollInterval,
		logger:       logging.NopLogger(),
	}
}

// WithConcurrency sets the maximum number of running tasks. Values below 1 mean 1.
func WithConcurrency(n int) Option {
	return func(o *queueOptions) {
		if n < 1 {
			n = 1
		}
		o.concurrency = n
	}
}

// WithMaxRetries sets how many times a failed task is retried. Negative means 0.
func WithMaxRetries(n int) Option {
	return func(o *queueOptions) {
		if n < 0 {
			n = 0
		}
		o.maxRetries = n
	}
}

// WithBaseDelay sets the retry backoff unit.
func WithBaseDelay(d time.Duration) Option {
	return func(o *queueOptions) {
		if d >= 0 {
			o.baseDelay = d
		}
	}
}

// WithPollInterval sets the readiness recheck interval.
func WithPollInterval(d time.Duration) Option {
	return func(o *queueOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *logging.DebugLogger) Option {
	return func(o *queueOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r Recorder) Option {
	return func(o *queueOptions) { o.metrics = r }
}

// WithEvents sets the emitter that receives task lifecycle events.
func WithEvents(e *EventEmitter) Option {
	return func(o *queueOptions) { o.events = e }
}
