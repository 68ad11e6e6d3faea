package jsengine

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/asynkron/jsengine/internal/config"
)

// Options configures a newly constructed Engine (spec.md §5.5 execution
// limits, §5.6 diagnostics). Construct via New(opts ...Option) rather than
// a struct literal, grounded on the teacher's LexerOption/WithPreserveComments
// pattern (internal/lexer/lexer.go) applied one level up, at the embedder
// boundary, instead of the parser.
type Options struct {
	// ExecutionTimeout bounds how long a single Evaluate/EvaluateModule call
	// may run before it is canceled and a host-failure is surfaced to the
	// awaiter (spec.md §5.5, default 10s).
	ExecutionTimeout time.Duration

	// MaxCallDepth bounds call-stack recursion before a RangeError fires
	// (spec.md §5.5, default 1000).
	MaxCallDepth int

	// EnableAsyncIteratorTrace turns on the async-iterator diagnostics
	// stream (spec.md §5.6); off by default so tracing costs nothing in the
	// common case.
	EnableAsyncIteratorTrace bool

	// CompatibilityMode names a parser/evaluator compatibility profile.
	// Reserved for future use: no profile currently changes behavior, so
	// any non-empty value is accepted and stored but otherwise inert.
	CompatibilityMode string

	// Log receives every built-in's and the event loop's structured log
	// output; nil falls back to logrus.StandardLogger(), same as
	// internal/interp.New and internal/eventloop.New already do on their
	// own when given a nil logger.
	Log logrus.FieldLogger
}

func defaultOptions() Options {
	return Options{
		ExecutionTimeout: 10 * time.Second,
		MaxCallDepth:     1000,
	}
}

// Option mutates an Options being built up by New, the same shape as the
// teacher's LexerOption.
type Option func(*Options)

func WithExecutionTimeout(d time.Duration) Option {
	return func(o *Options) { o.ExecutionTimeout = d }
}

func WithMaxCallDepth(n int) Option {
	return func(o *Options) { o.MaxCallDepth = n }
}

func WithAsyncIteratorTrace(enabled bool) Option {
	return func(o *Options) { o.EnableAsyncIteratorTrace = enabled }
}

func WithCompatibilityMode(mode string) Option {
	return func(o *Options) { o.CompatibilityMode = mode }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(o *Options) { o.Log = log }
}

// FromConfig applies an internal/config.Overlay's non-nil fields on top of
// whatever Options a caller already set, so a YAML file composes with
// functional Options instead of replacing them (config.Overlay's pointer
// fields are exactly "absent from this file" vs. "explicitly set" for this
// reason). Pass it alongside other Option values:
//
//	ov, _ := config.LoadFile("jsengine.yaml")
//	eng := jsengine.New(jsengine.WithMaxCallDepth(500), jsengine.FromConfig(ov))
func FromConfig(ov config.Overlay) Option {
	return func(o *Options) {
		if ov.ExecutionTimeoutMS != nil {
			o.ExecutionTimeout = time.Duration(*ov.ExecutionTimeoutMS) * time.Millisecond
		}
		if ov.MaxCallDepth != nil {
			o.MaxCallDepth = *ov.MaxCallDepth
		}
		if ov.EnableAsyncIteratorTrace != nil {
			o.EnableAsyncIteratorTrace = *ov.EnableAsyncIteratorTrace
		}
		if ov.CompatibilityMode != nil {
			o.CompatibilityMode = *ov.CompatibilityMode
		}
	}
}
