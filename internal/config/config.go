// Package config loads an optional YAML overlay for jsengine.Options
// (SPEC_FULL.md §1.1 "for embedders that keep engine tuning in a config
// file alongside their own"), via github.com/goccy/go-yaml, the teacher's
// own YAML dependency. It only decodes into an Overlay; applying one onto
// a concrete jsengine.Options is pkg/jsengine's job, so this package never
// has to import the public facade it configures.
package config

import (
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// Overlay mirrors the tunable fields of jsengine.Options. Every field is a
// pointer so a YAML document that mentions only one setting ("maxCallDepth:
// 500") leaves every other field nil, distinguishing "not present in this
// file" from "explicitly set to the zero value" — pkg/jsengine.FromConfig only
// overrides fields that are non-nil, so an Overlay composes with whatever
// functional Options a caller already set rather than stomping them.
type Overlay struct {
	// ExecutionTimeoutMS bounds how long a single Evaluate/EvaluateModule
	// call may run before the watchdog cancels it (spec.md §5.5), in
	// milliseconds since YAML has no native duration type.
	ExecutionTimeoutMS *int64 `yaml:"executionTimeoutMs,omitempty"`

	// MaxCallDepth bounds recursion before a RangeError fires (spec.md
	// §5.5, internal/interp/callstack.go).
	MaxCallDepth *int `yaml:"maxCallDepth,omitempty"`

	// EnableAsyncIteratorTrace turns on the diagnostics async-iterator
	// trace stream (spec.md §5.6, internal/diagnostics.Recorder.EnableAsyncTrace).
	EnableAsyncIteratorTrace *bool `yaml:"enableAsyncIteratorTrace,omitempty"`

	// CompatibilityMode selects a named parser/evaluator compatibility
	// profile (spec.md's CompatibilityMode knob); the zero value ("") means
	// "default, no compatibility shims".
	CompatibilityMode *string `yaml:"compatibilityMode,omitempty"`
}

// Load decodes a YAML document into an Overlay. An empty or all-comments
// document decodes to a zero Overlay (every field nil), which applies as a
// no-op.
func Load(r io.Reader) (Overlay, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Overlay{}, err
	}
	var ov Overlay
	if len(data) == 0 {
		return ov, nil
	}
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return Overlay{}, err
	}
	return ov, nil
}

// LoadFile reads path and decodes it as an Overlay, the common case for an
// embedder keeping engine tuning in a file alongside its own config.
func LoadFile(path string) (Overlay, error) {
	f, err := os.Open(path)
	if err != nil {
		return Overlay{}, err
	}
	defer f.Close()
	return Load(f)
}
