// Package diagnostics is the three read-only streams a host observes a
// running Realm through (spec.md §5.6): debug messages (captured by the
// `__debug` host function, internal/builtins/debug.go), exception records
// (uncaught exceptions with a call-stack snapshot), and an async-iterator
// trace gated behind a flag for deterministic tests. Every record also
// carries its structured fields as JSON (github.com/tidwall/gjson/sjson,
// the same library the teacher's module graph pulls in transitively),
// since a host reading these channels wants to query arbitrary fields
// without this package growing a getter for each one.
package diagnostics

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Kind names which of the three streams a Record belongs to.
type Kind string

const (
	KindDebug      Kind = "debug"
	KindException  Kind = "exception"
	KindAsyncTrace Kind = "async-iterator"
)

// Record is one entry on a diagnostic stream. ID is a fresh google/uuid per
// record (not per Realm — Realm.ID identifies which realm produced it, for
// a host correlating events across several realms, spec.md §3.4/§5.6).
type Record struct {
	ID      string
	RealmID string
	Kind    Kind
	Message string
	Time    time.Time

	// JSON is the full record (id/realmId/kind/message/time plus whatever
	// fields were passed to Debug/Exception/AsyncEvent) as a JSON document,
	// queryable with gjson without this package exposing a Go type per
	// field shape.
	JSON string
}

// Field looks up a dotted path in the record's JSON form, e.g.
// rec.Field("fields.stack").String().
func (r Record) Field(path string) gjson.Result { return gjson.Get(r.JSON, path) }

// Stream is a one-writer/many-reader broadcast channel: Recorder is the
// sole writer, Subscribe hands out independent reader channels so more
// than one host goroutine can watch the same stream without competing for
// records (spec.md §5.6 "one-writer/many-reader channels").
type Stream struct {
	mu   sync.Mutex
	subs []chan Record
}

func newStream() *Stream { return &Stream{} }

// Subscribe returns a new buffered channel that receives every record
// published after this call. A slow reader drops records rather than
// blocking the loop thread that's publishing them — diagnostics are
// best-effort observability, not a guaranteed-delivery transport.
func (s *Stream) Subscribe(buffer int) <-chan Record {
	if buffer <= 0 {
		buffer = 32
	}
	ch := make(chan Record, buffer)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

func (s *Stream) publish(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- rec:
		default:
		}
	}
}

// Recorder is the per-Realm diagnostics writer. internal/builtins' `__debug`
// global calls Debug; the event loop's OnUncaught hook calls Exception;
// internal/interp's async-iterator machinery calls AsyncEvent when tracing
// is enabled.
type Recorder struct {
	realmID string

	debug      *Stream
	exceptions *Stream
	asyncTrace *Stream

	asyncTraceEnabled bool
}

func New(realmID string) *Recorder {
	return &Recorder{
		realmID:    realmID,
		debug:      newStream(),
		exceptions: newStream(),
		asyncTrace: newStream(),
	}
}

// DebugMessages, Exceptions, AsyncTrace are the embedder-facing read
// handles spec.md §6.1 names (`DebugMessages()`, `Exceptions()`).
func (r *Recorder) DebugMessages() <-chan Record { return r.debug.Subscribe(0) }
func (r *Recorder) Exceptions() <-chan Record    { return r.exceptions.Subscribe(0) }
func (r *Recorder) AsyncTrace() <-chan Record    { return r.asyncTrace.Subscribe(0) }

// EnableAsyncTrace toggles the async-iterator trace stream; AsyncEvent is a
// no-op while disabled so deterministic-test instrumentation carries no
// cost in the common case.
func (r *Recorder) EnableAsyncTrace(enabled bool) { r.asyncTraceEnabled = enabled }

func (r *Recorder) AsyncTraceEnabled() bool { return r.asyncTraceEnabled }

// Debug publishes a message captured via the `__debug` host function.
func (r *Recorder) Debug(message string, fields map[string]interface{}) {
	r.debug.publish(r.build(KindDebug, message, fields))
}

// Exception publishes an uncaught exception with a stack string (the thrown
// value's `stack` property, "name: message" for an Error).
func (r *Recorder) Exception(message, stack string) {
	r.exceptions.publish(r.build(KindException, message, map[string]interface{}{"stack": stack}))
}

// AsyncEvent publishes one async-iterator trace event (e.g. "next-called",
// "resolved", "rejected") when AsyncTrace is enabled; otherwise it's a
// no-op so async iteration incurs no recording cost by default.
func (r *Recorder) AsyncEvent(event string, fields map[string]interface{}) {
	if !r.asyncTraceEnabled {
		return
	}
	r.asyncTrace.publish(r.build(KindAsyncTrace, event, fields))
}

func (r *Recorder) build(kind Kind, message string, fields map[string]interface{}) Record {
	id := uuid.NewString()
	now := time.Now().UTC()

	js := "{}"
	js, _ = sjson.Set(js, "id", id)
	js, _ = sjson.Set(js, "realmId", r.realmID)
	js, _ = sjson.Set(js, "kind", string(kind))
	js, _ = sjson.Set(js, "message", message)
	js, _ = sjson.Set(js, "time", now.Format(time.RFC3339Nano))
	for k, v := range fields {
		js, _ = sjson.Set(js, "fields."+k, v)
	}

	return Record{
		ID:      id,
		RealmID: r.realmID,
		Kind:    kind,
		Message: message,
		Time:    now,
		JSON:    js,
	}
}
