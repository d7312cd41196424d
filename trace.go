package proxyvars

import (
	"encoding/json"
	"sync"
	"time"
)

// Trace captures the sequence of operations performed through a proxy,
// usable as an audit record for context-dependent reads and rebinds.
type Trace struct {
	Proxy    string   `json:"proxy"`
	Accesses []Access `json:"accesses"`
}

// Access details a single forwarded operation inside a trace.
type Access struct {
	Op       string        `json:"op"`
	Engine   string        `json:"engine,omitempty"`
	Expr     string        `json:"expr,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
	At       time.Time     `json:"at"`
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated
// via ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

// TraceRecorder is an AccessLogger that accumulates a Trace. Safe for
// concurrent use.
type TraceRecorder struct {
	mu    sync.Mutex
	trace Trace
}

// NewTraceRecorder constructs an empty recorder.
func NewTraceRecorder() *TraceRecorder {
	return &TraceRecorder{}
}

// LogAccess implements AccessLogger.
func (r *TraceRecorder) LogAccess(event AccessEvent) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.trace.Proxy == "" {
		r.trace.Proxy = event.Proxy
	}
	access := Access{
		Op:       event.Op,
		Engine:   event.Engine,
		Expr:     event.Expr,
		Duration: event.Duration,
		At:       time.Now(),
	}
	if event.Err != nil {
		access.Error = event.Err.Error()
	}
	r.trace.Accesses = append(r.trace.Accesses, access)
}

// Snapshot returns a copy of the accumulated trace.
func (r *TraceRecorder) Snapshot() Trace {
	r.mu.Lock()
	defer r.mu.Unlock()
	accesses := make([]Access, len(r.trace.Accesses))
	copy(accesses, r.trace.Accesses)
	return Trace{
		Proxy:    r.trace.Proxy,
		Accesses: accesses,
	}
}
