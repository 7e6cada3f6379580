// debug.go defines the optional timing and audit collaborators called around each dispatch.
package macro

import (
	"log/slog"
	"sync"
	"time"
)

// Timer measures single dispatches. Labels have the form "Macro: <identifier>".
type Timer interface {
	Start(label string)
	ElapsedTime(label string) time.Duration
	Stop(label string)
}

// Record is what a Recorder receives after every dispatch.
type Record struct {
	Identifier string
	Parameters []string
	Context    any
	Options    Options
	Result     string
	Elapsed    time.Duration // zero when no Timer is configured
}

// Recorder receives a Record after every successful dispatch.
type Recorder interface {
	Record(rec Record)
}

// Stopwatch is a Timer backed by the wall clock.
type Stopwatch struct {
	mu      sync.Mutex
	started map[string]time.Time
	now     func() time.Time
}

// NewStopwatch creates a Stopwatch.
func NewStopwatch() *Stopwatch {
	return &Stopwatch{
		started: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *Stopwatch) Start(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started[label] = s.now()
}

// ElapsedTime returns the time since Start(label), or zero if label is not running.
func (s *Stopwatch) ElapsedTime(label string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	start, ok := s.started[label]
	if !ok {
		return 0
	}
	return s.now().Sub(start)
}

func (s *Stopwatch) Stop(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.started, label)
}

// LogRecorder writes every record as a debug line.
type LogRecorder struct {
	Logger *slog.Logger
}

func (l LogRecorder) Record(rec Record) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Macro dispatched.",
		"macro", rec.Identifier,
		"parameters", rec.Parameters,
		"validate", rec.Options.Validate,
		"result_bytes", len(rec.Result),
		"elapsed", rec.Elapsed,
	)
}

// MemoryRecorder keeps every record in order.
type MemoryRecorder struct {
	mu      sync.Mutex
	records []Record
}

func (m *MemoryRecorder) Record(rec Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
}

// Records returns a copy of the recorded dispatches.
func (m *MemoryRecorder) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}
