package pipeline

import (
	"sync"
	"time"
)

// RunStatus represents the overall run status enum
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// StepState records one step of a run for status reporting.
type StepState struct {
	Name     string        `json:"name"`
	Records  int           `json:"records"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// RunState represents the complete state of one pipeline run. It is
// guarded by its mutex and must not be serialized directly; use
// Snapshot for a copyable view.
type RunState struct {
	mu sync.RWMutex

	ID        string
	Status    RunStatus
	StartTime time.Time
	EndTime   *time.Time

	Steps []StepState

	RecordsExtracted int
	RecordsLoaded    int
	QualityScore     float64
	Acceptable       bool

	Error string
}

// RunSnapshot is a point-in-time, lock-free copy of a RunState, safe to
// pass around and serialize.
type RunSnapshot struct {
	ID        string     `json:"id"`
	Status    RunStatus  `json:"status"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	Steps []StepState `json:"steps"`

	RecordsExtracted int     `json:"records_extracted"`
	RecordsLoaded    int     `json:"records_loaded"`
	QualityScore     float64 `json:"quality_score"`
	Acceptable       bool    `json:"acceptable"`

	Error string `json:"error,omitempty"`
}

// NewRunState creates a pending run state.
func NewRunState(id string) *RunState {
	return &RunState{
		ID:        id,
		Status:    RunStatusPending,
		StartTime: time.Now(),
	}
}

// Start marks the run as running
func (s *RunState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = RunStatusRunning
	s.StartTime = time.Now()
}

// Complete marks the run as completed
func (s *RunState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = RunStatusCompleted
}

// Fail marks the run as failed
func (s *RunState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = RunStatusFailed
	s.Error = err.Error()
}

// SetExtracted records the extracted row count
func (s *RunState) SetExtracted(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RecordsExtracted = n
}

// SetLoaded records the loaded row count
func (s *RunState) SetLoaded(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RecordsLoaded = n
}

// SetQuality records the quality gate outcome
func (s *RunState) SetQuality(score float64, acceptable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.QualityScore = score
	s.Acceptable = acceptable
}

// AddStep appends a completed step record
func (s *RunState) AddStep(step StepState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Steps = append(s.Steps, step)
}

// Snapshot returns a copy safe for serialization.
func (s *RunState) Snapshot() RunSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := RunSnapshot{
		ID:               s.ID,
		Status:           s.Status,
		StartTime:        s.StartTime,
		RecordsExtracted: s.RecordsExtracted,
		RecordsLoaded:    s.RecordsLoaded,
		QualityScore:     s.QualityScore,
		Acceptable:       s.Acceptable,
		Error:            s.Error,
	}
	if s.EndTime != nil {
		end := *s.EndTime
		out.EndTime = &end
	}
	out.Steps = append(out.Steps, s.Steps...)
	return out
}
