package gust

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RunRecord captures one kernel launch as observed by the coordinator
type RunRecord struct {
	Op        string        `json:"op"`
	Elements  uint64        `json:"elements"`
	Cores     int           `json:"cores"`
	Duration  time.Duration `json:"duration"`
	Status    string        `json:"status"` // "pass" or "fail"
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// RunLogger collects launch records for a session and persists them as JSON.
// It is a collaborator of the coordinator, never of the kernels themselves;
// timing and utilization reporting stay out of the data path.
type RunLogger struct {
	mu          sync.Mutex
	records     []RunRecord
	sessionFile string
}

// NewRunLogger creates a logger writing to dir/session_<timestamp>.json
func NewRunLogger(dir, session string) (*RunLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	stamp := time.Now().Format("20060102_150405")
	l := &RunLogger{
		sessionFile: filepath.Join(dir, fmt.Sprintf("%s_%s.json", session, stamp)),
	}
	if err := l.flush(); err != nil {
		return nil, err
	}
	return l, nil
}

// Record appends one launch record and persists the session file
func (l *RunLogger) Record(rec RunRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return l.flush()
}

// Records returns a copy of the session's records so far
func (l *RunLogger) Records() []RunRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]RunRecord, len(l.records))
	copy(out, l.records)
	return out
}

// SessionFile returns the path of the session's JSON file
func (l *RunLogger) SessionFile() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessionFile
}

// flush writes all records to the session file. Caller holds l.mu.
func (l *RunLogger) flush() error {
	data, err := json.MarshalIndent(l.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run records: %w", err)
	}
	return os.WriteFile(l.sessionFile, data, 0644)
}
