package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RunProgress is the durable resume pointer. It lists the employers
// already completed in the current sweep; a crash or stop between
// employers never reprocesses a finished one.
type RunProgress struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// Completed holds employer names checkpointed this sweep, in
	// completion order.
	Completed []string `json:"completed"`
}

// Done reports whether employer was already checkpointed.
func (p *RunProgress) Done(employer string) bool {
	for _, name := range p.Completed {
		if name == employer {
			return true
		}
	}
	return false
}

// MarkDone appends employer to the completed list if absent.
func (p *RunProgress) MarkDone(employer string) {
	if !p.Done(employer) {
		p.Completed = append(p.Completed, employer)
	}
}

// ProgressFile persists RunProgress as JSON. Writes go through a temp
// file and rename so a crash mid-write never corrupts the checkpoint.
type ProgressFile struct {
	path string
}

func NewProgressFile(path string) *ProgressFile {
	return &ProgressFile{path: strings.TrimSpace(path)}
}

func (f *ProgressFile) Path() string {
	return f.path
}

// Load reads the checkpoint. A missing file is a fresh start, not an
// error.
func (f *ProgressFile) Load() (*RunProgress, error) {
	b, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return &RunProgress{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress file: %w", err)
	}

	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" {
		return &RunProgress{}, nil
	}

	var progress RunProgress
	if err := json.Unmarshal([]byte(trimmed), &progress); err != nil {
		return nil, fmt.Errorf("parse progress file: %w", err)
	}
	return &progress, nil
}

// Save atomically replaces the checkpoint.
func (f *ProgressFile) Save(progress *RunProgress) error {
	if f.path == "" {
		return fmt.Errorf("progress file path is empty")
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create progress dir: %w", err)
	}

	progress.UpdatedAt = time.Now().UTC()
	b, err := json.MarshalIndent(progress, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	b = append(b, '\n')

	tmp, err := os.CreateTemp(dir, "progress.json.tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp progress file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp progress file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("rename progress file: %w", err)
	}
	return nil
}

// Clear removes the checkpoint, marking the sweep finished so the next
// invocation starts from the top of the manifest.
func (f *ProgressFile) Clear() error {
	err := os.Remove(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
