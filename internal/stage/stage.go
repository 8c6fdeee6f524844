package stage

import (
	"context"
	"fmt"
)

// Info describes a stage's identity and artifact contract.
type Info struct {
	ID          string
	Name        string
	Description string
	// Input names the upstream artifact this stage consumes ("" for the first
	// stage, which starts from configuration alone).
	Input string
	// Output names the artifact this stage overwrites on success.
	Output string
}

// Validate ensures the info block is well-formed.
func (i Info) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("stage: id is required")
	}
	if i.Name == "" {
		return fmt.Errorf("stage: name is required for %s", i.ID)
	}
	if i.Output == "" {
		return fmt.Errorf("stage: output artifact is required for %s", i.ID)
	}
	return nil
}

// Status enumerates stage lifecycle states.
type Status string

const (
	StatusNotRun             Status = "not-run"
	StatusRunning            Status = "running"
	StatusSucceeded          Status = "succeeded"
	StatusPartiallySucceeded Status = "partially-succeeded"
	StatusFailed             Status = "failed"
)

// Usable reports whether downstream stages may consume this stage's output.
func (s Status) Usable() bool {
	return s == StatusSucceeded || s == StatusPartiallySucceeded
}

// Result captures the outcome of one stage execution.
type Result struct {
	Status    Status
	Processed int // records written to the output artifact
	Failed    int // per-item units that were skipped after an external failure
	Message   string
}

// Stage is implemented by every pipeline step.
type Stage interface {
	Info() Info
	Run(ctx context.Context, env *Context) (Result, error)
}
