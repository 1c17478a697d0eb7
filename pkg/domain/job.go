package domain

import "fmt"

// JobKind names one of the two progress-reporting jobs of a session.
type JobKind string

const (
	JobGeneration JobKind = "generation"
	JobExport     JobKind = "export"
)

// ParseJobKind validates a job kind received from an outer surface.
func ParseJobKind(s string) (JobKind, error) {
	switch JobKind(s) {
	case JobGeneration, JobExport:
		return JobKind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownJobKind, s)
}

// JobStatus is the lifecycle position of a job.
type JobStatus string

const (
	JobIdle      JobStatus = "idle"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobCancelled JobStatus = "cancelled"
)

// Progress is a point-in-time view of a job.
// Value ranges over [0, 100].
type Progress struct {
	Kind   JobKind   `json:"kind"`
	Status JobStatus `json:"status"`
	Value  int       `json:"value"`
	Active bool      `json:"active"`
}
