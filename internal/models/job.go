package models

import (
	"fmt"
	"time"
)

// JobStatus enumerates lifecycle states of a translation job.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

var transitions = map[JobStatus][]JobStatus{
	StatusPending: {StatusRunning},
	StatusRunning: {StatusCompleted, StatusFailed},
}

// Valid reports whether s is one of the known states.
func (s JobStatus) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether the state machine allows s -> next.
func (s JobStatus) CanTransition(next JobStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LogEntry is one recorded status transition of a job.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Status    JobStatus `json:"status"`
	Message   string    `json:"message"`
}

// Job is one request to translate one document into one language.
type Job struct {
	ID               string     `json:"id"`
	SourceDocumentID string     `json:"source_document_id"`
	TargetLanguage   string     `json:"target_language"`
	Status           JobStatus  `json:"status"`
	Message          string     `json:"message"`
	NewDocumentID    *string    `json:"new_document_id,omitempty"`
	Log              []LogEntry `json:"log"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Transition moves the job to next, records message and appends a log entry.
func (j *Job) Transition(next JobStatus, message string, at time.Time) error {
	if !j.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, next)
	}
	j.Status = next
	j.Message = message
	j.UpdatedAt = at
	j.Log = append(j.Log, LogEntry{Timestamp: at, Status: next, Message: message})
	return nil
}

// Clone returns a deep copy so callers can hold a job outside the queue update path.
func (j Job) Clone() Job {
	out := j
	if j.NewDocumentID != nil {
		id := *j.NewDocumentID
		out.NewDocumentID = &id
	}
	out.Log = append([]LogEntry(nil), j.Log...)
	return out
}
