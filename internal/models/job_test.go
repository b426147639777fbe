package models

import (
	"errors"
	"testing"
	"time"
)

func TestJobStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to JobStatus
		ok       bool
	}{
		{StatusPending, StatusRunning, true},
		{StatusPending, StatusCompleted, false},
		{StatusRunning, StatusCompleted, true},
		{StatusRunning, StatusFailed, true},
		{StatusRunning, StatusPending, false},
		{StatusCompleted, StatusRunning, false},
		{StatusFailed, StatusPending, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.ok {
			t.Fatalf("%s -> %s: expected %v got %v", c.from, c.to, c.ok, got)
		}
	}
}

func TestJobTransitionAppendsLog(t *testing.T) {
	now := time.Now()
	job := Job{ID: "j1", Status: StatusPending, Log: []LogEntry{{Timestamp: now, Status: StatusPending, Message: "queued"}}}

	if err := job.Transition(StatusRunning, "started", now); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if len(job.Log) != 2 || job.Log[1].Status != StatusRunning {
		t.Fatalf("expected running entry appended, got %+v", job.Log)
	}

	err := job.Transition(StatusPending, "again", now)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if len(job.Log) != 2 || job.Status != StatusRunning {
		t.Fatalf("rejected transition must not mutate job: %+v", job)
	}
}

func TestJobCloneIsDeep(t *testing.T) {
	id := "doc-2"
	job := Job{NewDocumentID: &id, Log: []LogEntry{{Message: "a"}}}
	cp := job.Clone()
	*cp.NewDocumentID = "changed"
	cp.Log[0].Message = "changed"
	if *job.NewDocumentID != "doc-2" || job.Log[0].Message != "a" {
		t.Fatalf("clone shares state with original")
	}
}
