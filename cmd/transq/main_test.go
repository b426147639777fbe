package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"translation-queue/internal/models"
	"translation-queue/internal/queue"
)

func TestSplitList(t *testing.T) {
	got := splitList(" fr, ,nl,")
	if len(got) != 2 || got[0] != "fr" || got[1] != "nl" {
		t.Fatalf("unexpected split: %q", got)
	}
	if splitList("") != nil {
		t.Fatalf("empty input should give nil")
	}
}

func TestPrintQueue(t *testing.T) {
	var buf bytes.Buffer
	printQueue(&buf, nil, false)
	if !strings.Contains(buf.String(), "queue is empty") {
		t.Fatalf("unexpected empty output %q", buf.String())
	}

	buf.Reset()
	newID := "99"
	items := []queue.SnapshotItem{{
		ID: "j1", DocumentID: "42", DocumentTitle: "About", Language: "fr",
		Status: models.StatusCompleted, Message: queue.MsgCompleted, NewDocumentID: &newID,
		Log: []models.LogEntry{{Timestamp: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), Status: models.StatusPending, Message: queue.MsgQueued}},
	}}
	printQueue(&buf, items, true)
	out := buf.String()
	for _, want := range []string{"About", "FR", "completed", "99", "2024-05-01 09:00:00", queue.MsgQueued} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestClearRequiresConfirmation(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"clear"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("expected confirmation error, got %v", err)
	}
}
