package amqp

import (
	"testing"
	"time"
)

func TestNewRebuildMessage(t *testing.T) {
	msg := NewRebuildMessage(JobReassign, "rule 7 updated")

	if msg.Job != JobReassign {
		t.Errorf("Job = %v, want %v", msg.Job, JobReassign)
	}
	if msg.Reason != "rule 7 updated" {
		t.Errorf("Reason = %q", msg.Reason)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestRebuildMessage_JSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &RebuildMessage{
		Job:       JobIngest,
		Reason:    "scheduled",
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := RebuildMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("RebuildMessageFromJSON() error = %v", err)
	}

	if parsed.Job != msg.Job {
		t.Errorf("Parsed Job = %v, want %v", parsed.Job, msg.Job)
	}
	if parsed.Reason != msg.Reason {
		t.Errorf("Parsed Reason = %v, want %v", parsed.Reason, msg.Reason)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestRebuildMessage_InvalidJSON(t *testing.T) {
	if _, err := RebuildMessageFromJSON([]byte(`{"job": 7}`)); err == nil {
		t.Error("RebuildMessageFromJSON() should fail with invalid JSON")
	}
}

func TestRebuildMessage_UnknownJob(t *testing.T) {
	if _, err := RebuildMessageFromJSON([]byte(`{"job": "defragment"}`)); err == nil {
		t.Error("RebuildMessageFromJSON() should reject unknown jobs")
	}
}
