package jobs

import (
	"encoding/json"
	"testing"
)

func TestCompletedOutcomeRoundTrip(t *testing.T) {
	ref := "s3://bucket/output.csv"
	outcome := NewCompletedOutcome([]string{"row1", "row2"}, &ref)
	b, err := json.Marshal(outcome)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back TaskOutcome
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.IsCompleted() {
		t.Fatal("expected Completed outcome")
	}
	if len(back.Completed.Output) != 2 {
		t.Fatalf("expected 2 output rows, got %d", len(back.Completed.Output))
	}
	if back.Completed.ResultRef == nil || *back.Completed.ResultRef != ref {
		t.Fatalf("result_ref mismatch: %v", back.Completed.ResultRef)
	}
}

func TestFailedOutcomeRoundTrip(t *testing.T) {
	outcome := NewFailedOutcome(1, "connection timeout")
	b, err := json.Marshal(outcome)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back TaskOutcome
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.IsFailed() {
		t.Fatal("expected Failed outcome")
	}
	if back.Failed.ExitCode != 1 || back.Failed.Error != "connection timeout" {
		t.Fatalf("unexpected failed outcome: %+v", back.Failed)
	}
}
