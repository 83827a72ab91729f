package jobs

// TaskOutcome is the result an operative reports after executing a task,
// published on gbe.tasks.{task_type}.terminal. Exactly one of Completed or
// Failed is set. The shape matches the upstream definition (Output plus an
// optional ResultRef, rather than a generic body) — see SPEC_FULL.md §3 for
// why a generic `data` field was not added here.
type TaskOutcome struct {
	Completed *CompletedOutcome `json:"Completed,omitempty"`
	Failed    *FailedOutcome    `json:"Failed,omitempty"`
}

type CompletedOutcome struct {
	Output    []string `json:"output"`
	ResultRef *string  `json:"result_ref,omitempty"`
}

type FailedOutcome struct {
	ExitCode int    `json:"exit_code"`
	Error    string `json:"error"`
}

// NewCompletedOutcome builds a TaskOutcome carrying a successful result.
func NewCompletedOutcome(output []string, resultRef *string) TaskOutcome {
	return TaskOutcome{Completed: &CompletedOutcome{Output: output, ResultRef: resultRef}}
}

// NewFailedOutcome builds a TaskOutcome carrying a failure result.
func NewFailedOutcome(exitCode int, errMsg string) TaskOutcome {
	return TaskOutcome{Failed: &FailedOutcome{ExitCode: exitCode, Error: errMsg}}
}

// IsCompleted reports whether the outcome is the Completed variant.
func (o TaskOutcome) IsCompleted() bool { return o.Completed != nil }

// IsFailed reports whether the outcome is the Failed variant.
func (o TaskOutcome) IsFailed() bool { return o.Failed != nil }
