package jobs

import "encoding/json"

// JobState is the job-level state machine.
type JobState int

const (
	JobPending JobState = iota
	JobRunning
	JobCompleted
	JobFailed
	JobCancelled
)

var jobStateNames = map[JobState]string{
	JobPending:   "pending",
	JobRunning:   "running",
	JobCompleted: "completed",
	JobFailed:    "failed",
	JobCancelled: "cancelled",
}

var jobStateValues = func() map[string]JobState {
	m := make(map[string]JobState, len(jobStateNames))
	for v, n := range jobStateNames {
		m[n] = v
	}
	return m
}()

func (s JobState) String() string { return jobStateNames[s] }

// CanTransitionTo reports whether the job state machine allows a direct
// move from s to next.
func (s JobState) CanTransitionTo(next JobState) bool {
	switch {
	case s == JobPending && next == JobRunning:
		return true
	case s == JobRunning && next == JobCompleted:
		return true
	case s == JobRunning && next == JobFailed:
		return true
	case s == JobPending && next == JobCancelled:
		return true
	case s == JobRunning && next == JobCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether s is one of the terminal job states.
func (s JobState) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// TransitionTo returns next if the move is legal, otherwise
// InvalidTransitionError. It does not mutate s; callers apply the result.
func (s JobState) TransitionTo(next JobState) (JobState, error) {
	if !s.CanTransitionTo(next) {
		return s, &InvalidTransitionError{From: s.String(), To: next.String()}
	}
	return next, nil
}

func (s JobState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *JobState) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, ok := jobStateValues[raw]
	if !ok {
		return &ValidationFailedError{Message: "unknown job state: " + raw}
	}
	*s = v
	return nil
}

// TaskState is the task-level state machine. The Claimed/Running -> Pending
// edges exist specifically for a watcher that times out stuck claims or
// executions; everything else is the forward-only happy path plus cancel.
type TaskState int

const (
	TaskBlocked TaskState = iota
	TaskPending
	TaskClaimed
	TaskRunning
	TaskCompleted
	TaskFailed
	TaskCancelled
)

var taskStateNames = map[TaskState]string{
	TaskBlocked:   "blocked",
	TaskPending:   "pending",
	TaskClaimed:   "claimed",
	TaskRunning:   "running",
	TaskCompleted: "completed",
	TaskFailed:    "failed",
	TaskCancelled: "cancelled",
}

var taskStateValues = func() map[string]TaskState {
	m := make(map[string]TaskState, len(taskStateNames))
	for v, n := range taskStateNames {
		m[n] = v
	}
	return m
}()

func (s TaskState) String() string { return taskStateNames[s] }

func (s TaskState) CanTransitionTo(next TaskState) bool {
	switch {
	case s == TaskBlocked && next == TaskPending:
		return true
	case s == TaskPending && next == TaskClaimed:
		return true
	case s == TaskClaimed && next == TaskRunning:
		return true
	case s == TaskRunning && next == TaskCompleted:
		return true
	case s == TaskRunning && next == TaskFailed:
		return true
	case s == TaskClaimed && next == TaskPending:
		return true
	case s == TaskRunning && next == TaskPending:
		return true
	case s == TaskBlocked && next == TaskCancelled:
		return true
	case s == TaskPending && next == TaskCancelled:
		return true
	case s == TaskClaimed && next == TaskCancelled:
		return true
	case s == TaskRunning && next == TaskCancelled:
		return true
	default:
		return false
	}
}

func (s TaskState) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

func (s TaskState) TransitionTo(next TaskState) (TaskState, error) {
	if !s.CanTransitionTo(next) {
		return s, &InvalidTransitionError{From: s.String(), To: next.String()}
	}
	return next, nil
}

func (s TaskState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *TaskState) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, ok := taskStateValues[raw]
	if !ok {
		return &ValidationFailedError{Message: "unknown task state: " + raw}
	}
	*s = v
	return nil
}
