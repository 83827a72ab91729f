package jobs

import (
	"errors"
	"fmt"
)

// ErrEmptyTasks names the empty-task-list condition for ErrorCode. Validate
// does not return it: it reports an empty task list as ValidationFailedError.
var ErrEmptyTasks = errors.New("job definition has no tasks")

// ErrCyclicDependency is returned when task dependencies form a cycle,
// including the degenerate case of a task depending on itself.
var ErrCyclicDependency = errors.New("cyclic dependency in task graph")

// InvalidTransitionError is returned when a state machine is asked to move
// to a state not reachable from its current one.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

// UnknownDependencyError is returned when a task names a dependency that
// does not exist among its siblings.
type UnknownDependencyError struct {
	Task       string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("task %q depends on unknown task %q", e.Task, e.Dependency)
}

// ValidationFailedError covers structural problems in a JobDefinition that
// aren't captured by a more specific error (duplicate task names, etc).
type ValidationFailedError struct {
	Message string
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// IsRetryable reports whether a jobs-domain error indicates a condition a
// caller could plausibly fix and retry (it never is: construction and
// validation errors are always about malformed input).
func IsRetryable(err error) bool {
	return false
}

// ErrorCode returns a stable machine-readable code for known jobs-domain
// error types, or "UNKNOWN_ERROR" otherwise.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrEmptyTasks):
		return "EMPTY_TASKS"
	case errors.Is(err, ErrCyclicDependency):
		return "CYCLIC_DEPENDENCY"
	default:
		var invalidJobID *InvalidJobIDError
		if errors.As(err, &invalidJobID) {
			return "INVALID_JOB_ID"
		}
		var invalidTaskID *InvalidTaskIDError
		if errors.As(err, &invalidTaskID) {
			return "INVALID_TASK_ID"
		}
		var invalidOrgID *InvalidOrgIDError
		if errors.As(err, &invalidOrgID) {
			return "INVALID_ORG_ID"
		}
		var invalidTaskType *InvalidTaskTypeError
		if errors.As(err, &invalidTaskType) {
			return "INVALID_TASK_TYPE"
		}
		var invalidTransition *InvalidTransitionError
		if errors.As(err, &invalidTransition) {
			return "INVALID_TRANSITION"
		}
		var unknownDep *UnknownDependencyError
		if errors.As(err, &unknownDep) {
			return "UNKNOWN_DEPENDENCY"
		}
		var validationFailed *ValidationFailedError
		if errors.As(err, &validationFailed) {
			return "VALIDATION_FAILED"
		}
		return "UNKNOWN_ERROR"
	}
}
