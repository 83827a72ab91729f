// Package jobs holds the identifier, DAG, state-machine, and wire-payload
// schema shared by job and task lifecycle events. It has no dependency on
// any transport or storage backend: everything here is pure validation and
// data shape.
package jobs

import (
	"encoding/json"
	"fmt"
	"strings"
)

const maxSlugLen = 64

func isValidSlug(s string) bool {
	if len(s) == 0 || len(s) > maxSlugLen {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}

// isValidPrefixedID accepts the prefix alone as a valid slug (e.g. "job_"),
// matching the original crate's is_valid_prefixed_id.
func isValidPrefixedID(s, prefix string) bool {
	return strings.HasPrefix(s, prefix) && isValidSlug(s)
}

// JobID is a validated identifier of the form job_<slug>.
type JobID string

// NewJobID validates raw and returns it as a JobID, or InvalidJobID.
func NewJobID(raw string) (JobID, error) {
	if !isValidPrefixedID(raw, "job_") {
		return "", &InvalidJobIDError{Raw: raw}
	}
	return JobID(raw), nil
}

func (id JobID) String() string { return string(id) }

func (id JobID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

func (id *JobID) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := NewJobID(raw)
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// TaskID is a validated identifier of the form task_<slug>.
type TaskID string

func NewTaskID(raw string) (TaskID, error) {
	if !isValidPrefixedID(raw, "task_") {
		return "", &InvalidTaskIDError{Raw: raw}
	}
	return TaskID(raw), nil
}

func (id TaskID) String() string { return string(id) }

func (id TaskID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

func (id *TaskID) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := NewTaskID(raw)
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// OrgID is a validated identifier of the form org_<slug>.
type OrgID string

func NewOrgID(raw string) (OrgID, error) {
	if !isValidPrefixedID(raw, "org_") {
		return "", &InvalidOrgIDError{Raw: raw}
	}
	return OrgID(raw), nil
}

func (id OrgID) String() string { return string(id) }

func (id OrgID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

func (id *OrgID) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := NewOrgID(raw)
	if err != nil {
		return err
	}
	*id = v
	return nil
}

const maxTaskTypeLen = 48

// TaskType is a validated lowercase-alphanumeric-plus-dash slug, 1-48 chars,
// with no leading or trailing dash.
type TaskType string

func NewTaskType(raw string) (TaskType, error) {
	if !isValidTaskType(raw) {
		return "", &InvalidTaskTypeError{Raw: raw}
	}
	return TaskType(raw), nil
}

func isValidTaskType(s string) bool {
	if len(s) == 0 || len(s) > maxTaskTypeLen {
		return false
	}
	if s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return true
}

func (t TaskType) String() string { return string(t) }

func (t TaskType) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(t))
}

func (t *TaskType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := NewTaskType(raw)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// InvalidJobIDError is returned when a raw string fails JobID validation.
type InvalidJobIDError struct{ Raw string }

func (e *InvalidJobIDError) Error() string { return fmt.Sprintf("invalid job id: %q", e.Raw) }

type InvalidTaskIDError struct{ Raw string }

func (e *InvalidTaskIDError) Error() string { return fmt.Sprintf("invalid task id: %q", e.Raw) }

type InvalidOrgIDError struct{ Raw string }

func (e *InvalidOrgIDError) Error() string { return fmt.Sprintf("invalid org id: %q", e.Raw) }

type InvalidTaskTypeError struct{ Raw string }

func (e *InvalidTaskTypeError) Error() string { return fmt.Sprintf("invalid task type: %q", e.Raw) }
