package jobs

// JobCreated is the body published on gbe.jobs.{job_type}.created.
type JobCreated struct {
	JobID         JobID    `json:"job_id"`
	OrgID         OrgID    `json:"org_id"`
	JobType       string   `json:"job_type"`
	TaskCount     int      `json:"task_count"`
	TaskIDs       []TaskID `json:"task_ids"`
	CreatedAt     int64    `json:"created_at"`
	DefinitionRef string   `json:"definition_ref"`
}

// JobCompletedPayload is the body published on gbe.jobs.{job_type}.completed.
type JobCompletedPayload struct {
	JobID       JobID   `json:"job_id"`
	OrgID       OrgID   `json:"org_id"`
	JobType     string  `json:"job_type"`
	CompletedAt int64   `json:"completed_at"`
	ResultRef   *string `json:"result_ref,omitempty"`
}

// JobFailedPayload is the body published on gbe.jobs.{job_type}.failed.
type JobFailedPayload struct {
	JobID        JobID  `json:"job_id"`
	OrgID        OrgID  `json:"org_id"`
	JobType      string `json:"job_type"`
	FailedAt     int64  `json:"failed_at"`
	FailedTaskID TaskID `json:"failed_task_id"`
	Error        string `json:"error"`
}

// JobCancelledPayload is the body published on gbe.jobs.{job_type}.cancelled.
type JobCancelledPayload struct {
	JobID       JobID  `json:"job_id"`
	OrgID       OrgID  `json:"org_id"`
	JobType     string `json:"job_type"`
	CancelledAt int64  `json:"cancelled_at"`
	Reason      string `json:"reason"`
}

// TaskQueued is the body published on gbe.tasks.{task_type}.queue.
type TaskQueued struct {
	TaskID     TaskID            `json:"task_id"`
	JobID      JobID             `json:"job_id"`
	OrgID      OrgID             `json:"org_id"`
	TaskType   string            `json:"task_type"`
	Params     map[string]string `json:"params,omitempty"`
	RetryCount int               `json:"retry_count"`
}

// TaskProgress is the body published on gbe.tasks.{task_type}.progress.
type TaskProgress struct {
	TaskID     TaskID `json:"task_id"`
	JobID      JobID  `json:"job_id"`
	CurrentStep int   `json:"current_step"`
	StepCount  int    `json:"step_count"`
	Message    string `json:"message"`
}

// TaskCompletedPayload is the body published on gbe.tasks.{task_type}.terminal
// for a successful completion.
type TaskCompletedPayload struct {
	TaskID      TaskID  `json:"task_id"`
	JobID       JobID   `json:"job_id"`
	TaskType    string  `json:"task_type"`
	CompletedAt int64   `json:"completed_at"`
	ResultRef   *string `json:"result_ref,omitempty"`
}

// TaskFailedPayload is the body published on gbe.tasks.{task_type}.terminal
// for a failed (possibly retryable) attempt.
type TaskFailedPayload struct {
	TaskID     TaskID `json:"task_id"`
	JobID      JobID  `json:"job_id"`
	TaskType   string `json:"task_type"`
	FailedAt   int64  `json:"failed_at"`
	Error      string `json:"error"`
	RetryCount int    `json:"retry_count"`
	MaxRetries int    `json:"max_retries"`
}
