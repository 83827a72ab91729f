package jobs

import "fmt"

// JobKey builds a job state record key: gbe.state.jobs.{job_type}.{job_id}
func JobKey(jobType, jobID string) string {
	return fmt.Sprintf("gbe.state.jobs.%s.%s", jobType, jobID)
}

// TaskKey builds a task state record key: gbe.state.tasks.{task_type}.{task_id}
func TaskKey(taskType, taskID string) string {
	return fmt.Sprintf("gbe.state.tasks.%s.%s", taskType, taskID)
}

// JobTaskIndexKey builds the job->task-by-name index key:
// gbe.idx.jobs.{job_id}.tasks.{task_name}
func JobTaskIndexKey(jobID, taskName string) string {
	return fmt.Sprintf("gbe.idx.jobs.%s.tasks.%s", jobID, taskName)
}

// JobTasksPrefix is the scan prefix for every task index entry of a job.
func JobTasksPrefix(jobID string) string {
	return fmt.Sprintf("gbe.idx.jobs.%s.tasks.", jobID)
}

// JobFields names the fixed vocabulary of fields carried on a job record.
var JobFields = struct {
	State          string
	JobType        string
	JobID          string
	OrgID          string
	TaskCount      string
	CompletedCount string
	FailedCount    string
	CreatedAt      string
	UpdatedAt      string
	Error          string
	DefinitionRef  string
}{
	State:          "state",
	JobType:        "job_type",
	JobID:          "job_id",
	OrgID:          "org_id",
	TaskCount:      "task_count",
	CompletedCount: "completed_count",
	FailedCount:    "failed_count",
	CreatedAt:      "created_at",
	UpdatedAt:      "updated_at",
	Error:          "error",
	DefinitionRef:  "definition_ref",
}

// TaskFields names the fixed vocabulary of fields carried on a task record.
var TaskFields = struct {
	State        string
	TaskType     string
	TaskID       string
	JobID        string
	OrgID        string
	TaskName     string
	Worker       string
	CurrentStep  string
	StepCount    string
	CreatedAt    string
	UpdatedAt    string
	TimeoutAt    string
	Error        string
	ParamsRef    string
	ResultRef    string
	RetryCount   string
	MaxRetries   string
	DependsOn    string
}{
	State:       "state",
	TaskType:    "task_type",
	TaskID:      "task_id",
	JobID:       "job_id",
	OrgID:       "org_id",
	TaskName:    "task_name",
	Worker:      "worker",
	CurrentStep: "current_step",
	StepCount:   "step_count",
	CreatedAt:   "created_at",
	UpdatedAt:   "updated_at",
	TimeoutAt:   "timeout_at",
	Error:       "error",
	ParamsRef:   "params_ref",
	ResultRef:   "result_ref",
	RetryCount:  "retry_count",
	MaxRetries:  "max_retries",
	DependsOn:   "depends_on",
}
