package jobs

import "fmt"

// Job lifecycle subjects: gbe.jobs.{job_type}.{event}

func JobCreatedSubject(jobType string) string   { return fmt.Sprintf("gbe.jobs.%s.created", jobType) }
func JobCompletedSubject(jobType string) string { return fmt.Sprintf("gbe.jobs.%s.completed", jobType) }
func JobFailedSubject(jobType string) string    { return fmt.Sprintf("gbe.jobs.%s.failed", jobType) }
func JobCancelledSubject(jobType string) string { return fmt.Sprintf("gbe.jobs.%s.cancelled", jobType) }

// JobAllSubject is the wildcard subject matching every event of a job type.
func JobAllSubject(jobType string) string { return fmt.Sprintf("gbe.jobs.%s.*", jobType) }

// Task subjects: gbe.tasks.{task_type}.{event}

func TaskQueueSubject(taskType string) string    { return fmt.Sprintf("gbe.tasks.%s.queue", taskType) }
func TaskProgressSubject(taskType string) string { return fmt.Sprintf("gbe.tasks.%s.progress", taskType) }
func TaskTerminalSubject(taskType string) string { return fmt.Sprintf("gbe.tasks.%s.terminal", taskType) }

// ComponentLifecycleSubject builds gbe.events.lifecycle.{component}.{event}
// for the started/stopped/heartbeat/degraded family.
func ComponentLifecycleSubject(component, event string) string {
	return fmt.Sprintf("gbe.events.lifecycle.%s.%s", component, event)
}
