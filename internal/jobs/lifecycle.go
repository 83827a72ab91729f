package jobs

// ComponentStarted is published on gbe.events.lifecycle.{component}.started.
type ComponentStarted struct {
	Component  string `json:"component"`
	InstanceID string `json:"instance_id"`
	StartedAt  int64  `json:"started_at"`
	Version    string `json:"version"`
}

// ComponentStopped is published on gbe.events.lifecycle.{component}.stopped.
type ComponentStopped struct {
	Component  string `json:"component"`
	InstanceID string `json:"instance_id"`
	StoppedAt  int64  `json:"stopped_at"`
	Reason     string `json:"reason"`
}

// Heartbeat is published on gbe.events.lifecycle.{component}.heartbeat.
type Heartbeat struct {
	Component  string `json:"component"`
	InstanceID string `json:"instance_id"`
	Timestamp  int64  `json:"timestamp"`
	UptimeSecs int64  `json:"uptime_secs"`
}

// ComponentDegraded is published on gbe.events.lifecycle.{component}.degraded.
type ComponentDegraded struct {
	Component  string `json:"component"`
	InstanceID string `json:"instance_id"`
	DegradedAt int64  `json:"degraded_at"`
	Reason     string `json:"reason"`
}
