package jobs

// JobDefinition is the root, config-supplied description of a job's task
// graph. Order of Tasks is irrelevant; the DAG is defined by DependsOn.
type JobDefinition struct {
	V       uint32           `json:"v"`
	Name    string           `json:"name"`
	JobType string           `json:"job_type"`
	Tasks   []TaskDefinition `json:"tasks"`
}

// TaskDefinition is one task within a JobDefinition.
type TaskDefinition struct {
	Name        string            `json:"name"`
	TaskType    TaskType          `json:"task_type"`
	DependsOn   []string          `json:"depends_on,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
	TimeoutSecs *uint64           `json:"timeout_secs,omitempty"`
	MaxRetries  *uint32           `json:"max_retries,omitempty"`
}

// Validate checks that the job's task graph is well-formed: non-empty,
// no duplicate task names, every dependency names an existing sibling, no
// self-dependencies, and no cycles. A self-dependency is reported as
// ErrCyclicDependency rather than UnknownDependencyError.
func (j *JobDefinition) Validate() error {
	if len(j.Tasks) == 0 {
		return &ValidationFailedError{Message: "job must have at least one task"}
	}

	names := make(map[string]struct{}, len(j.Tasks))
	for _, t := range j.Tasks {
		if _, dup := names[t.Name]; dup {
			return &ValidationFailedError{Message: "duplicate task name: " + t.Name}
		}
		names[t.Name] = struct{}{}
	}

	for _, t := range j.Tasks {
		for _, dep := range t.DependsOn {
			if _, ok := names[dep]; !ok {
				return &UnknownDependencyError{Task: t.Name, Dependency: dep}
			}
			if dep == t.Name {
				return ErrCyclicDependency
			}
		}
	}

	if _, err := j.kahn(); err != nil {
		return err
	}
	return nil
}

// TopologicalOrder validates the definition, then returns task names
// roots-first. Ties among simultaneously-ready tasks resolve in the order
// the tasks appear in j.Tasks, keeping the result deterministic.
func (j *JobDefinition) TopologicalOrder() ([]string, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}
	order, err := j.kahn()
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Roots returns the names of tasks with no dependencies, in definition order.
func (j *JobDefinition) Roots() []string {
	roots := make([]string, 0, len(j.Tasks))
	for _, t := range j.Tasks {
		if len(t.DependsOn) == 0 {
			roots = append(roots, t.Name)
		}
	}
	return roots
}

// kahn runs Kahn's algorithm over j.Tasks, iterating the task slice (not a
// map) at every step so the zero-in-degree queue seeding and each
// dependent scan are insertion-order deterministic. Returns
// ErrCyclicDependency if fewer than len(j.Tasks) nodes are visited.
func (j *JobDefinition) kahn() ([]string, error) {
	inDegree := make(map[string]int, len(j.Tasks))
	for _, t := range j.Tasks {
		inDegree[t.Name] = len(t.DependsOn)
	}

	var queue []string
	for _, t := range j.Tasks {
		if inDegree[t.Name] == 0 {
			queue = append(queue, t.Name)
		}
	}

	order := make([]string, 0, len(j.Tasks))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, t := range j.Tasks {
			dependsOnNode := false
			for _, dep := range t.DependsOn {
				if dep == node {
					dependsOnNode = true
					break
				}
			}
			if !dependsOnNode {
				continue
			}
			inDegree[t.Name]--
			if inDegree[t.Name] == 0 {
				queue = append(queue, t.Name)
			}
		}
	}

	if len(order) != len(j.Tasks) {
		return nil, ErrCyclicDependency
	}
	return order, nil
}
