package task

import (
	"encoding/json"
	"fmt"
)

// Priority of a local task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Status of a local task in the external task store.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
	StatusBlocked    Status = "blocked"
)

// ID is a local task identifier. Taskmaster files store ids as bare
// numbers; older exports use strings. Both decode to the string form.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = ID(n.String())
		return nil
	}
	return fmt.Errorf("task id must be a string or number, got %s", data)
}

// Task is a read-only local work item owned by the external task store.
type Task struct {
	ID           ID       `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Details      string   `json:"details,omitempty"`
	TestStrategy string   `json:"testStrategy,omitempty"`
	Priority     Priority `json:"priority"`
	Dependencies []ID     `json:"dependencies"`
	Status       Status   `json:"status"`
}

// IDs extracts the local ids of a task list in order.
func IDs(tasks []*Task) []string {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, string(t.ID))
	}
	return ids
}
