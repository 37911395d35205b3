package sync

import (
	"fmt"
	"strings"

	"github.com/kazz187/tracksync/internal/state"
	"github.com/kazz187/tracksync/internal/task"
	"github.com/kazz187/tracksync/internal/tracker"
)

// BuildIssuePayload converts a local task into the remote item creation
// payload. Dependencies that are already synced are rendered as issue
// references so GitHub links them; unsynced ones keep the local id.
func BuildIssuePayload(t *task.Task, st state.SyncState) tracker.ItemPayload {
	var b strings.Builder
	b.WriteString(t.Description)

	if t.Details != "" {
		b.WriteString("\n\n## Details\n\n")
		b.WriteString(t.Details)
	}
	if t.TestStrategy != "" {
		b.WriteString("\n\n## Test Strategy\n\n")
		b.WriteString(t.TestStrategy)
	}
	if len(t.Dependencies) > 0 {
		b.WriteString("\n\n## Dependencies\n\n")
		for _, dep := range t.Dependencies {
			if m, ok := st.Mapping(string(dep)); ok {
				fmt.Fprintf(&b, "- #%d (task %s)\n", m.GithubIssueNumber, dep)
			} else {
				fmt.Fprintf(&b, "- task %s (not yet synced)\n", dep)
			}
		}
	}
	fmt.Fprintf(&b, "\n---\nSynced from taskmaster task %s.\n", t.ID)

	labels := []string{"taskmaster"}
	if t.Priority != "" {
		labels = append(labels, "priority:"+string(t.Priority))
	}
	if t.Status != "" {
		labels = append(labels, "status:"+string(t.Status))
	}

	return tracker.ItemPayload{
		Title:  t.Title,
		Body:   b.String(),
		Labels: labels,
	}
}
