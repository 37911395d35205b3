package sync

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// TaskResult is the outcome of syncing a single task.
type TaskResult struct {
	TaskID      string
	Title       string
	IssueNumber int
	Skipped     bool
	Err         error
}

// Summary is the structured result of one sync run.
type Summary struct {
	Total         int
	AlreadySynced int
	NewlySynced   int
	Failed        int
	DryRun        bool
	Results       []TaskResult
}

// OK reports whether every task synced (or was already synced).
func (s *Summary) OK() bool {
	return s.Failed == 0
}

// Render writes the per-task lines and totals in the format the CLI prints
// to stdout.
func (s *Summary) Render(w io.Writer) {
	ok := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	for _, r := range s.Results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(w, "%s  task %s: %s (%v)\n", fail("FAIL"), r.TaskID, r.Title, r.Err)
		case r.Skipped:
			fmt.Fprintf(w, "%s  task %s: %s -> #%d (already synced)\n", dim("OK"), r.TaskID, r.Title, r.IssueNumber)
		case s.DryRun:
			fmt.Fprintf(w, "%s  task %s: %s (would create)\n", ok("OK"), r.TaskID, r.Title)
		default:
			fmt.Fprintf(w, "%s  task %s: %s -> #%d\n", ok("OK"), r.TaskID, r.Title, r.IssueNumber)
		}
	}

	fmt.Fprintf(w, "\ntotal: %d, already synced: %d, newly synced: %d, failed: %d\n",
		s.Total, s.AlreadySynced, s.NewlySynced, s.Failed)
}
