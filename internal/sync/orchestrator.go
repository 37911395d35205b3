package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/kazz187/tracksync/internal/state"
	"github.com/kazz187/tracksync/internal/task"
	"github.com/kazz187/tracksync/internal/tracker"
	"github.com/kazz187/tracksync/pkg/cerr"
)

// Config wires the orchestrator to its collaborators. ProjectID and the
// status field/option ids are optional; when empty the corresponding board
// operations are skipped.
type Config struct {
	Client         tracker.Client
	Store          *state.Store
	Collection     tracker.CollectionRef
	ProjectID      string
	StatusFieldID  string
	StatusOptionID string
	Logger         *slog.Logger
}

// Orchestrator drives the idempotent sync loop: skip what the state file
// already maps, create the rest, and record each new mapping through a
// locked incremental state update so a crash mid-run loses at most the
// in-flight task.
type Orchestrator struct {
	cfg Config
}

func New(cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Orchestrator{cfg: cfg}
}

type Options struct {
	DryRun bool
}

// Run syncs the given tasks. Per-task failures are isolated: they are
// recorded in the summary and the loop continues. Only a lock timeout
// aborts the whole run.
func (o *Orchestrator) Run(ctx context.Context, tasks []*task.Task, opts Options) (*Summary, error) {
	summary := &Summary{Total: len(tasks), DryRun: opts.DryRun}

	if !opts.DryRun {
		_, err := o.cfg.Store.Update(ctx, func(st state.SyncState) (state.SyncState, error) {
			next, removed := st.CleanupStale(task.IDs(tasks))
			if removed > 0 {
				o.cfg.Logger.InfoContext(ctx, "removed stale task mappings", "count", removed)
			}
			return next, nil
		})
		if err != nil {
			return nil, err
		}
	}

	st := o.cfg.Store.Load(ctx)
	for _, t := range tasks {
		localID := string(t.ID)
		if m, ok := st.Mapping(localID); ok {
			summary.AlreadySynced++
			summary.Results = append(summary.Results, TaskResult{
				TaskID:      localID,
				Title:       t.Title,
				IssueNumber: m.GithubIssueNumber,
				Skipped:     true,
			})
			continue
		}

		if opts.DryRun {
			summary.NewlySynced++
			summary.Results = append(summary.Results, TaskResult{TaskID: localID, Title: t.Title})
			continue
		}

		mapping, err := o.syncOne(ctx, t, st)
		if err != nil {
			summary.Failed++
			summary.Results = append(summary.Results, TaskResult{TaskID: localID, Title: t.Title, Err: err})
			o.cfg.Logger.WarnContext(ctx, "failed to sync task",
				"task", localID, "error", err)
			continue
		}

		next, err := o.cfg.Store.Update(ctx, func(cur state.SyncState) (state.SyncState, error) {
			return cur.WithMapping(mapping), nil
		})
		if err != nil {
			if cerr.IsCode(err, cerr.DeadlineExceeded) {
				return summary, err
			}
			summary.Failed++
			summary.Results = append(summary.Results, TaskResult{TaskID: localID, Title: t.Title, Err: err})
			o.cfg.Logger.WarnContext(ctx, "synced task but failed to record mapping",
				"task", localID, "issue", mapping.GithubIssueNumber, "error", err)
			continue
		}

		st = next
		summary.NewlySynced++
		summary.Results = append(summary.Results, TaskResult{
			TaskID:      localID,
			Title:       t.Title,
			IssueNumber: mapping.GithubIssueNumber,
		})
	}
	return summary, nil
}

// syncOne creates the remote issue and, when a project board is
// configured, attaches it and sets its status field. Board failures after
// a successful create are logged but do not fail the task: the issue
// exists, and failing here would recreate it on the next run.
func (o *Orchestrator) syncOne(ctx context.Context, t *task.Task, st state.SyncState) (state.TaskMapping, error) {
	payload := BuildIssuePayload(t, st)
	ref, err := o.cfg.Client.CreateItem(ctx, o.cfg.Collection, payload)
	if err != nil {
		return state.TaskMapping{}, err
	}

	mapping := state.TaskMapping{
		TaskmasterID:      string(t.ID),
		GithubIssueNumber: ref.Number,
		GithubIssueURL:    ref.URL,
		SyncedAt:          time.Now().UTC(),
	}

	if o.cfg.ProjectID != "" {
		itemID, err := o.cfg.Client.AddItemToCollection(ctx, o.cfg.ProjectID, ref.NodeID)
		if err != nil {
			o.cfg.Logger.WarnContext(ctx, "created issue but failed to add it to the project",
				"task", t.ID, "issue", ref.Number, "error", err)
			return mapping, nil
		}
		mapping.ProjectItemID = itemID

		if o.cfg.StatusFieldID != "" && o.cfg.StatusOptionID != "" {
			if err := o.cfg.Client.SetItemField(ctx, o.cfg.ProjectID, itemID, o.cfg.StatusFieldID, o.cfg.StatusOptionID); err != nil {
				o.cfg.Logger.WarnContext(ctx, "added item to project but failed to set status field",
					"task", t.ID, "issue", ref.Number, "error", err)
			}
		}
	}
	return mapping, nil
}
