package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/kazz187/tracksync/internal/config"
	"github.com/kazz187/tracksync/internal/match"
	"github.com/kazz187/tracksync/internal/state"
	"github.com/kazz187/tracksync/internal/sync"
	"github.com/kazz187/tracksync/internal/task"
	"github.com/kazz187/tracksync/internal/tracker"
	"github.com/kazz187/tracksync/pkg/cerr"
)

const snapshotTimeout = 60 * time.Second

func runSync(ctx context.Context, env *config.Env, dryRun, watch bool) error {
	pf, err := config.LoadProjectFile(env.ProjectFile)
	if err != nil {
		return err
	}

	repo := task.NewFileRepository(env.TasksFile)
	store := state.NewStore(env.StateFile)
	client := tracker.NewGitHub(env.GitHubToken)

	cfg := sync.Config{
		Client:     client,
		Store:      store,
		Collection: tracker.CollectionRef{Owner: env.GitHubOwner, Repo: env.GitHubRepo},
		ProjectID:  env.GitHubProjectID,
		Logger:     slog.Default(),
	}
	if status := pf.DefaultStatus; status != "" {
		if optionID, ok := pf.StatusOptionID(status); ok {
			cfg.StatusFieldID = pf.StatusField.FieldID
			cfg.StatusOptionID = optionID
		}
	}
	orch := sync.New(cfg)

	run := func(ctx context.Context) error {
		tasks, err := repo.GetAll(ctx)
		if err != nil {
			return err
		}
		summary, err := orch.Run(ctx, tasks, sync.Options{DryRun: dryRun})
		if summary != nil {
			summary.Render(os.Stdout)
		}
		if err != nil {
			return err
		}
		if !summary.OK() {
			return fmt.Errorf("%d of %d tasks failed to sync", summary.Failed, summary.Total)
		}
		return nil
	}

	if !watch {
		return run(ctx)
	}
	if err := run(ctx); err != nil {
		slog.WarnContext(ctx, "initial sync failed, watching for changes", "error", err)
	}
	return sync.Watch(ctx, env.TasksFile, slog.Default(), run)
}

// snapshotItems lists the configured project board plus any extra boards
// from the project file, concurrently, and merges the results. Closed
// items are dropped; they are not resolution targets.
func snapshotItems(ctx context.Context, env *config.Env, pf *config.ProjectFile) ([]tracker.TrackedItem, error) {
	if env.GitHubProjectID == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "GITHUB_PROJECT_ID is required to resolve queries", nil)
	}
	ids := append([]string{env.GitHubProjectID}, pf.ExtraProjects...)

	client := tracker.NewGitHub(env.GitHubToken)
	snapshots, err := tracker.FetchSnapshots(ctx, client, ids, snapshotTimeout, true)
	if err != nil {
		return nil, err
	}

	var items []tracker.TrackedItem
	for _, snap := range snapshots {
		if snap.Err != nil {
			slog.WarnContext(ctx, "skipping unreachable project board",
				"project", snap.CollectionID, "error", snap.Err)
			continue
		}
		for _, item := range snap.Items {
			if item.IsOpen() {
				items = append(items, item)
			}
		}
	}
	return items, nil
}

func runResolve(ctx context.Context, env *config.Env, query string) error {
	pf, err := config.LoadProjectFile(env.ProjectFile)
	if err != nil {
		return err
	}
	items, err := snapshotItems(ctx, env, pf)
	if err != nil {
		return err
	}

	resolver := match.NewResolver(match.DefaultConfig())
	item, err := resolver.Resolve(query, items)
	if err != nil {
		return err
	}
	fmt.Printf("#%d: %s (%s)\n", item.Number, item.Title, item.State)
	return nil
}

func runStatus(ctx context.Context, env *config.Env, name string) error {
	pf, err := config.LoadProjectFile(env.ProjectFile)
	if err != nil {
		return err
	}

	aliases := match.DefaultAliasTable()
	for alias, canonical := range pf.StatusAliases {
		aliases.Add(alias, canonical)
	}

	available := pf.Statuses()
	if len(available) == 0 {
		available = []string{"Todo", "In Progress", "Done"}
	}

	resolved, err := aliases.ResolveStatus(name, available)
	if err != nil {
		return err
	}
	fmt.Println(resolved)
	return nil
}

func runStateVerify(ctx context.Context, env *config.Env) error {
	store := state.NewStore(env.StateFile)
	st := store.Load(ctx)

	issues := state.VerifyIntegrity(st)
	if len(issues) == 0 {
		fmt.Printf("state ok: %d mappings\n", len(st.TaskMappings))
		return nil
	}
	return cerr.NewErrorWithDetails(
		cerr.FailedPrecondition,
		fmt.Sprintf("state file has %d integrity violations", len(issues)),
		nil,
		issues,
	)
}

func runStateCleanup(ctx context.Context, env *config.Env) error {
	repo := task.NewFileRepository(env.TasksFile)
	tasks, err := repo.GetAll(ctx)
	if err != nil {
		return err
	}

	store := state.NewStore(env.StateFile)
	removed := 0
	_, err = store.Update(ctx, func(st state.SyncState) (state.SyncState, error) {
		next, n := st.CleanupStale(task.IDs(tasks))
		removed = n
		return next, nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("removed %d stale mappings\n", removed)
	return nil
}
