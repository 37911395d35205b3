package sync

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/tracksync/internal/state"
	"github.com/kazz187/tracksync/internal/task"
	"github.com/kazz187/tracksync/internal/tracker"
	"github.com/kazz187/tracksync/pkg/cerr"
)

// fakeClient implements tracker.Client in memory.
type fakeClient struct {
	nextNumber  int
	created     []tracker.ItemPayload
	failTitles  map[string]bool
	failProject bool
	fieldSets   int
}

func (c *fakeClient) CreateItem(_ context.Context, _ tracker.CollectionRef, payload tracker.ItemPayload) (tracker.ItemRef, error) {
	if c.failTitles[payload.Title] {
		return tracker.ItemRef{}, cerr.NewError(cerr.InvalidArgument, "validation failed", nil)
	}
	c.nextNumber++
	c.created = append(c.created, payload)
	return tracker.ItemRef{
		Number: c.nextNumber,
		URL:    fmt.Sprintf("https://github.com/acme/demo/issues/%d", c.nextNumber),
		NodeID: fmt.Sprintf("I_node%d", c.nextNumber),
	}, nil
}

func (c *fakeClient) AddItemToCollection(_ context.Context, _, itemNodeID string) (string, error) {
	if c.failProject {
		return "", cerr.NewError(cerr.NotFound, "project not found", nil)
	}
	return "PVTI_" + itemNodeID, nil
}

func (c *fakeClient) SetItemField(_ context.Context, _, _, _, _ string) error {
	c.fieldSets++
	return nil
}

func (c *fakeClient) ListCollectionItems(_ context.Context, _ string) ([]tracker.TrackedItem, error) {
	return nil, nil
}

func (c *fakeClient) GetItem(_ context.Context, _ tracker.CollectionRef, _ int) (*tracker.TrackedItem, error) {
	return nil, cerr.NewError(cerr.NotFound, "not found", nil)
}

func testTasks() []*task.Task {
	return []*task.Task{
		{ID: "1", Title: "First task", Description: "one"},
		{ID: "2", Title: "Second task", Description: "two", Dependencies: []task.ID{"1"}},
	}
}

func newTestOrchestrator(t *testing.T, client tracker.Client) (*Orchestrator, *state.Store) {
	t.Helper()
	store := state.NewStore(filepath.Join(t.TempDir(), "sync-state.json"))
	orch := New(Config{
		Client:     client,
		Store:      store,
		Collection: tracker.CollectionRef{Owner: "acme", Repo: "demo"},
	})
	return orch, store
}

func TestRunSyncsAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{}
	orch, store := newTestOrchestrator(t, client)
	tasks := testTasks()

	summary, err := orch.Run(ctx, tasks, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.NewlySynced)
	assert.Equal(t, 0, summary.AlreadySynced)
	assert.Equal(t, 0, summary.Failed)
	assert.True(t, summary.OK())

	st := store.Load(ctx)
	m, ok := st.Mapping("1")
	require.True(t, ok)
	assert.Equal(t, 1, m.GithubIssueNumber)
	assert.Empty(t, state.VerifyIntegrity(st))

	// Second run creates nothing new.
	summary, err = orch.Run(ctx, tasks, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.NewlySynced)
	assert.Equal(t, 2, summary.AlreadySynced)
	assert.Len(t, client.created, 2)

	// The mapping count never exceeds the task count.
	assert.LessOrEqual(t, len(store.Load(ctx).TaskMappings), len(tasks))
}

func TestRunResolvesDependenciesSyncedEarlierInSameRun(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{}
	orch, _ := newTestOrchestrator(t, client)

	_, err := orch.Run(ctx, testTasks(), Options{})
	require.NoError(t, err)

	// Task 2 depends on task 1, created as issue #1 moments earlier.
	require.Len(t, client.created, 2)
	assert.Contains(t, client.created[1].Body, "- #1 (task 1)")
}

func TestRunIsolatesPerTaskFailures(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{failTitles: map[string]bool{"First task": true}}
	orch, store := newTestOrchestrator(t, client)

	summary, err := orch.Run(ctx, testTasks(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.NewlySynced)
	assert.False(t, summary.OK())

	// Only the surviving task is mapped.
	st := store.Load(ctx)
	_, ok := st.Mapping("1")
	assert.False(t, ok)
	_, ok = st.Mapping("2")
	assert.True(t, ok)

	// A later run picks up the failed task.
	client.failTitles = nil
	summary, err = orch.Run(ctx, testTasks(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.NewlySynced)
	assert.Equal(t, 1, summary.AlreadySynced)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{}
	orch, store := newTestOrchestrator(t, client)

	summary, err := orch.Run(ctx, testTasks(), Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.NewlySynced)
	assert.Empty(t, client.created)
	assert.Empty(t, store.Load(ctx).TaskMappings)
}

func TestRunCleansStaleMappings(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{}
	orch, store := newTestOrchestrator(t, client)

	_, err := store.Update(ctx, func(st state.SyncState) (state.SyncState, error) {
		return st.WithMapping(state.TaskMapping{
			TaskmasterID:      "deleted-task",
			GithubIssueNumber: 99,
			GithubIssueURL:    "https://github.com/acme/demo/issues/99",
		}), nil
	})
	require.NoError(t, err)

	_, err = orch.Run(ctx, testTasks(), Options{})
	require.NoError(t, err)

	_, ok := store.Load(ctx).Mapping("deleted-task")
	assert.False(t, ok)
}

func TestRunProjectBoardWiring(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{}
	store := state.NewStore(filepath.Join(t.TempDir(), "sync-state.json"))
	orch := New(Config{
		Client:         client,
		Store:          store,
		Collection:     tracker.CollectionRef{Owner: "acme", Repo: "demo"},
		ProjectID:      "PVT_project",
		StatusFieldID:  "PVTF_status",
		StatusOptionID: "opt_todo",
	})

	summary, err := orch.Run(ctx, testTasks(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.NewlySynced)
	assert.Equal(t, 2, client.fieldSets)

	m, ok := store.Load(ctx).Mapping("1")
	require.True(t, ok)
	assert.Equal(t, "PVTI_I_node1", m.ProjectItemID)
}

func TestRunProjectFailureStillRecordsMapping(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{failProject: true}
	store := state.NewStore(filepath.Join(t.TempDir(), "sync-state.json"))
	orch := New(Config{
		Client:     client,
		Store:      store,
		Collection: tracker.CollectionRef{Owner: "acme", Repo: "demo"},
		ProjectID:  "PVT_project",
	})

	summary, err := orch.Run(ctx, testTasks(), Options{})
	require.NoError(t, err)

	// The issues exist even though the board add failed; failing the
	// tasks would recreate the issues on the next run.
	assert.Equal(t, 2, summary.NewlySynced)
	m, ok := store.Load(ctx).Mapping("1")
	require.True(t, ok)
	assert.Empty(t, m.ProjectItemID)
	assert.Equal(t, 1, m.GithubIssueNumber)
}
