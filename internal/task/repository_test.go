package task

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/tracksync/pkg/cerr"
)

func writeTasksFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGetAllPlainLayout(t *testing.T) {
	path := writeTasksFile(t, `{
		"tasks": [
			{"id": 1, "title": "First", "description": "one", "priority": "high", "status": "pending", "dependencies": []},
			{"id": "2", "title": "Second", "description": "two", "priority": "low", "status": "done", "dependencies": [1]}
		]
	}`)

	tasks, err := NewFileRepository(path).GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	// Numeric and string ids both normalize to strings.
	assert.Equal(t, ID("1"), tasks[0].ID)
	assert.Equal(t, ID("2"), tasks[1].ID)
	assert.Equal(t, PriorityHigh, tasks[0].Priority)
	assert.Equal(t, []ID{"1"}, tasks[1].Dependencies)
	assert.Equal(t, []string{"1", "2"}, IDs(tasks))
}

func TestGetAllTaggedLayout(t *testing.T) {
	path := writeTasksFile(t, `{
		"master": {
			"tasks": [{"id": 1, "title": "Only", "description": "d", "status": "pending"}]
		}
	}`)

	tasks, err := NewFileRepository(path).GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Only", tasks[0].Title)
}

func TestGetAllMissingFile(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "nope.json"))
	_, err := repo.GetAll(context.Background())
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestGetAllRejectsDuplicateIDs(t *testing.T) {
	path := writeTasksFile(t, `{
		"tasks": [
			{"id": 1, "title": "a"},
			{"id": "1", "title": "b"}
		]
	}`)

	_, err := NewFileRepository(path).GetAll(context.Background())
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
}

func TestGetAllRejectsGarbage(t *testing.T) {
	path := writeTasksFile(t, `not json at all`)
	_, err := NewFileRepository(path).GetAll(context.Background())
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
}
