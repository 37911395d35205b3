package task

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kazz187/tracksync/pkg/cerr"
)

// Repository defines read access to the external task store.
type Repository interface {
	GetAll(ctx context.Context) ([]*Task, error)
}

// FileRepository reads tasks from a Taskmaster tasks.json file. Both the
// plain layout {"tasks": [...]} and the tagged layout
// {"master": {"tasks": [...]}} are accepted.
type FileRepository struct {
	filePath string
}

func NewFileRepository(filePath string) *FileRepository {
	return &FileRepository{filePath: filePath}
}

func (r *FileRepository) GetAll(ctx context.Context) ([]*Task, error) {
	content, err := os.ReadFile(r.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cerr.NewError(cerr.NotFound, fmt.Sprintf("task file %s not found", r.filePath), err)
		}
		return nil, cerr.NewError(cerr.Internal, "failed to read task file", err)
	}

	var plain struct {
		Tasks []*Task `json:"tasks"`
	}
	if err := json.Unmarshal(content, &plain); err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, "failed to parse task file", err)
	}
	if plain.Tasks != nil {
		return validate(plain.Tasks)
	}

	var tagged map[string]struct {
		Tasks []*Task `json:"tasks"`
	}
	if err := json.Unmarshal(content, &tagged); err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, "failed to parse task file", err)
	}
	if tag, ok := tagged["master"]; ok && tag.Tasks != nil {
		return validate(tag.Tasks)
	}
	return nil, cerr.NewError(cerr.InvalidArgument, "task file has no tasks list", nil)
}

func validate(tasks []*Task) ([]*Task, error) {
	seen := make(map[ID]struct{}, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("task %q has no id", t.Title), nil)
		}
		if _, ok := seen[t.ID]; ok {
			return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("duplicate task id %s", t.ID), nil)
		}
		seen[t.ID] = struct{}{}
	}
	return tasks, nil
}
