package state

import (
	"sort"
	"time"
)

// Version is the schema version written into every state file.
const Version = "1.0"

// TaskMapping is the durable association between one local task and the
// remote issue it was synced to.
type TaskMapping struct {
	TaskmasterID      string    `json:"taskmasterId"`
	GithubIssueNumber int       `json:"githubIssueNumber"`
	GithubIssueURL    string    `json:"githubIssueUrl"`
	ProjectItemID     string    `json:"projectItemId,omitempty"`
	SyncedAt          time.Time `json:"syncedAt"`
}

// SyncState is the persisted ledger of task mappings. Values are immutable:
// every operation returns a new state and leaves its receiver untouched, so
// states can be passed around without in-process locking.
type SyncState struct {
	LastSyncAt   *time.Time             `json:"lastSyncAt,omitempty"`
	TaskMappings map[string]TaskMapping `json:"taskMappings"`
	Version      string                 `json:"version"`
}

func Empty() SyncState {
	return SyncState{
		TaskMappings: map[string]TaskMapping{},
		Version:      Version,
	}
}

func (s SyncState) cloneMappings() map[string]TaskMapping {
	copied := make(map[string]TaskMapping, len(s.TaskMappings))
	for k, v := range s.TaskMappings {
		copied[k] = v
	}
	return copied
}

// WithMapping returns a new state with m added, replacing any existing
// mapping for the same local id.
func (s SyncState) WithMapping(m TaskMapping) SyncState {
	mappings := s.cloneMappings()
	mappings[m.TaskmasterID] = m
	s.TaskMappings = mappings
	return s
}

// WithoutMapping returns a new state with the mapping for localID removed.
func (s SyncState) WithoutMapping(localID string) SyncState {
	mappings := s.cloneMappings()
	delete(mappings, localID)
	s.TaskMappings = mappings
	return s
}

func (s SyncState) Mapping(localID string) (TaskMapping, bool) {
	m, ok := s.TaskMappings[localID]
	return m, ok
}

// MappingByIssue finds the mapping that points at the given issue number.
// Linear scan; the state is small.
func (s SyncState) MappingByIssue(number int) (TaskMapping, bool) {
	for _, m := range s.TaskMappings {
		if m.GithubIssueNumber == number {
			return m, true
		}
	}
	return TaskMapping{}, false
}

// Mappings returns all mappings sorted by local id.
func (s SyncState) Mappings() []TaskMapping {
	ids := s.SyncedTaskIDs()
	out := make([]TaskMapping, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.TaskMappings[id])
	}
	return out
}

// SyncedTaskIDs returns the local ids of all synced tasks, sorted.
func (s SyncState) SyncedTaskIDs() []string {
	ids := make([]string, 0, len(s.TaskMappings))
	for id := range s.TaskMappings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CleanupStale drops mappings whose local task no longer exists in the
// authoritative task list, returning the new state and the number of
// entries removed.
func (s SyncState) CleanupStale(currentIDs []string) (SyncState, int) {
	current := make(map[string]struct{}, len(currentIDs))
	for _, id := range currentIDs {
		current[id] = struct{}{}
	}

	mappings := make(map[string]TaskMapping, len(s.TaskMappings))
	removed := 0
	for id, m := range s.TaskMappings {
		if _, ok := current[id]; ok {
			mappings[id] = m
		} else {
			removed++
		}
	}
	s.TaskMappings = mappings
	return s, removed
}
