package match

import (
	"fmt"
	"strings"
	"sync"

	"github.com/kazz187/tracksync/pkg/cerr"
)

// AliasTable maps free-form status synonyms to canonical status names.
// Lookup is case-insensitive and exact, never fuzzy. The table is owned by
// the caller so independent resolution contexts don't interfere.
type AliasTable struct {
	mu      sync.RWMutex
	aliases map[string]string
}

func NewAliasTable() *AliasTable {
	return &AliasTable{aliases: make(map[string]string)}
}

// DefaultAliasTable seeds the synonyms users actually type against a
// Todo / In Progress / Done style board.
func DefaultAliasTable() *AliasTable {
	t := NewAliasTable()
	for alias, canonical := range map[string]string{
		"wip":         "in progress",
		"in-progress": "in progress",
		"inprogress":  "in progress",
		"doing":       "in progress",
		"started":     "in progress",
		"complete":    "done",
		"completed":   "done",
		"finished":    "done",
		"closed":      "done",
		"ready":       "todo",
		"pending":     "todo",
		"backlog":     "todo",
	} {
		t.Add(alias, canonical)
	}
	return t
}

func (t *AliasTable) Add(alias, canonical string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.aliases[strings.ToLower(strings.TrimSpace(alias))] = canonical
}

func (t *AliasTable) Remove(alias string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.aliases, strings.ToLower(strings.TrimSpace(alias)))
}

func (t *AliasTable) Lookup(name string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	canonical, ok := t.aliases[strings.ToLower(strings.TrimSpace(name))]
	return canonical, ok
}

// ResolveStatus maps name through the alias table and validates the result
// against the statuses the board actually offers. The returned value uses
// the board's own casing. Unknown statuses fail with an invalid_argument
// error listing the available options.
func (t *AliasTable) ResolveStatus(name string, available []string) (string, error) {
	resolved := strings.TrimSpace(name)
	if canonical, ok := t.Lookup(name); ok {
		resolved = canonical
	}
	for _, s := range available {
		if strings.EqualFold(s, resolved) {
			return s, nil
		}
	}
	return "", cerr.NewErrorWithDetails(
		cerr.InvalidArgument,
		fmt.Sprintf("invalid status %q", name),
		nil,
		[]string{"available: " + strings.Join(available, ", ")},
	)
}
