package state

import (
	"fmt"
	"net/url"
)

// VerifyIntegrity audits a state against its invariants and returns one
// human-readable line per violation. It repairs nothing; the caller decides
// whether to drop offending mappings and re-sync.
func VerifyIntegrity(st SyncState) []string {
	var issues []string
	seen := map[int]string{}

	for _, id := range st.SyncedTaskIDs() {
		m := st.TaskMappings[id]
		if m.TaskmasterID != id {
			issues = append(issues, fmt.Sprintf("mapping %q: key does not match taskmasterId %q", id, m.TaskmasterID))
		}
		if m.GithubIssueNumber <= 0 {
			issues = append(issues, fmt.Sprintf("mapping %q: invalid issue number %d", id, m.GithubIssueNumber))
		} else if prev, ok := seen[m.GithubIssueNumber]; ok {
			issues = append(issues, fmt.Sprintf("mapping %q: issue number %d already mapped to %q", id, m.GithubIssueNumber, prev))
		} else {
			seen[m.GithubIssueNumber] = id
		}
		if u, err := url.Parse(m.GithubIssueURL); err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, fmt.Sprintf("mapping %q: malformed issue url %q", id, m.GithubIssueURL))
		}
		if m.SyncedAt.IsZero() {
			issues = append(issues, fmt.Sprintf("mapping %q: missing syncedAt timestamp", id))
		}
	}
	return issues
}
