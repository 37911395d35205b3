package match

import (
	"fmt"
	"sort"

	"github.com/kazz187/tracksync/internal/tracker"
	"github.com/kazz187/tracksync/pkg/cerr"
)

// Candidate is one scored item in a ranking. Rankings are transient; they
// live only for the duration of a single resolution call.
type Candidate struct {
	Number int
	Title  string
	Score  float64
}

type Config struct {
	MinScore     float64
	AmbiguityGap float64
	NearCertain  float64
}

func DefaultConfig() Config {
	return Config{
		MinScore:     DefaultMinScore,
		AmbiguityGap: DefaultAmbiguityGap,
		NearCertain:  DefaultNearCertain,
	}
}

// Resolver turns free-text or numeric queries into exactly one tracked
// item, or a coded rejection the caller has to branch on.
type Resolver struct {
	cfg Config
}

func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Rank scores every item against the query, drops everything below
// MinScore, and sorts descending. The sort is stable so the original
// collection order breaks ties. A numeric query bypasses fuzzy scoring and
// matches only the item with that exact number.
func (r *Resolver) Rank(query string, items []tracker.TrackedItem) []Candidate {
	if n, ok := ParseNumberQuery(query); ok {
		for _, item := range items {
			if item.Number == n {
				return []Candidate{{Number: item.Number, Title: item.Title, Score: 1.0}}
			}
		}
		return nil
	}

	candidates := r.scoreAll(query, items)
	filtered := candidates[:0]
	for _, c := range candidates {
		if c.Score >= r.cfg.MinScore {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func (r *Resolver) scoreAll(query string, items []tracker.TrackedItem) []Candidate {
	candidates := make([]Candidate, 0, len(items))
	for _, item := range items {
		candidates = append(candidates, Candidate{
			Number: item.Number,
			Title:  item.Title,
			Score:  ScoreMatch(query, item.Title),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// BestMatch returns the top candidate for the query, or false when nothing
// survives the score floor.
func (r *Resolver) BestMatch(query string, items []tracker.TrackedItem) (Candidate, bool) {
	ranked := r.Rank(query, items)
	if len(ranked) == 0 {
		return Candidate{}, false
	}
	return ranked[0], true
}

// Suggestions formats up to three top candidates as "#<number>: <title>"
// lines, used to help the caller correct a failed query.
func Suggestions(candidates []Candidate) []string {
	n := min(len(candidates), maxSuggestions)
	out := make([]string, 0, n)
	for _, c := range candidates[:n] {
		out = append(out, fmt.Sprintf("#%d: %s", c.Number, c.Title))
	}
	return out
}

// Resolve returns the single item the query refers to. It fails with a
// not_found error (carrying suggestions) when nothing survives the score
// floor, and with an aborted error (carrying the top candidates and their
// scores) when the ranking is too close to call.
func (r *Resolver) Resolve(query string, items []tracker.TrackedItem) (*tracker.TrackedItem, error) {
	ranked := r.Rank(query, items)
	if len(ranked) == 0 {
		suggestions := Suggestions(r.scoreAll(query, items))
		return nil, cerr.NewErrorWithDetails(
			cerr.NotFound,
			fmt.Sprintf("no item matches %q", query),
			nil,
			suggestions,
		)
	}

	if len(ranked) >= 2 &&
		ranked[0].Score-ranked[1].Score < r.cfg.AmbiguityGap &&
		ranked[0].Score < r.cfg.NearCertain {
		details := make([]string, 0, maxSuggestions)
		for _, c := range ranked[:min(len(ranked), maxSuggestions)] {
			details = append(details, fmt.Sprintf("#%d: %s (score %.2f)", c.Number, c.Title, c.Score))
		}
		return nil, cerr.NewErrorWithDetails(
			cerr.Aborted,
			fmt.Sprintf("query %q is ambiguous", query),
			nil,
			details,
		)
	}

	for i := range items {
		if items[i].Number == ranked[0].Number {
			return &items[i], nil
		}
	}
	// Ranked candidates always come from items; this is unreachable.
	return nil, cerr.NewError(cerr.Internal, "ranked candidate missing from collection", nil)
}
