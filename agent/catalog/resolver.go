// Package catalog resolves free-text item names against a
// restaurant's menu. Voice transcription reliably mangles item names
// ("biriyani" for "Biryani"), so hard equality would reject valid
// orders; the similarity threshold bounds how far a match may drift
// before the resolver reports not-found instead of guessing.
package catalog

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"voicechef/agent/store"
)

// DefaultThreshold mirrors the matching cutoff the ordering flow was
// tuned with. Tunable via configuration, never inline at call sites.
const DefaultThreshold = 0.8

// Score of a whole-word containment match ("Biryani" inside "Chicken
// Biryani"). Above any sane threshold, below an exact match so exact
// names always win.
const containmentScore = 0.95

type Resolver struct {
	threshold float64
}

func NewResolver(threshold float64) *Resolver {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Resolver{threshold: threshold}
}

// Resolve returns the single best menu item for name, or false when no
// item clears the threshold. Deterministic for identical input sets:
// candidates are ranked by score, then name, so storage order never
// breaks ties.
func (r *Resolver) Resolve(name string, items []store.MenuItem) (*store.MenuItem, bool) {
	query := normalize(name)
	if query == "" || len(items) == 0 {
		return nil, false
	}

	type candidate struct {
		item  *store.MenuItem
		score float64
	}
	ranked := make([]candidate, 0, len(items))
	for i := range items {
		ranked = append(ranked, candidate{
			item:  &items[i],
			score: Similarity(query, normalize(items[i].Name)),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].item.Name < ranked[j].item.Name
	})

	best := ranked[0]
	if best.score < r.threshold {
		return nil, false
	}
	return best.item, true
}

// Similarity scores two normalized names in [0, 1]. Exact match is
// 1.0; a whole-word containment ("cola" within "coca cola") scores
// just below; everything else falls to the SequenceMatcher ratio.
func Similarity(query, name string) float64 {
	if query == name {
		return 1.0
	}
	if containsWordRun(name, query) {
		return containmentScore
	}
	m := difflib.NewMatcher(runesOf(query), runesOf(name))
	return m.Ratio()
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

// containsWordRun reports whether query equals any contiguous run of
// whole words in name.
func containsWordRun(name, query string) bool {
	queryWords := strings.Fields(query)
	nameWords := strings.Fields(name)
	if len(queryWords) == 0 || len(queryWords) > len(nameWords) {
		return false
	}
	for start := 0; start+len(queryWords) <= len(nameWords); start++ {
		matched := true
		for i, w := range queryWords {
			if nameWords[start+i] != w {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func runesOf(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
