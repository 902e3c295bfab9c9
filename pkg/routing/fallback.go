package routing

import (
	"sort"

	"mercator-hq/conductor/pkg/providers"
)

// BuildFallbackChain orders every candidate except primary by descending
// FallbackScore. Ties keep candidate order. The result never contains
// primary or a duplicate.
func BuildFallbackChain(sel *Selection, primary providers.ProviderID) []providers.ProviderID {
	type scored struct {
		id    providers.ProviderID
		score float64
	}

	seen := map[providers.ProviderID]struct{}{primary: {}}
	chain := make([]scored, 0, len(sel.Candidates))
	for _, id := range sel.Candidates {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		chain = append(chain, scored{id: id, score: FallbackScore(sel.MetricsFor(id), sel.LocalAndFree(id))})
	}

	sort.SliceStable(chain, func(i, j int) bool {
		return chain[i].score > chain[j].score
	})

	out := make([]providers.ProviderID, len(chain))
	for i, c := range chain {
		out[i] = c.id
	}
	return out
}
