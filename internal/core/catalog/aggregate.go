package catalog

import (
	"sort"
	"time"
)

// AggregateResult holds the distinct values of each dimension visible to a
// principal, plus the instant the computation ran. Results are immutable once
// built; combining partitions produces a new result via Union.
type AggregateResult struct {
	Sites       []string  `json:"sites"`
	Telescopes  []string  `json:"telescopes"`
	Instruments []string  `json:"instruments"`
	Filters     []string  `json:"filters"`
	Obstypes    []string  `json:"obstypes"`
	Proposals   []string  `json:"proposals"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Union merges two results per dimension. generated_at is taken from the
// receiver when set, else from other; callers pass the private partial as the
// receiver so its timestamp wins.
func (r AggregateResult) Union(other AggregateResult) AggregateResult {
	out := AggregateResult{
		Sites:       unionSorted(r.Sites, other.Sites),
		Telescopes:  unionSorted(r.Telescopes, other.Telescopes),
		Instruments: unionSorted(r.Instruments, other.Instruments),
		Filters:     unionSorted(r.Filters, other.Filters),
		Obstypes:    unionSorted(r.Obstypes, other.Obstypes),
		Proposals:   unionSorted(r.Proposals, other.Proposals),
		GeneratedAt: r.GeneratedAt,
	}
	if out.GeneratedAt.IsZero() {
		out.GeneratedAt = other.GeneratedAt
	}
	return out
}

// IsZero reports whether the result carries no values and no timestamp.
func (r AggregateResult) IsZero() bool {
	return len(r.Sites) == 0 && len(r.Telescopes) == 0 &&
		len(r.Instruments) == 0 && len(r.Filters) == 0 &&
		len(r.Obstypes) == 0 && len(r.Proposals) == 0 &&
		r.GeneratedAt.IsZero()
}

// Normalize sorts every dimension and drops empty strings and duplicates.
// Adapter scan paths call this so downstream comparisons are stable.
func (r AggregateResult) Normalize() AggregateResult {
	return AggregateResult{
		Sites:       unionSorted(r.Sites, nil),
		Telescopes:  unionSorted(r.Telescopes, nil),
		Instruments: unionSorted(r.Instruments, nil),
		Filters:     unionSorted(r.Filters, nil),
		Obstypes:    unionSorted(r.Obstypes, nil),
		Proposals:   unionSorted(r.Proposals, nil),
		GeneratedAt: r.GeneratedAt,
	}
}

func unionSorted(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, vals := range [][]string{a, b} {
		for _, v := range vals {
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
