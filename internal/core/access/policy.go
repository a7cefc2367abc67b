// Package access derives visibility predicates from a filter and a principal.
//
// A frame is visible when its public_date has passed, or when it belongs to
// one of the principal's proposals. The aggregation path splits those two
// conditions into separate partitions so each can be cached with its own
// lifetime; the counting path ORs them back together into a single scope.
package access

import (
	"time"

	"github.com/astrocat-lab/frame-catalog/internal/core/catalog"
)

// Predicate is one visibility partition over the catalog: the caller's
// explicit filter constraints plus a visibility restriction evaluated at Now.
type Predicate struct {
	Filter catalog.Filter

	// PublicOnly restricts to rows with public_date <= Now.
	PublicOnly bool

	// ProprietaryOnly restricts to rows with public_date > Now. Set together
	// with ProposalIDs for authenticated, non-superuser principals.
	ProprietaryOnly bool

	// ProposalIDs restricts to rows whose proposal_id is in the set.
	ProposalIDs []string

	// Now is the instant public_date comparisons are evaluated against.
	Now time.Time
}

// Visibility is the public/private split of a query. Either side may be nil
// when that partition matches nothing for the principal.
type Visibility struct {
	Public  *Predicate
	Private *Predicate
}

// Partition derives the visibility split per the ordered rules:
//   - superuser: a single unrestricted private predicate (public subsumed)
//   - authenticated: private = own proposals AND not-yet-public rows; empty
//     proposal set means the private side matches nothing
//   - anonymous: no private side
//
// The public side carries filter constraints AND public_date <= now, and is
// present only when the filter requests public rows (the default).
func Partition(filter catalog.Filter, principal catalog.Principal, now time.Time) Visibility {
	if principal.Superuser {
		return Visibility{
			Private: &Predicate{Filter: filter, Now: now},
		}
	}

	var v Visibility
	if filter.WantsPublic() {
		v.Public = &Predicate{Filter: filter, PublicOnly: true, Now: now}
	}
	if principal.Authenticated && len(principal.ProposalIDs) > 0 {
		v.Private = &Predicate{
			Filter:          filter,
			ProprietaryOnly: true,
			ProposalIDs:     principal.ProposalIDs,
			Now:             now,
		}
	}
	return v
}

// Scope is the single combined visibility restriction used by the counting
// and listing path: public rows OR rows in the principal's proposals.
type Scope struct {
	// All means no visibility restriction (superuser).
	All bool

	// ProposalIDs widens the public-only restriction for authenticated
	// principals.
	ProposalIDs []string

	Now time.Time
}

// CountScope returns the visibility restriction for row counts.
func CountScope(principal catalog.Principal, now time.Time) Scope {
	if principal.Superuser {
		return Scope{All: true, Now: now}
	}
	if principal.Authenticated {
		return Scope{ProposalIDs: principal.ProposalIDs, Now: now}
	}
	return Scope{Now: now}
}
