package catalog

// Principal is the caller a query runs on behalf of. The zero value is the
// anonymous principal.
//
// Proposal membership is opaque here: it is supplied by the external
// observation-portal profile lookup and treated as a plain set of strings.
type Principal struct {
	ID            string
	Authenticated bool
	Superuser     bool
	ProposalIDs   []string
}

// Anonymous is the unauthenticated principal.
var Anonymous = Principal{}

// HasProposal reports membership in the principal's proposal set.
func (p Principal) HasProposal(id string) bool {
	for _, pid := range p.ProposalIDs {
		if pid == id {
			return true
		}
	}
	return false
}
