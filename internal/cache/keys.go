package cache

import (
	"encoding/hex"

	"github.com/astrocat-lab/frame-catalog/internal/core/catalog"
	"golang.org/x/crypto/blake2b"
)

// Well-known keys maintained outside the per-filter keyspace.
const (
	// SnapshotKey holds the periodically refreshed whole-catalog aggregate.
	SnapshotKey = "aggregate:snapshot"

	// AllPublicKey holds the lazily computed all-public fallback aggregate.
	AllPublicKey = "aggregate:all-public"
)

// PublicAggregateKey returns the cache key for the public partition of an
// aggregation query. Public results are shared across principals, so the key
// depends on the filter alone.
func PublicAggregateKey(filter catalog.Filter) string {
	return "aggregate:public:" + digest(filter.CanonicalString())
}

// PrivateAggregateKey returns the cache key for the private partition.
// Private results are principal-specific, so the principal's identity is part
// of the keyed material.
func PrivateAggregateKey(filter catalog.Filter, principal catalog.Principal) string {
	return "aggregate:private:" + digest(filter.CanonicalString()+"|principal="+principal.ID)
}

// ProposalsKey returns the cache key for a principal's resolved proposal set.
func ProposalsKey(principalID string) string {
	return "auth:proposals:" + digest(principalID)
}

func digest(material string) string {
	sum := blake2b.Sum256([]byte(material))
	return hex.EncodeToString(sum[:16])
}
