package experiments

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/splitpilot/splitpilot/internal/db"
)

// Assign deterministically maps a visitor to one of the experiment's
// variants, with probability proportional to the variant weights. Assignment
// is recomputed on every call, never stored: the same
// (experiment id, visitor id) pair lands on the same variant for as long as
// the weight configuration stands.
func Assign(experimentId string, visitorId string, variants []*db.Variant) (*db.Variant, error) {
	if len(variants) == 0 {
		return nil, NewNotFoundError("test %s has no variants", experimentId)
	}

	digest := sha256.Sum256([]byte(experimentId + ":" + visitorId))
	hash := binary.BigEndian.Uint64(digest[:8])

	var totalWeight int64
	for _, variant := range variants {
		totalWeight += variant.Weight
	}

	// All-zero weights degrade to a uniform pick over the ordered list.
	if totalWeight <= 0 {
		return variants[hash%uint64(len(variants))], nil
	}

	bucket := hash % uint64(totalWeight)
	var cumulative uint64
	for _, variant := range variants {
		cumulative += uint64(variant.Weight)
		if bucket < cumulative {
			return variant, nil
		}
	}

	// Unreachable given non-negative weights, kept as a fallback.
	return variants[len(variants)-1], nil
}
