package routing

import (
	"github.com/photovault/photovault/internal/domain/compression"
	"github.com/photovault/photovault/internal/infrastructure/storage"
)

// SelectTier returns the primary routing decision for a photo. It is a pure
// function of the metadata and the tier states; it performs no I/O and never
// mutates its inputs.
//
// Policy, first match wins:
//  1. Primary tier available with headroom for the file -> Primary, premium
//     compression when the photo is homepage/premium/featured, standard
//     otherwise.
//  2. Secondary tier available with headroom -> Secondary, standard.
//  3. Local tier -> standard; the local ceiling is advisory and never blocks.
func SelectTier(meta PhotoMetadata, tiers map[storage.Tier]TierState) TierDecision {
	if hasHeadroom(tiers[storage.TierPrimary], meta.FileSizeBytes) {
		class := compression.ClassStandard
		if meta.IsHomepage || meta.IsPremium || meta.IsFeatured {
			class = compression.ClassPremium
		}
		return TierDecision{Tier: storage.TierPrimary, Class: class}
	}

	if hasHeadroom(tiers[storage.TierSecondary], meta.FileSizeBytes) {
		return TierDecision{Tier: storage.TierSecondary, Class: compression.ClassStandard}
	}

	return TierDecision{Tier: storage.TierLocal, Class: compression.ClassStandard}
}

// hasHeadroom applies the capacity test. A tier without credentials is
// treated identically to a tier with no headroom.
func hasHeadroom(state TierState, fileSize int64) bool {
	if !state.Available {
		return false
	}
	if state.Advisory {
		return true
	}
	return state.UsedBytes+fileSize <= state.CapacityBytes
}
