package experiments

import (
	"github.com/splitpilot/splitpilot/internal/db"
	"github.com/splitpilot/splitpilot/internal/stats"
)

const resultConfidenceLevel = 0.95

type VariantResult struct {
	Variant *db.Variant
	Rate    float64
	CILower float64
	CIUpper float64
}

type Results struct {
	Variants         []VariantResult
	Confident        bool
	Confidence       float64
	LeadingVariantId *string
}

// ComputeResults derives per-variant conversion rates with Wilson 95%
// intervals and a two-proportion z-test of the leading variant against the
// control (or the best challenger, when the control itself leads).
func ComputeResults(variants []*db.Variant) *Results {
	results := &Results{
		Variants: make([]VariantResult, len(variants)),
	}

	controlIdx := 0
	for i, variant := range variants {
		if variant.IsControl {
			controlIdx = i
		}
	}

	leadingIdx := -1
	maxRate := 0.0
	for i, variant := range variants {
		rate := 0.0
		if variant.Impressions > 0 {
			rate = float64(variant.Conversions) / float64(variant.Impressions)
		}
		lower, upper := stats.WilsonInterval(variant.Conversions, variant.Impressions, resultConfidenceLevel)
		results.Variants[i] = VariantResult{
			Variant: variant,
			Rate:    rate,
			CILower: lower,
			CIUpper: upper,
		}
		if variant.Impressions > 0 && (leadingIdx == -1 || rate > maxRate) {
			maxRate = rate
			leadingIdx = i
		}
	}

	if leadingIdx == -1 || len(variants) < 2 {
		return results
	}

	leading := variants[leadingIdx]
	results.LeadingVariantId = &leading.Id

	var rival *db.Variant
	if leadingIdx == controlIdx {
		// The control leads, measure it against the best challenger.
		bestRate := -1.0
		for i, vr := range results.Variants {
			if i == controlIdx {
				continue
			}
			if vr.Rate > bestRate {
				bestRate = vr.Rate
				rival = variants[i]
			}
		}
	} else {
		rival = variants[controlIdx]
	}
	if rival == nil {
		return results
	}

	results.Confidence = stats.SignificanceTest(
		leading.Conversions, leading.Impressions,
		rival.Conversions, rival.Impressions,
	)
	results.Confident = results.Confidence >= resultConfidenceLevel
	return results
}
