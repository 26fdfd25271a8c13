package detector

import "github.com/insightdelivered/recurring-radar/internal/models"

// AdaptiveDetector is the category-aware tier. It clusters with a looser
// merchant-similarity threshold and varies the amount tolerance by billing
// category: usage-billed utilities may swing 50% month to month while a
// fixed-price subscription should barely move 5%.
type AdaptiveDetector struct {
	*Detector
}

// adaptiveSimilarityThreshold is looser than the baseline's 0.8 because
// category context compensates for weaker name matches.
const adaptiveSimilarityThreshold = 0.75

// NewAdaptive returns a category-aware detector.
func NewAdaptive() *AdaptiveDetector {
	cfg := DefaultConfig()
	cfg.SimilarityThreshold = adaptiveSimilarityThreshold

	d := NewWithConfig(cfg)
	d.toleranceFor = func(merchantName string) float64 {
		params, ok := categoryTable[Categorize(merchantName)]
		if !ok {
			params = categoryTable[CategoryUnknown]
		}
		return float64(params.AmountTolerance) / 100
	}
	d.minSizeFor = func(merchantName string) int {
		params, ok := categoryTable[Categorize(merchantName)]
		if !ok {
			params = categoryTable[CategoryUnknown]
		}
		return params.MinClusterSize
	}
	return &AdaptiveDetector{Detector: d}
}

// Detect runs the baseline pipeline with category-aware parameters and
// annotates member transactions with their merchant category.
func (a *AdaptiveDetector) Detect(txns []models.Transaction) []models.RecurringCharge {
	charges := a.Detector.Detect(txns)
	for i := range charges {
		cat := Categorize(charges[i].Merchant)
		if cat == CategoryUnknown {
			continue
		}
		for j := range charges[i].Transactions {
			if charges[i].Transactions[j].Category == "" {
				charges[i].Transactions[j].Category = string(cat)
			}
		}
	}
	return charges
}
