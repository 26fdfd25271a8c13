// Package detector statistically detects recurring payment patterns in a
// deduplicated transaction history: it clusters transactions by merchant
// and amount, classifies periodicity, scores a calibrated confidence, and
// projects the next due date.
package detector

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/insightdelivered/recurring-radar/internal/merchant"
	"github.com/insightdelivered/recurring-radar/internal/models"
)

// Detector is the baseline recurrence detector. It is pure and
// deterministic: re-running on an identical transaction set yields
// identical cluster membership and confidence scores. With zero qualifying
// clusters it returns an empty result, never an error.
type Detector struct {
	cfg Config

	// Now is the clock used for staleness checks; overridable in tests.
	Now func() time.Time

	// toleranceFor and minSizeFor let the adaptive tier vary clustering
	// parameters per merchant; the baseline uses flat config values.
	toleranceFor func(merchantName string) float64
	minSizeFor   func(merchantName string) int
}

// New returns a baseline detector with the default configuration.
func New() *Detector {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig returns a detector with a caller-supplied configuration.
func NewWithConfig(cfg Config) *Detector {
	d := &Detector{cfg: cfg, Now: time.Now}
	d.toleranceFor = func(string) float64 { return d.cfg.AmountTolerance }
	d.minSizeFor = func(string) int { return d.cfg.MinClusterSize }
	return d
}

// cluster accumulates transactions judged to originate from one biller.
type cluster struct {
	key       string // normalized merchant of the first member
	txns      []models.Transaction
	minAmount float64
	maxAmount float64
}

// Detect runs the full pipeline and returns a ranked list of recurring
// charges.
func (d *Detector) Detect(txns []models.Transaction) []models.RecurringCharge {
	clusters := d.clusterize(txns)

	var charges []models.RecurringCharge
	for _, c := range clusters {
		if len(c.txns) < d.minSizeFor(c.key) {
			continue // insufficient evidence, silently dropped
		}
		charges = append(charges, d.score(c))
	}

	charges = d.mergeNearIdentical(charges)
	d.rank(charges)
	return charges
}

// clusterize groups debit transactions by normalized-merchant similarity
// and amount compatibility. Credits never form recurring charges.
func (d *Detector) clusterize(txns []models.Transaction) []cluster {
	sorted := make([]models.Transaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].ID < sorted[j].ID
	})

	var clusters []cluster
	for _, t := range sorted {
		if t.Direction != models.Debit || t.Merchant == "" || t.Amount <= 0 {
			continue
		}

		placed := false
		for i := range clusters {
			c := &clusters[i]
			if !merchant.Similar(t.Merchant, c.key, d.cfg.SimilarityThreshold) {
				continue
			}
			newMin := math.Min(c.minAmount, t.Amount)
			newMax := math.Max(c.maxAmount, t.Amount)
			if 1-newMin/newMax > d.toleranceFor(c.key) {
				continue
			}
			c.txns = append(c.txns, t)
			c.minAmount = newMin
			c.maxAmount = newMax
			placed = true
			break
		}
		if !placed {
			clusters = append(clusters, cluster{
				key:       t.Merchant,
				txns:      []models.Transaction{t},
				minAmount: t.Amount,
				maxAmount: t.Amount,
			})
		}
	}
	return clusters
}

// score turns one qualifying cluster into a RecurringCharge.
func (d *Detector) score(c cluster) models.RecurringCharge {
	gaps := dayGaps(c.txns)
	meanGap := mean(gaps)
	gapStd := stddev(gaps, meanGap)
	periodicity := classifyInterval(meanGap)

	outlierShare := 0.0
	if gapStd > 0 && len(gaps) > 0 {
		outliers := 0
		for _, g := range gaps {
			if math.Abs(g-meanGap) > d.cfg.OutlierSigma*gapStd {
				outliers++
			}
		}
		outlierShare = float64(outliers) / float64(len(gaps))
	}

	amounts := make([]float64, len(c.txns))
	for i, t := range c.txns {
		amounts[i] = t.Amount
	}
	avgAmount := robustMean(amounts, d.cfg.OutlierSigma)
	amountCV := 0.0
	if m := mean(amounts); m > 0 {
		amountCV = stddev(amounts, m) / m
	}

	confidence := d.confidence(c, periodicity, meanGap, gapStd, outlierShare, amountCV, avgAmount)

	charge := models.RecurringCharge{
		ID:              uuid.NewString(),
		DisplayMerchant: displayMerchant(c.txns),
		Merchant:        c.key,
		Transactions:    c.txns,
		Periodicity:     periodicity,
		AvgAmount:       avgAmount,
		AmountVariance:  amountCV,
		Confidence:      confidence,
		IntervalDays:    meanGap,
	}

	d.project(&charge)
	return charge
}

// confidence computes the additive 0-100 score. The intermediate sum may
// transiently leave [0,100]; the final clamp is load-bearing.
func (d *Detector) confidence(c cluster, periodicity models.Periodicity, meanGap, gapStd, outlierShare, amountCV, avgAmount float64) float64 {
	score := 100.0

	intervalCV := 0.0
	if meanGap > 0 {
		intervalCV = gapStd / meanGap
	}
	score -= intervalCV * d.cfg.IntervalCVPenaltyWeight
	score -= outlierShare * d.cfg.OutlierPenaltyWeight

	if excess := amountCV - d.toleranceFor(c.key); excess > 0 {
		score -= excess * d.cfg.AmountPenaltyWeight
	}

	bonus := float64(len(c.txns)) * d.cfg.PerTransactionBonus
	if bonus > d.cfg.PerTransactionBonusCap {
		bonus = d.cfg.PerTransactionBonusCap
	}
	score += bonus

	if periodicity != models.Irregular {
		score += d.cfg.NamedPeriodicityBonus
	}
	if matchesKnownBiller(c.key, avgAmount) {
		score += d.cfg.KnownBillerBonus
	}

	return clamp(score, 0, 100)
}

// project fills in the next-due date and the active flag. Projection is
// calendar-aware for monthly and longer periods and fixed day-count for
// weekly/biweekly; it is suppressed for low-confidence or stale charges.
func (d *Detector) project(charge *models.RecurringCharge) {
	last := charge.Transactions[len(charge.Transactions)-1].Date

	expected := charge.IntervalDays
	if expected <= 0 {
		expected = nominalIntervalDays(charge.Periodicity)
	}

	stale := false
	if expected > 0 {
		age := d.Now().Sub(last).Hours() / 24
		stale = age > d.cfg.StalenessFactor*expected
	}
	charge.Active = !stale

	if stale || charge.Confidence < d.cfg.MinProjectionConfidence || charge.Periodicity == models.Irregular {
		charge.NextDue = nil
		return
	}

	var next time.Time
	switch charge.Periodicity {
	case models.Weekly:
		next = last.AddDate(0, 0, 7)
	case models.Biweekly:
		next = last.AddDate(0, 0, 14)
	case models.Monthly:
		next = last.AddDate(0, 1, 0)
	case models.Quarterly:
		next = last.AddDate(0, 3, 0)
	case models.Semiannual:
		next = last.AddDate(0, 6, 0)
	case models.Annual:
		next = last.AddDate(1, 0, 0)
	}
	charge.NextDue = &next
}

// nominalIntervalDays is the midpoint day count of a named periodicity,
// used when a cluster has too few gaps to measure one.
func nominalIntervalDays(p models.Periodicity) float64 {
	switch p {
	case models.Weekly:
		return 7
	case models.Biweekly:
		return 14
	case models.Monthly:
		return 30
	case models.Quarterly:
		return 91
	case models.Semiannual:
		return 182
	case models.Annual:
		return 365
	}
	return 0
}

// mergeNearIdentical folds together result pairs that evidently describe
// the same biller: near-identical merchants, matching (or one irregular)
// periodicity, and close average amounts.
func (d *Detector) mergeNearIdentical(charges []models.RecurringCharge) []models.RecurringCharge {
	merged := make([]models.RecurringCharge, 0, len(charges))

	for _, candidate := range charges {
		absorbed := false
		for i := range merged {
			if d.canMerge(&merged[i], &candidate) {
				d.mergeInto(&merged[i], &candidate)
				absorbed = true
				break
			}
		}
		if !absorbed {
			merged = append(merged, candidate)
		}
	}
	return merged
}

func (d *Detector) canMerge(a, b *models.RecurringCharge) bool {
	if !merchant.Similar(a.Merchant, b.Merchant, d.cfg.MergeSimilarityThreshold) {
		return false
	}
	if a.Periodicity != b.Periodicity &&
		a.Periodicity != models.Irregular && b.Periodicity != models.Irregular {
		return false
	}
	hi := math.Max(a.AvgAmount, b.AvgAmount)
	if hi == 0 {
		return false
	}
	return math.Abs(a.AvgAmount-b.AvgAmount)/hi <= d.cfg.MergeAmountTolerance
}

// mergeInto unions b's transactions into a (deduped by id), recomputes the
// average amount, and keeps the higher confidence.
func (d *Detector) mergeInto(a, b *models.RecurringCharge) {
	seen := make(map[string]bool, len(a.Transactions))
	for _, t := range a.Transactions {
		seen[t.ID] = true
	}
	for _, t := range b.Transactions {
		if !seen[t.ID] {
			a.Transactions = append(a.Transactions, t)
		}
	}
	sort.SliceStable(a.Transactions, func(i, j int) bool {
		return a.Transactions[i].Date.Before(a.Transactions[j].Date)
	})

	sum := 0.0
	for _, t := range a.Transactions {
		sum += t.Amount
	}
	a.AvgAmount = sum / float64(len(a.Transactions))

	if b.Confidence > a.Confidence {
		a.Confidence = b.Confidence
	}
	if a.Periodicity == models.Irregular && b.Periodicity != models.Irregular {
		a.Periodicity = b.Periodicity
		a.IntervalDays = b.IntervalDays
	}
	a.Active = a.Active || b.Active
	if a.NextDue == nil {
		a.NextDue = b.NextDue
	}
}

// rank orders charges: active before inactive, then by confidence with
// within-band gaps treated as ties, then by descending average amount.
func (d *Detector) rank(charges []models.RecurringCharge) {
	band := d.cfg.RankTieBand
	if band <= 0 {
		band = 1
	}
	sort.SliceStable(charges, func(i, j int) bool {
		a, b := charges[i], charges[j]
		if a.Active != b.Active {
			return a.Active
		}
		ba := math.Floor(a.Confidence / band)
		bb := math.Floor(b.Confidence / band)
		if ba != bb {
			return ba > bb
		}
		if a.AvgAmount != b.AvgAmount {
			return a.AvgAmount > b.AvgAmount
		}
		return a.Merchant < b.Merchant
	})
}

// displayMerchant picks the most frequent raw merchant spelling as the
// human-facing label, falling back to the normalized key.
func displayMerchant(txns []models.Transaction) string {
	counts := make(map[string]int)
	best := ""
	for _, t := range txns {
		name := t.RawMerchant
		if name == "" {
			name = t.Merchant
		}
		counts[name]++
		if best == "" || counts[name] > counts[best] {
			best = name
		}
	}
	return best
}

// --- small stats helpers ---

func dayGaps(txns []models.Transaction) []float64 {
	var gaps []float64
	for i := 1; i < len(txns); i++ {
		gaps = append(gaps, txns[i].Date.Sub(txns[i-1].Date).Hours()/24)
	}
	return gaps
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, m float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return math.Sqrt(sum / float64(len(xs)))
}

// robustMean recomputes the mean after excluding values beyond sigma
// standard deviations from the initial mean.
func robustMean(xs []float64, sigma float64) float64 {
	m := mean(xs)
	sd := stddev(xs, m)
	if sd == 0 {
		return m
	}
	var kept []float64
	for _, x := range xs {
		if math.Abs(x-m) <= sigma*sd {
			kept = append(kept, x)
		}
	}
	if len(kept) == 0 {
		return m
	}
	return mean(kept)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
