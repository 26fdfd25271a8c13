package detector

import "github.com/insightdelivered/recurring-radar/internal/models"

// All detection heuristics live in named tables here so they stay
// auditable and unit-testable in isolation. They are empirically chosen
// and deliberately not runtime-configurable.

// periodicityBand matches a mean day-gap against a named recurrence
// interval.
type periodicityBand struct {
	periodicity models.Periodicity
	minDays     float64
	maxDays     float64
}

var periodicityBands = []periodicityBand{
	{models.Weekly, 5, 9},
	{models.Biweekly, 11, 17},
	{models.Monthly, 25, 35},
	{models.Quarterly, 80, 100},
	{models.Semiannual, 175, 190},
	{models.Annual, 335, 395},
}

// classifyInterval returns the named periodicity whose band contains the
// mean gap, or Irregular.
func classifyInterval(meanDays float64) models.Periodicity {
	for _, band := range periodicityBands {
		if meanDays >= band.minDays && meanDays <= band.maxDays {
			return band.periodicity
		}
	}
	return models.Irregular
}

// Config carries the tunable thresholds of one detector tier.
type Config struct {
	// SimilarityThreshold feeds merchant.Similar during clustering.
	SimilarityThreshold float64
	// AmountTolerance is the max allowed spread within a cluster,
	// expressed as 1 - min/max.
	AmountTolerance float64
	// MinClusterSize is the evidence floor; smaller clusters are dropped.
	MinClusterSize int

	// OutlierSigma flags day-gaps deviating more than this many standard
	// deviations from the mean.
	OutlierSigma float64

	// Confidence scoring weights. All additive, never multiplicative, so
	// scores stay stable under small input perturbations.
	IntervalCVPenaltyWeight float64 // penalty per unit of interval CV
	OutlierPenaltyWeight    float64 // penalty per unit of outlier share
	AmountPenaltyWeight     float64 // penalty per unit of excess amount CV
	PerTransactionBonus     float64
	PerTransactionBonusCap  float64
	NamedPeriodicityBonus   float64
	KnownBillerBonus        float64

	// MinProjectionConfidence suppresses next-due projection below this
	// confidence.
	MinProjectionConfidence float64
	// StalenessFactor marks a charge inactive when the most recent
	// transaction is older than this multiple of the expected interval.
	StalenessFactor float64

	// Cross-cluster merge thresholds.
	MergeSimilarityThreshold float64
	MergeAmountTolerance     float64

	// RankTieBand treats confidence gaps within this span as ties during
	// ranking.
	RankTieBand float64
}

// DefaultConfig is the baseline tier's configuration.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold:      0.8,
		AmountTolerance:          0.25,
		MinClusterSize:           2,
		OutlierSigma:             2.5,
		IntervalCVPenaltyWeight:  50,
		OutlierPenaltyWeight:     20,
		AmountPenaltyWeight:      40,
		PerTransactionBonus:      2,
		PerTransactionBonusCap:   12,
		NamedPeriodicityBonus:    10,
		KnownBillerBonus:         15,
		MinProjectionConfidence:  40,
		StalenessFactor:          1.75,
		MergeSimilarityThreshold: 0.875,
		MergeAmountTolerance:     0.125,
		RankTieBand:              10,
	}
}

// knownBillers maps curated normalized merchant labels to typical price
// points. A cluster whose average lands near one earns the known-biller
// confidence bonus.
var knownBillers = map[string][]float64{
	"NETFLIX":             {6.99, 15.49, 15.99, 22.99},
	"SPOTIFY":             {9.99, 10.99, 11.99, 16.99},
	"HULU":                {7.99, 17.99},
	"DISNEY+":             {7.99, 13.99},
	"HBO MAX":             {9.99, 15.99},
	"AMAZON PRIME":        {14.99, 139.00},
	"APPLE":               {0.99, 2.99, 9.99},
	"YOUTUBE PREMIUM":     {13.99},
	"YOUTUBE TV":          {72.99},
	"AUDIBLE":             {14.95},
	"DROPBOX":             {11.99},
	"ADOBE":               {9.99, 19.99, 54.99},
	"MICROSOFT":           {6.99, 9.99},
	"GOOGLE ONE":          {1.99, 2.99, 9.99},
	"PLAYSTATION":         {9.99, 17.99},
	"XBOX":                {10.99, 16.99},
	"NINTENDO":            {3.99, 19.99},
	"PELOTON":             {12.99, 44.00},
	"PLANET FITNESS":      {10.00, 24.99},
	"LA FITNESS":          {29.99, 34.99},
	"24 HOUR FITNESS":     {31.99, 46.99},
	"NEW YORK TIMES":      {4.25, 17.00},
	"WALL STREET JOURNAL": {9.75, 38.99},
	"SIRIUSXM":            {9.99, 23.99},
	"PANDORA":             {4.99, 9.99},
	"PARAMOUNT+":          {5.99, 11.99},
	"PEACOCK":             {5.99, 11.99},
	"CRUNCHYROLL":         {7.99, 11.99},
	"DASHPASS":            {9.99},
	"UBER ONE":            {9.99},
	"INSTACART":           {9.99},
	"GRAMMARLY":           {12.00, 30.00},
	"NORDVPN":             {12.99},
	"EXPRESSVPN":          {12.95},
	"1PASSWORD":           {2.99, 4.99},
	"RING":                {3.99, 10.00},
	"SUBSTACK":            {5.00, 8.00, 10.00},
	"PATREON":             {3.00, 5.00, 10.00},
}

// knownBillerPriceSlack is the relative distance within which a cluster
// average counts as matching a typical price point.
const knownBillerPriceSlack = 0.10

// matchesKnownBiller reports whether the merchant is a curated biller at a
// typical price point.
func matchesKnownBiller(merchant string, avgAmount float64) bool {
	prices, ok := knownBillers[merchant]
	if !ok {
		return false
	}
	for _, p := range prices {
		if p == 0 {
			continue
		}
		diff := avgAmount - p
		if diff < 0 {
			diff = -diff
		}
		if diff/p <= knownBillerPriceSlack {
			return true
		}
	}
	return false
}

// Category groups merchants whose billing model shares an expected amount
// variance. Usage-billed utilities swing widely month to month; fixed-price
// subscriptions barely move.
type Category string

const (
	CategorySubscription Category = "subscription"
	CategoryMembership   Category = "membership"
	CategoryUtility      Category = "utility"
	CategoryInsurance    Category = "insurance"
	CategoryTelecom      Category = "telecom"
	CategorySoftware     Category = "software"
	CategoryUnknown      Category = "unknown"
)

// categoryParams tunes clustering and variance expectations per category.
type categoryParams struct {
	AmountTolerance int // percent: max 1 - min/max spread
	MinClusterSize  int
}

var categoryTable = map[Category]categoryParams{
	CategorySubscription: {AmountTolerance: 5, MinClusterSize: 2},
	CategorySoftware:     {AmountTolerance: 5, MinClusterSize: 2},
	CategoryMembership:   {AmountTolerance: 10, MinClusterSize: 2},
	CategoryInsurance:    {AmountTolerance: 10, MinClusterSize: 2},
	CategoryTelecom:      {AmountTolerance: 15, MinClusterSize: 2},
	CategoryUtility:      {AmountTolerance: 50, MinClusterSize: 2},
	CategoryUnknown:      {AmountTolerance: 25, MinClusterSize: 2},
}

// categoryKeywords maps merchant-name fragments to categories.
var categoryKeywords = []struct {
	keyword  string
	category Category
}{
	{"NETFLIX", CategorySubscription},
	{"SPOTIFY", CategorySubscription},
	{"HULU", CategorySubscription},
	{"DISNEY", CategorySubscription},
	{"HBO", CategorySubscription},
	{"PARAMOUNT", CategorySubscription},
	{"PEACOCK", CategorySubscription},
	{"CRUNCHYROLL", CategorySubscription},
	{"YOUTUBE", CategorySubscription},
	{"AUDIBLE", CategorySubscription},
	{"PRIME", CategorySubscription},
	{"SIRIUSXM", CategorySubscription},
	{"PANDORA", CategorySubscription},
	{"SUBSTACK", CategorySubscription},
	{"PATREON", CategorySubscription},
	{"ADOBE", CategorySoftware},
	{"MICROSOFT", CategorySoftware},
	{"DROPBOX", CategorySoftware},
	{"GOOGLE", CategorySoftware},
	{"GRAMMARLY", CategorySoftware},
	{"1PASSWORD", CategorySoftware},
	{"VPN", CategorySoftware},
	{"FITNESS", CategoryMembership},
	{"GYM", CategoryMembership},
	{"PELOTON", CategoryMembership},
	{"CLUB", CategoryMembership},
	{"MEMBERSHIP", CategoryMembership},
	{"COSTCO", CategoryMembership},
	{"INSURANCE", CategoryInsurance},
	{"GEICO", CategoryInsurance},
	{"PROGRESSIVE", CategoryInsurance},
	{"STATE FARM", CategoryInsurance},
	{"ALLSTATE", CategoryInsurance},
	{"VERIZON", CategoryTelecom},
	{"T-MOBILE", CategoryTelecom},
	{"AT&T", CategoryTelecom},
	{"COMCAST", CategoryTelecom},
	{"SPECTRUM", CategoryTelecom},
	{"ELECTRIC", CategoryUtility},
	{"POWER", CategoryUtility},
	{"ENERGY", CategoryUtility},
	{"GAS", CategoryUtility},
	{"WATER", CategoryUtility},
	{"UTILITY", CategoryUtility},
	{"UTILITIES", CategoryUtility},
}

// Categorize maps a normalized merchant onto its billing category.
func Categorize(merchant string) Category {
	for _, entry := range categoryKeywords {
		if len(merchant) >= len(entry.keyword) && contains(merchant, entry.keyword) {
			return entry.category
		}
	}
	return CategoryUnknown
}

func contains(s, substr string) bool {
	return len(substr) > 0 && indexOf(s, substr) >= 0
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
