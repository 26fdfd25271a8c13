package models

import "time"

// Direction indicates whether money left or entered the account.
// Amounts are always stored as non-negative magnitudes; Direction
// carries the sign semantics.
type Direction string

const (
	Debit  Direction = "debit"
	Credit Direction = "credit"
)

// Transaction represents a single statement transaction.
type Transaction struct {
	ID             string    `json:"id"`
	Date           time.Time `json:"date"`
	RawDescription string    `json:"rawDescription"`
	RawMerchant    string    `json:"rawMerchant"`
	Merchant       string    `json:"merchant"` // normalized, see internal/merchant
	Amount         float64   `json:"amount"`   // always >= 0
	Direction      Direction `json:"direction"`
	Category       string    `json:"category,omitempty"`
	Balance        float64   `json:"balance,omitempty"` // running balance when the statement shows one
	StatementID    string    `json:"statementId"`
	SourceLine     string    `json:"sourceLine,omitempty"`
	DedupHash      string    `json:"-"`
}

// Institution identifies which bank's statement layout a parser targets.
type Institution string

const (
	InstitutionChase         Institution = "chase"
	InstitutionBankOfAmerica Institution = "bofa"
	InstitutionWellsFargo    Institution = "wellsfargo"
	InstitutionCapitalOne    Institution = "capitalone"
	InstitutionCiti          Institution = "citi"
)

// ParsedStatement is the structured result of parsing one statement's text.
type ParsedStatement struct {
	ID            string        `json:"id"`
	AccountName   string        `json:"accountName"`
	AccountNumber string        `json:"accountNumber,omitempty"`
	Institution   Institution   `json:"institution"`
	PeriodStart   time.Time     `json:"periodStart"`
	PeriodEnd     time.Time     `json:"periodEnd"`
	Transactions  []Transaction `json:"transactions"`
	ParseErrors   []string      `json:"parseErrors,omitempty"`
	SourceFile    string        `json:"sourceFile"`
	UploadedAt    time.Time     `json:"uploadedAt"`
}

// PeriodKey returns the statement's year-month key, e.g. "2024-01".
func (s *ParsedStatement) PeriodKey() string {
	if s.PeriodStart.IsZero() {
		return ""
	}
	return s.PeriodStart.Format("2006-01")
}

// Overlaps reports whether two statement date windows intersect.
func (s *ParsedStatement) Overlaps(other *ParsedStatement) bool {
	return !s.PeriodStart.After(other.PeriodEnd) && !other.PeriodStart.After(s.PeriodEnd)
}

// Periodicity is the classified recurrence interval of a charge cluster.
type Periodicity string

const (
	Weekly     Periodicity = "weekly"
	Biweekly   Periodicity = "biweekly"
	Monthly    Periodicity = "monthly"
	Quarterly  Periodicity = "quarterly"
	Semiannual Periodicity = "semiannual"
	Annual     Periodicity = "annual"
	Irregular  Periodicity = "irregular"
)

// RecurringCharge is a derived view of one detected recurring payment
// pattern. It is recomputed on every detection run and never persisted
// by the core.
type RecurringCharge struct {
	ID              string        `json:"id"`
	DisplayMerchant string        `json:"displayMerchant"`
	Merchant        string        `json:"merchant"` // normalized cluster key
	Transactions    []Transaction `json:"transactions"`
	Periodicity     Periodicity   `json:"periodicity"`
	AvgAmount       float64       `json:"avgAmount"`
	AmountVariance  float64       `json:"amountVariance"` // coefficient of variation
	NextDue         *time.Time    `json:"nextDue,omitempty"`
	Confidence      float64       `json:"confidence"` // 0-100
	IntervalDays    float64       `json:"intervalDays"`
	Active          bool          `json:"active"`
}
