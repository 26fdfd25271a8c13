package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/insightdelivered/recurring-radar/internal/merchant"
	"github.com/insightdelivered/recurring-radar/internal/models"
)

// Date token patterns found in US statement layouts.
var (
	// MM/DD/YYYY or MM/DD/YY
	dateFullPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2,4})\b`)
	// MM/DD with no year (Chase, Wells Fargo, Citi transaction tables)
	dateShortPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})\b`)
	// Mon D or Month D (Capital One)
	dateMonthPattern = regexp.MustCompile(`(?i)^((?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*)\s+(\d{1,2})\b`)

	// Amounts like 1,234.56, $15.99, -15.99 or (15.99)
	amountTokenPattern = regexp.MustCompile(`\(?-?\$?\s?[\d,]+\.\d{2}\)?`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

func monthFromName(name string) (time.Month, bool) {
	if len(name) < 3 {
		return 0, false
	}
	m, ok := monthsByPrefix[strings.ToLower(name[:3])]
	return m, ok
}

// dateToken is a date found at the start of a transaction line. Year may be
// zero when the layout omits it; resolveDate fills it in from the statement
// window.
type dateToken struct {
	month, day, year int
	text             string
}

// leadingDate returns the date token at the start of a line, if any.
func leadingDate(line string) (dateToken, bool) {
	line = strings.TrimSpace(line)

	if m := dateFullPattern.FindStringSubmatch(line); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if validMonthDay(month, day) {
			return dateToken{month: month, day: day, year: year, text: m[0]}, true
		}
	}
	if m := dateShortPattern.FindStringSubmatch(line); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		if validMonthDay(month, day) {
			return dateToken{month: month, day: day, text: m[0]}, true
		}
	}
	if m := dateMonthPattern.FindStringSubmatch(line); m != nil {
		if month, ok := monthFromName(m[1]); ok {
			day, _ := strconv.Atoi(m[2])
			if day >= 1 && day <= 31 {
				return dateToken{month: int(month), day: day, text: m[0]}, true
			}
		}
	}
	return dateToken{}, false
}

func validMonthDay(month, day int) bool {
	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}

// boundaryCorrectionDays is how far outside the statement window an
// inferred date may fall before the year is shifted by ±1. Statements
// spanning a calendar-year boundary (Dec-Jan) need this.
const boundaryCorrectionDays = 30

// resolveDate turns a date token into a concrete date, inferring the year
// from the statement window when the token omits it and correcting the
// year when the nominal result lands outside the window.
func resolveDate(tok dateToken, periodStart, periodEnd time.Time) time.Time {
	year := tok.year
	if year == 0 {
		if !periodStart.IsZero() {
			year = periodStart.Year()
		} else {
			year = time.Now().Year()
		}
	}
	d := time.Date(year, time.Month(tok.month), tok.day, 0, 0, 0, 0, time.UTC)
	if periodStart.IsZero() || periodEnd.IsZero() {
		return d
	}

	slack := boundaryCorrectionDays * 24 * time.Hour
	within := func(d time.Time) bool {
		return !d.Before(periodStart.Add(-slack)) && !d.After(periodEnd.Add(slack))
	}
	if within(d) {
		return d
	}
	for _, shift := range []int{1, -1} {
		alt := d.AddDate(shift, 0, 0)
		if within(alt) {
			return alt
		}
	}
	return d
}

// Statement period header phrasings:
//
//	"January 5, 2024 to February 4, 2024"
//	"January 5, 2024 through February 4, 2024"
//	"December 5 - January 4, 2024"  (shared trailing year, en dash or hyphen)
var (
	periodLongPattern = regexp.MustCompile(
		`(?i)([A-Z][a-z]+)\s+(\d{1,2}),?\s+(\d{4})\s+(?:to|through|-|–)\s+([A-Z][a-z]+)\s+(\d{1,2}),?\s+(\d{4})`)
	periodSharedYearPattern = regexp.MustCompile(
		`(?i)([A-Z][a-z]+)\s+(\d{1,2})\s*(?:to|through|-|–)\s*([A-Z][a-z]+)\s+(\d{1,2}),?\s+(\d{4})`)
	periodSlashPattern = regexp.MustCompile(
		`(\d{1,2}/\d{1,2}/\d{2,4})\s*(?:to|through|-|–)\s*(\d{1,2}/\d{1,2}/\d{2,4})`)
)

// extractPeriod finds the statement's start/end date pair from loosely
// specified header phrases. Returns zero times when no period is found.
func extractPeriod(text string) (time.Time, time.Time) {
	if m := periodLongPattern.FindStringSubmatch(text); m != nil {
		start := dateFromParts(m[1], m[2], m[3])
		end := dateFromParts(m[4], m[5], m[6])
		if !start.IsZero() && !end.IsZero() {
			return start, end
		}
	}
	if m := periodSharedYearPattern.FindStringSubmatch(text); m != nil {
		end := dateFromParts(m[3], m[4], m[5])
		start := dateFromParts(m[1], m[2], m[5])
		// "December 5 - January 4, 2024": the start belongs to the prior year.
		if !start.IsZero() && !end.IsZero() {
			if start.After(end) {
				start = start.AddDate(-1, 0, 0)
			}
			return start, end
		}
	}
	if m := periodSlashPattern.FindStringSubmatch(text); m != nil {
		start := slashDate(m[1])
		end := slashDate(m[2])
		if !start.IsZero() && !end.IsZero() {
			return start, end
		}
	}
	return time.Time{}, time.Time{}
}

func dateFromParts(monthName, dayStr, yearStr string) time.Time {
	month, ok := monthFromName(monthName)
	if !ok {
		return time.Time{}
	}
	day, _ := strconv.Atoi(dayStr)
	year, _ := strconv.Atoi(yearStr)
	if day < 1 || day > 31 || year == 0 {
		return time.Time{}
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func slashDate(s string) time.Time {
	m := dateFullPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if year < 100 {
		year += 2000
	}
	if !validMonthDay(month, day) {
		return time.Time{}
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// parseAmount converts "1,234.56", "$15.99", "-15.99" or "(15.99)" to a
// magnitude and a negative flag.
func parseAmount(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	if s == "" {
		return 0, false, fmt.Errorf("empty amount")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	if v < 0 {
		v, negative = -v, true
	}
	return v, negative, nil
}

// candidateLine is a decomposed transaction line: leading date, description
// remainder between date and trailing amounts, and the amount tokens in
// left-to-right order.
type candidateLine struct {
	date      dateToken
	desc      string
	amounts   []float64
	negatives []bool
	raw       string
}

// decomposeLine splits a candidate transaction line into a leading date
// token, trailing decimal amount tokens, and the description remainder.
// Returns false when the line has no leading date or no amount.
func decomposeLine(line string) (candidateLine, bool) {
	trimmed := strings.TrimSpace(line)
	tok, ok := leadingDate(trimmed)
	if !ok {
		return candidateLine{}, false
	}
	rest := strings.TrimSpace(trimmed[len(tok.text):])

	locs := amountTokenPattern.FindAllStringIndex(rest, -1)
	if len(locs) == 0 {
		return candidateLine{}, false
	}

	// Only trailing tokens count as amount columns: walk back from the end
	// of the line so that numbers embedded in the description (card digits,
	// reference codes) are left alone. Those never carry a decimal point,
	// but ZIP-like "12345.00" fragments do show up in OCR noise.
	firstTrailing := len(locs)
	endCursor := len(rest)
	for i := len(locs) - 1; i >= 0; i-- {
		between := strings.TrimSpace(rest[locs[i][1]:endCursor])
		if between != "" && between != "-" {
			break
		}
		firstTrailing = i
		endCursor = locs[i][0]
	}
	if firstTrailing == len(locs) {
		return candidateLine{}, false
	}

	cl := candidateLine{date: tok, raw: trimmed}
	cl.desc = strings.TrimSpace(rest[:locs[firstTrailing][0]])
	for i := firstTrailing; i < len(locs); i++ {
		v, neg, err := parseAmount(rest[locs[i][0]:locs[i][1]])
		if err != nil {
			continue
		}
		cl.amounts = append(cl.amounts, v)
		cl.negatives = append(cl.negatives, neg)
	}
	if len(cl.amounts) == 0 || cl.desc == "" {
		return candidateLine{}, false
	}
	return cl, true
}

// creditKeywords resolve debit vs credit when section context alone is
// ambiguous (parallel deposit/withdrawal columns).
var creditKeywords = []string{
	"deposit", "payment received", "payment thank you", "refund", "credit",
	"interest paid", "interest payment", "cash back", "cashback", "reversal",
	"direct dep", "payroll", "transfer in",
}

var debitKeywords = []string{
	"payment", "purchase", "withdrawal", "debit", "fee", "charge",
	"transfer to", "check", "pos ",
}

func looksLikeCredit(desc string) bool {
	lower := strings.ToLower(desc)
	for _, kw := range creditKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func looksLikeDebit(desc string) bool {
	lower := strings.ToLower(desc)
	for _, kw := range debitKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Card/reference suffixes appended by processors after the merchant name,
// and trailing two-letter location codes.
var (
	merchantCardSuffix = regexp.MustCompile(`(?i)\s+(?:CARD|XXXX+|X{2,}\d{2,})\s*[\dX]{4,}.*$`)
	merchantRefSuffix  = regexp.MustCompile(`(?i)\s+(?:REF|AUTH|CONF|TRACE|ID)\s*[#:]?\s*\S{5,}.*$`)
	merchantLongID     = regexp.MustCompile(`\s+[A-Za-z0-9]{10,}\s*$`)
	merchantStateCode  = regexp.MustCompile(`\s+[A-Z]{2}\s*$`)
	merchantDateFrag   = regexp.MustCompile(`(?i)\b(?:on\s+)?\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`)
)

// extractMerchant strips institution boilerplate prefixes and processor
// suffixes from a raw description, leaving the merchant remainder that the
// normalizer will canonicalize.
func extractMerchant(desc string, prefixes []string) string {
	s := strings.TrimSpace(desc)

	for changed := true; changed; {
		changed = false
		for _, prefix := range prefixes {
			if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
				s = strings.TrimSpace(s[len(prefix):])
				changed = true
			}
		}
	}

	s = merchantDateFrag.ReplaceAllString(s, " ")
	s = merchantCardSuffix.ReplaceAllString(s, "")
	s = merchantRefSuffix.ReplaceAllString(s, "")
	s = merchantLongID.ReplaceAllString(s, "")
	s = merchantStateCode.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return strings.TrimSpace(desc)
	}
	return s
}

// fallbackScan rescans the whole text for any line beginning with a date
// token and containing a decimal amount, ignoring section boundaries. Used
// when the primary section-aware pass finds nothing.
func fallbackScan(text string, assign func(candidateLine) models.Transaction) []models.Transaction {
	var txns []models.Transaction
	for _, line := range strings.Split(text, "\n") {
		cl, ok := decomposeLine(line)
		if !ok {
			continue
		}
		txns = append(txns, assign(cl))
	}
	return txns
}

// pickAmounts applies the rightmost-token disambiguation: with a running
// balance column the last token is the balance and the one before it the
// amount; otherwise the last token is the amount.
func pickAmounts(amounts []float64, hasBalanceColumn bool) (amount, balance float64, hasBalance bool) {
	if len(amounts) == 0 {
		return 0, 0, false
	}
	if hasBalanceColumn && len(amounts) >= 2 {
		return amounts[len(amounts)-2], amounts[len(amounts)-1], true
	}
	return amounts[len(amounts)-1], 0, false
}

// buildTransaction assembles a Transaction from a decomposed line. The
// owning-statement identifier is set here, once, by the parser.
func buildTransaction(cl candidateLine, dir models.Direction, amount, balance float64, stmt *models.ParsedStatement, prefixes []string) models.Transaction {
	rawMerchant := extractMerchant(cl.desc, prefixes)
	return models.Transaction{
		ID:             uuid.NewString(),
		Date:           resolveDate(cl.date, stmt.PeriodStart, stmt.PeriodEnd),
		RawDescription: cl.desc,
		RawMerchant:    rawMerchant,
		Merchant:       merchant.Normalize(rawMerchant),
		Amount:         amount,
		Direction:      dir,
		Balance:        balance,
		StatementID:    stmt.ID,
		SourceLine:     cl.raw,
	}
}

// newStatement initializes a statement shell with metadata shared by all
// institution parsers.
func newStatement(inst models.Institution, text, sourceFile string) *models.ParsedStatement {
	stmt := &models.ParsedStatement{
		ID:          uuid.NewString(),
		Institution: inst,
		SourceFile:  sourceFile,
		UploadedAt:  time.Now().UTC(),
	}
	stmt.AccountName = extractAccountName(text)
	stmt.AccountNumber = extractAccountNumber(text)
	stmt.PeriodStart, stmt.PeriodEnd = extractPeriod(text)
	return stmt
}

// noTransactionsNote is appended when both the primary and fallback passes
// come up empty. Not a hard failure: the caller treats it as a
// likely-wrong-format signal.
const noTransactionsNote = "no transactions found; statement format may not match this institution"

// recordParseError appends a non-fatal line failure to the statement.
func recordParseError(stmt *models.ParsedStatement, line string, reason string) {
	display := strings.TrimSpace(line)
	if len(display) > 80 {
		display = display[:80] + "..."
	}
	stmt.ParseErrors = append(stmt.ParseErrors, fmt.Sprintf("%s: %q", reason, display))
}

// accountNamePattern finds labeled account names in headers.
var accountNameLabels = []string{
	"Account name:", "Account Name:", "Account holder:", "Primary Account:",
	"Account title:", "Prepared for:", "Prepared For:",
}

// extractAccountName scans for a labeled account name line.
func extractAccountName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		for _, label := range accountNameLabels {
			if idx := strings.Index(line, label); idx >= 0 {
				rest := strings.TrimSpace(line[idx+len(label):])
				if rest != "" {
					return rest
				}
			}
		}
	}
	return ""
}

// maskedAccountPattern matches masked or full account numbers.
var maskedAccountPattern = regexp.MustCompile(`(?i)account\s*(?:number|#|no\.?)?[:\s]+((?:[X*]+[-\s]?)?\d{4,})`)

func extractAccountNumber(text string) string {
	if m := maskedAccountPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
