package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/insightdelivered/recurring-radar/internal/models"
)

// CitiParser handles Citi card and Citibank checking statements.
//
// Citi lists activity under "Account Activity" style sections with MM/DD
// dates and a single trailing amount; credits carry a minus sign:
//
//	Account Activity
//	01/12  SPOTIFY USA 877-7781161 NY  10.99
//	01/20  AUTOPAY PAYMENT-THANK YOU   -200.00
type CitiParser struct{}

func (p *CitiParser) Institution() models.Institution { return models.InstitutionCiti }
func (p *CitiParser) InstitutionName() string         { return "Citi" }

var citiSignatureMarkers = []string{
	"Citibank", "CITIBANK", "Citi Card", "citi.com", "CITI CARD",
}

var citiSections = []struct {
	header string
	dir    models.Direction
}{
	{"payments, credits and adjustments", models.Credit},
	{"deposits", models.Credit},
	{"account activity", models.Debit},
	{"standard purchases", models.Debit},
	{"purchases and debits", models.Debit},
	{"fees charged", models.Debit},
	{"withdrawals", models.Debit},
}

var citiTerminators = []string{
	"total account activity", "total payments", "total fees",
	"account summary", "interest charged",
}

var citiMerchantPrefixes = []string{
	"AUTOPAY",
	"ONLINE PAYMENT",
	"ELECTRONIC PAYMENT",
	"ACH ELECTRONIC DEBIT",
	"ACH DEBIT",
	"DEBIT CARD PURCH",
	"DEBIT CARD",
	"POS",
}

func (p *CitiParser) Parse(text, sourceFile string) (*models.ParsedStatement, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	if !containsAny(text, citiSignatureMarkers) {
		return nil, fmt.Errorf("citi: %w", ErrInstitutionMismatch)
	}

	stmt := newStatement(models.InstitutionCiti, text, sourceFile)

	var currentDir models.Direction
	inSection := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)

		if inSection && citiTerminates(lower) {
			inSection = false
			continue
		}
		if dir, ok := citiSectionFor(lower); ok {
			currentDir = dir
			inSection = true
			continue
		}
		if !inSection {
			continue
		}

		if _, ok := leadingDate(trimmed); !ok {
			continue
		}
		cl, ok := decomposeLine(trimmed)
		if !ok {
			recordParseError(stmt, trimmed, "could not decompose line")
			continue
		}

		amount, _, _ := pickAmounts(cl.amounts, false)
		dir := currentDir
		if cl.negatives[len(cl.negatives)-1] {
			dir = models.Credit
		} else if dir == models.Debit && looksLikeCredit(cl.desc) && !looksLikeDebit(cl.desc) {
			dir = models.Credit
		}

		stmt.Transactions = append(stmt.Transactions,
			buildTransaction(cl, dir, amount, 0, stmt, citiMerchantPrefixes))
	}

	if len(stmt.Transactions) == 0 {
		stmt.Transactions = fallbackScan(text, func(cl candidateLine) models.Transaction {
			amount, _, _ := pickAmounts(cl.amounts, false)
			dir := models.Debit
			if cl.negatives[len(cl.negatives)-1] || looksLikeCredit(cl.desc) {
				dir = models.Credit
			}
			return buildTransaction(cl, dir, amount, 0, stmt, citiMerchantPrefixes)
		})
	}
	if len(stmt.Transactions) == 0 {
		stmt.ParseErrors = append(stmt.ParseErrors, noTransactionsNote)
	}

	sort.SliceStable(stmt.Transactions, func(i, j int) bool {
		return stmt.Transactions[i].Date.Before(stmt.Transactions[j].Date)
	})
	return stmt, nil
}

func citiSectionFor(lowerLine string) (models.Direction, bool) {
	for _, s := range citiSections {
		if strings.HasPrefix(lowerLine, s.header) {
			return s.dir, true
		}
	}
	return "", false
}

func citiTerminates(lowerLine string) bool {
	for _, t := range citiTerminators {
		if strings.HasPrefix(lowerLine, t) {
			return true
		}
	}
	return false
}
