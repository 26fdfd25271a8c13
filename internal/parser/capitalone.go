package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/insightdelivered/recurring-radar/internal/models"
)

// CapitalOneParser handles Capital One credit card statements.
//
// Card statements list purchases and payments with month-name dates and a
// single amount column; payments and credits print with a leading minus:
//
//	Transactions
//	Jan 15  NETFLIX.COM  Los Gatos CA  $15.99
//	Jan 20  PAYMENT - THANK YOU  -$120.00
//
// Being a card account, purchases are debits and payments/credits are
// credits regardless of section.
type CapitalOneParser struct{}

func (p *CapitalOneParser) Institution() models.Institution { return models.InstitutionCapitalOne }
func (p *CapitalOneParser) InstitutionName() string         { return "Capital One" }

var capitalOneSignatureMarkers = []string{
	"Capital One", "CAPITAL ONE", "capitalone.com",
}

var capitalOneSections = []struct {
	header string
	dir    models.Direction
}{
	{"payments, credits and adjustments", models.Credit},
	{"payments and credits", models.Credit},
	{"transactions", models.Debit},
	{"purchases", models.Debit},
	{"fees charged", models.Debit},
	{"interest charged", models.Debit},
}

var capitalOneTerminators = []string{
	"total transactions", "total payments", "total fees",
	"total interest", "interest charge calculation",
}

var capitalOneMerchantPrefixes = []string{
	"RECURRING PAYMENT",
	"ELECTRONIC PAYMENT",
	"MOBILE PAYMENT",
	"ONLINE PAYMENT",
}

func (p *CapitalOneParser) Parse(text, sourceFile string) (*models.ParsedStatement, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	if !containsAny(text, capitalOneSignatureMarkers) {
		return nil, fmt.Errorf("capital one: %w", ErrInstitutionMismatch)
	}

	stmt := newStatement(models.InstitutionCapitalOne, text, sourceFile)

	var currentDir models.Direction
	inSection := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)

		if inSection && capitalOneTerminates(lower) {
			inSection = false
			continue
		}
		if dir, ok := capitalOneSectionFor(lower); ok {
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
		// A minus-signed amount is a payment or credit no matter which
		// section it printed under.
		if cl.negatives[len(cl.negatives)-1] {
			dir = models.Credit
		}
		if dir == models.Debit && strings.Contains(lower, "payment") && strings.Contains(lower, "thank you") {
			dir = models.Credit
		}

		stmt.Transactions = append(stmt.Transactions,
			buildTransaction(cl, dir, amount, 0, stmt, capitalOneMerchantPrefixes))
	}

	if len(stmt.Transactions) == 0 {
		stmt.Transactions = fallbackScan(text, func(cl candidateLine) models.Transaction {
			amount, _, _ := pickAmounts(cl.amounts, false)
			dir := models.Debit
			if cl.negatives[len(cl.negatives)-1] || looksLikeCredit(cl.desc) {
				dir = models.Credit
			}
			return buildTransaction(cl, dir, amount, 0, stmt, capitalOneMerchantPrefixes)
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

func capitalOneSectionFor(lowerLine string) (models.Direction, bool) {
	for _, s := range capitalOneSections {
		if strings.HasPrefix(lowerLine, s.header) {
			return s.dir, true
		}
	}
	return "", false
}

func capitalOneTerminates(lowerLine string) bool {
	for _, t := range capitalOneTerminators {
		if strings.HasPrefix(lowerLine, t) {
			return true
		}
	}
	return false
}
