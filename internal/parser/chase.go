package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/insightdelivered/recurring-radar/internal/models"
)

// ChaseParser handles Chase checking statements.
//
// Chase statements group transactions under headed sections:
//
//	DEPOSITS AND ADDITIONS
//	ATM & DEBIT CARD WITHDRAWALS
//	ELECTRONIC WITHDRAWALS
//	CHECKS PAID
//	FEES
//
// Transaction lines start with MM/DD (no year) and end with one amount:
//
//	"01/15 Card Purchase 01/14 Netflix.Com Netflix.Com CA Card 1234 15.99"
type ChaseParser struct{}

func (p *ChaseParser) Institution() models.Institution { return models.InstitutionChase }
func (p *ChaseParser) InstitutionName() string         { return "Chase" }

var chaseSignatureMarkers = []string{
	"JPMorgan Chase", "JPMORGAN CHASE", "Chase.com", "chase.com", "Chase Total Checking",
}

// chaseSections maps section header fragments to the direction of every
// transaction captured while that section is active.
var chaseSections = []struct {
	header string
	dir    models.Direction
}{
	{"DEPOSITS AND ADDITIONS", models.Credit},
	{"ATM & DEBIT CARD WITHDRAWALS", models.Debit},
	{"ATM AND DEBIT CARD WITHDRAWALS", models.Debit},
	{"ELECTRONIC WITHDRAWALS", models.Debit},
	{"OTHER WITHDRAWALS", models.Debit},
	{"CHECKS PAID", models.Debit},
	{"FEES", models.Debit},
}

// chaseTerminators close the current section.
var chaseTerminators = []string{
	"TOTAL DEPOSITS AND ADDITIONS", "TOTAL ATM & DEBIT CARD WITHDRAWALS",
	"TOTAL ELECTRONIC WITHDRAWALS", "TOTAL CHECKS PAID", "TOTAL FEES",
	"DAILY ENDING BALANCE", "ENDING BALANCE",
}

var chaseMerchantPrefixes = []string{
	"Card Purchase With Pin",
	"Card Purchase",
	"Recurring Card Purchase",
	"Online Payment To",
	"Online Payment",
	"Online Transfer To",
	"Electronic Payment",
	"ACH Debit",
	"ACH Credit",
	"Zelle Payment To",
	"Check Card",
	"POS Debit",
	"POS",
}

func (p *ChaseParser) Parse(text, sourceFile string) (*models.ParsedStatement, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	if !containsAny(text, chaseSignatureMarkers) {
		return nil, fmt.Errorf("chase: %w", ErrInstitutionMismatch)
	}

	stmt := newStatement(models.InstitutionChase, text, sourceFile)

	var currentDir models.Direction
	inSection := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		upper := strings.ToUpper(trimmed)

		if dir, ok := chaseSectionFor(upper); ok {
			currentDir = dir
			inSection = true
			continue
		}
		if inSection && chaseTerminates(upper) {
			inSection = false
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

		dir := currentDir
		// Parallel-column ambiguity inside mixed sections resolves by keywords.
		if looksLikeCredit(cl.desc) && !looksLikeDebit(cl.desc) {
			dir = models.Credit
		}

		amount, _, _ := pickAmounts(cl.amounts, false)
		stmt.Transactions = append(stmt.Transactions,
			buildTransaction(cl, dir, amount, 0, stmt, chaseMerchantPrefixes))
	}

	if len(stmt.Transactions) == 0 {
		stmt.Transactions = fallbackScan(text, func(cl candidateLine) models.Transaction {
			dir := models.Debit
			if looksLikeCredit(cl.desc) {
				dir = models.Credit
			}
			amount, _, _ := pickAmounts(cl.amounts, false)
			return buildTransaction(cl, dir, amount, 0, stmt, chaseMerchantPrefixes)
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

func chaseSectionFor(upperLine string) (models.Direction, bool) {
	for _, s := range chaseSections {
		if strings.Contains(upperLine, s.header) && !strings.HasPrefix(upperLine, "TOTAL") {
			return s.dir, true
		}
	}
	return "", false
}

func chaseTerminates(upperLine string) bool {
	for _, t := range chaseTerminators {
		if strings.Contains(upperLine, t) {
			return true
		}
	}
	return false
}
