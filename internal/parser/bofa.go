package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/insightdelivered/recurring-radar/internal/models"
)

// BankOfAmericaParser handles Bank of America checking statements.
//
// Sections use sentence-case headers and transactions carry full
// MM/DD/YY dates:
//
//	Deposits and other additions
//	01/03/24 Counter Credit 2,500.00
//	Total deposits and other additions $2,500.00
//
//	Withdrawals and other subtractions
//	01/05/24 CHECKCARD 0104 NETFLIX.COM CA 24011234567890 15.49
type BankOfAmericaParser struct{}

func (p *BankOfAmericaParser) Institution() models.Institution {
	return models.InstitutionBankOfAmerica
}
func (p *BankOfAmericaParser) InstitutionName() string { return "Bank of America" }

var bofaSignatureMarkers = []string{
	"Bank of America", "BANK OF AMERICA", "bankofamerica.com",
}

var bofaSections = []struct {
	header string
	dir    models.Direction
}{
	{"deposits and other additions", models.Credit},
	{"withdrawals and other subtractions", models.Debit},
	{"checks", models.Debit},
	{"service fees", models.Debit},
	{"atm and debit card subtractions", models.Debit},
}

var bofaTerminators = []string{
	"total deposits and other additions",
	"total withdrawals and other subtractions",
	"total checks",
	"total service fees",
	"daily ledger balances",
}

var bofaMerchantPrefixes = []string{
	"CHECKCARD",
	"CHECK CARD",
	"PURCHASE",
	"RECURRING PAYMENT",
	"ONLINE PAYMENT",
	"ONLINE BANKING PAYMENT TO",
	"ONLINE BANKING TRANSFER TO",
	"ELECTRONIC PAYMENT",
	"ACH DEBIT",
	"ACH",
	"POS PURCHASE",
	"POS",
	"COUNTER CREDIT",
	"MOBILE PURCHASE",
}

func (p *BankOfAmericaParser) Parse(text, sourceFile string) (*models.ParsedStatement, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	if !containsAny(text, bofaSignatureMarkers) {
		return nil, fmt.Errorf("bank of america: %w", ErrInstitutionMismatch)
	}

	stmt := newStatement(models.InstitutionBankOfAmerica, text, sourceFile)

	var currentDir models.Direction
	inSection := false

	lines := strings.Split(text, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)

		if bofaTerminates(lower) {
			inSection = false
			continue
		}
		if dir, ok := bofaSectionFor(lower); ok {
			currentDir = dir
			inSection = true
			continue
		}
		if !inSection {
			continue
		}

		if _, ok := leadingDate(trimmed); !ok {
			// Continuation lines extend the previous description. Summary
			// rows without dates are ignored.
			if n := len(stmt.Transactions); n > 0 && !strings.Contains(lower, "subtotal") {
				if !amountTokenPattern.MatchString(trimmed) {
					last := &stmt.Transactions[n-1]
					last.RawDescription += " " + trimmed
				}
			}
			continue
		}

		cl, ok := decomposeLine(trimmed)
		if !ok {
			recordParseError(stmt, trimmed, "could not decompose line")
			continue
		}

		dir := currentDir
		if dir == "" {
			if looksLikeCredit(cl.desc) {
				dir = models.Credit
			} else {
				dir = models.Debit
			}
		}

		amount, _, _ := pickAmounts(cl.amounts, false)
		stmt.Transactions = append(stmt.Transactions,
			buildTransaction(cl, dir, amount, 0, stmt, bofaMerchantPrefixes))
	}

	if len(stmt.Transactions) == 0 {
		stmt.Transactions = fallbackScan(text, func(cl candidateLine) models.Transaction {
			dir := models.Debit
			if looksLikeCredit(cl.desc) {
				dir = models.Credit
			}
			amount, _, _ := pickAmounts(cl.amounts, false)
			return buildTransaction(cl, dir, amount, 0, stmt, bofaMerchantPrefixes)
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

func bofaSectionFor(lowerLine string) (models.Direction, bool) {
	for _, s := range bofaSections {
		if strings.HasPrefix(lowerLine, s.header) {
			return s.dir, true
		}
	}
	return "", false
}

func bofaTerminates(lowerLine string) bool {
	for _, t := range bofaTerminators {
		if strings.HasPrefix(lowerLine, t) {
			return true
		}
	}
	return false
}
