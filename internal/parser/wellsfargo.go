package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/insightdelivered/recurring-radar/internal/models"
)

// WellsFargoParser handles Wells Fargo checking statements.
//
// Wells Fargo uses a single "Transaction history" table with parallel
// Deposits/Credits and Withdrawals/Debits columns plus an ending daily
// balance that only prints on the last transaction of each day:
//
//	Transaction history
//	Date  Description                                Deposits/  Withdrawals/  Ending daily
//	                                                 Credits    Debits        balance
//	1/16  Recurring Payment authorized on 01/14 Netflix.Com
//	      Netflix.Com CA S584013912345678 Card 1234       15.99      2,313.32
//
// Because the two amount columns collapse to the same position in
// extracted text, the column alone cannot tell deposit from withdrawal;
// description keywords break the tie.
type WellsFargoParser struct{}

func (p *WellsFargoParser) Institution() models.Institution { return models.InstitutionWellsFargo }
func (p *WellsFargoParser) InstitutionName() string         { return "Wells Fargo" }

var wellsFargoSignatureMarkers = []string{
	"Wells Fargo", "WELLS FARGO", "wellsfargo.com",
}

var wellsFargoSectionHeaders = []string{
	"transaction history",
	"transaction detail",
	"activity detail",
}

var wellsFargoTerminators = []string{
	"ending balance on",
	"totals",
	"the ending daily balance",
	"monthly service fee summary",
}

var wellsFargoMerchantPrefixes = []string{
	"Recurring Payment authorized on",
	"Purchase authorized on",
	"Purchase with Cash Back",
	"Recurring Transfer to",
	"Online Transfer to",
	"Online Transfer From",
	"Bill Pay",
	"ATM Withdrawal authorized on",
	"eDeposit in Branch/Store",
	"Direct Deposit",
	"POS Purchase",
	"POS",
}

// wellsFargoCreditHints supplement the shared credit keywords with Wells
// Fargo specific phrasing.
var wellsFargoCreditHints = []string{
	"edeposit", "direct deposit", "online transfer from", "mobile deposit",
	"interest payment", "refund",
}

func (p *WellsFargoParser) Parse(text, sourceFile string) (*models.ParsedStatement, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	if !containsAny(text, wellsFargoSignatureMarkers) {
		return nil, fmt.Errorf("wells fargo: %w", ErrInstitutionMismatch)
	}

	stmt := newStatement(models.InstitutionWellsFargo, text, sourceFile)

	inSection := false
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)

		if wfIsSectionHeader(lower) {
			inSection = true
			continue
		}
		if inSection && wfTerminates(lower) {
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
			// Wells Fargo wraps long descriptions: the date line may carry
			// no amount, with the remainder and amounts on the next line.
			if i+1 < len(lines) {
				joined := trimmed + " " + strings.TrimSpace(lines[i+1])
				if jcl, jok := decomposeLine(joined); jok {
					cl, ok = jcl, true
					i++
				}
			}
			if !ok {
				recordParseError(stmt, trimmed, "could not decompose line")
				continue
			}
		}

		dir := wfDirection(cl.desc)
		// Two trailing tokens are amount + ending daily balance.
		amount, balance, _ := pickAmounts(cl.amounts, true)
		stmt.Transactions = append(stmt.Transactions,
			buildTransaction(cl, dir, amount, balance, stmt, wellsFargoMerchantPrefixes))
	}

	if len(stmt.Transactions) == 0 {
		stmt.Transactions = fallbackScan(text, func(cl candidateLine) models.Transaction {
			amount, balance, _ := pickAmounts(cl.amounts, true)
			return buildTransaction(cl, wfDirection(cl.desc), amount, balance, stmt, wellsFargoMerchantPrefixes)
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

func wfDirection(desc string) models.Direction {
	lower := strings.ToLower(desc)
	for _, hint := range wellsFargoCreditHints {
		if strings.Contains(lower, hint) {
			return models.Credit
		}
	}
	if looksLikeCredit(desc) && !looksLikeDebit(desc) {
		return models.Credit
	}
	return models.Debit
}

func wfIsSectionHeader(lowerLine string) bool {
	for _, h := range wellsFargoSectionHeaders {
		if strings.HasPrefix(lowerLine, h) {
			return true
		}
	}
	return false
}

func wfTerminates(lowerLine string) bool {
	for _, t := range wellsFargoTerminators {
		if strings.HasPrefix(lowerLine, t) {
			return true
		}
	}
	return false
}
