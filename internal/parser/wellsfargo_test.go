package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/insightdelivered/recurring-radar/internal/models"
)

const wellsFargoStatement = `Wells Fargo Everyday Checking
Account number: 1234567890
January 1, 2024 - January 31, 2024

Transaction history
1/16 Recurring Payment authorized on 01/14 Netflix.Com
Netflix.Com CA S584013912345678 Card 1234 15.99 2,313.32
1/20 Purchase authorized on 01/19 Blue Bottle Coffee Oakland CA Card 1234 8.75 2,304.57
1/25 Online Transfer From Savings 200.00 2,504.57
Ending balance on 1/31 2,504.57
`

func TestWellsFargoParse(t *testing.T) {
	stmt, err := (&WellsFargoParser{}).Parse(wellsFargoStatement, "wf-jan.pdf")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if stmt.Institution != models.InstitutionWellsFargo {
		t.Errorf("Institution = %q", stmt.Institution)
	}
	if stmt.AccountNumber != "1234567890" {
		t.Errorf("AccountNumber = %q", stmt.AccountNumber)
	}
	if len(stmt.Transactions) != 3 {
		t.Fatalf("got %d transactions, want 3", len(stmt.Transactions))
	}

	// Wrapped description line is joined with its continuation before
	// decomposition: date on one line, amounts on the next.
	netflix := stmt.Transactions[0]
	if !netflix.Date.Equal(date(2024, time.January, 16)) {
		t.Errorf("date = %v, want 2024-01-16", netflix.Date)
	}
	if netflix.Merchant != "NETFLIX" {
		t.Errorf("merchant = %q, want NETFLIX", netflix.Merchant)
	}
	if netflix.Amount != 15.99 {
		t.Errorf("amount = %v, want 15.99", netflix.Amount)
	}
	if netflix.Balance != 2313.32 {
		t.Errorf("balance = %v, want 2313.32 (ending daily balance column)", netflix.Balance)
	}
	if netflix.Direction != models.Debit {
		t.Errorf("direction = %q, want debit", netflix.Direction)
	}
	if strings.Contains(netflix.Merchant, "RECURRING") {
		t.Errorf("merchant %q still carries boilerplate", netflix.Merchant)
	}

	coffee := stmt.Transactions[1]
	if coffee.Amount != 8.75 || coffee.Balance != 2304.57 {
		t.Errorf("coffee amount/balance = %v/%v, want 8.75/2304.57", coffee.Amount, coffee.Balance)
	}
	if coffee.Direction != models.Debit {
		t.Errorf("coffee direction = %q, want debit", coffee.Direction)
	}

	// Parallel columns: the transfer-from line resolves to credit by keyword.
	transfer := stmt.Transactions[2]
	if transfer.Direction != models.Credit {
		t.Errorf("transfer direction = %q, want credit", transfer.Direction)
	}
	if transfer.Amount != 200.00 {
		t.Errorf("transfer amount = %v, want 200.00", transfer.Amount)
	}
}

func TestWellsFargoLinesOutsideSectionIgnored(t *testing.T) {
	text := `Wells Fargo Everyday Checking
1/02 Stray line before any section 99.99

Transaction history
1/16 Purchase authorized on 01/15 Corner Market Card 1234 12.50 500.00
Ending balance on 1/31 500.00
1/20 Stray line after the section closed 42.00
`
	stmt, err := (&WellsFargoParser{}).Parse(text, "wf.pdf")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stmt.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(stmt.Transactions))
	}
	if stmt.Transactions[0].Amount != 12.50 {
		t.Errorf("amount = %v, want 12.50", stmt.Transactions[0].Amount)
	}
}
