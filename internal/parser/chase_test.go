package parser

import (
	"errors"
	"testing"
	"time"

	"github.com/insightdelivered/recurring-radar/internal/models"
)

const chaseStatement = `JPMorgan Chase Bank, N.A.
Account Number: 000001234567
January 5, 2024 through February 4, 2024

DEPOSITS AND ADDITIONS
01/10 Direct Dep Acme Payroll 2,150.00
TOTAL DEPOSITS AND ADDITIONS $2,150.00

ATM & DEBIT CARD WITHDRAWALS
01/15 Card Purchase 01/14 Netflix.Com Netflix.Com CA Card 1234 15.99
01/18 Card Purchase With Pin 01/18 Whole Foods Mkt Card 1234 84.12
TOTAL ATM & DEBIT CARD WITHDRAWALS $100.11

ELECTRONIC WITHDRAWALS
01/20 Online Payment To Progressive Insurance 120.50
TOTAL ELECTRONIC WITHDRAWALS $120.50
`

func TestChaseParse(t *testing.T) {
	p := &ChaseParser{}
	stmt, err := p.Parse(chaseStatement, "chase-jan.pdf")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if stmt.Institution != models.InstitutionChase {
		t.Errorf("Institution = %q, want %q", stmt.Institution, models.InstitutionChase)
	}
	if got := stmt.PeriodStart; !got.Equal(date(2024, time.January, 5)) {
		t.Errorf("PeriodStart = %v", got)
	}
	if got := stmt.PeriodEnd; !got.Equal(date(2024, time.February, 4)) {
		t.Errorf("PeriodEnd = %v", got)
	}
	if stmt.AccountNumber != "000001234567" {
		t.Errorf("AccountNumber = %q", stmt.AccountNumber)
	}

	if len(stmt.Transactions) != 4 {
		t.Fatalf("got %d transactions, want 4", len(stmt.Transactions))
	}

	// Sorted by date; summary and total lines skipped.
	want := []struct {
		date     time.Time
		merchant string
		amount   float64
		dir      models.Direction
	}{
		{date(2024, time.January, 10), "", 2150.00, models.Credit},
		{date(2024, time.January, 15), "NETFLIX", 15.99, models.Debit},
		{date(2024, time.January, 18), "", 84.12, models.Debit},
		{date(2024, time.January, 20), "PROGRESSIVE", 120.50, models.Debit},
	}
	for i, w := range want {
		tx := stmt.Transactions[i]
		if !tx.Date.Equal(w.date) {
			t.Errorf("txn %d date = %v, want %v", i, tx.Date, w.date)
		}
		if tx.Amount != w.amount {
			t.Errorf("txn %d amount = %v, want %v", i, tx.Amount, w.amount)
		}
		if tx.Direction != w.dir {
			t.Errorf("txn %d direction = %q, want %q", i, tx.Direction, w.dir)
		}
		if w.merchant != "" && tx.Merchant != w.merchant {
			t.Errorf("txn %d merchant = %q, want %q", i, tx.Merchant, w.merchant)
		}
		if tx.Amount < 0 {
			t.Errorf("txn %d amount is negative", i)
		}
		if tx.StatementID != stmt.ID {
			t.Errorf("txn %d StatementID = %q, want %q", i, tx.StatementID, stmt.ID)
		}
		if tx.ID == "" {
			t.Errorf("txn %d has no ID", i)
		}
	}
}

func TestChaseParseYearBoundary(t *testing.T) {
	text := `JPMorgan Chase Bank, N.A.
December 5, 2023 through January 4, 2024

ATM & DEBIT CARD WITHDRAWALS
12/28 Card Purchase 12/27 Spotify USA 10.99
01/02 Card Purchase 01/01 Netflix.Com Netflix.Com CA Card 1234 15.99
TOTAL ATM & DEBIT CARD WITHDRAWALS $26.98
`
	stmt, err := (&ChaseParser{}).Parse(text, "chase-dec.pdf")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stmt.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(stmt.Transactions))
	}
	if got := stmt.Transactions[0].Date; !got.Equal(date(2023, time.December, 28)) {
		t.Errorf("december txn date = %v, want 2023-12-28", got)
	}
	if got := stmt.Transactions[1].Date; !got.Equal(date(2024, time.January, 2)) {
		t.Errorf("january txn date = %v, want 2024-01-02 (year corrected forward)", got)
	}
}

func TestChaseParseWrongInstitution(t *testing.T) {
	_, err := (&ChaseParser{}).Parse("Wells Fargo Everyday Checking\n1/15 Something 10.00", "x.pdf")
	if !errors.Is(err, ErrInstitutionMismatch) {
		t.Fatalf("err = %v, want ErrInstitutionMismatch", err)
	}
}

func TestChaseParseEmpty(t *testing.T) {
	_, err := (&ChaseParser{}).Parse("   \n  ", "x.pdf")
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
}

func TestChaseParseNoTransactions(t *testing.T) {
	stmt, err := (&ChaseParser{}).Parse("JPMorgan Chase Bank, N.A.\nNothing to see here", "x.pdf")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stmt.Transactions) != 0 {
		t.Fatalf("got %d transactions, want 0", len(stmt.Transactions))
	}
	if len(stmt.ParseErrors) == 0 {
		t.Error("expected a parse note for a statement with no transactions")
	}
}
