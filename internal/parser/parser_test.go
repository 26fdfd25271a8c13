package parser

import (
	"errors"
	"testing"

	"github.com/insightdelivered/recurring-radar/internal/models"
)

func TestNew(t *testing.T) {
	for inst := range registry {
		p, err := New(inst)
		if err != nil {
			t.Fatalf("New(%q): %v", inst, err)
		}
		if p.Institution() != inst {
			t.Errorf("New(%q).Institution() = %q", inst, p.Institution())
		}
		if p.InstitutionName() == "" {
			t.Errorf("New(%q) has empty institution name", inst)
		}
	}

	if _, err := New(models.Institution("monopoly-bank")); err == nil {
		t.Error("New with unknown institution should fail")
	}
}

func TestAutoDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.Institution
	}{
		{"chase", "JPMorgan Chase Bank, N.A.\nstatement", models.InstitutionChase},
		{"bofa", "Bank of America\nYour checking account", models.InstitutionBankOfAmerica},
		{"wells fargo", "Wells Fargo Everyday Checking", models.InstitutionWellsFargo},
		{"capital one", "Capital One Quicksilver Card", models.InstitutionCapitalOne},
		{"citi", "Citibank Client Services", models.InstitutionCiti},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AutoDetect(tt.text)
			if err != nil {
				t.Fatalf("AutoDetect: %v", err)
			}
			if got != tt.want {
				t.Errorf("AutoDetect = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := AutoDetect("Some Credit Union monthly summary"); err == nil {
			t.Error("expected detection failure")
		}
	})
}

func TestParseAny(t *testing.T) {
	stmt, err := ParseAny(chaseStatement, "chase-jan.pdf")
	if err != nil {
		t.Fatalf("ParseAny: %v", err)
	}
	if stmt.Institution != models.InstitutionChase {
		t.Errorf("Institution = %q, want chase", stmt.Institution)
	}
	if len(stmt.Transactions) == 0 {
		t.Error("no transactions parsed")
	}
}

func TestParseAnyUnrecognized(t *testing.T) {
	_, err := ParseAny("totally unrelated text", "x.txt")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrInstitutionMismatch) {
		t.Errorf("err = %v, want ErrInstitutionMismatch in chain", err)
	}
}
