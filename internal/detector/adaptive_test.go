package detector

import (
	"testing"
	"time"

	"github.com/insightdelivered/recurring-radar/internal/models"
)

func TestAdaptiveUtilityToleratesWideSwings(t *testing.T) {
	// A usage-billed utility swinging 80 -> 120 is a 33% spread: past the
	// baseline's flat tolerance, comfortably inside the utility band.
	txns := []models.Transaction{
		debit("1", date(2024, time.January, 10), "CITY POWER & LIGHT", "City Power & Light", 80.00),
		debit("2", date(2024, time.February, 10), "CITY POWER & LIGHT", "City Power & Light", 120.00),
	}

	if charges := New().Detect(txns); len(charges) != 0 {
		t.Fatalf("baseline: got %d charges, want 0", len(charges))
	}

	a := NewAdaptive()
	a.Now = fixedNow(date(2024, time.February, 15))
	charges := a.Detect(txns)
	if len(charges) != 1 {
		t.Fatalf("adaptive: got %d charges, want 1", len(charges))
	}
	c := charges[0]
	if c.Periodicity != models.Monthly {
		t.Errorf("periodicity = %q, want monthly", c.Periodicity)
	}
	for _, tx := range c.Transactions {
		if tx.Category != string(CategoryUtility) {
			t.Errorf("transaction category = %q, want %q", tx.Category, CategoryUtility)
		}
	}
}

func TestAdaptiveSubscriptionTightensTolerance(t *testing.T) {
	// 15.99 -> 18.99 is a 15.8% spread: fine for the baseline, too loose for
	// a fixed-price subscription.
	txns := []models.Transaction{
		debit("1", date(2024, time.January, 15), "NETFLIX", "Netflix.Com", 15.99),
		debit("2", date(2024, time.February, 15), "NETFLIX", "Netflix.Com", 18.99),
	}

	d := New()
	d.Now = fixedNow(date(2024, time.February, 20))
	if charges := d.Detect(txns); len(charges) != 1 {
		t.Fatalf("baseline: got %d charges, want 1", len(charges))
	}

	a := NewAdaptive()
	a.Now = fixedNow(date(2024, time.February, 20))
	if charges := a.Detect(txns); len(charges) != 0 {
		t.Fatalf("adaptive: got %d charges, want 0 (subscription tolerance is 5%%)", len(charges))
	}
}

func TestAdaptiveLeavesUnknownCategoryAlone(t *testing.T) {
	txns := []models.Transaction{
		debit("1", date(2024, time.January, 8), "CORNER COFFEE", "Corner Coffee", 25.00),
		debit("2", date(2024, time.January, 15), "CORNER COFFEE", "Corner Coffee", 25.00),
	}
	a := NewAdaptive()
	a.Now = fixedNow(date(2024, time.January, 16))
	charges := a.Detect(txns)
	if len(charges) != 1 {
		t.Fatalf("got %d charges, want 1", len(charges))
	}
	for _, tx := range charges[0].Transactions {
		if tx.Category != "" {
			t.Errorf("unknown-category transaction annotated as %q", tx.Category)
		}
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		merchant string
		want     Category
	}{
		{"NETFLIX", CategorySubscription},
		{"SPOTIFY", CategorySubscription},
		{"ADOBE", CategorySoftware},
		{"NORDVPN", CategorySoftware},
		{"PLANET FITNESS", CategoryMembership},
		{"GEICO", CategoryInsurance},
		{"VERIZON", CategoryTelecom},
		{"CITY POWER & LIGHT", CategoryUtility},
		{"METRO WATER DISTRICT", CategoryUtility},
		{"CORNER COFFEE", CategoryUnknown},
		{"", CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.merchant, func(t *testing.T) {
			if got := Categorize(tt.merchant); got != tt.want {
				t.Errorf("Categorize(%q) = %q, want %q", tt.merchant, got, tt.want)
			}
		})
	}
}
