package detector

import (
	"testing"

	"github.com/insightdelivered/recurring-radar/internal/models"
)

func TestClassifyInterval(t *testing.T) {
	tests := []struct {
		days float64
		want models.Periodicity
	}{
		{5, models.Weekly},
		{7, models.Weekly},
		{9, models.Weekly},
		{10, models.Irregular}, // gap between weekly and biweekly bands
		{14, models.Biweekly},
		{20, models.Irregular},
		{25, models.Monthly},
		{30.4, models.Monthly},
		{35, models.Monthly},
		{91, models.Quarterly},
		{182, models.Semiannual},
		{365, models.Annual},
		{400, models.Irregular},
		{0, models.Irregular},
	}

	for _, tt := range tests {
		if got := classifyInterval(tt.days); got != tt.want {
			t.Errorf("classifyInterval(%v) = %q, want %q", tt.days, got, tt.want)
		}
	}
}

func TestMatchesKnownBiller(t *testing.T) {
	tests := []struct {
		merchant string
		amount   float64
		want     bool
	}{
		{"NETFLIX", 15.99, true},
		{"NETFLIX", 16.50, true}, // within 10% of a price point
		{"NETFLIX", 50.00, false},
		{"SPOTIFY", 10.99, true},
		{"CORNER COFFEE", 15.99, false},
	}

	for _, tt := range tests {
		if got := matchesKnownBiller(tt.merchant, tt.amount); got != tt.want {
			t.Errorf("matchesKnownBiller(%q, %v) = %v, want %v", tt.merchant, tt.amount, got, tt.want)
		}
	}
}
