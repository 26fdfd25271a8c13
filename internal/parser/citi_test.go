package parser

import (
	"testing"
	"time"

	"github.com/insightdelivered/recurring-radar/internal/models"
)

const citiStatement = `Citibank Client Services
Account number: 9988776655
January 1, 2024 through January 31, 2024

Account Activity
01/12 SPOTIFY USA 877-778-1161 NY 10.99
01/20 AUTOPAY PAYMENT-THANK YOU -200.00
01/25 LA FITNESS MEMBERSHIP 34.99
Total Account Activity $45.98
`

func TestCitiParse(t *testing.T) {
	stmt, err := (&CitiParser{}).Parse(citiStatement, "citi-jan.pdf")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if stmt.Institution != models.InstitutionCiti {
		t.Errorf("Institution = %q", stmt.Institution)
	}
	if len(stmt.Transactions) != 3 {
		t.Fatalf("got %d transactions, want 3", len(stmt.Transactions))
	}

	spotify := stmt.Transactions[0]
	if !spotify.Date.Equal(date(2024, time.January, 12)) {
		t.Errorf("date = %v, want 2024-01-12", spotify.Date)
	}
	if spotify.Merchant != "SPOTIFY" || spotify.Amount != 10.99 || spotify.Direction != models.Debit {
		t.Errorf("spotify = %q %v %q", spotify.Merchant, spotify.Amount, spotify.Direction)
	}

	payment := stmt.Transactions[1]
	if payment.Direction != models.Credit || payment.Amount != 200.00 {
		t.Errorf("payment = %v %q, want 200.00 credit", payment.Amount, payment.Direction)
	}

	gym := stmt.Transactions[2]
	if gym.Merchant != "LA FITNESS" || gym.Direction != models.Debit {
		t.Errorf("gym = %q %q, want LA FITNESS debit", gym.Merchant, gym.Direction)
	}
}
