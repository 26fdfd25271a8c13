// Package writer renders pipeline outputs to CSV for spreadsheet
// analysis.
package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/insightdelivered/recurring-radar/internal/models"
)

// TransactionCSV writes the merged transaction history.
type TransactionCSV struct{}

// WriteToFile writes transactions to a CSV file at the given path.
func (w *TransactionCSV) WriteToFile(path string, txns []models.Transaction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file %q: %w", path, err)
	}
	defer f.Close()
	return w.Write(f, txns)
}

// Write writes transactions in CSV format to out.
func (w *TransactionCSV) Write(out io.Writer, txns []models.Transaction) error {
	cw := csv.NewWriter(out)
	defer cw.Flush()

	header := []string{"Date", "Merchant", "Description", "Direction", "Amount"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, t := range txns {
		row := []string{
			t.Date.Format("2006-01-02"),
			t.Merchant,
			t.RawDescription,
			string(t.Direction),
			formatAmount(t.Amount),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	return nil
}

// RecurringCSV writes detected recurring charges.
type RecurringCSV struct{}

// WriteToFile writes recurring charges to a CSV file at the given path.
func (w *RecurringCSV) WriteToFile(path string, charges []models.RecurringCharge) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file %q: %w", path, err)
	}
	defer f.Close()
	return w.Write(f, charges)
}

// Write writes recurring charges in CSV format to out.
func (w *RecurringCSV) Write(out io.Writer, charges []models.RecurringCharge) error {
	cw := csv.NewWriter(out)
	defer cw.Flush()

	header := []string{
		"Merchant", "Periodicity", "Avg Amount", "Confidence",
		"Transactions", "Next Due", "Active",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, ch := range charges {
		nextDue := ""
		if ch.NextDue != nil {
			nextDue = ch.NextDue.Format("2006-01-02")
		}
		row := []string{
			ch.DisplayMerchant,
			string(ch.Periodicity),
			formatAmount(ch.AvgAmount),
			strconv.FormatFloat(ch.Confidence, 'f', 0, 64),
			strconv.Itoa(len(ch.Transactions)),
			nextDue,
			strconv.FormatBool(ch.Active),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	return nil
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
