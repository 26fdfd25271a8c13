package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/insightdelivered/recurring-radar/internal/api"
	"github.com/insightdelivered/recurring-radar/internal/dedup"
	"github.com/insightdelivered/recurring-radar/internal/detector"
	"github.com/insightdelivered/recurring-radar/internal/extractor"
	"github.com/insightdelivered/recurring-radar/internal/logger"
	"github.com/insightdelivered/recurring-radar/internal/models"
	"github.com/insightdelivered/recurring-radar/internal/parser"
	"github.com/insightdelivered/recurring-radar/internal/writer"
)

const version = "1.2.0"

func main() {
	instFlag := flag.String("institution", "", "Institution: chase, bofa, wellsfargo, capitalone, citi (auto-detected if omitted)")
	detectorFlag := flag.String("detector", "adaptive", "Detection tier: baseline or adaptive")
	csvFlag := flag.String("csv", "", "Write detected recurring charges to this CSV file")
	txnCSVFlag := flag.String("transactions-csv", "", "Write the merged transaction history to this CSV file")
	serveFlag := flag.String("serve", "", "Start the HTTP API on this address (e.g. :8080) instead of running the CLI pipeline")
	versionFlag := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Recurring Radar
by Insight Delivered

Finds forgotten recurring charges in bank and card statements. Feed it
one or more statement files (extracted text or PDF); it parses them,
merges overlapping uploads, and reports detected subscriptions with a
confidence score and projected next charge.

Usage:
  recurring-radar [flags] <statement.txt|statement.pdf> [more files ...]
  recurring-radar -serve :8080

Flags:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("recurring-radar v%s\n", version)
		return
	}

	log := logger.New()

	if *serveFlag != "" {
		h := api.NewHandler(log)
		app := fiber.New(fiber.Config{AppName: "recurring-radar"})
		h.Register(app)
		log.Info().Str("addr", *serveFlag).Msg("serving API")
		if err := app.Listen(*serveFlag); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	statements := parseAll(flag.Args(), *instFlag)
	if len(statements) == 0 {
		log.Fatal().Msg("no statements could be parsed")
	}
	for _, stmt := range statements {
		log.Info().
			Str("file", stmt.SourceFile).
			Str("institution", string(stmt.Institution)).
			Str("period", stmt.PeriodKey()).
			Int("transactions", len(stmt.Transactions)).
			Int("parseErrors", len(stmt.ParseErrors)).
			Msg("parsed statement")
	}

	merged := dedup.MergeOverlapping(statements)
	txns := dedup.Flatten(merged)
	log.Info().
		Int("statements", len(merged)).
		Int("transactions", len(txns)).
		Msg("merged statements")

	var charges []models.RecurringCharge
	if *detectorFlag == "baseline" {
		charges = detector.New().Detect(txns)
	} else {
		charges = detector.NewAdaptive().Detect(txns)
	}

	printReport(charges)

	if *csvFlag != "" {
		w := &writer.RecurringCSV{}
		if err := w.WriteToFile(*csvFlag, charges); err != nil {
			log.Fatal().Err(err).Msg("CSV write failed")
		}
		log.Info().Str("file", *csvFlag).Msg("wrote recurring charges")
	}
	if *txnCSVFlag != "" {
		w := &writer.TransactionCSV{}
		if err := w.WriteToFile(*txnCSVFlag, txns); err != nil {
			log.Fatal().Err(err).Msg("CSV write failed")
		}
		log.Info().Str("file", *txnCSVFlag).Msg("wrote transactions")
	}
}

// parseAll parses the input files concurrently. Each parser invocation is
// pure and stateless; results join in input order so downstream merging
// stays deterministic.
func parseAll(paths []string, institution string) []*models.ParsedStatement {
	log := logger.New()
	results := make([]*models.ParsedStatement, len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()

			text, err := extractor.Load(path)
			if err != nil {
				log.Error().Err(err).Str("file", path).Msg("could not load statement")
				return
			}

			var stmt *models.ParsedStatement
			if institution != "" {
				p, perr := parser.New(models.Institution(strings.ToLower(institution)))
				if perr != nil {
					log.Error().Err(perr).Msg("unknown institution")
					return
				}
				stmt, err = p.Parse(text, path)
			} else {
				stmt, err = parser.ParseAny(text, path)
			}
			if err != nil {
				log.Error().Err(err).Str("file", path).Msg("parse failed")
				return
			}
			results[i] = stmt
		}(i, path)
	}
	wg.Wait()

	var statements []*models.ParsedStatement
	for _, s := range results {
		if s != nil {
			statements = append(statements, s)
		}
	}
	return statements
}

func printReport(charges []models.RecurringCharge) {
	if len(charges) == 0 {
		fmt.Println("No recurring charges detected.")
		return
	}

	active := 0
	var monthlyTotal float64
	for _, ch := range charges {
		if ch.Active {
			active++
			monthlyTotal += monthlyEquivalent(ch)
		}
	}

	fmt.Printf("Detected %d recurring charge(s), %d active (≈ $%.2f/month):\n\n", len(charges), active, monthlyTotal)
	for _, ch := range charges {
		status := "active"
		if !ch.Active {
			status = "inactive"
		}
		nextDue := "-"
		if ch.NextDue != nil {
			nextDue = ch.NextDue.Format("Jan 2, 2006")
		}
		fmt.Printf("  %-32s %-10s $%8.2f  conf %3.0f  next %-12s  [%s, %d txns]\n",
			truncate(ch.DisplayMerchant, 32), ch.Periodicity, ch.AvgAmount,
			ch.Confidence, nextDue, status, len(ch.Transactions))
	}
}

// monthlyEquivalent converts a charge's average amount to a per-month
// figure for the summary line.
func monthlyEquivalent(ch models.RecurringCharge) float64 {
	switch ch.Periodicity {
	case models.Weekly:
		return ch.AvgAmount * 52 / 12
	case models.Biweekly:
		return ch.AvgAmount * 26 / 12
	case models.Monthly:
		return ch.AvgAmount
	case models.Quarterly:
		return ch.AvgAmount / 3
	case models.Semiannual:
		return ch.AvgAmount / 6
	case models.Annual:
		return ch.AvgAmount / 12
	}
	if ch.IntervalDays > 0 {
		return ch.AvgAmount * 30 / ch.IntervalDays
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
