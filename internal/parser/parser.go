package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/insightdelivered/recurring-radar/internal/models"
)

// Parser converts one statement's raw extracted text into a structured
// statement. Implementations never fail on a single bad line: lines that
// cannot be decomposed are recorded in ParsedStatement.ParseErrors and
// skipped.
type Parser interface {
	// Parse takes the statement text (reading-order line breaks preserved)
	// and the source file name, and returns structured statement data.
	Parse(text, sourceFile string) (*models.ParsedStatement, error)
	// Institution returns the institution tag this parser targets.
	Institution() models.Institution
	// InstitutionName returns the human-readable institution name.
	InstitutionName() string
}

// ErrInstitutionMismatch is returned when the text lacks an institution's
// characteristic markers. The caller should try another parser.
var ErrInstitutionMismatch = errors.New("statement text does not match institution layout")

// ErrEmptyInput is returned for structurally invalid (empty) input.
var ErrEmptyInput = errors.New("statement text is empty")

// registry maps each institution tag to its parser constructor.
var registry = map[models.Institution]func() Parser{
	models.InstitutionChase:         func() Parser { return &ChaseParser{} },
	models.InstitutionBankOfAmerica: func() Parser { return &BankOfAmericaParser{} },
	models.InstitutionWellsFargo:    func() Parser { return &WellsFargoParser{} },
	models.InstitutionCapitalOne:    func() Parser { return &CapitalOneParser{} },
	models.InstitutionCiti:          func() Parser { return &CitiParser{} },
}

// New returns the parser for the given institution.
func New(inst models.Institution) (Parser, error) {
	ctor, ok := registry[inst]
	if !ok {
		return nil, fmt.Errorf("unsupported institution: %q", inst)
	}
	return ctor(), nil
}

// signatures are the characteristic markers used for auto-detection,
// checked in order so that more distinctive markers win.
var signatures = []struct {
	inst    models.Institution
	markers []string
}{
	{models.InstitutionChase, []string{"JPMorgan Chase", "Chase.com", "CHASE.COM", "Chase Total Checking", "JPMORGAN CHASE"}},
	{models.InstitutionBankOfAmerica, []string{"Bank of America", "BANK OF AMERICA", "bankofamerica.com", "CHECKCARD"}},
	{models.InstitutionWellsFargo, []string{"Wells Fargo", "WELLS FARGO", "wellsfargo.com"}},
	{models.InstitutionCapitalOne, []string{"Capital One", "CAPITAL ONE", "capitalone.com"}},
	{models.InstitutionCiti, []string{"Citibank", "CITIBANK", "Citi Card", "citi.com", "CITI "}},
}

// AutoDetect tries to identify the institution from the statement text.
func AutoDetect(text string) (models.Institution, error) {
	for _, sig := range signatures {
		for _, marker := range sig.markers {
			if containsIgnoreCase(text, marker) {
				return sig.inst, nil
			}
		}
	}
	return "", fmt.Errorf("could not auto-detect institution from statement content")
}

// ParseAny auto-detects the institution and parses the text. When detection
// fails it falls back to trying every registered parser in turn.
func ParseAny(text, sourceFile string) (*models.ParsedStatement, error) {
	if inst, err := AutoDetect(text); err == nil {
		p, err := New(inst)
		if err != nil {
			return nil, err
		}
		return p.Parse(text, sourceFile)
	}

	// Fixed order keeps fallback behavior deterministic.
	for _, sig := range signatures {
		p, _ := New(sig.inst)
		stmt, err := p.Parse(text, sourceFile)
		if err == nil && len(stmt.Transactions) > 0 {
			return stmt, nil
		}
	}
	return nil, fmt.Errorf("no parser recognized the statement: %w", ErrInstitutionMismatch)
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if containsIgnoreCase(text, needle) {
			return true
		}
	}
	return false
}

func containsIgnoreCase(text, substr string) bool {
	return substr != "" && strings.Contains(strings.ToLower(text), strings.ToLower(substr))
}
