// Package api exposes the pipeline over HTTP for the companion UI. The
// core stays I/O-free; this layer holds uploaded statements in memory and
// re-runs detection in full on each request.
package api

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/recurring-radar/internal/dedup"
	"github.com/insightdelivered/recurring-radar/internal/detector"
	"github.com/insightdelivered/recurring-radar/internal/models"
	"github.com/insightdelivered/recurring-radar/internal/parser"
)

const version = "1.2.0"

// Handler holds the HTTP handlers and the in-memory statement store.
type Handler struct {
	mu         sync.Mutex
	statements []*models.ParsedStatement
	log        zerolog.Logger
}

// NewHandler returns a Handler logging through log.
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{log: log}
}

// Register wires the API routes onto the fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/api/health", h.handleHealth)
	app.Post("/api/statements", h.handleUpload)
	app.Get("/api/statements", h.handleListStatements)
	app.Get("/api/transactions", h.handleTransactions)
	app.Get("/api/recurring", h.handleRecurring)
}

func (h *Handler) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": version,
	})
}

// uploadRequest is the JSON body for text uploads. Multipart uploads with
// a "file" field are accepted too.
type uploadRequest struct {
	Text        string `json:"text"`
	SourceFile  string `json:"sourceFile"`
	Institution string `json:"institution"`
}

// uploadResponse summarizes one parsed statement.
type uploadResponse struct {
	Success          bool     `json:"success"`
	Error            string   `json:"error,omitempty"`
	StatementID      string   `json:"statementId,omitempty"`
	Institution      string   `json:"institution,omitempty"`
	Period           string   `json:"period,omitempty"`
	TransactionCount int      `json:"transactionCount"`
	ParseErrors      []string `json:"parseErrors,omitempty"`
}

func (h *Handler) handleUpload(c *fiber.Ctx) error {
	text, sourceFile, institution, err := readUpload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(uploadResponse{Error: err.Error()})
	}

	var stmt *models.ParsedStatement
	if institution != "" {
		p, err := parser.New(models.Institution(strings.ToLower(institution)))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(uploadResponse{Error: err.Error()})
		}
		stmt, err = p.Parse(text, sourceFile)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(uploadResponse{Error: err.Error()})
		}
	} else {
		stmt, err = parser.ParseAny(text, sourceFile)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(uploadResponse{Error: err.Error()})
		}
	}

	h.mu.Lock()
	h.statements = append(h.statements, stmt)
	h.mu.Unlock()

	h.log.Info().
		Str("statement", stmt.ID).
		Str("institution", string(stmt.Institution)).
		Int("transactions", len(stmt.Transactions)).
		Int("parseErrors", len(stmt.ParseErrors)).
		Msg("statement uploaded")

	return c.JSON(uploadResponse{
		Success:          true,
		StatementID:      stmt.ID,
		Institution:      string(stmt.Institution),
		Period:           stmt.PeriodKey(),
		TransactionCount: len(stmt.Transactions),
		ParseErrors:      stmt.ParseErrors,
	})
}

func readUpload(c *fiber.Ctx) (text, sourceFile, institution string, err error) {
	if fh, ferr := c.FormFile("file"); ferr == nil {
		f, oerr := fh.Open()
		if oerr != nil {
			return "", "", "", fmt.Errorf("open upload: %w", oerr)
		}
		defer f.Close()
		buf, rerr := io.ReadAll(f)
		if rerr != nil {
			return "", "", "", fmt.Errorf("read upload: %w", rerr)
		}
		return string(buf), fh.Filename, c.FormValue("institution"), nil
	}

	var req uploadRequest
	if perr := c.BodyParser(&req); perr != nil {
		return "", "", "", fmt.Errorf("expected a multipart 'file' field or a JSON body with 'text'")
	}
	if strings.TrimSpace(req.Text) == "" {
		return "", "", "", fmt.Errorf("statement text is empty")
	}
	return req.Text, req.SourceFile, req.Institution, nil
}

func (h *Handler) handleListStatements(c *fiber.Ctx) error {
	h.mu.Lock()
	merged := dedup.MergeOverlapping(h.statements)
	h.mu.Unlock()
	return c.JSON(merged)
}

func (h *Handler) handleTransactions(c *fiber.Ctx) error {
	h.mu.Lock()
	merged := dedup.MergeOverlapping(h.statements)
	h.mu.Unlock()

	txns := dedup.Flatten(merged)
	if txns == nil {
		txns = []models.Transaction{}
	}
	return c.JSON(txns)
}

func (h *Handler) handleRecurring(c *fiber.Ctx) error {
	h.mu.Lock()
	merged := dedup.MergeOverlapping(h.statements)
	h.mu.Unlock()

	txns := dedup.Flatten(merged)

	var charges []models.RecurringCharge
	if c.Query("detector") == "baseline" {
		charges = detector.New().Detect(txns)
	} else {
		charges = detector.NewAdaptive().Detect(txns)
	}
	if charges == nil {
		charges = []models.RecurringCharge{}
	}

	h.log.Info().
		Int("transactions", len(txns)).
		Int("recurring", len(charges)).
		Msg("detection run")

	return c.JSON(charges)
}
