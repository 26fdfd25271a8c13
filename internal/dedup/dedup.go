// Package dedup unifies transactions across possibly-overlapping statement
// uploads. Re-uploaded or overlapping statements must not feed duplicate
// evidence into recurrence detection.
package dedup

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/insightdelivered/recurring-radar/internal/models"
)

// descHashLen bounds how much of the description participates in the hash,
// so that continuation-line noise does not split logical duplicates.
const descHashLen = 40

// Hash computes the dedup hash for a transaction: a pure function of
// (date, normalized merchant, rounded amount, direction, truncated
// description, account name). Identical logical transactions always hash
// identically.
func Hash(t models.Transaction, accountName string) string {
	desc := strings.ToUpper(strings.TrimSpace(t.RawDescription))
	if len(desc) > descHashLen {
		desc = desc[:descHashLen]
	}
	cents := int64(math.Round(t.Amount * 100))
	key := fmt.Sprintf("%s|%s|%d|%s|%s|%s",
		t.Date.Format("2006-01-02"), t.Merchant, cents, t.Direction, desc,
		strings.ToUpper(strings.TrimSpace(accountName)))
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// completeness scores how much optional detail a transaction carries.
// Richer copies win hash collisions.
func completeness(t models.Transaction) int {
	score := 0
	if strings.TrimSpace(t.RawDescription) != "" {
		score++
	}
	if strings.TrimSpace(t.Merchant) != "" {
		score++
	}
	if strings.TrimSpace(t.Category) != "" {
		score += 2
	}
	if t.Balance != 0 {
		score++
	}
	if strings.TrimSpace(t.SourceLine) != "" {
		score++
	}
	return score
}

// Dedupe groups transactions by dedup hash and keeps one per group: the
// copy with the highest completeness score, ties going to the one seen
// latest in the input (inputs arrive in statement-upload order, so the
// most-recently-added statement wins). Input order of survivors is
// preserved. Idempotent: Dedupe(Dedupe(x)) == Dedupe(x).
func Dedupe(txns []models.Transaction) []models.Transaction {
	type kept struct {
		idx   int
		score int
	}
	best := make(map[string]kept, len(txns))
	order := make([]string, 0, len(txns))

	for i, t := range txns {
		h := t.DedupHash
		if h == "" {
			h = Hash(t, "")
		}
		score := completeness(t)
		prev, seen := best[h]
		if !seen {
			best[h] = kept{idx: i, score: score}
			order = append(order, h)
			continue
		}
		if score >= prev.score {
			best[h] = kept{idx: i, score: score}
		}
	}

	out := make([]models.Transaction, 0, len(order))
	for _, h := range order {
		out = append(out, txns[best[h].idx])
	}
	return out
}

// accountIdentity keys statements for merging: the account number when the
// statement shows one, the account name otherwise.
func accountIdentity(s *models.ParsedStatement) string {
	if s.AccountNumber != "" {
		return string(s.Institution) + "|" + s.AccountNumber
	}
	return string(s.Institution) + "|" + strings.ToUpper(strings.TrimSpace(s.AccountName))
}

// MergeOverlapping unifies statements whose date windows intersect within
// one (institution, account) group. Absorbing widens the accumulated range
// to the union, concatenates and dedupes transactions, and appends parse
// errors. Transactions absorbed into an accumulated statement are
// reassigned to it; disjoint statements pass through untouched.
func MergeOverlapping(statements []*models.ParsedStatement) []*models.ParsedStatement {
	groups := make(map[string][]*models.ParsedStatement)
	var groupOrder []string
	for _, s := range statements {
		key := accountIdentity(s)
		if _, ok := groups[key]; !ok {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], s)
	}

	var merged []*models.ParsedStatement
	for _, key := range groupOrder {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].PeriodStart.Before(group[j].PeriodStart)
		})

		var acc []*models.ParsedStatement
		for _, s := range group {
			absorbed := false
			for _, a := range acc {
				if a.Overlaps(s) {
					absorb(a, s)
					absorbed = true
					break
				}
			}
			if !absorbed {
				acc = append(acc, cloneStatement(s))
			}
		}
		merged = append(merged, acc...)
	}
	return merged
}

// absorb folds statement s into accumulated statement a.
func absorb(a, s *models.ParsedStatement) {
	if s.PeriodStart.Before(a.PeriodStart) {
		a.PeriodStart = s.PeriodStart
	}
	if s.PeriodEnd.After(a.PeriodEnd) {
		a.PeriodEnd = s.PeriodEnd
	}

	hashStatement(a)
	incoming := make([]models.Transaction, len(s.Transactions))
	copy(incoming, s.Transactions)
	for i := range incoming {
		incoming[i].StatementID = a.ID
		incoming[i].DedupHash = Hash(incoming[i], a.AccountName)
	}

	a.Transactions = Dedupe(append(a.Transactions, incoming...))
	a.ParseErrors = append(a.ParseErrors, s.ParseErrors...)

	sort.SliceStable(a.Transactions, func(i, j int) bool {
		return a.Transactions[i].Date.Before(a.Transactions[j].Date)
	})

	if a.AccountNumber == "" {
		a.AccountNumber = s.AccountNumber
	}
	if a.AccountName == "" {
		a.AccountName = s.AccountName
	}
}

// hashStatement fills in dedup hashes for every transaction that lacks one.
func hashStatement(s *models.ParsedStatement) {
	for i := range s.Transactions {
		if s.Transactions[i].DedupHash == "" {
			s.Transactions[i].DedupHash = Hash(s.Transactions[i], s.AccountName)
		}
	}
}

func cloneStatement(s *models.ParsedStatement) *models.ParsedStatement {
	c := *s
	c.Transactions = make([]models.Transaction, len(s.Transactions))
	copy(c.Transactions, s.Transactions)
	c.ParseErrors = append([]string(nil), s.ParseErrors...)
	hashStatement(&c)
	return &c
}

// Flatten returns all transactions of the merged statements in a single
// deterministic list, hashed and deduped across statements, ready for the
// recurrence detector.
func Flatten(statements []*models.ParsedStatement) []models.Transaction {
	var all []models.Transaction
	for _, s := range statements {
		hashStatement(s)
		all = append(all, s.Transactions...)
	}
	all = Dedupe(all)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Date.Before(all[j].Date)
	})
	return all
}
