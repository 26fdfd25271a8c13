package merchant

import (
	"regexp"
	"sort"
	"strings"
)

// Normalization collapses the many raw spellings a biller shows up under
// ("NETFLIX.COM 866-579-7172 CA", "Netflix", "NETFLIX STREAMING") onto one
// canonical label so that clustering and dedup can match them.

// knownPrefixes are processor/bank boilerplate fragments that precede the
// actual merchant name. Checked longest-first so "RECURRING PAYMENT
// AUTHORIZED ON" wins over "RECURRING PAYMENT".
var knownPrefixes = []string{
	"RECURRING PAYMENT AUTHORIZED ON",
	"PURCHASE AUTHORIZED ON",
	"RECURRING TRANSFER TO",
	"ONLINE TRANSFER TO",
	"ONLINE PAYMENT TO",
	"RECURRING PAYMENT",
	"ELECTRONIC PAYMENT",
	"ONLINE PAYMENT",
	"MOBILE PAYMENT",
	"WEB AUTHORIZED PMT",
	"DEBIT CARD PURCHASE",
	"DEBIT PURCHASE -VISA",
	"DEBIT PURCHASE",
	"CHECK CARD PURCHASE",
	"CHECKCARD",
	"CHECK CRD PURCHASE",
	"CARD PURCHASE",
	"POS PURCHASE",
	"POS DEBIT",
	"POS",
	"ACH DEBIT",
	"ACH CREDIT",
	"ACH",
	"DIRECT DEBIT",
	"ELECTRONIC WITHDRAWAL",
	"WITHDRAWAL",
	"PAYMENT TO",
	"PMT TO",
	"TST*",
	"SQ *",
	"SQ*",
	"PAYPAL *",
	"PAYPAL*",
	"PP*",
	"APLPAY",
}

var (
	// Embedded date fragments: "ON 01/15", "01/15/24", "JAN 15" etc.
	embeddedDatePattern = regexp.MustCompile(`(?i)\b(?:ON\s+)?\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`)
	monthDayPattern     = regexp.MustCompile(`(?i)\b(?:JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)\s+\d{1,2}\b`)

	// Card/reference suffixes: "CARD 1234", "XXXXXXXXXXXX1234", "REF #123456",
	// and long alphanumeric authorization IDs.
	cardSuffixPattern = regexp.MustCompile(`(?i)\b(?:CARD|DEBIT CARD|XXXX+)\s*[\dX]{4,}\b.*$`)
	refSuffixPattern  = regexp.MustCompile(`(?i)\b(?:REF|AUTH|TRACE|CONF|ID)\s*[#:]?\s*\w{5,}\b.*$`)
	longIDPattern     = regexp.MustCompile(`\b[A-Z0-9]{5,}\d[A-Z0-9]*\b`)

	// Trailing location fragments: "SAN FRANCISCO CA", "CA 94103", bare
	// two-letter state codes, ZIPs.
	cityStatePattern = regexp.MustCompile(`\b[A-Z]{2,}(?:\s+[A-Z]{2,})?\s+(?:AL|AK|AZ|AR|CA|CO|CT|DE|FL|GA|HI|ID|IL|IN|IA|KS|KY|LA|ME|MD|MA|MI|MN|MS|MO|MT|NE|NV|NH|NJ|NM|NY|NC|ND|OH|OK|OR|PA|RI|SC|SD|TN|TX|UT|VT|VA|WA|WV|WI|WY)\s*$`)
	stateZipPattern  = regexp.MustCompile(`\b(?:AL|AK|AZ|AR|CA|CO|CT|DE|FL|GA|HI|ID|IL|IN|IA|KS|KY|LA|ME|MD|MA|MI|MN|MS|MO|MT|NE|NV|NH|NJ|NM|NY|NC|ND|OH|OK|OR|PA|RI|SC|SD|TN|TX|UT|VT|VA|WA|WV|WI|WY)(?:\s+\d{5}(?:-\d{4})?)?\s*$`)
	zipPattern       = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\s*$`)
	phonePattern     = regexp.MustCompile(`\b\d{3}[-.]\d{3}[-.]\d{4}\b`)

	punctPattern = regexp.MustCompile(`[^A-Z0-9&\-'.\s]+`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// remapTable collapses raw spellings of well-known billers onto one label.
// Keys are matched as substrings of the already-cleaned name.
var remapTable = map[string]string{
	"NETFLIX":        "NETFLIX",
	"SPOTIFY":        "SPOTIFY",
	"HULU":           "HULU",
	"DISNEY PLUS":    "DISNEY+",
	"DISNEYPLUS":     "DISNEY+",
	"DISNEY+":        "DISNEY+",
	"HBO MAX":        "HBO MAX",
	"HBOMAX":         "HBO MAX",
	"MAX.COM":        "HBO MAX",
	"AMAZON PRIME":   "AMAZON PRIME",
	"AMZN PRIME":     "AMAZON PRIME",
	"PRIME VIDEO":    "AMAZON PRIME",
	"AMAZON MUSIC":   "AMAZON MUSIC",
	"APPLE.COM BILL": "APPLE",
	"APPLE.COM":      "APPLE",
	"ITUNES":         "APPLE",
	"APPLE SERVICES": "APPLE",
	"GOOGLE STORAGE": "GOOGLE ONE",
	"GOOGLE ONE":     "GOOGLE ONE",
	"GOOGLE YOUTUBE": "YOUTUBE PREMIUM",
	"YOUTUBEPREMIUM": "YOUTUBE PREMIUM",
	"YOUTUBE TV":     "YOUTUBE TV",
	"AUDIBLE":        "AUDIBLE",
	"KINDLE UNLTD":   "KINDLE UNLIMITED",
	"DROPBOX":        "DROPBOX",
	"ADOBE":          "ADOBE",
	"MICROSOFT":      "MICROSOFT",
	"MSFT":           "MICROSOFT",
	"PLAYSTATION":    "PLAYSTATION",
	"NINTENDO":       "NINTENDO",
	"XBOX":           "XBOX",
	"PELOTON":        "PELOTON",
	"PLANET FIT":     "PLANET FITNESS",
	"PLANET FITNESS": "PLANET FITNESS",
	"LA FITNESS":     "LA FITNESS",
	"24 HOUR FIT":    "24 HOUR FITNESS",
	"CRUNCH FIT":     "CRUNCH FITNESS",
	"NYTIMES":        "NEW YORK TIMES",
	"NY TIMES":       "NEW YORK TIMES",
	"WSJ":            "WALL STREET JOURNAL",
	"DOORDASH DASH":  "DASHPASS",
	"DASHPASS":       "DASHPASS",
	"UBER ONE":       "UBER ONE",
	"INSTACART":      "INSTACART",
	"CHEWY":          "CHEWY",
	"RING BASIC":     "RING",
	"RING MONTHLY":   "RING",
	"SIRIUSXM":       "SIRIUSXM",
	"SIRIUS XM":      "SIRIUSXM",
	"PANDORA":        "PANDORA",
	"PARAMOUNT":      "PARAMOUNT+",
	"PEACOCK":        "PEACOCK",
	"CRUNCHYROLL":    "CRUNCHYROLL",
	"PATREON":        "PATREON",
	"ONLYFANS":       "ONLYFANS",
	"SUBSTACK":       "SUBSTACK",
	"GRAMMARLY":      "GRAMMARLY",
	"NORDVPN":        "NORDVPN",
	"EXPRESSVPN":     "EXPRESSVPN",
	"1PASSWORD":      "1PASSWORD",
	"GEICO":          "GEICO",
	"PROGRESSIVE":    "PROGRESSIVE",
	"STATE FARM":     "STATE FARM",
	"COMCAST":        "COMCAST",
	"XFINITY":        "COMCAST",
	"SPECTRUM":       "SPECTRUM",
	"VERIZON":        "VERIZON",
	"T-MOBILE":       "T-MOBILE",
	"TMOBILE":        "T-MOBILE",
	"AT&T":           "AT&T",
	"ATT BILL":       "AT&T",
}

// remapKeys is remapTable's keys sorted longest-first so the most specific
// spelling wins.
var remapKeys = func() []string {
	keys := make([]string, 0, len(remapTable))
	for k := range remapTable {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// Normalize canonicalizes a free-text merchant description for matching.
func Normalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	// Prefixes first, while positional boilerplate is still anchored.
	for changed := true; changed; {
		changed = false
		for _, prefix := range knownPrefixes {
			if strings.HasPrefix(s, prefix) {
				s = strings.TrimSpace(s[len(prefix):])
				changed = true
			}
		}
	}

	s = embeddedDatePattern.ReplaceAllString(s, " ")
	s = phonePattern.ReplaceAllString(s, " ")
	s = cardSuffixPattern.ReplaceAllString(s, " ")
	s = refSuffixPattern.ReplaceAllString(s, " ")
	s = longIDPattern.ReplaceAllString(s, " ")
	// City stripping eats at most two trailing words; skip it when the whole
	// name would go with them.
	if stripped := cityStatePattern.ReplaceAllString(s, " "); strings.TrimSpace(stripped) != "" {
		s = stripped
	}
	s = stateZipPattern.ReplaceAllString(s, " ")
	s = zipPattern.ReplaceAllString(s, " ")
	s = monthDayPattern.ReplaceAllString(s, " ")

	s = punctPattern.ReplaceAllString(s, " ")
	s = spacePattern.ReplaceAllString(s, " ")
	s = strings.Trim(s, " -.'")

	for _, key := range remapKeys {
		if strings.Contains(s, key) {
			return remapTable[key]
		}
	}
	return s
}

// Similar reports whether two normalized merchant names plausibly refer to
// the same biller: exact match, containment, or word-overlap ratio at or
// above threshold, where ratio = 2*|common| / (|wordsA| + |wordsB|).
func Similar(a, b string, threshold float64) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return false
	}

	setA := make(map[string]bool, len(wordsA))
	for _, w := range wordsA {
		setA[w] = true
	}
	common := 0
	seen := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		if setA[w] && !seen[w] {
			common++
			seen[w] = true
		}
	}

	ratio := 2 * float64(common) / float64(len(wordsA)+len(wordsB))
	return ratio >= threshold
}
