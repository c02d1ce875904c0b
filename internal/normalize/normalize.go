// Package normalize reduces company names to a canonical form for matching.
package normalize

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultLegalSuffixes lists the legal-entity forms stripped from names.
// Entries are written the way they appear in source data; they are reduced
// with the same punctuation rules as names before use.
var DefaultLegalSuffixes = []string{
	"B.V.", "N.V.", "V.O.F.", "C.V.",
	"Ltd.", "GmbH", "Inc.", "LLC", "PLC", "SARL", "AG",
}

// Normalizer strips legal suffixes and punctuation from company names.
// The zero value strips nothing; use New or Default.
type Normalizer struct {
	suffixes map[string]bool
}

// New creates a Normalizer for the given legal-entity suffixes.
func New(suffixes []string) *Normalizer {
	n := &Normalizer{suffixes: make(map[string]bool, len(suffixes))}
	for _, s := range suffixes {
		key := strings.Join(collapseInitials(splitWords(s)), "")
		if key != "" {
			n.suffixes[key] = true
		}
	}
	return n
}

// Default returns a Normalizer using DefaultLegalSuffixes.
func Default() *Normalizer {
	return New(DefaultLegalSuffixes)
}

// Name returns the canonical form of raw: lower-case words without legal
// suffixes or punctuation, separated by single spaces. Name is idempotent.
func (n *Normalizer) Name(raw string) string {
	return strings.Join(n.words(raw), " ")
}

// Tokens returns the unique words of the canonical name in sorted order.
func (n *Normalizer) Tokens(raw string) []string {
	words := n.words(raw)
	slices.Sort(words)
	return slices.Compact(words)
}

// Key returns an order-independent identity for raw: its sorted token set
// joined by spaces. Two names with equal keys are the same company.
func (n *Normalizer) Key(raw string) string {
	return strings.Join(n.Tokens(raw), " ")
}

// Variants expands a raw reference entry into every canonical name it stands
// for. Entries like "Melkweg|Fritom" or "Nabuurs - supply chain solutions"
// list several names in one cell; each part of three or more characters is
// returned alongside the canonical form of the whole entry.
func (n *Normalizer) Variants(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}

	add(n.Name(raw))
	for _, sep := range []string{";", "|", " - ", ","} {
		if !strings.Contains(raw, sep) {
			continue
		}
		for _, part := range strings.Split(raw, sep) {
			if v := n.Name(part); len(v) >= 3 {
				add(v)
			}
		}
	}
	return out
}

// words runs the full reduction: fold, split, then collapse initials and
// drop suffixes until neither step changes anything.
func (n *Normalizer) words(raw string) []string {
	words := splitWords(raw)
	for {
		before := len(words)
		words = collapseInitials(words)
		words = n.dropSuffixes(words)
		if len(words) == before {
			return words
		}
	}
}

func (n *Normalizer) dropSuffixes(words []string) []string {
	if len(n.suffixes) == 0 {
		return words
	}
	out := words[:0]
	for _, w := range words {
		if !n.suffixes[w] {
			out = append(out, w)
		}
	}
	return out
}

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// splitWords lower-cases and folds raw, deletes dots and apostrophes so that
// "B.V." and "Joe's" stay whole, and splits on every other non-alphanumeric rune.
func splitWords(raw string) []string {
	folded, _, err := transform.String(foldDiacritics, raw)
	if err != nil {
		folded = raw
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r == '.' || r == '\'' || r == '’':
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}

// collapseInitials merges runs of single-rune words ("b v" -> "bv") so that
// spaced-out abbreviations reduce to the same token as their compact form.
func collapseInitials(words []string) []string {
	out := make([]string, 0, len(words))
	var run strings.Builder
	flush := func() {
		if run.Len() > 0 {
			out = append(out, run.String())
			run.Reset()
		}
	}
	for _, w := range words {
		if len([]rune(w)) == 1 {
			run.WriteString(w)
			continue
		}
		flush()
		out = append(out, w)
	}
	flush()
	return out
}
