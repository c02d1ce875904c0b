// Package match decides whether a company name refers to an entry of a
// reference list (do-not-contact, recent contacts, already-mailed companies).
//
// Matching is deliberately permissive: skipping a lead is cheap, contacting a
// blocked company is not. Three rules are tried per reference entry, in
// reference order, and the first entry that satisfies any rule wins:
//
//  1. exact: both names reduce to the same token set
//  2. substring: one canonical name contains the other, and the shorter one
//     is at least MinLen runes long
//  3. token: both names share a token of at least MinLen runes
//
// Stopwords (generic words such as "holding" or "logistics") never count as
// a substring or token match on their own.
package match

import (
	"strings"
	"unicode/utf8"

	"github.com/sells-group/outreach-cli/internal/normalize"
)

// Rule names the matching rule that produced a match.
type Rule string

const (
	RuleExact     Rule = "exact"
	RuleSubstring Rule = "substring"
	RuleToken     Rule = "token"
)

// DefaultStopwords lists generic company-name words that are too common to
// identify a company by themselves.
var DefaultStopwords = []string{
	"groep", "group", "inter", "global", "solutions", "services",
	"management", "consulting", "holding", "international", "nederland",
	"netherlands", "europe", "digital", "partners", "innovations",
	"systems", "logistics", "supply", "chain", "media", "tech",
}

// Entry is a reference name in normalized form.
type Entry struct {
	Raw    string   `json:"raw"`
	Name   string   `json:"name"`
	Key    string   `json:"key"`
	Tokens []string `json:"tokens"`
}

// Result is the outcome of matching one candidate.
type Result struct {
	Matched bool  `json:"matched"`
	Entry   Entry `json:"entry"`
	Rule    Rule  `json:"rule,omitempty"`
}

// Matcher compares candidate names against reference entries.
type Matcher struct {
	norm      *normalize.Normalizer
	minLen    int
	stopwords map[string]bool
}

// New creates a Matcher. minLen is the minimum length, in runes, of the
// shorter name for the substring rule and of a shared token for the token
// rule; values below 1 are treated as 1.
func New(n *normalize.Normalizer, minLen int, stopwords []string) *Matcher {
	if n == nil {
		n = normalize.Default()
	}
	if minLen < 1 {
		minLen = 1
	}
	sw := make(map[string]bool, len(stopwords))
	for _, w := range stopwords {
		if w = n.Name(w); w != "" {
			sw[w] = true
		}
	}
	return &Matcher{norm: n, minLen: minLen, stopwords: sw}
}

// MinLen returns the configured minimum match length.
func (m *Matcher) MinLen() int {
	return m.minLen
}

// Entry normalizes a raw name into a reference entry.
func (m *Matcher) Entry(raw string) Entry {
	return Entry{
		Raw:    raw,
		Name:   m.norm.Name(raw),
		Key:    m.norm.Key(raw),
		Tokens: m.norm.Tokens(raw),
	}
}

// Match returns the first entry of idx that matches candidate.
func (m *Matcher) Match(candidate string, idx *Index) Result {
	if idx == nil {
		return Result{}
	}
	c := m.Entry(candidate)
	if c.Name == "" {
		return Result{}
	}
	for _, e := range idx.entries {
		if rule, ok := m.compare(c, e); ok {
			return Result{Matched: true, Entry: e, Rule: rule}
		}
	}
	return Result{}
}

// MatchAll returns every entry of idx that matches candidate, in index order.
func (m *Matcher) MatchAll(candidate string, idx *Index) []Result {
	if idx == nil {
		return nil
	}
	c := m.Entry(candidate)
	if c.Name == "" {
		return nil
	}
	var out []Result
	for _, e := range idx.entries {
		if rule, ok := m.compare(c, e); ok {
			out = append(out, Result{Matched: true, Entry: e, Rule: rule})
		}
	}
	return out
}

// Compare reports whether two raw names match and by which rule.
// Compare is symmetric.
func (m *Matcher) Compare(a, b string) (Rule, bool) {
	ea, eb := m.Entry(a), m.Entry(b)
	if ea.Name == "" || eb.Name == "" {
		return "", false
	}
	return m.compare(ea, eb)
}

func (m *Matcher) compare(a, b Entry) (Rule, bool) {
	if a.Key == b.Key {
		return RuleExact, true
	}

	shorter, longer := a.Name, b.Name
	if utf8.RuneCountInString(shorter) > utf8.RuneCountInString(longer) {
		shorter, longer = longer, shorter
	}
	if utf8.RuneCountInString(shorter) >= m.minLen && !m.stopwords[shorter] &&
		strings.Contains(longer, shorter) {
		return RuleSubstring, true
	}

	for _, t := range a.Tokens {
		if utf8.RuneCountInString(t) < m.minLen || m.stopwords[t] {
			continue
		}
		if containsSorted(b.Tokens, t) {
			return RuleToken, true
		}
	}
	return "", false
}

func containsSorted(tokens []string, t string) bool {
	lo, hi := 0, len(tokens)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case tokens[mid] == t:
			return true
		case tokens[mid] < t:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return false
}
