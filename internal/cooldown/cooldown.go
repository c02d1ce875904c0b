// Package cooldown decides whether a recently contacted company may be
// contacted again.
package cooldown

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Reason classifies the contact history that set the cooldown window.
type Reason string

const (
	ReasonNone  Reason = ""
	ReasonLight Reason = "light"
	ReasonHeavy Reason = "heavy"
)

// Label returns the operator-facing name of the reason.
func (r Reason) Label() string {
	switch r {
	case ReasonLight:
		return "light contact"
	case ReasonHeavy:
		return "heavy contact"
	default:
		return "no contact"
	}
}

// Default windows and light tags.
const (
	DefaultLightDays = 90
	DefaultHeavyDays = 365
)

// DefaultLightTags are contact types that only count as a light touch.
var DefaultLightTags = []string{"mailed", "called", "gemaild", "gebeld", "gemailed"}

// Evaluator applies the light/heavy cooldown policy.
type Evaluator struct {
	lightTags map[string]bool
	lightDays int
	heavyDays int
}

// New creates an Evaluator. Tags are matched case-insensitively.
func New(lightTags []string, lightDays, heavyDays int) *Evaluator {
	lt := make(map[string]bool, len(lightTags))
	for _, t := range lightTags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			lt[t] = true
		}
	}
	return &Evaluator{lightTags: lt, lightDays: lightDays, heavyDays: heavyDays}
}

// Default returns an Evaluator with DefaultLightTags and the 90/365 day windows.
func Default() *Evaluator {
	return New(DefaultLightTags, DefaultLightDays, DefaultHeavyDays)
}

// Result is the cooldown state of one company.
type Result struct {
	InCooldown    bool      `json:"in_cooldown"`
	RemainingDays int       `json:"remaining_days"`
	Reason        Reason    `json:"reason,omitempty"`
	Anchor        time.Time `json:"anchor,omitempty"`
	WindowDays    int       `json:"window_days,omitempty"`
}

// Annotation renders the result for the ledger annotation column.
func (r Result) Annotation() string {
	if r.Reason == ReasonNone {
		return ""
	}
	return fmt.Sprintf("%s on %s (%dd cooldown, %d day(s) left)",
		r.Reason.Label(), r.Anchor.Format("02-01-2006"), r.WindowDays, r.RemainingDays)
}

// IsLight reports whether a moment with these tags is a light contact.
// An empty tag set is heavy.
func (e *Evaluator) IsLight(tags []string) bool {
	if len(tags) == 0 {
		return false
	}
	for _, t := range tags {
		if !e.lightTags[strings.ToLower(t)] {
			return false
		}
	}
	return true
}

// Evaluate computes the cooldown state from every known contact moment of a
// company. Without a heavy moment the window runs from the latest light
// contact; any heavy moment switches to the heavy window, anchored at the
// latest contact of either kind.
func (e *Evaluator) Evaluate(moments []model.ContactMoment, now time.Time) Result {
	if len(moments) == 0 {
		return Result{}
	}

	var latest time.Time
	heavy := false
	for _, m := range moments {
		if m.Date.After(latest) {
			latest = m.Date
		}
		if !e.IsLight(m.Tags) {
			heavy = true
		}
	}

	res := Result{Reason: ReasonLight, Anchor: latest, WindowDays: e.lightDays}
	if heavy {
		res.Reason = ReasonHeavy
		res.WindowDays = e.heavyDays
	}

	elapsed := max(DaysBetween(latest, now), 0)
	if elapsed < res.WindowDays {
		res.InCooldown = true
		res.RemainingDays = res.WindowDays - elapsed
	}
	return res
}

// DaysBetween counts whole calendar days from a to b in b's location.
func DaysBetween(a, b time.Time) int {
	loc := b.Location()
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

var pointsSuffix = regexp.MustCompile(`\s*\(\d+\)\s*$`)

// ParseTags splits a semicolon-delimited contact type cell into lower-case
// tags. Point suffixes such as "Gemaild (2)" are stripped and spreadsheet
// errors ("#REF!") are dropped.
func ParseTags(raw string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ";") {
		t := strings.ToLower(strings.TrimSpace(pointsSuffix.ReplaceAllString(part, "")))
		if t == "" || strings.HasPrefix(t, "#") || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return tags
}
