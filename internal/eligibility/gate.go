// Package eligibility decides, per pipeline checkpoint, whether a lead may
// proceed. Checks run in a fixed priority order and the first block wins:
// do-not-contact, cooldown, duplicate contact id (post-fetch only), and
// suppression by email or company (pre-send only).
package eligibility

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/sells-group/outreach-cli/internal/cooldown"
	"github.com/sells-group/outreach-cli/internal/match"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/normalize"
)

// References are the read-only reference lists for one batch.
type References struct {
	DNC    []string
	Recent []model.RecentContact
}

// Options tune the gate. Zero values fall back to DefaultOptions.
type Options struct {
	Normalizer    *normalize.Normalizer
	Stopwords     []string
	DNCMinLen     int
	RecentMinLen  int
	CompanyMinLen int
	Cooldown      *cooldown.Evaluator
	Now           func() time.Time
}

// DefaultOptions returns the standard thresholds: 8 runes for DNC and
// already-mailed companies, 4 for recent contacts.
func DefaultOptions() Options {
	return Options{
		Normalizer:    normalize.Default(),
		Stopwords:     match.DefaultStopwords,
		DNCMinLen:     8,
		RecentMinLen:  4,
		CompanyMinLen: 8,
		Cooldown:      cooldown.Default(),
		Now:           time.Now,
	}
}

// Snapshot is the ledger state the gate needs. Each map points a value to
// the id of the lead that owns it, so a lead never blocks itself.
type Snapshot struct {
	ContactIDs    map[string]string // provider contact id -> lead id
	SentEmails    map[string]string // lower-cased email -> lead id
	SentCompanies map[string]string // company name -> lead id
}

// Gate evaluates leads against the reference lists and a ledger snapshot.
// A Gate never mutates anything; callers apply the decision.
type Gate struct {
	dnc            *match.Index
	dncMatcher     *match.Matcher
	recent         *match.Index
	recentMatcher  *match.Matcher
	moments        map[string][]model.ContactMoment
	companyMatcher *match.Matcher
	cooldown       *cooldown.Evaluator
	now            func() time.Time
}

// New builds a Gate for one batch.
func New(refs References, opts Options) *Gate {
	def := DefaultOptions()
	if opts.Normalizer == nil {
		opts.Normalizer = def.Normalizer
	}
	if opts.Stopwords == nil {
		opts.Stopwords = def.Stopwords
	}
	if opts.DNCMinLen <= 0 {
		opts.DNCMinLen = def.DNCMinLen
	}
	if opts.RecentMinLen <= 0 {
		opts.RecentMinLen = def.RecentMinLen
	}
	if opts.CompanyMinLen <= 0 {
		opts.CompanyMinLen = def.CompanyMinLen
	}
	if opts.Cooldown == nil {
		opts.Cooldown = def.Cooldown
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}

	g := &Gate{
		dncMatcher:     match.New(opts.Normalizer, opts.DNCMinLen, opts.Stopwords),
		recentMatcher:  match.New(opts.Normalizer, opts.RecentMinLen, opts.Stopwords),
		companyMatcher: match.New(opts.Normalizer, opts.CompanyMinLen, opts.Stopwords),
		moments:        make(map[string][]model.ContactMoment),
		cooldown:       opts.Cooldown,
		now:            opts.Now,
	}
	g.dnc = g.dncMatcher.VariantIndex(refs.DNC)

	names := make([]string, 0, len(refs.Recent))
	for _, rc := range refs.Recent {
		key := g.recentMatcher.Entry(rc.Company).Key
		if key == "" {
			continue
		}
		g.moments[key] = append(g.moments[key], rc.Moments...)
		names = append(names, rc.Company)
	}
	g.recent = g.recentMatcher.Index(names)
	return g
}

// DNCEntries returns the number of indexed do-not-contact names.
func (g *Gate) DNCEntries() int { return g.dnc.Len() }

// RecentEntries returns the number of indexed recently contacted companies.
func (g *Gate) RecentEntries() int { return g.recent.Len() }

type check func(g *Gate, lead *model.Lead, stage Stage, snap Snapshot) (Decision, bool)

// checks in priority order.
var checks = []check{
	(*Gate).checkDNC,
	(*Gate).checkCooldown,
	(*Gate).checkDuplicate,
	(*Gate).checkSuppressed,
}

// Check returns the first blocking decision for lead at stage, or an
// ALLOWED decision when nothing blocks.
func (g *Gate) Check(lead *model.Lead, stage Stage, snap Snapshot) Decision {
	for _, c := range checks {
		if d, blocked := c(g, lead, stage, snap); blocked {
			return d
		}
	}
	return Decision{LeadID: lead.ID, Stage: stage, Verdict: Allowed}
}

// Audit evaluates every check without short-circuiting and returns all
// blocking decisions in priority order. An empty result means allowed.
// The first element always equals what Check returns.
func (g *Gate) Audit(lead *model.Lead, stage Stage, snap Snapshot) []Decision {
	var out []Decision
	for _, c := range checks {
		if d, blocked := c(g, lead, stage, snap); blocked {
			out = append(out, d)
		}
	}
	return out
}

func (g *Gate) checkDNC(lead *model.Lead, stage Stage, _ Snapshot) (Decision, bool) {
	res := g.dncMatcher.Match(lead.Company, g.dnc)
	if !res.Matched {
		return Decision{}, false
	}
	return Decision{
		LeadID:  lead.ID,
		Stage:   stage,
		Verdict: BlockedDNC,
		Reason:  fmt.Sprintf("on do-not-contact list as %q (%s match)", res.Entry.Raw, res.Rule),
		Matched: res.Entry.Raw,
		Rule:    res.Rule,
	}, true
}

func (g *Gate) checkCooldown(lead *model.Lead, stage Stage, _ Snapshot) (Decision, bool) {
	results := g.recentMatcher.MatchAll(lead.Company, g.recent)
	if len(results) == 0 {
		return Decision{}, false
	}
	var moments []model.ContactMoment
	for _, r := range results {
		moments = append(moments, g.moments[r.Entry.Key]...)
	}
	cd := g.cooldown.Evaluate(moments, g.now())
	if !cd.InCooldown {
		return Decision{}, false
	}
	return Decision{
		LeadID:        lead.ID,
		Stage:         stage,
		Verdict:       BlockedCooldown,
		Reason:        "recently contacted: " + cd.Annotation(),
		RemainingDays: cd.RemainingDays,
		Matched:       results[0].Entry.Raw,
		Rule:          results[0].Rule,
	}, true
}

func (g *Gate) checkDuplicate(lead *model.Lead, stage Stage, snap Snapshot) (Decision, bool) {
	if stage != StagePostFetch || lead.ContactID == "" {
		return Decision{}, false
	}
	owner, ok := snap.ContactIDs[lead.ContactID]
	if !ok || owner == lead.ID {
		return Decision{}, false
	}
	return Decision{
		LeadID:  lead.ID,
		Stage:   stage,
		Verdict: BlockedDuplicate,
		Reason:  fmt.Sprintf("contact id %s already in ledger", lead.ContactID),
		Matched: lead.ContactID,
	}, true
}

func (g *Gate) checkSuppressed(lead *model.Lead, stage Stage, snap Snapshot) (Decision, bool) {
	if stage != StagePreSend {
		return Decision{}, false
	}
	if email := strings.ToLower(strings.TrimSpace(lead.Email)); email != "" {
		if owner, ok := snap.SentEmails[email]; ok && owner != lead.ID {
			return Decision{
				LeadID:  lead.ID,
				Stage:   stage,
				Verdict: BlockedSuppressed,
				Reason:  fmt.Sprintf("email %s already sent", email),
				Matched: email,
			}, true
		}
	}
	for _, company := range slices.Sorted(maps.Keys(snap.SentCompanies)) {
		if snap.SentCompanies[company] == lead.ID {
			continue
		}
		if rule, ok := g.companyMatcher.Compare(lead.Company, company); ok {
			return Decision{
				LeadID:  lead.ID,
				Stage:   stage,
				Verdict: BlockedSuppressed,
				Reason:  fmt.Sprintf("company already mailed as %q (%s match)", company, rule),
				Matched: company,
				Rule:    rule,
			}, true
		}
	}
	return Decision{}, false
}
