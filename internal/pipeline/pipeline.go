// Package pipeline runs the outreach stages against the ledger: fetch,
// enrich, generate and send, plus the maintenance stages around them. Every
// stage reloads the reference lists, asks the eligibility gate about each
// lead and applies the outcome through the lifecycle package. Records are
// processed one at a time and a failing record never aborts the batch.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/cooldown"
	"github.com/sells-group/outreach-cli/internal/cost"
	"github.com/sells-group/outreach-cli/internal/eligibility"
	"github.com/sells-group/outreach-cli/internal/generate"
	"github.com/sells-group/outreach-cli/internal/ledger"
	"github.com/sells-group/outreach-cli/internal/lifecycle"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/normalize"
	"github.com/sells-group/outreach-cli/pkg/lusha"
	"github.com/sells-group/outreach-cli/pkg/mailer"
)

// ReferenceLoader loads the do-not-contact and recent-contacts lists.
type ReferenceLoader interface {
	Load(ctx context.Context, now time.Time) (eligibility.References, error)
}

// Pipeline orchestrates the outreach stages.
type Pipeline struct {
	cfg      *config.Config
	store    ledger.Store
	refs     ReferenceLoader
	lusha    lusha.Client
	composer *generate.Composer
	mailer   mailer.Sender
	costs    *cost.Calculator
	now      func() time.Time
}

// New creates a Pipeline. Collaborators a command does not use may be nil.
func New(
	cfg *config.Config,
	st ledger.Store,
	refs ReferenceLoader,
	lushaClient lusha.Client,
	composer *generate.Composer,
	sender mailer.Sender,
) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		store:    st,
		refs:     refs,
		lusha:    lushaClient,
		composer: composer,
		mailer:   sender,
		costs:    cost.NewCalculator(cfg.Pricing),
		now:      time.Now,
	}
}

// gateOptions maps the eligibility config onto gate options. Zero values
// keep the defaults.
func (p *Pipeline) gateOptions() eligibility.Options {
	e := p.cfg.Eligibility
	opts := eligibility.DefaultOptions()
	if len(e.LegalSuffixes) > 0 {
		opts.Normalizer = normalize.New(e.LegalSuffixes)
	}
	if len(e.Stopwords) > 0 {
		opts.Stopwords = e.Stopwords
	}
	opts.DNCMinLen = e.DNCMinLen
	opts.RecentMinLen = e.RecentMinLen
	opts.CompanyMinLen = e.CompanyMinLen

	tags := e.LightTags
	if len(tags) == 0 {
		tags = cooldown.DefaultLightTags
	}
	light, heavy := e.LightDays, e.HeavyDays
	if light <= 0 {
		light = cooldown.DefaultLightDays
	}
	if heavy <= 0 {
		heavy = cooldown.DefaultHeavyDays
	}
	opts.Cooldown = cooldown.New(tags, light, heavy)
	opts.Now = p.now
	return opts
}

// Gate loads the reference lists and builds the gate for one batch. A
// missing do-not-contact list is fatal.
func (p *Pipeline) Gate(ctx context.Context) (*eligibility.Gate, error) {
	if p.refs == nil {
		return nil, eris.New("pipeline: no reference loader configured")
	}
	refs, err := p.refs.Load(ctx, p.now())
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load references")
	}
	g := eligibility.New(refs, p.gateOptions())
	zap.L().Info("pipeline: references loaded",
		zap.Int("dnc_entries", g.DNCEntries()),
		zap.Int("recent_entries", g.RecentEntries()),
	)
	return g, nil
}

// Snapshot reads the ledger state the gate needs.
func (p *Pipeline) Snapshot(ctx context.Context) (eligibility.Snapshot, error) {
	var snap eligibility.Snapshot
	var err error
	if snap.ContactIDs, err = p.store.ContactIDs(ctx); err != nil {
		return snap, eris.Wrap(err, "pipeline: snapshot contact ids")
	}
	if snap.SentEmails, err = p.store.SentEmails(ctx); err != nil {
		return snap, eris.Wrap(err, "pipeline: snapshot sent emails")
	}
	if snap.SentCompanies, err = p.store.SentCompanies(ctx); err != nil {
		return snap, eris.Wrap(err, "pipeline: snapshot sent companies")
	}
	return snap, nil
}

// begin prepares a batch: it warns about leads an earlier batch left in
// RUNNING and builds the gate and ledger snapshot.
func (p *Pipeline) begin(ctx context.Context, stage string) (*eligibility.Gate, eligibility.Snapshot, error) {
	stale, err := p.Stale(ctx)
	if err != nil {
		zap.L().Warn("pipeline: stale lead check failed", zap.String("stage", stage), zap.Error(err))
	}
	for _, s := range stale {
		zap.L().Warn("pipeline: stale lead", zap.String("stage", stage), zap.Error(s))
	}
	gate, err := p.Gate(ctx)
	if err != nil {
		return nil, eligibility.Snapshot{}, err
	}
	snap, err := p.Snapshot(ctx)
	if err != nil {
		return nil, eligibility.Snapshot{}, err
	}
	return gate, snap, nil
}

// gateLead checks lead at stage and applies a block to it. It reports
// whether the lead may continue. Blocked leads are saved.
func (p *Pipeline) gateLead(ctx context.Context, gate *eligibility.Gate, l *model.Lead, stage eligibility.Stage, snap eligibility.Snapshot, rep *Report) (eligibility.Decision, bool) {
	d := gate.Check(l, stage, snap)
	rep.verdict(d)

	before := l.MailStatus
	if err := lifecycle.ApplyDecision(l, d); err != nil {
		rep.fail(l, err)
		return d, false
	}
	if !d.Allowed() {
		zap.L().Info("pipeline: lead blocked",
			zap.String("lead", l.Label()),
			zap.String("stage", string(stage)),
			zap.String("verdict", string(d.Verdict)),
			zap.String("reason", d.Reason),
		)
		p.save(ctx, l, rep)
		return d, false
	}
	if before != l.MailStatus {
		p.save(ctx, l, rep)
	}
	return d, true
}

// save persists lead. A failed write is recorded on the report only, since
// the annotation cannot be stored either.
func (p *Pipeline) save(ctx context.Context, l *model.Lead, rep *Report) bool {
	if err := p.store.UpdateLead(ctx, l); err != nil {
		rep.fail(l, eris.Wrap(err, "pipeline: save lead"))
		return false
	}
	return true
}

func newID() string { return uuid.New().String() }
