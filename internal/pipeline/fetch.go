package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/eligibility"
	"github.com/sells-group/outreach-cli/internal/lifecycle"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/lusha"
)

// Meta is the consultant bookkeeping stamped on every fetched lead.
type Meta struct {
	Consultant  string
	Branch      string
	ContactType string
	Cases       string
	Channel     string
}

// Validate requires every field except Cases.
func (m Meta) Validate() error {
	l := model.Lead{Consultant: m.Consultant, Branch: m.Branch, ContactType: m.ContactType, Channel: m.Channel}
	if missing := l.MissingMeta(); len(missing) > 0 {
		return eris.Errorf("pipeline: missing meta fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// FetchOptions controls a fetch run.
type FetchOptions struct {
	Preset    string
	StartPage int
	Pages     int
	Meta      Meta
}

// Fetch pulls candidate contacts from the lead provider and stores the new
// ones. Contacts already in the ledger are dropped; do-not-contact and
// cooldown hits are stored blocked so the operator can see them.
func (p *Pipeline) Fetch(ctx context.Context, opts FetchOptions) (*Report, error) {
	rep := newReport("fetch")
	if p.lusha == nil {
		return nil, eris.New("pipeline: no lead provider configured")
	}
	if err := opts.Meta.Validate(); err != nil {
		return nil, err
	}
	presets, err := lusha.LoadPresets(p.cfg.Lusha.PresetsFile)
	if err != nil {
		return nil, err
	}
	name := opts.Preset
	if name == "" {
		name = p.cfg.Lusha.Preset
	}
	preset, ok := presets[name]
	if !ok {
		return nil, eris.Errorf("pipeline: unknown preset %q (have %s)", name, strings.Join(lusha.PresetNames(presets), ", "))
	}
	if opts.Pages <= 0 {
		opts.Pages = 1
	}

	gate, snap, err := p.begin(ctx, rep.Stage)
	if err != nil {
		return nil, err
	}

	contacts, err := p.lusha.SearchPages(ctx, preset, opts.StartPage, opts.Pages, p.cfg.Lusha.PageSize)
	if err != nil && len(contacts) == 0 {
		return nil, eris.Wrap(err, "pipeline: search contacts")
	}
	if err != nil {
		rep.Stopped = err.Error()
	}

	var fresh []model.Lead
	for _, c := range contacts {
		if ctx.Err() != nil {
			rep.Stopped = ctx.Err().Error()
			break
		}
		rep.Processed++

		l := leadFromContact(c, opts.Meta)
		d := gate.Check(&l, eligibility.StagePostFetch, snap)
		if dup, ok := duplicateOf(gate, &l, snap); ok {
			d = dup
		}
		rep.verdict(d)

		if d.Verdict == eligibility.BlockedDuplicate {
			rep.Skipped++
			zap.L().Debug("pipeline: duplicate contact", zap.String("lead", l.Label()), zap.String("reason", d.Reason))
			continue
		}
		if err := lifecycle.ApplyDecision(&l, d); err != nil {
			rep.fail(&l, err)
			continue
		}
		if l.ContactID != "" {
			snap.ContactIDs[l.ContactID] = l.ID
		}
		fresh = append(fresh, l)
		if d.Allowed() {
			rep.Succeeded++
		}
	}

	if len(fresh) > 0 {
		if _, err := p.store.InsertLeads(ctx, fresh); err != nil {
			return rep, eris.Wrap(err, "pipeline: insert fetched leads")
		}
	}
	rep.Log()
	return rep, nil
}

// duplicateOf returns the duplicate block for a contact already in the
// ledger. A stronger block from Check would otherwise hide it and the
// contact would be inserted a second time.
func duplicateOf(gate *eligibility.Gate, l *model.Lead, snap eligibility.Snapshot) (eligibility.Decision, bool) {
	for _, d := range gate.Audit(l, eligibility.StagePostFetch, snap) {
		if d.Verdict == eligibility.BlockedDuplicate {
			return d, true
		}
	}
	return eligibility.Decision{}, false
}

// leadFromContact builds a new lead. The id is assigned up front so the
// gate can tell the lead apart from the snapshot owners.
func leadFromContact(c lusha.Contact, m Meta) model.Lead {
	l := model.NewLead()
	l.ID = newID()
	l.Company = strings.TrimSpace(c.CompanyName)
	l.FirstName = strings.TrimSpace(c.FirstName)
	l.LastName = strings.TrimSpace(c.LastName)
	l.JobTitle = strings.TrimSpace(c.JobTitle)
	l.ContactID = c.ContactID
	l.RequestID = c.RequestID
	l.Consultant = m.Consultant
	l.Branch = m.Branch
	l.ContactType = m.ContactType
	l.Cases = m.Cases
	l.Channel = m.Channel
	return l
}
