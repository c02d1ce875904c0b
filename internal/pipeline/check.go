package pipeline

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/eligibility"
	"github.com/sells-group/outreach-cli/internal/ledger"
	"github.com/sells-group/outreach-cli/internal/model"
)

// Audit is every blocking condition found for one lead.
type Audit struct {
	Lead      model.Lead
	Decision  eligibility.Decision   // what the gate decides
	Conflicts []eligibility.Decision // all blocks in priority order
}

// Check audits leads at stage without changing anything. With no ids it
// audits every lead whose mail track is still open.
func (p *Pipeline) Check(ctx context.Context, stage eligibility.Stage, ids ...string) ([]Audit, error) {
	gate, err := p.Gate(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := p.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var leads []model.Lead
	if len(ids) > 0 {
		for _, id := range ids {
			l, err := p.store.GetLead(ctx, id)
			if err != nil {
				return nil, eris.Wrapf(err, "pipeline: load lead %s", id)
			}
			leads = append(leads, *l)
		}
	} else {
		all, err := p.store.ListLeads(ctx, ledger.Filter{})
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: list leads")
		}
		for _, l := range all {
			if l.MailStatus == model.MailPending || l.MailStatus == model.MailError || l.MailStatus == model.MailBlockedCooldown {
				leads = append(leads, l)
			}
		}
	}

	out := make([]Audit, 0, len(leads))
	for i := range leads {
		l := &leads[i]
		out = append(out, Audit{
			Lead:      *l,
			Decision:  gate.Check(l, stage, snap),
			Conflicts: gate.Audit(l, stage, snap),
		})
	}
	return out, nil
}

// CheckCompany audits a bare company name against the reference lists and
// the companies already mailed.
func (p *Pipeline) CheckCompany(ctx context.Context, company string) (Audit, error) {
	gate, err := p.Gate(ctx)
	if err != nil {
		return Audit{}, err
	}
	snap, err := p.Snapshot(ctx)
	if err != nil {
		return Audit{}, err
	}
	l := model.NewLead()
	l.Company = company
	return Audit{
		Lead:      l,
		Decision:  gate.Check(&l, eligibility.StagePreSend, snap),
		Conflicts: gate.Audit(&l, eligibility.StagePreSend, snap),
	}, nil
}
