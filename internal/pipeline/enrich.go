package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/eligibility"
	"github.com/sells-group/outreach-cli/internal/ledger"
	"github.com/sells-group/outreach-cli/internal/lifecycle"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/lusha"
)

// EnrichOptions controls an enrich run.
type EnrichOptions struct {
	Limit int // 0 = every pending lead
}

// Enrich reveals contact details for pending leads. Leads are grouped by
// the search request that returned them, since the provider only enriches
// ids within one request.
func (p *Pipeline) Enrich(ctx context.Context, opts EnrichOptions) (*Report, error) {
	rep := newReport("enrich")
	if p.lusha == nil {
		return nil, eris.New("pipeline: no lead provider configured")
	}

	gate, snap, err := p.begin(ctx, rep.Stage)
	if err != nil {
		return nil, err
	}
	leads, err := p.store.ListLeads(ctx, ledger.Filter{EnrichStatus: model.StagePending, Limit: opts.Limit})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list leads to enrich")
	}

	groups := make(map[string][]*model.Lead)
	var order []string
	for i := range leads {
		l := &leads[i]
		if lifecycle.Terminal(l.MailStatus) {
			continue
		}
		rep.Processed++
		if _, ok := p.gateLead(ctx, gate, l, eligibility.StagePreEnrich, snap, rep); !ok {
			continue
		}
		if l.RequestID == "" || l.ContactID == "" {
			rep.Skipped++
			lifecycle.Annotate(l, "cannot enrich: missing request or contact id")
			p.save(ctx, l, rep)
			continue
		}
		if _, ok := groups[l.RequestID]; !ok {
			order = append(order, l.RequestID)
		}
		groups[l.RequestID] = append(groups[l.RequestID], l)
	}

	for _, reqID := range order {
		if ctx.Err() != nil {
			rep.Stopped = ctx.Err().Error()
			break
		}
		p.enrichGroup(ctx, reqID, groups[reqID], rep)
	}
	rep.Log()
	return rep, nil
}

func (p *Pipeline) enrichGroup(ctx context.Context, reqID string, group []*model.Lead, rep *Report) {
	var running []*model.Lead
	ids := make([]string, 0, len(group))
	for _, l := range group {
		if err := lifecycle.StartEnrich(l); err != nil {
			rep.fail(l, err)
			continue
		}
		if !p.save(ctx, l, rep) {
			continue
		}
		running = append(running, l)
		ids = append(ids, l.ContactID)
	}
	if len(running) == 0 {
		return
	}

	enriched, err := p.lusha.Enrich(ctx, reqID, ids)
	if err != nil {
		for _, l := range running {
			_ = lifecycle.FailEnrich(l, err)
			rep.fail(l, err)
			p.save(ctx, l, rep)
		}
		return
	}

	rep.Cost += p.costs.Enrichment(len(enriched))

	byID := make(map[string]lusha.Enriched, len(enriched))
	for _, e := range enriched {
		byID[e.ContactID] = e
	}
	for _, l := range running {
		e := byID[l.ContactID]
		if err := lifecycle.CompleteEnrich(l, lifecycle.Contact{Email: e.Email, Phone: e.Phone, LinkedInURL: e.LinkedIn}); err != nil {
			rep.fail(l, err)
			continue
		}
		if l.MailStatus == model.MailBlockedNoEmail {
			rep.Skipped++
		} else {
			rep.Succeeded++
		}
		p.save(ctx, l, rep)
	}
	zap.L().Info("pipeline: enriched request",
		zap.String("request_id", reqID),
		zap.Int("leads", len(running)),
		zap.Int("returned", len(enriched)),
	)
}
