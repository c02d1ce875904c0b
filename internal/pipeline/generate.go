package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/eligibility"
	"github.com/sells-group/outreach-cli/internal/ledger"
	"github.com/sells-group/outreach-cli/internal/lifecycle"
	"github.com/sells-group/outreach-cli/internal/model"
)

// GenerateOptions controls a generate run.
type GenerateOptions struct {
	Limit  int
	DryRun bool // assemble previews without calling the model
}

// Generate writes messages for enriched leads. Dry-run previews are stored
// as DRY_RUN and promoted back to PENDING by the next live run.
func (p *Pipeline) Generate(ctx context.Context, opts GenerateOptions) (*Report, error) {
	rep := newReport("generate")
	if p.composer == nil {
		return nil, eris.New("pipeline: no composer configured")
	}

	gate, snap, err := p.begin(ctx, rep.Stage)
	if err != nil {
		return nil, err
	}
	leads, err := p.store.ListLeads(ctx, ledger.Filter{EnrichStatus: model.StageDone})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list leads to generate")
	}

	for i := range leads {
		l := &leads[i]
		if !generatable(l, opts.DryRun) {
			continue
		}
		if opts.Limit > 0 && rep.Processed >= opts.Limit {
			break
		}
		if ctx.Err() != nil {
			rep.Stopped = ctx.Err().Error()
			break
		}
		rep.Processed++

		if l.AIStatus == model.StageDryRun {
			if err := lifecycle.PromoteDryRun(l); err != nil {
				rep.fail(l, err)
				continue
			}
		}
		if _, ok := p.gateLead(ctx, gate, l, eligibility.StagePreAI, snap, rep); !ok {
			continue
		}
		if missing := l.MissingMeta(); len(missing) > 0 {
			rep.Skipped++
			lifecycle.Annotate(l, "missing meta fields: "+strings.Join(missing, ", "))
			p.save(ctx, l, rep)
			continue
		}
		p.generateOne(ctx, l, opts.DryRun, rep)
	}
	rep.Log()
	return rep, nil
}

// generatable selects enriched leads whose message is still open. Earlier
// previews are regenerated by live runs only.
func generatable(l *model.Lead, dryRun bool) bool {
	if lifecycle.Terminal(l.MailStatus) || l.MailStatus == model.MailDryRunSent {
		return false
	}
	switch l.AIStatus {
	case model.StagePending, model.StageError:
		return true
	case model.StageDryRun:
		return !dryRun
	default:
		return false
	}
}

func (p *Pipeline) generateOne(ctx context.Context, l *model.Lead, dryRun bool, rep *Report) {
	if err := lifecycle.StartAI(l); err != nil {
		rep.fail(l, err)
		return
	}
	if !p.save(ctx, l, rep) {
		return
	}

	if dryRun {
		draft, err := p.composer.Preview(l)
		if err == nil {
			err = lifecycle.DryRunAI(l, draft.Body)
		}
		p.finishAI(ctx, l, err, rep)
		return
	}

	draft, err := p.composer.Compose(ctx, l)
	if err == nil {
		err = lifecycle.CompleteAI(l, draft.Body, draft.Tokens)
		rep.Tokens += draft.Tokens
		rep.Cost += p.costs.Model(draft.Model, draft.InputTokens, draft.OutputTokens)
	}
	p.finishAI(ctx, l, err, rep)
}

func (p *Pipeline) finishAI(ctx context.Context, l *model.Lead, err error, rep *Report) {
	if err != nil {
		if l.AIStatus == model.StageRunning {
			_ = lifecycle.FailAI(l, err)
		}
		rep.fail(l, err)
		p.save(ctx, l, rep)
		return
	}
	rep.Succeeded++
	p.save(ctx, l, rep)
}
