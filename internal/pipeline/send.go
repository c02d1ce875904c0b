package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-cli/internal/eligibility"
	"github.com/sells-group/outreach-cli/internal/ledger"
	"github.com/sells-group/outreach-cli/internal/lifecycle"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/pkg/mailer"
)

// SendOptions controls a send run.
type SendOptions struct {
	DryRun    bool
	MaxEmails int           // 0 = no cap
	Delay     time.Duration // minimum gap between sends
}

// Send delivers generated messages. Each lead passes the pre-send gate
// against a snapshot that is updated after every send, so two leads of the
// same company are never both mailed in one batch. A tripped circuit
// breaker or the email cap ends the batch.
func (p *Pipeline) Send(ctx context.Context, opts SendOptions) (*Report, error) {
	rep := newReport("send")
	if p.composer == nil {
		return nil, eris.New("pipeline: no composer configured")
	}
	if p.mailer == nil && !opts.DryRun {
		return nil, eris.New("pipeline: no mailer configured")
	}

	gate, snap, err := p.begin(ctx, rep.Stage)
	if err != nil {
		return nil, err
	}
	leads, err := p.store.ListLeads(ctx, ledger.Filter{AIStatus: model.StageDone})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list leads to send")
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Delay), 1)
	}
	breaker := resilience.NewCircuitBreaker(resilience.FromCircuitConfig(
		p.cfg.Circuit.FailureThreshold, p.cfg.Circuit.ResetTimeoutSecs))

	sent := 0
	for i := range leads {
		l := &leads[i]
		if !sendable(l, opts.DryRun) {
			continue
		}
		if opts.MaxEmails > 0 && sent >= opts.MaxEmails {
			rep.Stopped = "max emails reached"
			break
		}
		if ctx.Err() != nil {
			rep.Stopped = ctx.Err().Error()
			break
		}
		rep.Processed++

		if l.MailStatus == model.MailDryRunSent {
			if err := lifecycle.ReopenDryRunSend(l); err != nil {
				rep.fail(l, err)
				continue
			}
		}
		d, ok := p.gateLead(ctx, gate, l, eligibility.StagePreSend, snap, rep)
		if !ok {
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			rep.Stopped = err.Error()
			break
		}
		err := p.sendOne(ctx, l, d, opts.DryRun, breaker, rep)
		if errors.Is(err, resilience.ErrCircuitOpen) {
			rep.Stopped = "mail circuit open"
			break
		}
		if err != nil {
			continue
		}
		sent++
		if !opts.DryRun {
			snap.SentEmails[l.Email] = l.ID
			snap.SentCompanies[l.Company] = l.ID
		}
	}
	rep.Log()
	return rep, nil
}

// sendable selects leads with a finished message and an open mail track.
// Dry-run sends are repeated by live runs only.
func sendable(l *model.Lead, dryRun bool) bool {
	if !l.HasEmail() || l.Message == "" {
		return false
	}
	switch l.MailStatus {
	case model.MailPending, model.MailError, model.MailBlockedCooldown:
		return true
	case model.MailDryRunSent:
		return !dryRun
	default:
		return false
	}
}

// sendOne delivers one message and records the attempt on the lead and in
// the send log. The returned error is the delivery error, if any.
func (p *Pipeline) sendOne(ctx context.Context, l *model.Lead, d eligibility.Decision, dryRun bool, breaker *resilience.CircuitBreaker, rep *Report) error {
	subject := p.composer.Subject(l.Company)
	out := lifecycle.SendOutcome{At: p.now(), DryRun: dryRun, FollowUpDays: p.cfg.Mail.FollowUpDays}

	if !dryRun {
		msg := mailer.Message{To: l.Email, Subject: subject, Body: l.Message, ReplyTo: p.cfg.Mail.ReplyTo, Bcc: p.cfg.Mail.Bcc}
		id, err := resilience.ExecuteVal(ctx, breaker, func(ctx context.Context) (string, error) {
			return p.mailer.Send(ctx, msg)
		})
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return err
		}
		out.MessageID, out.Err = id, err
	}

	if err := lifecycle.RecordSend(l, d, out); err != nil {
		rep.fail(l, err)
		return err
	}

	entry := &model.SendLogEntry{
		LeadID:     l.ID,
		Email:      l.Email,
		Company:    l.Company,
		FirstName:  l.FirstName,
		JobTitle:   l.JobTitle,
		Consultant: l.Consultant,
		Branch:     l.Branch,
		Status:     l.MailStatus,
		MessageID:  out.MessageID,
		Subject:    subject,
		Body:       l.Message,
		CreatedAt:  out.At,
	}
	if out.Err != nil {
		entry.Error = out.Err.Error()
	}
	if err := p.store.AppendSendLog(ctx, entry); err != nil {
		zap.L().Error("pipeline: append send log", zap.String("lead", l.Label()), zap.Error(err))
	}
	p.save(ctx, l, rep)

	if out.Err != nil {
		rep.fail(l, out.Err)
		return out.Err
	}
	rep.Succeeded++
	zap.L().Info("pipeline: lead sent",
		zap.String("lead", l.Label()),
		zap.String("email", l.Email),
		zap.Bool("dry_run", dryRun),
		zap.String("message_id", out.MessageID),
	)
	return nil
}
