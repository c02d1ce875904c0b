package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/ledger"
	"github.com/sells-group/outreach-cli/internal/lifecycle"
	"github.com/sells-group/outreach-cli/internal/model"
)

// Stale lists leads an interrupted batch left in RUNNING.
func (p *Pipeline) Stale(ctx context.Context) ([]*lifecycle.StaleError, error) {
	leads, err := p.store.ListLeads(ctx, ledger.Filter{})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list leads")
	}
	return lifecycle.Stale(leads), nil
}

// Reconcile reports stale leads and, with requeue, moves them back to
// PENDING so the next run picks them up.
func (p *Pipeline) Reconcile(ctx context.Context, requeue bool) ([]*lifecycle.StaleError, error) {
	stale, err := p.Stale(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range stale {
		zap.L().Warn("pipeline: stale lead", zap.Error(s))
		if !requeue {
			continue
		}
		l, err := p.store.GetLead(ctx, s.LeadID)
		if err != nil {
			return stale, eris.Wrapf(err, "pipeline: load stale lead %s", s.LeadID)
		}
		if err := lifecycle.Requeue(l, s.Track, "requeued after interrupted "+string(s.Track)+" run"); err != nil {
			return stale, err
		}
		if err := p.store.UpdateLead(ctx, l); err != nil {
			return stale, eris.Wrapf(err, "pipeline: save requeued lead %s", s.LeadID)
		}
	}
	return stale, nil
}

// ArchiveResult counts what Archive moved out of the active ledger.
type ArchiveResult struct {
	Archived int
	Deleted  int
}

// Archive moves do-not-contact leads to the archive and deletes leads for
// which no email was found. Both stay suppressed through the send log.
func (p *Pipeline) Archive(ctx context.Context) (ArchiveResult, error) {
	var res ArchiveResult

	dnc, err := p.store.ListLeads(ctx, ledger.Filter{MailStatus: model.MailBlockedDNC})
	if err != nil {
		return res, eris.Wrap(err, "pipeline: list dnc leads")
	}
	for i := range dnc {
		reason := dnc[i].Annotation
		if reason == "" {
			reason = "do not contact"
		}
		if err := p.store.Archive(ctx, dnc[i].ID, reason); err != nil {
			return res, err
		}
		res.Archived++
	}

	noEmail, err := p.store.ListLeads(ctx, ledger.Filter{MailStatus: model.MailBlockedNoEmail})
	if err != nil {
		return res, eris.Wrap(err, "pipeline: list leads without email")
	}
	for i := range noEmail {
		if err := p.store.Delete(ctx, noEmail[i].ID); err != nil {
			return res, err
		}
		res.Deleted++
	}

	zap.L().Info("pipeline: archive complete", zap.Int("archived", res.Archived), zap.Int("deleted", res.Deleted))
	return res, nil
}

// Overview counts leads per status on every track.
type Overview struct {
	Total      int
	Enrich     map[model.StageStatus]int
	AI         map[model.StageStatus]int
	Mail       map[model.MailStatus]int
	Consultant map[string]int
	Tokens     int64
	FollowUps  []model.Lead // sent leads whose follow-up date has passed
	RecentSent []model.SendLogEntry
}

// Overview summarizes the ledger.
func (p *Pipeline) Overview(ctx context.Context, recent int) (*Overview, error) {
	leads, err := p.store.ListLeads(ctx, ledger.Filter{})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list leads")
	}
	ov := &Overview{
		Total:      len(leads),
		Enrich:     make(map[model.StageStatus]int),
		AI:         make(map[model.StageStatus]int),
		Mail:       make(map[model.MailStatus]int),
		Consultant: make(map[string]int),
	}
	now := p.now()
	for _, l := range leads {
		ov.Enrich[l.EnrichStatus]++
		ov.AI[l.AIStatus]++
		ov.Mail[l.MailStatus]++
		consultant := strings.TrimSpace(l.Consultant)
		if consultant == "" {
			consultant = "(none)"
		}
		ov.Consultant[consultant]++
		ov.Tokens += l.TokensUsed
		if l.MailStatus == model.MailSent && !l.ReplyReceived && l.FollowUpAt != nil && !l.FollowUpAt.After(now) {
			ov.FollowUps = append(ov.FollowUps, l)
		}
	}
	if recent > 0 {
		if ov.RecentSent, err = p.store.ListSendLog(ctx, recent); err != nil {
			return nil, eris.Wrap(err, "pipeline: list send log")
		}
	}
	return ov, nil
}
