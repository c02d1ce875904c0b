package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/outreach-cli/internal/eligibility"
	"github.com/sells-group/outreach-cli/internal/lifecycle"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/pipeline"
)

func TestFormatAudits(t *testing.T) {
	l := model.NewLead()
	l.ID = "abc12345-6789-0000-0000-000000000000"
	l.Company = "Acme Holding B.V."
	audits := []pipeline.Audit{{
		Lead:     l,
		Decision: eligibility.Decision{Verdict: eligibility.BlockedDNC, Reason: "on do-not-contact list"},
		Conflicts: []eligibility.Decision{
			{Verdict: eligibility.BlockedDNC, Reason: "on do-not-contact list"},
			{Verdict: eligibility.BlockedCooldown, Reason: "recently contacted"},
		},
	}}

	var buf bytes.Buffer
	formatAudits(&buf, audits)
	out := buf.String()
	assert.Contains(t, out, "VERDICT")
	assert.Contains(t, out, "abc12345")
	assert.NotContains(t, out, "abc12345-6789")
	assert.Contains(t, out, "BLOCKED_DNC")
	assert.Contains(t, out, "BLOCKED_COOLDOWN")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("BLOCKED_DNC")))
}

func TestFormatOverview(t *testing.T) {
	due := time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)
	l := model.NewLead()
	l.Company, l.FirstName, l.Email, l.FollowUpAt = "Gamma Logistics", "Kees", "kees@gamma.nl", &due

	ov := &pipeline.Overview{
		Total:      3,
		Tokens:     120,
		Enrich:     map[model.StageStatus]int{model.StagePending: 2, model.StageDone: 1},
		AI:         map[model.StageStatus]int{model.StagePending: 2, model.StageDone: 1},
		Mail:       map[model.MailStatus]int{model.MailPending: 2, model.MailSent: 1},
		Consultant: map[string]int{"Sanne": 3},
		FollowUps:  []model.Lead{l},
		RecentSent: []model.SendLogEntry{{Company: "Gamma Logistics", Email: "kees@gamma.nl", Status: model.MailSent, CreatedAt: due}},
	}

	var buf bytes.Buffer
	formatOverview(&buf, ov)
	out := buf.String()
	assert.Contains(t, out, "Leads: 3  Tokens: 120")
	assert.Contains(t, out, "BLOCKED_COOLDOWN")
	assert.Contains(t, out, "Sanne")
	assert.Contains(t, out, "Follow-up due (1)")
	assert.Contains(t, out, "due 2026-04-20")
	assert.Contains(t, out, "Recent sends:")
}

func TestFormatStale(t *testing.T) {
	var buf bytes.Buffer
	formatStale(&buf, nil, false)
	assert.Equal(t, "No stale leads.\n", buf.String())

	buf.Reset()
	formatStale(&buf, []*lifecycle.StaleError{{LeadID: "abc12345-xyz", Label: "Acme | Jan", Track: lifecycle.TrackEnrich}}, true)
	assert.Contains(t, buf.String(), "abc12345  ")
	assert.Contains(t, buf.String(), "1 lead(s) requeued.")
}

func TestPrintReport(t *testing.T) {
	rep := &pipeline.Report{
		Stage:     "send",
		Processed: 2,
		Succeeded: 1,
		Verdicts:  map[eligibility.Verdict]int{eligibility.BlockedSuppressed: 1},
		Errors:    []pipeline.LeadError{{LeadID: "l2", Label: "Beta | Anna", Err: errors.New("smtp: 550")}},
	}
	var buf bytes.Buffer
	printReport(&buf, rep)
	assert.Contains(t, buf.String(), "send: processed=2 ok=1 skipped=0 failed=1 blocked_suppressed=1")
	assert.Contains(t, buf.String(), "  error: Beta | Anna (l2): smtp: 550")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 30))
	assert.Equal(t, "Aardappelverwerking...", truncate("Aardappelverwerkingsindustrie Nederland", 22))
	assert.Equal(t, "abc", truncateID("abc"))
}

func TestPrintReport_Cost(t *testing.T) {
	rep := &pipeline.Report{Stage: "generate", Processed: 1, Succeeded: 1, Tokens: 120, Cost: 0.5}
	var buf bytes.Buffer
	printReport(&buf, rep)
	assert.Equal(t, "generate: processed=1 ok=1 skipped=0 failed=0 tokens=120 cost=$0.50\n", buf.String())
}
