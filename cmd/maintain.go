package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/eligibility"
	"github.com/sells-group/outreach-cli/internal/lifecycle"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/pipeline"
)

// -- check --

var checkCmd = &cobra.Command{
	Use:   "check [lead-id...]",
	Short: "Audit leads or a company against every eligibility rule",
	Long: "Runs every gate check without changing the ledger. With lead ids only those leads are " +
		"audited; with --company a bare company name is checked.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initPipeline(ctx, "check")
		if err != nil {
			return err
		}
		defer env.Close()

		if company, _ := cmd.Flags().GetString("company"); company != "" {
			a, err := env.Pipeline.CheckCompany(ctx, company)
			if err != nil {
				return eris.Wrap(err, "check company")
			}
			formatAudits(os.Stdout, []pipeline.Audit{a})
			return nil
		}

		raw, _ := cmd.Flags().GetString("stage")
		stage, err := eligibility.ParseStage(raw)
		if err != nil {
			return err
		}
		audits, err := env.Pipeline.Check(ctx, stage, args...)
		if err != nil {
			return eris.Wrap(err, "check")
		}
		if len(audits) == 0 {
			fmt.Fprintln(os.Stderr, "No open leads.")
			return nil
		}
		formatAudits(os.Stdout, audits)
		return nil
	},
}

func formatAudits(out io.Writer, audits []pipeline.Audit) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "LEAD\tCOMPANY\tVERDICT\tREASON")
	_, _ = fmt.Fprintln(w, "----\t-------\t-------\t------")
	for _, a := range audits {
		id := truncateID(a.Lead.ID)
		if id == "" {
			id = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, truncate(a.Lead.Company, 30), a.Decision.Verdict, a.Decision.Reason)
		for _, c := range a.Conflicts {
			if c.Verdict == a.Decision.Verdict {
				continue
			}
			_, _ = fmt.Fprintf(w, "\t\t%s\t%s\n", c.Verdict, c.Reason)
		}
	}
	_ = w.Flush()
}

// -- overview --

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Summarize the ledger per status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initPipeline(ctx, "overview")
		if err != nil {
			return err
		}
		defer env.Close()

		recent, _ := cmd.Flags().GetInt("recent")
		ov, err := env.Pipeline.Overview(ctx, recent)
		if err != nil {
			return eris.Wrap(err, "overview")
		}
		formatOverview(os.Stdout, ov)
		return nil
	},
}

func formatOverview(out io.Writer, ov *pipeline.Overview) {
	_, _ = fmt.Fprintf(out, "Leads: %d  Tokens: %d\n\n", ov.Total, ov.Tokens)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STATUS\tENRICH\tAI\tMAIL")
	_, _ = fmt.Fprintln(w, "------\t------\t--\t----")
	stages := []model.StageStatus{model.StagePending, model.StageRunning, model.StageDone, model.StageError, model.StageDryRun}
	for _, s := range stages {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", s, ov.Enrich[s], ov.AI[s], ov.Mail[model.MailStatus(s)])
	}
	for _, s := range model.AllMailStatuses {
		if slices.Contains(stages, model.StageStatus(s)) {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t\t\t%d\n", s, ov.Mail[s])
	}
	_ = w.Flush()

	if len(ov.Consultant) > 0 {
		_, _ = fmt.Fprintln(out)
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "CONSULTANT\tLEADS")
		names := make([]string, 0, len(ov.Consultant))
		for name := range ov.Consultant {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			_, _ = fmt.Fprintf(w, "%s\t%d\n", name, ov.Consultant[name])
		}
		_ = w.Flush()
	}

	if len(ov.FollowUps) > 0 {
		_, _ = fmt.Fprintf(out, "\nFollow-up due (%d):\n", len(ov.FollowUps))
		for _, l := range ov.FollowUps {
			_, _ = fmt.Fprintf(out, "  %s  %s  due %s\n", l.Label(), l.Email, l.FollowUpAt.Format("2006-01-02"))
		}
	}

	if len(ov.RecentSent) > 0 {
		_, _ = fmt.Fprintln(out, "\nRecent sends:")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, e := range ov.RecentSent {
			_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", e.CreatedAt.Format("2006-01-02 15:04"), e.Status, truncate(e.Company, 30), e.Email)
		}
		_ = w.Flush()
	}
}

// -- reconcile --

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "List leads left RUNNING by an interrupted run",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initPipeline(ctx, "reconcile")
		if err != nil {
			return err
		}
		defer env.Close()

		requeue, _ := cmd.Flags().GetBool("requeue")
		stale, err := env.Pipeline.Reconcile(ctx, requeue)
		if err != nil {
			return eris.Wrap(err, "reconcile")
		}
		formatStale(os.Stdout, stale, requeue)
		return nil
	},
}

func formatStale(out io.Writer, stale []*lifecycle.StaleError, requeued bool) {
	if len(stale) == 0 {
		_, _ = fmt.Fprintln(out, "No stale leads.")
		return
	}
	for _, s := range stale {
		_, _ = fmt.Fprintf(out, "%s  %s\n", truncateID(s.LeadID), s.Error())
	}
	if requeued {
		_, _ = fmt.Fprintf(out, "%d lead(s) requeued.\n", len(stale))
	} else {
		_, _ = fmt.Fprintln(out, "Run with --requeue to move them back to PENDING.")
	}
}

// -- archive --

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive do-not-contact leads and drop leads without email",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initPipeline(ctx, "archive")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.Archive(ctx)
		if err != nil {
			return eris.Wrap(err, "archive")
		}
		fmt.Printf("archived=%d deleted=%d\n", res.Archived, res.Deleted)
		return nil
	},
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return strings.TrimSpace(string(r[:n-3])) + "..."
	}
	return s
}

func init() {
	checkCmd.Flags().String("stage", string(eligibility.StagePreSend), "checkpoint to audit at: post-fetch, pre-enrich, pre-ai or pre-send")
	checkCmd.Flags().String("company", "", "check a bare company name instead of ledger leads")
	overviewCmd.Flags().Int("recent", 10, "number of recent sends to show")
	reconcileCmd.Flags().Bool("requeue", false, "move stale leads back to PENDING")

	rootCmd.AddCommand(checkCmd, overviewCmd, reconcileCmd, archiveCmd)
}
