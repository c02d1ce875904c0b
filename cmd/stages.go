package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/pipeline"
)

// -- fetch --

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Search Lusha for new leads and add them to the ledger",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "fetch")
		if err != nil {
			return err
		}
		defer env.Close()

		preset, _ := cmd.Flags().GetString("preset")
		start, _ := cmd.Flags().GetInt("start-page")
		pages, _ := cmd.Flags().GetInt("pages")
		meta := pipeline.Meta{Branch: cfg.Sender.Branch}
		meta.Consultant, _ = cmd.Flags().GetString("consultant")
		if b, _ := cmd.Flags().GetString("branch"); b != "" {
			meta.Branch = b
		}
		meta.ContactType, _ = cmd.Flags().GetString("type")
		meta.Cases, _ = cmd.Flags().GetString("cases")
		meta.Channel, _ = cmd.Flags().GetString("channel")
		if meta.Consultant == "" {
			meta.Consultant = cfg.Sender.Name
		}

		rep, err := env.Pipeline.Fetch(ctx, pipeline.FetchOptions{
			Preset:    preset,
			StartPage: start,
			Pages:     pages,
			Meta:      meta,
		})
		if err != nil {
			return eris.Wrap(err, "fetch")
		}
		printReport(os.Stdout, rep)
		return nil
	},
}

// -- enrich --

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Reveal email and phone for pending leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		rep, err := env.Pipeline.Enrich(ctx, pipeline.EnrichOptions{Limit: limit})
		if err != nil {
			return eris.Wrap(err, "enrich")
		}
		printReport(os.Stdout, rep)
		return nil
	},
}

// -- generate --

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write personalised messages for enriched leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "generate")
		if err != nil {
			return err
		}
		defer env.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		rep, err := env.Pipeline.Generate(ctx, pipeline.GenerateOptions{Limit: limit, DryRun: cfg.DryRun})
		if err != nil {
			return eris.Wrap(err, "generate")
		}
		printReport(os.Stdout, rep)
		return nil
	},
}

// -- send --

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Mail generated messages to eligible leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "send")
		if err != nil {
			return err
		}
		defer env.Close()

		opts := sendOptions(cmd)
		rep, err := env.Pipeline.Send(ctx, opts)
		if err != nil {
			return eris.Wrap(err, "send")
		}
		printReport(os.Stdout, rep)
		return nil
	},
}

// sendOptions merges the send flags over the mail config.
func sendOptions(cmd *cobra.Command) pipeline.SendOptions {
	opts := pipeline.SendOptions{
		DryRun:    cfg.DryRun,
		MaxEmails: cfg.Mail.MaxEmails,
		Delay:     time.Duration(cfg.Mail.DelaySecs * float64(time.Second)),
	}
	if cmd.Flags().Changed("max") {
		opts.MaxEmails, _ = cmd.Flags().GetInt("max")
	}
	if cmd.Flags().Changed("delay") {
		opts.Delay, _ = cmd.Flags().GetDuration("delay")
	}
	return opts
}

func printReport(out io.Writer, rep *pipeline.Report) {
	_, _ = fmt.Fprintln(out, rep.String())
	for _, e := range rep.Errors {
		_, _ = fmt.Fprintf(out, "  error: %s\n", e.Error())
	}
}

func init() {
	fetchCmd.Flags().String("preset", "", "search preset (default from config)")
	fetchCmd.Flags().Int("start-page", 0, "first result page")
	fetchCmd.Flags().Int("pages", 1, "number of result pages")
	fetchCmd.Flags().String("consultant", "", "consultant stamped on the leads (default sender name)")
	fetchCmd.Flags().String("branch", "", "branch stamped on the leads (default from config)")
	fetchCmd.Flags().String("type", "", "contact type, e.g. Koud")
	fetchCmd.Flags().String("cases", "", "cases stamped on the leads")
	fetchCmd.Flags().String("channel", "Lusha", "how the contact was found")

	enrichCmd.Flags().Int("limit", 0, "max leads to enrich (0 = all)")
	generateCmd.Flags().Int("limit", 0, "max leads to generate for (0 = all)")

	sendCmd.Flags().Int("max", 0, "max emails this run (default from config)")
	sendCmd.Flags().Duration("delay", 0, "minimum delay between emails (default from config)")

	rootCmd.AddCommand(fetchCmd, enrichCmd, generateCmd, sendCmd)
}
