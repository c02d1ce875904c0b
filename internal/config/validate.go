package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings a command needs. Gated commands never run
// without a do-not-contact list; live sends need SMTP and a sender.
func (c *Config) Validate(mode string) error {
	var errs []string
	require := func(ok bool, key string) {
		if !ok {
			errs = append(errs, key+" is required")
		}
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	require(c.Store.DatabaseURL != "", "store.database_url")

	switch mode {
	case "fetch", "enrich":
		require(c.Reference.DNCPath != "", "reference.dnc_path")
		require(c.Lusha.Key != "", "lusha.key")
		if c.Lusha.PageSize < 1 || c.Lusha.PageSize > 100 {
			errs = append(errs, "lusha.page_size must be between 1 and 100")
		}
	case "generate":
		require(c.Reference.DNCPath != "", "reference.dnc_path")
		require(c.Sender.Name != "", "sender.name")
		if !c.DryRun {
			switch c.Generation.Backend {
			case "anthropic":
				require(c.Anthropic.Key != "", "anthropic.key")
			case "openai":
				require(c.OpenAI.Key != "", "openai.key")
			default:
				errs = append(errs, "generation.backend must be anthropic or openai")
			}
		}
	case "send":
		require(c.Reference.DNCPath != "", "reference.dnc_path")
		if !c.DryRun {
			require(c.Mail.Host != "", "mail.host")
			require(c.MailFrom() != "", "mail.from")
		}
		if c.Mail.MaxEmails < 0 {
			errs = append(errs, "mail.max_emails must be >= 0")
		}
		if c.Mail.DelaySecs < 0 {
			errs = append(errs, "mail.delay_secs must be >= 0")
		}
	case "check":
		require(c.Reference.DNCPath != "", "reference.dnc_path")
	case "overview", "reconcile", "archive", "import", "export":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Eligibility.LightDays < 0 || c.Eligibility.HeavyDays < 0 {
		errs = append(errs, "eligibility cooldown windows must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// MailFrom is the envelope sender: mail.from, else the sender's email.
func (c *Config) MailFrom() string {
	if c.Mail.From != "" {
		return c.Mail.From
	}
	return c.Sender.Email
}
