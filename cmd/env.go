package main

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/fetcher"
	"github.com/sells-group/outreach-cli/internal/generate"
	"github.com/sells-group/outreach-cli/internal/ledger"
	"github.com/sells-group/outreach-cli/internal/pipeline"
	"github.com/sells-group/outreach-cli/internal/reference"
	"github.com/sells-group/outreach-cli/internal/resilience"
	anthropicpkg "github.com/sells-group/outreach-cli/pkg/anthropic"
	"github.com/sells-group/outreach-cli/pkg/lusha"
	"github.com/sells-group/outreach-cli/pkg/mailer"
)

// pipelineEnv holds the ledger and the pipeline built for one command.
type pipelineEnv struct {
	Store    ledger.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates the config for mode, opens the ledger and wires
// the collaborators that mode needs. Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := openLedger(ctx)
	if err != nil {
		return nil, err
	}

	var (
		lushaClient lusha.Client
		composer    *generate.Composer
		sender      mailer.Sender
	)
	switch mode {
	case "fetch", "enrich":
		lushaClient = initLusha()
	case "generate":
		var backend generate.Backend
		if !cfg.DryRun {
			if backend, err = initBackend(); err != nil {
				_ = st.Close()
				return nil, err
			}
		}
		composer = initComposer(backend)
	case "send":
		composer = initComposer(nil)
		if !cfg.DryRun {
			if sender, err = initMailer(); err != nil {
				_ = st.Close()
				return nil, err
			}
		}
	}

	p := pipeline.New(cfg, st, initReferences(), lushaClient, composer, sender)
	return &pipelineEnv{Store: st, Pipeline: p}, nil
}

func retryConfig() resilience.RetryConfig {
	return resilience.FromRetryConfig(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs, cfg.Retry.MaxBackoffMs)
}

func initReferences() *reference.Loader {
	return &reference.Loader{
		DNCPath:    cfg.Reference.DNCPath,
		RecentPath: cfg.Reference.RecentPath,
		Fetcher: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			Timeout: 60 * time.Second,
			Retry:   retryConfig(),
		}),
	}
}

func initLusha() lusha.Client {
	opts := []lusha.Option{lusha.WithRateLimit(cfg.Lusha.RateLimit), lusha.WithRetry(retryConfig())}
	if cfg.Lusha.BaseURL != "" {
		opts = append(opts, lusha.WithBaseURL(cfg.Lusha.BaseURL))
	}
	return lusha.NewClient(cfg.Lusha.Key, opts...)
}

func initBackend() (generate.Backend, error) {
	switch cfg.Generation.Backend {
	case "anthropic", "":
		model := cfg.Generation.Model
		if model == "" {
			model = generate.ModelHaiku
		}
		var opts []option.RequestOption
		if cfg.Anthropic.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.Anthropic.BaseURL))
		}
		return generate.NewAnthropicBackend(anthropicpkg.NewClient(cfg.Anthropic.Key, opts...), model), nil
	case "openai":
		model := cfg.Generation.Model
		if model == "" {
			model = generate.ModelGPT41Mini
		}
		return generate.NewOpenAIBackend(cfg.OpenAI.Key, model, cfg.OpenAI.BaseURL), nil
	default:
		return nil, eris.Errorf("unsupported generation backend: %s", cfg.Generation.Backend)
	}
}

func initComposer(backend generate.Backend) *generate.Composer {
	t := cfg.Generation.Templates
	c := generate.NewComposer(backend, generate.Sender{
		Name:       cfg.Sender.Name,
		Email:      cfg.Sender.Email,
		Phone:      cfg.Sender.Phone,
		Study:      cfg.Sender.Study,
		University: cfg.Sender.University,
	}, generate.Templates{
		Opening:   t.Opening,
		Pitch:     t.Pitch,
		Signature: t.Signature,
		Subject:   t.Subject,
	})
	c.SetMaxTokens(cfg.Generation.MaxTokens)
	return c
}

func initMailer() (mailer.Sender, error) {
	s, err := mailer.NewSMTPSender(mailer.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.MailFrom(),
		FromName: cfg.Sender.Name,
		Retry:    retryConfig(),
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
