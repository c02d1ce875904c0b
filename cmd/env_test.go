package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/generate"
)

func TestInitStore_SQLite(t *testing.T) {
	cfg = &config.Config{
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(t.TempDir(), "test.db"),
		},
	}

	st, err := openLedger(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st)
	defer st.Close() //nolint:errcheck
}

func TestInitStore_SQLiteDefaultDSN(t *testing.T) {
	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer os.Chdir(origDir) //nolint:errcheck

	cfg = &config.Config{Store: config.StoreConfig{Driver: "sqlite"}}

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	_, statErr := os.Stat(filepath.Join(tmpDir, "outreach.db"))
	assert.NoError(t, statErr)
}

func TestInitStore_UnsupportedDriver(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "mysql"}}

	_, err := initStore(context.Background())
	assert.ErrorContains(t, err, "unsupported store driver")
}

func TestInitBackend(t *testing.T) {
	cfg = &config.Config{Generation: config.GenerationConfig{Backend: "anthropic"}}
	b, err := initBackend()
	require.NoError(t, err)
	assert.Equal(t, "anthropic/"+generate.ModelHaiku, b.Name())

	cfg = &config.Config{Generation: config.GenerationConfig{Backend: "openai"}}
	b, err = initBackend()
	require.NoError(t, err)
	assert.Equal(t, "openai/"+generate.ModelGPT41Mini, b.Name())

	cfg = &config.Config{Generation: config.GenerationConfig{Backend: "llama"}}
	_, err = initBackend()
	assert.ErrorContains(t, err, "unsupported generation backend")
}

func TestInitComposer(t *testing.T) {
	cfg = &config.Config{
		Sender:     config.SenderConfig{Name: "Jan de Vries"},
		Generation: config.GenerationConfig{Templates: config.TemplatesConfig{Subject: "{company} x YAG"}},
	}
	c := initComposer(nil)
	assert.Equal(t, "Acme x YAG", c.Subject("Acme"))
	assert.Equal(t, "Young Advisory Group x Acme", generate.NewComposer(nil, generate.Sender{}, generate.Templates{}).Subject("Acme"))
}

func TestInitMailer(t *testing.T) {
	cfg = &config.Config{Mail: config.MailConfig{Port: 587, From: "jan@yag.nl"}}
	_, err := initMailer()
	assert.ErrorContains(t, err, "smtp host is required")

	cfg.Mail.Host = "smtp.example.com"
	s, err := initMailer()
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestInitPipeline_ValidatesMode(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "x.db")}}
	_, err := initPipeline(context.Background(), "send")
	assert.Error(t, err)

	env, err := initPipeline(context.Background(), "overview")
	require.NoError(t, err)
	defer env.Close()
	assert.NotNil(t, env.Pipeline)
}

func TestSendOptions(t *testing.T) {
	cfg = &config.Config{Mail: config.MailConfig{MaxEmails: 50, DelaySecs: 1.5}}

	cmd := &cobra.Command{}
	cmd.Flags().Int("max", 0, "")
	cmd.Flags().Duration("delay", 0, "")

	opts := sendOptions(cmd)
	assert.Equal(t, 50, opts.MaxEmails)
	assert.Equal(t, 1500*time.Millisecond, opts.Delay)

	require.NoError(t, cmd.Flags().Set("max", "5"))
	require.NoError(t, cmd.Flags().Set("delay", "10s"))
	opts = sendOptions(cmd)
	assert.Equal(t, 5, opts.MaxEmails)
	assert.Equal(t, 10*time.Second, opts.Delay)
}
