package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "outreach.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 8, cfg.Eligibility.DNCMinLen)
	assert.Equal(t, 4, cfg.Eligibility.RecentMinLen)
	assert.Equal(t, 8, cfg.Eligibility.CompanyMinLen)
	assert.Equal(t, 90, cfg.Eligibility.LightDays)
	assert.Equal(t, 365, cfg.Eligibility.HeavyDays)
	assert.Equal(t, "https://api.lusha.com/prospecting", cfg.Lusha.BaseURL)
	assert.Equal(t, 10, cfg.Lusha.PageSize)
	assert.Equal(t, "nl_midsized_csuite", cfg.Lusha.Preset)
	assert.Equal(t, "anthropic", cfg.Generation.Backend)
	assert.EqualValues(t, 400, cfg.Generation.MaxTokens)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, 50, cfg.Mail.MaxEmails)
	assert.Equal(t, 7, cfg.Mail.FollowUpDays)
	assert.InDelta(t, 2.0, cfg.Mail.DelaySecs, 0.001)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 5, cfg.Circuit.FailureThreshold)
	assert.False(t, cfg.DryRun)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/outreach
log:
  level: debug
  format: json
mail:
  max_emails: 10
  bcc: [crm@youngadvisory.nl]
eligibility:
  light_tags: [gemaild, gebeld]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10, cfg.Mail.MaxEmails)
	assert.Equal(t, []string{"crm@youngadvisory.nl"}, cfg.Mail.Bcc)
	assert.Equal(t, []string{"gemaild", "gebeld"}, cfg.Eligibility.LightTags)
	// Defaults still apply for unset values
	assert.Equal(t, 365, cfg.Eligibility.HeavyDays)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("OUTREACH_STORE_DRIVER", "postgres")
	t.Setenv("OUTREACH_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadProfile(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(
		"LUSHA_API_KEY=base-key\nSENDER_NAME=Base Consultant\nMAX_EMAILS=20\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.jan"), []byte(
		"SENDER_NAME=Jan de Vries\nSENDER_EMAIL=jan@youngadvisory.nl\nDRY_RUN=true\n"), 0644))

	for _, k := range []string{"LUSHA_API_KEY", "SENDER_NAME", "SENDER_EMAIL", "MAX_EMAILS", "DRY_RUN"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load("jan")
	require.NoError(t, err)

	assert.Equal(t, "jan", cfg.Profile)
	assert.Equal(t, "Jan de Vries", cfg.Sender.Name, "profile wins over .env")
	assert.Equal(t, "jan@youngadvisory.nl", cfg.MailFrom())
	assert.Equal(t, "base-key", cfg.Lusha.Key)
	assert.Equal(t, 20, cfg.Mail.MaxEmails)
	assert.True(t, cfg.DryRun)
}

func TestLoadProfile_Missing(t *testing.T) {
	chdirTemp(t)

	_, err := Load("nobody")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nobody")
}

func TestPrefixedEnvWinsOverLegacy(t *testing.T) {
	chdirTemp(t)
	t.Setenv("OUTREACH_LUSHA_KEY", "prefixed")
	t.Setenv("LUSHA_API_KEY", "legacy")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Lusha.Key)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outreach.log")
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1}))

	zap.L().Info("file logging works")
	_ = zap.L().Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "file logging works")
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "outreach.db"
	cfg.Reference.DNCPath = "dnc.xlsx"
	cfg.Lusha.PageSize = 10
	cfg.Generation.Backend = "anthropic"
	cfg.Eligibility.LightDays = 90
	cfg.Eligibility.HeavyDays = 365
	return cfg
}

func TestValidateFetch(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("fetch")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "lusha.key is required")

	cfg.Lusha.Key = "lusha"
	assert.NoError(t, cfg.Validate("fetch"))
	assert.NoError(t, cfg.Validate("enrich"))

	cfg.Lusha.PageSize = 0
	assert.ErrorContains(t, cfg.Validate("fetch"), "lusha.page_size")
}

func TestValidate_DNCRequired(t *testing.T) {
	cfg := validDefaults()
	cfg.Reference.DNCPath = ""
	cfg.Lusha.Key = "k"
	cfg.DryRun = true
	cfg.Sender.Name = "Jan"

	for _, mode := range []string{"fetch", "enrich", "generate", "send", "check"} {
		err := cfg.Validate(mode)
		require.Error(t, err, mode)
		assert.Contains(t, err.Error(), "reference.dnc_path is required", mode)
	}
	assert.NoError(t, cfg.Validate("overview"))
}

func TestValidateGenerate(t *testing.T) {
	cfg := validDefaults()
	cfg.Sender.Name = "Jan"

	err := cfg.Validate("generate")
	assert.ErrorContains(t, err, "anthropic.key is required")

	cfg.Generation.Backend = "openai"
	assert.ErrorContains(t, cfg.Validate("generate"), "openai.key is required")
	cfg.OpenAI.Key = "sk"
	assert.NoError(t, cfg.Validate("generate"))

	cfg.Generation.Backend = "mistral"
	assert.ErrorContains(t, cfg.Validate("generate"), "generation.backend")

	cfg.DryRun = true
	assert.NoError(t, cfg.Validate("generate"), "dry runs need no model key")
}

func TestValidateSend(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("send")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mail.host is required")
	assert.Contains(t, err.Error(), "mail.from is required")

	cfg.Mail.Host = "smtp.example.com"
	cfg.Sender.Email = "jan@youngadvisory.nl"
	assert.NoError(t, cfg.Validate("send"))

	cfg.Mail.MaxEmails = -1
	assert.ErrorContains(t, cfg.Validate("send"), "mail.max_emails")

	dry := validDefaults()
	dry.DryRun = true
	assert.NoError(t, dry.Validate("send"))
}

func TestValidateStoreDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	assert.ErrorContains(t, cfg.Validate("overview"), "store.driver")

	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""
	assert.ErrorContains(t, cfg.Validate("overview"), "store.database_url is required")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
