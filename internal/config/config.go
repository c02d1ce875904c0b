package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"

	"github.com/sells-group/outreach-cli/internal/cost"
)

// Config holds the full application configuration.
type Config struct {
	Profile     string            `yaml:"-" mapstructure:"-"`
	DryRun      bool              `yaml:"dry_run" mapstructure:"dry_run"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Reference   ReferenceConfig   `yaml:"reference" mapstructure:"reference"`
	Eligibility EligibilityConfig `yaml:"eligibility" mapstructure:"eligibility"`
	Lusha       LushaConfig       `yaml:"lusha" mapstructure:"lusha"`
	Generation  GenerationConfig  `yaml:"generation" mapstructure:"generation"`
	Anthropic   AnthropicConfig   `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI      OpenAIConfig      `yaml:"openai" mapstructure:"openai"`
	Sender      SenderConfig      `yaml:"sender" mapstructure:"sender"`
	Mail        MailConfig        `yaml:"mail" mapstructure:"mail"`
	Sheet       SheetConfig       `yaml:"sheet" mapstructure:"sheet"`
	Retry       RetryConfig       `yaml:"retry" mapstructure:"retry"`
	Circuit     CircuitConfig     `yaml:"circuit" mapstructure:"circuit"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Pricing     cost.Rates        `yaml:"pricing" mapstructure:"pricing"`
}

// StoreConfig configures the ledger backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ReferenceConfig points at the do-not-contact and recent-contacts lists.
type ReferenceConfig struct {
	DNCPath    string `yaml:"dnc_path" mapstructure:"dnc_path"`
	RecentPath string `yaml:"recent_path" mapstructure:"recent_path"`
}

// EligibilityConfig tunes matching thresholds and cooldown windows.
type EligibilityConfig struct {
	DNCMinLen     int      `yaml:"dnc_min_len" mapstructure:"dnc_min_len"`
	RecentMinLen  int      `yaml:"recent_min_len" mapstructure:"recent_min_len"`
	CompanyMinLen int      `yaml:"company_min_len" mapstructure:"company_min_len"`
	LightDays     int      `yaml:"light_days" mapstructure:"light_days"`
	HeavyDays     int      `yaml:"heavy_days" mapstructure:"heavy_days"`
	LightTags     []string `yaml:"light_tags" mapstructure:"light_tags"`
	LegalSuffixes []string `yaml:"legal_suffixes" mapstructure:"legal_suffixes"`
	Stopwords     []string `yaml:"stopwords" mapstructure:"stopwords"`
}

// LushaConfig holds lead provider settings.
type LushaConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	PageSize    int     `yaml:"page_size" mapstructure:"page_size"`
	Preset      string  `yaml:"preset" mapstructure:"preset"`
	PresetsFile string  `yaml:"presets_file" mapstructure:"presets_file"`
}

// GenerationConfig selects the model backend for message generation.
type GenerationConfig struct {
	Backend   string          `yaml:"backend" mapstructure:"backend"`
	Model     string          `yaml:"model" mapstructure:"model"`
	MaxTokens int64           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Templates TemplatesConfig `yaml:"templates" mapstructure:"templates"`
}

// TemplatesConfig overrides the fixed message blocks.
type TemplatesConfig struct {
	Opening   string `yaml:"opening" mapstructure:"opening"`
	Pitch     string `yaml:"pitch" mapstructure:"pitch"`
	Signature string `yaml:"signature" mapstructure:"signature"`
	Subject   string `yaml:"subject" mapstructure:"subject"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SenderConfig is the consultant profile messages are written for.
type SenderConfig struct {
	Name       string `yaml:"name" mapstructure:"name"`
	Email      string `yaml:"email" mapstructure:"email"`
	Phone      string `yaml:"phone" mapstructure:"phone"`
	Study      string `yaml:"study" mapstructure:"study"`
	University string `yaml:"university" mapstructure:"university"`
	Branch     string `yaml:"branch" mapstructure:"branch"`
}

// MailConfig configures SMTP delivery and send pacing.
type MailConfig struct {
	Host         string   `yaml:"host" mapstructure:"host"`
	Port         int      `yaml:"port" mapstructure:"port"`
	Username     string   `yaml:"username" mapstructure:"username"`
	Password     string   `yaml:"password" mapstructure:"password"`
	From         string   `yaml:"from" mapstructure:"from"`
	ReplyTo      string   `yaml:"reply_to" mapstructure:"reply_to"`
	Bcc          []string `yaml:"bcc" mapstructure:"bcc"`
	DelaySecs    float64  `yaml:"delay_secs" mapstructure:"delay_secs"`
	MaxEmails    int      `yaml:"max_emails" mapstructure:"max_emails"`
	FollowUpDays int      `yaml:"follow_up_days" mapstructure:"follow_up_days"`
}

// SheetConfig configures the shared spreadsheet export.
type SheetConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// RetryConfig configures retries against external collaborators.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// CircuitConfig configures the send-stage circuit breaker.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// LogConfig configures logging. A non-empty File adds a rotated log file
// next to stderr output.
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"`
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// legacyEnv maps config keys to the unprefixed variable names used in
// consultant .env profiles.
var legacyEnv = map[string]string{
	"lusha.key":             "LUSHA_API_KEY",
	"openai.key":            "OPENAI_API_KEY",
	"anthropic.key":         "ANTHROPIC_API_KEY",
	"sender.name":           "SENDER_NAME",
	"sender.email":          "SENDER_EMAIL",
	"sender.phone":          "SENDER_PHONE",
	"sender.study":          "SENDER_STUDIE",
	"sender.university":     "SENDER_UNIVERSITEIT",
	"reference.dnc_path":    "DNC_PATH",
	"reference.recent_path": "RECENT_CONTACTS_PATH",
	"mail.max_emails":       "MAX_EMAILS",
	"mail.delay_secs":       "SEND_DELAY",
	"dry_run":               "DRY_RUN",
}

// LoadEnv loads .env files into the process environment. With a profile,
// .env.<profile> is required and wins over .env; existing variables are
// never overwritten.
func LoadEnv(dir, profile string) error {
	if profile != "" {
		path := filepath.Join(dir, ".env."+profile)
		if err := godotenv.Load(path); err != nil {
			return eris.Wrapf(err, "config: load profile %q", profile)
		}
	}
	base := filepath.Join(dir, ".env")
	if _, err := os.Stat(base); err == nil {
		if err := godotenv.Load(base); err != nil {
			return eris.Wrap(err, "config: load .env")
		}
	}
	return nil
}

// Load reads configuration from the profile's .env files, config.yaml and
// the environment.
func Load(profile string) (*Config, error) {
	if err := LoadEnv(".", profile); err != nil {
		return nil, err
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envKey := "OUTREACH_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("dry_run", false)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "outreach.db")
	v.SetDefault("reference.dnc_path", "data/niet_benaderen.xlsx")
	v.SetDefault("eligibility.dnc_min_len", 8)
	v.SetDefault("eligibility.recent_min_len", 4)
	v.SetDefault("eligibility.company_min_len", 8)
	v.SetDefault("eligibility.light_days", 90)
	v.SetDefault("eligibility.heavy_days", 365)
	v.SetDefault("lusha.base_url", "https://api.lusha.com/prospecting")
	v.SetDefault("lusha.rate_limit", 2.0)
	v.SetDefault("lusha.page_size", 10)
	v.SetDefault("lusha.preset", "nl_midsized_csuite")
	v.SetDefault("generation.backend", "anthropic")
	v.SetDefault("generation.max_tokens", 400)
	v.SetDefault("sender.study", "Technische Bedrijfskunde")
	v.SetDefault("sender.university", "TU Eindhoven")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.delay_secs", 2.0)
	v.SetDefault("mail.max_emails", 50)
	v.SetDefault("mail.follow_up_days", 7)
	v.SetDefault("sheet.path", "leads.xlsx")
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 30000)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	cfg.Profile = profile

	return &cfg, nil
}
