package config

import (
	"fmt"
	"os"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// ReplyMode selects the shape of every reply produced by one deployment.
type ReplyMode string

const (
	ModeStructured ReplyMode = "structured"
	ModeNarrative  ReplyMode = "narrative"
)

// ShopifyConfig points the order lookup at one store.
type ShopifyConfig struct {
	StoreDomain   string `yaml:"store_domain" env:"STORE_DOMAIN" env-required:"true" validate:"required,hostname_rfc1123"`
	AccessToken   string `yaml:"access_token" env:"ACCESS_TOKEN" env-required:"true" validate:"required"`
	APIVersion    string `yaml:"api_version" env:"API_VERSION" env-default:"2024-04" validate:"required"`
	TwoStepLookup bool   `yaml:"two_step_lookup" env:"TWO_STEP_LOOKUP"`
	// BaseURL replaces https://<StoreDomain> when set.
	BaseURL string `yaml:"base_url" env:"BASE_URL" validate:"omitempty,url"`
}

type TrackingConfig struct {
	APIURL  string `yaml:"api_url" env:"API_URL" env-default:"https://parcelsapp.com/api/v1/track" validate:"required,url"`
	LinkURL string `yaml:"link_url" env:"LINK_URL" env-default:"https://parcelsapp.com/en/tracking/" validate:"required,url"`
}

type LLMConfig struct {
	APIKey  string        `yaml:"api_key" env:"API_KEY"`
	Model   string        `yaml:"model" env:"MODEL" env-default:"gemini-2.0-flash" validate:"required"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT" env-default:"30s" validate:"gt=0"`
}

// AWSConfig holds the optional reply-event and metrics settings.
// Empty values disable the matching feature.
type AWSConfig struct {
	ReplyQueueURL    string `yaml:"reply_queue_url" env:"REPLY_QUEUE_URL" validate:"omitempty,url"`
	MetricsNamespace string `yaml:"metrics_namespace" env:"METRICS_NAMESPACE"`
}

// Config is read once at startup and passed by value from then on.
type Config struct {
	RunLocal bool      `yaml:"run_local" env:"RUN_LOCAL"`
	HTTPAddr string    `yaml:"http_addr" env:"HTTP_ADDR" env-default:":8080"`
	Mode     ReplyMode `yaml:"reply_mode" env:"REPLY_MODE" env-default:"structured" validate:"oneof=structured narrative"`

	Shopify  ShopifyConfig  `yaml:"shopify" env-prefix:"SHOPIFY_"`
	Tracking TrackingConfig `yaml:"tracking" env-prefix:"TRACKING_"`
	LLM      LLMConfig      `yaml:"llm" env-prefix:"LLM_"`
	AWS      AWSConfig      `yaml:"aws"`
}

// Load reads CONFIG_FILE (if set) and then the environment, and validates the result.
func Load() (Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and the narrative-mode key requirement.
func Validate(cfg Config) error {
	v := validatorv10.New()
	v.RegisterStructValidation(llmKeyStructValidation, Config{})

	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// llmKeyStructValidation requires an LLM key only when replies are generated by the model.
func llmKeyStructValidation(sl validatorv10.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	if cfg.Mode == ModeNarrative && cfg.LLM.APIKey == "" {
		sl.ReportError(cfg.LLM.APIKey, "LLM.APIKey", "APIKey", "required_for_narrative", "")
	}
}

// ShopifyBaseURL returns the scheme and host used for Admin API calls.
func (c ShopifyConfig) ShopifyBaseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return "https://" + c.StoreDomain
}

// WorkerConfig is the journal worker's configuration. It needs no store credentials.
type WorkerConfig struct {
	RunLocal     bool          `yaml:"run_local" env:"RUN_LOCAL"`
	JournalTable string        `yaml:"journal_table" env:"JOURNAL_TABLE" env-required:"true" validate:"required"`
	JournalTTL   time.Duration `yaml:"journal_ttl" env:"JOURNAL_TTL" env-default:"720h" validate:"gte=0"`
	// LocalBody is processed as a single SQS message when RunLocal is set.
	LocalBody string `yaml:"local_sqs_body" env:"LOCAL_SQS_BODY"`
}

// LoadWorker reads the worker configuration from CONFIG_FILE (if set) and the environment.
func LoadWorker() (WorkerConfig, error) {
	var cfg WorkerConfig

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return WorkerConfig{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return WorkerConfig{}, fmt.Errorf("read env: %w", err)
	}

	if err := validatorv10.New().Struct(cfg); err != nil {
		return WorkerConfig{}, fmt.Errorf("invalid worker config: %w", err)
	}
	return cfg, nil
}
