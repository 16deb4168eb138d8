// Package config loads lawgit settings from defaults, a .env file, an
// optional YAML config file, environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/coolbeans/lawgit/pkg/gitsink"
	"github.com/coolbeans/lawgit/pkg/pisrs"
)

// EnvPrefix prefixes every environment variable except the API key, which
// keeps its registry-issued name.
const EnvPrefix = "LAWGIT"

// APIKeyEnv is the environment variable holding the PISRS API key.
const APIKeyEnv = "PISRS_API_KEY"

// Config is the resolved configuration of one run.
type Config struct {
	LawID           string        `mapstructure:"law-id" validate:"required"`
	OutputDir       string        `mapstructure:"output-dir" validate:"required"`
	PISRSAPIKey     string        `mapstructure:"pisrs-api-key"`
	PISRSBaseURL    string        `mapstructure:"pisrs-base-url" validate:"required,url"`
	MinistersFile   string        `mapstructure:"ministers-file" validate:"required"`
	EmailDomain     string        `mapstructure:"email-domain" validate:"required,hostname"`
	RequestInterval time.Duration `mapstructure:"request-interval" validate:"gte=0"`
	RequestTimeout  time.Duration `mapstructure:"request-timeout" validate:"gt=0"`
	ProbeLawID      string        `mapstructure:"probe-law-id" validate:"required"`
	LogLevel        string        `mapstructure:"log-level" validate:"oneof=debug info warn error"`
	LogFormat       string        `mapstructure:"log-format" validate:"oneof=console json"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		LawID:           pisrs.DefaultProbeLawID,
		OutputDir:       "/tmp/slovenian_laws",
		PISRSBaseURL:    pisrs.DefaultBaseURL,
		MinistersFile:   "data/ministers_combined.json",
		EmailDomain:     gitsink.DefaultEmailDomain,
		RequestInterval: pisrs.DefaultRequestInterval,
		RequestTimeout:  pisrs.DefaultTimeout,
		ProbeLawID:      pisrs.DefaultProbeLawID,
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

// Options controls where Load looks for settings.
type Options struct {
	// Flags are bound by their long names; set flags override everything.
	Flags *pflag.FlagSet
	// ConfigFile is an optional YAML file.
	ConfigFile string
	// EnvFile is a dotenv file, ".env" if empty. A missing file is ignored.
	EnvFile string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load resolves the configuration. Precedence, highest first: set flags,
// environment (variables from the .env file included), config file,
// defaults. Variables already in the environment win over the .env file.
func Load(options Options) (*Config, error) {
	envFile := options.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", envFile, err)
	}

	v := viper.New()
	defaults := Defaults()
	v.SetDefault("law-id", defaults.LawID)
	v.SetDefault("output-dir", defaults.OutputDir)
	v.SetDefault("pisrs-api-key", "")
	v.SetDefault("pisrs-base-url", defaults.PISRSBaseURL)
	v.SetDefault("ministers-file", defaults.MinistersFile)
	v.SetDefault("email-domain", defaults.EmailDomain)
	v.SetDefault("request-interval", defaults.RequestInterval)
	v.SetDefault("request-timeout", defaults.RequestTimeout)
	v.SetDefault("probe-law-id", defaults.ProbeLawID)
	v.SetDefault("log-level", defaults.LogLevel)
	v.SetDefault("log-format", defaults.LogFormat)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("pisrs-api-key", APIKeyEnv); err != nil {
		return nil, err
	}

	if options.ConfigFile != "" {
		v.SetConfigFile(options.ConfigFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", options.ConfigFile, err)
		}
	}

	if options.Flags != nil {
		if err := v.BindPFlags(options.Flags); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and names every offending key.
func (cfg Config) Validate() error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	problems := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		problems = append(problems, fmt.Sprintf("%s (rule %q, got %v)", fieldError.StructField(), fieldError.Tag(), fieldError.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}
