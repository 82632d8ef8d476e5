package csvsed

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/shibukawa/csvsed/csvio"
	"github.com/shibukawa/csvsed/engine"
)

// DefaultConfigFile is read when no --config flag is given. It is optional.
const DefaultConfigFile = "csvsed.yaml"

// Config represents the csvsed configuration
type Config struct {
	CSV  CSVConfig  `yaml:"csv"`
	Exec ExecConfig `yaml:"exec"`
}

// CSVConfig describes the input dialect. Output uses the same dialect.
type CSVConfig struct {
	Delimiter string `yaml:"delimiter"`
	Quote     string `yaml:"quote"`
	Encoding  string `yaml:"encoding"`
	NoHeader  bool   `yaml:"no_header"`
	Ragged    bool   `yaml:"ragged"`
}

// ExecConfig controls commands started by execute modifiers.
type ExecConfig struct {
	// Shell is the argv prefix; the command is passed as the last argument.
	Shell   []string      `yaml:"shell"`
	Timeout time.Duration `yaml:"timeout"`
	// RateLimit caps process spawns per second. Zero disables the limit.
	RateLimit float64 `yaml:"rate_limit"`
	OnError   string  `yaml:"on_error"`
}

// LoadConfig loads configuration from the specified file
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	err := LoadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML with strict mode to detect unknown fields
	var config Config

	err = yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)
	expandConfigEnvVars(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the configuration for values the tool cannot run with.
// It is called again after command line flags are merged in.
func (c *Config) Validate() error {
	if err := validateSingleByte("csv.delimiter", c.CSV.Delimiter); err != nil {
		return err
	}

	if err := validateSingleByte("csv.quote", c.CSV.Quote); err != nil {
		return err
	}

	if c.CSV.Delimiter == c.CSV.Quote {
		return fmt.Errorf("%w: csv.delimiter and csv.quote must differ, both are '%s'", ErrConfigValidation, c.CSV.Delimiter)
	}

	if _, err := csvio.Lookup(c.CSV.Encoding); err != nil {
		return fmt.Errorf("%w: csv.encoding: %w", ErrConfigValidation, err)
	}

	if len(c.Exec.Shell) == 0 || c.Exec.Shell[0] == "" {
		return fmt.Errorf("%w: exec.shell must name a program", ErrConfigValidation)
	}

	if c.Exec.Timeout < 0 {
		return fmt.Errorf("%w: exec.timeout must be >= 0, got %s", ErrConfigValidation, c.Exec.Timeout)
	}

	if c.Exec.RateLimit < 0 {
		return fmt.Errorf("%w: exec.rate_limit must be >= 0, got %g", ErrConfigValidation, c.Exec.RateLimit)
	}

	if _, err := engine.ParseFailurePolicy(c.Exec.OnError); err != nil {
		return fmt.Errorf("%w: exec.on_error: %w", ErrConfigValidation, err)
	}

	return nil
}

func validateSingleByte(field, value string) error {
	if len(value) != 1 {
		return fmt.Errorf("%w: %s must be a single ASCII character, got '%s'", ErrConfigValidation, field, value)
	}

	switch c := value[0]; {
	case c >= 0x80:
		return fmt.Errorf("%w: %s must be a single ASCII character, got '%s'", ErrConfigValidation, field, value)
	case c == '\r' || c == '\n':
		return fmt.Errorf("%w: %s must not be a line break", ErrConfigValidation, field)
	}

	return nil
}

// Comma returns the field delimiter byte.
func (c *Config) Comma() byte {
	return c.CSV.Delimiter[0]
}

// QuoteChar returns the quote byte.
func (c *Config) QuoteChar() byte {
	return c.CSV.Quote[0]
}

// FailurePolicy returns the parsed exec.on_error value. Validate must have passed.
func (c *Config) FailurePolicy() engine.FailurePolicy {
	p, _ := engine.ParseFailurePolicy(c.Exec.OnError)
	return p
}

func getDefaultConfig() *Config {
	return &Config{
		CSV: CSVConfig{
			Delimiter: ",",
			Quote:     `"`,
			Encoding:  "utf-8",
		},
		Exec: ExecConfig{
			Shell:   []string{"/bin/sh", "-c"},
			OnError: "abort",
		},
	}
}

// applyDefaults applies default values to missing configuration fields
func applyDefaults(config *Config) {
	defaults := getDefaultConfig()

	if config.CSV.Delimiter == "" {
		config.CSV.Delimiter = defaults.CSV.Delimiter
	}

	if config.CSV.Quote == "" {
		config.CSV.Quote = defaults.CSV.Quote
	}

	if config.CSV.Encoding == "" {
		config.CSV.Encoding = defaults.CSV.Encoding
	}

	if len(config.Exec.Shell) == 0 {
		config.Exec.Shell = defaults.Exec.Shell
	}

	if config.Exec.OnError == "" {
		config.Exec.OnError = defaults.Exec.OnError
	}
}

// LoadEnvFiles loads .env from the working directory if it exists. Variables
// already set in the environment win.
func LoadEnvFiles() error {
	if fileExists(".env") {
		err := godotenv.Load(".env")
		if err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

var (
	bracedVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	bareVar   = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	s = bracedVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})

	return bareVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})
}

// expandConfigEnvVars expands environment variables in the shell argv and the encoding.
// Modifier commands are not touched; the shell expands those itself.
func expandConfigEnvVars(config *Config) {
	for i, arg := range config.Exec.Shell {
		config.Exec.Shell[i] = expandEnvVars(arg)
	}

	config.CSV.Encoding = expandEnvVars(config.CSV.Encoding)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
