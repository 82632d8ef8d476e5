package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shibukawa/csvsed"
)

// LoadConfig loads the configuration file named by the command and lays the
// command line flags over it. Environment variables reach the flags through
// kong, so the result follows defaults < file < environment < flags.
func LoadConfig(c *Command) (*csvsed.Config, error) {
	config, err := csvsed.LoadConfig(c.Config)
	if err != nil {
		return nil, err
	}

	if err := c.applyFlags(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Command) applyFlags(config *csvsed.Config) error {
	switch {
	case c.Tabs:
		config.CSV.Delimiter = "\t"
	case c.Delimiter != "":
		config.CSV.Delimiter = unescapeDelimiter(c.Delimiter)
	}

	if c.QuoteChar != "" {
		config.CSV.Quote = c.QuoteChar
	}

	if c.Encoding != "" {
		config.CSV.Encoding = c.Encoding
	}

	if c.NoHeaderRow {
		config.CSV.NoHeader = true
	}

	if c.Ragged {
		config.CSV.Ragged = true
	}

	if c.ExecTimeout != "" {
		d, err := time.ParseDuration(c.ExecTimeout)
		if err != nil {
			return fmt.Errorf("%w: --exec-timeout '%s': %w", csvsed.ErrConfigValidation, c.ExecTimeout, err)
		}
		config.Exec.Timeout = d
	}

	if c.ExecRate != "" {
		rate, err := strconv.ParseFloat(c.ExecRate, 64)
		if err != nil {
			return fmt.Errorf("%w: --exec-rate '%s': %w", csvsed.ErrConfigValidation, c.ExecRate, err)
		}
		config.Exec.RateLimit = rate
	}

	if c.ExecOnError != "" {
		config.Exec.OnError = c.ExecOnError
	}

	return nil
}

// unescapeDelimiter accepts the spellings people use for a tab on a command line.
func unescapeDelimiter(s string) string {
	switch s {
	case `\t`, "tab", "TAB":
		return "\t"
	}
	return s
}
