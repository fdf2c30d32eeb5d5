package xlog

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Flags holds the CLI flag names for log configuration, mirroring the
// teacher's Flags/Config split so callers can rename flags without
// touching parsing logic.
type Flags struct {
	Level  string
	Format string
}

// NewConfig creates a Config embedding these flag names.
func (f Flags) NewConfig() *Config { return &Config{Flags: f} }

// Config holds CLI flag values for log configuration, set via
// RegisterFlags and realized with NewDefaultLogger.
type Config struct {
	Level  string
	Format string
	Flags  Flags
}

// DefaultConfig returns a Config with conventional flag names and
// "warn"/"text" defaults.
func DefaultConfig() *Config {
	return Flags{Level: "log-level", Format: "log-format"}.NewConfig()
}

// RegisterFlags adds --log-level and --log-format (or the configured flag
// names) to flags.
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.Level, c.Flags.Level, "warn", "log level: error, warn, info, debug")
	flags.StringVar(&c.Format, c.Flags.Format, "text", "log format: text, json")
}

// RegisterCompletions wires shell completion for the log flags onto cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	if err := cmd.RegisterFlagCompletionFunc(c.Flags.Level,
		cobra.FixedCompletions([]string{"error", "warn", "info", "debug"}, cobra.ShellCompDirectiveNoFileComp)); err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Level, err)
	}
	return cmd.RegisterFlagCompletionFunc(c.Flags.Format,
		cobra.FixedCompletions([]string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp))
}

// Logger builds the *slog.Logger this config describes, writing to
// os.Stderr, and installs it as xlog's package-level default.
func (c *Config) Logger() (*slog.Logger, error) {
	level, err := GetLevel(c.Level)
	if err != nil {
		return nil, err
	}
	format, err := GetFormat(c.Format)
	if err != nil {
		return nil, err
	}
	l := slog.New(NewHandler(os.Stderr, level, format))
	SetDefault(l)
	return l, nil
}
