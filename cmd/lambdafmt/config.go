package main

import (
	"github.com/spf13/pflag"
)

// Flags holds CLI flag names for lambdafmt, a Flags/Config split that
// keeps flag names renameable without touching parsing logic.
type Flags struct {
	Format    string
	Flavor    string
	BaseURL   string
	Schema    string
	Type      string
	Strict    string
	MaxErrors string
	Debug     string
}

// Config holds CLI flag values for lambdafmt.
type Config struct {
	Flags Flags

	Format    string
	Flavor    string
	BaseURL   string
	Schema    string
	Type      string
	Strict    bool
	MaxErrors int
	Debug     bool
}

// NewConfig returns a Config with default flag names.
func NewConfig() *Config {
	return &Config{
		Flags: Flags{
			Format:    "format",
			Flavor:    "flavor",
			BaseURL:   "base-url",
			Schema:    "schema",
			Type:      "type",
			Strict:    "strict",
			MaxErrors: "max-errors",
			Debug:     "debug",
		},
	}
}

// RegisterFlags adds lambdafmt's flags to flags.
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&c.Format, c.Flags.Format, "f", "",
		"input format (json, csv, tsv, xml, html, yaml, toml, jsx, mdx, markup, vcf, eml, ics, latex, dir)")
	flags.StringVar(&c.Flavor, c.Flags.Flavor, "",
		"format dialect, e.g. commonmark/markdown for markup, ts for latex")
	flags.StringVar(&c.BaseURL, c.Flags.BaseURL, "",
		"base URL for resolving relative references")
	flags.StringVar(&c.Schema, c.Flags.Schema, "",
		"schema file to validate the parsed item against")
	flags.StringVar(&c.Type, c.Flags.Type, "",
		"named root type to validate against (required with --schema)")
	flags.BoolVar(&c.Strict, c.Flags.Strict, false,
		"reject unknown map/attribute fields during validation")
	flags.IntVar(&c.MaxErrors, c.Flags.MaxErrors, 0,
		"stop validation after this many errors (0 for unlimited)")
	flags.BoolVar(&c.Debug, c.Flags.Debug, false,
		"dump the parsed item tree (github.com/davecgh/go-spew) instead of re-emitting it")
}
