// Command lambdafmt is a small CLI wrapped around the core runtime: it
// parses a document in any registered format, optionally validates it
// against a schema, and either re-emits it or dumps its parsed tree for
// inspection.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	_ "github.com/lambda-doc/lambda/parser/csv"
	_ "github.com/lambda-doc/lambda/parser/dir"
	_ "github.com/lambda-doc/lambda/parser/eml"
	_ "github.com/lambda-doc/lambda/parser/html"
	_ "github.com/lambda-doc/lambda/parser/ical"
	_ "github.com/lambda-doc/lambda/parser/json"
	_ "github.com/lambda-doc/lambda/parser/jsx"
	_ "github.com/lambda-doc/lambda/parser/latex"
	_ "github.com/lambda-doc/lambda/parser/markdown"
	_ "github.com/lambda-doc/lambda/parser/mdx"
	_ "github.com/lambda-doc/lambda/parser/toml"
	_ "github.com/lambda-doc/lambda/parser/vcard"
	_ "github.com/lambda-doc/lambda/parser/xml"
	_ "github.com/lambda-doc/lambda/parser/yaml"

	"github.com/lambda-doc/lambda/emit"
	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/schema"
	"github.com/lambda-doc/lambda/xlog"
)

func main() {
	cfg := NewConfig()
	logCfg := xlog.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:           "lambdafmt [flags] <file>",
		Short:         "Parse, validate, and inspect documents across the core's supported formats",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(_ *cobra.Command, args []string) error {
			if _, err := logCfg.Logger(); err != nil {
				return err
			}
			return run(cfg, args[0])
		},
	}

	cfg.RegisterFlags(rootCmd.Flags())
	logCfg.RegisterFlags(rootCmd.Flags())
	if err := logCfg.RegisterCompletions(rootCmd); err != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(cfg *Config, path string) error {
	var src []byte
	var err error
	if path == "-" {
		src, err = io.ReadAll(os.Stdin)
	} else {
		src, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	format := cfg.Format
	if format == "" {
		format = guessFormat(path)
	}

	ctx := input.FromSource(src, cfg.BaseURL, format, cfg.Flavor)
	ctx.LogErrors()
	if ctx.HasErrors() {
		return fmt.Errorf("parse %s: %d error(s):\n%s", path, ctx.ErrorCount(), ctx.FormatErrors())
	}

	if cfg.Schema != "" {
		if cfg.Type == "" {
			return fmt.Errorf("--type is required with --schema")
		}
		schemaText, err := os.ReadFile(cfg.Schema)
		if err != nil {
			return fmt.Errorf("read schema: %w", err)
		}
		v := schema.NewValidator()
		v.SetStrictMode(cfg.Strict)
		v.SetMaxErrors(cfg.MaxErrors)
		if err := v.LoadSchema(schemaText, cfg.Type); err != nil {
			return fmt.Errorf("load schema: %w", err)
		}
		result := v.ValidateWithFormat(ctx.Root, cfg.Type, format)
		if !result.Valid {
			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "%s: %s (%s)\n", e.Path, e.Message, e.Code)
			}
			return fmt.Errorf("validation failed: %d error(s)", result.ErrorCount)
		}
	}

	if cfg.Debug {
		spew.Fdump(os.Stdout, ctx.Root)
		return nil
	}

	if err := emit.For(os.Stdout, ctx.Root, format, cfg.Flavor); err != nil {
		return fmt.Errorf("%w (pass --debug to inspect the parsed tree instead)", err)
	}
	return nil
}

// guessFormat derives a format identifier from a file extension when
// --format is not given, covering the common one-extension-one-format
// cases; anything else requires an explicit --format.
func guessFormat(path string) string {
	ext := ""
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			ext = path[i+1:]
			break
		}
	}
	switch ext {
	case "json":
		return "json"
	case "csv":
		return "csv"
	case "tsv":
		return "tsv"
	case "xml":
		return "xml"
	case "html", "htm":
		return "html"
	case "yaml", "yml":
		return "yaml"
	case "toml":
		return "toml"
	case "jsx":
		return "jsx"
	case "mdx":
		return "mdx"
	case "md", "markdown":
		return "markup"
	case "vcf":
		return "vcf"
	case "eml":
		return "eml"
	case "ics":
		return "ics"
	case "tex":
		return "latex"
	default:
		return ""
	}
}
