// Package cmd implements the journalctl command line.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/template"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

type rootOptions struct {
	templatePath string
	verbose      bool
}

// NewRootCmd builds the journalctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "journalctl",
		Short: "Convert payroll journal PDFs to CSV",
		Long: `journalctl reads payroll journal PDFs, rebuilds their table rows,
checks that debits and credits balance, and writes the entries as CSV or XLSX.

Example Usage:
  journalctl convert march.pdf april.pdf --out q1.csv
  journalctl convert march.pdf --xlsx --out march.xlsx
  journalctl template > journal.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}

	root.PersistentFlags().StringVarP(&opts.templatePath, "template", "t", "", "journal template YAML (default: built-in)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newConvertCmd(opts), newTemplateCmd(opts))
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		os.Exit(1)
	}
}

func (o *rootOptions) loadTemplate() (*template.Template, error) {
	if o.templatePath == "" {
		return template.Default(), nil
	}
	return template.Load(o.templatePath)
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
