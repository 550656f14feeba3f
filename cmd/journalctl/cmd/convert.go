package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/export"
	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/service"
)

// errNoOutput is returned when no document of the batch could be converted.
var errNoOutput = errors.New("no CSV could be produced")

type convertOptions struct {
	*rootOptions
	out     string
	xlsx    bool
	workers int
}

func newConvertCmd(root *rootOptions) *cobra.Command {
	opts := &convertOptions{rootOptions: root}

	c := &cobra.Command{
		Use:   "convert [flags] file.pdf...",
		Short: "Convert payroll journal PDFs into one CSV",
		Long: `Convert reads every PDF given, converts them as one batch and writes the
entries of the successful documents in order. Diagnostics are printed to stderr.
The command fails when no document produced entries.`,
		Args: cobra.MinimumNArgs(1),
		RunE: opts.run,
	}

	c.Flags().StringVarP(&opts.out, "out", "o", "", "output file (default: stdout)")
	c.Flags().BoolVar(&opts.xlsx, "xlsx", false, "write an XLSX workbook instead of CSV (requires --out)")
	c.Flags().IntVarP(&opts.workers, "workers", "w", 0, "documents converted concurrently (default: GOMAXPROCS)")
	return c
}

func (o *convertOptions) run(cmd *cobra.Command, args []string) error {
	if o.xlsx && o.out == "" {
		return errors.New("--xlsx requires --out")
	}

	tpl, err := o.loadTemplate()
	if err != nil {
		return err
	}

	uploads := make([]service.Upload, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		uploads = append(uploads, service.Upload{Filename: filepath.Base(path), Data: data})
	}

	svc := service.NewConverterService(tpl, o.logger(cmd.ErrOrStderr())).WithWorkers(o.workers)

	res, err := svc.Convert(cmd.Context(), uploads)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	for _, line := range res.Errors() {
		fmt.Fprintln(stderr, line)
	}
	for _, line := range res.Ignored {
		fmt.Fprintf(stderr, "ignored: %s\n", line)
	}
	if !res.Success() {
		return errNoOutput
	}

	out := res.CSV
	if o.xlsx {
		if out, err = export.XLSX(res.Entries); err != nil {
			return err
		}
	}

	if o.out == "" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	if err := os.WriteFile(o.out, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", o.out, err)
	}
	fmt.Fprintf(stderr, "wrote %d entries to %s\n", len(res.Entries), o.out)
	return nil
}
