package cmd

import (
	"github.com/spf13/cobra"
)

func newTemplateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "template",
		Short: "Print the effective journal template as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpl, err := root.loadTemplate()
			if err != nil {
				return err
			}
			out, err := tpl.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
