package cli

import (
	"github.com/spf13/cobra"
)

func newSourcesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Print the effective source table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format, FormatText, FormatJSON)
			if err != nil {
				return err
			}

			sources, err := loadSources()
			if err != nil {
				return err
			}
			return WriteSources(cmd.OutOrStdout(), sources, outFormat)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}
