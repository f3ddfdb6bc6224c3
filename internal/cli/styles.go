package cli

import (
	"github.com/spf13/cobra"
)

func newStylesCmd() *cobra.Command {
	var opts transformOpts

	cmd := &cobra.Command{
		Use:   "styles",
		Short: "Print the active placeholder table as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.transformer(cmd.Context())
			if err != nil {
				return err
			}
			return t.Styles().Encode(cmd.OutOrStdout(), t.CenterMarker())
		},
	}
	opts.register(cmd)
	return cmd
}
