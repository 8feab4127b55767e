package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-tomboot/pkg/app"
	"github.com/deploymenttheory/go-tomboot/pkg/app/inspect"
)

var lsPolicy string

var lsCmd = &cobra.Command{
	Use:   "ls <image>",
	Short: "List the root directory of the root partition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := newContext(cmd)
		req := &inspect.Request{
			Target: app.ImageTarget{ImagePath: args[0]},
			Policy: lsPolicy,
		}
		resp, err := inspect.HandleList(ctx, req)
		if err != nil {
			return err
		}
		return inspect.FormatList(ctx.Out, resp, ctx.OutputFormat)
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)

	lsCmd.Flags().StringVar(&lsPolicy, "policy", "", "root partition selection policy (ordinal, guid)")
}
