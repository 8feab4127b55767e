package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-tomboot/pkg/app"
	"github.com/deploymenttheory/go-tomboot/pkg/app/inspect"
)

var partitionsCmd = &cobra.Command{
	Use:   "partitions <image>",
	Short: "List GPT partitions of a boot image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := newContext(cmd)
		resp, err := inspect.HandlePartitions(ctx, &inspect.Request{Target: app.ImageTarget{ImagePath: args[0]}})
		if err != nil {
			return err
		}
		return inspect.FormatPartitions(ctx.Out, resp, ctx.OutputFormat)
	},
}

func init() {
	rootCmd.AddCommand(partitionsCmd)
}
