package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-tomboot/pkg/app"
	"github.com/deploymenttheory/go-tomboot/pkg/app/load"
)

var (
	loadOut     string
	loadKernel  string
	loadPolicy  string
	loadAddress uint64
)

var loadCmd = &cobra.Command{
	Use:   "load <image>",
	Short: "Load the kernel from a boot image",
	Long: `Run the boot sequence against a disk image: select the root partition,
mount its FAT file system and copy the kernel into the physical memory arena.

Examples:
  # Load TOM.OS and save the loaded bytes
  tomboot load sd.img --out tom.os

  # Select the root partition by type GUID instead of ordinal
  tomboot load sd.img --policy guid -o json`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := newContext(cmd)
		req := &load.Request{
			Target:     app.ImageTarget{ImagePath: args[0]},
			OutPath:    loadOut,
			KernelName: loadKernel,
			Policy:     loadPolicy,
			Address:    loadAddress,
		}

		resp, err := load.Handle(ctx, req)
		if err != nil {
			return err
		}
		if ctx.Quiet {
			return nil
		}
		return load.FormatOutput(ctx.Out, resp, ctx.OutputFormat)
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringVar(&loadOut, "out", "", "write the loaded kernel bytes to this file")
	loadCmd.Flags().StringVar(&loadKernel, "kernel", "", "kernel short name (default from config, TOM.OS)")
	loadCmd.Flags().StringVar(&loadPolicy, "policy", "", "root partition selection policy (ordinal, guid)")
	loadCmd.Flags().Uint64Var(&loadAddress, "address", 0, "physical load address (default from config)")
}
