package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-tomboot/pkg/app"
)

var (
	// Global output flags only
	verbose      bool
	quiet        bool
	outputFormat string
	configFile   string
)

var rootCmd = &cobra.Command{
	Use:   "tomboot",
	Short: "Early-stage kernel loader for GPT/FAT boot media",
	Long: `tomboot runs the early boot stage of a RISC-V kernel loader against a
disk image: it finds the root partition in the GUID partition table, reads
its FAT file system through a single-block cache and copies the kernel image
(TOM.OS) to its physical load address.

Commands:
  load        Load the kernel and optionally write the loaded bytes to a file
  partitions  List GPT partitions and mark the root partition
  ls          List the root directory of the root partition`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output and debug boot logs")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: tomboot-config.yaml in ., ./config, $HOME/.tomboot, /etc/tomboot)")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// newContext builds the application context from the global flags
func newContext(cmd *cobra.Command) *app.Context {
	ctx := app.NewContext()
	ctx.Context = cmd.Context()
	ctx.Verbose = verbose
	ctx.Quiet = quiet
	ctx.OutputFormat = outputFormat
	ctx.ConfigFile = configFile
	ctx.Out = cmd.OutOrStdout()
	ctx.Err = cmd.ErrOrStderr()
	return ctx
}
