package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/haivivi/whisperedge/cmd/whisperedge/internal/build"
	"github.com/haivivi/whisperedge/pkg/onnx"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), build.String())
		if IsVerbose() {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "  go:     %s\n", runtime.Version())
			fmt.Fprintf(out, "  onnx:   %v\n", onnx.Available())
			for _, id := range onnx.ListSpecs() {
				fmt.Fprintf(out, "  model:  %s\n", id)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
