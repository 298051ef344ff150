package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "anchorflow",
	Short: "anchorflow drives interactive anchor deposit flows",
	Long: `A local engine that authenticates a Stellar wallet against anchors
and drives interactive deposit flows to completion: session management,
challenge/response authentication, flow launch, and status polling.
Complete documentation is available at https://github.com/stellaprotocol/anchorflow`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
