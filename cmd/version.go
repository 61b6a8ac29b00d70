package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version 构建时通过 -ldflags "-X videoindex/cmd.Version=..." 注入
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "videoindex", Version)
	},
}
