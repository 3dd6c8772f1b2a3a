package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var extended bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if extended {
			fmt.Printf("quotaguard %s\n", versionInfo.Version)
			fmt.Printf("Commit: %s\n", versionInfo.Commit)
			fmt.Printf("Built: %s\n", versionInfo.BuildDate)
			fmt.Printf("Go: %s\n", runtime.Version())
		} else {
			fmt.Printf("quotaguard %s\n", versionInfo.Version)
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&extended, "extended", false, "print full build details")
	rootCmd.AddCommand(versionCmd)
}
