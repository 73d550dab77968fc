package cmd

import (
	"fmt"
	"log"
	"os"

	"CrayonFM/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "crayonfm",
	Short: "CrayonFM is a personal music library and streaming service.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting CrayonFM server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
