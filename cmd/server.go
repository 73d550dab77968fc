package cmd

import (
	"CrayonFM/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动CrayonFM服务器",
	Long:  `启动CrayonFM音乐系统的HTTP服务器，提供API服务和音频流传输`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
