package cmd

import (
	"AirCue/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动播出控制服务器",
	Long:  `启动AirCue播出控制系统的HTTP服务器，提供指令API与状态频道 WebSocket`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
