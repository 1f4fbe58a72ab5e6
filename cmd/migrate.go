package cmd

import (
	"fmt"
	"log"

	"AirCue/server"

	"github.com/spf13/cobra"
)

var migrateSeed bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "执行数据库迁移",
	Long:  `创建或更新数据库表结构，可选写入一套演示数据。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始数据库迁移...")
		if err := server.Migrate(migrateSeed); err != nil {
			log.Fatalf("迁移失败: %v", err)
		}
		fmt.Println("迁移完成。")
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateSeed, "seed", false, "迁移后写入演示数据")
	rootCmd.AddCommand(migrateCmd)
}
