package cmd

import (
	"context"
	"log"
	"os"

	"AirCue/config"
	"AirCue/db"
	"AirCue/model"
	"AirCue/repository"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statusStudio string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "查看播出单激活状态",
	Long:  `列出播出单及其激活状态、当前与排队实例，用于排障时快速查看数据库视角。`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := db.ConnectGormDB(cfg); err != nil {
			log.Fatalf("无法连接到数据库: %v", err)
		}
		defer db.CloseGormDB()

		ctx := context.Background()
		playlistRepo := repository.NewGormPlaylistRepository(db.GormDB)

		var playlists []*model.RundownPlaylist
		var err error
		if statusStudio != "" {
			playlists, err = playlistRepo.ListByStudio(ctx, statusStudio)
		} else {
			playlists, err = playlistRepo.List(ctx)
		}
		if err != nil {
			log.Fatalf("查询播出单失败: %v", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Name", "Studio", "Status", "Activation", "Current", "Next", "Takes"})

		for _, p := range playlists {
			t.AppendRow(table.Row{
				p.ID, p.Name, p.StudioID, p.ActivationStatus(),
				p.ActivationID, p.CurrentPartInstanceID, p.NextPartInstanceID, p.TakeCount,
			})
		}

		t.SetStyle(table.StyleLight)
		t.Render()
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusStudio, "studio", "", "只显示指定演播室的播出单")
	rootCmd.AddCommand(statusCmd)
}
