package server

import (
	"context"

	"AirCue/config"
	"AirCue/core/auth"
	"AirCue/db"
	"AirCue/logger"
	"AirCue/model"
	"AirCue/repository"
)

// seedDemoData 写入一套演示数据：演播室、操作员、
// 一条两段四节拍的播出单，外加节目样式与 AdLib。
// 已存在同 ID 数据时跳过，重复执行安全。
func seedDemoData(cfg *config.Config) error {
	ctx := context.Background()

	studioRepo := repository.NewGormStudioRepository(db.GormDB)
	playlistRepo := repository.NewGormPlaylistRepository(db.GormDB)
	rundownRepo := repository.NewGormRundownRepository(db.GormDB)
	adLibRepo := repository.NewGormAdLibRepository(db.GormDB)
	showStyleRepo := repository.NewGormShowStyleRepository(db.GormDB)
	operatorRepo := repository.NewGormOperatorRepository(db.GormDB)

	if existing, err := studioRepo.GetByID(ctx, cfg.StudioID); err != nil {
		return err
	} else if existing != nil {
		logger.Info("seed skipped, studio already present", logger.String("studio", cfg.StudioID))
		return nil
	}

	if err := studioRepo.Create(ctx, &model.Studio{
		ID:   cfg.StudioID,
		Name: "Studio Zero",
	}); err != nil {
		return err
	}

	if op, err := operatorRepo.GetByUsername(ctx, "admin"); err != nil {
		return err
	} else if op == nil {
		hash, err := auth.HashPassword("admin")
		if err != nil {
			return err
		}
		if err := operatorRepo.Create(ctx, &model.Operator{
			Username:     "admin",
			PasswordHash: hash,
		}); err != nil {
			return err
		}
	}

	if err := showStyleRepo.Create(ctx, &model.ShowStyleBase{
		ID:   "show-style-news",
		Name: "Evening News",
		SourceLayers: model.LayerMap{
			"camera":  "Camera",
			"vt":      "VT",
			"graphic": "Graphics",
		},
		OutputLayers: model.LayerMap{
			"pgm": "Program",
			"aux": "Auxiliary",
		},
	}); err != nil {
		return err
	}

	playlist := &model.RundownPlaylist{
		ID:         "playlist-demo",
		StudioID:   cfg.StudioID,
		Name:       "Evening Bulletin",
		RundownIDs: model.StringList{"rundown-demo"},
	}
	if err := playlistRepo.Create(ctx, playlist); err != nil {
		return err
	}

	if err := rundownRepo.Create(ctx, &model.Rundown{
		ID:              "rundown-demo",
		PlaylistID:      playlist.ID,
		StudioID:        cfg.StudioID,
		ShowStyleBaseID: "show-style-news",
		Name:            "Main Bulletin",
		Rank:            0,
	}); err != nil {
		return err
	}

	segments := []*model.Segment{
		{ID: "segment-headlines", RundownID: "rundown-demo", Name: "Headlines", Rank: 0},
		{ID: "segment-weather", RundownID: "rundown-demo", Name: "Weather", Rank: 1},
	}
	for _, seg := range segments {
		if err := rundownRepo.CreateSegment(ctx, seg); err != nil {
			return err
		}
	}

	parts := []*model.Part{
		{ID: "part-opening", SegmentID: "segment-headlines", RundownID: "rundown-demo", Name: "Opening Titles", Rank: 0, AutoNext: true, ExpectedDurationMs: 10000},
		{ID: "part-top-story", SegmentID: "segment-headlines", RundownID: "rundown-demo", Name: "Top Story", Rank: 1, ExpectedDurationMs: 90000},
		{ID: "part-vt-package", SegmentID: "segment-headlines", RundownID: "rundown-demo", Name: "VT Package", Rank: 2, ExpectedDurationMs: 120000},
		{ID: "part-weather", SegmentID: "segment-weather", RundownID: "rundown-demo", Name: "Weather Report", Rank: 0, ExpectedDurationMs: 60000},
	}
	for _, part := range parts {
		if err := rundownRepo.CreatePart(ctx, part); err != nil {
			return err
		}
	}

	adlibs := []*model.AdLib{
		{ID: "adlib-breaking", RundownID: "rundown-demo", Name: "Breaking News Strap", SourceLayer: "graphic", OutputLayer: "pgm", TriggerMode: "now", Rank: 0},
		{ID: "adlib-standby", RundownID: "", Name: "Standby Loop", SourceLayer: "vt", OutputLayer: "pgm", TriggerMode: "queue", Rank: 0},
	}
	for _, adlib := range adlibs {
		if err := adLibRepo.Create(ctx, adlib); err != nil {
			return err
		}
	}

	logger.Info("seed complete",
		logger.String("studio", cfg.StudioID),
		logger.String("playlist", playlist.ID))
	return nil
}
