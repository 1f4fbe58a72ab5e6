package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AirCue/cache"
	"AirCue/config"
	"AirCue/core/playout"
	"AirCue/core/reactive"
	"AirCue/core/status"
	"AirCue/core/timeline"
	"AirCue/db"
	"AirCue/logger"
	"AirCue/model"
	"AirCue/repository"
	"AirCue/storage"
	"AirCue/store"

	"github.com/gorilla/mux"
)

// scratchStore 激活周期临时数据区，落在 Redis 上
type scratchStore struct{}

func (scratchStore) Clear(ctx context.Context, activationID string) error {
	return db.ClearScratch(ctx, activationID)
}

// Start 初始化依赖并启动 HTTP 服务
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})
	defer logger.Sync()

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()

	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	// .env 热加载，目前只联动日志级别
	stopWatch, err := config.Watch(cfg, nil)
	if err != nil {
		logger.Warn("config watch unavailable", logger.ErrorField(err))
	} else {
		defer stopWatch()
	}

	// 仓储
	studioRepo := repository.NewGormStudioRepository(db.GormDB)
	playlistRepo := repository.NewGormPlaylistRepository(db.GormDB)
	rundownRepo := repository.NewGormRundownRepository(db.GormDB)
	instanceRepo := repository.NewGormPartInstanceRepository(db.GormDB)
	adLibRepo := repository.NewGormAdLibRepository(db.GormDB)
	showStyleRepo := repository.NewGormShowStyleRepository(db.GormDB)
	operatorRepo := repository.NewGormOperatorRepository(db.GormDB)

	// 播出控制器：提交后事件经 Redis 发布给订阅图
	publisher := store.NewRedisPublisher(db.RedisClient)
	playoutStore := repository.NewGormPlayoutStore(db.GormDB, publisher)
	tl := timeline.NewRedisTimeline(db.RedisClient)
	controller := playout.NewController(
		playoutStore,
		playout.NewOrderedSelector(),
		tl,
		playout.WithArchiver(storage.NewAsRunArchiver(storage.GetMinioClient(), cfg.MinioBucket)),
		playout.WithTransientStore(scratchStore{}),
	)

	// 状态扇出主题，最新视图落 Redis 兜底
	viewCache := cache.NewStatusViewCache(db.RedisClient)
	playlistTopic := status.NewPlaylistTopic(viewCache)
	studioTopic := status.NewStudioTopic(viewCache)
	adLibTopic := status.NewAdLibTopic(viewCache)

	hub := status.NewHub(playlistTopic, studioTopic, adLibTopic)
	go hub.Run()
	defer hub.Stop()

	// 订阅图：本实例演播室的级联订阅
	loop := reactive.NewLoop()
	loop.Start()
	defer loop.Stop()

	observer := store.NewRedisObserver(db.RedisClient)
	graph := reactive.NewGraph(loop, observer, reactive.GraphStores{
		Studios:    studioRepo,
		Playlists:  playlistRepo,
		Rundowns:   rundownRepo,
		Instances:  instanceRepo,
		AdLibs:     adLibRepo,
		ShowStyles: showStyleRepo,
	}, reactive.GraphSinks{
		PlaylistTopic: playlistTopic,
		StudioTopic:   studioTopic,
		AdLibTopic:    adLibTopic,
	}, cfg.StudioID, cfg.CacheDebounce)
	graph.Start()
	defer graph.Stop()

	apiHandler := NewAPIHandler(controller, playlistRepo, studioRepo, operatorRepo, rundownRepo, hub, cfg)

	router := mux.NewRouter()

	// CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// 认证
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)

	// 播出指令端点，全部要求操作员令牌
	router.HandleFunc("/api/playlists/{id}/activate", apiHandler.AuthMiddleware(apiHandler.ActivateHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/deactivate", apiHandler.AuthMiddleware(apiHandler.DeactivateHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/take", apiHandler.AuthMiddleware(apiHandler.TakeHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/next", apiHandler.AuthMiddleware(apiHandler.SetNextHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/reset", apiHandler.AuthMiddleware(apiHandler.ResetHandler)).Methods(http.MethodPost)

	// 只读查询端点
	router.HandleFunc("/api/studios", apiHandler.ListStudiosHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", apiHandler.ListPlaylistsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}", apiHandler.GetPlaylistHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}/rundowns", apiHandler.GetPlaylistRundownsHandler).Methods(http.MethodGet)

	// 状态频道 WebSocket
	router.HandleFunc("/ws/status/{topic}", apiHandler.StatusWebSocketHandler).Methods(http.MethodGet)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting",
			logger.String("addr", cfg.HTTPAddr),
			logger.String("studio", cfg.StudioID))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}

// Migrate 建表并补齐演示数据
func Migrate(seed bool) error {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level: logger.LogLevel(cfg.LogLevel),
	})

	if err := db.ConnectGormDB(cfg); err != nil {
		return err
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(
		&model.Studio{},
		&model.Operator{},
		&model.RundownPlaylist{},
		&model.Rundown{},
		&model.Segment{},
		&model.Part{},
		&model.PartInstance{},
		&model.AdLib{},
		&model.ShowStyleBase{},
	); err != nil {
		return err
	}

	if seed {
		return seedDemoData(cfg)
	}
	return nil
}
