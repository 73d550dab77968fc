package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CrayonFM/cache"
	"CrayonFM/config"
	"CrayonFM/core/scanner"
	"CrayonFM/core/token"
	"CrayonFM/db"
	"CrayonFM/logger"
	"CrayonFM/model"
	"CrayonFM/repository"
	"CrayonFM/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.InfoLevel,
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
		Compress:   true,
	})

	server := &http.Server{
		Addr:        cfg.ServerAddr,
		ReadTimeout: 30 * time.Second,
		// 音频流响应可能持续很久，写超时放宽
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Connect to the database (source of truth, hard requirement)
	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database with GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	// Redis 不可用时降级为纯数据库模式，不阻止启动
	redisAvailable := true
	if err := db.ConnectRedis(cfg); err != nil {
		redisAvailable = false
		logger.Warn("Redis unavailable, session cache disabled", logger.ErrorField(err))
	} else {
		defer db.CloseRedis()
	}

	// Initialize database schema
	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if err := db.AutoMigrateModels(&model.Playlist{}, &model.PlaylistMusic{}); err != nil {
		logger.Fatal("Failed to migrate playlist tables", logger.ErrorField(err))
	}

	// 封面对象存储，连不上不影响核心功能
	if err := storage.InitMinio(cfg); err != nil {
		logger.Warn("Failed to initialize MinIO, cover serving disabled", logger.ErrorField(err))
	}

	userRepo := repository.NewMySQLUserRepository(db.DB)
	musicRepo := repository.NewMySQLMusicRepository(db.DB)
	favoriteRepo := repository.NewMySQLFavoriteRepository(db.DB)
	historyRepo := repository.NewMySQLHistoryRepository(db.DB)
	playlistRepo := repository.NewGormPlaylistRepository(db.GormDB)
	tokenStore := repository.NewMySQLTokenRepository(db.DB)

	var tokenCache token.SessionCache
	var queueCache *cache.QueueCache
	if redisAvailable {
		tokenCache = cache.NewTokenCache(db.RedisClient)
		queueCache = cache.NewQueueCache(db.RedisClient)
	}
	tokens := token.NewService(tokenCache, tokenStore, cfg.TokenTTL)

	apiHandler := NewAPIHandler(userRepo, musicRepo, favoriteRepo, historyRepo, playlistRepo, tokens, queueCache, cfg)

	router := NewRouter(apiHandler)
	server.Handler = router

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 定时清理过期token
	go sweepLoop(rootCtx, tokens)

	// 媒体目录扫描与监听
	if cfg.MediaScan {
		sc := scanner.New(musicRepo, cfg.MediaRoot)
		go func() {
			if _, err := sc.Scan(rootCtx); err != nil {
				logger.Error("媒体目录扫描失败", logger.ErrorField(err))
			}
			if err := sc.Watch(rootCtx); err != nil && rootCtx.Err() == nil {
				logger.Error("媒体目录监听退出", logger.ErrorField(err))
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}

// sweepLoop runs the expired-token sweep once an hour until ctx ends.
func sweepLoop(ctx context.Context, tokens *token.Service) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := tokens.SweepExpired(ctx); err != nil {
				logger.Warn("清理过期token失败", logger.ErrorField(err))
			}
		}
	}
}

// NewRouter builds the mux router with CORS middleware and all routes.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()

	// CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// 用户相关
	router.HandleFunc("/api/user/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/user/info", h.AuthMiddleware(h.UserInfoHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/user/statistics", h.AuthMiddleware(h.UserStatisticsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/user/update", h.AuthMiddleware(h.UpdateProfileHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/user/password", h.AuthMiddleware(h.ChangePasswordHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/user/logout", h.LogoutHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/user/refresh", h.RefreshTokenHandler).Methods(http.MethodPost)

	// 音乐相关
	router.HandleFunc("/api/music/list", h.AuthMiddleware(h.MusicListHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/music/search", h.AuthMiddleware(h.MusicSearchHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/music/detail", h.AuthMiddleware(h.MusicDetailHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/music/recommend", h.AuthMiddleware(h.MusicRecommendHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/music/hot", h.AuthMiddleware(h.MusicHotHandler)).Methods(http.MethodGet)

	// 播放历史
	router.HandleFunc("/api/history/list", h.AuthMiddleware(h.HistoryListHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/history/add", h.AuthMiddleware(h.HistoryAddHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/history/delete", h.AuthMiddleware(h.HistoryDeleteHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/history/clear", h.AuthMiddleware(h.HistoryClearHandler)).Methods(http.MethodPost)

	// 收藏相关
	router.HandleFunc("/api/favorite/list", h.AuthMiddleware(h.FavoriteListHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/favorite/add", h.AuthMiddleware(h.FavoriteAddHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/favorite/remove", h.AuthMiddleware(h.FavoriteRemoveHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/favorite/check", h.AuthMiddleware(h.FavoriteCheckHandler)).Methods(http.MethodGet)

	// 歌单
	router.HandleFunc("/api/playlist/list", h.AuthMiddleware(h.PlaylistListHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlist/create", h.AuthMiddleware(h.PlaylistCreateHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlist/update", h.AuthMiddleware(h.PlaylistUpdateHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlist/delete", h.AuthMiddleware(h.PlaylistDeleteHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlist/detail", h.AuthMiddleware(h.PlaylistDetailHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlist/addMusic", h.AuthMiddleware(h.PlaylistAddMusicHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlist/removeMusic", h.AuthMiddleware(h.PlaylistRemoveMusicHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlist/getQueue", h.AuthMiddleware(h.QueueGetHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlist/saveQueue", h.AuthMiddleware(h.QueueSaveHandler)).Methods(http.MethodPost)

	// 音频流传输（经过鉴权）
	router.HandleFunc("/stream/audio", h.AuthMiddleware(h.StreamAudioHandler)).Methods(http.MethodGet, http.MethodHead)

	// 封面图
	router.PathPrefix("/static/").HandlerFunc(h.CoverHandler).Methods(http.MethodGet)

	return router
}
