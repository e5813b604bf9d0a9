// Package main runs the live broadcast platform HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/CraftAlchemy/Vidora-sub000/config"
	"github.com/CraftAlchemy/Vidora-sub000/internal/auditlog"
	"github.com/CraftAlchemy/Vidora-sub000/internal/auth"
	"github.com/CraftAlchemy/Vidora-sub000/internal/catalog"
	"github.com/CraftAlchemy/Vidora-sub000/internal/engagement"
	"github.com/CraftAlchemy/Vidora-sub000/internal/health"
	"github.com/CraftAlchemy/Vidora-sub000/internal/live"
	"github.com/CraftAlchemy/Vidora-sub000/internal/middleware"
	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
	"github.com/CraftAlchemy/Vidora-sub000/internal/realtime"
	"github.com/CraftAlchemy/Vidora-sub000/internal/sessions"
	"github.com/CraftAlchemy/Vidora-sub000/internal/wallet"
	"github.com/CraftAlchemy/Vidora-sub000/internal/worker"
	"github.com/CraftAlchemy/Vidora-sub000/pkg/database"
	"github.com/CraftAlchemy/Vidora-sub000/pkg/queue"
	"github.com/CraftAlchemy/Vidora-sub000/pkg/redis"
	"github.com/CraftAlchemy/Vidora-sub000/pkg/response"
	"github.com/CraftAlchemy/Vidora-sub000/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			GiftIconsBucket:      cfg.AWS.GiftIconsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	sfu := realtime.NewSFU(logger, realtime.ParseICEServers(cfg.WebRTC.ICEUrls))

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, cfg.Wallet.StartingBalance, logger)

	// Gift catalog
	catalogRepo := catalog.NewRepository(pool)
	catalogHandler := catalog.NewHandler(catalogRepo, s3Client, logger)

	// Wallet
	walletRepo := wallet.NewRepository(pool)

	// Moderation audit trail (async via Redis queue)
	jobQueue := queue.New(rdb.Client, logger)
	auditRepo := auditlog.NewRepository(pool)
	auditHandler := auditlog.NewHandler(auditRepo, logger)
	auditProcessor := worker.NewAuditProcessor(auditRepo, jobQueue, logger)

	// Session rows (history)
	sessionRepo := sessions.NewRepository(pool)

	// Live session engine
	manager := live.NewManager(
		live.Config{
			TranscriptCap: cfg.Engagement.TranscriptCap,
			TopGifters:    cfg.Engagement.TopGifters,
			Seed:          cfg.Engagement.Seed,
			Engagement: engagement.Config{
				MinInterval: time.Duration(cfg.Engagement.MinIntervalMS) * time.Millisecond,
				MaxInterval: time.Duration(cfg.Engagement.MaxIntervalMS) * time.Millisecond,
				Weights: engagement.Weights{
					Chat:     cfg.Engagement.ChatWeight,
					Follow:   cfg.Engagement.FollowWeight,
					Gift:     cfg.Engagement.GiftWeight,
					PollVote: cfg.Engagement.PollVoteWeight,
				},
			},
			Health: health.Bounds{
				BitrateMin: cfg.Health.BitrateMin,
				BitrateMax: cfg.Health.BitrateMax,
				FPSMin:     cfg.Health.FPSMin,
				FPSMax:     cfg.Health.FPSMax,
			},
		},
		sfu,
		catalogRepo,
		hub,
		live.Callbacks{
			OnSessionEnded: func(final models.BroadcastSession) {
				endedAt := time.Now()
				if final.EndedAt != nil {
					endedAt = *final.EndedAt
				}
				if err := sessionRepo.End(context.Background(), final.ID, endedAt, final.PeakViewers); err != nil {
					logger.Error("persist session end failed", zap.Error(err), zap.String("session_id", final.ID.String()))
				}
			},
			OnModerationAction: func(kind models.ModerationKind, sessionID, actorID, targetID uuid.UUID) {
				payload := queue.ModerationAuditPayload{
					SessionID: sessionID,
					ActorID:   actorID,
					TargetID:  targetID,
					Kind:      string(kind),
				}
				if err := jobQueue.Enqueue(context.Background(), queue.QueueAudit, queue.JobTypeModerationAudit, payload); err != nil {
					logger.Error("enqueue audit job failed", zap.Error(err))
				}
			},
		},
		logger,
	)

	// Roster and chat flow from the socket layer into the session engine.
	hub.SetRosterHandlers(
		func(sessionID uuid.UUID, viewer models.Viewer) bool {
			s, ok := manager.Get(sessionID)
			if !ok {
				return false
			}
			if !s.AddViewer(viewer) {
				return false
			}
			_ = sessionRepo.UpdatePeakViewers(context.Background(), sessionID, s.AudienceCount())
			return true
		},
		func(sessionID, userID uuid.UUID) {
			if s, ok := manager.Get(sessionID); ok {
				s.RemoveViewer(userID)
			}
		},
	)
	hub.SetChatHandler(func(sessionID uuid.UUID, viewer models.Viewer, text, imageURL string) {
		if s, ok := manager.Get(sessionID); ok {
			s.PostChat(viewer, text, imageURL)
		}
	})

	sessionHandler := sessions.NewHandler(manager, sessionRepo, walletRepo, catalogRepo, logger)

	jwtValidate := func(token string) (userID, username, role string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", "", "", err
		}
		return claims.UserID.String(), claims.Username, claims.Role, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/auth/me", authHandler.Me)

		// Gift catalog
		api.GET("/gifts", catalogHandler.List)
		api.GET("/gifts/all", middleware.RequireRole("admin"), catalogHandler.ListAll)
		api.POST("/gifts", middleware.RequireRole("admin"), catalogHandler.Create)
		api.POST("/gifts/:id/icon", middleware.RequireRole("admin"), catalogHandler.UploadIcon)
		api.GET("/gifts/:id/icon", catalogHandler.Icon)
		api.PATCH("/gifts/:id/active", middleware.RequireRole("admin"), catalogHandler.ToggleActive)
		api.DELETE("/gifts/:id", middleware.RequireRole("admin"), catalogHandler.Delete)

		// Broadcast sessions
		api.POST("/sessions", middleware.RequireRole("admin", "broadcaster"), sessionHandler.Start)
		api.GET("/sessions/live", sessionHandler.Live)
		api.GET("/sessions/history", middleware.RequireRole("admin", "broadcaster"), sessionHandler.History)
		api.GET("/sessions/:id", sessionHandler.Get)
		api.DELETE("/sessions/:id", sessionHandler.End)

		// In-session engagement
		api.GET("/sessions/:id/transcript", sessionHandler.Transcript)
		api.GET("/sessions/:id/top-gifters", sessionHandler.TopGifters)
		api.POST("/sessions/:id/chat", sessionHandler.Chat)
		api.POST("/sessions/:id/gifts", sessionHandler.SendGift)
		api.POST("/sessions/:id/share", sessionHandler.Share)
		api.GET("/sessions/:id/viewers/:target", sessionHandler.ViewProfile)

		// Polls
		api.GET("/sessions/:id/poll", sessionHandler.Poll)
		api.POST("/sessions/:id/polls", sessionHandler.LaunchPoll)
		api.POST("/sessions/:id/polls/end", sessionHandler.EndPoll)
		api.POST("/sessions/:id/polls/vote", sessionHandler.Vote)

		// Moderation
		api.POST("/sessions/:id/pin", sessionHandler.Pin)
		api.POST("/sessions/:id/mute", sessionHandler.Mute)
		api.POST("/sessions/:id/unmute", sessionHandler.Unmute)
		api.POST("/sessions/:id/ban", sessionHandler.Ban)
		api.GET("/sessions/:id/audit", middleware.RequireRole("admin"), auditHandler.ListBySession)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", func(c *gin.Context) {
		realtime.ServeWs(hub, logger, jwtValidate, sfu)(c)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (moderation audit persistence)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go auditProcessor.Run(workerCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	manager.Shutdown()
	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
