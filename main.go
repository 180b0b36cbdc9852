package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apirest "github.com/nanakusa/frontier/api/rest"
	apows "github.com/nanakusa/frontier/api/ws"
	"github.com/nanakusa/frontier/audit"
	"github.com/nanakusa/frontier/cache"
	"github.com/nanakusa/frontier/config"
	dbadapter "github.com/nanakusa/frontier/db"
	"github.com/nanakusa/frontier/game/battle"
	"github.com/nanakusa/frontier/game/factory"
	"github.com/nanakusa/frontier/game/session"
	mw "github.com/nanakusa/frontier/middleware"
	"github.com/nanakusa/frontier/model"
	"github.com/nanakusa/frontier/resource"
	"github.com/nanakusa/frontier/scheduler"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if len(cfg.Server.AdminIPs) == 0 {
		logger.Warn("server.admin_ips is empty; admin endpoints accept any client IP")
	}
	if cfg.Security.JWTSecret == "" {
		logger.Fatal("security.jwt_secret is empty; refusing to issue forgeable tokens")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Audit ----
	auditSvc := audit.New(db, logger)

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Game data ----
	// A battle server with no species or rental sets can serve nothing,
	// so a load failure is fatal rather than a warning.
	res := resource.NewLoader(cfg.Resource.DataPath)
	if err := res.Load(); err != nil {
		log.Fatalf("resources: %v", err)
	}
	logger.Info("game data loaded",
		zap.Int("species", len(res.Species)),
		zap.Int("moves", len(res.Moves)),
		zap.Int("rental_sets", len(res.Rentals)),
		zap.Int("trainers", len(res.Trainers)))

	// ---- Scheduler ----
	sched := scheduler.New(logger)

	// ---- Game systems ----
	sessions := session.NewManager(logger)
	if err := sessions.AttachPubSub(context.Background(), pubsub); err != nil {
		logger.Warn("pubsub attach failed; announcements stay node-local", zap.Error(err))
	}

	eng := battle.NewEngine(res, battle.Config{Logger: logger})
	fac := factory.NewService(db, c, res, cfg.Factory, cfg.Battle.Level, logger)
	runner := session.NewBattleRunner(eng, fac, auditSvc, sessions, cfg.Battle, logger)

	// ---- Periodic Scheduler Tasks ----
	sched.AddTicker("session_sweep", 5*time.Minute, func() {
		if n := sessions.SweepIdle(30 * time.Minute); n > 0 {
			logger.Info("idle sessions swept", zap.Int("count", n))
		}
	})
	sched.AddTicker("leaderboard_refresh", 10*time.Minute, func() {
		if _, err := fac.RefreshLeaderboard(context.Background()); err != nil {
			logger.Warn("leaderboard refresh failed", zap.Error(err))
		}
	})

	// ---- WS Router ----
	wsRouter := apows.NewRouter(logger)
	bh := apows.NewBattleHandlers(runner, logger)
	bh.RegisterHandlers(wsRouter)

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(db, c, cfg.Security, auditSvc)
	facH := apirest.NewFactoryHandler(db, fac, res, auditSvc)
	recH := apirest.NewRecordHandler(db, fac, logger)
	lbH := apirest.NewLeaderboardHandler(fac, logger)
	profH := apirest.NewProfileHandler(db)
	adminH := apirest.NewAdminHandler(db, sessions, runner, sched, logger)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/register", authH.Register)
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		runsG := api.Group("/factory/runs")
		runsG.Use(mw.Auth(cfg.Security, c))
		runsG.POST("", facH.StartRun)
		runsG.GET("/:id", facH.GetRun)
		runsG.POST("/:id/team", facH.PickTeam)
		runsG.POST("/:id/swap", facH.Swap)
		runsG.POST("/:id/retire", facH.Retire)

		// A record is public under its battle ID; the listing is not.
		api.GET("/records/:battle_id", recH.Get)
		api.GET("/records", mw.Auth(cfg.Security, c), recH.List)

		api.GET("/leaderboard", lbH.Top)
		api.GET("/profile", mw.Auth(cfg.Security, c), profH.Get)

		adminG := api.Group("/admin")
		adminG.Use(mw.IPWhitelist(cfg.Server.AdminIPs))
		adminG.GET("/stats", adminH.Stats)
		adminG.GET("/trainers", adminH.ListTrainers)
		adminG.POST("/kick/:id", adminH.KickTrainer)
		adminG.POST("/accounts/:id/ban", adminH.BanAccount)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
		adminG.DELETE("/scheduler/:name", adminH.RemoveSchedulerTask)
		adminG.POST("/leaderboard/refresh", lbH.Refresh)
	}

	// ---- WebSocket ----
	wsH := apows.NewHandler(db, c, cfg.Security, sessions, runner, wsRouter, logger)
	r.GET("/ws", wsH.ServeWS)

	// ---- Serve until interrupted ----
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	sessions.CloseAll()
	runner.Stop()
	sched.Stop()
	auditSvc.Stop(shutdownCtx)
}
