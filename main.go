package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leonardo27oliveira02-spec/garccom-app/config"
	"github.com/leonardo27oliveira02-spec/garccom-app/database"
	"github.com/leonardo27oliveira02-spec/garccom-app/kds"
	"github.com/leonardo27oliveira02-spec/garccom-app/middlewares"
	"github.com/leonardo27oliveira02-spec/garccom-app/realtime"
	"github.com/leonardo27oliveira02-spec/garccom-app/router"
	"github.com/leonardo27oliveira02-spec/garccom-app/services"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
	"golang.org/x/sync/errgroup"
)

func main() {
	utils.InitLogger()
	cfg := config.Load()
	utils.SetLevel(cfg.LogLevel)

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	utils.SetJWTSecret(cfg.JWTSecret)

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}

	feed := realtime.NewFeed()
	store := database.NewGormStore(db, feed, cfg.StoreOptions())

	orders := services.NewOrderEngine(store, nil)
	if client := config.InitRedis(cfg); client != nil {
		guard := database.NewRedisGuard(client, cfg.SubmissionTTL)
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := guard.Ping(pingCtx); err != nil {
			utils.ErrorLogger.Warnf("redis at %s unreachable, submissions rely on the database key: %v", cfg.RedisAddr, err)
		}
		cancel()
		orders.Guard = guard
		defer client.Close()
	}

	tables := services.NewTableSessionManager(store)
	hub := kds.NewHub()

	monitor := services.NewChangeMonitor(db, feed)
	monitor.Interval = cfg.MonitorInterval
	monitor.Retention = cfg.ChangeRetention

	r := router.SetupRouter(router.Dependencies{
		Orders:  orders,
		Tables:  tables,
		Staff:   services.NewStaffDirectory(store),
		Menu:    services.NewMenuCatalog(store),
		Reset:   services.NewDailyResetService(store, services.LoadLocation(cfg.Timezone)),
		Views:   &services.Views{Orders: orders, Tables: tables, Refresh: cfg.Refresh},
		Feed:    store,
		Hub:     hub,
		Limiter: middlewares.NewLoginRateLimiter(),

		AllowedOrigin:  cfg.AllowedOrigin,
		TrustedProxies: cfg.TrustedProxies,
		HSTS:           cfg.HSTS,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return monitor.Run(ctx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-ticker.C:
				if n := utils.CleanupBlacklist(now); n > 0 {
					utils.InfoLogger.Debugf("dropped %d expired tokens", n)
				}
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		utils.InfoLogger.Info("Shutting down")
		hub.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}
