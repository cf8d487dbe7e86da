package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/medreza/honcho-rewards-ledger/pkg/codegen"
	"github.com/medreza/honcho-rewards-ledger/pkg/config"
	"github.com/medreza/honcho-rewards-ledger/pkg/database"
	"github.com/medreza/honcho-rewards-ledger/pkg/handlers"
	"github.com/medreza/honcho-rewards-ledger/pkg/ledger"
	"github.com/medreza/honcho-rewards-ledger/pkg/middleware"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository"
	mongostore "github.com/medreza/honcho-rewards-ledger/pkg/repository/mongo"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository/postgres"
)

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		_, db, err := database.InitMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		store := mongostore.New(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		return store, nil
	default:
		pool, err := database.InitPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		return postgres.New(pool), nil
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	cfg.ConfigureLogging()

	loc, err := cfg.Location()
	if err != nil {
		logrus.Fatalf("Failed to load timezone: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, cancelInit := context.WithTimeout(ctx, 30*time.Second)
	store, err := openStore(initCtx, cfg)
	cancelInit()
	if err != nil {
		logrus.Fatalf("Failed to initialize %s store: %v", cfg.StoreDriver, err)
	}

	gen := codegen.New(0)
	allocator := ledger.NewAllocator(store, store, gen, ledger.AllocatorConfig{
		DailySpots:     cfg.ContestDailySpots,
		WinProbability: cfg.ContestWinProbability,
		Calendar:       ledger.NewCalendar(loc),
	})

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())
	handlers.RegisterRoutes(router, handlers.Handlers{
		Rewards:   handlers.NewRewardsHandler(allocator),
		GiftCards: handlers.NewGiftCardHandler(ledger.NewGiftCardLedger(store, gen)),
		Loyalty:   handlers.NewLoyaltyHandler(ledger.NewLoyaltyManager(store)),
		Promos:    handlers.NewPromoHandler(ledger.NewPromoService(store, gen)),
		Health:    handlers.NewHealthHandler(store),
	}, cfg.JWTSecret)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.WithFields(logrus.Fields{
			"port":     cfg.Port,
			"store":    cfg.StoreDriver,
			"timezone": loc.String(),
		}).Info("Starting service")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("Shutting down service...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logrus.WithError(err).Error("Service stopped with error")
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := store.Close(closeCtx); err != nil {
		logrus.WithError(err).Warn("Failed to close store")
	}

	logrus.Info("Service exited")
}
