package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"carpool-matching-service/api"
	"carpool-matching-service/auth"
	"carpool-matching-service/cache"
	"carpool-matching-service/config"
	"carpool-matching-service/database"
	"carpool-matching-service/geoindex"
	"carpool-matching-service/matching"
	"carpool-matching-service/migration"
	"carpool-matching-service/notify"
	"carpool-matching-service/requests"
	"carpool-matching-service/reviews"
	"carpool-matching-service/store"
	"carpool-matching-service/support"
	"carpool-matching-service/trips"
)

func main() {
	migrate := flag.Bool("migrate", false, "run database migrations and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	logger := buildLogger(cfg)
	defer logger.Sync()

	if *migrate {
		if err := migration.Run(cfg.DB); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
		logger.Info("migrations applied")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DB)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	defer db.Close()

	rdb, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		if cfg.Match.Index == "geohash" {
			logger.Fatal("connect redis", zap.Error(err))
		}
		logger.Warn("redis unavailable, continuing with in-process index", zap.Error(err))
		rdb = nil
	}

	st := store.New(db)
	index := geoindex.New(cfg.Match, rdb)
	if err := rebuildIndex(ctx, st, index); err != nil {
		logger.Fatal("rebuild spatial index", zap.Error(err))
	}

	var notifier trips.Notifier = notify.Nop{}
	if cfg.RabbitMQ.URL != "" {
		pub, err := notify.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger)
		if err != nil {
			logger.Fatal("connect rabbitmq", zap.Error(err))
		}
		defer pub.Close()
		notifier = pub
	} else {
		logger.Warn("rabbitmq url not set, events disabled")
	}

	authSvc := auth.NewService(st, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMin)*time.Minute)
	tripsSvc := trips.NewService(st, index, notifier, logger)
	matcher := matching.New(st, index, cfg.Match, logger)
	requestsSvc := requests.NewService(st, logger)
	reviewsSvc := reviews.NewService(st)
	supportSvc := support.NewService(st, support.NewHub(), logger)

	server := api.NewServer(authSvc, tripsSvc, matcher, requestsSvc, reviewsSvc, supportSvc,
		logger, cfg.Production())

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

// rebuildIndex seeds the spatial index with every active driver route.
// SAdd is idempotent, so re-seeding a shared Redis index is harmless.
func rebuildIndex(ctx context.Context, st *store.Store, index geoindex.Index) error {
	routes, err := st.ActiveDriverRoutes(ctx)
	if err != nil {
		return err
	}
	for _, r := range routes {
		if err := index.Add(ctx, r.ID, r.Start.Lat, r.Start.Lng); err != nil {
			return err
		}
	}
	return nil
}

func buildLogger(cfg *config.Config) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if !cfg.Production() {
		zcfg = zap.NewDevelopmentConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.Log.Level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	logger, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
