package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/songclash/songclash-backend/internal/catalog"
	"github.com/songclash/songclash-backend/internal/config"
	"github.com/songclash/songclash-backend/internal/directory"
	"github.com/songclash/songclash-backend/internal/httpapi"
	"github.com/songclash/songclash-backend/internal/hub"
	"github.com/songclash/songclash-backend/internal/logging"
	"github.com/songclash/songclash-backend/internal/session"
	"github.com/songclash/songclash-backend/internal/statesync"
	"github.com/songclash/songclash-backend/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Store selection happens here, once, behind the same contract.
	mem := store.NewMemory()
	var st statesync.Store = mem
	var feed statesync.Feed = mem
	if cfg.StoreDriver == "postgres" {
		pg, err := store.NewPostgres(cfg.PostgresDSN, mem)
		if err != nil {
			logger.Fatal("postgres store", zap.Error(err))
		}
		st = pg
		feed = pg
	}
	prop := statesync.NewPropagator(st, feed, logger)

	var cat catalog.Catalog
	if cfg.CatalogPath != "" {
		sqlCat, err := catalog.NewSQLite(cfg.CatalogPath)
		if err != nil {
			logger.Fatal("track catalog", zap.Error(err))
		}
		cat = sqlCat
	} else {
		cat = catalog.NewMemory()
	}

	deps := session.Deps{
		Propagator: prop,
		Catalog:    cat,
		Directory:  directory.NewMemory(),
		Log:        logger,
	}
	h := hub.NewHub(ctx, deps)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(h, cfg.JoinBaseURL, logger),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		h.Inbox() <- hub.ShutdownHub{}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
