package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/vbonduro/drinkbudget/internal/backend/local"
	"github.com/vbonduro/drinkbudget/internal/backend/remote"
	"github.com/vbonduro/drinkbudget/internal/blobstore"
	filestore "github.com/vbonduro/drinkbudget/internal/blobstore/local"
	redisstore "github.com/vbonduro/drinkbudget/internal/blobstore/redis"
	"github.com/vbonduro/drinkbudget/internal/config"
	"github.com/vbonduro/drinkbudget/internal/db"
	"github.com/vbonduro/drinkbudget/internal/identity"
	"github.com/vbonduro/drinkbudget/internal/identity/magiclink"
	"github.com/vbonduro/drinkbudget/internal/logging"
	"github.com/vbonduro/drinkbudget/internal/state"
	"github.com/vbonduro/drinkbudget/internal/store"
	"github.com/vbonduro/drinkbudget/internal/web"
)

const redisKeyPrefix = "drinkbudget:"

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return
	}

	backend, auth, closeBackend, err := newBackend(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize backend", "backend", cfg.Backend, "error", err)
		return
	}
	defer closeBackend()

	budgetStore := state.New(backend, logger)

	// A failed first load is not fatal: the status shows it and the client
	// can retry through POST /budget/load.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := budgetStore.Load(ctx); err != nil {
		logger.Warn("initial budget load failed", "error", err)
	}
	cancel()

	// A nil *magiclink.Provider would reach NewServer as a non-nil interface
	// and register the /auth routes, so pass an untyped nil instead.
	var server *web.Server
	if auth != nil {
		server = web.NewServer(budgetStore, auth, logger)
	} else {
		server = web.NewServer(budgetStore, nil, logger)
	}

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

// newBackend builds the configured persistence backend. auth is nil unless
// the remote backend requires sign-in.
func newBackend(cfg *config.Config, logger *slog.Logger) (state.Backend, *magiclink.Provider, func(), error) {
	switch cfg.Backend {
	case config.BackendRemote:
		return newRemoteBackend(cfg, logger)
	default:
		blobs, closeBlobs, err := newBlobStore(cfg, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("using local backend", "store", cfg.LocalStore, "key", cfg.BudgetKey)
		return local.New(blobs, cfg.BudgetKey, cfg.Currency, logger), nil, closeBlobs, nil
	}
}

func newBlobStore(cfg *config.Config, logger *slog.Logger) (blobstore.BlobStore, func(), error) {
	if cfg.LocalStore == config.LocalStoreRedis {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client, err := redisstore.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return redisstore.NewRedisBlobStore(client, redisKeyPrefix), func() {
			if err := client.Close(); err != nil {
				logger.Error("failed to close redis client", "error", err)
			}
		}, nil
	}

	blobs, err := filestore.NewFileBlobStore(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize file store: %w", err)
	}
	return blobs, func() {}, nil
}

func newRemoteBackend(cfg *config.Config, logger *slog.Logger) (state.Backend, *magiclink.Provider, func(), error) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, err
	}
	closeDB := func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}

	opts := remote.Options{
		Slug:            cfg.BudgetSlug,
		RequireAuth:     cfg.RequireAuth,
		AllowList:       identity.NewAllowList(cfg.AllowedEmails),
		DefaultCurrency: cfg.Currency,
	}
	budgets := store.NewBudgetStore(database)
	items := store.NewItemStore(database)

	if !cfg.AuthEnabled() {
		logger.Info("using remote backend without sign-in", "db", cfg.DBPath, "slug", cfg.BudgetSlug)
		return remote.New(budgets, items, nil, opts, logger), nil, closeDB, nil
	}

	auth := magiclink.New(cfg.AuthSecret, cfg.LoginLinkURL, magiclink.LogMailer{Logger: logger}, logger,
		magiclink.WithLoginTTL(cfg.LoginTTL),
		magiclink.WithSessionTTL(cfg.SessionTTL),
	)
	logger.Info("using remote backend with sign-in", "db", cfg.DBPath, "slug", cfg.BudgetSlug, "allowed", len(opts.AllowList))
	return remote.New(budgets, items, auth, opts, logger), auth, closeDB, nil
}
