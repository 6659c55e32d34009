package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tinoosan/fintrack/internal/config"
	"github.com/tinoosan/fintrack/internal/httpapi"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/storage/memory"
	pgstore "github.com/tinoosan/fintrack/internal/storage/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := buildLogger(cfg)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	var store httpapi.Store
	var closeFn func()

	switch cfg.Backend {
	case "postgres":
		if err := pgstore.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Error("migrations failed", "err", err)
			os.Exit(1)
		}
		pg, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = pg.Close
		if cfg.DevSeed {
			user, accs, err := pg.SeedDev(ctx)
			if err != nil {
				logger.Error("dev seed failed", "err", err)
			} else {
				printDevSeed(logger, "postgres", user, accs)
			}
		}
		store = pg
		logger.Info("storage backend: postgres")
	default:
		mem := memory.New()
		if cfg.DevSeed {
			user, accs := seedMemory(mem)
			printDevSeed(logger, "memory", user, accs)
		}
		store = mem
		logger.Info("storage backend: memory")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.New(store, logger).Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("fintrack service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

// seedMemory provisions a demo user with two accounts for local testing.
func seedMemory(store *memory.Store) (ledger.User, []ledger.Account) {
	user := ledger.User{ID: uuid.New()}
	store.SeedUser(user)
	checking := ledger.Account{ID: uuid.New(), UserID: user.ID, Name: "Checking", Type: ledger.AccountTypeChecking, Balance: decimal.MustParse("1000"), Institution: "Demo Bank", Active: true}
	savings := ledger.Account{ID: uuid.New(), UserID: user.ID, Name: "Savings", Type: ledger.AccountTypeSavings, Balance: decimal.MustParse("5000"), Institution: "Demo Bank", Active: true}
	store.SeedAccount(checking)
	store.SeedAccount(savings)
	return user, []ledger.Account{checking, savings}
}

// printDevSeed logs the seeded IDs and prints a banner for easy copy/paste.
func printDevSeed(l *slog.Logger, backend string, user ledger.User, accs []ledger.Account) {
	l.Info("DEV seed ("+backend+")", "user_id", user.ID.String())
	fmt.Println("==================== DEV SEED ====================")
	fmt.Printf("user_id: %s\n", user.ID.String())
	for _, a := range accs {
		fmt.Printf("%s_account_id: %s\n", a.Type, a.ID.String())
	}
	fmt.Println("==================================================")
}

func parseLogLevel(s string) slog.Leveler {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
