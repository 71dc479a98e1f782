package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"synthpool/config"
	"synthpool/gateway"
	"synthpool/gateway/middleware"
	"synthpool/native/bank"
	nativecommon "synthpool/native/common"
	"synthpool/native/synth"
	"synthpool/observability/logging"
	"synthpool/services/oracle"
	"synthpool/services/registry"
	"synthpool/storage"
)

const schedulerInterval = 30 * time.Second

type pauseView struct {
	synth bool
}

func (p pauseView) IsPaused(module string) bool {
	return module == "synth" && p.synth
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("SYNTHPOOL_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup("synthd", env, logging.ParseLevel(cfg.LogLevel))

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		logger.Error("open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	svc, feed, err := buildService(cfg, db, logger)
	if err != nil {
		logger.Error("build pool service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	obs := middleware.NewObservability(middleware.ObservabilityConfig{
		ServiceName: "synthd",
		LogRequests: true,
	}, logger)
	limiter := middleware.NewRateLimiter(nativecommon.Quota{
		MaxRequestsPerMin:  cfg.Pool.Quota.MaxRequestsPerMin,
		MaxReservePerEpoch: cfg.Pool.Quota.MaxReservePerEpoch,
		EpochSeconds:       cfg.Pool.Quota.EpochSeconds,
	}, logger)

	router := gateway.NewRouter(svc, gateway.RouterConfig{
		Observability: obs,
		RateLimiter:   limiter,
	})

	mux := http.NewServeMux()
	mux.Handle("/", router)
	mux.Handle("/oracle/", http.StripPrefix("/oracle", feed.Handler()))

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runScheduler(ctx, svc, logger)

	go func() {
		logger.Info("gateway listening", slog.String("addr", cfg.ListenAddress), slog.String("pool", svc.PoolID()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("gateway server", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.String("error", err.Error()))
	}
}

func buildService(cfg *config.Config, db storage.Database, logger *slog.Logger) (*gateway.Service, *oracle.Manual, error) {
	genesisPrice, ok := new(big.Int).SetString(strings.TrimSpace(cfg.Pool.GenesisPrice), 10)
	if !ok || genesisPrice.Sign() <= 0 {
		return nil, nil, fmt.Errorf("invalid pool.GenesisPrice %q", cfg.Pool.GenesisPrice)
	}
	feed, err := oracle.NewManual(genesisPrice)
	if err != nil {
		return nil, nil, err
	}

	poolCfg, err := cfg.Pool.PoolConfig()
	if err != nil {
		return nil, nil, err
	}
	admin, err := cfg.Pool.AdminAddress()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid pool.Admin: %w", err)
	}

	reserve := bank.NewLedger(cfg.Pool.ReserveSymbol)
	state := synth.NewStore(db, poolCfg.ID)
	allow := registry.NewStatic([]string{poolCfg.Asset}, []string{cfg.Pool.OracleName})

	engine, err := synth.NewPool(poolCfg, state, feed, reserve, allow, admin)
	if err != nil {
		return nil, nil, err
	}
	engine.SetPauses(pauseView{synth: cfg.Pool.Pauses.Synth})

	return gateway.NewService(engine, logger), feed, nil
}

// runScheduler drives the phase transitions that depend only on time: the
// engine rejects premature attempts, so the loop simply retries every tick.
func runScheduler(ctx context.Context, svc *gateway.Service, logger *slog.Logger) {
	ticker := time.NewTicker(schedulerInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			attempt(svc, logger, "offchain", func(e *synth.Engine) error {
				return e.InitiateOffchainRebalance()
			})
			attempt(svc, logger, "onchain", func(e *synth.Engine) error {
				return e.InitiateOnchainRebalance()
			})
		}
	}
}

func attempt(svc *gateway.Service, logger *slog.Logger, phase string, fn func(*synth.Engine) error) {
	err := svc.Exec(fn)
	switch {
	case err == nil:
		logger.Info("cycle transition", slog.String("phase", phase))
	case errors.Is(err, synth.ErrCycleNotElapsed),
		errors.Is(err, synth.ErrRebalanceNotElapsed),
		errors.Is(err, synth.ErrWrongPhase),
		errors.Is(err, synth.ErrMarketOpen),
		errors.Is(err, synth.ErrMarketClosed),
		errors.Is(err, synth.ErrPoolHalted):
		logger.Debug("cycle transition deferred", slog.String("phase", phase), slog.String("reason", err.Error()))
	default:
		logger.Warn("cycle transition failed", slog.String("phase", phase), slog.String("error", err.Error()))
	}
}
