package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"aqve/internal/api"
	"aqve/internal/auth"
	"aqve/internal/config"
	"aqve/internal/db"
	"aqve/internal/logger"
	"aqve/internal/metrics"
	"aqve/internal/service"
)

const shutdownTimeout = 10 * time.Second

// The development backend serves the REST contract from memory so the CLI
// can be used without the production API.
func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, log, err := bootstrap(*configPath)
	if err != nil {
		stdlog.Fatal(err)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// bootstrap loads the configuration and builds the logger. Its failures
// happen before any zap logger exists.
func bootstrap(configPath string) (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	issuer, err := auth.NewIssuer(cfg.Server.JWTSecret, cfg.Server.TokenTTL)
	if err != nil {
		return err
	}

	store := db.NewStore()
	store.SeedParking()

	jobs := service.NewJobService(store, log.Named("jobs"))
	if err := jobs.Schedule(cfg.Server.JobSchedule); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: api.NewRouter(api.RouterConfig{
			Store:               store,
			Issuer:              issuer,
			Log:                 log.Named("http"),
			Metrics:             metrics.NewServerMetrics(reg),
			StripeWebhookSecret: cfg.Stripe.WebhookSecret,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs.Start()
	errc := make(chan error, 1)
	go func() {
		log.Infof("Server running on port %s", cfg.Server.Port)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	jobs.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}
