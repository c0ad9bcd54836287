package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/vaughan-dsouza/salonbook/internal/auth"
	"github.com/vaughan-dsouza/salonbook/internal/config"
	"github.com/vaughan-dsouza/salonbook/internal/db"
	"github.com/vaughan-dsouza/salonbook/internal/handlers"
	"github.com/vaughan-dsouza/salonbook/internal/logging"
	"github.com/vaughan-dsouza/salonbook/internal/metrics"
	"github.com/vaughan-dsouza/salonbook/internal/middleware"
	"github.com/vaughan-dsouza/salonbook/internal/ratelimit"
	"github.com/vaughan-dsouza/salonbook/internal/server"
	"github.com/vaughan-dsouza/salonbook/internal/store"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "salonbook",
		Short:         "Salon booking API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file path")
	cmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "salonbook %s\n", version)
		},
	})

	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	stores, closeStores, err := openStores(ctx, cfg.DB, log)
	if err != nil {
		return err
	}
	defer closeStores()

	counter, closeCounter, err := newCounter(ctx, cfg.RateLimit, log)
	if err != nil {
		return err
	}
	defer closeCounter()

	m := metrics.New()
	tokens := auth.NewIssuer(cfg.Auth)
	users := stores.users

	h := handlers.NewHandler(handlers.Deps{
		Users:        users,
		Schedules:    stores.schedules,
		Appointments: stores.appointments,
		DB:           stores.ping,
		Tokens:       tokens,
		Auth:         cfg.Auth,
		Log:          log,
		Metrics:      m,
	})

	router := server.NewRouter(server.Options{
		Handler:       h,
		Authenticator: middleware.NewAuthenticator(tokens, users, log, m),
		APILimiter:    ratelimit.New("api", counter, cfg.RateLimit.Max, cfg.RateLimit.Window),
		AuthLimiter:   ratelimit.New("auth", counter, cfg.RateLimit.AuthMax, cfg.RateLimit.AuthWindow),
		CORSOrigins:   cfg.HTTP.CORSOrigins,
		Log:           log,
		Metrics:       m,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info(ctx, "server exited")
	return nil
}

type storeSet struct {
	users        store.UserStore
	schedules    store.ScheduleStore
	appointments store.AppointmentStore
	ping         handlers.Pinger
}

// openStores connects to Postgres, or builds the in-memory stores when
// cfg.InMemory is set.
func openStores(ctx context.Context, cfg config.DBConfig, log logging.Logger) (storeSet, func(), error) {
	if cfg.InMemory {
		log.Warn(ctx, "using in-memory stores, data is lost on exit")
		mem := store.NewMemory()
		mem.AddClient(1, "Walk-in")
		return storeSet{
			users:        mem.Users(),
			schedules:    mem.Schedules(),
			appointments: mem.Appointments(),
			ping:         mem,
		}, func() {}, nil
	}

	dbConn, err := db.Connect(ctx, cfg)
	if err != nil {
		return storeSet{}, nil, err
	}
	log.Info(ctx, "database connection established")

	return storeSet{
		users:        store.NewPostgresUsers(dbConn),
		schedules:    store.NewPostgresSchedules(dbConn),
		appointments: store.NewPostgresAppointments(dbConn),
		ping:         dbConn,
	}, func() { _ = dbConn.Close() }, nil
}

// newCounter picks Redis-backed rate limit counters when REDIS_URL is set.
func newCounter(ctx context.Context, cfg config.RateLimitConfig, log logging.Logger) (ratelimit.Counter, func(), error) {
	if cfg.RedisURL == "" {
		log.Warn(ctx, "REDIS_URL not set, rate limits are per instance")
		return ratelimit.NewMemoryCounter(), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: parse url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("redis: ping: %w", err)
	}

	return ratelimit.NewRedisCounter(rdb), func() { _ = rdb.Close() }, nil
}
