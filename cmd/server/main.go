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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"glamora/internal/api"
	"glamora/internal/audit"
	"glamora/internal/booking"
	"glamora/internal/calendar"
	"glamora/internal/catalog"
	"glamora/internal/config"
	"glamora/internal/metrics"
	"glamora/internal/notify"
	"glamora/internal/reservation"
	"glamora/internal/schedule"
	"glamora/internal/slots"
)

func main() {
	_ = godotenv.Load()

	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("GLAMORA_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	salon, err := config.LoadSalon(os.Getenv("GLAMORA_SALON_PATH"))
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn().Msg("salon config not found, using built-in tables")
		salon = config.DefaultSalon()
	} else if err != nil {
		logger.Fatal().Err(err).Msg("failed to load salon config")
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load timezone")
	}

	roster, err := schedule.New(salon)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build roster")
	}
	services := catalog.New(salon)
	subcals := salon.SubcalendarMap()

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cal, err := buildCalendarClient(ctx, cfg, rdb)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create calendar client")
	}

	blackout := calendar.NewBlackoutMatcher(config.DefaultBlackoutKeywords())
	generator := slots.NewGenerator(roster, services, cal, subcals, blackout, loc, slots.Config{
		Granularity: cfg.SlotGranularity(),
		MinAdvance:  cfg.MinAdvance(),
		HorizonDays: cfg.SearchHorizonDays(),
	})

	sessions := reservation.NewStore(0, 0)
	sessions.StartJanitor(ctx, time.Minute)

	notifier, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create telegram notifier")
	}

	var journal *audit.Journal
	if cfg.Audit.Enabled {
		journal, err = audit.NewJournal(cfg.Audit.Path)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open booking journal")
		}
		defer journal.Close()
	}

	svc := booking.New(booking.Deps{
		Catalog:      services,
		Roster:       roster,
		Generator:    generator,
		Sessions:     sessions,
		Calendar:     cal,
		Subcalendars: subcals,
		Notifier:     notifier,
		Journal:      journal,
		Logger:       logger,
	}, booking.Options{
		Location:             loc,
		MinAdvance:           cfg.MinAdvance(),
		LookaheadDays:        cfg.ExistingLookaheadDays(),
		NextAvailableTimeout: cfg.NextAvailableTimeout(),
	})

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, journal, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	server := api.NewHTTPServer(cfg.Server.Port, svc, journal, logger)
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctxShutdown)
	}()

	logger.Info().Str("provider", cfg.Calendar.Provider).Msg("booking engine started")
	if err := server.Start(); err != nil {
		logger.Fatal().Err(err).Msg("HTTP server error")
	}
}

func buildCalendarClient(ctx context.Context, cfg *config.Config, rdb *redis.Client) (calendar.Client, error) {
	switch cfg.Calendar.Provider {
	case "teamup":
		client := calendar.NewTeamupClient(cfg.Calendar.BaseURL, cfg.Calendar.CalendarKey, cfg.Calendar.APIKey)
		if rdb != nil && cfg.CalendarCacheTTL() > 0 {
			client.UseRedisCache(rdb, cfg.CalendarCacheTTL())
		}
		return client, nil
	case "google":
		return calendar.NewGoogleClient(ctx, cfg.Calendar.CredentialsFile, cfg.Calendar.GoogleCalendars)
	}
	return nil, fmt.Errorf("unknown calendar provider %q", cfg.Calendar.Provider)
}

func startHealthServer(ctx context.Context, port int, journal *audit.Journal, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if journal != nil {
			if err := journal.PingContext(ctxPing); err != nil {
				http.Error(w, "journal not ready", http.StatusServiceUnavailable)
				return
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
