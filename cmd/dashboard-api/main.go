package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facebookgo/clock"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/api"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/config"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/core"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/db"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/email"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/export"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/ingest"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/logging"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/metrics"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/report"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "create-user":
			createUser(os.Args[2:])
			return
		case "simulate":
			simulate(os.Args[2:])
			return
		}
	}

	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		version, err := db.RunMigrations(cfg.DatabaseURL, *migrateDirFlag)
		if err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Int64("version", version).Msg("database migrated")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("dashboard-api failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.ServiceName)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	clk := clock.New()
	services := core.NewServices(pool, core.Options{
		JWTSecret:      cfg.JWTSecret,
		JWTIssuer:      cfg.JWTIssuer,
		SessionEndHour: cfg.SessionEndHour,
		Location:       loc,
		Clock:          clk,
	})

	listener := db.NewListener(db.PoolConnector(pool), logger, clk)

	var sender email.Sender
	if cfg.EmailConfigured() {
		sender = email.NewClient(cfg.ResendAPIURL, cfg.ResendAPIKey)
	} else {
		logger.Warn().Msg("RESEND_API_KEY not set, contact form and daily reports disabled")
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return listener.Run(ctx) })

	if err := startIngest(ctx, g, cfg, services, logger); err != nil {
		return err
	}

	scheduler, err := newScheduler(ctx, cfg, loc, services, sender, logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := api.NewServer(logger, api.Deps{
		DB:       pool,
		Services: services,
		Changes:  listener,
		Sender:   sender,
	}, cfg)

	// No WriteTimeout: websocket views stay open indefinitely.
	httpServer := &http.Server{
		Addr:              cfg.HTTPListenAddr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting dashboard API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func startIngest(ctx context.Context, g *errgroup.Group, cfg *config.Config, services *core.Services, logger zerolog.Logger) error {
	if cfg.MQTTConfigured() {
		tlsConfig, err := cfg.MQTTTLS()
		if err != nil {
			return fmt.Errorf("configure mqtt TLS: %w", err)
		}
		client := ingest.NewMQTTClient(ingest.MQTTConfig{
			BrokerURL: cfg.MQTTBrokerURL,
			ClientID:  cfg.MQTTClientID,
			Topic:     cfg.MQTTTopic,
			TLS:       tlsConfig,
		})
		sub := ingest.NewMQTTSubscriber(client, cfg.MQTTTopic, ingest.NewIngestor(services.Detection, "mqtt", logger), logger)
		g.Go(func() error { return sub.Run(ctx) })
	}

	if cfg.KafkaConfigured() {
		tlsConfig, err := cfg.KafkaTLS()
		if err != nil {
			return fmt.Errorf("configure kafka TLS: %w", err)
		}
		reader := ingest.NewKafkaReader(ingest.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
			TLS:     tlsConfig,
		})
		consumer := ingest.NewKafkaConsumer(reader, ingest.NewIngestor(services.Detection, "kafka", logger), logger)
		g.Go(func() error { return consumer.Run(ctx) })
	}
	return nil
}

func newScheduler(ctx context.Context, cfg *config.Config, loc *time.Location, services *core.Services, sender email.Sender, logger zerolog.Logger) (*report.Scheduler, error) {
	scheduler := report.NewScheduler(loc, logger)

	if sender != nil {
		opts := report.DailyOptions{From: cfg.MailFrom, Location: loc, Logger: logger}
		if cfg.S3Configured() {
			client := report.NewS3Client(report.S3Config{
				Endpoint:  cfg.S3Endpoint,
				Region:    cfg.S3Region,
				AccessKey: cfg.S3AccessKey,
				SecretKey: cfg.S3SecretKey,
			})
			opts.Archive = report.NewArchive(client, cfg.S3Bucket)
		}
		daily := report.NewDailyReport(services.Metrics, services.Organization, services.Profile, sender, opts)
		if err := scheduler.Add("daily_report", cfg.ReportSchedule, daily.Run); err != nil {
			return nil, err
		}
	}

	if cfg.InfluxConfigured() {
		client, err := export.NewInfluxClient(ctx, cfg.InfluxURL, cfg.InfluxToken)
		if err != nil {
			return nil, err
		}
		exporter := export.NewExporter(client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
			services.Metrics, services.Organization, logger)
		if err := scheduler.Add("influx_export", cfg.ExportSchedule, exporter.Export); err != nil {
			client.Close()
			return nil, err
		}
	}

	return scheduler, nil
}
