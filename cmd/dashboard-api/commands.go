package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/config"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/core"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/db"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/live"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/logging"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/metrics"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/simfeed"
)

func createUser(args []string) {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	emailAddr := fs.String("email", "", "Email address (required)")
	password := fs.String("password", "", "Password (required)")
	role := fs.String("role", model.RoleClient, "Role: admin or client")
	org := fs.String("organization", "", "Organization ID (required for clients)")
	name := fs.String("name", "", "Full name")
	fs.Parse(args)

	if *emailAddr == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "error: --email and --password are required")
		fmt.Fprintln(os.Stderr, "usage: dashboard-api create-user --email <email> --password <password> [--role admin|client] [--organization <id>]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, "dashboard-api-cli")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	hash, err := core.HashPassword(*password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	p := &model.Profile{Email: *emailAddr, Role: *role, PasswordHash: hash}
	if *org != "" {
		p.OrganizationID = org
	}
	if *name != "" {
		p.FullName = name
	}

	if err := core.NewProfileService(pool).Create(ctx, p); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to create user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("User created successfully.\n\n")
	fmt.Printf("  Email:  %s\n", p.Email)
	fmt.Printf("  ID:     %s\n", p.ID)
	fmt.Printf("  Role:   %s\n", p.Role)
}

// simulate runs the demo feed in the terminal and logs every snapshot.
func simulate(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	duration := fs.Duration("duration", 0, "Stop after this long (0 runs until interrupted)")
	metricsAddr := fs.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateDemo(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if *duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	feed := simfeed.New(simfeed.Totals{}, simfeed.Options{
		MinInterval: cfg.DemoMinInterval,
		MaxInterval: cfg.DemoMaxInterval,
		Rand:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	})

	if *metricsAddr != "" {
		srv := metrics.NewServer(*metricsAddr, func() any { return feed.Totals() })
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn().Err(err).Msg("metrics server stopped")
			}
		}()
		defer srv.Close()
	}

	runSimulation(ctx, feed, cfg, logger)
}

func runSimulation(ctx context.Context, feed *simfeed.Feed, cfg *config.Config, logger zerolog.Logger) {
	ctrl := live.New(feed.Snapshot, live.Options{
		Source: feed,
		Tables: []string{simfeed.Table},
		Logger: logger,
	})
	ctrl.Start()
	defer ctrl.Close()
	go feed.Run(ctx)

	logger.Info().Dur("min_interval", cfg.DemoMinInterval).Dur("max_interval", cfg.DemoMaxInterval).Msg("simulating station feed")
	for {
		select {
		case <-ctx.Done():
			t := feed.Totals()
			logger.Info().Int("total", t.Total()).Int("recycle", t.Recycle).Int("compost", t.Compost).Int("trash", t.Trash).Msg("simulation finished")
			return
		case st := <-ctrl.Updates():
			view := st.Snapshot.View()
			logger.Info().
				Int("total", view.Total).
				Int("recycle", view.Recycle).
				Int("compost", view.Compost).
				Int("trash", view.Trash).
				Str("diversion_rate", view.DiversionRateLabel).
				Msg("snapshot")
		}
	}
}
