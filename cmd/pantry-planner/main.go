package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pantry-planner/internal/api"
	"pantry-planner/internal/app"
	"pantry-planner/internal/config"
	"pantry-planner/internal/logger"

	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	zl, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()
	log := zl.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "serve":
		err = serve(ctx, application, log)
	case "ingest-dataset":
		err = ingestDataset(ctx, application, args)
	case "embed-dataset":
		err = embedDataset(ctx, application, args)
	case "metrics-cleanup":
		err = metricsCleanup(application, args)
	case "token":
		err = issueToken(application, args)
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Errorf("%s failed: %v", cmd, err)
		application.Close()
		os.Exit(1)
	}
}

func serve(ctx context.Context, a *app.App, log *zap.SugaredLogger) error {
	srv, err := api.NewServer(a, log.Named("api"))
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("Server exiting")
	return nil
}

func ingestDataset(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("ingest-dataset", flag.ExitOnError)
	path := fs.String("file", "", "CSV file with Title, Ingredients, Steps, Loves and URL columns")
	_ = fs.Parse(args)
	if *path == "" {
		return errors.New("-file is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := a.IngestDataset(ctx, f)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d dataset recipes.\n", n)
	return nil
}

func embedDataset(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("embed-dataset", flag.ExitOnError)
	batch := fs.Int("batch", 50, "Rows fetched per batch")
	delay := fs.Duration("delay", 200*time.Millisecond, "Pause between embedding calls")
	_ = fs.Parse(args)

	n, err := a.EmbedDataset(ctx, *batch, *delay)
	fmt.Printf("Embedded %d dataset recipes.\n", n)
	return err
}

func metricsCleanup(a *app.App, args []string) error {
	fs := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
	days := fs.Int("days", 30, "Keep records for the last N days")
	_ = fs.Parse(args)

	affected, err := a.CleanupMetrics(*days)
	if err != nil {
		return err
	}
	fmt.Printf("Successfully removed %d old metric records.\n", affected)
	return nil
}

func issueToken(a *app.App, args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	user := fs.String("user", "", "User ID placed in the token subject")
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = fs.Parse(args)
	if *user == "" {
		return errors.New("-user is required")
	}

	token, err := a.Auth.Sign(*user, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func printUsage() {
	fmt.Println("Usage: pantry-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  serve              Run the JSON API")
	fmt.Println("  ingest-dataset     Load community recipes from a CSV file (-file)")
	fmt.Println("  embed-dataset      Embed dataset recipes that have no vector yet")
	fmt.Println("  metrics-cleanup    Remove old metric records")
	fmt.Println("  token              Issue an API token for a user (-user, -ttl)")
}
