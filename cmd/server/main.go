package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Benjamin-taro/heaters/internal/config"
	"github.com/Benjamin-taro/heaters/internal/httpapi"
	"github.com/Benjamin-taro/heaters/internal/storage"
	"github.com/Benjamin-taro/heaters/internal/storage/filestore"
	"github.com/Benjamin-taro/heaters/internal/storage/inmemory"
	"github.com/Benjamin-taro/heaters/internal/storage/postgres"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "heaters",
	Short: "HEATERs classifieds board API",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cfg.Validate()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the posts table API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.Storage, "storage", cfg.Storage, "Storage type (file, in-memory or postgres)")
	flags.StringVar(&cfg.DataFile, "data-file", cfg.DataFile, "Path to the JSON data file (file storage)")
	flags.StringVar(&cfg.DatabaseURL, "db", cfg.DatabaseURL, "PostgreSQL DSN (postgres storage)")
	serveCmd.Flags().StringVar(&cfg.Port, "port", cfg.Port, "HTTP port")
	serveCmd.Flags().Int64Var(&cfg.MaxBodyBytes, "max-body-bytes", cfg.MaxBodyBytes, "Request body size limit")

	rootCmd.AddCommand(serveCmd, seedCmd)
	rootCmd.RunE = serveCmd.RunE

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore(cfg *config.Config) (storage.Storage, error) {
	log.Printf("Using %s storage", cfg.Storage)
	switch cfg.Storage {
	case config.StoragePostgres:
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return store, nil
	case config.StorageInMemory:
		return inmemory.New(), nil
	default:
		return filestore.New(cfg.DataFile)
	}
}

func serve(ctx context.Context) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewRouter(store, httpapi.Options{MaxBodyBytes: cfg.MaxBodyBytes, AccessLog: true}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HEATERs API listening on http://localhost:%s", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
