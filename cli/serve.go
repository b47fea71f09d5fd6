package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"demo-labeler/handlers"
	"demo-labeler/services"
)

const shutdownTimeout = 5 * time.Second

var (
	servePort    string
	serveDataDir string
	serveDB      string
	serveNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the labeling service",
	Long: `Serve the demos of a dataset directory and store their labels.

The dataset directory holds one directory per demo and one directory per
camera inside it, each with that camera's frame images.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "", "Dataset directory")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "Label database path")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Do not watch the dataset directory for changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Server.Port = servePort
	}
	if serveDataDir != "" {
		cfg.Server.DataDir = serveDataDir
	}
	if serveDB != "" {
		cfg.Server.DatabasePath = serveDB
	}
	if serveNoWatch {
		cfg.Server.WatchDataset = false
	}

	logger, closer, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	db, err := services.OpenDatabase(cfg.Server.DatabasePath)
	if err != nil {
		return err
	}
	defer services.CloseDatabase(db)

	datasets := services.NewDatasetService(&cfg.Server, logger)
	labels := services.NewLabelService(db, datasets, logger)
	router := handlers.NewRouter(&cfg.Server, datasets, labels, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server",
		"port", cfg.Server.Port,
		"data_dir", cfg.Server.DataDir,
		"database", cfg.Server.DatabasePath,
		"auth", cfg.Server.APIKey != "",
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if cfg.Server.WatchDataset {
		g.Go(func() error {
			if err := datasets.Watch(gctx); err != nil {
				logger.Warn("dataset watcher stopped", "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}
