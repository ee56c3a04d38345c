package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/stargazers/internal/server"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the chart over a JSON API",
	Long:  `Starts an HTTP server exposing the repository collection, the load controls and the chart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		verbose, _ := cmd.Flags().GetBool("verbose")
		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(ctx, app, cfg.ShareBaseURL, logger)
		httpServer := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           srv.Router(cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Infof("Listening on %s", cfg.Server.Addr)
			errCh <- httpServer.ListenAndServe()
		}()
		fmt.Fprintf(cmd.ErrOrStderr(), "Serving on %s\n", cfg.Server.Addr)

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("failed to serve: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		app.RequestCancel()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		logger.Info("Server stopped.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides config and STARGAZERS_ADDR)")
}
