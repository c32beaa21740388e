package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wesm/textvault/internal/api"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP search API",
	Long: `Serve the message archive over a JSON HTTP API.

Endpoints (under /api/v1):
  GET  /stats
  GET  /search?q=<query>
  POST /search                      structured search body
  GET  /conversations
  GET  /conversations/{id}/messages
  GET  /contacts

Configure in config.toml:
  [server]
  api_port = 8080
  bind_addr = "127.0.0.1"
  api_key = "..."          # required for a non-loopback bind

Use Ctrl+C to stop the server gracefully.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Validate security posture before doing any work
	if err := cfg.Server.ValidateSecure(); err != nil {
		return err
	}

	a, err := openArchive(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	srv := api.NewServer(cfg, a.engine, a.book, logger)

	bindAddr := cfg.Server.BindAddr
	if bindAddr == "" {
		bindAddr = "127.0.0.1"
	}
	fmt.Printf("textvault API listening on http://%s\n", net.JoinHostPort(bindAddr, strconv.Itoa(cfg.Server.APIPort)))
	fmt.Printf("  Database: %s\n", a.chat.Source())
	if a.book != nil {
		fmt.Printf("  Contacts: %s\n", a.book.Summary())
	}
	fmt.Println("Press Ctrl+C to stop.")

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("API server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Println("Shutdown complete.")
	return nil
}
