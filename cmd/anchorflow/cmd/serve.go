package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/stellaprotocol/anchorflow/anchor"
	"github.com/stellaprotocol/anchorflow/api"
	"github.com/stellaprotocol/anchorflow/asset"
	"github.com/stellaprotocol/anchorflow/auth"
	"github.com/stellaprotocol/anchorflow/flow"
	bboltstorage "github.com/stellaprotocol/anchorflow/storage/bbolt"
	"github.com/stellaprotocol/anchorflow/wallet"
	"github.com/stellaprotocol/anchorflow/wallet/bridge"
	"github.com/stellaprotocol/anchorflow/web"
)

var (
	bind         string
	port         int
	dataDir      string
	anchorAPI    string
	signerBridge string
	pollInterval time.Duration
	pollTimeout  time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local deposit engine daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(dataDir, 0o700); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

		store, err := bboltstorage.NewStoreFromFile(dataDir+"/session.db", nil)
		if err != nil {
			return fmt.Errorf("failed to open session storage: %w", err)
		}
		defer store.Close()

		capability := bridge.New(signerBridge, bridge.WithLogger(logger))
		session := wallet.NewSession(capability, store, wallet.WithLogger(logger))

		anchorClient := anchor.NewClient(anchorAPI, anchor.WithLogger(logger))
		handshake := auth.NewHandshake(anchorClient, session, auth.WithLogger(logger))
		resolver := asset.NewResolver(
			asset.WithTrustlineChecker(anchorClient),
			asset.WithLogger(logger),
		)

		registry := flow.NewRegistry()
		poller := flow.NewPoller(anchorClient, registry,
			flow.WithInterval(pollInterval),
			flow.WithMaxLifetime(pollTimeout),
			flow.WithPollerLogger(logger),
		)
		defer poller.Close()

		orchestrator := flow.NewOrchestrator(session, resolver, handshake, anchorClient, registry, poller,
			flow.WithOpener(flow.ExecOpener{}),
			flow.WithLogger(logger),
		)

		// The signer bridge may still be starting alongside us; restore
		// the previous session in the background so serving never waits.
		go session.StartupReconnect(context.Background(), 2*time.Second)

		a := api.New(session, orchestrator, registry, api.WithLogger(logger))

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Mount("/api/v1", a.Router())

		webHandler, err := web.Handler()
		if err != nil {
			return err
		}
		r.Handle("/*", webHandler)

		server := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", bind, port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner()
		fmt.Printf("Listening on %s:%d (data: %s, anchor api: %s)...\n", bind, port, dataDir, anchorAPI)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			fmt.Printf("\nReceived %s, shutting down...\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&bind, "bind", "127.0.0.1", "Address to bind; the API is meant for the local front-end only")
	serveCmd.Flags().IntVarP(&port, "port", "p", 8780, "Port to listen on")
	serveCmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Directory for persistent data")
	serveCmd.Flags().StringVar(&anchorAPI, "anchor-api", "http://127.0.0.1:8781", "Base URL of the anchor collaborator API")
	serveCmd.Flags().StringVar(&signerBridge, "signer-bridge", "http://127.0.0.1:8782", "Base URL of the local signer bridge")
	serveCmd.Flags().DurationVar(&pollInterval, "poll-interval", flow.DefaultPollInterval, "How often each flow's status is polled")
	serveCmd.Flags().DurationVar(&pollTimeout, "poll-timeout", flow.DefaultMaxLifetime, "Wall-clock polling cap per flow")
}
