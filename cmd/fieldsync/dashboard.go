package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dcampos/fieldsync/internal/daemon"
	"github.com/dcampos/fieldsync/internal/dashboard"
	"github.com/dcampos/fieldsync/internal/logging"
	"github.com/dcampos/fieldsync/internal/store"
	"github.com/dcampos/fieldsync/internal/ui"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	GroupID: "advanced",
	Short:   "Start real-time WebSocket sync monitor",
	Long: `Start a WebSocket dashboard server for monitoring sync state in real-time.

The server broadcasts engine events to connected clients:
  - stage: orchestrator stage changes (checking_connection, uploading, ...)
  - progress: per-record upload/download progress
  - sync_result: summary of a finished run
  - stats: order counts by sync status after each run

By default the dashboard also runs the auto-sync daemon, so the monitor
shows live activity; pass --no-daemon to only observe externally
triggered runs.

Example usage:
  fieldsync dashboard                # Default port 8384
  fieldsync dashboard --port 9000

Connect with a WebSocket client:
  ws://localhost:8384/ws`,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := openApp(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = app.cfg.DashboardPort
		}
		noDaemon, _ := cmd.Flags().GetBool("no-daemon")

		server := dashboard.NewServer(&dashboard.Config{
			Port:   port,
			Logger: logging.New("dashboard"),
		})
		if err := server.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to start dashboard: %v\n", err)
			os.Exit(1)
		}

		handler := dashboard.NewHandler(server, app.orch, app.store, logging.New("dashboard"))
		handler.Attach()
		defer handler.Detach()

		fmt.Printf("%s Dashboard started on http://localhost:%d\n", ui.RenderAccent("🚀"), port)
		fmt.Printf("   WebSocket endpoint: ws://localhost:%d/ws\n", port)
		fmt.Printf("   Health check: http://localhost:%d/health\n", port)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if noDaemon {
			fmt.Println("\nPress Ctrl+C to stop...")
			<-ctx.Done()
		} else {
			watchDir := app.cfg.StorePath()
			if store.Backend(app.cfg.Backend) == store.BackendSQLite {
				watchDir = filepath.Dir(watchDir)
			}
			d, err := daemon.New(app.orch, watchDir, &daemon.Config{
				Logger: logging.New("daemon"),
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error creating daemon: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("\nAuto-sync daemon running. Press Ctrl+C to stop...")
			if err := d.Start(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Daemon stopped with error: %v\n", err)
				os.Exit(1)
			}
		}

		fmt.Println("\nShutting down dashboard...")
		if err := server.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Dashboard stopped")
	},
}

func init() {
	dashboardCmd.Flags().IntP("port", "p", 0, "Port to listen on (default: config dashboard_port)")
	dashboardCmd.Flags().Bool("no-daemon", false, "Do not run the auto-sync daemon alongside the dashboard")

	rootCmd.AddCommand(dashboardCmd)
}
