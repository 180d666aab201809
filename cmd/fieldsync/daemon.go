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
	"github.com/dcampos/fieldsync/internal/logging"
	"github.com/dcampos/fieldsync/internal/store"
	"github.com/dcampos/fieldsync/internal/ui"
)

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "sync",
	Short:   "Auto-sync daemon (foreground)",
	Long: `Run the auto-sync daemon in the foreground.

The daemon triggers a sync run:
  - Once on startup
  - On local store changes (debounced)
  - On the configured interval (sync.interval, default 15m)

Automatic runs honor the sync.auto_sync setting; set it to false to pause
the daemon without stopping it. Concurrent triggers are absorbed by the
single-flight engine: while one run executes, further triggers are skipped.`,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := openApp(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		// Watch where order writes land: the kvfile table directory, or the
		// directory holding the SQLite database.
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

		settings := app.orch.GetSyncSettings()
		fmt.Printf("%s Starting auto-sync daemon...\n", ui.RenderAccent("🚀"))
		fmt.Printf("   Watching: %s\n", watchDir)
		fmt.Printf("   Interval: %v (auto_sync=%v)\n", settings.Interval, settings.AutoSync)
		fmt.Printf("\nPress Ctrl+C to stop\n\n")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Blocks until interrupted; Stop runs inside.
		if err := d.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Daemon stopped with error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("\nDaemon stopped")
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
