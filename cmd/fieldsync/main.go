// fieldsync is an offline-first sync client for field sales operations.
//
// It keeps a local store of customers, products, payment tables and orders on
// the device, lets the sales rep record orders with no connectivity, and
// synchronizes with the backend API whenever a connection is available:
// pending orders are uploaded first, then the authoritative reference data is
// downloaded.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dcampos/fieldsync/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "fieldsync",
	Short: "Offline-first sync client for field sales",
	Long: `fieldsync keeps field-sales data on the device and syncs it with the
backend API when connectivity allows.

Orders created offline are queued with sync status pending_sync and uploaded
on the next sync run. Reference data (customers, products, payment tables) is
downloaded wholesale after each successful upload pass.

Quick start:
  fieldsync config init              # Write a starter config file
  fieldsync sync                     # Run one full sync cycle
  fieldsync orders list              # Show local orders and their sync status
  fieldsync status                   # Show counts, last sync and recent log
  fieldsync daemon                   # Auto-sync on changes and on a timer
  fieldsync dashboard                # WebSocket status dashboard`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// configPath is the --config override; empty means the default search path.
var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+config.DefaultDir()+"/config.yaml)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "data", Title: "Data Commands:"},
		&cobra.Group{ID: "advanced", Title: "Advanced Commands:"},
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
