package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dcampos/fieldsync/internal/engine"
	"github.com/dcampos/fieldsync/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Run one full sync cycle (upload, then download)",
	Long: `Run one synchronization cycle against the backend API.

The cycle is:
  1. Check connectivity (a failed check skips the run, no error)
  2. Upload every order with sync status pending_sync
  3. Download reference data (customers, products, payment tables)
  4. Advance the last-sync checkpoint

Only one sync runs at a time; if a daemon-triggered run is already in
progress this command reports it and exits.

Examples:
  fieldsync sync                       # Default reference set
  fieldsync sync --types customers     # Only customers
  fieldsync sync --with-orders         # Also merge remote orders`,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := openApp(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		types, err := downloadTypesFromFlags(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		app.orch.DownloadTypes = types

		// Print coarse progress as the engine reports it.
		cancel := app.orch.Notifier().OnStatusChange(func(stage engine.Stage) {
			switch stage {
			case engine.StageCheckingConnection:
				fmt.Printf("%s Checking connection...\n", ui.RenderAccent("→"))
			case engine.StageUploading:
				fmt.Printf("%s Uploading pending orders...\n", ui.RenderAccent("→"))
			case engine.StageDownloading:
				fmt.Printf("%s Downloading reference data...\n", ui.RenderAccent("→"))
			}
		})
		defer cancel()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if !app.orch.Sync(ctx) {
			fmt.Printf("%s Sync already in progress, nothing to do\n", ui.RenderWarn("⚠"))
			return
		}

		printSyncResult(app.orch.LastResult())
	},
}

func downloadTypesFromFlags(cmd *cobra.Command) ([]engine.DataType, error) {
	raw, _ := cmd.Flags().GetStringSlice("types")
	withOrders, _ := cmd.Flags().GetBool("with-orders")

	var types []engine.DataType
	for _, r := range raw {
		t := engine.DataType(strings.TrimSpace(r))
		switch t {
		case engine.DataCustomers, engine.DataProducts, engine.DataPaymentTables,
			engine.DataSalesReps, engine.DataOrders:
			types = append(types, t)
		default:
			return nil, fmt.Errorf("unknown data type %q (want customers, products, payment_tables, sales_reps or orders)", r)
		}
	}
	if withOrders {
		if len(types) == 0 {
			types = append(types, engine.DefaultDataTypes...)
		}
		types = append(types, engine.DataOrders)
	}
	return types, nil
}

func printSyncResult(res *engine.SyncResult) {
	if res == nil {
		return
	}
	switch {
	case res.NoNetwork:
		fmt.Printf("\n%s No connection, sync skipped\n", ui.RenderWarn("⚠"))
		fmt.Println("   Orders stay queued and upload on the next run")
	case res.Err != "":
		fmt.Printf("\n%s Sync failed: %s\n", ui.RenderError("✗"), res.Err)
		fmt.Printf("   Uploaded: %d  Failed: %d  Downloaded: %d\n",
			res.Uploaded, res.Failed, res.Downloaded)
		os.Exit(1)
	default:
		elapsed := res.Finished.Sub(res.Started)
		fmt.Printf("\n%s Sync complete in %v\n", ui.RenderSuccess("✓"), elapsed.Round(time.Millisecond))
		fmt.Printf("   Uploaded: %d\n", res.Uploaded)
		if res.Failed > 0 {
			fmt.Printf("   Failed: %s\n", ui.RenderError(fmt.Sprintf("%d", res.Failed)))
		}
		fmt.Printf("   Downloaded: %d\n", res.Downloaded)
		for t, n := range res.PerType {
			fmt.Printf("      %s: %d\n", t, n)
		}
		for t, reason := range res.Failures {
			fmt.Printf("      %s: %s\n", t, ui.RenderError(reason))
		}
	}
}

func init() {
	syncCmd.Flags().StringSlice("types", nil, "Data types to download (default: customers,products,payment_tables)")
	syncCmd.Flags().Bool("with-orders", false, "Also merge remote orders into the local store")

	rootCmd.AddCommand(syncCmd)
}
