package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dcampos/fieldsync/internal/engine"
	"github.com/dcampos/fieldsync/internal/model"
	"github.com/dcampos/fieldsync/internal/remote"
	"github.com/dcampos/fieldsync/internal/store"
	"github.com/dcampos/fieldsync/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show sync status: order counts, last sync, recent log",
	Long: `Display the local sync state.

Shows:
  - Order counts by sync status
  - Last successful sync attempt (from the checkpoint file)
  - Recent entries of the persistent sync log (--log)`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, st := mustOpenLocal(cmd)
		defer st.Close()

		counts, err := st.CountByStatus(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading order counts: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s Sync Status\n\n", ui.RenderAccent("📊"))
		fmt.Printf("Backend: %s (%s)\n", cfg.Backend, cfg.StorePath())
		if cfg.Token != "" && remote.IsDeviceLocalToken(cfg.Token) {
			fmt.Printf("Token: %s\n", ui.RenderMuted("device-local"))
		}

		total := 0
		for _, status := range []model.SyncStatus{
			model.StatusPendingSync, model.StatusTransmitted, model.StatusSynced,
			model.StatusError, model.StatusDeleted,
		} {
			n := counts[status]
			total += n
			if n > 0 || status == model.StatusPendingSync {
				fmt.Printf("   %s: %d\n", renderStatus(status), n)
			}
		}
		fmt.Printf("Orders: %d\n", total)

		checkpoint, err := engine.OpenCheckpoint(cfg.CheckpointPath())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading checkpoint: %v\n", err)
			os.Exit(1)
		}
		if last := checkpoint.LastSync(); last.IsZero() {
			fmt.Printf("Last sync: %s\n", ui.RenderWarn("never"))
		} else {
			fmt.Printf("Last sync: %s (%s ago)\n",
				last.Local().Format("2006-01-02 15:04:05"),
				time.Since(last).Round(time.Second))
		}

		if showLog, _ := cmd.Flags().GetBool("log"); showLog {
			printSyncLog(cmd, st)
		}
		fmt.Println()
	},
}

func printSyncLog(cmd *cobra.Command, st store.LocalStore) {
	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := st.SyncLog(cmd.Context(), limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading sync log: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nRecent sync log:\n")
	if len(entries) == 0 {
		fmt.Printf("   %s\n", ui.RenderMuted("(empty)"))
		return
	}
	for _, e := range entries {
		mark := ui.RenderSuccess("✓")
		if e.Status != "ok" {
			mark = ui.RenderError("✗")
		}
		line := fmt.Sprintf("%s %s %s", e.CreatedAt.Local().Format("01-02 15:04:05"), e.Type, mark)
		if e.Details != "" {
			line += " " + ui.RenderMuted(e.Details)
		}
		fmt.Printf("   %s\n", line)
	}
}

func init() {
	statusCmd.Flags().Bool("log", false, "Show recent sync log entries")
	statusCmd.Flags().Int("limit", 20, "Max log entries with --log")

	rootCmd.AddCommand(statusCmd)
}
