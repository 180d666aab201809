package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dcampos/fieldsync/internal/config"
	"github.com/dcampos/fieldsync/internal/remote"
	"github.com/dcampos/fieldsync/internal/ui"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "advanced",
	Short:   "Inspect and change configuration",
	Long: `Inspect the resolved configuration and change sync settings.

Configuration is read from ` + config.DefaultDir() + `/config.yaml (or --config),
with FIELDSYNC_* environment variables taking precedence, e.g.
FIELDSYNC_REMOTE_URL and FIELDSYNC_TOKEN.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s Configuration\n\n", ui.RenderAccent("⚙"))
		fmt.Printf("Remote URL: %s\n", orUnset(cfg.RemoteURL))
		fmt.Printf("Token: %s\n", describeToken(cfg.Token))
		fmt.Printf("Sales rep: %s\n", orUnset(cfg.SalesRepID))
		fmt.Printf("Backend: %s\n", cfg.Backend)
		fmt.Printf("Data dir: %s\n", cfg.DataDir)
		fmt.Printf("Store: %s\n", cfg.StorePath())
		fmt.Printf("Checkpoint: %s\n", cfg.CheckpointPath())
		if cfg.DenyListFile != "" {
			fmt.Printf("Deny list: %s\n", cfg.DenyListFile)
		}
		fmt.Printf("Dashboard port: %d\n", cfg.DashboardPort)
		fmt.Printf("Auto sync: %v (every %v, wifi_only=%v)\n",
			cfg.Sync.AutoSync, cfg.Sync.Interval, cfg.Sync.WifiOnly)
		fmt.Println()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Run: func(cmd *cobra.Command, args []string) {
		dir := config.DefaultDir()
		path := filepath.Join(dir, "config.yaml")
		if configPath != "" {
			path = configPath
			dir = filepath.Dir(path)
		}

		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(os.Stderr, "Error: %s already exists\n", path)
			os.Exit(1)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		starter := `# fieldsync configuration
remote_url: ""        # backend API base URL, e.g. https://api.example.com
token: ""             # bearer token (session or device-local)
sales_rep_id: ""      # scope downloads to this rep
backend: sqlite       # sqlite or kvfile
sync:
  auto_sync: true
  interval: 15m
  wifi_only: false
`
		if err := os.WriteFile(path, []byte(starter), 0600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Wrote %s\n", ui.RenderSuccess("✓"), path)
		fmt.Println("   Fill in remote_url and token, then run 'fieldsync sync'")
	},
}

var configSetSyncCmd = &cobra.Command{
	Use:   "set-sync",
	Short: "Change sync settings (persisted to the config file)",
	Long: `Change the auto-sync settings and write them back to the config file.

Examples:
  fieldsync config set-sync --auto-sync=false
  fieldsync config set-sync --interval 30m
  fieldsync config set-sync --wifi-only`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		s := cfg.GetSyncSettings()
		if cmd.Flags().Changed("auto-sync") {
			s.AutoSync, _ = cmd.Flags().GetBool("auto-sync")
		}
		if cmd.Flags().Changed("wifi-only") {
			s.WifiOnly, _ = cmd.Flags().GetBool("wifi-only")
		}
		if cmd.Flags().Changed("interval") {
			raw, _ := cmd.Flags().GetString("interval")
			d, err := config.ParseInterval(raw)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			s.Interval = d
		}

		if err := cfg.UpdateSyncSettings(s); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving settings: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Sync settings saved: auto_sync=%v interval=%v wifi_only=%v\n",
			ui.RenderSuccess("✓"), s.AutoSync, s.Interval, s.WifiOnly)
	},
}

func orUnset(s string) string {
	if s == "" {
		return ui.RenderWarn("(unset)")
	}
	return s
}

func describeToken(token string) string {
	switch {
	case token == "":
		return ui.RenderWarn("(unset)")
	case remote.IsDeviceLocalToken(token):
		return ui.RenderMuted("device-local (" + token[:min(8, len(token))] + "...)")
	default:
		return ui.RenderMuted("set (" + token[:min(8, len(token))] + "...)")
	}
}

func init() {
	configSetSyncCmd.Flags().Bool("auto-sync", true, "Enable or disable automatic sync")
	configSetSyncCmd.Flags().String("interval", "", "Interval between automatic runs, e.g. 15m")
	configSetSyncCmd.Flags().Bool("wifi-only", false, "Only sync automatically on Wi-Fi")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetSyncCmd)
	rootCmd.AddCommand(configCmd)
}
