package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dcampos/fieldsync/internal/model"
	"github.com/dcampos/fieldsync/internal/store"
	"github.com/dcampos/fieldsync/internal/ui"
)

var ordersCmd = &cobra.Command{
	Use:     "orders",
	GroupID: "data",
	Short:   "Manage local orders",
	Long: `List, create, cancel and delete orders in the local store.

New orders start with sync status pending_sync and upload on the next sync
run. Deletion is soft: the order stays on disk with status deleted so a
later download cannot resurrect it.`,
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List local orders and their sync status",
	Run: func(cmd *cobra.Command, args []string) {
		_, st := mustOpenLocal(cmd)
		defer st.Close()

		pendingOnly, _ := cmd.Flags().GetBool("pending")

		var (
			orders []model.Order
			err    error
		)
		if pendingOnly {
			orders, err = st.PendingSyncOrders(cmd.Context())
		} else {
			orders, err = st.AllOrders(cmd.Context())
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing orders: %v\n", err)
			os.Exit(1)
		}

		if len(orders) == 0 {
			fmt.Printf("%s No orders\n", ui.RenderMuted("–"))
			return
		}

		for _, o := range orders {
			code := o.Code
			if code == "" {
				code = ui.RenderMuted("(no code)")
			}
			fmt.Printf("%s  %s  %s  client=%s  total=%.2f  %s\n",
				o.ID, code, renderStatus(o.SyncStatus), o.ClientID, o.Total,
				o.CreatedAt.Local().Format("2006-01-02 15:04"))
			if o.Status == model.OrderCancelled && o.Reason != "" {
				fmt.Printf("   %s cancelled: %s\n", ui.RenderMuted("↳"), o.Reason)
			}
		}
		fmt.Printf("\n%d orders\n", len(orders))
	},
}

var ordersNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create an order in the local queue",
	Long: `Create an order locally with sync status pending_sync.

Items are passed as product:quantity:unit_price triples:

  fieldsync orders new --client c1 --payment-table pt1 \
      --item prod-7:10:4.50 --item prod-9:2:120

A cancelled order (negative sale) records a visit with no purchase and
needs a reason instead of items:

  fieldsync orders new --client c1 --cancelled --reason "customer well stocked"`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, st := mustOpenLocal(cmd)
		defer st.Close()

		clientID, _ := cmd.Flags().GetString("client")
		paymentTableID, _ := cmd.Flags().GetString("payment-table")
		itemSpecs, _ := cmd.Flags().GetStringArray("item")
		cancelled, _ := cmd.Flags().GetBool("cancelled")
		reason, _ := cmd.Flags().GetString("reason")
		notes, _ := cmd.Flags().GetString("notes")

		o := &model.Order{
			SyncMeta: model.SyncMeta{
				ID:         uuid.New().String(),
				SyncStatus: model.StatusPendingSync,
			},
			ClientID:       clientID,
			SalesRepID:     cfg.SalesRepID,
			Status:         model.OrderPending,
			PaymentTableID: paymentTableID,
			Reason:         reason,
			Notes:          notes,
			CreatedAt:      time.Now(),
		}
		if cancelled {
			o.Status = model.OrderCancelled
		}

		for _, spec := range itemSpecs {
			item, err := parseItemSpec(spec)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			o.Items = append(o.Items, item)
			o.Total += item.Total
		}

		// Surface the validation failure now rather than at upload time.
		if err := o.ValidateForUpload(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := st.SaveOrder(cmd.Context(), o); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving order: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Order %s queued (total %.2f, %d items)\n",
			ui.RenderSuccess("✓"), o.ID, o.Total, len(o.Items))
	},
}

var ordersCancelCmd = &cobra.Command{
	Use:   "cancel <order-id>",
	Short: "Cancel an order that has not been transmitted yet",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, st := mustOpenLocal(cmd)
		defer st.Close()

		reason, _ := cmd.Flags().GetString("reason")
		if strings.TrimSpace(reason) == "" {
			fmt.Fprintf(os.Stderr, "Error: --reason is required for cancellation\n")
			os.Exit(1)
		}

		o, err := st.OrderByID(cmd.Context(), args[0])
		if store.IsNotFound(err) {
			fmt.Fprintf(os.Stderr, "Error: order %s not found\n", args[0])
			os.Exit(1)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if o.SyncStatus != model.StatusPendingSync && o.SyncStatus != model.StatusError {
			fmt.Fprintf(os.Stderr, "Error: order %s is %s; only queued orders can be cancelled locally\n",
				o.ID, o.SyncStatus)
			os.Exit(1)
		}

		// A cancellation is itself a change to transmit: the order becomes a
		// negative sale and re-enters the queue.
		o.Status = model.OrderCancelled
		o.Reason = reason
		o.SyncStatus = model.StatusPendingSync
		if err := st.SaveOrder(cmd.Context(), o); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving order: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Order %s cancelled, queued for upload\n", ui.RenderSuccess("✓"), o.ID)
	},
}

var ordersDeleteCmd = &cobra.Command{
	Use:   "delete <order-id>",
	Short: "Soft-delete a local order",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, st := mustOpenLocal(cmd)
		defer st.Close()

		if err := st.DeleteOrder(cmd.Context(), args[0]); err != nil {
			if store.IsNotFound(err) {
				fmt.Fprintf(os.Stderr, "Error: order %s not found\n", args[0])
			} else {
				fmt.Fprintf(os.Stderr, "Error deleting order: %v\n", err)
			}
			os.Exit(1)
		}

		fmt.Printf("%s Order %s deleted (kept on disk with status deleted)\n",
			ui.RenderSuccess("✓"), args[0])
	},
}

// parseItemSpec parses a product:quantity:unit_price triple.
func parseItemSpec(spec string) (model.OrderItem, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return model.OrderItem{}, fmt.Errorf("invalid item %q (want product:quantity:unit_price)", spec)
	}

	var qty, price float64
	if _, err := fmt.Sscanf(parts[1], "%g", &qty); err != nil || qty <= 0 {
		return model.OrderItem{}, fmt.Errorf("invalid quantity in item %q", spec)
	}
	if _, err := fmt.Sscanf(parts[2], "%g", &price); err != nil || price < 0 {
		return model.OrderItem{}, fmt.Errorf("invalid unit price in item %q", spec)
	}

	return model.OrderItem{
		ProductID: parts[0],
		Quantity:  qty,
		UnitPrice: price,
		Total:     qty * price,
	}, nil
}

func renderStatus(s model.SyncStatus) string {
	switch s {
	case model.StatusSynced:
		return ui.RenderSuccess(string(s))
	case model.StatusError:
		return ui.RenderError(string(s))
	case model.StatusPendingSync, model.StatusTransmitted:
		return ui.RenderAccent(string(s))
	default:
		return ui.RenderMuted(string(s))
	}
}

func init() {
	ordersListCmd.Flags().Bool("pending", false, "Only orders waiting for upload")

	ordersNewCmd.Flags().String("client", "", "Client ID (required)")
	ordersNewCmd.Flags().String("payment-table", "", "Payment table ID")
	ordersNewCmd.Flags().StringArray("item", nil, "Line item as product:quantity:unit_price (repeatable)")
	ordersNewCmd.Flags().Bool("cancelled", false, "Record a negative sale (visit with no purchase)")
	ordersNewCmd.Flags().String("reason", "", "Cancellation reason")
	ordersNewCmd.Flags().String("notes", "", "Free-form notes")
	_ = ordersNewCmd.MarkFlagRequired("client")

	ordersCancelCmd.Flags().String("reason", "", "Cancellation reason (required)")

	ordersCmd.AddCommand(ordersListCmd)
	ordersCmd.AddCommand(ordersNewCmd)
	ordersCmd.AddCommand(ordersCancelCmd)
	ordersCmd.AddCommand(ordersDeleteCmd)
	rootCmd.AddCommand(ordersCmd)
}
