package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/dcampos/fieldsync/internal/model"
	"github.com/dcampos/fieldsync/internal/remote"
	"github.com/dcampos/fieldsync/internal/store"
)

// DataType names a downloadable collection.
type DataType string

const (
	DataCustomers     DataType = "customers"
	DataProducts      DataType = "products"
	DataPaymentTables DataType = "payment_tables"
	DataSalesReps     DataType = "sales_reps"
	DataOrders        DataType = "orders"
)

// DefaultDataTypes is the reference set pulled when the caller doesn't ask
// for anything specific.
var DefaultDataTypes = []DataType{DataCustomers, DataProducts, DataPaymentTables}

// downloadSequence fixes the fetch order for one run. Sales reps and orders
// run only when requested.
var downloadSequence = []DataType{DataCustomers, DataProducts, DataPaymentTables, DataSalesReps, DataOrders}

// DownloadRequest scopes one download pass.
type DownloadRequest struct {
	// Types to fetch; nil means DefaultDataTypes.
	Types []DataType

	// Filters bound the transfer to an explicit ID set when the server
	// signals a partial update, instead of always pulling the full dataset.
	Filters remote.Filters
}

// DownloadResult summarizes one download pass. Each data type's outcome is
// independent: a failure fetching one does not abort the others.
type DownloadResult struct {
	Downloaded int
	PerType    map[DataType]int
	Failures   map[DataType]string
}

// Downloader pulls authoritative collections from the remote API into the
// local store.
type Downloader struct {
	store    store.LocalStore
	remote   RemoteAPI
	notifier *Notifier
	logger   *log.Logger
}

// NewDownloader creates a download pipeline. notifier may be nil.
func NewDownloader(st store.LocalStore, rc RemoteAPI, notifier *Notifier, logger *log.Logger) *Downloader {
	if notifier == nil {
		notifier = NewNotifier()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Downloader{store: st, remote: rc, notifier: notifier, logger: logger}
}

// DownloadReferenceData fetches the requested collections in the fixed
// sequence customers, products, payment tables, sales reps, orders.
//
// Reference tables are wholesale-replaced (safe: no local-only mutation
// path), with the seed guard applied inside the store's batch-save. Orders
// are never replaced: only remote orders absent locally are inserted, tagged
// synced, and local orders already transmitted are confirmed synced - a
// locally-pending or locally-deleted order is never resurrected or
// duplicated.
//
// The only error returned is run-level (authentication rejected or context
// cancelled); everything else lands in the result's Failures map.
func (d *Downloader) DownloadReferenceData(ctx context.Context, req DownloadRequest) (DownloadResult, error) {
	res := DownloadResult{
		PerType:  make(map[DataType]int),
		Failures: make(map[DataType]string),
	}

	requested := make(map[DataType]bool)
	types := req.Types
	if len(types) == 0 {
		types = DefaultDataTypes
	}
	for _, t := range types {
		requested[t] = true
	}

	total := len(requested)
	done := 0
	d.notifier.notifyProgress(Progress{Stage: StageDownloading, Current: 0, Total: total})

	for _, t := range downloadSequence {
		if !requested[t] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		n, err := d.downloadOne(ctx, t, req.Filters)
		if err != nil {
			if remote.IsAuthError(err) {
				return res, err
			}
			d.logger.Printf("Download of %s failed: %v", t, err)
			res.Failures[t] = err.Error()
			_ = d.store.LogSync(ctx, "download", "error", fmt.Sprintf("%s: %v", t, err))
		} else {
			res.PerType[t] = n
			res.Downloaded += n
			_ = d.store.LogSync(ctx, "download", "ok", fmt.Sprintf("%s: %d records", t, n))
		}

		done++
		d.notifier.notifyProgress(Progress{Stage: StageDownloading, Current: done, Total: total})
	}

	return res, nil
}

func (d *Downloader) downloadOne(ctx context.Context, t DataType, f remote.Filters) (int, error) {
	switch t {
	case DataCustomers:
		batch, err := d.remote.GetCustomers(ctx, f)
		if err != nil {
			return 0, err
		}
		return d.store.SaveClients(ctx, batch)

	case DataProducts:
		batch, err := d.remote.GetProducts(ctx, f)
		if err != nil {
			return 0, err
		}
		return d.store.SaveProducts(ctx, batch)

	case DataPaymentTables:
		batch, err := d.remote.GetPaymentTables(ctx)
		if err != nil {
			return 0, err
		}
		return d.store.SavePaymentTables(ctx, batch)

	case DataSalesReps:
		batch, err := d.remote.GetSalesReps(ctx)
		if err != nil {
			return 0, err
		}
		return d.store.SaveSalesReps(ctx, batch)

	case DataOrders:
		batch, err := d.remote.GetOrders(ctx, f)
		if err != nil {
			return 0, err
		}
		return d.mergeOrders(ctx, batch)
	}
	return 0, fmt.Errorf("unknown data type %q", t)
}

// mergeOrders applies the append-only order policy: insert remote orders that
// don't exist locally (tagged synced), confirm transmitted orders as synced,
// and leave every other local state untouched.
func (d *Downloader) mergeOrders(ctx context.Context, batch []model.Order) (int, error) {
	inserted := 0
	for i := range batch {
		o := batch[i]
		local, err := d.store.OrderByID(ctx, o.ID)
		if store.IsNotFound(err) {
			o.SyncStatus = model.StatusSynced
			if err := d.store.SaveOrder(ctx, &o); err != nil {
				d.logger.Printf("Warning: failed to insert downloaded order %s: %v", o.ID, err)
				continue
			}
			inserted++
			continue
		}
		if err != nil {
			// Storage failure: stop this table, siblings already ran.
			return inserted, err
		}

		if local.SyncStatus == model.StatusTransmitted {
			// Confirmed present in the authoritative dataset.
			if err := d.store.UpdateSyncStatus(ctx, model.TableOrders, o.ID, model.StatusSynced); err != nil {
				d.logger.Printf("Warning: failed to confirm order %s as synced: %v", o.ID, err)
			}
		}
		// pending_sync, error, deleted, synced: leave alone.
	}
	return inserted, nil
}
