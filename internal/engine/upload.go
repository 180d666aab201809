package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/dcampos/fieldsync/internal/model"
	"github.com/dcampos/fieldsync/internal/remote"
	"github.com/dcampos/fieldsync/internal/store"
)

// UploadResult summarizes one upload pass.
type UploadResult struct {
	Uploaded int
	Failed   int
}

// Uploader drains pending-local orders to the remote API, one at a time.
type Uploader struct {
	store    store.LocalStore
	remote   RemoteAPI
	notifier *Notifier
	logger   *log.Logger
}

// NewUploader creates an upload pipeline. notifier may be nil.
func NewUploader(st store.LocalStore, rc RemoteAPI, notifier *Notifier, logger *log.Logger) *Uploader {
	if notifier == nil {
		notifier = NewNotifier()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Uploader{store: st, remote: rc, notifier: notifier, logger: logger}
}

// UploadPending transmits every order that was pending_sync when the call
// started.
//
// The pending set is snapshotted once; orders that become pending during the
// run are picked up on the next orchestration cycle, which bounds one run to
// a finite, known set. Records are transmitted strictly in sequence, and each
// record ends the attempt in a terminal state: transmitted on success, error
// on validation or transmit failure. The local record is never deleted.
//
// Per-record failures are absorbed into status transitions; only run-level
// failures (snapshot read failed, authentication rejected, a transmitted
// order the store cannot mark, context cancelled) return an error. A cancelled context is honored between records only - an
// in-flight transmission always runs to completion so no record is left
// ambiguous.
func (u *Uploader) UploadPending(ctx context.Context) (UploadResult, error) {
	var res UploadResult

	pending, err := u.store.PendingSyncOrders(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to snapshot pending orders: %w", err)
	}

	total := len(pending)
	u.logger.Printf("Uploading %d pending orders", total)
	u.notifier.notifyProgress(Progress{Stage: StageUploading, Current: 0, Total: total})

	for i := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		o := pending[i]
		if err := u.uploadOne(ctx, &o); err != nil {
			var serr *store.StorageError
			if errors.As(err, &serr) {
				// The local store cannot record a completed transmit, so
				// every further record would risk a duplicate send.
				return res, serr
			}
			res.Failed++
			if remote.IsAuthError(err) {
				// Nothing later in the run can succeed. Records already
				// processed keep their states.
				return res, err
			}
		} else {
			res.Uploaded++
		}

		u.notifier.notifyProgress(Progress{Stage: StageUploading, Current: i + 1, Total: total})
	}

	return res, nil
}

// uploadOne validates and transmits a single order, advancing its lifecycle
// state. The returned error is non-nil on failure even though the failure was
// absorbed locally, so the caller can count it and detect auth rejection.
func (u *Uploader) uploadOne(ctx context.Context, o *model.Order) error {
	if err := o.ValidateForUpload(); err != nil {
		// Marked error without ever being transmitted: no wasted round-trip.
		u.markError(ctx, o.ID, fmt.Sprintf("validation: %v", err))
		return err
	}

	sent, err := u.remote.CreateOrder(ctx, o)
	if err != nil {
		u.markError(ctx, o.ID, fmt.Sprintf("transmit: %v", err))
		return err
	}

	// Persist the server-assigned code together with the transition to
	// transmitted so a crash after the network call cannot re-send the order.
	sent.SyncStatus = model.StatusTransmitted
	if err := u.store.SaveOrder(ctx, sent); err != nil {
		// The server already has the order; leaving it pending_sync would
		// re-send it on the next run. Fall back to the narrower status-only
		// write, and abort the run if even that fails.
		if uerr := u.store.UpdateSyncStatus(ctx, model.TableOrders, o.ID, model.StatusTransmitted); uerr != nil {
			u.logger.Printf("Order %s transmitted but local record is stuck pending: %v", o.ID, uerr)
			return store.NewStorageError("record_transmit", model.TableOrders, uerr)
		}
		u.logger.Printf("Warning: order %s transmitted, server code %s not recorded locally: %v", o.ID, sent.Code, err)
	}

	_ = u.store.LogSync(ctx, "upload", "ok", fmt.Sprintf("order %s transmitted (code %s)", sent.ID, sent.Code))
	return nil
}

// markError flips the record to error state and logs the per-record failure
// so the user can retry or discard it from the orders view.
func (u *Uploader) markError(ctx context.Context, id, details string) {
	if err := u.store.UpdateSyncStatus(ctx, model.TableOrders, id, model.StatusError); err != nil &&
		!errors.Is(err, store.ErrNotFound) {
		u.logger.Printf("Warning: failed to mark order %s as error: %v", id, err)
	}
	u.logger.Printf("Order %s failed: %s", id, details)
	_ = u.store.LogSync(ctx, "upload", "error", fmt.Sprintf("order %s: %s", id, details))
}
