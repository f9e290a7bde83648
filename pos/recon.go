package pos

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/angkringan-pos/api/internal/enum"
)

// ErrSavedLocally reports that the ledger could not be reached and the
// transaction was kept in the session's pending list instead. The sale
// itself succeeded from the cashier's point of view.
var ErrSavedLocally = errors.New("ledger unreachable, transaction saved locally")

// probeTimeout bounds one connectivity probe.
const probeTimeout = 5 * time.Second

// Ledger is the slice of the client the reconciler drives.
type Ledger interface {
	CreateTransaction(ctx context.Context, outletID string, tx Transaction) (Transaction, error)
	ListTransactions(ctx context.Context, outletID string, limit int) ([]Transaction, error)
	VoidTransaction(ctx context.Context, outletID, txID, reason string) (Transaction, error)
	Health(ctx context.Context) (HealthStatus, error)
}

// Reconciler keeps the register's transaction view consistent with the
// ledger and absorbs outages. Writes that fail on connectivity are
// parked in a pending list; they are retried only by an explicit
// FlushPending, never behind the cashier's back.
type Reconciler struct {
	ledger   Ledger
	outletID string

	mu        sync.RWMutex
	status    string
	latency   time.Duration
	persisted []Transaction
	pending   []Transaction
}

// NewReconciler starts in the DISCONNECTED state; the first probe or
// refresh promotes it.
func NewReconciler(ledger Ledger, outletID string) *Reconciler {
	return &Reconciler{
		ledger:   ledger,
		outletID: outletID,
		status:   enum.ConnectionDisconnected,
	}
}

// Status returns the current connection state and the last measured
// probe latency.
func (r *Reconciler) Status() (string, time.Duration) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status, r.latency
}

// Transactions returns the merged view: pending local records first,
// newest persisted records after. Pending entries carry
// LocationPendingLocal so the history screen can badge them.
func (r *Reconciler) Transactions() []Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Transaction, 0, len(r.pending)+len(r.persisted))
	out = append(out, r.pending...)
	out = append(out, r.persisted...)
	return out
}

// PendingCount returns how many transactions are parked locally.
func (r *Reconciler) PendingCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pending)
}

// Probe measures ledger reachability. A degraded health report (the
// process answers but its database is down) counts as disconnected.
func (r *Reconciler) Probe(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	health, err := r.ledger.Health(ctx)
	elapsed := time.Since(start)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil || !health.OK() {
		r.status = enum.ConnectionDisconnected
		r.latency = 0
	} else {
		r.status = enum.ConnectionConnected
		r.latency = elapsed
	}
	return r.status
}

// StartProber probes on a fixed interval until ctx is cancelled.
func (r *Reconciler) StartProber(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		r.Probe(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Probe(ctx)
			}
		}
	}()
}

// SubmitTransaction sends a settled order to the ledger. On a
// connectivity failure the record is tagged PendingLocal, prepended to
// the merged view, and ErrSavedLocally is returned. A rejection the
// ledger actually made (a 4xx) is returned as is; that is a caller
// bug, not an outage.
func (r *Reconciler) SubmitTransaction(ctx context.Context, tx Transaction) (Transaction, error) {
	r.setStatus(enum.ConnectionSyncing)

	stored, err := r.ledger.CreateTransaction(ctx, r.outletID, tx)
	if err != nil {
		if isRejection(err) {
			r.setStatus(enum.ConnectionConnected)
			return Transaction{}, err
		}
		tx.Location = LocationPendingLocal
		r.mu.Lock()
		r.status = enum.ConnectionDisconnected
		r.pending = append([]Transaction{tx}, r.pending...)
		r.mu.Unlock()
		return tx, ErrSavedLocally
	}

	stored.Location = LocationPersisted
	r.setStatus(enum.ConnectionConnected)
	if err := r.RefreshTransactions(ctx); err != nil {
		// The write is acknowledged; a failed re-read only stales the view.
		r.prependPersisted(stored)
	}
	return stored, nil
}

// VoidTransaction voids a persisted record and refreshes the view.
// Pending local records cannot be voided; they were never settled.
func (r *Reconciler) VoidTransaction(ctx context.Context, txID, reason string) (Transaction, error) {
	r.setStatus(enum.ConnectionSyncing)

	voided, err := r.ledger.VoidTransaction(ctx, r.outletID, txID, reason)
	if err != nil {
		if isRejection(err) {
			r.setStatus(enum.ConnectionConnected)
		} else {
			r.setStatus(enum.ConnectionDisconnected)
		}
		return Transaction{}, err
	}

	voided.Location = LocationPersisted
	r.setStatus(enum.ConnectionConnected)
	if err := r.RefreshTransactions(ctx); err == nil {
		return voided, nil
	}
	r.mu.Lock()
	for i := range r.persisted {
		if r.persisted[i].ID == voided.ID {
			r.persisted[i] = voided
			break
		}
	}
	r.mu.Unlock()
	return voided, nil
}

// RefreshTransactions replaces the persisted view with the ledger's
// latest page. Pending local records are untouched.
func (r *Reconciler) RefreshTransactions(ctx context.Context) error {
	txs, err := r.ledger.ListTransactions(ctx, r.outletID, 0)
	if err != nil {
		if !isRejection(err) {
			r.setStatus(enum.ConnectionDisconnected)
		}
		return err
	}
	for i := range txs {
		txs[i].Location = LocationPersisted
	}
	r.mu.Lock()
	r.persisted = txs
	r.status = enum.ConnectionConnected
	r.mu.Unlock()
	return nil
}

// FlushPending replays parked transactions oldest first. Each record
// keeps the id and created_at minted at checkout, so a replay the
// ledger already saw lands as a no-op instead of a duplicate.
// Flushing stops at the first connectivity failure; records the
// ledger outright rejects are dropped from the queue without counting
// as settled. Returns how many records the ledger acknowledged.
func (r *Reconciler) FlushPending(ctx context.Context) (int, error) {
	r.mu.Lock()
	queue := make([]Transaction, len(r.pending))
	copy(queue, r.pending)
	r.mu.Unlock()
	if len(queue) == 0 {
		return 0, nil
	}

	r.setStatus(enum.ConnectionSyncing)

	flushed := 0
	// Oldest first so the ledger receives them in sale order.
	for i := len(queue) - 1; i >= 0; i-- {
		tx := queue[i]
		if _, err := r.ledger.CreateTransaction(ctx, r.outletID, tx); err != nil {
			if isRejection(err) {
				// The ledger refused this record outright; drop it from
				// the queue rather than retrying it forever.
				r.removePending(tx.ID)
				continue
			}
			r.setStatus(enum.ConnectionDisconnected)
			return flushed, err
		}
		r.removePending(tx.ID)
		flushed++
	}

	if err := r.RefreshTransactions(ctx); err != nil {
		return flushed, err
	}
	return flushed, nil
}

func (r *Reconciler) setStatus(s string) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
}

func (r *Reconciler) prependPersisted(tx Transaction) {
	r.mu.Lock()
	r.persisted = append([]Transaction{tx}, r.persisted...)
	r.mu.Unlock()
}

func (r *Reconciler) removePending(txID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.pending {
		if r.pending[i].ID == txID {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return
		}
	}
}

// isRejection reports whether the ledger itself answered with a client
// error. Network failures, timeouts and 5xx responses are not
// rejections; they mean the outage path.
func isRejection(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 400 && apiErr.Status < 500
	}
	return false
}
