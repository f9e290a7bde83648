package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angkringan-pos/api/internal/database"
	"github.com/angkringan-pos/api/internal/enum"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned by the settlement service.
var (
	ErrMissingID            = errors.New("transaction id is required")
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidQuantity      = errors.New("quantity must be >= 1")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrNegativeAmount       = errors.New("amount must be >= 0")
	ErrInvalidCreatedAt     = errors.New("invalid created_at")
	ErrEmptyVoidReason      = errors.New("void_reason is required")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrAlreadyVoided        = errors.New("transaction is already voided")
)

// TxBeginner starts a new database transaction. Satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// SettlementStore defines the DB methods needed to settle and read
// transactions. Satisfied by *database.Queries (and its WithTx variant).
type SettlementStore interface {
	CreateTransaction(ctx context.Context, arg database.CreateTransactionParams) (database.Transaction, error)
	CreateTransactionItem(ctx context.Context, arg database.CreateTransactionItemParams) (database.TransactionItem, error)
	GetTransaction(ctx context.Context, arg database.GetTransactionParams) (database.Transaction, error)
	ListTransactions(ctx context.Context, arg database.ListTransactionsParams) ([]database.Transaction, error)
	ListTransactionItemsByTransactionIDs(ctx context.Context, ids []string) ([]database.TransactionItem, error)
	VoidTransaction(ctx context.Context, arg database.VoidTransactionParams) (database.Transaction, error)
}

// NewSettlementStore creates a SettlementStore from a DBTX (pool or tx).
type NewSettlementStore func(db database.DBTX) SettlementStore

// CreateTransactionRequest is the validated input for settling a sale.
// The id is minted by the client at checkout time and doubles as the
// idempotency key for retries.
type CreateTransactionRequest struct {
	ID            string
	OutletID      string
	CashierID     string
	PaymentMethod string
	CustomerName  string
	Discount      string
	CreatedAt     string // RFC3339; empty means server time
	Items         []CreateTransactionItemRequest
}

// CreateTransactionItemRequest is a single line-item snapshot.
type CreateTransactionItemRequest struct {
	ProductID string
	Name      string
	Price     string
	CostPrice string
	Quantity  int32
	Note      string
}

// TransactionRecord is a header with its reconstituted line items.
type TransactionRecord struct {
	Transaction database.Transaction
	Items       []database.TransactionItem
}

// CreateTransactionResult reports the stored record and whether this
// call was a replay of an id the ledger already holds.
type CreateTransactionResult struct {
	TransactionRecord
	Replayed bool
}

// SettlementService converts carts into durable ledger records and
// mediates all reads and status transitions on them.
type SettlementService struct {
	pool     TxBeginner
	store    SettlementStore
	newStore NewSettlementStore
}

// NewSettlementService creates a new SettlementService. store runs
// non-transactional reads; newStore builds a store bound to an open tx.
func NewSettlementService(pool TxBeginner, store SettlementStore, newStore NewSettlementStore) *SettlementService {
	return &SettlementService{pool: pool, store: store, newStore: newStore}
}

// CreateTransaction persists the header and every line item in a single
// database transaction. Totals are derived from the items server-side;
// client-supplied totals are never trusted. Re-submitting an id the
// ledger already holds returns the stored record unchanged with
// Replayed set, so a client retry after a lost ack converges.
func (s *SettlementService) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*CreateTransactionResult, error) {
	if req.ID == "" {
		return nil, ErrMissingID
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if !isValidPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}

	// --- Parse and validate line items ---
	subtotal := decimal.Zero
	params := make([]database.CreateTransactionItemParams, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		price, err := parseAmount(item.Price)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: price: %w", i, err)
		}
		costPrice, err := parseAmount(item.CostPrice)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: cost_price: %w", i, err)
		}

		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt32(item.Quantity)))

		note := pgtype.Text{}
		if item.Note != "" {
			note = pgtype.Text{String: item.Note, Valid: true}
		}
		params[i] = database.CreateTransactionItemParams{
			TransactionID: req.ID,
			ProductID:     item.ProductID,
			Name:          item.Name,
			Price:         decimalToNumeric(price),
			CostPrice:     decimalToNumeric(costPrice),
			Quantity:      item.Quantity,
			Note:          note,
		}
	}

	// --- Discount and total ---
	discount := decimal.Zero
	if req.Discount != "" {
		d, err := parseAmount(req.Discount)
		if err != nil {
			return nil, fmt.Errorf("discount: %w", err)
		}
		discount = d
	}
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	// --- Timestamp ---
	createdAt := time.Now()
	if req.CreatedAt != "" {
		t, err := time.Parse(time.RFC3339, req.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCreatedAt, err)
		}
		createdAt = t
	}

	customerName := pgtype.Text{}
	if req.CustomerName != "" {
		customerName = pgtype.Text{String: req.CustomerName, Valid: true}
	}

	record, err := s.createTransactionTx(ctx, database.CreateTransactionParams{
		ID:            req.ID,
		Subtotal:      decimalToNumeric(subtotal),
		Discount:      decimalToNumeric(discount),
		Total:         decimalToNumeric(total),
		PaymentMethod: req.PaymentMethod,
		CustomerName:  customerName,
		Status:        enum.TransactionStatusCompleted,
		CreatedAt:     createdAt,
		OutletID:      req.OutletID,
		CashierID:     req.CashierID,
	}, params)
	if err == nil {
		return &CreateTransactionResult{TransactionRecord: *record}, nil
	}

	// Duplicate primary key means an earlier attempt with this id
	// already committed; atomicity guarantees its items are complete,
	// so hand back the stored record instead of a second row.
	if !isDuplicateTransactionID(err) {
		return nil, err
	}
	existing, err := s.getRecord(ctx, req.OutletID, req.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch replayed transaction: %w", err)
	}
	return &CreateTransactionResult{TransactionRecord: *existing, Replayed: true}, nil
}

// createTransactionTx runs the header insert and every item insert in
// one all-or-nothing unit. Any failure rolls the whole record back.
func (s *SettlementService) createTransactionTx(ctx context.Context, header database.CreateTransactionParams, items []database.CreateTransactionItemParams) (*TransactionRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	created, err := store.CreateTransaction(ctx, header)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	inserted := make([]database.TransactionItem, 0, len(items))
	for i, p := range items {
		item, err := store.CreateTransactionItem(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("create transaction item %d: %w", i, err)
		}
		inserted = append(inserted, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &TransactionRecord{Transaction: created, Items: inserted}, nil
}

// ListTransactions returns the ledger newest-first with every line item
// reconstituted. Items for the whole page are fetched in one query and
// partitioned back by transaction id, so a transaction with no items
// reports an empty list and one with N items reports exactly N.
func (s *SettlementService) ListTransactions(ctx context.Context, outletID string, limit int32) ([]TransactionRecord, error) {
	headers, err := s.store.ListTransactions(ctx, database.ListTransactionsParams{
		OutletID: outletID,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if len(headers) == 0 {
		return []TransactionRecord{}, nil
	}

	ids := make([]string, len(headers))
	for i, h := range headers {
		ids[i] = h.ID
	}
	items, err := s.store.ListTransactionItemsByTransactionIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list transaction items: %w", err)
	}

	byTx := make(map[string][]database.TransactionItem, len(headers))
	for _, it := range items {
		byTx[it.TransactionID] = append(byTx[it.TransactionID], it)
	}

	records := make([]TransactionRecord, len(headers))
	for i, h := range headers {
		txItems := byTx[h.ID]
		if txItems == nil {
			txItems = []database.TransactionItem{}
		}
		records[i] = TransactionRecord{Transaction: h, Items: txItems}
	}
	return records, nil
}

// VoidTransaction transitions a COMPLETED transaction to VOIDED and
// records the reason. The transition is one-way: voiding a missing id
// returns ErrTransactionNotFound, re-voiding returns ErrAlreadyVoided
// and leaves the original reason untouched. Items and totals are never
// modified.
func (s *SettlementService) VoidTransaction(ctx context.Context, outletID, id, reason string) (*TransactionRecord, error) {
	if reason == "" {
		return nil, ErrEmptyVoidReason
	}

	voided, err := s.store.VoidTransaction(ctx, database.VoidTransactionParams{
		VoidReason: pgtype.Text{String: reason, Valid: true},
		ID:         id,
		OutletID:   outletID,
	})
	if err == nil {
		items, err := s.itemsFor(ctx, voided.ID)
		if err != nil {
			return nil, err
		}
		return &TransactionRecord{Transaction: voided, Items: items}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("void transaction: %w", err)
	}

	// No rows updated: the transaction is missing or already voided.
	// Fetch to tell the two apart.
	current, err := s.store.GetTransaction(ctx, database.GetTransactionParams{ID: id, OutletID: outletID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("get transaction for void: %w", err)
	}
	if current.Status == enum.TransactionStatusVoided {
		return nil, ErrAlreadyVoided
	}
	return nil, fmt.Errorf("transaction %s cannot be voided from status %s", id, current.Status)
}

func (s *SettlementService) getRecord(ctx context.Context, outletID, id string) (*TransactionRecord, error) {
	header, err := s.store.GetTransaction(ctx, database.GetTransactionParams{ID: id, OutletID: outletID})
	if err != nil {
		return nil, err
	}
	items, err := s.itemsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TransactionRecord{Transaction: header, Items: items}, nil
}

func (s *SettlementService) itemsFor(ctx context.Context, id string) ([]database.TransactionItem, error) {
	items, err := s.store.ListTransactionItemsByTransactionIDs(ctx, []string{id})
	if err != nil {
		return nil, fmt.Errorf("list transaction items: %w", err)
	}
	if items == nil {
		items = []database.TransactionItem{}
	}
	return items, nil
}

// --- Helpers ---

func isValidPaymentMethod(s string) bool {
	switch s {
	case enum.PaymentMethodCash, enum.PaymentMethodQRIS, enum.PaymentMethodCredit:
		return true
	}
	return false
}

// isDuplicateTransactionID reports a unique violation on the
// transactions primary key (pgconn error code 23505).
func isDuplicateTransactionID(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "transactions_pkey"
	}
	return false
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
