package service

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/angkringan-pos/api/internal/database"
	"github.com/angkringan-pos/api/internal/enum"
)

// --- Mocks ---

// mockTx satisfies pgx.Tx and records the commit/rollback outcome.
type mockTx struct {
	committed  bool
	rolledBack bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { return m, nil }

func (m *mockTx) Commit(ctx context.Context) error {
	m.committed = true
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	if m.committed {
		return pgx.ErrTxClosed
	}
	m.rolledBack = true
	return nil
}

func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *mockTx) LargeObjects() pgx.LargeObjects                              { return pgx.LargeObjects{} }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *mockTx) Conn() *pgx.Conn                                              { return nil }

type mockBeginner struct {
	tx       *mockTx
	beginErr error
}

func (m *mockBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return m.tx, nil
}

// mockStore satisfies SettlementStore with per-method function fields.
type mockStore struct {
	createTransaction     func(ctx context.Context, arg database.CreateTransactionParams) (database.Transaction, error)
	createTransactionItem func(ctx context.Context, arg database.CreateTransactionItemParams) (database.TransactionItem, error)
	getTransaction        func(ctx context.Context, arg database.GetTransactionParams) (database.Transaction, error)
	listTransactions      func(ctx context.Context, arg database.ListTransactionsParams) ([]database.Transaction, error)
	listItems             func(ctx context.Context, ids []string) ([]database.TransactionItem, error)
	voidTransaction       func(ctx context.Context, arg database.VoidTransactionParams) (database.Transaction, error)
}

func (m *mockStore) CreateTransaction(ctx context.Context, arg database.CreateTransactionParams) (database.Transaction, error) {
	return m.createTransaction(ctx, arg)
}
func (m *mockStore) CreateTransactionItem(ctx context.Context, arg database.CreateTransactionItemParams) (database.TransactionItem, error) {
	return m.createTransactionItem(ctx, arg)
}
func (m *mockStore) GetTransaction(ctx context.Context, arg database.GetTransactionParams) (database.Transaction, error) {
	return m.getTransaction(ctx, arg)
}
func (m *mockStore) ListTransactions(ctx context.Context, arg database.ListTransactionsParams) ([]database.Transaction, error) {
	return m.listTransactions(ctx, arg)
}
func (m *mockStore) ListTransactionItemsByTransactionIDs(ctx context.Context, ids []string) ([]database.TransactionItem, error) {
	return m.listItems(ctx, ids)
}
func (m *mockStore) VoidTransaction(ctx context.Context, arg database.VoidTransactionParams) (database.Transaction, error) {
	return m.voidTransaction(ctx, arg)
}

func newService(tx *mockTx, store *mockStore) *SettlementService {
	return NewSettlementService(
		&mockBeginner{tx: tx},
		store,
		func(db database.DBTX) SettlementStore { return store },
	)
}

func mustNumeric(t *testing.T, s string) pgtype.Numeric {
	t.Helper()
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		t.Fatalf("scan numeric %q: %v", s, err)
	}
	return n
}

var ten = big.NewInt(10)

func numericEquals(a, b pgtype.Numeric) bool {
	if !a.Valid || !b.Valid {
		return a.Valid == b.Valid
	}
	// Normalize exponents before comparing mantissas.
	ai := new(big.Int).Set(a.Int)
	bi := new(big.Int).Set(b.Int)
	ae, be := a.Exp, b.Exp
	for ae > be {
		ai.Mul(ai, ten)
		ae--
	}
	for be > ae {
		bi.Mul(bi, ten)
		be--
	}
	return ai.Cmp(bi) == 0
}

func validRequest() CreateTransactionRequest {
	return CreateTransactionRequest{
		ID:            "tx-1",
		OutletID:      "o1",
		CashierID:     "u1",
		PaymentMethod: enum.PaymentMethodCash,
		Discount:      "0",
		Items: []CreateTransactionItemRequest{
			{ProductID: "p1", Name: "Es Teh Manis", Price: "3000", CostPrice: "1000", Quantity: 2},
			{ProductID: "p2", Name: "Sate Usus", Price: "2500", CostPrice: "1500", Quantity: 3},
		},
	}
}

// --- Create ---

func TestCreateTransactionValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateTransactionRequest)
		wantErr error
	}{
		{"missing id", func(r *CreateTransactionRequest) { r.ID = "" }, ErrMissingID},
		{"no items", func(r *CreateTransactionRequest) { r.Items = nil }, ErrEmptyItems},
		{"zero quantity", func(r *CreateTransactionRequest) { r.Items[0].Quantity = 0 }, ErrInvalidQuantity},
		{"negative quantity", func(r *CreateTransactionRequest) { r.Items[1].Quantity = -2 }, ErrInvalidQuantity},
		{"unknown payment method", func(r *CreateTransactionRequest) { r.PaymentMethod = "Barter" }, ErrInvalidPaymentMethod},
		{"garbage price", func(r *CreateTransactionRequest) { r.Items[0].Price = "tiga ribu" }, ErrInvalidAmount},
		{"negative price", func(r *CreateTransactionRequest) { r.Items[0].Price = "-3000" }, ErrNegativeAmount},
		{"garbage discount", func(r *CreateTransactionRequest) { r.Discount = "x" }, ErrInvalidAmount},
		{"negative discount", func(r *CreateTransactionRequest) { r.Discount = "-500" }, ErrNegativeAmount},
		{"bad created_at", func(r *CreateTransactionRequest) { r.CreatedAt = "yesterday" }, ErrInvalidCreatedAt},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tx := &mockTx{}
			svc := newService(tx, &mockStore{})

			req := validRequest()
			tc.mutate(&req)

			_, err := svc.CreateTransaction(context.Background(), req)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got error %v, want %v", err, tc.wantErr)
			}
			if tx.committed {
				t.Fatal("transaction committed despite validation failure")
			}
		})
	}
}

func TestCreateTransactionComputesTotals(t *testing.T) {
	tx := &mockTx{}
	var gotHeader database.CreateTransactionParams
	var gotItems []database.CreateTransactionItemParams

	store := &mockStore{
		createTransaction: func(ctx context.Context, arg database.CreateTransactionParams) (database.Transaction, error) {
			gotHeader = arg
			return database.Transaction{ID: arg.ID, Status: arg.Status}, nil
		},
		createTransactionItem: func(ctx context.Context, arg database.CreateTransactionItemParams) (database.TransactionItem, error) {
			gotItems = append(gotItems, arg)
			return database.TransactionItem{TransactionID: arg.TransactionID, ProductID: arg.ProductID}, nil
		},
	}
	svc := newService(tx, store)

	req := validRequest()
	req.Discount = "1500"

	result, err := svc.CreateTransaction(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if result.Replayed {
		t.Fatal("fresh id reported as replayed")
	}
	if !tx.committed {
		t.Fatal("transaction not committed")
	}

	// 2*3000 + 3*2500 = 13500, minus 1500 discount.
	if want := mustNumeric(t, "13500.00"); !numericEquals(gotHeader.Subtotal, want) {
		t.Errorf("subtotal = %+v, want 13500.00", gotHeader.Subtotal)
	}
	if want := mustNumeric(t, "1500.00"); !numericEquals(gotHeader.Discount, want) {
		t.Errorf("discount = %+v, want 1500.00", gotHeader.Discount)
	}
	if want := mustNumeric(t, "12000.00"); !numericEquals(gotHeader.Total, want) {
		t.Errorf("total = %+v, want 12000.00", gotHeader.Total)
	}
	if gotHeader.Status != enum.TransactionStatusCompleted {
		t.Errorf("status = %q, want %q", gotHeader.Status, enum.TransactionStatusCompleted)
	}
	if len(gotItems) != 2 {
		t.Fatalf("inserted %d items, want 2", len(gotItems))
	}
	if gotItems[0].TransactionID != "tx-1" || gotItems[1].TransactionID != "tx-1" {
		t.Error("items not bound to the header id")
	}
}

func TestCreateTransactionClampsOverDiscount(t *testing.T) {
	tx := &mockTx{}
	var gotHeader database.CreateTransactionParams
	store := &mockStore{
		createTransaction: func(ctx context.Context, arg database.CreateTransactionParams) (database.Transaction, error) {
			gotHeader = arg
			return database.Transaction{ID: arg.ID}, nil
		},
		createTransactionItem: func(ctx context.Context, arg database.CreateTransactionItemParams) (database.TransactionItem, error) {
			return database.TransactionItem{}, nil
		},
	}
	svc := newService(tx, store)

	req := validRequest()
	req.Discount = "99999"

	if _, err := svc.CreateTransaction(context.Background(), req); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if want := mustNumeric(t, "0.00"); !numericEquals(gotHeader.Total, want) {
		t.Errorf("total = %+v, want 0.00", gotHeader.Total)
	}
}

func TestCreateTransactionUsesClientTimestamp(t *testing.T) {
	tx := &mockTx{}
	var gotHeader database.CreateTransactionParams
	store := &mockStore{
		createTransaction: func(ctx context.Context, arg database.CreateTransactionParams) (database.Transaction, error) {
			gotHeader = arg
			return database.Transaction{ID: arg.ID}, nil
		},
		createTransactionItem: func(ctx context.Context, arg database.CreateTransactionItemParams) (database.TransactionItem, error) {
			return database.TransactionItem{}, nil
		},
	}
	svc := newService(tx, store)

	req := validRequest()
	req.CreatedAt = "2026-08-30T21:15:00+07:00"

	if _, err := svc.CreateTransaction(context.Background(), req); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	want, _ := time.Parse(time.RFC3339, req.CreatedAt)
	if !gotHeader.CreatedAt.Equal(want) {
		t.Errorf("created_at = %v, want %v", gotHeader.CreatedAt, want)
	}
}

func TestCreateTransactionRollsBackOnItemFailure(t *testing.T) {
	tx := &mockTx{}
	boom := errors.New("disk on fire")
	store := &mockStore{
		createTransaction: func(ctx context.Context, arg database.CreateTransactionParams) (database.Transaction, error) {
			return database.Transaction{ID: arg.ID}, nil
		},
		createTransactionItem: func(ctx context.Context, arg database.CreateTransactionItemParams) (database.TransactionItem, error) {
			if arg.ProductID == "p2" {
				return database.TransactionItem{}, boom
			}
			return database.TransactionItem{}, nil
		},
	}
	svc := newService(tx, store)

	_, err := svc.CreateTransaction(context.Background(), validRequest())
	if !errors.Is(err, boom) {
		t.Fatalf("got error %v, want %v", err, boom)
	}
	if tx.committed {
		t.Fatal("transaction committed after an item insert failed")
	}
	if !tx.rolledBack {
		t.Fatal("transaction not rolled back")
	}
}

func TestCreateTransactionReplaysDuplicateID(t *testing.T) {
	tx := &mockTx{}
	stored := database.Transaction{
		ID:       "tx-1",
		Status:   enum.TransactionStatusCompleted,
		OutletID: "o1",
	}
	store := &mockStore{
		createTransaction: func(ctx context.Context, arg database.CreateTransactionParams) (database.Transaction, error) {
			return database.Transaction{}, &pgconn.PgError{Code: "23505", ConstraintName: "transactions_pkey"}
		},
		getTransaction: func(ctx context.Context, arg database.GetTransactionParams) (database.Transaction, error) {
			if arg.ID != "tx-1" || arg.OutletID != "o1" {
				t.Errorf("fetched %s/%s, want o1/tx-1", arg.OutletID, arg.ID)
			}
			return stored, nil
		},
		listItems: func(ctx context.Context, ids []string) ([]database.TransactionItem, error) {
			return []database.TransactionItem{{TransactionID: "tx-1", ProductID: "p1"}}, nil
		},
	}
	svc := newService(tx, store)

	result, err := svc.CreateTransaction(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if !result.Replayed {
		t.Fatal("duplicate id not reported as replayed")
	}
	if result.Transaction.ID != "tx-1" {
		t.Errorf("replayed id = %q, want tx-1", result.Transaction.ID)
	}
	if len(result.Items) != 1 {
		t.Errorf("replayed items = %d, want 1", len(result.Items))
	}
	if tx.committed {
		t.Fatal("duplicate attempt committed a second row")
	}
}

func TestCreateTransactionOtherConstraintIsNotReplay(t *testing.T) {
	tx := &mockTx{}
	store := &mockStore{
		createTransaction: func(ctx context.Context, arg database.CreateTransactionParams) (database.Transaction, error) {
			return database.Transaction{}, &pgconn.PgError{Code: "23503", ConstraintName: "transactions_outlet_id_fkey"}
		},
	}
	svc := newService(tx, store)

	result, err := svc.CreateTransaction(context.Background(), validRequest())
	if err == nil {
		t.Fatalf("got result %+v, want error", result)
	}
}

// --- List ---

func TestListTransactionsPartitionsItems(t *testing.T) {
	store := &mockStore{
		listTransactions: func(ctx context.Context, arg database.ListTransactionsParams) ([]database.Transaction, error) {
			if arg.OutletID != "o1" || arg.Limit != 50 {
				t.Errorf("listed %s limit %d, want o1 limit 50", arg.OutletID, arg.Limit)
			}
			return []database.Transaction{{ID: "tx-2"}, {ID: "tx-1"}}, nil
		},
		listItems: func(ctx context.Context, ids []string) ([]database.TransactionItem, error) {
			if len(ids) != 2 {
				t.Errorf("fetched items for %d ids, want 2 in one query", len(ids))
			}
			return []database.TransactionItem{
				{TransactionID: "tx-1", ProductID: "p1"},
				{TransactionID: "tx-1", ProductID: "p2"},
			}, nil
		},
	}
	svc := newService(&mockTx{}, store)

	records, err := svc.ListTransactions(context.Background(), "o1", 50)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if got := len(records[0].Items); got != 0 {
		t.Errorf("tx-2 items = %d, want 0", got)
	}
	if records[0].Items == nil {
		t.Error("itemless transaction has nil items, want empty slice")
	}
	if got := len(records[1].Items); got != 2 {
		t.Errorf("tx-1 items = %d, want 2", got)
	}
}

func TestListTransactionsEmpty(t *testing.T) {
	store := &mockStore{
		listTransactions: func(ctx context.Context, arg database.ListTransactionsParams) ([]database.Transaction, error) {
			return nil, nil
		},
		listItems: func(ctx context.Context, ids []string) ([]database.TransactionItem, error) {
			t.Error("items fetched for an empty page")
			return nil, nil
		},
	}
	svc := newService(&mockTx{}, store)

	records, err := svc.ListTransactions(context.Background(), "o1", 50)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("got %v, want empty non-nil slice", records)
	}
}

// --- Void ---

func TestVoidTransaction(t *testing.T) {
	store := &mockStore{
		voidTransaction: func(ctx context.Context, arg database.VoidTransactionParams) (database.Transaction, error) {
			if arg.VoidReason.String != "salah pesan" || !arg.VoidReason.Valid {
				t.Errorf("void reason = %+v, want salah pesan", arg.VoidReason)
			}
			return database.Transaction{
				ID:         arg.ID,
				Status:     enum.TransactionStatusVoided,
				VoidReason: arg.VoidReason,
			}, nil
		},
		listItems: func(ctx context.Context, ids []string) ([]database.TransactionItem, error) {
			return nil, nil
		},
	}
	svc := newService(&mockTx{}, store)

	record, err := svc.VoidTransaction(context.Background(), "o1", "tx-1", "salah pesan")
	if err != nil {
		t.Fatalf("VoidTransaction: %v", err)
	}
	if record.Transaction.Status != enum.TransactionStatusVoided {
		t.Errorf("status = %q, want VOIDED", record.Transaction.Status)
	}
	if record.Items == nil {
		t.Error("items nil, want empty slice")
	}
}

func TestVoidTransactionEmptyReason(t *testing.T) {
	svc := newService(&mockTx{}, &mockStore{})
	_, err := svc.VoidTransaction(context.Background(), "o1", "tx-1", "")
	if !errors.Is(err, ErrEmptyVoidReason) {
		t.Fatalf("got %v, want ErrEmptyVoidReason", err)
	}
}

func TestVoidTransactionNotFound(t *testing.T) {
	store := &mockStore{
		voidTransaction: func(ctx context.Context, arg database.VoidTransactionParams) (database.Transaction, error) {
			return database.Transaction{}, pgx.ErrNoRows
		},
		getTransaction: func(ctx context.Context, arg database.GetTransactionParams) (database.Transaction, error) {
			return database.Transaction{}, pgx.ErrNoRows
		},
	}
	svc := newService(&mockTx{}, store)

	_, err := svc.VoidTransaction(context.Background(), "o1", "ghost", "typo")
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("got %v, want ErrTransactionNotFound", err)
	}
}

func TestVoidTransactionAlreadyVoided(t *testing.T) {
	original := pgtype.Text{String: "pelanggan batal", Valid: true}
	store := &mockStore{
		voidTransaction: func(ctx context.Context, arg database.VoidTransactionParams) (database.Transaction, error) {
			return database.Transaction{}, pgx.ErrNoRows
		},
		getTransaction: func(ctx context.Context, arg database.GetTransactionParams) (database.Transaction, error) {
			return database.Transaction{
				ID:         arg.ID,
				Status:     enum.TransactionStatusVoided,
				VoidReason: original,
			}, nil
		},
	}
	svc := newService(&mockTx{}, store)

	_, err := svc.VoidTransaction(context.Background(), "o1", "tx-1", "second thoughts")
	if !errors.Is(err, ErrAlreadyVoided) {
		t.Fatalf("got %v, want ErrAlreadyVoided", err)
	}
}
