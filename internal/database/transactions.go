package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const createTransaction = `
INSERT INTO transactions (id, subtotal, discount, total, payment_method, customer_name, status, created_at, outlet_id, cashier_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, subtotal, discount, total, payment_method, customer_name, status, void_reason, created_at, outlet_id, cashier_id
`

type CreateTransactionParams struct {
	ID            string
	Subtotal      pgtype.Numeric
	Discount      pgtype.Numeric
	Total         pgtype.Numeric
	PaymentMethod string
	CustomerName  pgtype.Text
	Status        string
	CreatedAt     time.Time
	OutletID      string
	CashierID     string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, createTransaction,
		arg.ID, arg.Subtotal, arg.Discount, arg.Total, arg.PaymentMethod,
		arg.CustomerName, arg.Status, arg.CreatedAt, arg.OutletID, arg.CashierID)
	return scanTransaction(row)
}

const createTransactionItem = `
INSERT INTO transaction_items (transaction_id, product_id, name, price, cost_price, quantity, note)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, transaction_id, product_id, name, price, cost_price, quantity, note
`

type CreateTransactionItemParams struct {
	TransactionID string
	ProductID     string
	Name          string
	Price         pgtype.Numeric
	CostPrice     pgtype.Numeric
	Quantity      int32
	Note          pgtype.Text
}

func (q *Queries) CreateTransactionItem(ctx context.Context, arg CreateTransactionItemParams) (TransactionItem, error) {
	row := q.db.QueryRow(ctx, createTransactionItem,
		arg.TransactionID, arg.ProductID, arg.Name, arg.Price, arg.CostPrice, arg.Quantity, arg.Note)
	var it TransactionItem
	err := row.Scan(&it.ID, &it.TransactionID, &it.ProductID, &it.Name, &it.Price, &it.CostPrice, &it.Quantity, &it.Note)
	return it, err
}

const getTransaction = `
SELECT id, subtotal, discount, total, payment_method, customer_name, status, void_reason, created_at, outlet_id, cashier_id
FROM transactions
WHERE id = $1 AND outlet_id = $2
`

type GetTransactionParams struct {
	ID       string
	OutletID string
}

func (q *Queries) GetTransaction(ctx context.Context, arg GetTransactionParams) (Transaction, error) {
	return scanTransaction(q.db.QueryRow(ctx, getTransaction, arg.ID, arg.OutletID))
}

const listTransactions = `
SELECT id, subtotal, discount, total, payment_method, customer_name, status, void_reason, created_at, outlet_id, cashier_id
FROM transactions
WHERE outlet_id = $1
ORDER BY created_at DESC, id
LIMIT $2
`

type ListTransactionsParams struct {
	OutletID string
	Limit    int32
}

// ListTransactions returns transaction headers newest-first.
func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listTransactions, arg.OutletID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Subtotal, &t.Discount, &t.Total, &t.PaymentMethod,
			&t.CustomerName, &t.Status, &t.VoidReason, &t.CreatedAt, &t.OutletID, &t.CashierID); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

const listTransactionItemsByTransactionIDs = `
SELECT id, transaction_id, product_id, name, price, cost_price, quantity, note
FROM transaction_items
WHERE transaction_id = ANY($1)
ORDER BY transaction_id, id
`

// ListTransactionItemsByTransactionIDs fetches the line items for a set
// of transactions in one round trip. Callers partition the rows back by
// transaction_id.
func (q *Queries) ListTransactionItemsByTransactionIDs(ctx context.Context, ids []string) ([]TransactionItem, error) {
	rows, err := q.db.Query(ctx, listTransactionItemsByTransactionIDs, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TransactionItem
	for rows.Next() {
		var it TransactionItem
		if err := rows.Scan(&it.ID, &it.TransactionID, &it.ProductID, &it.Name, &it.Price, &it.CostPrice, &it.Quantity, &it.Note); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const voidTransaction = `
UPDATE transactions
SET status = 'VOIDED', void_reason = $1
WHERE id = $2 AND outlet_id = $3 AND status = 'COMPLETED'
RETURNING id, subtotal, discount, total, payment_method, customer_name, status, void_reason, created_at, outlet_id, cashier_id
`

type VoidTransactionParams struct {
	VoidReason pgtype.Text
	ID         string
	OutletID   string
}

// VoidTransaction flips a COMPLETED transaction to VOIDED. The status
// guard in the WHERE clause makes the one-way transition atomic: no
// rows come back if the transaction is missing or already voided.
func (q *Queries) VoidTransaction(ctx context.Context, arg VoidTransactionParams) (Transaction, error) {
	return scanTransaction(q.db.QueryRow(ctx, voidTransaction, arg.VoidReason, arg.ID, arg.OutletID))
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTransaction(row scannable) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.Subtotal, &t.Discount, &t.Total, &t.PaymentMethod,
		&t.CustomerName, &t.Status, &t.VoidReason, &t.CreatedAt, &t.OutletID, &t.CashierID)
	return t, err
}
