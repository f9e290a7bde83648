package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Product is a sellable catalog item. Transactions never reference it
// directly; line items carry snapshots of name/price/cost_price.
type Product struct {
	ID        string
	Name      string
	Price     pgtype.Numeric
	CostPrice pgtype.Numeric
	Category  string
	IsActive  bool
	OutletID  string
}

// Transaction is the durable header of a settled sale.
type Transaction struct {
	ID            string
	Subtotal      pgtype.Numeric
	Discount      pgtype.Numeric
	Total         pgtype.Numeric
	PaymentMethod string
	CustomerName  pgtype.Text
	Status        string
	VoidReason    pgtype.Text
	CreatedAt     time.Time
	OutletID      string
	CashierID     string
}

// TransactionItem is one immutable line of a transaction, carrying the
// price and cost captured at sale time.
type TransactionItem struct {
	ID            int64
	TransactionID string
	ProductID     string
	Name          string
	Price         pgtype.Numeric
	CostPrice     pgtype.Numeric
	Quantity      int32
	Note          pgtype.Text
}

type Outlet struct {
	ID      string
	Name    string
	Address pgtype.Text
}

type User struct {
	ID       string
	Name     string
	Role     string
	OutletID string
}

// AppConfig is a key -> raw JSON value row.
type AppConfig struct {
	ConfigKey   string
	ConfigValue []byte
}
