// Package pos is the client-side core of the Angkringan point of sale:
// the cart state machine, checkout validation, the settlement client
// with its offline fallback, and the sales reporting aggregator.
package pos

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product mirrors the catalog wire format. Money travels as strings;
// use the *Amount accessors for arithmetic.
type Product struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	CostPrice string `json:"cost_price"`
	Category  string `json:"category"`
	IsActive  bool   `json:"is_active"`
	OutletID  string `json:"outlet_id"`
}

// PriceAmount returns the sale price, coercing garbage to zero.
func (p Product) PriceAmount() decimal.Decimal { return ParseAmount(p.Price) }

// CostAmount returns the unit cost, coercing garbage to zero.
func (p Product) CostAmount() decimal.Decimal { return ParseAmount(p.CostPrice) }

// CartItem is one mutable line of the in-progress order. Price and
// cost are copied out of the Product on add, so later catalog edits
// never reach the cart.
type CartItem struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	CostPrice decimal.Decimal
	Category  string
	Quantity  int
	Note      string
}

// LineTotal is price * quantity for this line.
func (it CartItem) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// TransactionItem is an immutable line-item snapshot on the wire.
type TransactionItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	CostPrice string `json:"cost_price"`
	Quantity  int    `json:"quantity"`
	Note      string `json:"note,omitempty"`
}

// Location tags where a transaction record currently lives.
type Location int

const (
	// LocationPersisted means the ledger service acknowledged the write.
	LocationPersisted Location = iota
	// LocationPendingLocal means the remote write failed and the record
	// is held in this session's memory only. It does not survive a
	// restart and is never retried without an explicit FlushPending.
	LocationPendingLocal
)

// Transaction mirrors the ledger wire format.
type Transaction struct {
	ID            string            `json:"id"`
	Items         []TransactionItem `json:"items"`
	Subtotal      string            `json:"subtotal"`
	Discount      string            `json:"discount"`
	Total         string            `json:"total"`
	PaymentMethod string            `json:"payment_method"`
	CustomerName  string            `json:"customer_name,omitempty"`
	Status        string            `json:"status"`
	VoidReason    string            `json:"void_reason,omitempty"`
	CreatedAt     string            `json:"created_at"`
	OutletID      string            `json:"outlet_id"`
	CashierID     string            `json:"cashier_id"`

	// Location is session-local state maintained by the Reconciler.
	Location Location `json:"-"`
}

// TotalAmount returns the grand total, coercing garbage to zero.
func (t Transaction) TotalAmount() decimal.Decimal { return ParseAmount(t.Total) }

// SubtotalAmount returns the pre-discount sum, coercing garbage to zero.
func (t Transaction) SubtotalAmount() decimal.Decimal { return ParseAmount(t.Subtotal) }

// CreatedAtTime parses the timestamp. ok is false for a missing or
// malformed date; such transactions fall outside every report range.
func (t Transaction) CreatedAtTime() (time.Time, bool) {
	if t.CreatedAt == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, t.CreatedAt)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// QRISConfig is the stored QRIS payment toggle. Field names follow the
// JSON the config endpoint stores.
type QRISConfig struct {
	MerchantName string `json:"merchantName"`
	QRImageURL   string `json:"qrImageUrl"`
	IsActive     bool   `json:"isActive"`
}

// HealthStatus is the liveness probe response. Database is reported
// separately so a reachable process with an unreachable backend still
// counts as disconnected.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// OK reports whether the service and its storage are both usable.
func (h HealthStatus) OK() bool {
	return h.Status == "UP" && h.Database != "DOWN" && h.Database != "DISCONNECTED"
}
