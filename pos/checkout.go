package pos

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angkringan-pos/api/internal/enum"
)

// Checkout validation failures, in the order they are checked.
var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrCustomerNameRequired = errors.New("customer name is required for credit")
	ErrInsufficientCash     = errors.New("cash tendered is less than the total")
	ErrQRISDisabled         = errors.New("QRIS payments are disabled")
	ErrCheckoutInProgress   = errors.New("a checkout is already in progress")
)

// Submitter is the slice of the reconciler checkout needs.
type Submitter interface {
	SubmitTransaction(ctx context.Context, tx Transaction) (Transaction, error)
}

// QRISProvider fetches the QRIS payment settings.
type QRISProvider interface {
	GetQRISConfig(ctx context.Context) (QRISConfig, error)
}

// Checkout is the payment form over one cart. It validates the chosen
// method, settles the order through the reconciler, and on success
// resets both the cart and itself for the next customer.
type Checkout struct {
	cart      *Cart
	submitter Submitter
	qris      QRISProvider
	outletID  string
	cashierID string

	mu            sync.Mutex
	paymentMethod string
	customerName  string
	cashTendered  decimal.Decimal
	processing    bool
	pendingID     string
}

// NewCheckout binds the form to a cart. Cash is the default method.
func NewCheckout(cart *Cart, submitter Submitter, qris QRISProvider, outletID, cashierID string) *Checkout {
	return &Checkout{
		cart:          cart,
		submitter:     submitter,
		qris:          qris,
		outletID:      outletID,
		cashierID:     cashierID,
		paymentMethod: enum.PaymentMethodCash,
	}
}

// SetPaymentMethod selects Tunai, QRIS or Hutang. Unknown methods are
// ignored.
func (co *Checkout) SetPaymentMethod(method string) {
	switch method {
	case enum.PaymentMethodCash, enum.PaymentMethodQRIS, enum.PaymentMethodCredit:
		co.mu.Lock()
		co.paymentMethod = method
		co.mu.Unlock()
	}
}

// PaymentMethod returns the selected method.
func (co *Checkout) PaymentMethod() string {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.paymentMethod
}

// SetCustomerName records who owes a credit sale.
func (co *Checkout) SetCustomerName(name string) {
	co.mu.Lock()
	co.customerName = name
	co.mu.Unlock()
}

// SetCashTendered records the cash handed over. Negative input is
// treated as zero.
func (co *Checkout) SetCashTendered(amount decimal.Decimal) {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	co.mu.Lock()
	co.cashTendered = amount
	co.mu.Unlock()
}

// ChangeDue is tendered cash minus the cart total, floored at zero.
func (co *Checkout) ChangeDue() decimal.Decimal {
	co.mu.Lock()
	tendered := co.cashTendered
	co.mu.Unlock()
	change := tendered.Sub(co.cart.Total())
	if change.IsNegative() {
		return decimal.Zero
	}
	return change
}

// Reset returns the form to its post-sale state: cash method, no
// customer, nothing tendered. The retry id survives only while a
// rejected submission is still being corrected.
func (co *Checkout) Reset() {
	co.mu.Lock()
	co.paymentMethod = enum.PaymentMethodCash
	co.customerName = ""
	co.cashTendered = decimal.Zero
	co.mu.Unlock()
}

// Submit validates the form and settles the order. The transaction id
// is minted on the first attempt and reused on retries, so a retry of
// a submission the ledger already recorded replays as a no-op.
// A locally parked sale (ledger unreachable) counts as success.
func (co *Checkout) Submit(ctx context.Context) (Transaction, error) {
	co.mu.Lock()
	if co.processing {
		co.mu.Unlock()
		return Transaction{}, ErrCheckoutInProgress
	}
	co.processing = true
	method := co.paymentMethod
	customer := co.customerName
	tendered := co.cashTendered
	co.mu.Unlock()

	defer func() {
		co.mu.Lock()
		co.processing = false
		co.mu.Unlock()
	}()

	if co.cart.IsEmpty() {
		return Transaction{}, ErrEmptyCart
	}

	total := co.cart.Total()
	switch method {
	case enum.PaymentMethodCredit:
		if isBlank(customer) {
			return Transaction{}, ErrCustomerNameRequired
		}
	case enum.PaymentMethodCash:
		if tendered.LessThan(total) {
			return Transaction{}, ErrInsufficientCash
		}
	case enum.PaymentMethodQRIS:
		cfg, err := co.qris.GetQRISConfig(ctx)
		if err != nil {
			return Transaction{}, err
		}
		if !cfg.IsActive {
			return Transaction{}, ErrQRISDisabled
		}
	}

	co.mu.Lock()
	if co.pendingID == "" {
		co.pendingID = uuid.NewString()
	}
	txID := co.pendingID
	co.mu.Unlock()

	tx := Transaction{
		ID:            txID,
		Items:         snapshotItems(co.cart.Items()),
		Subtotal:      FormatAmount(co.cart.Subtotal()),
		Discount:      FormatAmount(co.cart.Discount()),
		Total:         FormatAmount(total),
		PaymentMethod: method,
		CustomerName:  customer,
		Status:        enum.TransactionStatusCompleted,
		CreatedAt:     time.Now().Format(time.RFC3339),
		OutletID:      co.outletID,
		CashierID:     co.cashierID,
	}

	stored, err := co.submitter.SubmitTransaction(ctx, tx)
	if err != nil && !errors.Is(err, ErrSavedLocally) {
		// The id stays; a corrected retry must replay, not duplicate.
		return Transaction{}, err
	}

	co.mu.Lock()
	co.pendingID = ""
	co.mu.Unlock()
	co.cart.Clear()
	co.Reset()

	if errors.Is(err, ErrSavedLocally) {
		return stored, ErrSavedLocally
	}
	return stored, nil
}

// snapshotItems freezes cart lines into immutable wire items.
func snapshotItems(items []CartItem) []TransactionItem {
	out := make([]TransactionItem, len(items))
	for i, it := range items {
		out[i] = TransactionItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     FormatAmount(it.Price),
			CostPrice: FormatAmount(it.CostPrice),
			Quantity:  it.Quantity,
			Note:      it.Note,
		}
	}
	return out
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' {
			return false
		}
	}
	return true
}
