package enum

// ── Product catalog ──

const (
	CategoryBeverage = "Minuman"
	CategoryFood     = "Makanan"
	CategorySkewer   = "Sate"
	CategoryOther    = "Lainnya"
)

// ── Settlement ──

const (
	PaymentMethodCash   = "Tunai"
	PaymentMethodQRIS   = "QRIS"
	PaymentMethodCredit = "Hutang"
)

const (
	TransactionStatusCompleted = "COMPLETED"
	TransactionStatusVoided    = "VOIDED"
)

// ── Client-side connectivity (never persisted) ──

const (
	ConnectionConnected    = "CONNECTED"
	ConnectionSyncing      = "SYNCING"
	ConnectionDisconnected = "DISCONNECTED"
)

// ── App config keys ──

const (
	ConfigKeyQRIS = "qris"
)

const (
	UserRoleAdmin   = "ADMIN"
	UserRoleCashier = "CASHIER"
)
