package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is executed on every startup. CREATE IF NOT EXISTS and
// ON CONFLICT DO NOTHING keep it safe to run repeatedly.
const schema = `
CREATE TABLE IF NOT EXISTS outlets (
    id VARCHAR(50) PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    address TEXT
);

CREATE TABLE IF NOT EXISTS users (
    id VARCHAR(50) PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    role VARCHAR(20) NOT NULL DEFAULT 'CASHIER' CHECK (role IN ('ADMIN', 'CASHIER')),
    outlet_id VARCHAR(50) REFERENCES outlets(id)
);

CREATE TABLE IF NOT EXISTS products (
    id VARCHAR(50) PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    price NUMERIC(15, 2) NOT NULL CHECK (price >= 0),
    cost_price NUMERIC(15, 2) NOT NULL CHECK (cost_price >= 0),
    category VARCHAR(50) NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    outlet_id VARCHAR(50) REFERENCES outlets(id)
);

CREATE TABLE IF NOT EXISTS transactions (
    id VARCHAR(50) PRIMARY KEY,
    subtotal NUMERIC(15, 2) NOT NULL,
    discount NUMERIC(15, 2) NOT NULL DEFAULT 0,
    total NUMERIC(15, 2) NOT NULL CHECK (total >= 0),
    payment_method VARCHAR(20) NOT NULL,
    customer_name VARCHAR(100),
    status VARCHAR(20) NOT NULL DEFAULT 'COMPLETED' CHECK (status IN ('COMPLETED', 'VOIDED')),
    void_reason TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    outlet_id VARCHAR(50) NOT NULL REFERENCES outlets(id),
    cashier_id VARCHAR(50) NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_outlet_created
    ON transactions (outlet_id, created_at DESC);

CREATE TABLE IF NOT EXISTS transaction_items (
    id BIGSERIAL PRIMARY KEY,
    transaction_id VARCHAR(50) NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
    product_id VARCHAR(50),
    name VARCHAR(255) NOT NULL,
    price NUMERIC(15, 2) NOT NULL,
    cost_price NUMERIC(15, 2) NOT NULL,
    quantity INT NOT NULL CHECK (quantity >= 1),
    note TEXT
);

CREATE INDEX IF NOT EXISTS idx_transaction_items_transaction
    ON transaction_items (transaction_id);

CREATE TABLE IF NOT EXISTS app_config (
    config_key VARCHAR(50) PRIMARY KEY,
    config_value JSONB NOT NULL
);

INSERT INTO outlets (id, name, address)
VALUES ('o1', 'Angkringan Pusat', 'Jl. Malioboro No. 1')
ON CONFLICT (id) DO NOTHING;

INSERT INTO users (id, name, role, outlet_id)
VALUES ('u1', 'Alfian Dimas', 'ADMIN', 'o1')
ON CONFLICT (id) DO NOTHING;

INSERT INTO app_config (config_key, config_value)
VALUES ('qris', '{"merchantName": "ANGKRINGAN PRO", "isActive": true, "qrImageUrl": ""}')
ON CONFLICT (config_key) DO NOTHING;
`

// InitSchema brings the database to the expected shape at startup.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}
