package pos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// APIError is a non-2xx response from the ledger service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ledger: %d %s", e.Status, e.Message)
}

// Client talks JSON to the ledger service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a ledger client. The default timeout is generous;
// connectivity probing uses its own shorter deadline via context.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithHTTP creates a ledger client over a caller-owned
// http.Client.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: baseURL, http: hc}
}

// createTransactionPayload mirrors the ledger's create request.
type createTransactionPayload struct {
	ID            string            `json:"id"`
	PaymentMethod string            `json:"payment_method"`
	CustomerName  string            `json:"customer_name"`
	Discount      string            `json:"discount"`
	CreatedAt     string            `json:"created_at"`
	CashierID     string            `json:"cashier_id"`
	Items         []TransactionItem `json:"items"`
}

type voidPayload struct {
	VoidReason string `json:"void_reason"`
}

type transactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Limit        int           `json:"limit"`
}

// ProductInput carries the editable product fields for create/update.
type ProductInput struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	CostPrice string `json:"cost_price"`
	Category  string `json:"category"`
	IsActive  bool   `json:"is_active"`
}

// ListProducts fetches the outlet's catalog, ordered by category then
// name.
func (c *Client) ListProducts(ctx context.Context, outletID string) ([]Product, error) {
	var out []Product
	err := c.do(ctx, http.MethodGet, "/outlets/"+url.PathEscape(outletID)+"/products", nil, &out)
	return out, err
}

// CreateProduct adds a product to the outlet's catalog.
func (c *Client) CreateProduct(ctx context.Context, outletID string, in ProductInput) (Product, error) {
	var out Product
	err := c.do(ctx, http.MethodPost, "/outlets/"+url.PathEscape(outletID)+"/products", in, &out)
	return out, err
}

// UpdateProduct replaces a product's editable fields.
func (c *Client) UpdateProduct(ctx context.Context, outletID, productID string, in ProductInput) (Product, error) {
	var out Product
	path := "/outlets/" + url.PathEscape(outletID) + "/products/" + url.PathEscape(productID)
	err := c.do(ctx, http.MethodPut, path, in, &out)
	return out, err
}

// CreateTransaction submits a settled order. The ledger treats a
// repeated id as a replay and returns the stored record unchanged.
func (c *Client) CreateTransaction(ctx context.Context, outletID string, tx Transaction) (Transaction, error) {
	payload := createTransactionPayload{
		ID:            tx.ID,
		PaymentMethod: tx.PaymentMethod,
		CustomerName:  tx.CustomerName,
		Discount:      tx.Discount,
		CreatedAt:     tx.CreatedAt,
		CashierID:     tx.CashierID,
		Items:         tx.Items,
	}
	var out Transaction
	err := c.do(ctx, http.MethodPost, "/outlets/"+url.PathEscape(outletID)+"/transactions", payload, &out)
	return out, err
}

// ListTransactions fetches the outlet's most recent transactions,
// newest first. limit <= 0 uses the server default.
func (c *Client) ListTransactions(ctx context.Context, outletID string, limit int) ([]Transaction, error) {
	path := "/outlets/" + url.PathEscape(outletID) + "/transactions"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var page transactionPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return page.Transactions, nil
}

// VoidTransaction marks a completed transaction as voided with the
// given reason. The record itself is never deleted.
func (c *Client) VoidTransaction(ctx context.Context, outletID, txID, reason string) (Transaction, error) {
	path := "/outlets/" + url.PathEscape(outletID) + "/transactions/" + url.PathEscape(txID) + "/void"
	var out Transaction
	err := c.do(ctx, http.MethodPut, path, voidPayload{VoidReason: reason}, &out)
	return out, err
}

// GetQRISConfig fetches the stored QRIS payment settings.
func (c *Client) GetQRISConfig(ctx context.Context) (QRISConfig, error) {
	var out QRISConfig
	err := c.do(ctx, http.MethodGet, "/config/qris", nil, &out)
	return out, err
}

// PutQRISConfig stores the QRIS payment settings.
func (c *Client) PutQRISConfig(ctx context.Context, cfg QRISConfig) (QRISConfig, error) {
	var out QRISConfig
	err := c.do(ctx, http.MethodPut, "/config/qris", cfg, &out)
	return out, err
}

// Health probes the ledger's liveness endpoint.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var out HealthStatus
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// readErrorMessage extracts the "error" field from a failure body,
// falling back to the raw text.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Error != "" {
		return e.Error
	}
	return string(bytes.TrimSpace(raw))
}
