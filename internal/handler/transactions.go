package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/angkringan-pos/api/internal/service"
	"github.com/angkringan-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
)

// Settler defines the service methods needed by transaction handlers.
// Satisfied by *service.SettlementService; narrow interface for testability.
type Settler interface {
	CreateTransaction(ctx context.Context, req service.CreateTransactionRequest) (*service.CreateTransactionResult, error)
	ListTransactions(ctx context.Context, outletID string, limit int32) ([]service.TransactionRecord, error)
	VoidTransaction(ctx context.Context, outletID, id, reason string) (*service.TransactionRecord, error)
}

// Broadcaster pushes ledger events to connected clients.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	BroadcastToOutlet(outletID string, event ws.Event)
}

// TransactionHandler handles ledger endpoints.
type TransactionHandler struct {
	svc Settler
	hub Broadcaster
}

// NewTransactionHandler creates a new TransactionHandler. hub may be
// nil when event push is not wired (tests, seed tooling).
func NewTransactionHandler(svc Settler, hub Broadcaster) *TransactionHandler {
	return &TransactionHandler{svc: svc, hub: hub}
}

// RegisterRoutes registers ledger endpoints on the given Chi router.
// Expected to be mounted inside an outlet-scoped subrouter: /outlets/{oid}/transactions
func (h *TransactionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Put("/{id}/void", h.Void)
}

// --- Request / Response types ---

type createTransactionRequest struct {
	ID            string                         `json:"id"`
	PaymentMethod string                         `json:"payment_method"`
	CustomerName  string                         `json:"customer_name"`
	Discount      string                         `json:"discount"`
	CreatedAt     string                         `json:"created_at"`
	CashierID     string                         `json:"cashier_id"`
	Items         []createTransactionItemRequest `json:"items"`
}

type createTransactionItemRequest struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	CostPrice string `json:"cost_price"`
	Quantity  int32  `json:"quantity"`
	Note      string `json:"note"`
}

type voidTransactionRequest struct {
	VoidReason string `json:"void_reason"`
}

type transactionResponse struct {
	ID            string                    `json:"id"`
	Items         []transactionItemResponse `json:"items"`
	Subtotal      string                    `json:"subtotal"`
	Discount      string                    `json:"discount"`
	Total         string                    `json:"total"`
	PaymentMethod string                    `json:"payment_method"`
	CustomerName  *string                   `json:"customer_name"`
	Status        string                    `json:"status"`
	VoidReason    *string                   `json:"void_reason"`
	CreatedAt     time.Time                 `json:"created_at"`
	OutletID      string                    `json:"outlet_id"`
	CashierID     string                    `json:"cashier_id"`
}

type transactionItemResponse struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     string  `json:"price"`
	CostPrice string  `json:"cost_price"`
	Quantity  int32   `json:"quantity"`
	Note      *string `json:"note"`
}

// transactionListResponse wraps the ledger page with its limit.
type transactionListResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	Limit        int                   `json:"limit"`
}

// --- Handlers ---

// Create handles POST /outlets/{oid}/transactions.
// Accepts the full nested payload (header + items) and persists it
// atomically. A replayed id returns 200 with the stored record.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	outletID := chi.URLParam(r, "oid")
	if outletID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	items := make([]service.CreateTransactionItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = service.CreateTransactionItemRequest{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			CostPrice: it.CostPrice,
			Quantity:  it.Quantity,
			Note:      it.Note,
		}
	}

	result, err := h.svc.CreateTransaction(r.Context(), service.CreateTransactionRequest{
		ID:            req.ID,
		OutletID:      outletID,
		CashierID:     req.CashierID,
		PaymentMethod: req.PaymentMethod,
		CustomerName:  req.CustomerName,
		Discount:      req.Discount,
		CreatedAt:     req.CreatedAt,
		Items:         items,
	})
	if err != nil {
		if isSettlementValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: create transaction: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toTransactionResponse(result.TransactionRecord)

	if result.Replayed {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	if h.hub != nil {
		if payload, err := json.Marshal(resp); err == nil {
			h.hub.BroadcastToOutlet(outletID, ws.Event{Type: "transaction.created", Payload: payload})
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /outlets/{oid}/transactions.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	outletID := chi.URLParam(r, "oid")
	if outletID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	records, err := h.svc.ListTransactions(r.Context(), outletID, int32(limit))
	if err != nil {
		log.Printf("ERROR: list transactions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]transactionResponse, len(records))
	for i, rec := range records {
		resp[i] = toTransactionResponse(rec)
	}

	writeJSON(w, http.StatusOK, transactionListResponse{
		Transactions: resp,
		Limit:        limit,
	})
}

// Void handles PUT /outlets/{oid}/transactions/{id}/void.
func (h *TransactionHandler) Void(w http.ResponseWriter, r *http.Request) {
	outletID := chi.URLParam(r, "oid")
	if outletID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}
	txID := chi.URLParam(r, "id")

	var req voidTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	record, err := h.svc.VoidTransaction(r.Context(), outletID, txID, req.VoidReason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyVoidReason):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrTransactionNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "transaction not found"})
		case errors.Is(err, service.ErrAlreadyVoided):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "transaction is already voided"})
		default:
			log.Printf("ERROR: void transaction: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := toTransactionResponse(*record)

	if h.hub != nil {
		if payload, err := json.Marshal(resp); err == nil {
			h.hub.BroadcastToOutlet(outletID, ws.Event{Type: "transaction.voided", Payload: payload})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

// isSettlementValidationError checks if the error is a known validation
// error from the service layer that should result in 400 Bad Request.
func isSettlementValidationError(err error) bool {
	return errors.Is(err, service.ErrMissingID) ||
		errors.Is(err, service.ErrEmptyItems) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidPaymentMethod) ||
		errors.Is(err, service.ErrInvalidAmount) ||
		errors.Is(err, service.ErrNegativeAmount) ||
		errors.Is(err, service.ErrInvalidCreatedAt)
}

func toTransactionResponse(rec service.TransactionRecord) transactionResponse {
	t := rec.Transaction
	resp := transactionResponse{
		ID:            t.ID,
		Subtotal:      numericToString(t.Subtotal),
		Discount:      numericToString(t.Discount),
		Total:         numericToString(t.Total),
		PaymentMethod: t.PaymentMethod,
		Status:        t.Status,
		CreatedAt:     t.CreatedAt,
		OutletID:      t.OutletID,
		CashierID:     t.CashierID,
	}
	if t.CustomerName.Valid {
		resp.CustomerName = &t.CustomerName.String
	}
	if t.VoidReason.Valid {
		resp.VoidReason = &t.VoidReason.String
	}

	resp.Items = make([]transactionItemResponse, len(rec.Items))
	for i, it := range rec.Items {
		item := transactionItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     numericToString(it.Price),
			CostPrice: numericToString(it.CostPrice),
			Quantity:  it.Quantity,
		}
		if it.Note.Valid {
			item.Note = &it.Note.String
		}
		resp.Items[i] = item
	}
	return resp
}
