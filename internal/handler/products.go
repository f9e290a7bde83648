package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/angkringan-pos/api/internal/database"
	"github.com/angkringan-pos/api/internal/enum"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ProductStore defines the database methods needed by product handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ProductStore interface {
	ListProductsByOutlet(ctx context.Context, outletID string) ([]database.Product, error)
	GetProduct(ctx context.Context, arg database.GetProductParams) (database.Product, error)
	CreateProduct(ctx context.Context, arg database.CreateProductParams) (database.Product, error)
	UpdateProduct(ctx context.Context, arg database.UpdateProductParams) (database.Product, error)
}

// ProductHandler handles catalog endpoints.
type ProductHandler struct {
	store ProductStore
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(store ProductStore) *ProductHandler {
	return &ProductHandler{store: store}
}

// RegisterRoutes registers catalog endpoints on the given Chi router.
// Expected to be mounted inside an outlet-scoped subrouter: /outlets/{oid}/products
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
}

// --- Request / Response types ---

type productRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	CostPrice string `json:"cost_price"`
	Category  string `json:"category"`
	IsActive  *bool  `json:"is_active"`
}

type productResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	CostPrice string `json:"cost_price"`
	Category  string `json:"category"`
	IsActive  bool   `json:"is_active"`
	OutletID  string `json:"outlet_id"`
}

func toProductResponse(p database.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     numericToString(p.Price),
		CostPrice: numericToString(p.CostPrice),
		Category:  p.Category,
		IsActive:  p.IsActive,
		OutletID:  p.OutletID,
	}
}

// --- Helpers ---

func isValidCategory(s string) bool {
	switch s {
	case enum.CategoryBeverage, enum.CategoryFood, enum.CategorySkewer, enum.CategoryOther:
		return true
	}
	return false
}

var errNegativePrice = errors.New("negative price")

func parsePrice(s string) (pgtype.Numeric, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	if d.IsNegative() {
		return pgtype.Numeric{}, errNegativePrice
	}
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}

// validateProductRequest checks the shared create/update fields and
// parses the money columns.
func validateProductRequest(w http.ResponseWriter, req productRequest) (price, costPrice pgtype.Numeric, ok bool) {
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return price, costPrice, false
	}
	if !isValidCategory(req.Category) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category"})
		return price, costPrice, false
	}

	var err error
	price, err = parsePrice(req.Price)
	if err != nil {
		if errors.Is(err, errNegativePrice) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be >= 0"})
		} else {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		}
		return price, costPrice, false
	}
	costPrice, err = parsePrice(req.CostPrice)
	if err != nil {
		if errors.Is(err, errNegativePrice) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cost_price must be >= 0"})
		} else {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cost_price"})
		}
		return price, costPrice, false
	}
	return price, costPrice, true
}

// --- Handlers ---

// List returns the full catalog for the outlet, inactive rows included;
// order entry filters client-side so history can still show retired items.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	outletID := chi.URLParam(r, "oid")
	if outletID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	products, err := h.store.ListProductsByOutlet(r.Context(), outletID)
	if err != nil {
		log.Printf("ERROR: list products: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = toProductResponse(p)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single product by ID.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	outletID := chi.URLParam(r, "oid")
	prodID := chi.URLParam(r, "id")

	product, err := h.store.GetProduct(r.Context(), database.GetProductParams{
		ID:       prodID,
		OutletID: outletID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		log.Printf("ERROR: get product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// Create adds a new product to the catalog. Clients may supply their
// own id; one is minted otherwise.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	outletID := chi.URLParam(r, "oid")
	if outletID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	price, costPrice, ok := validateProductRequest(w, req)
	if !ok {
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	product, err := h.store.CreateProduct(r.Context(), database.CreateProductParams{
		ID:        id,
		Name:      req.Name,
		Price:     price,
		CostPrice: costPrice,
		Category:  req.Category,
		IsActive:  isActive,
		OutletID:  outletID,
	})
	if err != nil {
		log.Printf("ERROR: create product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

// Update modifies an existing product. Historical transaction items are
// unaffected: they carry their own price/cost snapshots.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	outletID := chi.URLParam(r, "oid")
	prodID := chi.URLParam(r, "id")

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	price, costPrice, ok := validateProductRequest(w, req)
	if !ok {
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	product, err := h.store.UpdateProduct(r.Context(), database.UpdateProductParams{
		Name:      req.Name,
		Price:     price,
		CostPrice: costPrice,
		Category:  req.Category,
		IsActive:  isActive,
		ID:        prodID,
		OutletID:  outletID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		log.Printf("ERROR: update product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(product))
}
