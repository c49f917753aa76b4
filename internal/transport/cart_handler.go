package transport

import (
	"net/http"

	"storefront-api/internal/domain"
	"storefront-api/internal/middleware"
	"storefront-api/internal/repository"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReplaceItemsRequest is the PUT /api/carts/{cid} payload.
type ReplaceItemsRequest struct {
	Products []repository.ItemInput `json:"products"`
}

// SetQuantityRequest is the PUT /api/carts/{cid}/products/{pid}
// payload.
type SetQuantityRequest struct {
	Quantity *float64 `json:"quantity" validate:"required"`
}

// CartHandler handles HTTP requests for cart operations.
type CartHandler struct {
	carts  repository.CartRepository
	logger *zap.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(carts repository.CartRepository, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:  carts,
		logger: logger,
	}
}

// RegisterRoutes registers all cart routes.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/carts", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/{cid}", h.Get)
		r.Put("/{cid}", h.ReplaceItems)
		r.Delete("/{cid}", h.Clear)
		r.Post("/{cid}/product/{pid}", h.AddItem)
		r.Put("/{cid}/products/{pid}", h.SetQuantity)
		r.Delete("/{cid}/products/{pid}", h.RemoveItem)
	})
}

// Create handles POST /api/carts.
func (h *CartHandler) Create(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Create(r.Context())
	if err != nil {
		h.logger.Error("Failed to create cart", zap.Error(err))
		middleware.RespondWithRepoError(w, err)
		return
	}

	h.logger.Info("Cart created", zap.String("cart_id", cart.ID.String()))
	middleware.RespondWithPayload(w, http.StatusCreated, cart)
}

// Get handles GET /api/carts/{cid} and returns the cart's line items
// with product references resolved.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.GetByIDWithProducts(r.Context(), domain.ID(chi.URLParam(r, "cid")))
	if err != nil {
		middleware.RespondWithRepoError(w, err)
		return
	}
	middleware.RespondWithPayload(w, http.StatusOK, view.Products)
}

// AddItem handles POST /api/carts/{cid}/product/{pid}.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.AddItem(r.Context(),
		domain.ID(chi.URLParam(r, "cid")),
		domain.ID(chi.URLParam(r, "pid")),
	)
	if err != nil {
		middleware.RespondWithRepoError(w, err)
		return
	}
	middleware.RespondWithPayload(w, http.StatusCreated, cart)
}

// RemoveItem handles DELETE /api/carts/{cid}/products/{pid}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.RemoveItem(r.Context(),
		domain.ID(chi.URLParam(r, "cid")),
		domain.ID(chi.URLParam(r, "pid")),
	)
	if err != nil {
		middleware.RespondWithRepoError(w, err)
		return
	}
	middleware.RespondWithPayload(w, http.StatusOK, cart)
}

// ReplaceItems handles PUT /api/carts/{cid}, swapping the whole
// line-item sequence.
func (h *CartHandler) ReplaceItems(w http.ResponseWriter, r *http.Request) {
	var req ReplaceItemsRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cart, err := h.carts.ReplaceItems(r.Context(), domain.ID(chi.URLParam(r, "cid")), req.Products)
	if err != nil {
		middleware.RespondWithRepoError(w, err)
		return
	}
	middleware.RespondWithPayload(w, http.StatusOK, cart)
}

// SetQuantity handles PUT /api/carts/{cid}/products/{pid}.
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req SetQuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid quantity (must be a number >= 1)")
		return
	}

	cart, err := h.carts.SetQuantity(r.Context(),
		domain.ID(chi.URLParam(r, "cid")),
		domain.ID(chi.URLParam(r, "pid")),
		*req.Quantity,
	)
	if err != nil {
		middleware.RespondWithRepoError(w, err)
		return
	}
	middleware.RespondWithPayload(w, http.StatusOK, cart)
}

// Clear handles DELETE /api/carts/{cid}, emptying the cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Clear(r.Context(), domain.ID(chi.URLParam(r, "cid")))
	if err != nil {
		middleware.RespondWithRepoError(w, err)
		return
	}
	middleware.RespondWithPayload(w, http.StatusOK, cart)
}
