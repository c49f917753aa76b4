package transport

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"storefront-api/internal/domain"
	"storefront-api/internal/middleware"
	"storefront-api/internal/repository"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies; payloads here are small JSON
// documents.
const maxBodyBytes = 1 << 20

// ProductNotifier is invoked after any product mutation to push the
// refreshed list to realtime observers. A nil notifier disables the
// fan-out.
type ProductNotifier interface {
	PublishProducts(ctx context.Context)
}

// ProductHandler handles HTTP requests for product operations.
type ProductHandler struct {
	products repository.ProductRepository
	notifier ProductNotifier
	logger   *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(products repository.ProductRepository, notifier ProductNotifier, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		notifier: notifier,
		logger:   logger,
	}
}

// RegisterRoutes registers all product routes.
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{pid}", h.Get)
		r.Put("/{pid}", h.Update)
		r.Delete("/{pid}", h.Delete)
	})
}

func (h *ProductHandler) notify(ctx context.Context) {
	if h.notifier != nil {
		h.notifier.PublishProducts(ctx)
	}
}

// productPageResponse is the paginated listing body, metadata at the
// top level next to the payload.
type productPageResponse struct {
	Status      string           `json:"status"`
	Payload     []domain.Product `json:"payload"`
	TotalPages  int              `json:"totalPages"`
	PrevPage    *int             `json:"prevPage"`
	NextPage    *int             `json:"nextPage"`
	Page        int              `json:"page"`
	HasPrevPage bool             `json:"hasPrevPage"`
	HasNextPage bool             `json:"hasNextPage"`
	PrevLink    *string          `json:"prevLink"`
	NextLink    *string          `json:"nextLink"`
}

// buildPageLink rebuilds the request URL with the page parameter swapped
// out, for the prev/next navigation links.
func buildPageLink(r *http.Request, page int) string {
	u := *r.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + u.String()
}

func parseListParams(r *http.Request) repository.ListParams {
	q := r.URL.Query()

	params := repository.ListParams{
		Sort:     repository.SortOrder(q.Get("sort")),
		Query:    q.Get("query"),
		Category: q.Get("category"),
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		params.Limit = limit
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		params.Page = page
	}
	if s := q.Get("status"); s != "" {
		status := s == "true"
		params.Status = &status
	}
	return params
}

// List handles GET /api/products with pagination, sorting and the
// query filter grammar.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.products.ListPage(r.Context(), parseListParams(r))
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithRepoError(w, err)
		return
	}

	resp := productPageResponse{
		Status:      "success",
		Payload:     page.Items,
		TotalPages:  page.TotalPages,
		PrevPage:    page.PrevPage,
		NextPage:    page.NextPage,
		Page:        page.Page,
		HasPrevPage: page.HasPrevPage,
		HasNextPage: page.HasNextPage,
	}
	if page.PrevPage != nil {
		link := buildPageLink(r, *page.PrevPage)
		resp.PrevLink = &link
	}
	if page.NextPage != nil {
		link := buildPageLink(r, *page.NextPage)
		resp.NextLink = &link
	}

	middleware.RespondWithJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/products/{pid}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetByID(r.Context(), domain.ID(chi.URLParam(r, "pid")))
	if err != nil {
		middleware.RespondWithRepoError(w, err)
		return
	}
	middleware.RespondWithPayload(w, http.StatusOK, product)
}

// Create handles POST /api/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := domain.DecodeProductInput(body)
	if err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))
		middleware.RespondWithRepoError(w, err)
		return
	}

	created, err := h.products.Create(r.Context(), in)
	if err != nil {
		middleware.RespondWithRepoError(w, err)
		return
	}

	h.logger.Info("Product created", zap.String("product_id", created.ID.String()), zap.String("code", created.Code))
	h.notify(r.Context())
	middleware.RespondWithPayload(w, http.StatusCreated, created)
}

// Update handles PUT /api/products/{pid}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch, err := domain.DecodeProductPatch(body)
	if err != nil {
		middleware.RespondWithRepoError(w, err)
		return
	}

	updated, err := h.products.Update(r.Context(), domain.ID(chi.URLParam(r, "pid")), patch)
	if err != nil {
		middleware.RespondWithRepoError(w, err)
		return
	}

	h.notify(r.Context())
	middleware.RespondWithPayload(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/products/{pid} and returns the deleted
// record.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.products.Delete(r.Context(), domain.ID(chi.URLParam(r, "pid")))
	if err != nil {
		middleware.RespondWithRepoError(w, err)
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", deleted.ID.String()))
	h.notify(r.Context())
	middleware.RespondWithPayload(w, http.StatusOK, deleted)
}
