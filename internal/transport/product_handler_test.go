package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront-api/internal/domain"
	"storefront-api/internal/repository"
)

type countingNotifier struct {
	calls int
}

func (n *countingNotifier) PublishProducts(ctx context.Context) { n.calls++ }

func newTestRouter(t *testing.T, notifier ProductNotifier) *chi.Mux {
	t.Helper()
	dir := t.TempDir()
	products := repository.NewFileProductRepository(filepath.Join(dir, "products.json"))
	carts := repository.NewFileCartRepository(filepath.Join(dir, "carts.json"), products)

	logger := zap.NewNop()
	r := chi.NewRouter()
	NewProductHandler(products, notifier, logger).RegisterRoutes(r)
	NewCartHandler(carts, logger).RegisterRoutes(r)
	return r
}

type envelope struct {
	Status  string          `json:"status"`
	Payload json.RawMessage `json:"payload"`
	Message string          `json:"message"`
}

func doJSON(t *testing.T, router http.Handler, method, path string, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s returned invalid JSON: %v\nbody: %s", method, path, err, w.Body.String())
	}
	return w, env
}

const validProductBody = `{
	"title": "Keyboard",
	"description": "Mechanical keyboard",
	"code": "KB-001",
	"price": 79.9,
	"status": true,
	"stock": 12,
	"category": "peripherals",
	"thumbnails": ["kb.png"]
}`

func createProduct(t *testing.T, router http.Handler, body string) domain.Product {
	t.Helper()
	w, env := doJSON(t, router, "POST", "/api/products", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("product create failed with %d: %s", w.Code, w.Body.String())
	}
	var product domain.Product
	if err := json.Unmarshal(env.Payload, &product); err != nil {
		t.Fatalf("invalid product payload: %v", err)
	}
	return product
}

func TestCreateProduct(t *testing.T) {
	router := newTestRouter(t, nil)

	w, env := doJSON(t, router, "POST", "/api/products", validProductBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if env.Status != "success" {
		t.Fatalf("expected success envelope, got %+v", env)
	}

	var product domain.Product
	if err := json.Unmarshal(env.Payload, &product); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if product.ID == "" || product.Code != "KB-001" {
		t.Fatalf("unexpected created product: %+v", product)
	}
}

func TestCreateProductNamesAllInvalidFields(t *testing.T) {
	router := newTestRouter(t, nil)

	w, env := doJSON(t, router, "POST", "/api/products", `{"title": 42, "price": "free"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if env.Status != "error" {
		t.Fatalf("expected error envelope, got %+v", env)
	}
	for _, field := range []string{"title", "description", "code", "price", "status", "stock", "category"} {
		if !strings.Contains(env.Message, field) {
			t.Fatalf("message must name %q, got %q", field, env.Message)
		}
	}
}

func TestCreateProductDuplicateCode(t *testing.T) {
	router := newTestRouter(t, nil)
	createProduct(t, router, validProductBody)

	w, env := doJSON(t, router, "POST", "/api/products", validProductBody)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if !strings.Contains(env.Message, "code") {
		t.Fatalf("conflict message must mention the code field, got %q", env.Message)
	}
}

func TestGetProductNotFound(t *testing.T) {
	router := newTestRouter(t, nil)

	w, env := doJSON(t, router, "GET", "/api/products/999", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if env.Message != "product not found" {
		t.Fatalf("unexpected message %q", env.Message)
	}
}

func TestUpdateProductIgnoresBodyID(t *testing.T) {
	router := newTestRouter(t, nil)
	created := createProduct(t, router, validProductBody)

	w, env := doJSON(t, router, "PUT", "/api/products/"+created.ID.String(), `{"id": "999", "price": 10}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var updated domain.Product
	if err := json.Unmarshal(env.Payload, &updated); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("id changed through the request body: %q -> %q", created.ID, updated.ID)
	}
	if updated.Price != 10 {
		t.Fatalf("price not updated, got %v", updated.Price)
	}
}

func TestDeleteProduct(t *testing.T) {
	router := newTestRouter(t, nil)
	created := createProduct(t, router, validProductBody)

	w, env := doJSON(t, router, "DELETE", "/api/products/"+created.ID.String(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var deleted domain.Product
	if err := json.Unmarshal(env.Payload, &deleted); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if deleted.ID != created.ID {
		t.Fatalf("delete returned wrong record: %+v", deleted)
	}

	w, _ = doJSON(t, router, "DELETE", "/api/products/"+created.ID.String(), "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("re-delete must be 404, got %d", w.Code)
	}
}

func TestListProductsPagination(t *testing.T) {
	router := newTestRouter(t, nil)
	for i := 0; i < 25; i++ {
		body := strings.Replace(validProductBody, "KB-001", "KB-"+string(rune('A'+i/10))+string(rune('0'+i%10)), 1)
		createProduct(t, router, body)
	}

	req := httptest.NewRequest("GET", "/api/products?limit=10&page=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Status      string           `json:"status"`
		Payload     []domain.Product `json:"payload"`
		TotalPages  int              `json:"totalPages"`
		Page        int              `json:"page"`
		HasPrevPage bool             `json:"hasPrevPage"`
		HasNextPage bool             `json:"hasNextPage"`
		PrevLink    *string          `json:"prevLink"`
		NextLink    *string          `json:"nextLink"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}

	if resp.Status != "success" || len(resp.Payload) != 10 {
		t.Fatalf("unexpected page: status=%q items=%d", resp.Status, len(resp.Payload))
	}
	if resp.TotalPages != 3 || resp.Page != 2 {
		t.Fatalf("unexpected metadata: totalPages=%d page=%d", resp.TotalPages, resp.Page)
	}
	if !resp.HasPrevPage || !resp.HasNextPage {
		t.Fatal("middle page must have both neighbors")
	}
	if resp.PrevLink == nil || !strings.Contains(*resp.PrevLink, "page=1") {
		t.Fatalf("bad prevLink: %v", resp.PrevLink)
	}
	if resp.NextLink == nil || !strings.Contains(*resp.NextLink, "page=3") {
		t.Fatalf("bad nextLink: %v", resp.NextLink)
	}
}

func TestProductMutationsNotify(t *testing.T) {
	notifier := &countingNotifier{}
	router := newTestRouter(t, notifier)

	created := createProduct(t, router, validProductBody)
	if notifier.calls != 1 {
		t.Fatalf("create must notify once, got %d", notifier.calls)
	}

	doJSON(t, router, "PUT", "/api/products/"+created.ID.String(), `{"price": 5}`)
	if notifier.calls != 2 {
		t.Fatalf("update must notify, got %d calls", notifier.calls)
	}

	doJSON(t, router, "DELETE", "/api/products/"+created.ID.String(), "")
	if notifier.calls != 3 {
		t.Fatalf("delete must notify, got %d calls", notifier.calls)
	}

	doJSON(t, router, "GET", "/api/products/999", "")
	if notifier.calls != 3 {
		t.Fatalf("failed reads must not notify, got %d calls", notifier.calls)
	}
}
