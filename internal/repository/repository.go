// Package repository holds the product and cart persistence contracts
// and their file-backed and document-store implementations.
package repository

import (
	"context"

	"storefront-api/internal/domain"
)

// ProductRepository defines the interface for product data access.
// Lookups for unknown ids return a NotFound domain error rather than a
// nil record.
type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	ListPage(ctx context.Context, params ListParams) (*Page, error)
	GetByID(ctx context.Context, id domain.ID) (*domain.Product, error)
	Create(ctx context.Context, in *domain.ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id domain.ID, patch *domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id domain.ID) (*domain.Product, error)
}

// CartRepository defines the interface for cart data access. Item
// mutations validate everything before persisting anything; a failed
// call leaves the cart untouched.
type CartRepository interface {
	Create(ctx context.Context) (*domain.Cart, error)
	GetByID(ctx context.Context, id domain.ID) (*domain.Cart, error)
	GetByIDWithProducts(ctx context.Context, id domain.ID) (*domain.CartView, error)
	AddItem(ctx context.Context, cartID, productID domain.ID) (*domain.Cart, error)
	RemoveItem(ctx context.Context, cartID, productID domain.ID) (*domain.Cart, error)
	ReplaceItems(ctx context.Context, cartID domain.ID, items []ItemInput) (*domain.Cart, error)
	SetQuantity(ctx context.Context, cartID, productID domain.ID, quantity float64) (*domain.Cart, error)
	Clear(ctx context.Context, cartID domain.ID) (*domain.Cart, error)
}

// ItemInput is one entry of a full line-item replacement.
type ItemInput struct {
	Product  domain.ID `json:"product"`
	Quantity float64   `json:"quantity"`
}

// Failure messages shared by both backends so handlers and tests can
// rely on one wording per condition.
const (
	msgProductNotFound      = "product not found"
	msgCodeConflict         = `the "code" field already exists on another product`
	msgCartNotFound         = "cart not found"
	msgProductNotAddable    = "product not found (cannot add to cart)"
	msgItemNotInCart        = "product is not in the cart"
	msgItemWasNotInCart     = "product was not in the cart"
	msgItemsArrayRequired   = `a "products" array is required`
	msgItemProductRequired  = `each item requires a "product" id`
	msgItemQuantityRequired = `each item requires a "quantity" >= 1`
	msgSomeProductsMissing  = "one or more products do not exist"
	msgInvalidQuantity      = "invalid quantity (must be a number >= 1)"
)

// validateItems checks a replacement payload before anything touches
// storage. A cart holds at most one line item per product, so a repeated
// product id fails the same way a missing one does.
func validateItems(items []ItemInput) error {
	if items == nil {
		return domain.InvalidMsg(msgItemsArrayRequired)
	}
	seen := make(map[domain.ID]struct{}, len(items))
	for _, it := range items {
		if it.Product.IsZero() {
			return domain.InvalidMsg(msgItemProductRequired)
		}
		if it.Quantity < 1 {
			return domain.InvalidMsg(msgItemQuantityRequired)
		}
		if it.Quantity != float64(int(it.Quantity)) {
			return domain.InvalidMsg(msgInvalidQuantity)
		}
		if _, dup := seen[it.Product]; dup {
			return domain.NotFound(msgSomeProductsMissing)
		}
		seen[it.Product] = struct{}{}
	}
	return nil
}
