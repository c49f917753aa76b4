package repository

import (
	"context"

	"storefront-api/internal/domain"
	"storefront-api/internal/storage/jsonfile"
)

// FileCartRepository persists carts as a single JSON array file. It
// holds the product repository as a read-only dependency for the
// referential integrity checks; nothing ever calls back the other way.
type FileCartRepository struct {
	collection *jsonfile.Collection[domain.Cart]
	products   ProductRepository
}

// NewFileCartRepository creates a cart repository over the given
// collection file.
func NewFileCartRepository(path string, products ProductRepository) *FileCartRepository {
	return &FileCartRepository{
		collection: jsonfile.NewCollection[domain.Cart](path),
		products:   products,
	}
}

func (r *FileCartRepository) readAll() ([]domain.Cart, error) {
	carts, err := r.collection.Read()
	if err != nil {
		return nil, domain.Internal("failed to load carts", err)
	}
	return carts, nil
}

func (r *FileCartRepository) writeAll(carts []domain.Cart) error {
	if err := r.collection.Write(carts); err != nil {
		return domain.Internal("failed to persist carts", err)
	}
	return nil
}

func findCart(carts []domain.Cart, id domain.ID) int {
	for i := range carts {
		if sameID(carts[i].ID, id) {
			return i
		}
	}
	return -1
}

// Create persists a new empty cart.
func (r *FileCartRepository) Create(ctx context.Context) (*domain.Cart, error) {
	carts, err := r.readAll()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(carts))
	for _, c := range carts {
		ids = append(ids, string(c.ID))
	}

	cart := domain.Cart{
		ID:       domain.ID(jsonfile.NextID(ids)),
		Products: []domain.LineItem{},
	}
	carts = append(carts, cart)
	if err := r.writeAll(carts); err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetByID returns the cart with the given id or a NotFound error.
func (r *FileCartRepository) GetByID(ctx context.Context, id domain.ID) (*domain.Cart, error) {
	carts, err := r.readAll()
	if err != nil {
		return nil, err
	}
	idx := findCart(carts, id)
	if idx == -1 {
		return nil, domain.NotFound(msgCartNotFound)
	}
	return &carts[idx], nil
}

// GetByIDWithProducts resolves each line item's product reference to the
// full record. Dangling references resolve to a nil product; a product
// deleted after being added to a cart is an accepted condition.
func (r *FileCartRepository) GetByIDWithProducts(ctx context.Context, id domain.ID) (*domain.CartView, error) {
	cart, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &domain.CartView{ID: cart.ID, Products: make([]domain.LineItemView, 0, len(cart.Products))}
	for _, item := range cart.Products {
		product, err := r.products.GetByID(ctx, item.Product)
		if err != nil {
			if domain.KindOf(err) != domain.KindNotFound {
				return nil, err
			}
			product = nil
		}
		view.Products = append(view.Products, domain.LineItemView{Product: product, Quantity: item.Quantity})
	}
	return view, nil
}

// AddItem appends a quantity-1 line item for the product, or increments
// the existing line item by exactly one. The product must exist.
func (r *FileCartRepository) AddItem(ctx context.Context, cartID, productID domain.ID) (*domain.Cart, error) {
	carts, err := r.readAll()
	if err != nil {
		return nil, err
	}

	idx := findCart(carts, cartID)
	if idx == -1 {
		return nil, domain.NotFound(msgCartNotFound)
	}

	product, err := r.products.GetByID(ctx, productID)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return nil, domain.NotFound(msgProductNotAddable)
		}
		return nil, err
	}

	cart := &carts[idx]
	if i := cart.FindItem(product.ID); i >= 0 {
		cart.Products[i].Quantity++
	} else {
		cart.Products = append(cart.Products, domain.LineItem{Product: product.ID, Quantity: 1})
	}

	if err := r.writeAll(carts); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem deletes the product's line item from the cart.
func (r *FileCartRepository) RemoveItem(ctx context.Context, cartID, productID domain.ID) (*domain.Cart, error) {
	carts, err := r.readAll()
	if err != nil {
		return nil, err
	}

	idx := findCart(carts, cartID)
	if idx == -1 {
		return nil, domain.NotFound(msgCartNotFound)
	}

	cart := &carts[idx]
	i := cart.FindItem(productID)
	if i == -1 {
		return nil, domain.NotFound(msgItemWasNotInCart)
	}
	cart.Products = append(cart.Products[:i], cart.Products[i+1:]...)

	if err := r.writeAll(carts); err != nil {
		return nil, err
	}
	return cart, nil
}

// ReplaceItems swaps the whole line-item sequence. Every item is
// validated and every referenced product checked for existence before
// anything is persisted.
func (r *FileCartRepository) ReplaceItems(ctx context.Context, cartID domain.ID, items []ItemInput) (*domain.Cart, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	for _, it := range items {
		if _, err := r.products.GetByID(ctx, it.Product); err != nil {
			if domain.KindOf(err) == domain.KindNotFound {
				return nil, domain.NotFound(msgSomeProductsMissing)
			}
			return nil, err
		}
	}

	carts, err := r.readAll()
	if err != nil {
		return nil, err
	}
	idx := findCart(carts, cartID)
	if idx == -1 {
		return nil, domain.NotFound(msgCartNotFound)
	}

	replaced := make([]domain.LineItem, 0, len(items))
	for _, it := range items {
		replaced = append(replaced, domain.LineItem{Product: it.Product, Quantity: int(it.Quantity)})
	}
	carts[idx].Products = replaced

	if err := r.writeAll(carts); err != nil {
		return nil, err
	}
	return &carts[idx], nil
}

// SetQuantity updates the quantity of one existing line item.
func (r *FileCartRepository) SetQuantity(ctx context.Context, cartID, productID domain.ID, quantity float64) (*domain.Cart, error) {
	if quantity < 1 || quantity != float64(int(quantity)) {
		return nil, domain.InvalidMsg(msgInvalidQuantity)
	}

	carts, err := r.readAll()
	if err != nil {
		return nil, err
	}
	idx := findCart(carts, cartID)
	if idx == -1 {
		return nil, domain.NotFound(msgCartNotFound)
	}

	cart := &carts[idx]
	i := cart.FindItem(productID)
	if i == -1 {
		return nil, domain.NotFound(msgItemNotInCart)
	}
	cart.Products[i].Quantity = int(quantity)

	if err := r.writeAll(carts); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear empties the cart's line items; the cart itself survives.
func (r *FileCartRepository) Clear(ctx context.Context, cartID domain.ID) (*domain.Cart, error) {
	carts, err := r.readAll()
	if err != nil {
		return nil, err
	}
	idx := findCart(carts, cartID)
	if idx == -1 {
		return nil, domain.NotFound(msgCartNotFound)
	}

	carts[idx].Products = []domain.LineItem{}
	if err := r.writeAll(carts); err != nil {
		return nil, err
	}
	return &carts[idx], nil
}
