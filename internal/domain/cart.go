package domain

// LineItem is a {product reference, quantity} pair inside a cart. The
// product field is a non-owning reference; deleting the product does not
// cascade into carts.
type LineItem struct {
	Product  ID  `json:"product"`
	Quantity int `json:"quantity"`
}

// Cart is an ordered list of line items, at most one per distinct
// product. Quantities are always >= 1; removal deletes the line item
// rather than zeroing it.
type Cart struct {
	ID       ID         `json:"id"`
	Products []LineItem `json:"products"`
}

// LineItemView is a line item with its product reference resolved. The
// product is nil when it points at an id that no longer exists.
type LineItemView struct {
	Product  *Product `json:"product"`
	Quantity int      `json:"quantity"`
}

// CartView is the product-resolved form of a cart, used for
// presentation.
type CartView struct {
	ID       ID             `json:"id"`
	Products []LineItemView `json:"products"`
}

// FindItem returns the index of the line item referencing productID, or
// -1 when the cart has none.
func (c *Cart) FindItem(productID ID) int {
	for i, it := range c.Products {
		if it.Product == productID {
			return i
		}
	}
	return -1
}
