package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront-api/internal/domain"
	"storefront-api/internal/storage/mongostore"
)

type lineItemDoc struct {
	Product  primitive.ObjectID `bson:"product"`
	Quantity int                `bson:"quantity"`
}

type cartDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Products  []lineItemDoc      `bson:"products"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d *cartDoc) toDomain() domain.Cart {
	items := make([]domain.LineItem, 0, len(d.Products))
	for _, it := range d.Products {
		items = append(items, domain.LineItem{Product: domain.ID(it.Product.Hex()), Quantity: it.Quantity})
	}
	return domain.Cart{ID: domain.ID(d.ID.Hex()), Products: items}
}

// MongoCartRepository persists carts as documents owning their line
// items. Read-then-save on a cart document is not transactional, so two
// concurrent mutations of the same cart follow last-write-wins.
type MongoCartRepository struct {
	carts    *mongo.Collection
	products *mongo.Collection
}

// NewMongoCartRepository creates a cart repository over the given
// database. The products collection is only ever read, for existence
// checks and the resolved view.
func NewMongoCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{
		carts:    db.Collection(mongostore.CartsCollection),
		products: db.Collection(mongostore.ProductsCollection),
	}
}

func (r *MongoCartRepository) load(ctx context.Context, cartID domain.ID) (*cartDoc, error) {
	oid, err := parseObjectID(cartID, msgCartNotFound)
	if err != nil {
		return nil, err
	}

	var doc cartDoc
	if err := r.carts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound(msgCartNotFound)
		}
		return nil, domain.Internal("failed to find cart", err)
	}
	return &doc, nil
}

func (r *MongoCartRepository) save(ctx context.Context, doc *cartDoc) (*domain.Cart, error) {
	update := bson.M{"$set": bson.M{"products": doc.Products, "updated_at": time.Now().UTC()}}
	if _, err := r.carts.UpdateOne(ctx, bson.M{"_id": doc.ID}, update); err != nil {
		return nil, domain.Internal("failed to persist cart", err)
	}
	cart := doc.toDomain()
	return &cart, nil
}

// productExists is the read-only referential integrity check against
// the product collection.
func (r *MongoCartRepository) productExists(ctx context.Context, oid primitive.ObjectID) (bool, error) {
	count, err := r.products.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, domain.Internal("failed to check product existence", err)
	}
	return count > 0, nil
}

// Create inserts a new empty cart with a store-generated id.
func (r *MongoCartRepository) Create(ctx context.Context) (*domain.Cart, error) {
	now := time.Now().UTC()
	doc := cartDoc{Products: []lineItemDoc{}, CreatedAt: now, UpdatedAt: now}

	result, err := r.carts.InsertOne(ctx, doc)
	if err != nil {
		return nil, domain.Internal("failed to create cart", err)
	}
	doc.ID = result.InsertedID.(primitive.ObjectID)
	cart := doc.toDomain()
	return &cart, nil
}

// GetByID returns the cart with the given id or a NotFound error.
func (r *MongoCartRepository) GetByID(ctx context.Context, id domain.ID) (*domain.Cart, error) {
	doc, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	cart := doc.toDomain()
	return &cart, nil
}

// GetByIDWithProducts resolves line items against the product collection
// with one batched read. Dangling references resolve to a nil product.
func (r *MongoCartRepository) GetByIDWithProducts(ctx context.Context, id domain.ID) (*domain.CartView, error) {
	doc, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(doc.Products))
	for _, it := range doc.Products {
		ids = append(ids, it.Product)
	}

	resolved := map[primitive.ObjectID]*domain.Product{}
	if len(ids) > 0 {
		cursor, err := r.products.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return nil, domain.Internal("failed to resolve cart products", err)
		}
		defer cursor.Close(ctx)
		for cursor.Next(ctx) {
			var pd productDoc
			if err := cursor.Decode(&pd); err != nil {
				return nil, domain.Internal("failed to decode product", err)
			}
			product := pd.toDomain()
			resolved[pd.ID] = &product
		}
		if err := cursor.Err(); err != nil {
			return nil, domain.Internal("error iterating products", err)
		}
	}

	view := &domain.CartView{ID: domain.ID(doc.ID.Hex()), Products: make([]domain.LineItemView, 0, len(doc.Products))}
	for _, it := range doc.Products {
		view.Products = append(view.Products, domain.LineItemView{Product: resolved[it.Product], Quantity: it.Quantity})
	}
	return view, nil
}

// AddItem appends a quantity-1 line item for the product, or increments
// the existing line item by exactly one. The product must exist.
func (r *MongoCartRepository) AddItem(ctx context.Context, cartID, productID domain.ID) (*domain.Cart, error) {
	doc, err := r.load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	poid, err := parseObjectID(productID, msgProductNotAddable)
	if err != nil {
		return nil, err
	}
	exists, err := r.productExists(ctx, poid)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NotFound(msgProductNotAddable)
	}

	found := false
	for i := range doc.Products {
		if doc.Products[i].Product == poid {
			doc.Products[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		doc.Products = append(doc.Products, lineItemDoc{Product: poid, Quantity: 1})
	}

	return r.save(ctx, doc)
}

// RemoveItem deletes the product's line item from the cart.
func (r *MongoCartRepository) RemoveItem(ctx context.Context, cartID, productID domain.ID) (*domain.Cart, error) {
	doc, err := r.load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	poid, err := parseObjectID(productID, msgItemWasNotInCart)
	if err != nil {
		return nil, err
	}

	kept := doc.Products[:0]
	for _, it := range doc.Products {
		if it.Product != poid {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(doc.Products) {
		return nil, domain.NotFound(msgItemWasNotInCart)
	}
	doc.Products = kept

	return r.save(ctx, doc)
}

// ReplaceItems swaps the whole line-item sequence. Items are validated
// and every referenced product existence-checked in one batched query
// before anything is persisted.
func (r *MongoCartRepository) ReplaceItems(ctx context.Context, cartID domain.ID, items []ItemInput) (*domain.Cart, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(items))
	replaced := make([]lineItemDoc, 0, len(items))
	for _, it := range items {
		poid, err := parseObjectID(it.Product, msgSomeProductsMissing)
		if err != nil {
			return nil, err
		}
		ids = append(ids, poid)
		replaced = append(replaced, lineItemDoc{Product: poid, Quantity: int(it.Quantity)})
	}

	// validateItems guarantees distinct ids, so the count either matches
	// or something is missing.
	if len(ids) > 0 {
		count, err := r.products.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return nil, domain.Internal("failed to check product existence", err)
		}
		if count != int64(len(ids)) {
			return nil, domain.NotFound(msgSomeProductsMissing)
		}
	}

	doc, err := r.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	doc.Products = replaced

	return r.save(ctx, doc)
}

// SetQuantity updates the quantity of one existing line item.
func (r *MongoCartRepository) SetQuantity(ctx context.Context, cartID, productID domain.ID, quantity float64) (*domain.Cart, error) {
	if quantity < 1 || quantity != float64(int(quantity)) {
		return nil, domain.InvalidMsg(msgInvalidQuantity)
	}

	doc, err := r.load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	poid, err := parseObjectID(productID, msgItemNotInCart)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range doc.Products {
		if doc.Products[i].Product == poid {
			doc.Products[i].Quantity = int(quantity)
			found = true
			break
		}
	}
	if !found {
		return nil, domain.NotFound(msgItemNotInCart)
	}

	return r.save(ctx, doc)
}

// Clear empties the cart's line items; the cart document survives.
func (r *MongoCartRepository) Clear(ctx context.Context, cartID domain.ID) (*domain.Cart, error) {
	doc, err := r.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	doc.Products = []lineItemDoc{}
	return r.save(ctx, doc)
}
