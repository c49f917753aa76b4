package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-api/internal/domain"
	"storefront-api/internal/storage/mongostore"
)

// productDoc is the stored shape of a product. Ids are store-generated
// ObjectIDs and timestamps are managed here on insert and update.
type productDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Code        string             `bson:"code"`
	Price       float64            `bson:"price"`
	Status      bool               `bson:"status"`
	Stock       float64            `bson:"stock"`
	Category    string             `bson:"category"`
	Thumbnails  []string           `bson:"thumbnails"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d *productDoc) toDomain() domain.Product {
	thumbnails := d.Thumbnails
	if thumbnails == nil {
		thumbnails = []string{}
	}
	created, updated := d.CreatedAt, d.UpdatedAt
	return domain.Product{
		ID:          domain.ID(d.ID.Hex()),
		Title:       d.Title,
		Description: d.Description,
		Code:        d.Code,
		Price:       d.Price,
		Status:      d.Status,
		Stock:       d.Stock,
		Category:    d.Category,
		Thumbnails:  thumbnails,
		CreatedAt:   &created,
		UpdatedAt:   &updated,
	}
}

// MongoProductRepository persists products as individually addressable
// documents. Code uniqueness is backed by the unique index created in
// mongostore.EnsureIndexes.
type MongoProductRepository struct {
	collection *mongo.Collection
}

// NewMongoProductRepository creates a product repository over the given
// database.
func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{collection: db.Collection(mongostore.ProductsCollection)}
}

// parseObjectID coerces an opaque id back into an ObjectID. Ids that
// cannot be store-generated keys name no document, so they resolve to
// not found rather than an error of their own.
func parseObjectID(id domain.ID, notFoundMsg string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return primitive.NilObjectID, domain.NotFound(notFoundMsg)
	}
	return oid, nil
}

// List returns the whole product collection as detached copies.
func (r *MongoProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, domain.Internal("failed to list products", err)
	}
	return decodeProducts(ctx, cursor)
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]domain.Product, error) {
	defer cursor.Close(ctx)

	products := []domain.Product{}
	for cursor.Next(ctx) {
		var doc productDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, domain.Internal("failed to decode product", err)
		}
		products = append(products, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, domain.Internal("error iterating products", err)
	}
	return products, nil
}

func mongoFilter(f Filter) bson.M {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	if f.InStockOnly {
		filter["stock"] = bson.M{"$gt": 0}
	}
	return filter
}

// ListPage pushes the filter, sort and bounds down to the store and
// wraps the slice in pagination metadata.
func (r *MongoProductRepository) ListPage(ctx context.Context, params ListParams) (*Page, error) {
	params.Normalize()
	filter := mongoFilter(params.Filter())

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, domain.Internal("failed to count products", err)
	}

	opts := options.Find().
		SetSkip(int64((params.Page - 1) * params.Limit)).
		SetLimit(int64(params.Limit))
	switch params.Sort {
	case SortOrderAsc:
		opts.SetSort(bson.D{{Key: "price", Value: 1}})
	case SortOrderDesc:
		opts.SetSort(bson.D{{Key: "price", Value: -1}})
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, domain.Internal("failed to list products", err)
	}
	items, err := decodeProducts(ctx, cursor)
	if err != nil {
		return nil, err
	}
	return NewPage(items, total, params), nil
}

// GetByID returns the product with the given id or a NotFound error.
func (r *MongoProductRepository) GetByID(ctx context.Context, id domain.ID) (*domain.Product, error) {
	oid, err := parseObjectID(id, msgProductNotFound)
	if err != nil {
		return nil, err
	}

	var doc productDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound(msgProductNotFound)
		}
		return nil, domain.Internal("failed to find product", err)
	}
	product := doc.toDomain()
	return &product, nil
}

// Create inserts a validated product with store-managed id and
// timestamps. The duplicate-key path covers the race the pre-insert
// existence check leaves open.
func (r *MongoProductRepository) Create(ctx context.Context, in *domain.ProductInput) (*domain.Product, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"code": in.Code})
	if err != nil {
		return nil, domain.Internal("failed to check product code", err)
	}
	if count > 0 {
		return nil, domain.Conflict(msgCodeConflict)
	}

	now := time.Now().UTC()
	doc := productDoc{
		Title:       in.Title,
		Description: in.Description,
		Code:        in.Code,
		Price:       in.Price,
		Status:      in.Status,
		Stock:       in.Stock,
		Category:    in.Category,
		Thumbnails:  in.Thumbnails,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.Conflict(msgCodeConflict)
		}
		return nil, domain.Internal("failed to create product", err)
	}

	doc.ID = result.InsertedID.(primitive.ObjectID)
	product := doc.toDomain()
	return &product, nil
}

// Update applies a shallow merge of the patch and returns the merged
// document.
func (r *MongoProductRepository) Update(ctx context.Context, id domain.ID, patch *domain.ProductPatch) (*domain.Product, error) {
	oid, err := parseObjectID(id, msgProductNotFound)
	if err != nil {
		return nil, err
	}

	if patch.Code != nil {
		count, err := r.collection.CountDocuments(ctx, bson.M{"code": *patch.Code, "_id": bson.M{"$ne": oid}})
		if err != nil {
			return nil, domain.Internal("failed to check product code", err)
		}
		if count > 0 {
			return nil, domain.Conflict(msgCodeConflict)
		}
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Code != nil {
		set["code"] = *patch.Code
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.Stock != nil {
		set["stock"] = *patch.Stock
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Thumbnails != nil {
		set["thumbnails"] = *patch.Thumbnails
	}

	var doc productDoc
	err = r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound(msgProductNotFound)
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.Conflict(msgCodeConflict)
		}
		return nil, domain.Internal("failed to update product", err)
	}
	product := doc.toDomain()
	return &product, nil
}

// Delete removes the product and returns the deleted record.
func (r *MongoProductRepository) Delete(ctx context.Context, id domain.ID) (*domain.Product, error) {
	oid, err := parseObjectID(id, msgProductNotFound)
	if err != nil {
		return nil, err
	}

	var doc productDoc
	if err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound(msgProductNotFound)
		}
		return nil, domain.Internal("failed to delete product", err)
	}
	product := doc.toDomain()
	return &product, nil
}
