package repository

import (
	"context"
	"sort"
	"strconv"

	"storefront-api/internal/domain"
	"storefront-api/internal/storage/jsonfile"
)

// FileProductRepository persists products as a single JSON array file.
// Every operation re-reads the backing file, so nothing is cached
// between requests.
type FileProductRepository struct {
	collection *jsonfile.Collection[domain.Product]
}

// NewFileProductRepository creates a product repository over the given
// collection file.
func NewFileProductRepository(path string) *FileProductRepository {
	return &FileProductRepository{
		collection: jsonfile.NewCollection[domain.Product](path),
	}
}

// sameID compares identifiers the way the file backend mints them:
// numerically when both sides parse as numbers, by string otherwise.
func sameID(a, b domain.ID) bool {
	if a == b {
		return true
	}
	na, errA := strconv.ParseFloat(string(a), 64)
	nb, errB := strconv.ParseFloat(string(b), 64)
	return errA == nil && errB == nil && na == nb
}

func (r *FileProductRepository) readAll() ([]domain.Product, error) {
	products, err := r.collection.Read()
	if err != nil {
		return nil, domain.Internal("failed to load products", err)
	}
	return products, nil
}

func (r *FileProductRepository) writeAll(products []domain.Product) error {
	if err := r.collection.Write(products); err != nil {
		return domain.Internal("failed to persist products", err)
	}
	return nil
}

// List returns the whole product collection.
func (r *FileProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	return r.readAll()
}

// ListPage filters, sorts and slices the collection in memory, mirroring
// what the document-store backend pushes down to the database.
func (r *FileProductRepository) ListPage(ctx context.Context, params ListParams) (*Page, error) {
	params.Normalize()

	products, err := r.readAll()
	if err != nil {
		return nil, err
	}

	filter := params.Filter()
	matched := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if filter.Matches(p) {
			matched = append(matched, p)
		}
	}

	switch params.Sort {
	case SortOrderAsc:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price < matched[j].Price })
	case SortOrderDesc:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price > matched[j].Price })
	}

	offset := (params.Page - 1) * params.Limit
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + params.Limit
	if end > len(matched) {
		end = len(matched)
	}

	return NewPage(matched[offset:end], int64(len(matched)), params), nil
}

// GetByID returns the product with the given id or a NotFound error.
func (r *FileProductRepository) GetByID(ctx context.Context, id domain.ID) (*domain.Product, error) {
	products, err := r.readAll()
	if err != nil {
		return nil, err
	}
	for i := range products {
		if sameID(products[i].ID, id) {
			return &products[i], nil
		}
	}
	return nil, domain.NotFound(msgProductNotFound)
}

// Create persists a validated product, enforcing code uniqueness against
// the full collection and allocating the next numeric id.
func (r *FileProductRepository) Create(ctx context.Context, in *domain.ProductInput) (*domain.Product, error) {
	products, err := r.readAll()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(products))
	for _, p := range products {
		if p.Code == in.Code {
			return nil, domain.Conflict(msgCodeConflict)
		}
		ids = append(ids, string(p.ID))
	}

	product := domain.Product{
		ID:          domain.ID(jsonfile.NextID(ids)),
		Title:       in.Title,
		Description: in.Description,
		Code:        in.Code,
		Price:       in.Price,
		Status:      in.Status,
		Stock:       in.Stock,
		Category:    in.Category,
		Thumbnails:  in.Thumbnails,
	}

	products = append(products, product)
	if err := r.writeAll(products); err != nil {
		return nil, err
	}
	return &product, nil
}

// Update shallow-merges the patch into the stored record. Changing the
// code to one held by a different product is a conflict; re-submitting
// the product's own code is fine.
func (r *FileProductRepository) Update(ctx context.Context, id domain.ID, patch *domain.ProductPatch) (*domain.Product, error) {
	products, err := r.readAll()
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range products {
		if sameID(products[i].ID, id) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, domain.NotFound(msgProductNotFound)
	}

	if patch.Code != nil {
		for i := range products {
			if i != idx && products[i].Code == *patch.Code {
				return nil, domain.Conflict(msgCodeConflict)
			}
		}
	}

	patch.Apply(&products[idx])
	if err := r.writeAll(products); err != nil {
		return nil, err
	}
	return &products[idx], nil
}

// Delete removes the product and returns the deleted record. Cart line
// items referencing it are left alone.
func (r *FileProductRepository) Delete(ctx context.Context, id domain.ID) (*domain.Product, error) {
	products, err := r.readAll()
	if err != nil {
		return nil, err
	}

	for i := range products {
		if sameID(products[i].ID, id) {
			deleted := products[i]
			products = append(products[:i], products[i+1:]...)
			if err := r.writeAll(products); err != nil {
				return nil, err
			}
			return &deleted, nil
		}
	}
	return nil, domain.NotFound(msgProductNotFound)
}
