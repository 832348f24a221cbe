package services

import (
	"context"
	"testing"

	"github.com/b9aurav/marketplace-api-sub000/cache"
	"github.com/b9aurav/marketplace-api-sub000/models"
	"github.com/b9aurav/marketplace-api-sub000/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newProductService(t *testing.T) (*ProductService, *gorm.DB, *cache.MemoryStore) {
	t.Helper()
	db := newTestDB(t)
	store := cache.NewMemoryStore()
	svc := NewProductService(db, store, NewAuditService(db))
	return svc, db, store
}

func TestCreateProduct(t *testing.T) {
	svc, db, _ := newProductService(t)
	ctx := context.Background()
	category := seedCategory(t, db, "electronics")

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:       "Widget",
		Price:      19.99,
		Stock:      10,
		SKU:        "WID-1",
		CategoryID: category.ID,
	}, testActor())
	require.NoError(t, err)

	// Unset status defaults to draft; counters start at zero.
	assert.Equal(t, models.ProductStatusDraft, product.Status)
	assert.Zero(t, product.SalesCount)
	assert.Zero(t, product.Rating)
	assert.EqualValues(t, 1, auditCount(t, db, "product.create"))
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	svc, db, _ := newProductService(t)
	ctx := context.Background()
	category := seedCategory(t, db, "electronics")
	seedProduct(t, db, "WID-1", category.ID, models.ProductStatusActive, 10, 5, 1)

	_, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:       "Widget Clone",
		Price:      9.99,
		SKU:        "WID-1",
		CategoryID: category.ID,
	}, testActor())

	var conflictErr *utils.ConflictError
	assert.ErrorAs(t, err, &conflictErr)
}

func TestCreateProductUnknownCategory(t *testing.T) {
	svc, _, _ := newProductService(t)

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:       "Widget",
		Price:      9.99,
		SKU:        "WID-2",
		CategoryID: 404,
	}, testActor())

	var validationErr *utils.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestUpdateProduct(t *testing.T) {
	svc, db, _ := newProductService(t)
	ctx := context.Background()
	category := seedCategory(t, db, "electronics")
	product := seedProduct(t, db, "WID-1", category.ID, models.ProductStatusDraft, 10, 5, 1)

	newPrice := 25.0
	newStatus := models.ProductStatusActive
	updated, err := svc.UpdateProduct(ctx, product.ID, UpdateProductInput{
		Price:  &newPrice,
		Status: &newStatus,
	}, testActor())
	require.NoError(t, err)

	assert.Equal(t, 25.0, updated.Price)
	assert.Equal(t, models.ProductStatusActive, updated.Status)
	// Untouched fields survive a partial update.
	assert.Equal(t, "WID-1", updated.SKU)
	assert.Equal(t, 5, updated.Stock)
}

func TestUpdateProductSKUConflict(t *testing.T) {
	svc, db, _ := newProductService(t)
	ctx := context.Background()
	category := seedCategory(t, db, "electronics")
	seedProduct(t, db, "WID-1", category.ID, models.ProductStatusActive, 10, 5, 1)
	second := seedProduct(t, db, "WID-2", category.ID, models.ProductStatusActive, 10, 5, 1)

	taken := "WID-1"
	_, err := svc.UpdateProduct(ctx, second.ID, UpdateProductInput{SKU: &taken}, testActor())

	var conflictErr *utils.ConflictError
	assert.ErrorAs(t, err, &conflictErr)
}

func TestDeleteProductIsSoft(t *testing.T) {
	svc, db, _ := newProductService(t)
	ctx := context.Background()
	category := seedCategory(t, db, "electronics")
	product := seedProduct(t, db, "WID-1", category.ID, models.ProductStatusActive, 10, 5, 1)

	require.NoError(t, svc.DeleteProduct(ctx, product.ID, testActor()))

	// The row stays; only the status flips.
	var stored models.Product
	require.NoError(t, db.First(&stored, product.ID).Error)
	assert.Equal(t, models.ProductStatusInactive, stored.Status)
}

func TestDeleteProductNotFound(t *testing.T) {
	svc, _, _ := newProductService(t)
	err := svc.DeleteProduct(context.Background(), 9999, testActor())
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestBulkAction(t *testing.T) {
	svc, db, _ := newProductService(t)
	ctx := context.Background()
	category := seedCategory(t, db, "electronics")
	first := seedProduct(t, db, "WID-1", category.ID, models.ProductStatusDraft, 10, 5, 1)
	second := seedProduct(t, db, "WID-2", category.ID, models.ProductStatusDraft, 10, 5, 1)

	affected, err := svc.BulkAction(ctx, BulkActionInput{
		IDs:    []uint{first.ID, second.ID},
		Action: BulkActionActivate,
	}, testActor())
	require.NoError(t, err)
	assert.EqualValues(t, 2, affected)

	var activeCount int64
	require.NoError(t, db.Model(&models.Product{}).
		Where("status = ?", models.ProductStatusActive).Count(&activeCount).Error)
	assert.EqualValues(t, 2, activeCount)
}

func TestBulkActionAllOrNothing(t *testing.T) {
	svc, db, _ := newProductService(t)
	ctx := context.Background()
	category := seedCategory(t, db, "electronics")
	product := seedProduct(t, db, "WID-1", category.ID, models.ProductStatusDraft, 10, 5, 1)

	// One unknown id fails the whole batch before any row changes.
	_, err := svc.BulkAction(ctx, BulkActionInput{
		IDs:    []uint{product.ID, 9999},
		Action: BulkActionActivate,
	}, testActor())

	var validationErr *utils.ValidationError
	require.ErrorAs(t, err, &validationErr)

	var stored models.Product
	require.NoError(t, db.First(&stored, product.ID).Error)
	assert.Equal(t, models.ProductStatusDraft, stored.Status)
}

func TestBulkActionUnknownAction(t *testing.T) {
	svc, db, _ := newProductService(t)
	category := seedCategory(t, db, "electronics")
	product := seedProduct(t, db, "WID-1", category.ID, models.ProductStatusDraft, 10, 5, 1)

	_, err := svc.BulkAction(context.Background(), BulkActionInput{
		IDs:    []uint{product.ID},
		Action: "explode",
	}, testActor())

	var validationErr *utils.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestLowStock(t *testing.T) {
	assert.False(t, models.Product{Stock: 10, MinimumStock: 5}.LowStock())
	assert.True(t, models.Product{Stock: 5, MinimumStock: 5}.LowStock())
	assert.True(t, models.Product{Stock: 1, MinimumStock: 5}.LowStock())
	// Sold out is out-of-stock, not low stock.
	assert.False(t, models.Product{Stock: 0, MinimumStock: 5}.LowStock())
}

func TestGetProductAnalytics(t *testing.T) {
	svc, db, _ := newProductService(t)
	ctx := context.Background()
	electronics := seedCategory(t, db, "electronics")
	clothing := seedCategory(t, db, "clothing")

	seedProduct(t, db, "A-1", electronics.ID, models.ProductStatusActive, 50, 10, 2)
	seedProduct(t, db, "A-2", electronics.ID, models.ProductStatusActive, 250, 3, 5) // low stock
	seedProduct(t, db, "B-1", clothing.ID, models.ProductStatusInactive, 750, 0, 1)  // out of stock
	seedProduct(t, db, "B-2", clothing.ID, models.ProductStatusDraft, 1500, 1, 0)

	analytics, err := svc.GetProductAnalytics(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 4, analytics.TotalProducts)
	assert.EqualValues(t, 2, analytics.ActiveProducts)
	assert.EqualValues(t, 1, analytics.InactiveProducts)
	assert.EqualValues(t, 1, analytics.DraftProducts)
	assert.EqualValues(t, 1, analytics.LowStockProducts)
	assert.EqualValues(t, 1, analytics.OutOfStock)
	assert.Equal(t, 50.0*10+250*3+750*0+1500*1, analytics.InventoryValue)

	buckets := make(map[string]int64)
	for _, bucket := range analytics.PriceBuckets {
		buckets[bucket.Label] = bucket.Count
	}
	assert.EqualValues(t, 1, buckets["<100"])
	assert.EqualValues(t, 1, buckets["100-500"])
	assert.EqualValues(t, 1, buckets["500-1000"])
	assert.EqualValues(t, 1, buckets[">=1000"])

	categories := make(map[string]int64)
	for _, row := range analytics.ByCategory {
		categories[row.Category] = row.Count
	}
	assert.EqualValues(t, 2, categories["electronics"])
	assert.EqualValues(t, 2, categories["clothing"])
}

func TestListProductsFilters(t *testing.T) {
	svc, db, _ := newProductService(t)
	ctx := context.Background()
	category := seedCategory(t, db, "electronics")
	seedProduct(t, db, "CHEAP-1", category.ID, models.ProductStatusActive, 20, 5, 1)
	seedProduct(t, db, "DEAR-1", category.ID, models.ProductStatusActive, 900, 5, 1)
	seedProduct(t, db, "DRAFT-1", category.ID, models.ProductStatusDraft, 40, 5, 1)

	byStatus, err := svc.ListProducts(ctx, ProductListFilters{Status: models.ProductStatusActive})
	require.NoError(t, err)
	assert.EqualValues(t, 2, byStatus.Total)

	minPrice := 100.0
	byPrice, err := svc.ListProducts(ctx, ProductListFilters{MinPrice: &minPrice})
	require.NoError(t, err)
	assert.EqualValues(t, 1, byPrice.Total)

	bySearch, err := svc.ListProducts(ctx, ProductListFilters{Search: "cheap"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, bySearch.Total)
}

func TestProductMutationInvalidatesCaches(t *testing.T) {
	svc, db, store := newProductService(t)
	ctx := context.Background()
	category := seedCategory(t, db, "electronics")
	product := seedProduct(t, db, "WID-1", category.ID, models.ProductStatusActive, 10, 5, 1)

	_, err := svc.GetProductDetails(ctx, product.ID)
	require.NoError(t, err)
	_, hit, err := store.Get(ctx, cache.DetailKey("admin:products:detail", product.ID))
	require.NoError(t, err)
	require.True(t, hit)

	newPrice := 12.0
	_, err = svc.UpdateProduct(ctx, product.ID, UpdateProductInput{Price: &newPrice}, testActor())
	require.NoError(t, err)

	_, hit, err = store.Get(ctx, cache.DetailKey("admin:products:detail", product.ID))
	require.NoError(t, err)
	assert.False(t, hit)

	details, err := svc.GetProductDetails(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 12.0, details.Price)
}
