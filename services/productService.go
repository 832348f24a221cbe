package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/b9aurav/marketplace-api-sub000/cache"
	"github.com/b9aurav/marketplace-api-sub000/models"
	"github.com/b9aurav/marketplace-api-sub000/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	productListPrefix      = "admin:products:list"
	productDetailPrefix    = "admin:products:detail"
	productAnalyticsPrefix = "admin:products:analytics"
)

const (
	BulkActionActivate   = "activate"
	BulkActionDeactivate = "deactivate"
	BulkActionDelete     = "delete"
	BulkActionFeature    = "feature"
	BulkActionUnfeature  = "unfeature"
)

type ProductService struct {
	db    *gorm.DB
	cache cache.Store
	audit *AuditService
}

func NewProductService(db *gorm.DB, store cache.Store, audit *AuditService) *ProductService {
	return &ProductService{db: db, cache: store, audit: audit}
}

type ProductListFilters struct {
	Search     string
	Status     string
	CategoryID int
	Featured   *bool
	MinPrice   *float64
	MaxPrice   *float64
	SortBy     string
	SortOrder  string
	Page       int
	Limit      int
}

func (f *ProductListFilters) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.SortOrder != "asc" && f.SortOrder != "desc" {
		f.SortOrder = "desc"
	}
}

var productSortColumns = map[string]string{
	"created_at":  "created_at",
	"price":       "price",
	"stock":       "stock",
	"sales_count": "sales_count",
	"rating":      "rating",
	"name":        "name",
}

func (f ProductListFilters) cacheMap() map[string]string {
	m := map[string]string{
		"search":     f.Search,
		"status":     f.Status,
		"sort_by":    f.SortBy,
		"sort_order": f.SortOrder,
	}
	if f.CategoryID > 0 {
		m["category_id"] = strconv.Itoa(f.CategoryID)
	}
	if f.Featured != nil {
		m["featured"] = strconv.FormatBool(*f.Featured)
	}
	if f.MinPrice != nil {
		m["min_price"] = strconv.FormatFloat(*f.MinPrice, 'f', -1, 64)
	}
	if f.MaxPrice != nil {
		m["max_price"] = strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64)
	}
	return m
}

type ProductListResult struct {
	Items      []models.Product `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}

func (s *ProductService) applyProductFilters(query *gorm.DB, f ProductListFilters) *gorm.DB {
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", pattern, pattern)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.CategoryID > 0 {
		query = query.Where("category_id = ?", f.CategoryID)
	}
	if f.Featured != nil {
		query = query.Where("featured = ?", *f.Featured)
	}
	if f.MinPrice != nil {
		query = query.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query = query.Where("price <= ?", *f.MaxPrice)
	}
	return query
}

func (s *ProductService) ListProducts(ctx context.Context, f ProductListFilters) (*ProductListResult, error) {
	f.normalize()
	key := cache.ListKey(productListPrefix, f.Page, f.Limit, f.cacheMap())

	var result ProductListResult
	if cacheRead(ctx, s.cache, key, &result) {
		return &result, nil
	}

	query := s.applyProductFilters(s.db.WithContext(ctx).Model(&models.Product{}), f)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	sortColumn, ok := productSortColumns[f.SortBy]
	if !ok {
		sortColumn = "created_at"
	}

	var products []models.Product
	if err := query.
		Preload("Images").
		Order(sortColumn + " " + f.SortOrder).
		Limit(f.Limit).Offset((f.Page - 1) * f.Limit).
		Find(&products).Error; err != nil {
		return nil, err
	}

	result = ProductListResult{
		Items:      products,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: totalPages(total, f.Limit),
	}
	cacheWrite(ctx, s.cache, key, result, listCacheTTL)
	return &result, nil
}

func (s *ProductService) GetProductDetails(ctx context.Context, id uint) (*models.Product, error) {
	key := cache.DetailKey(productDetailPrefix, id)

	var product models.Product
	if cacheRead(ctx, s.cache, key, &product) {
		return &product, nil
	}

	err := s.db.WithContext(ctx).Preload("Images").First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	cacheWrite(ctx, s.cache, key, product, detailCacheTTL)
	return &product, nil
}

type CreateProductInput struct {
	Name         string         `json:"name" binding:"required"`
	Description  string         `json:"description"`
	Price        float64        `json:"price" binding:"required,gte=0"`
	Stock        int            `json:"stock" binding:"gte=0"`
	MinimumStock int            `json:"minimum_stock" binding:"gte=0"`
	Status       string         `json:"status"`
	Featured     bool           `json:"featured"`
	Tags         datatypes.JSON `json:"tags"`
	SKU          string         `json:"sku" binding:"required"`
	CategoryID   uint           `json:"category_id" binding:"required"`
}

func (s *ProductService) skuTaken(ctx context.Context, sku string, excludeID uint) (bool, error) {
	var count int64
	query := s.db.WithContext(ctx).Model(&models.Product{}).Where("sku = ?", sku)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *ProductService) categoryExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput, actor Actor) (*models.Product, error) {
	taken, err := s.skuTaken(ctx, input.SKU, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, utils.NewConflictError(fmt.Sprintf("product with SKU %s already exists", input.SKU))
	}

	exists, err := s.categoryExists(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, utils.NewValidationError(fmt.Sprintf("category %d does not exist", input.CategoryID))
	}

	status := input.Status
	if status == "" {
		status = models.ProductStatusDraft
	}

	product := models.Product{
		Name:         input.Name,
		Description:  input.Description,
		Price:        input.Price,
		Stock:        input.Stock,
		MinimumStock: input.MinimumStock,
		Status:       status,
		Featured:     input.Featured,
		Tags:         input.Tags,
		SKU:          input.SKU,
		CategoryID:   input.CategoryID,
		SalesCount:   0,
		Rating:       0,
	}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, "product.create", "product", strconv.Itoa(int(product.ID)),
		"Product created: "+product.Name, map[string]any{"sku": product.SKU}, true, "")
	s.invalidateProductCaches(ctx, product.ID)
	return &product, nil
}

type UpdateProductInput struct {
	Name         *string         `json:"name"`
	Description  *string         `json:"description"`
	Price        *float64        `json:"price" binding:"omitempty,gte=0"`
	Stock        *int            `json:"stock" binding:"omitempty,gte=0"`
	MinimumStock *int            `json:"minimum_stock" binding:"omitempty,gte=0"`
	Status       *string         `json:"status"`
	Featured     *bool           `json:"featured"`
	Tags         *datatypes.JSON `json:"tags"`
	SKU          *string         `json:"sku"`
	CategoryID   *uint           `json:"category_id"`
}

func (s *ProductService) UpdateProduct(ctx context.Context, id uint, input UpdateProductInput, actor Actor) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}

	if input.SKU != nil && *input.SKU != product.SKU {
		taken, err := s.skuTaken(ctx, *input.SKU, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, utils.NewConflictError(fmt.Sprintf("product with SKU %s already exists", *input.SKU))
		}
		product.SKU = *input.SKU
	}
	if input.CategoryID != nil && *input.CategoryID != product.CategoryID {
		exists, err := s.categoryExists(ctx, *input.CategoryID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, utils.NewValidationError(fmt.Sprintf("category %d does not exist", *input.CategoryID))
		}
		product.CategoryID = *input.CategoryID
	}
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.MinimumStock != nil {
		product.MinimumStock = *input.MinimumStock
	}
	if input.Status != nil {
		product.Status = *input.Status
	}
	if input.Featured != nil {
		product.Featured = *input.Featured
	}
	if input.Tags != nil {
		product.Tags = *input.Tags
	}

	if err := s.db.WithContext(ctx).Save(&product).Error; err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, "product.update", "product", strconv.Itoa(int(id)),
		"Product updated: "+product.Name, nil, true, "")
	s.invalidateProductCaches(ctx, id)
	return &product, nil
}

// DeleteProduct soft-deletes: the row stays, only its status flips to
// inactive so historical order items keep a resolvable reference.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint, actor Actor) error {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrNotFound
		}
		return err
	}

	if err := s.db.WithContext(ctx).Model(&product).Update("status", models.ProductStatusInactive).Error; err != nil {
		return err
	}

	s.audit.Record(ctx, actor, "product.delete", "product", strconv.Itoa(int(id)),
		"Product deactivated: "+product.Name, nil, true, "")
	s.invalidateProductCaches(ctx, id)
	return nil
}

type BulkActionInput struct {
	IDs    []uint `json:"ids" binding:"required,min=1"`
	Action string `json:"action" binding:"required"`
}

// BulkAction applies one action to a set of products. The id check is
// all-or-nothing: a single unknown id fails the whole request before any row
// is touched.
func (s *ProductService) BulkAction(ctx context.Context, input BulkActionInput, actor Actor) (int64, error) {
	updates := map[string]any{}
	switch input.Action {
	case BulkActionActivate:
		updates["status"] = models.ProductStatusActive
	case BulkActionDeactivate, BulkActionDelete:
		updates["status"] = models.ProductStatusInactive
	case BulkActionFeature:
		updates["featured"] = true
	case BulkActionUnfeature:
		updates["featured"] = false
	default:
		return 0, utils.NewValidationError("unknown bulk action: " + input.Action)
	}

	var affected int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Product{}).Where("id IN ?", input.IDs).Count(&count).Error; err != nil {
			return err
		}
		if count != int64(len(input.IDs)) {
			return utils.NewValidationError("one or more products do not exist")
		}

		result := tx.Model(&models.Product{}).Where("id IN ?", input.IDs).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.audit.Record(ctx, actor, "product.bulk_"+input.Action, "product", fmt.Sprintf("%v", input.IDs),
		fmt.Sprintf("Bulk %s applied to %d products", input.Action, affected),
		map[string]any{"ids": input.IDs}, true, "")
	invalidate(ctx, s.cache, nil, []string{productListPrefix + ":*", productDetailPrefix + ":*", productAnalyticsPrefix, dashboardPattern})
	return affected, nil
}

type CategoryDistribution struct {
	Category   string  `json:"category"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type PriceBucket struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type ProductAnalytics struct {
	TotalProducts    int64                  `json:"total_products"`
	ActiveProducts   int64                  `json:"active_products"`
	InactiveProducts int64                  `json:"inactive_products"`
	DraftProducts    int64                  `json:"draft_products"`
	FeaturedProducts int64                  `json:"featured_products"`
	LowStockProducts int64                  `json:"low_stock_products"`
	OutOfStock       int64                  `json:"out_of_stock_products"`
	InventoryValue   float64                `json:"inventory_value"`
	AveragePrice     float64                `json:"average_price"`
	TopSelling       []models.Product       `json:"top_selling"`
	ByCategory       []CategoryDistribution `json:"by_category"`
	PriceBuckets     []PriceBucket          `json:"price_buckets"`
}

func (s *ProductService) GetProductAnalytics(ctx context.Context) (*ProductAnalytics, error) {
	key := productAnalyticsPrefix
	var analytics ProductAnalytics
	if cacheRead(ctx, s.cache, key, &analytics) {
		return &analytics, nil
	}

	counts := []struct {
		dest *int64
		cond func(*gorm.DB) *gorm.DB
	}{
		{&analytics.TotalProducts, func(q *gorm.DB) *gorm.DB { return q }},
		{&analytics.ActiveProducts, func(q *gorm.DB) *gorm.DB { return q.Where("status = ?", models.ProductStatusActive) }},
		{&analytics.InactiveProducts, func(q *gorm.DB) *gorm.DB { return q.Where("status = ?", models.ProductStatusInactive) }},
		{&analytics.DraftProducts, func(q *gorm.DB) *gorm.DB { return q.Where("status = ?", models.ProductStatusDraft) }},
		{&analytics.FeaturedProducts, func(q *gorm.DB) *gorm.DB { return q.Where("featured = ?", true) }},
		{&analytics.LowStockProducts, func(q *gorm.DB) *gorm.DB { return q.Where("stock > 0 AND stock <= minimum_stock") }},
		{&analytics.OutOfStock, func(q *gorm.DB) *gorm.DB { return q.Where("stock = 0") }},
	}
	for _, c := range counts {
		if err := c.cond(s.db.WithContext(ctx).Model(&models.Product{})).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Model(&models.Product{}).
		Select("COALESCE(SUM(price * stock), 0)").Scan(&analytics.InventoryValue).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Product{}).
		Select("COALESCE(AVG(price), 0)").Scan(&analytics.AveragePrice).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Order("sales_count DESC").Limit(10).Find(&analytics.TopSelling).Error; err != nil {
		return nil, err
	}

	var categoryRows []struct {
		Category string
		Count    int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Product{}).
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Select("COALESCE(categories.name, 'uncategorized') AS category, COUNT(*) AS count").
		Group("categories.name").Scan(&categoryRows).Error; err != nil {
		return nil, err
	}
	for _, row := range categoryRows {
		pct := 0.0
		if analytics.TotalProducts > 0 {
			pct = float64(row.Count) / float64(analytics.TotalProducts) * 100
		}
		analytics.ByCategory = append(analytics.ByCategory, CategoryDistribution{
			Category:   row.Category,
			Count:      row.Count,
			Percentage: pct,
		})
	}

	priceRanges := []struct {
		label string
		cond  string
		args  []any
	}{
		{"<100", "price < ?", []any{100.0}},
		{"100-500", "price >= ? AND price < ?", []any{100.0, 500.0}},
		{"500-1000", "price >= ? AND price < ?", []any{500.0, 1000.0}},
		{">=1000", "price >= ?", []any{1000.0}},
	}
	for _, r := range priceRanges {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Product{}).
			Where(r.cond, r.args...).Count(&count).Error; err != nil {
			return nil, err
		}
		analytics.PriceBuckets = append(analytics.PriceBuckets, PriceBucket{Label: r.label, Count: count})
	}

	cacheWrite(ctx, s.cache, key, analytics, analyticsCacheTTL)
	return &analytics, nil
}

func (s *ProductService) invalidateProductCaches(ctx context.Context, id uint) {
	invalidate(ctx, s.cache,
		[]string{cache.DetailKey(productDetailPrefix, id), productAnalyticsPrefix},
		[]string{productListPrefix + ":*", dashboardPattern},
	)
}
