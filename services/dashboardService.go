package services

import (
	"context"
	"time"

	"github.com/b9aurav/marketplace-api-sub000/cache"
	"github.com/b9aurav/marketplace-api-sub000/models"
	"github.com/b9aurav/marketplace-api-sub000/utils"
	"gorm.io/gorm"
)

const (
	dashboardMetricsKey  = "admin:dashboard:metrics"
	dashboardSalesPrefix = "admin:dashboard:sales"
	dashboardPattern     = "admin:dashboard:*"
)

// metricsWindow is the period dashboard growth rates are computed over.
const metricsWindow = 30 * 24 * time.Hour

type DashboardService struct {
	db    *gorm.DB
	cache cache.Store
}

func NewDashboardService(db *gorm.DB, store cache.Store) *DashboardService {
	return &DashboardService{db: db, cache: store}
}

type DashboardMetrics struct {
	TotalUsers       int64   `json:"total_users"`
	TotalProducts    int64   `json:"total_products"`
	TotalOrders      int64   `json:"total_orders"`
	TotalRevenue     float64 `json:"total_revenue"`
	UserGrowth       float64 `json:"user_growth"`
	OrderGrowth      float64 `json:"order_growth"`
	RevenueGrowth    float64 `json:"revenue_growth"`
	ActiveUsers      int64   `json:"active_users"`
	PendingOrders    int64   `json:"pending_orders"`
	LowStockProducts int64   `json:"low_stock_products"`
}

func (s *DashboardService) GetMetrics(ctx context.Context) (*DashboardMetrics, error) {
	var metrics DashboardMetrics
	if cacheRead(ctx, s.cache, dashboardMetricsKey, &metrics) {
		return &metrics, nil
	}

	db := s.db.WithContext(ctx)

	if err := db.Model(&models.User{}).Count(&metrics.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Product{}).Count(&metrics.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).Count(&metrics.TotalOrders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).
		Where("status IN ?", paidOrLaterStatuses).
		Select("COALESCE(SUM(total), 0)").Scan(&metrics.TotalRevenue).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	curFrom := now.Add(-metricsWindow)
	prevFrom := now.Add(-2 * metricsWindow)

	var curUsers, prevUsers int64
	if err := db.Model(&models.User{}).Where("created_at >= ?", curFrom).Count(&curUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", prevFrom, curFrom).Count(&prevUsers).Error; err != nil {
		return nil, err
	}
	metrics.UserGrowth = GrowthRate(float64(curUsers), float64(prevUsers))

	var curOrders, prevOrders int64
	if err := db.Model(&models.Order{}).Where("created_at >= ?", curFrom).Count(&curOrders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).
		Where("created_at >= ? AND created_at < ?", prevFrom, curFrom).Count(&prevOrders).Error; err != nil {
		return nil, err
	}
	metrics.OrderGrowth = GrowthRate(float64(curOrders), float64(prevOrders))

	var curRevenue, prevRevenue float64
	if err := db.Model(&models.Order{}).
		Where("created_at >= ? AND status IN ?", curFrom, paidOrLaterStatuses).
		Select("COALESCE(SUM(total), 0)").Scan(&curRevenue).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).
		Where("created_at >= ? AND created_at < ? AND status IN ?", prevFrom, curFrom, paidOrLaterStatuses).
		Select("COALESCE(SUM(total), 0)").Scan(&prevRevenue).Error; err != nil {
		return nil, err
	}
	metrics.RevenueGrowth = GrowthRate(curRevenue, prevRevenue)

	if err := db.Model(&models.User{}).Where("active = ?", true).Count(&metrics.ActiveUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusPending).Count(&metrics.PendingOrders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Product{}).
		Where("stock > 0 AND stock <= minimum_stock").Count(&metrics.LowStockProducts).Error; err != nil {
		return nil, err
	}

	cacheWrite(ctx, s.cache, dashboardMetricsKey, metrics, analyticsCacheTTL)
	return &metrics, nil
}

type SalesPoint struct {
	Period            string  `json:"period"`
	Revenue           float64 `json:"revenue"`
	Orders            int64   `json:"orders"`
	AverageOrderValue float64 `json:"average_order_value"`
}

type SalesAnalytics struct {
	Trend   []SalesPoint `json:"trend"`
	PeakDay string       `json:"peak_day"`
}

func (s *DashboardService) GetSalesAnalytics(ctx context.Context, q AnalyticsQuery) (*SalesAnalytics, error) {
	if q.Interval == "" {
		q.Interval = IntervalDay
	}
	if !validInterval(q.Interval) {
		return nil, utils.NewValidationError("interval must be one of day, week, month")
	}
	if q.To.Before(q.From) {
		return nil, utils.NewValidationError("date_to must not precede date_from")
	}

	key := cache.AnalyticsKey(dashboardSalesPrefix, q.From, q.To, q.Interval, nil)
	var analytics SalesAnalytics
	if cacheRead(ctx, s.cache, key, &analytics) {
		return &analytics, nil
	}

	var rows []struct {
		CreatedAt time.Time
		Total     float64
	}
	if err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("created_at >= ? AND created_at <= ? AND status IN ?", q.From, q.To, paidOrLaterStatuses).
		Select("created_at, total").Scan(&rows).Error; err != nil {
		return nil, err
	}

	buckets := make(map[string]*SalesPoint)
	for _, row := range rows {
		label := BucketKey(row.CreatedAt, q.Interval)
		point, ok := buckets[label]
		if !ok {
			point = &SalesPoint{Period: label}
			buckets[label] = point
		}
		point.Orders++
		point.Revenue += row.Total
	}

	peakRevenue := -1.0
	for _, label := range sortedBucketKeys(q.From, q.To, q.Interval) {
		point := SalesPoint{Period: label}
		if found, ok := buckets[label]; ok {
			point = *found
			if point.Orders > 0 {
				point.AverageOrderValue = point.Revenue / float64(point.Orders)
			}
		}
		analytics.Trend = append(analytics.Trend, point)
		if point.Revenue > peakRevenue {
			peakRevenue = point.Revenue
			analytics.PeakDay = point.Period
		}
	}

	cacheWrite(ctx, s.cache, key, analytics, analyticsCacheTTL)
	return &analytics, nil
}
