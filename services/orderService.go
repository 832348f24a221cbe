package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/b9aurav/marketplace-api-sub000/cache"
	"github.com/b9aurav/marketplace-api-sub000/models"
	"github.com/b9aurav/marketplace-api-sub000/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	orderListPrefix      = "admin:orders:list"
	orderDetailPrefix    = "admin:orders:detail"
	orderAnalyticsPrefix = "admin:orders:analytics"
)

// orderStatusTransitions is the only set of allowed status moves. Anything
// else is rejected with a validation error.
var orderStatusTransitions = map[string][]string{
	models.OrderStatusPending:    {models.OrderStatusPaid, models.OrderStatusCancelled},
	models.OrderStatusPaid:       {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered},
	models.OrderStatusDelivered:  {},
	models.OrderStatusCancelled:  {},
}

// paidOrLaterStatuses are the revenue-bearing statuses; they double as the
// refundable set.
var paidOrLaterStatuses = []string{
	models.OrderStatusPaid,
	models.OrderStatusProcessing,
	models.OrderStatusShipped,
	models.OrderStatusDelivered,
}

func CanTransitionOrderStatus(from, to string) bool {
	for _, allowed := range orderStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func isRefundableStatus(status string) bool {
	for _, s := range paidOrLaterStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type OrderService struct {
	db      *gorm.DB
	cache   cache.Store
	gateway PaymentGateway
	audit   *AuditService
}

func NewOrderService(db *gorm.DB, store cache.Store, gateway PaymentGateway, audit *AuditService) *OrderService {
	return &OrderService{db: db, cache: store, gateway: gateway, audit: audit}
}

type OrderListFilters struct {
	Search        string
	Status        string
	UserID        int
	PaymentMethod string
	MinTotal      *float64
	MaxTotal      *float64
	DateFrom      *time.Time
	DateTo        *time.Time
	SortBy        string
	SortOrder     string
	Page          int
	Limit         int
}

func (f *OrderListFilters) normalize() {
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

var orderSortColumns = map[string]string{
	"created_at": "orders.created_at",
	"updated_at": "orders.updated_at",
	"total":      "orders.total",
	"status":     "orders.status",
}

func (f OrderListFilters) cacheMap() map[string]string {
	m := map[string]string{
		"search":         f.Search,
		"status":         f.Status,
		"payment_method": f.PaymentMethod,
		"sort_by":        f.SortBy,
		"sort_order":     f.SortOrder,
	}
	if f.UserID > 0 {
		m["user_id"] = strconv.Itoa(f.UserID)
	}
	if f.MinTotal != nil {
		m["min_total"] = strconv.FormatFloat(*f.MinTotal, 'f', -1, 64)
	}
	if f.MaxTotal != nil {
		m["max_total"] = strconv.FormatFloat(*f.MaxTotal, 'f', -1, 64)
	}
	if f.DateFrom != nil {
		m["date_from"] = f.DateFrom.Format(time.RFC3339)
	}
	if f.DateTo != nil {
		m["date_to"] = f.DateTo.Format(time.RFC3339)
	}
	return m
}

type OrderListResult struct {
	Items      []models.Order `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

func (s *OrderService) applyOrderFilters(query *gorm.DB, f OrderListFilters) *gorm.DB {
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		query = query.
			Joins("LEFT JOIN users ON users.id = orders.user_id").
			Where("orders.id LIKE ? OR LOWER(users.email) LIKE ? OR LOWER(orders.tracking_number) LIKE ?", pattern, pattern, pattern)
	}
	if f.Status != "" {
		query = query.Where("orders.status = ?", f.Status)
	}
	if f.UserID > 0 {
		query = query.Where("orders.user_id = ?", f.UserID)
	}
	if f.PaymentMethod != "" {
		query = query.Where("orders.payment_method = ?", f.PaymentMethod)
	}
	if f.MinTotal != nil {
		query = query.Where("orders.total >= ?", *f.MinTotal)
	}
	if f.MaxTotal != nil {
		query = query.Where("orders.total <= ?", *f.MaxTotal)
	}
	if f.DateFrom != nil {
		query = query.Where("orders.created_at >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		query = query.Where("orders.created_at <= ?", *f.DateTo)
	}
	return query
}

func (s *OrderService) ListOrders(ctx context.Context, f OrderListFilters) (*OrderListResult, error) {
	f.normalize()
	key := cache.ListKey(orderListPrefix, f.Page, f.Limit, f.cacheMap())

	var result OrderListResult
	if cacheRead(ctx, s.cache, key, &result) {
		return &result, nil
	}

	query := s.applyOrderFilters(s.db.WithContext(ctx).Model(&models.Order{}), f)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	sortColumn, ok := orderSortColumns[f.SortBy]
	if !ok {
		sortColumn = "orders.created_at"
	}

	var orders []models.Order
	if err := query.
		Preload("User").Preload("Address").Preload("OrderItems").
		Order(sortColumn + " " + f.SortOrder).
		Limit(f.Limit).Offset((f.Page - 1) * f.Limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}

	result = OrderListResult{
		Items:      orders,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: totalPages(total, f.Limit),
	}
	cacheWrite(ctx, s.cache, key, result, listCacheTTL)
	return &result, nil
}

func (s *OrderService) GetOrderDetails(ctx context.Context, id uint) (*models.Order, error) {
	key := cache.DetailKey(orderDetailPrefix, id)

	var order models.Order
	if cacheRead(ctx, s.cache, key, &order) {
		return &order, nil
	}

	err := s.db.WithContext(ctx).
		Preload("User").Preload("Address").Preload("OrderItems").
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	cacheWrite(ctx, s.cache, key, order, detailCacheTTL)
	return &order, nil
}

type UpdateOrderStatusInput struct {
	Status         string `json:"status" binding:"required"`
	AdminNotes     string `json:"admin_notes"`
	TrackingNumber string `json:"tracking_number"`
}

// lockRow adds a FOR UPDATE clause on dialects that support it, so two
// concurrent admin mutations of the same order serialize at the row.
func lockRow(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uint, input UpdateOrderStatusInput, actor Actor) (*models.Order, error) {
	var order models.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRow(tx).First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrNotFound
			}
			return err
		}

		if !CanTransitionOrderStatus(order.Status, input.Status) {
			return utils.NewValidationError(fmt.Sprintf("invalid status transition: %s -> %s", order.Status, input.Status))
		}

		oldStatus := order.Status
		order.Status = input.Status
		if input.AdminNotes != "" {
			order.AdminNotes = appendNote(order.AdminNotes, input.AdminNotes)
		}
		if input.TrackingNumber != "" {
			order.TrackingNumber = input.TrackingNumber
		}
		appendTrackingUpdate(&order, input.Status)

		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		s.audit.Record(ctx, actor, "order.status_update", "order", strconv.Itoa(int(id)),
			fmt.Sprintf("Order status changed from %s to %s", oldStatus, input.Status),
			map[string]any{"old_status": oldStatus, "new_status": input.Status, "tracking_number": input.TrackingNumber},
			true, "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateOrderCaches(ctx, id)
	return &order, nil
}

type ProcessRefundInput struct {
	Amount         float64 `json:"amount" binding:"required,gt=0"`
	Reason         string  `json:"reason" binding:"required"`
	AdminNotes     string  `json:"admin_notes"`
	NotifyCustomer bool    `json:"notify_customer"`
}

func (s *OrderService) ProcessRefund(ctx context.Context, id uint, input ProcessRefundInput, actor Actor) (*RefundResult, error) {
	var order models.Order
	var result *RefundResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRow(tx).Preload("User").First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrNotFound
			}
			return err
		}

		if input.Amount > order.Total {
			return utils.NewValidationError(fmt.Sprintf("refund amount %.2f exceeds order total %.2f", input.Amount, order.Total))
		}
		if !isRefundableStatus(order.Status) {
			return utils.NewValidationError(fmt.Sprintf("order in status %s cannot be refunded", order.Status))
		}

		gatewayResult, err := s.gateway.Refund(ctx, RefundRequest{
			OrderID:       order.ID,
			TransactionID: order.TransactionID,
			Amount:        input.Amount,
			Reason:        input.Reason,
		})
		if err != nil {
			utils.Log.WithError(err).WithField("order_id", order.ID).Error("Payment gateway refund failed")
			s.audit.Record(ctx, actor, "order.refund", "order", strconv.Itoa(int(id)),
				"Refund rejected by payment gateway", map[string]any{"amount": input.Amount}, false, err.Error())
			return utils.NewValidationError("refund could not be processed, please retry")
		}

		note := fmt.Sprintf("Refund of %.2f issued: %s", input.Amount, input.Reason)
		if input.AdminNotes != "" {
			note += " (" + input.AdminNotes + ")"
		}
		order.AdminNotes = appendNote(order.AdminNotes, note)
		if input.Amount == order.Total {
			order.Status = models.OrderStatusCancelled
			appendTrackingUpdate(&order, models.OrderStatusCancelled)
		}

		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		s.audit.Record(ctx, actor, "order.refund", "order", strconv.Itoa(int(id)),
			fmt.Sprintf("Refund of %.2f processed", input.Amount),
			map[string]any{"amount": input.Amount, "reason": input.Reason, "refund_id": gatewayResult.RefundID},
			true, "")

		result = gatewayResult
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateOrderCaches(ctx, id)

	if input.NotifyCustomer && order.User != nil {
		if err := utils.SendRefundEmail(order.User.Email, order.User.Fullname, order.ID, input.Amount); err != nil {
			utils.Log.WithError(err).WithField("order_id", order.ID).Warn("Failed to send refund notification")
		}
	}

	return result, nil
}

type AnalyticsQuery struct {
	From     time.Time
	To       time.Time
	Interval string
	Status   string
}

type TrendPoint struct {
	Period  string  `json:"period"`
	Orders  int64   `json:"orders"`
	Revenue float64 `json:"revenue"`
}

type PaymentMethodStat struct {
	Method  string  `json:"method"`
	Orders  int64   `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// RefundStats is not yet tracked per refund; the provider keeps the ledger.
type RefundStats struct {
	TotalRefunds   int64   `json:"total_refunds"`
	RefundedAmount float64 `json:"refunded_amount"`
}

type OrderGrowth struct {
	OrdersGrowth  float64 `json:"orders_growth"`
	RevenueGrowth float64 `json:"revenue_growth"`
}

type OrderAnalytics struct {
	TotalOrders       int64               `json:"total_orders"`
	TotalRevenue      float64             `json:"total_revenue"`
	AverageOrderValue float64             `json:"average_order_value"`
	OrdersByStatus    map[string]int64    `json:"orders_by_status"`
	RevenueByStatus   map[string]float64  `json:"revenue_by_status"`
	Trend             []TrendPoint        `json:"trend"`
	TopPaymentMethods []PaymentMethodStat `json:"top_payment_methods"`
	RefundStats       RefundStats         `json:"refund_stats"`
	Growth            OrderGrowth         `json:"growth"`
}

func (s *OrderService) analyticsBase(ctx context.Context, q AnalyticsQuery, from, to time.Time) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("created_at >= ? AND created_at <= ?", from, to)
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	return query
}

func (s *OrderService) GetOrderAnalytics(ctx context.Context, q AnalyticsQuery) (*OrderAnalytics, error) {
	if q.Interval == "" {
		q.Interval = IntervalDay
	}
	if !validInterval(q.Interval) {
		return nil, utils.NewValidationError("interval must be one of day, week, month")
	}
	if q.To.Before(q.From) {
		return nil, utils.NewValidationError("date_to must not precede date_from")
	}

	key := cache.AnalyticsKey(orderAnalyticsPrefix, q.From, q.To, q.Interval, map[string]string{"status": q.Status})
	var analytics OrderAnalytics
	if cacheRead(ctx, s.cache, key, &analytics) {
		return &analytics, nil
	}

	if err := s.analyticsBase(ctx, q, q.From, q.To).Count(&analytics.TotalOrders).Error; err != nil {
		return nil, err
	}

	var revenueOrders int64
	if err := s.analyticsBase(ctx, q, q.From, q.To).
		Where("status IN ?", paidOrLaterStatuses).Count(&revenueOrders).Error; err != nil {
		return nil, err
	}
	if err := s.analyticsBase(ctx, q, q.From, q.To).
		Where("status IN ?", paidOrLaterStatuses).
		Select("COALESCE(SUM(total), 0)").Scan(&analytics.TotalRevenue).Error; err != nil {
		return nil, err
	}
	if revenueOrders > 0 {
		analytics.AverageOrderValue = analytics.TotalRevenue / float64(revenueOrders)
	}

	type statusRow struct {
		Status  string
		Count   int64
		Revenue float64
	}
	var statusRows []statusRow
	if err := s.analyticsBase(ctx, q, q.From, q.To).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total), 0) AS revenue").
		Group("status").Scan(&statusRows).Error; err != nil {
		return nil, err
	}
	analytics.OrdersByStatus = make(map[string]int64)
	analytics.RevenueByStatus = make(map[string]float64)
	for _, row := range statusRows {
		analytics.OrdersByStatus[row.Status] = row.Count
		analytics.RevenueByStatus[row.Status] = row.Revenue
	}

	trend, err := s.orderTrend(ctx, q)
	if err != nil {
		return nil, err
	}
	analytics.Trend = trend

	var methodRows []struct {
		PaymentMethod string
		OrderCount    int64
		Revenue       float64
	}
	if err := s.analyticsBase(ctx, q, q.From, q.To).
		Where("payment_method <> ''").
		Select("payment_method, COUNT(*) AS order_count, COALESCE(SUM(total), 0) AS revenue").
		Group("payment_method").
		Order("order_count DESC").
		Limit(5).
		Scan(&methodRows).Error; err != nil {
		return nil, err
	}
	for _, row := range methodRows {
		analytics.TopPaymentMethods = append(analytics.TopPaymentMethods, PaymentMethodStat{
			Method:  row.PaymentMethod,
			Orders:  row.OrderCount,
			Revenue: row.Revenue,
		})
	}

	// Growth against the immediately preceding window of the same length.
	// The previous window excludes its upper bound so an order created
	// exactly at q.From is counted once, in the current window.
	window := q.To.Sub(q.From)
	prevFrom := q.From.Add(-window)
	prevTo := q.From
	prevBase := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.Order{}).
			Where("created_at >= ? AND created_at < ?", prevFrom, prevTo)
		if q.Status != "" {
			query = query.Where("status = ?", q.Status)
		}
		return query
	}

	var prevOrders int64
	if err := prevBase().Count(&prevOrders).Error; err != nil {
		return nil, err
	}
	var prevRevenue float64
	if err := prevBase().
		Where("status IN ?", paidOrLaterStatuses).
		Select("COALESCE(SUM(total), 0)").Scan(&prevRevenue).Error; err != nil {
		return nil, err
	}
	analytics.Growth = OrderGrowth{
		OrdersGrowth:  GrowthRate(float64(analytics.TotalOrders), float64(prevOrders)),
		RevenueGrowth: GrowthRate(analytics.TotalRevenue, prevRevenue),
	}

	cacheWrite(ctx, s.cache, key, analytics, analyticsCacheTTL)
	return &analytics, nil
}

// orderTrend buckets orders in the window by the requested interval. The
// bucketing is done in Go so it behaves the same on every SQL dialect.
func (s *OrderService) orderTrend(ctx context.Context, q AnalyticsQuery) ([]TrendPoint, error) {
	var rows []struct {
		CreatedAt time.Time
		Total     float64
		Status    string
	}
	if err := s.analyticsBase(ctx, q, q.From, q.To).
		Select("created_at, total, status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	buckets := make(map[string]*TrendPoint)
	for _, row := range rows {
		label := BucketKey(row.CreatedAt, q.Interval)
		point, ok := buckets[label]
		if !ok {
			point = &TrendPoint{Period: label}
			buckets[label] = point
		}
		point.Orders++
		if isRefundableStatus(row.Status) {
			point.Revenue += row.Total
		}
	}

	trend := make([]TrendPoint, 0, len(buckets))
	for _, label := range sortedBucketKeys(q.From, q.To, q.Interval) {
		if point, ok := buckets[label]; ok {
			trend = append(trend, *point)
		} else {
			trend = append(trend, TrendPoint{Period: label})
		}
	}
	return trend, nil
}

func (s *OrderService) invalidateOrderCaches(ctx context.Context, id uint) {
	invalidate(ctx, s.cache,
		[]string{cache.DetailKey(orderDetailPrefix, id)},
		[]string{orderListPrefix + ":*", orderAnalyticsPrefix + ":*", dashboardPattern},
	)
}

func appendNote(existing, note string) string {
	stamped := fmt.Sprintf("[%s] %s", time.Now().UTC().Format("2006-01-02 15:04"), note)
	if existing == "" {
		return stamped
	}
	return existing + "\n" + stamped
}

func appendTrackingUpdate(order *models.Order, status string) {
	var info models.TrackingInfo
	if len(order.TrackingInfo) > 0 {
		if err := json.Unmarshal(order.TrackingInfo, &info); err != nil {
			utils.Log.WithError(err).WithField("order_id", order.ID).Warn("Tracking info corrupt, resetting")
			info = models.TrackingInfo{}
		}
	}
	info.Updates = append(info.Updates, models.TrackingUpdate{
		Status:    status,
		Location:  info.Location,
		Timestamp: time.Now().UTC(),
	})
	data, err := json.Marshal(info)
	if err != nil {
		return
	}
	order.TrackingInfo = data
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	return pages
}
