package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/b9aurav/marketplace-api-sub000/cache"
	"github.com/b9aurav/marketplace-api-sub000/models"
	"github.com/b9aurav/marketplace-api-sub000/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newOrderService(t *testing.T) (*OrderService, *gorm.DB, *cache.MemoryStore, *stubGateway) {
	t.Helper()
	db := newTestDB(t)
	store := cache.NewMemoryStore()
	gateway := &stubGateway{}
	svc := NewOrderService(db, store, gateway, NewAuditService(db))
	return svc, db, store, gateway
}

func TestCanTransitionOrderStatus(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{models.OrderStatusPending, models.OrderStatusPaid, true},
		{models.OrderStatusPending, models.OrderStatusCancelled, true},
		{models.OrderStatusPending, models.OrderStatusShipped, false},
		{models.OrderStatusPaid, models.OrderStatusProcessing, true},
		{models.OrderStatusPaid, models.OrderStatusDelivered, false},
		{models.OrderStatusProcessing, models.OrderStatusShipped, true},
		{models.OrderStatusShipped, models.OrderStatusDelivered, true},
		{models.OrderStatusShipped, models.OrderStatusCancelled, false},
		{models.OrderStatusDelivered, models.OrderStatusCancelled, false},
		{models.OrderStatusCancelled, models.OrderStatusPending, false},
		{models.OrderStatusDelivered, models.OrderStatusDelivered, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransitionOrderStatus(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	svc, db, _, _ := newOrderService(t)
	ctx := context.Background()
	user := seedUser(t, db, "buyer@example.com", true)
	order := seedOrder(t, db, int(user.ID), models.OrderStatusPending, 150)

	updated, err := svc.UpdateOrderStatus(ctx, order.ID, UpdateOrderStatusInput{
		Status:         models.OrderStatusPaid,
		AdminNotes:     "payment confirmed",
		TrackingNumber: "TRK-1",
	}, testActor())
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPaid, updated.Status)
	assert.Equal(t, "TRK-1", updated.TrackingNumber)
	assert.Contains(t, updated.AdminNotes, "payment confirmed")
	assert.NotEmpty(t, updated.TrackingInfo)
	assert.EqualValues(t, 1, auditCount(t, db, "order.status_update"))
}

func TestUpdateOrderStatusRejectsInvalidTransition(t *testing.T) {
	svc, db, _, _ := newOrderService(t)
	ctx := context.Background()
	user := seedUser(t, db, "buyer@example.com", true)
	order := seedOrder(t, db, int(user.ID), models.OrderStatusPending, 150)

	_, err := svc.UpdateOrderStatus(ctx, order.ID, UpdateOrderStatusInput{Status: models.OrderStatusShipped}, testActor())

	var validationErr *utils.ValidationError
	require.ErrorAs(t, err, &validationErr)

	// The stored status must be untouched.
	var stored models.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
}

func TestUpdateOrderStatusNotFound(t *testing.T) {
	svc, _, _, _ := newOrderService(t)
	_, err := svc.UpdateOrderStatus(context.Background(), 9999, UpdateOrderStatusInput{Status: models.OrderStatusPaid}, testActor())
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestUpdateOrderStatusInvalidatesDetailCache(t *testing.T) {
	svc, db, store, _ := newOrderService(t)
	ctx := context.Background()
	user := seedUser(t, db, "buyer@example.com", true)
	order := seedOrder(t, db, int(user.ID), models.OrderStatusPending, 80)

	_, err := svc.GetOrderDetails(ctx, order.ID)
	require.NoError(t, err)
	_, hit, err := store.Get(ctx, cache.DetailKey("admin:orders:detail", order.ID))
	require.NoError(t, err)
	require.True(t, hit)

	_, err = svc.UpdateOrderStatus(ctx, order.ID, UpdateOrderStatusInput{Status: models.OrderStatusPaid}, testActor())
	require.NoError(t, err)

	_, hit, err = store.Get(ctx, cache.DetailKey("admin:orders:detail", order.ID))
	require.NoError(t, err)
	assert.False(t, hit)

	details, err := svc.GetOrderDetails(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, details.Status)
}

func TestListOrdersServesFromCache(t *testing.T) {
	svc, db, _, _ := newOrderService(t)
	ctx := context.Background()
	user := seedUser(t, db, "buyer@example.com", true)
	seedOrder(t, db, int(user.ID), models.OrderStatusPaid, 50)

	first, err := svc.ListOrders(ctx, OrderListFilters{})
	require.NoError(t, err)
	require.Len(t, first.Items, 1)

	// A row inserted behind the cache must not show up until invalidation.
	seedOrder(t, db, int(user.ID), models.OrderStatusPaid, 60)

	second, err := svc.ListOrders(ctx, OrderListFilters{})
	require.NoError(t, err)
	assert.Len(t, second.Items, 1)
	assert.EqualValues(t, 1, second.Total)
}

func TestListOrdersFilters(t *testing.T) {
	svc, db, _, _ := newOrderService(t)
	ctx := context.Background()
	buyer := seedUser(t, db, "alice@example.com", true)
	other := seedUser(t, db, "bob@example.com", true)
	seedOrder(t, db, int(buyer.ID), models.OrderStatusPaid, 50)
	seedOrder(t, db, int(buyer.ID), models.OrderStatusPending, 200)
	seedOrder(t, db, int(other.ID), models.OrderStatusPaid, 500)

	byStatus, err := svc.ListOrders(ctx, OrderListFilters{Status: models.OrderStatusPaid})
	require.NoError(t, err)
	assert.EqualValues(t, 2, byStatus.Total)

	byUser, err := svc.ListOrders(ctx, OrderListFilters{UserID: int(buyer.ID)})
	require.NoError(t, err)
	assert.EqualValues(t, 2, byUser.Total)

	minTotal := 100.0
	byTotal, err := svc.ListOrders(ctx, OrderListFilters{MinTotal: &minTotal})
	require.NoError(t, err)
	assert.EqualValues(t, 2, byTotal.Total)

	bySearch, err := svc.ListOrders(ctx, OrderListFilters{Search: "alice@"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, bySearch.Total)
}

func TestProcessRefund(t *testing.T) {
	svc, db, _, gateway := newOrderService(t)
	ctx := context.Background()
	user := seedUser(t, db, "buyer@example.com", true)
	order := seedOrder(t, db, int(user.ID), models.OrderStatusPaid, 100)

	result, err := svc.ProcessRefund(ctx, order.ID, ProcessRefundInput{
		Amount: 40,
		Reason: "damaged item",
	}, testActor())
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, gateway.calls, 1)
	assert.Equal(t, 40.0, gateway.calls[0].Amount)

	// Partial refund keeps the order in its current status.
	var stored models.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.Equal(t, models.OrderStatusPaid, stored.Status)
	assert.Contains(t, stored.AdminNotes, "damaged item")
}

func TestProcessRefundFullAmountCancelsOrder(t *testing.T) {
	svc, db, _, _ := newOrderService(t)
	ctx := context.Background()
	user := seedUser(t, db, "buyer@example.com", true)
	order := seedOrder(t, db, int(user.ID), models.OrderStatusPaid, 100)

	_, err := svc.ProcessRefund(ctx, order.ID, ProcessRefundInput{Amount: 100, Reason: "order cancelled"}, testActor())
	require.NoError(t, err)

	var stored models.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.Equal(t, models.OrderStatusCancelled, stored.Status)
}

func TestProcessRefundAmountExceedsTotal(t *testing.T) {
	svc, db, _, gateway := newOrderService(t)
	ctx := context.Background()
	user := seedUser(t, db, "buyer@example.com", true)
	order := seedOrder(t, db, int(user.ID), models.OrderStatusPaid, 100)

	_, err := svc.ProcessRefund(ctx, order.ID, ProcessRefundInput{Amount: 150, Reason: "oops"}, testActor())

	var validationErr *utils.ValidationError
	require.ErrorAs(t, err, &validationErr)
	// The gateway must never see an over-refund.
	assert.Empty(t, gateway.calls)
}

func TestProcessRefundNonRefundableStatus(t *testing.T) {
	svc, db, _, gateway := newOrderService(t)
	ctx := context.Background()
	user := seedUser(t, db, "buyer@example.com", true)

	for _, status := range []string{models.OrderStatusPending, models.OrderStatusCancelled} {
		order := seedOrder(t, db, int(user.ID), status, 100)
		_, err := svc.ProcessRefund(ctx, order.ID, ProcessRefundInput{Amount: 50, Reason: "test"}, testActor())

		var validationErr *utils.ValidationError
		require.ErrorAs(t, err, &validationErr, "status %s", status)
	}
	assert.Empty(t, gateway.calls)
}

func TestProcessRefundGatewayFailure(t *testing.T) {
	svc, db, _, gateway := newOrderService(t)
	gateway.err = errors.New("gateway unavailable")
	ctx := context.Background()
	user := seedUser(t, db, "buyer@example.com", true)
	order := seedOrder(t, db, int(user.ID), models.OrderStatusPaid, 100)

	_, err := svc.ProcessRefund(ctx, order.ID, ProcessRefundInput{Amount: 50, Reason: "test"}, testActor())

	var validationErr *utils.ValidationError
	require.ErrorAs(t, err, &validationErr)

	// Order is untouched and the failure is in the audit trail.
	var stored models.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.Equal(t, models.OrderStatusPaid, stored.Status)
	assert.Empty(t, stored.AdminNotes)

	var failure models.AuditLog
	require.NoError(t, db.Where("action = ? AND success = ?", "order.refund", false).First(&failure).Error)
	assert.Equal(t, "gateway unavailable", failure.ErrorMessage)
}

func TestGetOrderAnalytics(t *testing.T) {
	svc, db, _, _ := newOrderService(t)
	ctx := context.Background()
	user := seedUser(t, db, "buyer@example.com", true)

	now := time.Now().UTC().Truncate(24 * time.Hour).Add(12 * time.Hour)
	seedOrderAt(t, db, int(user.ID), models.OrderStatusPaid, 100, now)
	seedOrderAt(t, db, int(user.ID), models.OrderStatusDelivered, 300, now.Add(-24*time.Hour))
	seedOrderAt(t, db, int(user.ID), models.OrderStatusPending, 50, now)
	seedOrderAt(t, db, int(user.ID), models.OrderStatusCancelled, 75, now.Add(-48*time.Hour))

	analytics, err := svc.GetOrderAnalytics(ctx, AnalyticsQuery{
		From:     now.Add(-72 * time.Hour),
		To:       now.Add(time.Hour),
		Interval: IntervalDay,
	})
	require.NoError(t, err)

	assert.EqualValues(t, 4, analytics.TotalOrders)
	// Revenue counts only paid-or-later orders.
	assert.Equal(t, 400.0, analytics.TotalRevenue)
	assert.Equal(t, 200.0, analytics.AverageOrderValue)
	assert.EqualValues(t, 1, analytics.OrdersByStatus[models.OrderStatusPending])
	assert.EqualValues(t, 1, analytics.OrdersByStatus[models.OrderStatusPaid])

	// Empty preceding window means 100% growth.
	assert.Equal(t, 100.0, analytics.Growth.OrdersGrowth)
	assert.Equal(t, 100.0, analytics.Growth.RevenueGrowth)

	// Trend covers every day in the window, including empty buckets.
	assert.Len(t, analytics.Trend, 4)
	var trendOrders int64
	for _, point := range analytics.Trend {
		trendOrders += point.Orders
	}
	assert.EqualValues(t, 4, trendOrders)

	require.NotEmpty(t, analytics.TopPaymentMethods)
	assert.Equal(t, "card", analytics.TopPaymentMethods[0].Method)
}

func TestGetOrderAnalyticsWindowBoundaryCountsOnce(t *testing.T) {
	svc, db, _, _ := newOrderService(t)
	ctx := context.Background()
	user := seedUser(t, db, "buyer@example.com", true)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(72 * time.Hour)
	// Created exactly at the window start: belongs to the current window
	// only, so the empty preceding window yields 100% growth.
	seedOrderAt(t, db, int(user.ID), models.OrderStatusPaid, 120, from)

	analytics, err := svc.GetOrderAnalytics(ctx, AnalyticsQuery{From: from, To: to, Interval: IntervalDay})
	require.NoError(t, err)

	assert.EqualValues(t, 1, analytics.TotalOrders)
	assert.Equal(t, 100.0, analytics.Growth.OrdersGrowth)
	assert.Equal(t, 100.0, analytics.Growth.RevenueGrowth)
}

func TestGetOrderAnalyticsRejectsBadInput(t *testing.T) {
	svc, _, _, _ := newOrderService(t)
	ctx := context.Background()
	now := time.Now()

	_, err := svc.GetOrderAnalytics(ctx, AnalyticsQuery{From: now, To: now.Add(-time.Hour)})
	var validationErr *utils.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	_, err = svc.GetOrderAnalytics(ctx, AnalyticsQuery{From: now.Add(-time.Hour), To: now, Interval: "hour"})
	assert.ErrorAs(t, err, &validationErr)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, totalPages(0, 20))
	assert.Equal(t, 1, totalPages(1, 20))
	assert.Equal(t, 1, totalPages(20, 20))
	assert.Equal(t, 2, totalPages(21, 20))
}
