package services

import (
	"context"
	"testing"
	"time"

	"github.com/b9aurav/marketplace-api-sub000/cache"
	"github.com/b9aurav/marketplace-api-sub000/models"
	"github.com/b9aurav/marketplace-api-sub000/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUserService(t *testing.T) (*UserService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewUserService(db, cache.NewMemoryStore(), NewAuditService(db))
	return svc, db
}

func TestUpdateUserStatus(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()
	user := seedUser(t, db, "alice@example.com", true)

	updated, err := svc.UpdateUserStatus(ctx, user.ID, UpdateUserStatusInput{
		Status: UserStatusBlocked,
		Reason: "chargeback abuse",
	}, testActor())
	require.NoError(t, err)
	assert.False(t, updated.Active)

	// Blocked and inactive collapse to the same stored flag; the audit entry
	// keeps the requested value.
	var entry models.AuditLog
	require.NoError(t, db.Where("action = ?", "user.status_update").First(&entry).Error)
	assert.Contains(t, string(entry.Metadata), UserStatusBlocked)
	assert.Contains(t, string(entry.Metadata), "chargeback abuse")

	reactivated, err := svc.UpdateUserStatus(ctx, user.ID, UpdateUserStatusInput{Status: UserStatusActive}, testActor())
	require.NoError(t, err)
	assert.True(t, reactivated.Active)
}

func TestUpdateUserStatusRejectsUnknownStatus(t *testing.T) {
	svc, db := newUserService(t)
	user := seedUser(t, db, "alice@example.com", true)

	_, err := svc.UpdateUserStatus(context.Background(), user.ID, UpdateUserStatusInput{Status: "suspended"}, testActor())

	var validationErr *utils.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestUpdateUserStatusNotFound(t *testing.T) {
	svc, _ := newUserService(t)
	_, err := svc.UpdateUserStatus(context.Background(), 9999, UpdateUserStatusInput{Status: UserStatusActive}, testActor())
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestGetUserDetails(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()
	user := seedUser(t, db, "alice@example.com", true)

	seedOrder(t, db, int(user.ID), models.OrderStatusDelivered, 100)
	seedOrder(t, db, int(user.ID), models.OrderStatusPaid, 50)
	// Pending and cancelled orders are excluded from spend stats.
	seedOrder(t, db, int(user.ID), models.OrderStatusPending, 999)
	seedOrder(t, db, int(user.ID), models.OrderStatusCancelled, 999)

	details, err := svc.GetUserDetails(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, UserStatusActive, details.Status)
	assert.EqualValues(t, 2, details.OrderStats.OrderCount)
	assert.Equal(t, 150.0, details.OrderStats.TotalSpent)
	assert.Equal(t, 75.0, details.OrderStats.AverageOrderValue)
	assert.NotNil(t, details.OrderStats.FirstOrderDate)
	assert.NotNil(t, details.OrderStats.LastOrderDate)
	// Recent orders show everything, capped at five.
	assert.Len(t, details.RecentOrders, 4)
}

func TestGetUserDetailsNotFound(t *testing.T) {
	svc, _ := newUserService(t)
	_, err := svc.GetUserDetails(context.Background(), 9999)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestListUsersFilters(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()
	seedUser(t, db, "alice@example.com", true)
	seedUser(t, db, "bob@example.com", false)

	isActive := true
	active, err := svc.ListUsers(ctx, UserListFilters{Active: &isActive})
	require.NoError(t, err)
	assert.EqualValues(t, 1, active.Total)

	isInactive := false
	inactive, err := svc.ListUsers(ctx, UserListFilters{Active: &isInactive})
	require.NoError(t, err)
	assert.EqualValues(t, 1, inactive.Total)

	bySearch, err := svc.ListUsers(ctx, UserListFilters{Search: "bob"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, bySearch.Total)
}

func TestGetUserAnalytics(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()
	seedUser(t, db, "alice@example.com", true)
	seedUser(t, db, "bob@example.com", false)

	now := time.Now()
	analytics, err := svc.GetUserAnalytics(ctx, AnalyticsQuery{
		From:     now.Add(-7 * 24 * time.Hour),
		To:       now,
		Interval: IntervalDay,
	})
	require.NoError(t, err)

	assert.EqualValues(t, 2, analytics.TotalUsers)
	assert.EqualValues(t, 1, analytics.ActiveUsers)
	assert.EqualValues(t, 1, analytics.InactiveUsers)
	assert.EqualValues(t, 2, analytics.NewToday)
	assert.NotEmpty(t, analytics.RegistrationTrend)
	require.NotEmpty(t, analytics.RoleDistribution)
	assert.Equal(t, models.RoleUser, analytics.RoleDistribution[0].Role)
	assert.Equal(t, 100.0, analytics.RoleDistribution[0].Percentage)
}
