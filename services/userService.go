package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/b9aurav/marketplace-api-sub000/cache"
	"github.com/b9aurav/marketplace-api-sub000/models"
	"github.com/b9aurav/marketplace-api-sub000/utils"
	"gorm.io/gorm"
)

const (
	userListPrefix      = "admin:users:list"
	userDetailPrefix    = "admin:users:detail"
	userAnalyticsPrefix = "admin:users:analytics"
)

const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusBlocked  = "blocked"
)

type UserService struct {
	db    *gorm.DB
	cache cache.Store
	audit *AuditService
}

func NewUserService(db *gorm.DB, store cache.Store, audit *AuditService) *UserService {
	return &UserService{db: db, cache: store, audit: audit}
}

type UserListFilters struct {
	Search    string
	Role      string
	Active    *bool
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

func (f *UserListFilters) normalize() {
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

var userSortColumns = map[string]string{
	"created_at":    "created_at",
	"last_login_at": "last_login_at",
	"email":         "email",
	"fullname":      "fullname",
}

func (f UserListFilters) cacheMap() map[string]string {
	m := map[string]string{
		"search":     f.Search,
		"role":       f.Role,
		"sort_by":    f.SortBy,
		"sort_order": f.SortOrder,
	}
	if f.Active != nil {
		m["active"] = strconv.FormatBool(*f.Active)
	}
	return m
}

type UserListResult struct {
	Items      []models.User `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"total_pages"`
}

func (s *UserService) ListUsers(ctx context.Context, f UserListFilters) (*UserListResult, error) {
	f.normalize()
	key := cache.ListKey(userListPrefix, f.Page, f.Limit, f.cacheMap())

	var result UserListResult
	if cacheRead(ctx, s.cache, key, &result) {
		return &result, nil
	}

	query := s.db.WithContext(ctx).Model(&models.User{})
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(fullname) LIKE ?", pattern, pattern)
	}
	if f.Role != "" {
		query = query.Where("role = ?", f.Role)
	}
	if f.Active != nil {
		query = query.Where("active = ?", *f.Active)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	sortColumn, ok := userSortColumns[f.SortBy]
	if !ok {
		sortColumn = "created_at"
	}

	var users []models.User
	if err := query.
		Order(sortColumn + " " + f.SortOrder).
		Limit(f.Limit).Offset((f.Page - 1) * f.Limit).
		Find(&users).Error; err != nil {
		return nil, err
	}

	result = UserListResult{
		Items:      users,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: totalPages(total, f.Limit),
	}
	cacheWrite(ctx, s.cache, key, result, listCacheTTL)
	return &result, nil
}

type UserOrderStats struct {
	OrderCount        int64      `json:"order_count"`
	TotalSpent        float64    `json:"total_spent"`
	AverageOrderValue float64    `json:"average_order_value"`
	FirstOrderDate    *time.Time `json:"first_order_date"`
	LastOrderDate     *time.Time `json:"last_order_date"`
}

type UserDetails struct {
	User         models.User    `json:"user"`
	Status       string         `json:"status"`
	OrderStats   UserOrderStats `json:"order_stats"`
	RecentOrders []models.Order `json:"recent_orders"`
}

// derivedUserStatus collapses the stored binary flag back into the API's
// status vocabulary. "blocked" is not distinguishable from "inactive" at the
// storage level; the audit trail keeps the requested value.
func derivedUserStatus(u models.User) string {
	if u.Active {
		return UserStatusActive
	}
	return UserStatusInactive
}

func (s *UserService) GetUserDetails(ctx context.Context, id uint) (*UserDetails, error) {
	key := cache.DetailKey(userDetailPrefix, id)

	var details UserDetails
	if cacheRead(ctx, s.cache, key, &details) {
		return &details, nil
	}

	var user models.User
	err := s.db.WithContext(ctx).Preload("Addresses").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	completed := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("user_id = ? AND status IN ?", id, paidOrLaterStatuses)

	var stats UserOrderStats
	if err := completed.Session(&gorm.Session{}).Count(&stats.OrderCount).Error; err != nil {
		return nil, err
	}
	if err := completed.Session(&gorm.Session{}).
		Select("COALESCE(SUM(total), 0)").Scan(&stats.TotalSpent).Error; err != nil {
		return nil, err
	}
	if stats.OrderCount > 0 {
		stats.AverageOrderValue = stats.TotalSpent / float64(stats.OrderCount)

		var bounds struct {
			First time.Time
			Last  time.Time
		}
		if err := completed.Session(&gorm.Session{}).
			Select("MIN(created_at) AS first, MAX(created_at) AS last").Scan(&bounds).Error; err != nil {
			return nil, err
		}
		stats.FirstOrderDate = &bounds.First
		stats.LastOrderDate = &bounds.Last
	}

	var recent []models.Order
	if err := s.db.WithContext(ctx).
		Preload("OrderItems").
		Where("user_id = ?", id).
		Order("created_at desc").Limit(5).
		Find(&recent).Error; err != nil {
		return nil, err
	}

	details = UserDetails{
		User:         user,
		Status:       derivedUserStatus(user),
		OrderStats:   stats,
		RecentOrders: recent,
	}
	cacheWrite(ctx, s.cache, key, details, detailCacheTTL)
	return &details, nil
}

type UpdateUserStatusInput struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// UpdateUserStatus maps the requested tri-state status onto the stored
// active flag: only "active" keeps the account usable.
func (s *UserService) UpdateUserStatus(ctx context.Context, id uint, input UpdateUserStatusInput, actor Actor) (*models.User, error) {
	switch input.Status {
	case UserStatusActive, UserStatusInactive, UserStatusBlocked:
	default:
		return nil, utils.NewValidationError("status must be one of active, inactive, blocked")
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}

	oldStatus := derivedUserStatus(user)
	user.Active = input.Status == UserStatusActive
	if err := s.db.WithContext(ctx).Model(&user).Update("active", user.Active).Error; err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, "user.status_update", "user", strconv.Itoa(int(id)),
		fmt.Sprintf("User status changed from %s to %s", oldStatus, input.Status),
		map[string]any{"old_status": oldStatus, "new_status": input.Status, "reason": input.Reason},
		true, "")

	invalidate(ctx, s.cache,
		[]string{cache.DetailKey(userDetailPrefix, id)},
		[]string{userListPrefix + ":*", userAnalyticsPrefix + ":*", dashboardPattern},
	)
	return &user, nil
}

type RoleDistribution struct {
	Role       string  `json:"role"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type UserAnalytics struct {
	TotalUsers        int64              `json:"total_users"`
	ActiveUsers       int64              `json:"active_users"`
	InactiveUsers     int64              `json:"inactive_users"`
	NewToday          int64              `json:"new_today"`
	NewThisWeek       int64              `json:"new_this_week"`
	NewThisMonth      int64              `json:"new_this_month"`
	RegistrationTrend []SeriesPoint      `json:"registration_trend"`
	RoleDistribution  []RoleDistribution `json:"role_distribution"`
	ActivityTrend     []SeriesPoint      `json:"activity_trend"`
}

func (s *UserService) GetUserAnalytics(ctx context.Context, q AnalyticsQuery) (*UserAnalytics, error) {
	if q.Interval == "" {
		q.Interval = IntervalDay
	}
	if !validInterval(q.Interval) {
		return nil, utils.NewValidationError("interval must be one of day, week, month")
	}
	if q.To.Before(q.From) {
		return nil, utils.NewValidationError("date_to must not precede date_from")
	}

	key := cache.AnalyticsKey(userAnalyticsPrefix, q.From, q.To, q.Interval, nil)
	var analytics UserAnalytics
	if cacheRead(ctx, s.cache, key, &analytics) {
		return &analytics, nil
	}

	users := func() *gorm.DB { return s.db.WithContext(ctx).Model(&models.User{}) }

	if err := users().Count(&analytics.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := users().Where("active = ?", true).Count(&analytics.ActiveUsers).Error; err != nil {
		return nil, err
	}
	analytics.InactiveUsers = analytics.TotalUsers - analytics.ActiveUsers

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := dayStart.AddDate(0, 0, -int(now.Weekday()))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	if err := users().Where("created_at >= ?", dayStart).Count(&analytics.NewToday).Error; err != nil {
		return nil, err
	}
	if err := users().Where("created_at >= ?", weekStart).Count(&analytics.NewThisWeek).Error; err != nil {
		return nil, err
	}
	if err := users().Where("created_at >= ?", monthStart).Count(&analytics.NewThisMonth).Error; err != nil {
		return nil, err
	}

	var regRows []struct{ CreatedAt time.Time }
	if err := users().
		Where("created_at >= ? AND created_at <= ?", q.From, q.To).
		Select("created_at").Scan(&regRows).Error; err != nil {
		return nil, err
	}
	regBuckets := make(map[string]int64)
	for _, row := range regRows {
		regBuckets[BucketKey(row.CreatedAt, q.Interval)]++
	}
	for _, label := range sortedBucketKeys(q.From, q.To, q.Interval) {
		analytics.RegistrationTrend = append(analytics.RegistrationTrend, SeriesPoint{
			Period: label,
			Count:  regBuckets[label],
		})
	}

	var roleRows []struct {
		Role  string
		Count int64
	}
	if err := users().
		Select("role, COUNT(*) AS count").Group("role").Scan(&roleRows).Error; err != nil {
		return nil, err
	}
	for _, row := range roleRows {
		pct := 0.0
		if analytics.TotalUsers > 0 {
			pct = float64(row.Count) / float64(analytics.TotalUsers) * 100
		}
		analytics.RoleDistribution = append(analytics.RoleDistribution, RoleDistribution{
			Role:       row.Role,
			Count:      row.Count,
			Percentage: pct,
		})
	}

	// Activity is approximated from last-login timestamps in the window.
	var loginRows []struct{ LastLoginAt *time.Time }
	if err := users().
		Where("last_login_at IS NOT NULL AND last_login_at >= ? AND last_login_at <= ?", q.From, q.To).
		Select("last_login_at").Scan(&loginRows).Error; err != nil {
		return nil, err
	}
	loginBuckets := make(map[string]int64)
	for _, row := range loginRows {
		if row.LastLoginAt != nil {
			loginBuckets[BucketKey(*row.LastLoginAt, q.Interval)]++
		}
	}
	for _, label := range sortedBucketKeys(q.From, q.To, q.Interval) {
		analytics.ActivityTrend = append(analytics.ActivityTrend, SeriesPoint{
			Period: label,
			Count:  loginBuckets[label],
		})
	}

	cacheWrite(ctx, s.cache, key, analytics, analyticsCacheTTL)
	return &analytics, nil
}
