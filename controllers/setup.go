package controllers

import (
	"strconv"
	"time"

	"github.com/b9aurav/marketplace-api-sub000/cache"
	"github.com/b9aurav/marketplace-api-sub000/services"
	"github.com/b9aurav/marketplace-api-sub000/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

var (
	auditService     *services.AuditService
	orderService     *services.OrderService
	productService   *services.ProductService
	userService      *services.UserService
	dashboardService *services.DashboardService
)

// Setup wires the admin services. Call once after the DB and cache are
// connected.
func Setup(db *gorm.DB, store cache.Store, gateway services.PaymentGateway) {
	auditService = services.NewAuditService(db)
	orderService = services.NewOrderService(db, store, gateway, auditService)
	productService = services.NewProductService(db, store, auditService)
	userService = services.NewUserService(db, store, auditService)
	dashboardService = services.NewDashboardService(db, store)
}

func invalidBody(err error) error {
	return utils.NewValidationError("invalid request body: " + err.Error())
}

func actorFromContext(ctx *gin.Context) services.Actor {
	actor := services.Actor{
		IPAddress: ctx.ClientIP(),
		UserAgent: ctx.Request.UserAgent(),
	}
	if userClaims, exists := ctx.Get("user"); exists {
		if claims, ok := userClaims.(jwt.MapClaims); ok {
			if id, ok := claims["user_id"].(float64); ok {
				actor.AdminID = int(id)
			}
		}
	}
	return actor
}

func parseIDParam(ctx *gin.Context, name string) (uint, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id < 1 {
		return 0, utils.NewValidationError("invalid " + name)
	}
	return uint(id), nil
}

func parsePagination(ctx *gin.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	return page, limit
}

// parseDate accepts a date or an RFC3339 timestamp. The bool reports whether
// the value was a bare date without a time component.
func parseDate(value string) (time.Time, bool, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	return t, false, err
}

// parseAnalyticsQuery reads the required date_from/date_to pair plus the
// optional interval.
func parseAnalyticsQuery(ctx *gin.Context) (services.AnalyticsQuery, error) {
	var q services.AnalyticsQuery

	fromStr := ctx.Query("date_from")
	toStr := ctx.Query("date_to")
	if fromStr == "" || toStr == "" {
		return q, utils.NewValidationError("date_from and date_to are required")
	}

	from, _, err := parseDate(fromStr)
	if err != nil {
		return q, utils.NewValidationError("date_from is malformed")
	}
	to, dateOnly, err := parseDate(toStr)
	if err != nil {
		return q, utils.NewValidationError("date_to is malformed")
	}

	q.From = from
	// A bare date means "through the end of that day"; an explicit
	// timestamp is taken as given, midnight included.
	q.To = to
	if dateOnly {
		q.To = to.Add(24*time.Hour - time.Second)
	}
	q.Interval = ctx.DefaultQuery("interval", "day")
	return q, nil
}

func parseOptionalFloat(ctx *gin.Context, name string) *float64 {
	if value := ctx.Query(name); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return &f
		}
	}
	return nil
}

func parseOptionalBool(ctx *gin.Context, name string) *bool {
	if value := ctx.Query(name); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return &b
		}
	}
	return nil
}
