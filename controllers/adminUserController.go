package controllers

import (
	"math"
	"net/http"

	"github.com/b9aurav/marketplace-api-sub000/services"
	"github.com/gin-gonic/gin"
)

func AdminListUsers(ctx *gin.Context) {
	page, limit := parsePagination(ctx)
	filters := services.UserListFilters{
		Search:    ctx.Query("search"),
		Role:      ctx.Query("role"),
		Active:    parseOptionalBool(ctx, "active"),
		SortBy:    ctx.Query("sort_by"),
		SortOrder: ctx.Query("sort_order"),
		Page:      page,
		Limit:     limit,
	}

	result, err := userService.ListUsers(ctx.Request.Context(), filters)
	if err != nil {
		ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func AdminGetUser(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		ctx.Error(err)
		return
	}

	details, err := userService.GetUserDetails(ctx.Request.Context(), id)
	if err != nil {
		ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, details)
}

func AdminUpdateUserStatus(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		ctx.Error(err)
		return
	}

	var input services.UpdateUserStatusInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		ctx.Error(invalidBody(err))
		return
	}

	user, err := userService.UpdateUserStatus(ctx.Request.Context(), id, input, actorFromContext(ctx))
	if err != nil {
		ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "User status updated successfully.",
		"user":    user,
	})
}

func AdminUserAnalytics(ctx *gin.Context) {
	query, err := parseAnalyticsQuery(ctx)
	if err != nil {
		ctx.Error(err)
		return
	}

	analytics, err := userService.GetUserAnalytics(ctx.Request.Context(), query)
	if err != nil {
		ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, analytics)
}

func AdminListAuditLogs(ctx *gin.Context) {
	page, limit := parsePagination(ctx)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	entries, total, err := auditService.List(ctx.Request.Context(), page, limit)
	if err != nil {
		ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"items":       entries,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": int(math.Ceil(float64(total) / float64(limit))),
	})
}
