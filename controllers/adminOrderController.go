package controllers

import (
	"net/http"
	"strconv"

	"github.com/b9aurav/marketplace-api-sub000/services"
	"github.com/gin-gonic/gin"
)

func AdminListOrders(ctx *gin.Context) {
	page, limit := parsePagination(ctx)
	filters := services.OrderListFilters{
		Search:        ctx.Query("search"),
		Status:        ctx.Query("status"),
		PaymentMethod: ctx.Query("payment_method"),
		MinTotal:      parseOptionalFloat(ctx, "min_total"),
		MaxTotal:      parseOptionalFloat(ctx, "max_total"),
		SortBy:        ctx.Query("sort_by"),
		SortOrder:     ctx.Query("sort_order"),
		Page:          page,
		Limit:         limit,
	}
	if userID, err := strconv.Atoi(ctx.Query("user_id")); err == nil {
		filters.UserID = userID
	}
	if fromStr := ctx.Query("date_from"); fromStr != "" {
		if from, _, err := parseDate(fromStr); err == nil {
			filters.DateFrom = &from
		}
	}
	if toStr := ctx.Query("date_to"); toStr != "" {
		if to, _, err := parseDate(toStr); err == nil {
			filters.DateTo = &to
		}
	}

	result, err := orderService.ListOrders(ctx.Request.Context(), filters)
	if err != nil {
		ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func AdminGetOrder(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		ctx.Error(err)
		return
	}

	order, err := orderService.GetOrderDetails(ctx.Request.Context(), id)
	if err != nil {
		ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, order)
}

func AdminUpdateOrderStatus(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		ctx.Error(err)
		return
	}

	var input services.UpdateOrderStatusInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		ctx.Error(invalidBody(err))
		return
	}

	order, err := orderService.UpdateOrderStatus(ctx.Request.Context(), id, input, actorFromContext(ctx))
	if err != nil {
		ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully.",
		"order":   order,
	})
}

func AdminProcessRefund(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		ctx.Error(err)
		return
	}

	var input services.ProcessRefundInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		ctx.Error(invalidBody(err))
		return
	}

	result, err := orderService.ProcessRefund(ctx.Request.Context(), id, input, actorFromContext(ctx))
	if err != nil {
		ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func AdminOrderAnalytics(ctx *gin.Context) {
	query, err := parseAnalyticsQuery(ctx)
	if err != nil {
		ctx.Error(err)
		return
	}
	query.Status = ctx.Query("status")

	analytics, err := orderService.GetOrderAnalytics(ctx.Request.Context(), query)
	if err != nil {
		ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, analytics)
}
