package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func AdminDashboardMetrics(ctx *gin.Context) {
	metrics, err := dashboardService.GetMetrics(ctx.Request.Context())
	if err != nil {
		ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, metrics)
}

func AdminSalesAnalytics(ctx *gin.Context) {
	query, err := parseAnalyticsQuery(ctx)
	if err != nil {
		ctx.Error(err)
		return
	}

	analytics, err := dashboardService.GetSalesAnalytics(ctx.Request.Context(), query)
	if err != nil {
		ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, analytics)
}
