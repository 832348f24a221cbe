package controllers

import (
	"net/http"
	"strconv"

	"github.com/b9aurav/marketplace-api-sub000/services"
	"github.com/gin-gonic/gin"
)

func AdminListProducts(ctx *gin.Context) {
	page, limit := parsePagination(ctx)
	filters := services.ProductListFilters{
		Search:    ctx.Query("search"),
		Status:    ctx.Query("status"),
		Featured:  parseOptionalBool(ctx, "featured"),
		MinPrice:  parseOptionalFloat(ctx, "min_price"),
		MaxPrice:  parseOptionalFloat(ctx, "max_price"),
		SortBy:    ctx.Query("sort_by"),
		SortOrder: ctx.Query("sort_order"),
		Page:      page,
		Limit:     limit,
	}
	if categoryID, err := strconv.Atoi(ctx.Query("category_id")); err == nil {
		filters.CategoryID = categoryID
	}

	result, err := productService.ListProducts(ctx.Request.Context(), filters)
	if err != nil {
		ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func AdminGetProduct(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		ctx.Error(err)
		return
	}

	product, err := productService.GetProductDetails(ctx.Request.Context(), id)
	if err != nil {
		ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, product)
}

func AdminCreateProduct(ctx *gin.Context) {
	var input services.CreateProductInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		ctx.Error(invalidBody(err))
		return
	}

	product, err := productService.CreateProduct(ctx.Request.Context(), input, actorFromContext(ctx))
	if err != nil {
		ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusCreated, product)
}

func AdminUpdateProduct(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		ctx.Error(err)
		return
	}

	var input services.UpdateProductInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		ctx.Error(invalidBody(err))
		return
	}

	product, err := productService.UpdateProduct(ctx.Request.Context(), id, input, actorFromContext(ctx))
	if err != nil {
		ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, product)
}

func AdminDeleteProduct(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		ctx.Error(err)
		return
	}

	if err := productService.DeleteProduct(ctx.Request.Context(), id, actorFromContext(ctx)); err != nil {
		ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Product deactivated successfully."})
}

func AdminBulkProductAction(ctx *gin.Context) {
	var input services.BulkActionInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		ctx.Error(invalidBody(err))
		return
	}

	affected, err := productService.BulkAction(ctx.Request.Context(), input, actorFromContext(ctx))
	if err != nil {
		ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":  "Bulk action applied successfully.",
		"affected": affected,
	})
}

func AdminProductAnalytics(ctx *gin.Context) {
	analytics, err := productService.GetProductAnalytics(ctx.Request.Context())
	if err != nil {
		ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, analytics)
}
