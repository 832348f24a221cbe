package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/b9aurav/marketplace-api-sub000/initializers"
	"github.com/b9aurav/marketplace-api-sub000/models"
	"github.com/b9aurav/marketplace-api-sub000/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Common error response helper
func respondWithError(ctx *gin.Context, statusCode int, message string, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	ctx.JSON(statusCode, gin.H{
		"message": message,
		"error":   errMsg,
	})
}

// getAWSUploader returns a configured S3 uploader
func getAWSUploader() (*manager.Uploader, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return manager.NewUploader(client), nil
}

// UploadProductImages stores uploaded images on S3 and records their URLs.
// Mounted on the admin product surface.
func UploadProductImages(ctx *gin.Context) {
	// Get multipart form
	form, err := ctx.MultipartForm()
	if err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid form data", err)
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		respondWithError(ctx, http.StatusBadRequest, "No files uploaded", nil)
		return
	}

	// Get and validate productId
	productIdStr := ctx.PostForm("productId")
	if productIdStr == "" {
		respondWithError(ctx, http.StatusBadRequest, "Missing productId", nil)
		return
	}

	productId, err := strconv.Atoi(productIdStr)
	if err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid productId", err)
		return
	}

	// Validate product exists
	var product models.Product
	if err := initializers.DB.First(&product, productId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondWithError(ctx, http.StatusNotFound, "Product not found", nil)
		} else {
			respondWithError(ctx, http.StatusInternalServerError, "Failed to validate product", err)
		}
		return
	}

	// Get AWS uploader
	uploader, err := getAWSUploader()
	if err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to configure AWS", err)
		return
	}

	var uploadedUrls []string
	var failedUploads []string

	// Upload files and save to database
	for _, file := range files {
		f, openErr := file.Open()
		if openErr != nil {
			utils.Log.WithError(openErr).WithField("file", file.Filename).Warn("Error opening uploaded file")
			failedUploads = append(failedUploads, file.Filename)
			continue
		}

		// Generate a unique filename to prevent overwrites
		uniqueFilename := fmt.Sprintf("%d-%s-%s", productId, time.Now().Format("20060102150405"), file.Filename)

		result, uploadErr := uploader.Upload(ctx.Request.Context(), &s3.PutObjectInput{
			Bucket:      aws.String(os.Getenv("S3_BUCKET")),
			Key:         aws.String(uniqueFilename),
			Body:        f,
			ACL:         "public-read",
			ContentType: aws.String(file.Header.Get("Content-Type")),
		})
		f.Close() // Close file immediately after use

		if uploadErr != nil {
			utils.Log.WithError(uploadErr).WithField("file", file.Filename).Warn("Error uploading file")
			failedUploads = append(failedUploads, file.Filename)
			continue
		}

		uploadedUrls = append(uploadedUrls, result.Location)

		// Create a ProductImage record
		productImage := models.ProductImage{
			Url:       result.Location,
			ProductID: productId,
		}

		if err := initializers.DB.Create(&productImage).Error; err != nil {
			// The file is already on S3, so just log the failed record.
			utils.Log.WithError(err).WithField("product_id", productId).Error("Error saving image to database")
		}
	}

	response := gin.H{
		"message": "Files processed",
		"urls":    uploadedUrls,
	}

	if len(failedUploads) > 0 {
		response["failed"] = failedUploads
	}

	ctx.JSON(http.StatusOK, response)
}

// GetProducts is the public catalog listing; only active products appear.
func GetProducts(ctx *gin.Context) {
	var products []models.Product

	// Add pagination
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "12"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 12
	}
	offset := (page - 1) * limit

	query := initializers.DB.Preload("Images").Where("status = ?", models.ProductStatusActive)

	// Add search by name if provided
	if search := ctx.Query("search"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if categoryId, err := strconv.Atoi(ctx.Query("category_id")); err == nil {
		query = query.Where("category_id = ?", categoryId)
	}

	// Execute the query with pagination
	result := query.Limit(limit).Offset(offset).Find(&products)
	if result.Error != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Unable to fetch products", result.Error)
		return
	}

	// Get total count for pagination
	var count int64
	countQuery := initializers.DB.Model(&models.Product{}).Where("status = ?", models.ProductStatusActive)
	if search := ctx.Query("search"); search != "" {
		countQuery = countQuery.Where("name LIKE ?", "%"+search+"%")
	}
	countQuery.Count(&count)

	ctx.JSON(http.StatusOK, gin.H{
		"products": products,
		"metadata": gin.H{
			"total": count,
			"page":  page,
			"limit": limit,
		},
	})
}

func GetProduct(ctx *gin.Context) {
	productId, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid product ID", err)
		return
	}

	var product models.Product
	result := initializers.DB.Preload("Images").First(&product, productId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			respondWithError(ctx, http.StatusNotFound, "Product not found", nil)
		} else {
			respondWithError(ctx, http.StatusInternalServerError, "Unable to retrieve product", result.Error)
		}
		return
	}

	ctx.JSON(http.StatusOK, product)
}
