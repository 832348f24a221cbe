package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/b9aurav/marketplace-api-sub000/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database migrated with the full
// schema. The DSN is derived from the test name so tests never share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Category{},
		&models.Product{},
		&models.ProductImage{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.AuditLog{},
	))
	return db
}

type stubGateway struct {
	calls []RefundRequest
	err   error
}

func (g *stubGateway) Refund(_ context.Context, req RefundRequest) (*RefundResult, error) {
	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	return &RefundResult{
		Success:       true,
		RefundID:      "rf-test",
		Amount:        req.Amount,
		Message:       "ok",
		TransactionID: req.TransactionID,
	}, nil
}

func seedUser(t *testing.T, db *gorm.DB, email string, active bool) models.User {
	t.Helper()
	user := models.User{
		Fullname: "Test User",
		Email:    email,
		Phone:    "0700000000",
		Password: "hashed",
		Role:     models.RoleUser,
		Active:   active,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedOrder(t *testing.T, db *gorm.DB, userID int, status string, total float64) models.Order {
	t.Helper()
	order := models.Order{
		UserID:        userID,
		Total:         total,
		NetAmount:     total,
		Status:        status,
		PaymentMethod: "card",
		TransactionID: "txn-" + status,
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func seedOrderAt(t *testing.T, db *gorm.DB, userID int, status string, total float64, createdAt time.Time) models.Order {
	t.Helper()
	order := seedOrder(t, db, userID, status, total)
	require.NoError(t, db.Model(&order).Update("created_at", createdAt).Error)
	order.CreatedAt = createdAt
	return order
}

func seedCategory(t *testing.T, db *gorm.DB, name string) models.Category {
	t.Helper()
	category := models.Category{Name: name}
	require.NoError(t, db.Create(&category).Error)
	return category
}

func seedProduct(t *testing.T, db *gorm.DB, sku string, categoryID uint, status string, price float64, stock, minStock int) models.Product {
	t.Helper()
	product := models.Product{
		Name:         "Product " + sku,
		Price:        price,
		Stock:        stock,
		MinimumStock: minStock,
		Status:       status,
		SKU:          sku,
		CategoryID:   categoryID,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func testActor() Actor {
	return Actor{AdminID: 1, IPAddress: "127.0.0.1", UserAgent: "test"}
}

func auditCount(t *testing.T, db *gorm.DB, action string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Where("action = ?", action).Count(&count).Error)
	return count
}
