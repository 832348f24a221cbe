package initializers

import (
	"github.com/b9aurav/marketplace-api-sub000/models"
	"github.com/b9aurav/marketplace-api-sub000/utils"
)

func SyncDatabase() {
	err := DB.AutoMigrate(
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
	)
	if err != nil {
		utils.Log.WithError(err).Fatal("Failed to migrate database")
	}
	utils.Log.Info("Database synced successfully")
}
