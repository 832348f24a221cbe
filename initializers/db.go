package initializers

import (
	"os"

	"github.com/b9aurav/marketplace-api-sub000/utils"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectToDB() {
	var err error
	DB, err = gorm.Open(mysql.Open(os.Getenv("DB_URL")), &gorm.Config{})
	if err != nil {
		utils.Log.WithError(err).Fatal("Failed to connect to database")
	}
}
