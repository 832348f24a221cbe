package initializers

import (
	"github.com/b9aurav/marketplace-api-sub000/utils"
	"github.com/joho/godotenv"
)

func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		utils.Log.Info("No .env file found, relying on process environment")
	}
}
