package main

import (
	"log"
	"os"

	"subscription-billing-be/internal/model"
	"subscription-billing-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"gorm.io/datatypes"
)

func main() {
	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Seeding payment providers...")

	providers := []model.PaymentProvider{
		{Name: "stripe", IsDefault: true},
		{Name: "paddle", IsDefault: false},
	}

	for _, p := range providers {
		var existing model.PaymentProvider
		if err := db.Where("name = ?", p.Name).First(&existing).Error; err == nil {
			color.Yellow("Provider '%s' already exists, skipping...", p.Name)
			continue
		}
		if err := db.Create(&p).Error; err != nil {
			color.Red("Error creating provider '%s': %v", p.Name, err)
		} else {
			color.Green("Created provider: %s (default=%v)", p.Name, p.IsDefault)
		}
	}

	color.Cyan("Seeding product catalog...")

	products := []model.Product{
		{ProductCode: "starter_monthly", Name: "Starter Monthly", Options: datatypes.JSON(`{"seats": 1, "period": "monthly"}`)},
		{ProductCode: "pro_monthly", Name: "Pro Monthly", Options: datatypes.JSON(`{"seats": 5, "period": "monthly"}`)},
		{ProductCode: "pro_yearly", Name: "Pro Yearly", Options: datatypes.JSON(`{"seats": 5, "period": "yearly"}`)},
		{ProductCode: "lifetime", Name: "Lifetime License", Options: datatypes.JSON(`{"seats": 1, "period": "lifetime"}`)},
	}

	for _, p := range products {
		var existing model.Product
		if err := db.Where("product_code = ?", p.ProductCode).First(&existing).Error; err == nil {
			color.Yellow("Product '%s' already exists, skipping...", p.ProductCode)
			continue
		}
		if err := db.Create(&p).Error; err != nil {
			color.Red("Error creating product '%s': %v", p.ProductCode, err)
		} else {
			color.Green("Created product: %s (%s)", p.Name, p.ProductCode)
		}
	}

	color.Cyan("Seeding completed!")
}
