package main

import (
	"log"
	"os"

	"github.com/umerkang66/db-lab-project/internal/config"
	"github.com/umerkang66/db-lab-project/internal/hash"
	"github.com/umerkang66/db-lab-project/internal/models"
)

var products = []models.Product{
	{
		Name:          "Wireless Bluetooth Headphones",
		Description:   "Premium noise-cancelling wireless headphones with 30-hour battery life and crystal-clear audio quality.",
		Price:         4999.99,
		StockQuantity: 50,
	},
	{
		Name:          "Smart Watch Pro",
		Description:   "Advanced fitness tracking smartwatch with heart rate monitor, GPS, and water resistance up to 50m.",
		Price:         12999.99,
		StockQuantity: 35,
	},
	{
		Name:          "Portable Power Bank 20000mAh",
		Description:   "High-capacity portable charger with fast charging support for all your devices.",
		Price:         2499.99,
		StockQuantity: 100,
	},
	{
		Name:          "Mechanical Gaming Keyboard",
		Description:   "RGB backlit mechanical keyboard with Cherry MX switches and programmable keys.",
		Price:         7999.99,
		StockQuantity: 25,
	},
	{
		Name:          "Wireless Gaming Mouse",
		Description:   "Ultra-lightweight wireless mouse with 25K DPI sensor and 70-hour battery life.",
		Price:         3999.99,
		StockQuantity: 40,
	},
	{
		Name:          "USB-C Hub 7-in-1",
		Description:   "Multi-port USB-C adapter with HDMI, USB 3.0, SD card reader, and power delivery.",
		Price:         1999.99,
		StockQuantity: 75,
	},
	{
		Name:          "Laptop Stand Adjustable",
		Description:   "Ergonomic aluminum laptop stand with adjustable height and angle for comfortable viewing.",
		Price:         1499.99,
		StockQuantity: 60,
	},
}

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail != "" && adminPassword != "" {
		passwordHash, err := hash.HashPassword(adminPassword)
		if err != nil {
			log.Fatalf("hash error: %v", err)
		}
		admin := models.User{
			Name:         "Admin",
			Email:        adminEmail,
			PasswordHash: passwordHash,
			Role:         models.RoleAdmin,
		}
		var count int64
		db.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count)
		if count == 0 {
			if err := db.Create(&admin).Error; err != nil {
				log.Fatalf("seed admin error: %v", err)
			}
			log.Printf("seeded admin user %s", adminEmail)
		}
	}

	for _, p := range products {
		var count int64
		db.Model(&models.Product{}).Where("name = ?", p.Name).Count(&count)
		if count > 0 {
			continue
		}
		if err := db.Create(&p).Error; err != nil {
			log.Fatalf("seed product error: %v", err)
		}
		log.Printf("seeded product %q", p.Name)
	}

	log.Println("DONE.")
}
