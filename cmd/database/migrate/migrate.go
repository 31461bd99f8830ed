package migration

import (
	"fmt"
	"log"

	"receipt-resolver-backend/entities"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")

	if err := db.AutoMigrate(&entities.FoodItem{}); err != nil {
		log.Fatalf("Error migrating food item database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Receipt{}); err != nil {
		log.Fatalf("Error migrating receipt database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.ReceiptLineItem{}); err != nil {
		log.Fatalf("Error migrating receipt line item database: %v", err)
		return err
	}

	fmt.Println("Database migration complete")
	return nil
}
