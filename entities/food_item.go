package entities

import (
	"github.com/google/uuid"
)

type FoodItem struct {
	ID                 uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Name               string    `gorm:"index" json:"name"`
	Brand              string    `json:"brand,omitempty"`
	Barcode            string    `gorm:"index" json:"barcode,omitempty"`
	Category           string    `json:"category,omitempty"`
	QuantityDescriptor string    `json:"quantity_descriptor,omitempty"` // e.g. "500g", "1L", "12 oz"
	Source             string    `json:"source"`                        // "manual", "barcode", "receipt"

	Timestamp
}
