package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessAddFoodItem  = "food item added successfully"
	MessageSuccessGetFoodItems = "food items retrieved successfully"
	MessageSuccessGetFoodItem  = "food item retrieved successfully"

	MessageFailedAddFoodItem  = "failed to add food item"
	MessageFailedGetFoodItems = "failed to retrieve food items"

	ErrFoodItemNotFound = errors.New("food item not found")
	ErrEmptyItemName    = errors.New("food item name must not be empty")
)

type (
	AddFoodItemRequest struct {
		Name               string `json:"name" validate:"required"`
		Brand              string `json:"brand" validate:"omitempty"`
		Barcode            string `json:"barcode" validate:"omitempty"`
		Category           string `json:"category" validate:"omitempty"`
		QuantityDescriptor string `json:"quantity_descriptor" validate:"omitempty"`
	}

	FoodItemResponse struct {
		ID                 string    `json:"id"`
		Name               string    `json:"name"`
		Brand              string    `json:"brand,omitempty"`
		Barcode            string    `json:"barcode,omitempty"`
		Category           string    `json:"category,omitempty"`
		QuantityDescriptor string    `json:"quantity_descriptor,omitempty"`
		Source             string    `json:"source"`
		CreatedAt          time.Time `json:"created_at"`
	}
)
