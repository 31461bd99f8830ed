package catalog

import (
	"context"

	"receipt-resolver-backend/entities"

	"gorm.io/gorm"
)

type (
	CatalogRepository interface {
		AddFoodItem(ctx context.Context, foodItem *entities.FoodItem) error
		GetFoodItemByID(ctx context.Context, id string) (*entities.FoodItem, error)
		GetFoodItemByBarcode(ctx context.Context, barcode string) (*entities.FoodItem, error)
		SearchFoodItems(ctx context.Context, query string, limit int) ([]*entities.FoodItem, error)
		GetFoodItems(ctx context.Context, page, limit int) ([]*entities.FoodItem, int64, error)
	}

	catalogRepository struct {
		db *gorm.DB
	}
)

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) AddFoodItem(ctx context.Context, foodItem *entities.FoodItem) error {
	return r.db.WithContext(ctx).Create(foodItem).Error
}

func (r *catalogRepository) GetFoodItemByID(ctx context.Context, id string) (*entities.FoodItem, error) {
	var foodItem entities.FoodItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&foodItem).Error; err != nil {
		return nil, err
	}
	return &foodItem, nil
}

func (r *catalogRepository) GetFoodItemByBarcode(ctx context.Context, barcode string) (*entities.FoodItem, error) {
	var foodItem entities.FoodItem
	if err := r.db.WithContext(ctx).Where("barcode = ?", barcode).First(&foodItem).Error; err != nil {
		return nil, err
	}
	return &foodItem, nil
}

func (r *catalogRepository) SearchFoodItems(ctx context.Context, query string, limit int) ([]*entities.FoodItem, error) {
	var foodItems []*entities.FoodItem
	if err := r.db.WithContext(ctx).
		Where("name ILIKE ?", "%"+query+"%").
		Order("name asc").
		Limit(limit).
		Find(&foodItems).Error; err != nil {
		return nil, err
	}
	return foodItems, nil
}

func (r *catalogRepository) GetFoodItems(ctx context.Context, page, limit int) ([]*entities.FoodItem, int64, error) {
	var foodItems []*entities.FoodItem
	var count int64

	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).Model(&entities.FoodItem{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Offset(offset).Limit(limit).
		Order("name asc").
		Find(&foodItems).Error; err != nil {
		return nil, 0, err
	}

	return foodItems, count, nil
}
