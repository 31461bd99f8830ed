package catalog

import (
	"context"
	"errors"
	"strings"

	"receipt-resolver-backend/domain"
	"receipt-resolver-backend/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	CatalogService interface {
		AddFoodItem(ctx context.Context, req domain.AddFoodItemRequest) (domain.FoodItemResponse, error)
		CreateFromResolution(ctx context.Context, name, barcode string) (*entities.FoodItem, error)
		GetFoodItemByID(ctx context.Context, id string) (domain.FoodItemResponse, error)
		GetFoodItems(ctx context.Context, query string, page, limit int) ([]domain.FoodItemResponse, int64, error)
		SearchByName(ctx context.Context, query string, limit int) ([]*entities.FoodItem, error)
	}

	catalogService struct {
		catalogRepository CatalogRepository
	}
)

func NewCatalogService(catalogRepository CatalogRepository) CatalogService {
	return &catalogService{catalogRepository: catalogRepository}
}

func (s *catalogService) AddFoodItem(ctx context.Context, req domain.AddFoodItemRequest) (domain.FoodItemResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return domain.FoodItemResponse{}, domain.ErrEmptyItemName
	}

	foodItem := &entities.FoodItem{
		ID:                 uuid.New(),
		Name:               strings.TrimSpace(req.Name),
		Brand:              req.Brand,
		Barcode:            req.Barcode,
		Category:           req.Category,
		QuantityDescriptor: req.QuantityDescriptor,
		Source:             "manual",
	}

	if err := s.catalogRepository.AddFoodItem(ctx, foodItem); err != nil {
		return domain.FoodItemResponse{}, err
	}

	return toFoodItemResponse(foodItem), nil
}

// CreateFromResolution creates a catalog item on behalf of the manual
// resolution gateway. An existing item with the same barcode is reused
// instead of creating a duplicate.
func (s *catalogService) CreateFromResolution(ctx context.Context, name, barcode string) (*entities.FoodItem, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.ErrEmptyItemName
	}

	if barcode != "" {
		existing, err := s.catalogRepository.GetFoodItemByBarcode(ctx, barcode)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	foodItem := &entities.FoodItem{
		ID:      uuid.New(),
		Name:    strings.TrimSpace(name),
		Barcode: barcode,
		Source:  "receipt",
	}

	if err := s.catalogRepository.AddFoodItem(ctx, foodItem); err != nil {
		return nil, err
	}
	return foodItem, nil
}

func (s *catalogService) GetFoodItemByID(ctx context.Context, id string) (domain.FoodItemResponse, error) {
	foodItem, err := s.catalogRepository.GetFoodItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.FoodItemResponse{}, domain.ErrFoodItemNotFound
		}
		return domain.FoodItemResponse{}, err
	}
	return toFoodItemResponse(foodItem), nil
}

func (s *catalogService) GetFoodItems(ctx context.Context, query string, page, limit int) ([]domain.FoodItemResponse, int64, error) {
	var foodItems []*entities.FoodItem
	var count int64
	var err error

	if query != "" {
		foodItems, err = s.catalogRepository.SearchFoodItems(ctx, query, limit)
		count = int64(len(foodItems))
	} else {
		foodItems, count, err = s.catalogRepository.GetFoodItems(ctx, page, limit)
	}
	if err != nil {
		return nil, 0, err
	}

	response := make([]domain.FoodItemResponse, 0, len(foodItems))
	for _, item := range foodItems {
		response = append(response, toFoodItemResponse(item))
	}
	return response, count, nil
}

func (s *catalogService) SearchByName(ctx context.Context, query string, limit int) ([]*entities.FoodItem, error) {
	return s.catalogRepository.SearchFoodItems(ctx, query, limit)
}

func toFoodItemResponse(item *entities.FoodItem) domain.FoodItemResponse {
	return domain.FoodItemResponse{
		ID:                 item.ID.String(),
		Name:               item.Name,
		Brand:              item.Brand,
		Barcode:            item.Barcode,
		Category:           item.Category,
		QuantityDescriptor: item.QuantityDescriptor,
		Source:             item.Source,
		CreatedAt:          item.CreatedAt,
	}
}
