package catalog

import (
	"context"
	"testing"

	"receipt-resolver-backend/domain"
	"receipt-resolver-backend/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeCatalogRepository struct {
	items []*entities.FoodItem
}

func (f *fakeCatalogRepository) AddFoodItem(_ context.Context, foodItem *entities.FoodItem) error {
	f.items = append(f.items, foodItem)
	return nil
}

func (f *fakeCatalogRepository) GetFoodItemByID(_ context.Context, id string) (*entities.FoodItem, error) {
	for _, item := range f.items {
		if item.ID.String() == id {
			return item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCatalogRepository) GetFoodItemByBarcode(_ context.Context, barcode string) (*entities.FoodItem, error) {
	for _, item := range f.items {
		if item.Barcode == barcode {
			return item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCatalogRepository) SearchFoodItems(_ context.Context, query string, _ int) ([]*entities.FoodItem, error) {
	return f.items, nil
}

func (f *fakeCatalogRepository) GetFoodItems(_ context.Context, _, _ int) ([]*entities.FoodItem, int64, error) {
	return f.items, int64(len(f.items)), nil
}

func TestAddFoodItem(t *testing.T) {
	repo := &fakeCatalogRepository{}
	svc := NewCatalogService(repo)

	res, err := svc.AddFoodItem(context.Background(), domain.AddFoodItemRequest{
		Name:    "  Whole Milk  ",
		Brand:   "Kroger",
		Barcode: "011110000125",
	})
	require.NoError(t, err)
	assert.Equal(t, "Whole Milk", res.Name)
	assert.Equal(t, "manual", res.Source)
	require.Len(t, repo.items, 1)
}

func TestAddFoodItem_EmptyName(t *testing.T) {
	svc := NewCatalogService(&fakeCatalogRepository{})

	_, err := svc.AddFoodItem(context.Background(), domain.AddFoodItemRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyItemName)
}

func TestCreateFromResolution_ReusesExistingBarcode(t *testing.T) {
	existing := &entities.FoodItem{Name: "Whole Milk", Barcode: "011110000125"}
	repo := &fakeCatalogRepository{items: []*entities.FoodItem{existing}}
	svc := NewCatalogService(repo)

	item, err := svc.CreateFromResolution(context.Background(), "Milk Gallon", "011110000125")
	require.NoError(t, err)
	assert.Same(t, existing, item)
	assert.Len(t, repo.items, 1)
}

func TestCreateFromResolution_CreatesWithReceiptSource(t *testing.T) {
	repo := &fakeCatalogRepository{}
	svc := NewCatalogService(repo)

	item, err := svc.CreateFromResolution(context.Background(), "Obscure Snack", "")
	require.NoError(t, err)
	assert.Equal(t, "Obscure Snack", item.Name)
	assert.Equal(t, "receipt", item.Source)
	assert.Len(t, repo.items, 1)

	_, err = svc.CreateFromResolution(context.Background(), " ", "")
	assert.ErrorIs(t, err, domain.ErrEmptyItemName)
}

func TestGetFoodItemByID_NotFoundMapped(t *testing.T) {
	svc := NewCatalogService(&fakeCatalogRepository{})

	_, err := svc.GetFoodItemByID(context.Background(), "5f6c1f0e-54a5-4a3f-9f1f-0a2d7c9b8e11")
	assert.ErrorIs(t, err, domain.ErrFoodItemNotFound)
}
