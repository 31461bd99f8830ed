package receipt

import (
	"context"
	"time"

	"receipt-resolver-backend/entities"

	"gorm.io/gorm"
)

type (
	ReceiptRepository interface {
		CreateReceipt(ctx context.Context, receipt *entities.Receipt) error
		GetReceiptByID(ctx context.Context, id string) (*entities.Receipt, error)
		GetReceipts(ctx context.Context, page, limit int) ([]*entities.Receipt, int64, error)
		SaveReceipt(ctx context.Context, receipt *entities.Receipt) error
		DeleteReceipt(ctx context.Context, id string) error
		SaveLineItem(ctx context.Context, item *entities.ReceiptLineItem) error
		SaveLineItems(ctx context.Context, items []*entities.ReceiptLineItem) error
		GetReceiptStats(ctx context.Context) (map[string]interface{}, error)
	}

	receiptRepository struct {
		db *gorm.DB
	}
)

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) CreateReceipt(ctx context.Context, receipt *entities.Receipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *receiptRepository) GetReceiptByID(ctx context.Context, id string) (*entities.Receipt, error) {
	var receipt entities.Receipt
	if err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("item_index asc")
		}).
		Where("id = ?", id).
		First(&receipt).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) GetReceipts(ctx context.Context, page, limit int) ([]*entities.Receipt, int64, error) {
	var receipts []*entities.Receipt
	var count int64

	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).Model(&entities.Receipt{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("item_index asc")
		}).
		Offset(offset).Limit(limit).
		Order("created_at desc").
		Find(&receipts).Error; err != nil {
		return nil, 0, err
	}

	return receipts, count, nil
}

func (r *receiptRepository) SaveReceipt(ctx context.Context, receipt *entities.Receipt) error {
	return r.db.WithContext(ctx).Save(receipt).Error
}

// DeleteReceipt removes a receipt together with its line items. The FK
// carries ON DELETE CASCADE, the Select covers soft-delete bookkeeping.
func (r *receiptRepository) DeleteReceipt(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Select("LineItems").
		Delete(&entities.Receipt{}, "id = ?", id).Error
}

func (r *receiptRepository) SaveLineItem(ctx context.Context, item *entities.ReceiptLineItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *receiptRepository) SaveLineItems(ctx context.Context, items []*entities.ReceiptLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(items).Error
}

func (r *receiptRepository) GetReceiptStats(ctx context.Context) (map[string]interface{}, error) {
	var totalReceipts, totalItems, matchedItems, receiptsThisMonth int64

	if err := r.db.WithContext(ctx).Model(&entities.Receipt{}).
		Count(&totalReceipts).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(&entities.ReceiptLineItem{}).
		Count(&totalItems).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(&entities.ReceiptLineItem{}).
		Where("resolution_status IN ?", []entities.ResolutionStatus{
			entities.ResolutionFuzzyMatched,
			entities.ResolutionBarcodeMatched,
			entities.ResolutionManualEntry,
		}).
		Count(&matchedItems).Error; err != nil {
		return nil, err
	}

	monthStart := time.Now().AddDate(0, 0, -30)
	if err := r.db.WithContext(ctx).Model(&entities.Receipt{}).
		Where("created_at >= ?", monthStart).
		Count(&receiptsThisMonth).Error; err != nil {
		return nil, err
	}

	var totalSpent float64
	if err := r.db.WithContext(ctx).Model(&entities.Receipt{}).
		Select("COALESCE(SUM(total), 0)").
		Scan(&totalSpent).Error; err != nil {
		return nil, err
	}

	var mostVisited struct {
		StoreName string
		Visits    int64
	}
	err := r.db.WithContext(ctx).Model(&entities.Receipt{}).
		Select("store_name, COUNT(*) as visits").
		Where("store_name <> ''").
		Group("store_name").
		Order("visits desc").
		Limit(1).
		Scan(&mostVisited).Error
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"total_receipts":      totalReceipts,
		"total_items":         totalItems,
		"matched_items":       matchedItems,
		"receipts_this_month": receiptsThisMonth,
		"total_spent":         totalSpent,
		"most_visited_store":  mostVisited.StoreName,
	}, nil
}
