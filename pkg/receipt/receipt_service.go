package receipt

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"

	"receipt-resolver-backend/domain"
	"receipt-resolver-backend/entities"
	"receipt-resolver-backend/internal/utils/storage"
	"receipt-resolver-backend/pkg/catalog"
	"receipt-resolver-backend/pkg/resolution"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type (
	ReceiptService interface {
		ScanReceipt(ctx context.Context, req domain.ReceiptScanRequest) (domain.ReceiptScanResponse, error)
		GetReceipt(ctx context.Context, id string) (*entities.Receipt, error)
		GetReceiptHistory(ctx context.Context, page, limit int) (domain.ReceiptHistoryResponse, error)
		DeleteReceipt(ctx context.Context, id string) error
		ConfirmReceipt(ctx context.Context, id string, req domain.ReceiptConfirmRequest) (domain.ReceiptConfirmResponse, error)
		GetReceiptStats(ctx context.Context) (domain.ReceiptStatsResponse, error)
	}

	receiptService struct {
		receiptRepository ReceiptRepository
		resolutionService resolution.ResolutionService
		catalogService    catalog.CatalogService
		ocr               OCRProcessor
		s3                storage.AwsS3
		storeClassifier   *resolution.StoreClassifier
	}
)

func NewReceiptService(
	receiptRepository ReceiptRepository,
	resolutionService resolution.ResolutionService,
	catalogService catalog.CatalogService,
	ocr OCRProcessor,
	s3 storage.AwsS3,
) ReceiptService {
	return &receiptService{
		receiptRepository: receiptRepository,
		resolutionService: resolutionService,
		catalogService:    catalogService,
		ocr:               ocr,
		s3:                s3,
		storeClassifier:   resolution.NewStoreClassifier(),
	}
}

// ScanReceipt runs the whole ingestion flow: decode the image, hand it to
// the OCR collaborator, run the resolution chain over the parsed line
// items, persist the aggregate and return the summary. The scan always
// completes with a summary even when every item ends unresolved.
func (s *receiptService) ScanReceipt(ctx context.Context, req domain.ReceiptScanRequest) (domain.ReceiptScanResponse, error) {
	if s.ocr == nil {
		return domain.ReceiptScanResponse{}, domain.ErrOCRNotConfigured
	}

	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil || len(image) == 0 {
		return domain.ReceiptScanResponse{}, domain.ErrEmptyReceiptImage
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	receipt, err := s.ocr.ProcessReceipt(ctx, image, mimeType)
	if err != nil {
		return domain.ReceiptScanResponse{}, fmt.Errorf("%w: %v", domain.ErrReceiptProcessingFailed, err)
	}

	receipt.ID = uuid.New()
	for i, item := range receipt.LineItems {
		item.ID = uuid.New()
		item.ReceiptID = receipt.ID
		item.ItemIndex = i
	}

	if receipt.StoreName != "" {
		receipt.StoreType = s.storeClassifier.Classify(receipt.StoreName)
	}

	fileName := fmt.Sprintf("receipt-%s", receipt.ID.String())
	objectKey, err := s.s3.UploadBytes(ctx, fileName, image, mimeType, "receipts")
	if err != nil {
		// The image is auxiliary; the parsed receipt is the record.
		log.Printf("receipt image upload failed for %s: %v", receipt.ID, err)
	} else {
		receipt.ImageURL = s.s3.GetPublicLinkKey(objectKey)
	}

	autoMatch := req.AutoMatch == nil || *req.AutoMatch
	autoResolve := req.AutoResolve == nil || *req.AutoResolve

	var summary domain.ReceiptScanSummary
	if autoMatch {
		summary = s.resolutionService.BatchResolve(ctx, receipt, resolution.ResolveOptions{
			SkipFallbacks: !autoResolve,
		})
	} else {
		summary = resolution.Summarize(receipt.LineItems)
	}

	if err := s.receiptRepository.CreateReceipt(ctx, receipt); err != nil {
		if receipt.ImageURL != "" {
			_ = s.s3.DeleteFile(ctx, objectKey)
		}
		return domain.ReceiptScanResponse{}, err
	}

	return domain.ReceiptScanResponse{
		ReceiptID: receipt.ID.String(),
		Receipt:   receipt,
		Summary:   summary,
	}, nil
}

func (s *receiptService) GetReceipt(ctx context.Context, id string) (*entities.Receipt, error) {
	receipt, err := s.receiptRepository.GetReceiptByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReceiptNotFound
		}
		return nil, err
	}
	return receipt, nil
}

func (s *receiptService) GetReceiptHistory(ctx context.Context, page, limit int) (domain.ReceiptHistoryResponse, error) {
	receipts, count, err := s.receiptRepository.GetReceipts(ctx, page, limit)
	if err != nil {
		return domain.ReceiptHistoryResponse{}, err
	}
	return domain.ReceiptHistoryResponse{
		Total:    count,
		Receipts: receipts,
	}, nil
}

// DeleteReceipt removes the receipt, its line items (cascade) and its
// stored image.
func (s *receiptService) DeleteReceipt(ctx context.Context, id string) error {
	receipt, err := s.GetReceipt(ctx, id)
	if err != nil {
		return err
	}

	if receipt.ImageURL != "" {
		if objectKey := s.s3.GetObjectKeyFromLink(receipt.ImageURL); objectKey != "" {
			_ = s.s3.DeleteFile(ctx, objectKey)
		}
	}

	return s.receiptRepository.DeleteReceipt(ctx, id)
}

// ConfirmReceipt imports confirmed line items by linking them to catalog
// entries. Skipped items are excluded from the import and marked so the
// chain leaves them alone.
func (s *receiptService) ConfirmReceipt(ctx context.Context, id string, req domain.ReceiptConfirmRequest) (domain.ReceiptConfirmResponse, error) {
	receipt, err := s.GetReceipt(ctx, id)
	if err != nil {
		return domain.ReceiptConfirmResponse{}, err
	}

	response := domain.ReceiptConfirmResponse{ReceiptID: id}

	var updated []*entities.ReceiptLineItem
	for _, confirmation := range req.Items {
		if confirmation.LineItemIndex < 0 || confirmation.LineItemIndex >= len(receipt.LineItems) {
			return domain.ReceiptConfirmResponse{}, domain.ErrLineItemNotFound
		}
		item := receipt.LineItems[confirmation.LineItemIndex]

		if confirmation.Skip {
			item.ResolutionStatus = entities.ResolutionSkipped
			item.ResolutionMethod = ""
			item.FoodItemID = nil
			item.FoodItemName = ""
			item.NeedsManualEntry = false
			updated = append(updated, item)
			response.ItemsSkipped++
			continue
		}

		if confirmation.FoodItemID == "" {
			continue
		}

		foodItem, err := s.catalogService.GetFoodItemByID(ctx, confirmation.FoodItemID)
		if err != nil {
			return domain.ReceiptConfirmResponse{}, err
		}
		foodItemID, err := uuid.Parse(foodItem.ID)
		if err != nil {
			return domain.ReceiptConfirmResponse{}, domain.ErrParseUUID
		}
		item.FoodItemID = &foodItemID
		item.FoodItemName = foodItem.Name
		if confirmation.Quantity > 0 {
			item.Quantity = confirmation.Quantity
		}
		if !item.ResolutionStatus.IsMatched() {
			item.ResolutionStatus = entities.ResolutionManualEntry
			item.ResolutionMethod = entities.MethodManualLink
			item.NeedsManualEntry = false
		}
		updated = append(updated, item)
		response.ItemsImported++
	}

	if err := s.receiptRepository.SaveLineItems(ctx, updated); err != nil {
		return domain.ReceiptConfirmResponse{}, err
	}
	return response, nil
}

func (s *receiptService) GetReceiptStats(ctx context.Context) (domain.ReceiptStatsResponse, error) {
	stats, err := s.receiptRepository.GetReceiptStats(ctx)
	if err != nil {
		return domain.ReceiptStatsResponse{}, err
	}

	totalItems := stats["total_items"].(int64)
	matchedItems := stats["matched_items"].(int64)

	response := domain.ReceiptStatsResponse{
		TotalReceipts:     stats["total_receipts"].(int64),
		TotalItemsScanned: totalItems,
		TotalItemsMatched: matchedItems,
		TotalSpent:        decimal.NewFromFloat(stats["total_spent"].(float64)),
		ReceiptsThisMonth: stats["receipts_this_month"].(int64),
		MostVisitedStore:  stats["most_visited_store"].(string),
	}
	if totalItems > 0 {
		response.MatchRate = float64(matchedItems) / float64(totalItems)
	}
	return response, nil
}
