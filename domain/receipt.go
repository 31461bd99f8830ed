package domain

import (
	"errors"
	"time"

	"receipt-resolver-backend/entities"

	"github.com/shopspring/decimal"
)

var (
	MessageSuccessScanReceipt     = "receipt scanned successfully"
	MessageSuccessGetReceipt      = "receipt retrieved successfully"
	MessageSuccessGetReceipts     = "receipts retrieved successfully"
	MessageSuccessDeleteReceipt   = "receipt deleted successfully"
	MessageSuccessConfirmReceipt  = "receipt items imported successfully"
	MessageSuccessGetUnresolved   = "unresolved items retrieved successfully"
	MessageSuccessScanBarcode     = "barcode scan processed"
	MessageSuccessResolveManual   = "item resolved successfully"
	MessageSuccessRetryResolution = "resolution retry completed"
	MessageSuccessGetReceiptStats = "receipt statistics retrieved successfully"

	MessageFailedScanReceipt     = "failed to scan receipt"
	MessageFailedGetReceipt      = "failed to retrieve receipt"
	MessageFailedDeleteReceipt   = "failed to delete receipt"
	MessageFailedConfirmReceipt  = "failed to import receipt items"
	MessageFailedGetUnresolved   = "failed to retrieve unresolved items"
	MessageFailedScanBarcode     = "failed to process barcode scan"
	MessageFailedResolveManual   = "failed to resolve item"
	MessageFailedRetryResolution = "failed to retry resolution"
	MessageFailedGetReceiptStats = "failed to retrieve receipt statistics"

	ErrReceiptNotFound         = errors.New("receipt not found")
	ErrReceiptProcessingFailed = errors.New("receipt processing failed")
	ErrLineItemNotFound        = errors.New("line item index out of range")
	ErrOCRNotConfigured        = errors.New("receipt OCR is not configured")
	ErrEmptyReceiptImage       = errors.New("receipt image is empty")
	ErrAmbiguousResolution     = errors.New("exactly one of food_item_id, create_new or skip must be set")
	ErrInvalidBarcodeFormat    = errors.New("barcode must contain digits")
)

type (
	ReceiptScanRequest struct {
		ImageBase64 string `json:"image_base64" validate:"required"`
		MimeType    string `json:"mime_type" validate:"omitempty"`
		AutoMatch   *bool  `json:"auto_match" validate:"omitempty"`
		AutoResolve *bool  `json:"auto_resolve" validate:"omitempty"`
	}

	// ReceiptScanSummary aggregates per-item resolution outcomes. The
	// counts are always recomputed from line items, never stored.
	ReceiptScanSummary struct {
		TotalItems         int     `json:"total_items"`
		ItemsMatched       int     `json:"items_matched"`
		ItemsUnmatched     int     `json:"items_unmatched"`
		ItemsBarcodeMatch  int     `json:"items_barcode_matched"`
		ItemsNeedsManual   int     `json:"items_needs_manual"`
		ItemsManualEntry   int     `json:"items_manual_entry"`
		ItemsSkipped       int     `json:"items_skipped"`
		ResolutionRate     float64 `json:"resolution_rate"`
		ProcessingTimeMs   float64 `json:"processing_time_ms"`
	}

	ReceiptScanResponse struct {
		ReceiptID string             `json:"receipt_id"`
		Receipt   *entities.Receipt  `json:"receipt,omitempty"`
		Summary   ReceiptScanSummary `json:"summary"`
	}

	UnresolvedItemsResponse struct {
		Total           int                         `json:"total"`
		Resolved        int                         `json:"resolved"`
		Unresolved      int                         `json:"unresolved"`
		ResolutionRate  float64                     `json:"resolution_rate"`
		UnresolvedItems []*entities.ReceiptLineItem `json:"unresolved_items"`
	}

	ScanBarcodeRequest struct {
		Barcode string `json:"barcode" validate:"required"`
	}

	ScanBarcodeResponse struct {
		ProductFound bool                      `json:"product_found"`
		Item         *entities.ReceiptLineItem `json:"item"`
	}

	ResolveManualRequest struct {
		FoodItemID  string `json:"food_item_id" validate:"omitempty,uuid"`
		CreateNew   bool   `json:"create_new"`
		NewItemName string `json:"new_item_name" validate:"omitempty"`
		Barcode     string `json:"barcode" validate:"omitempty"`
		Skip        bool   `json:"skip"`
	}

	RetryResolutionRequest struct {
		ItemIndices []int `json:"item_indices" validate:"omitempty,dive,min=0"`
		// RecomputeCodes forces re-extraction of product codes instead of
		// reusing the codes computed on the previous pass.
		RecomputeCodes bool `json:"recompute_codes"`
	}

	ReceiptConfirmItem struct {
		LineItemIndex int    `json:"line_item_index" validate:"min=0"`
		FoodItemID    string `json:"food_item_id" validate:"omitempty,uuid"`
		Quantity      int    `json:"quantity" validate:"omitempty,min=1"`
		Skip          bool   `json:"skip"`
	}

	ReceiptConfirmRequest struct {
		Items []ReceiptConfirmItem `json:"items" validate:"required,dive"`
	}

	ReceiptConfirmResponse struct {
		ReceiptID     string `json:"receipt_id"`
		ItemsImported int    `json:"items_imported"`
		ItemsSkipped  int    `json:"items_skipped"`
	}

	ReceiptHistoryResponse struct {
		Total    int64               `json:"total"`
		Receipts []*entities.Receipt `json:"receipts"`
	}

	ReceiptStatsResponse struct {
		TotalReceipts     int64           `json:"total_receipts"`
		TotalItemsScanned int64           `json:"total_items_scanned"`
		TotalItemsMatched int64           `json:"total_items_matched"`
		MatchRate         float64         `json:"match_rate"`
		TotalSpent        decimal.Decimal `json:"total_spent"`
		ReceiptsThisMonth int64           `json:"receipts_this_month"`
		MostVisitedStore  string          `json:"most_visited_store,omitempty"`
		Since             *time.Time      `json:"since,omitempty"`
	}
)

// Mode reports which of the three mutually exclusive resolution modes the
// request selects. The second return is false when zero or more than one
// mode is set.
func (r ResolveManualRequest) Mode() (string, bool) {
	modes := 0
	mode := ""
	if r.FoodItemID != "" {
		modes++
		mode = "link"
	}
	if r.CreateNew {
		modes++
		mode = "create"
	}
	if r.Skip {
		modes++
		mode = "skip"
	}
	if modes != 1 {
		return "", false
	}
	return mode, true
}
