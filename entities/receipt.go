package entities

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ResolutionStatus tracks how far a line item has travelled through the
// resolution chain.
type ResolutionStatus string

const (
	ResolutionPending        ResolutionStatus = "pending"
	ResolutionFuzzyMatched   ResolutionStatus = "fuzzy_matched"
	ResolutionBarcodeMatched ResolutionStatus = "barcode_matched"
	ResolutionManualEntry    ResolutionStatus = "manual_entry"
	ResolutionUnresolved     ResolutionStatus = "unresolved"
	ResolutionSkipped        ResolutionStatus = "skipped"
)

// IsTerminal reports whether the status can no longer change through the
// automated chain. Unresolved items stay retryable.
func (s ResolutionStatus) IsTerminal() bool {
	switch s {
	case ResolutionFuzzyMatched, ResolutionBarcodeMatched, ResolutionManualEntry, ResolutionSkipped:
		return true
	case ResolutionPending, ResolutionUnresolved:
		return false
	}
	return false
}

// IsMatched reports whether the item ended up linked to a product.
func (s ResolutionStatus) IsMatched() bool {
	switch s {
	case ResolutionFuzzyMatched, ResolutionBarcodeMatched, ResolutionManualEntry:
		return true
	case ResolutionPending, ResolutionUnresolved, ResolutionSkipped:
		return false
	}
	return false
}

// ResolutionMethod records which strategy resolved an item.
type ResolutionMethod string

const (
	MethodFuzzyMatch  ResolutionMethod = "fuzzy_match"
	MethodBarcodeOCR  ResolutionMethod = "barcode_ocr"
	MethodBarcodeScan ResolutionMethod = "barcode_scan"
	MethodManualLink  ResolutionMethod = "manual_link"
	MethodManualNew   ResolutionMethod = "manual_new"
)

// StoreType classifies the store a receipt came from.
type StoreType string

const (
	StoreGrocery     StoreType = "grocery"
	StoreWarehouse   StoreType = "warehouse"
	StoreSpecialty   StoreType = "specialty"
	StoreConvenience StoreType = "convenience"
	StorePharmacy    StoreType = "pharmacy"
	StoreUnknown     StoreType = "unknown"
)

// ProductCodeType is the format of a code extracted from OCR text.
type ProductCodeType string

const (
	CodeUPCA     ProductCodeType = "upc_a"
	CodeUPCE     ProductCodeType = "upc_e"
	CodeEAN13    ProductCodeType = "ean_13"
	CodeEAN8     ProductCodeType = "ean_8"
	CodePLU      ProductCodeType = "plu"
	CodeStoreSKU ProductCodeType = "store_sku"
)

// ExtractedProductCode is a value object living inside a line item's
// ordered code sequence, never persisted with its own identity.
type ExtractedProductCode struct {
	Code       string          `json:"code"`
	CodeType   ProductCodeType `json:"code_type"`
	Confidence float64         `json:"confidence"`
	SourceText string          `json:"source_text"`
}

// ExtractedCodeList is stored as a single JSONB column so the sequence
// keeps its order and duplicates.
type ExtractedCodeList []ExtractedProductCode

func (l ExtractedCodeList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ExtractedCodeList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return errors.New("unsupported type for ExtractedCodeList")
}

type Receipt struct {
	ID            uuid.UUID           `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	StoreName     string              `json:"store_name,omitempty"`
	StoreAddress  string              `json:"store_address,omitempty"`
	StoreType     StoreType           `gorm:"type:varchar(16);default:'unknown'" json:"store_type"`
	PurchaseDate  *time.Time          `json:"purchase_date,omitempty"`
	Subtotal      decimal.NullDecimal `gorm:"type:numeric" json:"subtotal"`
	Tax           decimal.NullDecimal `gorm:"type:numeric" json:"tax"`
	Total         decimal.NullDecimal `gorm:"type:numeric" json:"total"`
	PaymentMethod string              `json:"payment_method,omitempty"`
	RawText       string              `gorm:"type:text" json:"raw_text,omitempty"`
	ImageURL      string              `json:"image_url,omitempty"`
	OCRConfidence float64             `json:"ocr_confidence"`
	ProcessedAt   *time.Time          `json:"processed_at,omitempty"`

	LineItems []*ReceiptLineItem `gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE" json:"line_items"`
	Timestamp
}

type ReceiptLineItem struct {
	ID              uuid.UUID           `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	ReceiptID       uuid.UUID           `gorm:"type:uuid;index" json:"receipt_id"`
	ItemIndex       int                 `json:"item_index"`
	RawText         string              `gorm:"type:text" json:"raw_text"`
	ParsedName      string              `json:"parsed_name,omitempty"`
	Quantity        int                 `gorm:"default:1" json:"quantity"`
	UnitPrice       decimal.NullDecimal `gorm:"type:numeric" json:"unit_price"`
	TotalPrice      decimal.NullDecimal `gorm:"type:numeric" json:"total_price"`
	FoodItemID      *uuid.UUID          `gorm:"type:uuid" json:"food_item_id,omitempty"`
	FoodItemName    string              `json:"food_item_name,omitempty"`
	MatchConfidence float64             `json:"match_confidence"`
	Category        string              `json:"category,omitempty"`

	ResolutionStatus ResolutionStatus `gorm:"type:varchar(20);default:'pending'" json:"resolution_status"`
	ResolutionMethod ResolutionMethod `gorm:"type:varchar(20)" json:"resolution_method,omitempty"`

	ExtractedCodes ExtractedCodeList `gorm:"type:jsonb" json:"extracted_codes"`
	ScannedBarcode string            `json:"scanned_barcode,omitempty"`

	OFFProductName string `json:"off_product_name,omitempty"`
	OFFBrand       string `json:"off_brand,omitempty"`
	OFFBarcode     string `json:"off_barcode,omitempty"`

	NeedsManualEntry bool   `json:"needs_manual_entry"`
	ManualEntryHint  string `json:"manual_entry_hint,omitempty"`

	Receipt  *Receipt  `gorm:"foreignKey:ReceiptID" json:"-"`
	FoodItem *FoodItem `gorm:"foreignKey:FoodItemID" json:"-"`
	Timestamp
}

// IsMatched is derived from the status rather than stored, so the two can
// never drift apart.
func (i *ReceiptLineItem) IsMatched() bool {
	return i.ResolutionStatus.IsMatched()
}
