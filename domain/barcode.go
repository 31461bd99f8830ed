package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessLookupBarcode = "product lookup completed"
	MessageSuccessBatchLookup   = "batch lookup completed"
	MessageSuccessCacheStats    = "cache statistics retrieved successfully"
	MessageSuccessClearCache    = "barcode cache cleared"

	MessageFailedLookupBarcode = "failed to look up product"
	MessageFailedBatchLookup   = "failed to run batch lookup"
	MessageFailedCacheStats    = "failed to retrieve cache statistics"

	ErrProductNotFound = errors.New("product not found")
)

type (
	// ProductInfo is the normalized result of an external product lookup.
	// Missing fields stay empty rather than being invented.
	ProductInfo struct {
		Barcode            string   `json:"barcode"`
		Name               string   `json:"name"`
		Brand              string   `json:"brand,omitempty"`
		QuantityDescriptor string   `json:"quantity,omitempty"`
		Categories         []string `json:"categories,omitempty"`
		ImageURL           string   `json:"image_url,omitempty"`
		Source             string   `json:"source"` // "cache" or "api"
	}

	BarcodeLookupResponse struct {
		Found        bool         `json:"found"`
		Barcode      string       `json:"barcode"`
		Product      *ProductInfo `json:"product,omitempty"`
		LookupTimeMs float64      `json:"lookup_time_ms"`
	}

	BatchBarcodeLookupRequest struct {
		Barcodes []string `json:"barcodes" validate:"required,min=1,max=50,dive,required"`
	}

	BatchBarcodeLookupResponse struct {
		TotalRequested   int            `json:"total_requested"`
		Found            int            `json:"found"`
		NotFound         int            `json:"not_found"`
		Products         []*ProductInfo `json:"products"`
		NotFoundBarcodes []string       `json:"not_found_barcodes"`
		LookupTimeMs     float64        `json:"lookup_time_ms"`
	}

	BarcodeCacheStats struct {
		ProductsCached int        `json:"products_cached"`
		KnownNotFound  int        `json:"known_not_found"`
		OldestEntry    *time.Time `json:"oldest_entry,omitempty"`
	}
)
