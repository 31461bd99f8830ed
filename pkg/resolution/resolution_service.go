package resolution

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"receipt-resolver-backend/domain"
	"receipt-resolver-backend/entities"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type (
	// ReceiptStore is the slice of receipt persistence the resolution
	// chain needs; pkg/receipt's repository satisfies it.
	ReceiptStore interface {
		GetReceiptByID(ctx context.Context, id string) (*entities.Receipt, error)
		SaveLineItem(ctx context.Context, item *entities.ReceiptLineItem) error
		SaveLineItems(ctx context.Context, items []*entities.ReceiptLineItem) error
	}

	// CatalogSearcher is the catalog capability consumed by the chain
	// and the manual gateway; pkg/catalog's service satisfies it.
	CatalogSearcher interface {
		SearchByName(ctx context.Context, query string, limit int) ([]*entities.FoodItem, error)
		GetFoodItemByID(ctx context.Context, id string) (domain.FoodItemResponse, error)
		CreateFromResolution(ctx context.Context, name, barcode string) (*entities.FoodItem, error)
	}

	// ProductLookup resolves an exact code against the external product
	// database; pkg/barcode's service satisfies it.
	ProductLookup interface {
		Lookup(ctx context.Context, code string) (*domain.ProductInfo, error)
	}

	// ResolveOptions tunes a single resolution pass. SkipFallbacks stops
	// the chain after the fuzzy stage, leaving unmatched items pending;
	// RecomputeCodes discards codes extracted on a previous pass.
	ResolveOptions struct {
		RecomputeCodes bool
		SkipFallbacks  bool
	}

	ResolutionService interface {
		ResolveLineItem(ctx context.Context, item *entities.ReceiptLineItem, opts ResolveOptions)
		BatchResolve(ctx context.Context, receipt *entities.Receipt, opts ResolveOptions) domain.ReceiptScanSummary
		GetUnresolved(ctx context.Context, receiptID string) (domain.UnresolvedItemsResponse, error)
		ScanBarcode(ctx context.Context, receiptID string, itemIndex int, barcode string) (domain.ScanBarcodeResponse, error)
		ResolveManual(ctx context.Context, receiptID string, itemIndex int, req domain.ResolveManualRequest) (*entities.ReceiptLineItem, error)
		RetryResolution(ctx context.Context, receiptID string, req domain.RetryResolutionRequest) (domain.ReceiptScanSummary, error)
	}

	Config struct {
		MatchThreshold    float64
		Workers           int
		CatalogSearchSize int
		LookupTimeout     time.Duration
	}

	resolutionService struct {
		config          Config
		receiptStore    ReceiptStore
		catalog         CatalogSearcher
		lookup          ProductLookup
		extractor       *CodeExtractor
		matcher         *FuzzyMatcher
		storeClassifier *StoreClassifier
	}
)

// scannedBarcodeConfidence applies when the user scanned the physical
// product; a hardware scan is near-certain.
const scannedBarcodeConfidence = 0.95

func NewResolutionService(config Config, receiptStore ReceiptStore, catalog CatalogSearcher, lookup ProductLookup) ResolutionService {
	if config.MatchThreshold == 0 {
		config.MatchThreshold = DefaultMatchThreshold
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.CatalogSearchSize <= 0 {
		config.CatalogSearchSize = 10
	}
	if config.LookupTimeout == 0 {
		config.LookupTimeout = 10 * time.Second
	}

	return &resolutionService{
		config:          config,
		receiptStore:    receiptStore,
		catalog:         catalog,
		lookup:          lookup,
		extractor:       NewCodeExtractor(),
		matcher:         NewFuzzyMatcher(config.MatchThreshold),
		storeClassifier: NewStoreClassifier(),
	}
}

// ResolveLineItem drives one item through the chain: fuzzy match, then
// barcode extraction plus external lookup, then the manual entry queue.
// Items in a terminal state are never touched. Stage failures are normal
// chain outcomes, not errors, so this mutates in place and returns nothing.
func (s *resolutionService) ResolveLineItem(ctx context.Context, item *entities.ReceiptLineItem, opts ResolveOptions) {
	switch item.ResolutionStatus {
	case entities.ResolutionFuzzyMatched, entities.ResolutionBarcodeMatched,
		entities.ResolutionManualEntry, entities.ResolutionSkipped:
		return
	case entities.ResolutionPending, entities.ResolutionUnresolved:
	}

	// Pre-linked by the OCR parse path with enough confidence.
	if item.FoodItemID != nil && item.MatchConfidence >= s.matcher.Threshold() {
		s.markFuzzyMatched(item, item.FoodItemName, *item.FoodItemID, item.MatchConfidence)
		return
	}

	if s.tryFuzzyMatch(ctx, item) {
		return
	}

	if opts.SkipFallbacks {
		return
	}

	if len(item.ExtractedCodes) == 0 || opts.RecomputeCodes {
		searchText := item.RawText
		if item.ParsedName != "" {
			searchText += " " + item.ParsedName
		}
		item.ExtractedCodes = s.extractor.ExtractCodes(searchText)
	}

	if s.tryBarcodeLookup(ctx, item) {
		return
	}

	s.queueForManualEntry(item)
}

func (s *resolutionService) tryFuzzyMatch(ctx context.Context, item *entities.ReceiptLineItem) bool {
	name := item.ParsedName
	if name == "" {
		name = item.RawText
	}
	normalized := NormalizeItemName(name)
	if normalized == "" {
		return false
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.config.LookupTimeout)
	defer cancel()

	candidates, err := s.catalog.SearchByName(searchCtx, normalized, s.config.CatalogSearchSize)
	if err != nil {
		// Catalog search failure degrades to "no match".
		log.Printf("catalog search failed for %q: %v", normalized, err)
		return false
	}

	best := s.matcher.BestMatch(name, candidates)
	if best == nil {
		return false
	}

	s.markFuzzyMatched(item, best.Item.Name, best.Item.ID, best.Score)
	return true
}

// tryBarcodeLookup attempts extracted codes in descending extraction
// confidence; the first external-database hit wins.
func (s *resolutionService) tryBarcodeLookup(ctx context.Context, item *entities.ReceiptLineItem) bool {
	if len(item.ExtractedCodes) == 0 {
		return false
	}

	codes := make([]entities.ExtractedProductCode, len(item.ExtractedCodes))
	copy(codes, item.ExtractedCodes)
	sort.SliceStable(codes, func(i, j int) bool {
		return codes[i].Confidence > codes[j].Confidence
	})

	for _, code := range codes {
		lookupCtx, cancel := context.WithTimeout(ctx, s.config.LookupTimeout)
		product, err := s.lookup.Lookup(lookupCtx, code.Code)
		cancel()
		if err != nil {
			log.Printf("product lookup failed for %s: %v", code.Code, err)
			continue
		}
		if product == nil {
			continue
		}

		item.ResolutionStatus = entities.ResolutionBarcodeMatched
		item.ResolutionMethod = entities.MethodBarcodeOCR
		item.OFFBarcode = code.Code
		item.OFFProductName = product.Name
		item.OFFBrand = product.Brand
		item.FoodItemName = product.Name
		item.MatchConfidence = code.Confidence
		item.NeedsManualEntry = false
		item.ManualEntryHint = ""
		return true
	}
	return false
}

func (s *resolutionService) markFuzzyMatched(item *entities.ReceiptLineItem, name string, foodItemID uuid.UUID, score float64) {
	id := foodItemID
	item.ResolutionStatus = entities.ResolutionFuzzyMatched
	item.ResolutionMethod = entities.MethodFuzzyMatch
	item.FoodItemID = &id
	item.FoodItemName = name
	item.MatchConfidence = score
	item.NeedsManualEntry = false
	item.ManualEntryHint = ""
}

func (s *resolutionService) queueForManualEntry(item *entities.ReceiptLineItem) {
	name := item.ParsedName
	if name == "" {
		name = item.RawText
	}
	item.ResolutionStatus = entities.ResolutionUnresolved
	item.NeedsManualEntry = true
	item.ManualEntryHint = NormalizeItemName(name)
}

// BatchResolve runs the chain over every non-terminal item of a receipt
// with a bounded worker pool. Items are independent, so the only shared
// state is each item's own record; the summary is aggregated read-only
// afterwards.
func (s *resolutionService) BatchResolve(ctx context.Context, receipt *entities.Receipt, opts ResolveOptions) domain.ReceiptScanSummary {
	start := time.Now()

	if receipt.StoreName != "" && receipt.StoreType == entities.StoreUnknown {
		receipt.StoreType = s.storeClassifier.Classify(receipt.StoreName)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for _, item := range receipt.LineItems {
		item := item
		if item.ResolutionStatus.IsTerminal() {
			continue
		}
		g.Go(func() error {
			s.ResolveLineItem(gctx, item, opts)
			return nil
		})
	}
	// Workers never return errors; stage failures become state transitions.
	_ = g.Wait()

	summary := Summarize(receipt.LineItems)
	summary.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000
	return summary
}

// Summarize recomputes receipt-level aggregates as a pure function over
// line items, so counters can never drift from per-item status.
func Summarize(items []*entities.ReceiptLineItem) domain.ReceiptScanSummary {
	summary := domain.ReceiptScanSummary{TotalItems: len(items)}

	for _, item := range items {
		switch item.ResolutionStatus {
		case entities.ResolutionFuzzyMatched:
			summary.ItemsMatched++
		case entities.ResolutionBarcodeMatched:
			summary.ItemsBarcodeMatch++
		case entities.ResolutionManualEntry:
			summary.ItemsManualEntry++
		case entities.ResolutionSkipped:
			summary.ItemsSkipped++
		case entities.ResolutionUnresolved:
			summary.ItemsNeedsManual++
			summary.ItemsUnmatched++
		case entities.ResolutionPending:
			summary.ItemsUnmatched++
		}
	}

	resolved := summary.ItemsMatched + summary.ItemsBarcodeMatch + summary.ItemsManualEntry
	if summary.TotalItems > 0 {
		summary.ResolutionRate = float64(resolved) / float64(summary.TotalItems)
	}
	return summary
}

func (s *resolutionService) GetUnresolved(ctx context.Context, receiptID string) (domain.UnresolvedItemsResponse, error) {
	receipt, err := s.getReceipt(ctx, receiptID)
	if err != nil {
		return domain.UnresolvedItemsResponse{}, err
	}

	unresolved := make([]*entities.ReceiptLineItem, 0)
	resolved := 0
	for _, item := range receipt.LineItems {
		if item.IsMatched() || item.ResolutionStatus == entities.ResolutionSkipped {
			resolved++
			continue
		}
		unresolved = append(unresolved, item)
	}

	total := len(receipt.LineItems)
	response := domain.UnresolvedItemsResponse{
		Total:           total,
		Resolved:        resolved,
		Unresolved:      len(unresolved),
		UnresolvedItems: unresolved,
	}
	if total > 0 {
		response.ResolutionRate = float64(resolved) / float64(total)
	}
	return response, nil
}

// ScanBarcode resolves one item with a user-scanned physical barcode. A
// lookup miss leaves the item queued for manual entry and reports
// product_found=false rather than failing the request.
func (s *resolutionService) ScanBarcode(ctx context.Context, receiptID string, itemIndex int, barcode string) (domain.ScanBarcodeResponse, error) {
	receipt, err := s.getReceipt(ctx, receiptID)
	if err != nil {
		return domain.ScanBarcodeResponse{}, err
	}

	item, err := lineItemAt(receipt, itemIndex)
	if err != nil {
		return domain.ScanBarcodeResponse{}, err
	}

	normalized := normalizeDigits(barcode)
	if normalized == "" {
		return domain.ScanBarcodeResponse{}, domain.ErrInvalidBarcodeFormat
	}
	item.ScannedBarcode = normalized

	lookupCtx, cancel := context.WithTimeout(ctx, s.config.LookupTimeout)
	product, lookupErr := s.lookup.Lookup(lookupCtx, normalized)
	cancel()
	if lookupErr != nil {
		log.Printf("scanned barcode lookup failed for %s: %v", normalized, lookupErr)
	}

	if product != nil {
		item.ResolutionStatus = entities.ResolutionBarcodeMatched
		item.ResolutionMethod = entities.MethodBarcodeScan
		item.OFFBarcode = normalized
		item.OFFProductName = product.Name
		item.OFFBrand = product.Brand
		item.FoodItemName = product.Name
		item.MatchConfidence = scannedBarcodeConfidence
		item.NeedsManualEntry = false
		item.ManualEntryHint = ""
	}

	if err := s.receiptStore.SaveLineItem(ctx, item); err != nil {
		return domain.ScanBarcodeResponse{}, err
	}

	return domain.ScanBarcodeResponse{
		ProductFound: product != nil,
		Item:         item,
	}, nil
}

// ResolveManual applies one user decision: link to an existing catalog
// item, create a new one, or skip. Exactly one mode must be selected.
func (s *resolutionService) ResolveManual(ctx context.Context, receiptID string, itemIndex int, req domain.ResolveManualRequest) (*entities.ReceiptLineItem, error) {
	mode, ok := req.Mode()
	if !ok {
		return nil, domain.ErrAmbiguousResolution
	}

	receipt, err := s.getReceipt(ctx, receiptID)
	if err != nil {
		return nil, err
	}

	item, err := lineItemAt(receipt, itemIndex)
	if err != nil {
		return nil, err
	}

	switch mode {
	case "link":
		foodItem, err := s.catalog.GetFoodItemByID(ctx, req.FoodItemID)
		if err != nil {
			return nil, err
		}
		id, err := uuid.Parse(foodItem.ID)
		if err != nil {
			return nil, domain.ErrParseUUID
		}
		item.ResolutionStatus = entities.ResolutionManualEntry
		item.ResolutionMethod = entities.MethodManualLink
		item.FoodItemID = &id
		item.FoodItemName = foodItem.Name
		item.NeedsManualEntry = false
		item.ManualEntryHint = ""

	case "create":
		created, err := s.catalog.CreateFromResolution(ctx, req.NewItemName, normalizeDigits(req.Barcode))
		if err != nil {
			return nil, err
		}
		id := created.ID
		item.ResolutionStatus = entities.ResolutionManualEntry
		item.ResolutionMethod = entities.MethodManualNew
		item.FoodItemID = &id
		item.FoodItemName = created.Name
		item.NeedsManualEntry = false
		item.ManualEntryHint = ""

	case "skip":
		item.ResolutionStatus = entities.ResolutionSkipped
		item.ResolutionMethod = ""
		item.FoodItemID = nil
		item.FoodItemName = ""
		item.NeedsManualEntry = false
		item.ManualEntryHint = ""
	}

	if err := s.receiptStore.SaveLineItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// RetryResolution re-runs the chain for the requested items, or for every
// pending/unresolved item when no indices are given. Terminal items are
// left untouched even when explicitly listed.
func (s *resolutionService) RetryResolution(ctx context.Context, receiptID string, req domain.RetryResolutionRequest) (domain.ReceiptScanSummary, error) {
	receipt, err := s.getReceipt(ctx, receiptID)
	if err != nil {
		return domain.ReceiptScanSummary{}, err
	}

	var targets []*entities.ReceiptLineItem
	if len(req.ItemIndices) > 0 {
		// Duplicate indices would hand the same item to two workers.
		seen := make(map[int]bool, len(req.ItemIndices))
		for _, idx := range req.ItemIndices {
			if seen[idx] {
				continue
			}
			seen[idx] = true
			item, err := lineItemAt(receipt, idx)
			if err != nil {
				return domain.ReceiptScanSummary{}, err
			}
			targets = append(targets, item)
		}
	} else {
		for _, item := range receipt.LineItems {
			if !item.ResolutionStatus.IsTerminal() {
				targets = append(targets, item)
			}
		}
	}

	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for _, item := range targets {
		item := item
		if item.ResolutionStatus.IsTerminal() {
			continue
		}
		// Retry re-enters the chain from the top.
		item.ResolutionStatus = entities.ResolutionPending
		g.Go(func() error {
			s.ResolveLineItem(gctx, item, ResolveOptions{RecomputeCodes: req.RecomputeCodes})
			return nil
		})
	}
	_ = g.Wait()

	if err := s.receiptStore.SaveLineItems(ctx, targets); err != nil {
		return domain.ReceiptScanSummary{}, err
	}

	summary := Summarize(receipt.LineItems)
	summary.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000
	return summary, nil
}

func (s *resolutionService) getReceipt(ctx context.Context, receiptID string) (*entities.Receipt, error) {
	receipt, err := s.receiptStore.GetReceiptByID(ctx, receiptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReceiptNotFound
		}
		return nil, err
	}
	return receipt, nil
}

func lineItemAt(receipt *entities.Receipt, index int) (*entities.ReceiptLineItem, error) {
	if index < 0 || index >= len(receipt.LineItems) {
		return nil, domain.ErrLineItemNotFound
	}
	return receipt.LineItems[index], nil
}

func normalizeDigits(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
