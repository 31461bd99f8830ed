package resolution

import (
	"context"
	"testing"

	"receipt-resolver-backend/domain"
	"receipt-resolver-backend/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeReceiptStore struct {
	receipts   map[string]*entities.Receipt
	savedItems int
}

func newFakeReceiptStore(receipts ...*entities.Receipt) *fakeReceiptStore {
	store := &fakeReceiptStore{receipts: make(map[string]*entities.Receipt)}
	for _, r := range receipts {
		store.receipts[r.ID.String()] = r
	}
	return store
}

func (f *fakeReceiptStore) GetReceiptByID(_ context.Context, id string) (*entities.Receipt, error) {
	receipt, ok := f.receipts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return receipt, nil
}

func (f *fakeReceiptStore) SaveLineItem(_ context.Context, _ *entities.ReceiptLineItem) error {
	f.savedItems++
	return nil
}

func (f *fakeReceiptStore) SaveLineItems(_ context.Context, items []*entities.ReceiptLineItem) error {
	f.savedItems += len(items)
	return nil
}

type fakeCatalog struct {
	items []*entities.FoodItem
}

func (f *fakeCatalog) SearchByName(_ context.Context, _ string, _ int) ([]*entities.FoodItem, error) {
	return f.items, nil
}

func (f *fakeCatalog) GetFoodItemByID(_ context.Context, id string) (domain.FoodItemResponse, error) {
	for _, item := range f.items {
		if item.ID.String() == id {
			return domain.FoodItemResponse{ID: item.ID.String(), Name: item.Name}, nil
		}
	}
	return domain.FoodItemResponse{}, domain.ErrFoodItemNotFound
}

func (f *fakeCatalog) CreateFromResolution(_ context.Context, name, barcode string) (*entities.FoodItem, error) {
	item := &entities.FoodItem{ID: uuid.New(), Name: name, Barcode: barcode}
	f.items = append(f.items, item)
	return item, nil
}

type fakeLookup struct {
	products map[string]*domain.ProductInfo
	calls    int
}

func (f *fakeLookup) Lookup(_ context.Context, code string) (*domain.ProductInfo, error) {
	f.calls++
	return f.products[code], nil
}

func newTestService(store ReceiptStore, catalog CatalogSearcher, lookup ProductLookup) ResolutionService {
	return NewResolutionService(Config{}, store, catalog, lookup)
}

func pendingItem(index int, rawText string) *entities.ReceiptLineItem {
	return &entities.ReceiptLineItem{
		ID:               uuid.New(),
		ItemIndex:        index,
		RawText:          rawText,
		ResolutionStatus: entities.ResolutionPending,
	}
}

func TestResolveLineItem_FuzzyMatch(t *testing.T) {
	banana := &entities.FoodItem{ID: uuid.New(), Name: "Organic Bananas"}
	svc := newTestService(newFakeReceiptStore(), &fakeCatalog{items: []*entities.FoodItem{banana}}, &fakeLookup{})

	item := pendingItem(0, "ORG BAN 2.49")
	svc.ResolveLineItem(context.Background(), item, ResolveOptions{})

	assert.Equal(t, entities.ResolutionFuzzyMatched, item.ResolutionStatus)
	assert.Equal(t, entities.MethodFuzzyMatch, item.ResolutionMethod)
	require.NotNil(t, item.FoodItemID)
	assert.Equal(t, banana.ID, *item.FoodItemID)
	assert.GreaterOrEqual(t, item.MatchConfidence, DefaultMatchThreshold)
	assert.False(t, item.NeedsManualEntry)
	assert.True(t, item.IsMatched())
}

func TestResolveLineItem_BarcodeFallback(t *testing.T) {
	lookup := &fakeLookup{products: map[string]*domain.ProductInfo{
		"011110000125": {Barcode: "011110000125", Name: "Whole Milk", Brand: "Kroger"},
	}}
	svc := newTestService(newFakeReceiptStore(), &fakeCatalog{}, lookup)

	item := pendingItem(0, "KRGR MLK 1GL 011110000125")
	svc.ResolveLineItem(context.Background(), item, ResolveOptions{})

	assert.Equal(t, entities.ResolutionBarcodeMatched, item.ResolutionStatus)
	assert.Equal(t, entities.MethodBarcodeOCR, item.ResolutionMethod)
	assert.Equal(t, "011110000125", item.OFFBarcode)
	assert.Equal(t, "Whole Milk", item.OFFProductName)
	assert.Equal(t, "Kroger", item.OFFBrand)
	assert.Equal(t, 0.95, item.MatchConfidence)
	assert.False(t, item.NeedsManualEntry)
}

func TestResolveLineItem_QueuesManualEntryWithHint(t *testing.T) {
	svc := newTestService(newFakeReceiptStore(), &fakeCatalog{}, &fakeLookup{})

	item := pendingItem(0, "ORG BAN 2.49")
	svc.ResolveLineItem(context.Background(), item, ResolveOptions{})

	assert.Equal(t, entities.ResolutionUnresolved, item.ResolutionStatus)
	assert.True(t, item.NeedsManualEntry)
	assert.Equal(t, "organic ban", item.ManualEntryHint)
	assert.False(t, item.IsMatched())
}

func TestResolveLineItem_SkipFallbacksStopsAfterFuzzy(t *testing.T) {
	lookup := &fakeLookup{products: map[string]*domain.ProductInfo{
		"011110000125": {Barcode: "011110000125", Name: "Whole Milk"},
	}}
	svc := newTestService(newFakeReceiptStore(), &fakeCatalog{}, lookup)

	item := pendingItem(0, "KRGR MLK 1GL 011110000125")
	svc.ResolveLineItem(context.Background(), item, ResolveOptions{SkipFallbacks: true})

	assert.Equal(t, entities.ResolutionPending, item.ResolutionStatus)
	assert.Zero(t, lookup.calls)
	assert.Empty(t, item.ExtractedCodes)
}

func TestResolveLineItem_TerminalStatesUntouched(t *testing.T) {
	banana := &entities.FoodItem{ID: uuid.New(), Name: "Organic Bananas"}
	svc := newTestService(newFakeReceiptStore(), &fakeCatalog{items: []*entities.FoodItem{banana}}, &fakeLookup{})

	for _, status := range []entities.ResolutionStatus{
		entities.ResolutionFuzzyMatched,
		entities.ResolutionBarcodeMatched,
		entities.ResolutionManualEntry,
		entities.ResolutionSkipped,
	} {
		item := pendingItem(0, "ORG BAN 2.49")
		item.ResolutionStatus = status
		svc.ResolveLineItem(context.Background(), item, ResolveOptions{})
		assert.Equal(t, status, item.ResolutionStatus)
		assert.Nil(t, item.FoodItemID)
	}
}

func TestBatchResolve_SummaryMatchesItemStates(t *testing.T) {
	banana := &entities.FoodItem{ID: uuid.New(), Name: "Organic Bananas"}
	lookup := &fakeLookup{products: map[string]*domain.ProductInfo{
		"011110000125": {Barcode: "011110000125", Name: "Whole Milk"},
	}}
	svc := newTestService(newFakeReceiptStore(), &fakeCatalog{items: []*entities.FoodItem{banana}}, lookup)

	skipped := pendingItem(3, "BAG FEE")
	skipped.ResolutionStatus = entities.ResolutionSkipped
	receipt := &entities.Receipt{
		ID:        uuid.New(),
		StoreName: "KROGER #123",
		StoreType: entities.StoreUnknown,
		LineItems: []*entities.ReceiptLineItem{
			pendingItem(0, "ORG BAN 2.49"),
			pendingItem(1, "KRGR MLK 1GL 011110000125"),
			pendingItem(2, "XZQW 9.99"),
			skipped,
		},
	}

	summary := svc.BatchResolve(context.Background(), receipt, ResolveOptions{})

	assert.Equal(t, entities.StoreGrocery, receipt.StoreType)
	assert.Equal(t, 4, summary.TotalItems)
	assert.Equal(t, 1, summary.ItemsMatched)
	assert.Equal(t, 1, summary.ItemsBarcodeMatch)
	assert.Equal(t, 1, summary.ItemsNeedsManual)
	assert.Equal(t, 1, summary.ItemsSkipped)
	assert.Equal(t, 0.5, summary.ResolutionRate)

	// Every item accounted for exactly once.
	total := summary.ItemsMatched + summary.ItemsBarcodeMatch +
		summary.ItemsManualEntry + summary.ItemsUnmatched + summary.ItemsSkipped
	assert.Equal(t, summary.TotalItems, total)
}

func TestGetUnresolved(t *testing.T) {
	matched := pendingItem(0, "MILK")
	matched.ResolutionStatus = entities.ResolutionFuzzyMatched
	unresolved := pendingItem(1, "XZQW")
	unresolved.ResolutionStatus = entities.ResolutionUnresolved

	receipt := &entities.Receipt{
		ID:        uuid.New(),
		LineItems: []*entities.ReceiptLineItem{matched, unresolved},
	}
	svc := newTestService(newFakeReceiptStore(receipt), &fakeCatalog{}, &fakeLookup{})

	res, err := svc.GetUnresolved(context.Background(), receipt.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Resolved)
	assert.Equal(t, 1, res.Unresolved)
	assert.Equal(t, 0.5, res.ResolutionRate)
	require.Len(t, res.UnresolvedItems, 1)
	assert.Equal(t, 1, res.UnresolvedItems[0].ItemIndex)
}

func TestGetUnresolved_ReceiptNotFound(t *testing.T) {
	svc := newTestService(newFakeReceiptStore(), &fakeCatalog{}, &fakeLookup{})

	_, err := svc.GetUnresolved(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrReceiptNotFound)
}

func TestScanBarcode_Hit(t *testing.T) {
	item := pendingItem(0, "MYSTERY ITEM")
	receipt := &entities.Receipt{ID: uuid.New(), LineItems: []*entities.ReceiptLineItem{item}}
	store := newFakeReceiptStore(receipt)
	lookup := &fakeLookup{products: map[string]*domain.ProductInfo{
		"011110000125": {Barcode: "011110000125", Name: "Whole Milk", Brand: "Kroger"},
	}}
	svc := newTestService(store, &fakeCatalog{}, lookup)

	res, err := svc.ScanBarcode(context.Background(), receipt.ID.String(), 0, "0 11110 00012 5")
	require.NoError(t, err)
	assert.True(t, res.ProductFound)
	assert.Equal(t, entities.ResolutionBarcodeMatched, item.ResolutionStatus)
	assert.Equal(t, entities.MethodBarcodeScan, item.ResolutionMethod)
	assert.Equal(t, "011110000125", item.ScannedBarcode)
	assert.Equal(t, 0.95, item.MatchConfidence)
	assert.Equal(t, 1, store.savedItems)
}

func TestScanBarcode_MissLeavesItemUnresolved(t *testing.T) {
	item := pendingItem(0, "MYSTERY ITEM")
	item.ResolutionStatus = entities.ResolutionUnresolved
	item.NeedsManualEntry = true
	receipt := &entities.Receipt{ID: uuid.New(), LineItems: []*entities.ReceiptLineItem{item}}
	store := newFakeReceiptStore(receipt)
	svc := newTestService(store, &fakeCatalog{}, &fakeLookup{})

	res, err := svc.ScanBarcode(context.Background(), receipt.ID.String(), 0, "4011")
	require.NoError(t, err)
	assert.False(t, res.ProductFound)
	assert.Equal(t, entities.ResolutionUnresolved, item.ResolutionStatus)
	assert.True(t, item.NeedsManualEntry)
	assert.Equal(t, "4011", item.ScannedBarcode)
	assert.Equal(t, 1, store.savedItems)
}

func TestScanBarcode_InvalidFormat(t *testing.T) {
	receipt := &entities.Receipt{ID: uuid.New(), LineItems: []*entities.ReceiptLineItem{pendingItem(0, "MILK")}}
	svc := newTestService(newFakeReceiptStore(receipt), &fakeCatalog{}, &fakeLookup{})

	_, err := svc.ScanBarcode(context.Background(), receipt.ID.String(), 0, "not-a-barcode")
	assert.ErrorIs(t, err, domain.ErrInvalidBarcodeFormat)
}

func TestScanBarcode_IndexOutOfRange(t *testing.T) {
	receipt := &entities.Receipt{ID: uuid.New(), LineItems: []*entities.ReceiptLineItem{pendingItem(0, "MILK")}}
	svc := newTestService(newFakeReceiptStore(receipt), &fakeCatalog{}, &fakeLookup{})

	_, err := svc.ScanBarcode(context.Background(), receipt.ID.String(), 5, "4011")
	assert.ErrorIs(t, err, domain.ErrLineItemNotFound)
}

func TestResolveManual_AmbiguousRejected(t *testing.T) {
	receipt := &entities.Receipt{ID: uuid.New(), LineItems: []*entities.ReceiptLineItem{pendingItem(0, "MILK")}}
	svc := newTestService(newFakeReceiptStore(receipt), &fakeCatalog{}, &fakeLookup{})

	reqs := []domain.ResolveManualRequest{
		{},
		{FoodItemID: uuid.NewString(), Skip: true},
		{CreateNew: true, Skip: true},
		{FoodItemID: uuid.NewString(), CreateNew: true, Skip: true},
	}
	for _, req := range reqs {
		_, err := svc.ResolveManual(context.Background(), receipt.ID.String(), 0, req)
		assert.ErrorIs(t, err, domain.ErrAmbiguousResolution)
	}
}

func TestResolveManual_Link(t *testing.T) {
	milk := &entities.FoodItem{ID: uuid.New(), Name: "Whole Milk"}
	item := pendingItem(0, "KRGR MLK")
	item.ResolutionStatus = entities.ResolutionUnresolved
	receipt := &entities.Receipt{ID: uuid.New(), LineItems: []*entities.ReceiptLineItem{item}}
	svc := newTestService(newFakeReceiptStore(receipt), &fakeCatalog{items: []*entities.FoodItem{milk}}, &fakeLookup{})

	resolved, err := svc.ResolveManual(context.Background(), receipt.ID.String(), 0, domain.ResolveManualRequest{
		FoodItemID: milk.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, entities.ResolutionManualEntry, resolved.ResolutionStatus)
	assert.Equal(t, entities.MethodManualLink, resolved.ResolutionMethod)
	require.NotNil(t, resolved.FoodItemID)
	assert.Equal(t, milk.ID, *resolved.FoodItemID)
	assert.Equal(t, "Whole Milk", resolved.FoodItemName)
	assert.False(t, resolved.NeedsManualEntry)
}

func TestResolveManual_LinkUnknownItem(t *testing.T) {
	receipt := &entities.Receipt{ID: uuid.New(), LineItems: []*entities.ReceiptLineItem{pendingItem(0, "MILK")}}
	svc := newTestService(newFakeReceiptStore(receipt), &fakeCatalog{}, &fakeLookup{})

	_, err := svc.ResolveManual(context.Background(), receipt.ID.String(), 0, domain.ResolveManualRequest{
		FoodItemID: uuid.NewString(),
	})
	assert.ErrorIs(t, err, domain.ErrFoodItemNotFound)
}

func TestResolveManual_Create(t *testing.T) {
	catalog := &fakeCatalog{}
	item := pendingItem(0, "OBSCURE SNACK")
	receipt := &entities.Receipt{ID: uuid.New(), LineItems: []*entities.ReceiptLineItem{item}}
	svc := newTestService(newFakeReceiptStore(receipt), catalog, &fakeLookup{})

	resolved, err := svc.ResolveManual(context.Background(), receipt.ID.String(), 0, domain.ResolveManualRequest{
		CreateNew:   true,
		NewItemName: "Obscure Snack",
		Barcode:     "0-1111-0000-12-5",
	})
	require.NoError(t, err)
	assert.Equal(t, entities.ResolutionManualEntry, resolved.ResolutionStatus)
	assert.Equal(t, entities.MethodManualNew, resolved.ResolutionMethod)
	assert.Equal(t, "Obscure Snack", resolved.FoodItemName)
	require.Len(t, catalog.items, 1)
	assert.Equal(t, "011110000125", catalog.items[0].Barcode)
}

func TestResolveManual_Skip(t *testing.T) {
	item := pendingItem(0, "BAG FEE")
	item.ResolutionStatus = entities.ResolutionUnresolved
	item.NeedsManualEntry = true
	receipt := &entities.Receipt{ID: uuid.New(), LineItems: []*entities.ReceiptLineItem{item}}
	svc := newTestService(newFakeReceiptStore(receipt), &fakeCatalog{}, &fakeLookup{})

	resolved, err := svc.ResolveManual(context.Background(), receipt.ID.String(), 0, domain.ResolveManualRequest{Skip: true})
	require.NoError(t, err)
	assert.Equal(t, entities.ResolutionSkipped, resolved.ResolutionStatus)
	assert.Nil(t, resolved.FoodItemID)
	assert.False(t, resolved.NeedsManualEntry)
}

func TestRetryResolution_ResolvesWithGrownCatalog(t *testing.T) {
	catalog := &fakeCatalog{}
	item := pendingItem(0, "ORG BAN 2.49")
	item.ResolutionStatus = entities.ResolutionUnresolved
	item.NeedsManualEntry = true
	receipt := &entities.Receipt{ID: uuid.New(), LineItems: []*entities.ReceiptLineItem{item}}
	store := newFakeReceiptStore(receipt)
	svc := newTestService(store, catalog, &fakeLookup{})

	// Catalog has grown since the first pass.
	catalog.items = append(catalog.items, &entities.FoodItem{ID: uuid.New(), Name: "Organic Bananas"})

	summary, err := svc.RetryResolution(context.Background(), receipt.ID.String(), domain.RetryResolutionRequest{})
	require.NoError(t, err)
	assert.Equal(t, entities.ResolutionFuzzyMatched, item.ResolutionStatus)
	assert.Equal(t, 1, summary.ItemsMatched)
	assert.Equal(t, 1, store.savedItems)
}

func TestRetryResolution_NeverRegressesTerminalItems(t *testing.T) {
	linked := uuid.New()
	item := pendingItem(0, "WHOLE MILK")
	item.ResolutionStatus = entities.ResolutionManualEntry
	item.ResolutionMethod = entities.MethodManualLink
	item.FoodItemID = &linked
	receipt := &entities.Receipt{ID: uuid.New(), LineItems: []*entities.ReceiptLineItem{item}}
	svc := newTestService(newFakeReceiptStore(receipt), &fakeCatalog{}, &fakeLookup{})

	// Explicitly listing a terminal item must not reset it.
	summary, err := svc.RetryResolution(context.Background(), receipt.ID.String(), domain.RetryResolutionRequest{
		ItemIndices: []int{0},
	})
	require.NoError(t, err)
	assert.Equal(t, entities.ResolutionManualEntry, item.ResolutionStatus)
	assert.Equal(t, entities.MethodManualLink, item.ResolutionMethod)
	assert.Equal(t, &linked, item.FoodItemID)
	assert.Equal(t, 1, summary.ItemsManualEntry)
}

func TestRetryResolution_DuplicateIndicesResolveOnce(t *testing.T) {
	item := pendingItem(0, "ORG BAN 2.49")
	item.ResolutionStatus = entities.ResolutionUnresolved
	receipt := &entities.Receipt{ID: uuid.New(), LineItems: []*entities.ReceiptLineItem{item}}
	store := newFakeReceiptStore(receipt)
	catalog := &fakeCatalog{items: []*entities.FoodItem{{ID: uuid.New(), Name: "Organic Bananas"}}}
	svc := newTestService(store, catalog, &fakeLookup{})

	// The same index listed twice must not hand one item to two workers.
	summary, err := svc.RetryResolution(context.Background(), receipt.ID.String(), domain.RetryResolutionRequest{
		ItemIndices: []int{0, 0, 0},
	})
	require.NoError(t, err)
	assert.Equal(t, entities.ResolutionFuzzyMatched, item.ResolutionStatus)
	assert.Equal(t, 1, summary.ItemsMatched)
	assert.Equal(t, 1, store.savedItems)
}

func TestRetryResolution_BadIndex(t *testing.T) {
	receipt := &entities.Receipt{ID: uuid.New(), LineItems: []*entities.ReceiptLineItem{pendingItem(0, "MILK")}}
	svc := newTestService(newFakeReceiptStore(receipt), &fakeCatalog{}, &fakeLookup{})

	_, err := svc.RetryResolution(context.Background(), receipt.ID.String(), domain.RetryResolutionRequest{
		ItemIndices: []int{7},
	})
	assert.ErrorIs(t, err, domain.ErrLineItemNotFound)
}
