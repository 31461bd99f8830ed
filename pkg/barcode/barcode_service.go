package barcode

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"receipt-resolver-backend/domain"

	"github.com/patrickmn/go-cache"
)

const (
	defaultBaseURL = "https://world.openfoodfacts.org/api/v2"
	userAgent      = "receipt-resolver-backend/1.0 (pantry tracking; contact@slxp.app)"

	// Negative entries expire so newly listed products become visible,
	// positive entries are treated as stable reference data.
	notFoundTTL = 24 * time.Hour

	offFields = "code,product_name,brands,quantity,categories_tags,image_url"
)

type (
	// ProductLookup is the capability the resolution chain depends on. The
	// live client and test fakes both satisfy it.
	ProductLookup interface {
		Lookup(ctx context.Context, code string) (*domain.ProductInfo, error)
	}

	BarcodeService interface {
		ProductLookup
		LookupResponse(ctx context.Context, code string) (domain.BarcodeLookupResponse, error)
		LookupBatch(ctx context.Context, barcodes []string) (domain.BatchBarcodeLookupResponse, error)
		CacheStats() domain.BarcodeCacheStats
		ClearCache()
	}

	Config struct {
		BaseURL string
		Timeout time.Duration
	}

	barcodeService struct {
		config     Config
		httpClient *http.Client
		products   *cache.Cache
		notFound   *cache.Cache
	}
)

func NewBarcodeService(config Config) BarcodeService {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}

	return &barcodeService{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		products:   cache.New(cache.NoExpiration, 0),
		notFound:   cache.New(notFoundTTL, notFoundTTL*2),
	}
}

// Lookup returns the product for an exact barcode, or (nil, nil) when no
// product is known. Transport failures and timeouts are logged and also
// reported as "no product" so the resolution chain can fall through.
func (s *barcodeService) Lookup(ctx context.Context, code string) (*domain.ProductInfo, error) {
	code = NormalizeBarcode(code)
	if code == "" {
		return nil, domain.ErrInvalidBarcodeFormat
	}

	if cached, found := s.products.Get(code); found {
		product := cached.(domain.ProductInfo)
		product.Source = "cache"
		return &product, nil
	}

	if _, found := s.notFound.Get(code); found {
		return nil, nil
	}

	product, err := s.fetchFromAPI(ctx, code)
	if err != nil {
		log.Printf("barcode lookup failed for %s: %v", code, err)
		return nil, nil
	}
	if product == nil {
		s.notFound.Set(code, struct{}{}, cache.DefaultExpiration)
		return nil, nil
	}

	// Upsert by code, last writer wins.
	s.products.Set(code, *product, cache.NoExpiration)
	s.notFound.Delete(code)
	return product, nil
}

func (s *barcodeService) LookupResponse(ctx context.Context, code string) (domain.BarcodeLookupResponse, error) {
	start := time.Now()

	product, err := s.Lookup(ctx, code)
	if err != nil {
		return domain.BarcodeLookupResponse{}, err
	}

	return domain.BarcodeLookupResponse{
		Found:        product != nil,
		Barcode:      NormalizeBarcode(code),
		Product:      product,
		LookupTimeMs: float64(time.Since(start).Microseconds()) / 1000,
	}, nil
}

func (s *barcodeService) LookupBatch(ctx context.Context, barcodes []string) (domain.BatchBarcodeLookupResponse, error) {
	start := time.Now()

	response := domain.BatchBarcodeLookupResponse{
		TotalRequested:   len(barcodes),
		Products:         []*domain.ProductInfo{},
		NotFoundBarcodes: []string{},
	}

	for _, code := range barcodes {
		product, err := s.Lookup(ctx, code)
		if err != nil || product == nil {
			response.NotFound++
			response.NotFoundBarcodes = append(response.NotFoundBarcodes, NormalizeBarcode(code))
			continue
		}
		response.Found++
		response.Products = append(response.Products, product)
	}

	response.LookupTimeMs = float64(time.Since(start).Microseconds()) / 1000
	return response, nil
}

func (s *barcodeService) CacheStats() domain.BarcodeCacheStats {
	return domain.BarcodeCacheStats{
		ProductsCached: s.products.ItemCount(),
		KnownNotFound:  s.notFound.ItemCount(),
	}
}

func (s *barcodeService) ClearCache() {
	s.products.Flush()
	s.notFound.Flush()
}

func (s *barcodeService) fetchFromAPI(ctx context.Context, code string) (*domain.ProductInfo, error) {
	url := fmt.Sprintf("%s/product/%s?fields=%s", s.config.BaseURL, code, offFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open food facts returned %s", resp.Status)
	}

	var offResp struct {
		Status  int `json:"status"`
		Product struct {
			ProductName    string   `json:"product_name"`
			Brands         string   `json:"brands"`
			Quantity       string   `json:"quantity"`
			CategoriesTags []string `json:"categories_tags"`
			ImageURL       string   `json:"image_url"`
		} `json:"product"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&offResp); err != nil {
		return nil, err
	}
	if offResp.Status != 1 {
		return nil, nil
	}

	name := offResp.Product.ProductName
	if name == "" {
		name = "Unknown Product"
	}

	return &domain.ProductInfo{
		Barcode:            code,
		Name:               name,
		Brand:              offResp.Product.Brands,
		QuantityDescriptor: offResp.Product.Quantity,
		Categories:         parseCategoryTags(offResp.Product.CategoriesTags),
		ImageURL:           offResp.Product.ImageURL,
		Source:             "api",
	}, nil
}

// parseCategoryTags turns tags like "en:plant-based-foods" into readable
// names, keeping the top five.
func parseCategoryTags(tags []string) []string {
	var categories []string
	for _, tag := range tags {
		if idx := strings.LastIndex(tag, ":"); idx >= 0 {
			tag = tag[idx+1:]
		}
		tag = strings.ReplaceAll(tag, "-", " ")
		if tag == "" {
			continue
		}
		categories = append(categories, titleCase(tag))
		if len(categories) == 5 {
			break
		}
	}
	return categories
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// NormalizeBarcode strips everything but digits.
func NormalizeBarcode(code string) string {
	var b strings.Builder
	for _, c := range code {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
