package receipt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"receipt-resolver-backend/entities"

	"github.com/shopspring/decimal"
)

// OCRProcessor is the document-parsing collaborator. It turns a receipt
// image into a receipt skeleton with raw per-line text; everything past
// that point is this service's job.
type OCRProcessor interface {
	ProcessReceipt(ctx context.Context, image []byte, mimeType string) (*entities.Receipt, error)
}

type httpOCRClient struct {
	serviceURL string
	httpClient *http.Client
}

// NewHTTPOCRClient talks to the external OCR service over a JSON API.
func NewHTTPOCRClient(serviceURL string) OCRProcessor {
	return &httpOCRClient{
		serviceURL: serviceURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *httpOCRClient) ProcessReceipt(ctx context.Context, image []byte, mimeType string) (*entities.Receipt, error) {
	payload, err := json.Marshal(map[string]string{
		"image_base64": base64.StdEncoding.EncodeToString(image),
		"mime_type":    mimeType,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL, bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ocr service error: %s - %s", resp.Status, string(body))
	}

	var ocrResp struct {
		Success       bool    `json:"success"`
		StoreName     string  `json:"store_name"`
		StoreAddress  string  `json:"store_address"`
		PurchaseDate  string  `json:"purchase_date"`
		Subtotal      string  `json:"subtotal"`
		Tax           string  `json:"tax"`
		Total         string  `json:"total"`
		PaymentMethod string  `json:"payment_method"`
		RawText       string  `json:"raw_text"`
		OCRConfidence float64 `json:"ocr_confidence"`
		LineItems     []struct {
			RawText    string `json:"raw_text"`
			ParsedName string `json:"parsed_name"`
			Quantity   int    `json:"quantity"`
			UnitPrice  string `json:"unit_price"`
			TotalPrice string `json:"total_price"`
		} `json:"line_items"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&ocrResp); err != nil {
		return nil, err
	}
	if !ocrResp.Success {
		return nil, fmt.Errorf("ocr service could not parse receipt")
	}

	receipt := &entities.Receipt{
		StoreName:     ocrResp.StoreName,
		StoreAddress:  ocrResp.StoreAddress,
		StoreType:     entities.StoreUnknown,
		Subtotal:      parsePrice(ocrResp.Subtotal),
		Tax:           parsePrice(ocrResp.Tax),
		Total:         parsePrice(ocrResp.Total),
		PaymentMethod: ocrResp.PaymentMethod,
		RawText:       ocrResp.RawText,
		OCRConfidence: ocrResp.OCRConfidence,
	}

	if date := parseDate(ocrResp.PurchaseDate); date != nil {
		receipt.PurchaseDate = date
	}

	for _, li := range ocrResp.LineItems {
		quantity := li.Quantity
		if quantity < 1 {
			quantity = 1
		}
		receipt.LineItems = append(receipt.LineItems, &entities.ReceiptLineItem{
			RawText:          li.RawText,
			ParsedName:       li.ParsedName,
			Quantity:         quantity,
			UnitPrice:        parsePrice(li.UnitPrice),
			TotalPrice:       parsePrice(li.TotalPrice),
			ResolutionStatus: entities.ResolutionPending,
		})
	}

	return receipt, nil
}

func parsePrice(value string) decimal.NullDecimal {
	if value == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

var dateFormats = []string{
	"01/02/2006", "01/02/06",
	"2006-01-02", "2006/01/02",
	"02-01-2006", "02/01/2006",
	"Jan 2, 2006", "January 2, 2006",
}

func parseDate(value string) *time.Time {
	for _, format := range dateFormats {
		if t, err := time.Parse(format, value); err == nil {
			return &t
		}
	}
	return nil
}
