package handlers

import (
	"receipt-resolver-backend/domain"
	"receipt-resolver-backend/internal/api/presenters"
	"receipt-resolver-backend/pkg/barcode"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	BarcodeHandler interface {
		LookupBarcode(c *fiber.Ctx) error
		BatchLookup(c *fiber.Ctx) error
		CacheStats(c *fiber.Ctx) error
		ClearCache(c *fiber.Ctx) error
	}

	barcodeHandler struct {
		barcodeService barcode.BarcodeService
		validator      *validator.Validate
	}
)

func NewBarcodeHandler(barcodeService barcode.BarcodeService, validator *validator.Validate) BarcodeHandler {
	return &barcodeHandler{
		barcodeService: barcodeService,
		validator:      validator,
	}
}

func (h *barcodeHandler) LookupBarcode(c *fiber.Ctx) error {
	code := c.Params("code")

	res, err := h.barcodeService.LookupResponse(c.Context(), code)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedLookupBarcode, err)
	}

	if !res.Found {
		return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedLookupBarcode, domain.ErrProductNotFound)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessLookupBarcode)
}

func (h *barcodeHandler) BatchLookup(c *fiber.Ctx) error {
	req := new(domain.BatchBarcodeLookupRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBatchLookup, err)
	}

	res, err := h.barcodeService.LookupBatch(c.Context(), req.Barcodes)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBatchLookup, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessBatchLookup)
}

func (h *barcodeHandler) CacheStats(c *fiber.Ctx) error {
	return presenters.SuccessResponse(c, h.barcodeService.CacheStats(), fiber.StatusOK, domain.MessageSuccessCacheStats)
}

func (h *barcodeHandler) ClearCache(c *fiber.Ctx) error {
	h.barcodeService.ClearCache()
	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessClearCache)
}
