package handlers

import (
	"errors"
	"strconv"

	"receipt-resolver-backend/domain"
	"receipt-resolver-backend/internal/api/presenters"
	"receipt-resolver-backend/pkg/receipt"
	"receipt-resolver-backend/pkg/resolution"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	ReceiptHandler interface {
		ScanReceipt(c *fiber.Ctx) error
		GetReceipt(c *fiber.Ctx) error
		GetReceiptHistory(c *fiber.Ctx) error
		DeleteReceipt(c *fiber.Ctx) error
		ConfirmReceipt(c *fiber.Ctx) error
		GetReceiptStats(c *fiber.Ctx) error
		GetUnresolved(c *fiber.Ctx) error
		ScanBarcode(c *fiber.Ctx) error
		ResolveManual(c *fiber.Ctx) error
		RetryResolution(c *fiber.Ctx) error
	}

	receiptHandler struct {
		receiptService    receipt.ReceiptService
		resolutionService resolution.ResolutionService
		validator         *validator.Validate
	}
)

func NewReceiptHandler(
	receiptService receipt.ReceiptService,
	resolutionService resolution.ResolutionService,
	validator *validator.Validate,
) ReceiptHandler {
	return &receiptHandler{
		receiptService:    receiptService,
		resolutionService: resolutionService,
		validator:         validator,
	}
}

func (h *receiptHandler) ScanReceipt(c *fiber.Ctx) error {
	req := new(domain.ReceiptScanRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedScanReceipt, err)
	}

	res, err := h.receiptService.ScanReceipt(c.Context(), *req)
	if err != nil {
		if errors.Is(err, domain.ErrOCRNotConfigured) {
			return presenters.ErrorResponse(c, fiber.StatusServiceUnavailable, domain.MessageFailedScanReceipt, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedScanReceipt, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessScanReceipt)
}

func (h *receiptHandler) GetReceipt(c *fiber.Ctx) error {
	receiptID := c.Params("id")

	res, err := h.receiptService.GetReceipt(c.Context(), receiptID)
	if err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedGetReceipt, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetReceipt, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetReceipt)
}

func (h *receiptHandler) GetReceiptHistory(c *fiber.Ctx) error {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	res, err := h.receiptService.GetReceiptHistory(c.Context(), page, limit)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetReceipt, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetReceipts)
}

func (h *receiptHandler) DeleteReceipt(c *fiber.Ctx) error {
	receiptID := c.Params("id")

	if err := h.receiptService.DeleteReceipt(c.Context(), receiptID); err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedDeleteReceipt, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedDeleteReceipt, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeleteReceipt)
}

func (h *receiptHandler) ConfirmReceipt(c *fiber.Ctx) error {
	receiptID := c.Params("id")
	req := new(domain.ReceiptConfirmRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedConfirmReceipt, err)
	}

	res, err := h.receiptService.ConfirmReceipt(c.Context(), receiptID, *req)
	if err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) || errors.Is(err, domain.ErrFoodItemNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedConfirmReceipt, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedConfirmReceipt, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessConfirmReceipt)
}

func (h *receiptHandler) GetReceiptStats(c *fiber.Ctx) error {
	res, err := h.receiptService.GetReceiptStats(c.Context())
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetReceiptStats, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetReceiptStats)
}

func (h *receiptHandler) GetUnresolved(c *fiber.Ctx) error {
	receiptID := c.Params("id")

	res, err := h.resolutionService.GetUnresolved(c.Context(), receiptID)
	if err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedGetUnresolved, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetUnresolved, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetUnresolved)
}

func (h *receiptHandler) ScanBarcode(c *fiber.Ctx) error {
	receiptID := c.Params("id")
	itemIndex, err := strconv.Atoi(c.Params("index"))
	if err != nil || itemIndex < 0 {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedScanBarcode, domain.ErrLineItemNotFound)
	}

	req := new(domain.ScanBarcodeRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedScanBarcode, err)
	}

	res, err := h.resolutionService.ScanBarcode(c.Context(), receiptID, itemIndex, req.Barcode)
	if err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) || errors.Is(err, domain.ErrLineItemNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedScanBarcode, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedScanBarcode, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessScanBarcode)
}

func (h *receiptHandler) ResolveManual(c *fiber.Ctx) error {
	receiptID := c.Params("id")
	itemIndex, err := strconv.Atoi(c.Params("index"))
	if err != nil || itemIndex < 0 {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedResolveManual, domain.ErrLineItemNotFound)
	}

	req := new(domain.ResolveManualRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedResolveManual, err)
	}

	res, err := h.resolutionService.ResolveManual(c.Context(), receiptID, itemIndex, *req)
	if err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) ||
			errors.Is(err, domain.ErrLineItemNotFound) ||
			errors.Is(err, domain.ErrFoodItemNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedResolveManual, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedResolveManual, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessResolveManual)
}

func (h *receiptHandler) RetryResolution(c *fiber.Ctx) error {
	receiptID := c.Params("id")
	req := new(domain.RetryResolutionRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRetryResolution, err)
	}

	res, err := h.resolutionService.RetryResolution(c.Context(), receiptID, *req)
	if err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) || errors.Is(err, domain.ErrLineItemNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedRetryResolution, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRetryResolution, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessRetryResolution)
}
