package routes

import (
	"receipt-resolver-backend/internal/api/handlers"
	"receipt-resolver-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	App            *fiber.App
	ReceiptHandler handlers.ReceiptHandler
	BarcodeHandler handlers.BarcodeHandler
	CatalogHandler handlers.CatalogHandler
	Middleware     middleware.Middleware
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())

	c.App.Get("/api/ping", func(ctx *fiber.Ctx) error {
		return ctx.SendString("pong")
	})

	api := c.App.Group("/api/v1")

	c.setupReceiptRoutes(api)
	c.setupBarcodeRoutes(api)
	c.setupCatalogRoutes(api)
}

func (c *Config) setupReceiptRoutes(api fiber.Router) {
	receipts := api.Group("/receipts")

	receipts.Post("/scan", c.ReceiptHandler.ScanReceipt)
	receipts.Get("/stats/summary", c.ReceiptHandler.GetReceiptStats)
	receipts.Get("/", c.ReceiptHandler.GetReceiptHistory)
	receipts.Get("/:id", c.ReceiptHandler.GetReceipt)
	receipts.Delete("/:id", c.ReceiptHandler.DeleteReceipt)
	receipts.Post("/:id/confirm", c.ReceiptHandler.ConfirmReceipt)
	receipts.Get("/:id/unresolved", c.ReceiptHandler.GetUnresolved)
	receipts.Post("/:id/items/:index/scan-barcode", c.ReceiptHandler.ScanBarcode)
	receipts.Post("/:id/items/:index/resolve", c.ReceiptHandler.ResolveManual)
	receipts.Post("/:id/retry-resolution", c.ReceiptHandler.RetryResolution)
}

func (c *Config) setupBarcodeRoutes(api fiber.Router) {
	barcode := api.Group("/barcode")

	barcode.Get("/cache/stats", c.BarcodeHandler.CacheStats)
	barcode.Delete("/cache", c.BarcodeHandler.ClearCache)
	barcode.Post("/batch", c.BarcodeHandler.BatchLookup)
	barcode.Get("/:code", c.BarcodeHandler.LookupBarcode)
}

func (c *Config) setupCatalogRoutes(api fiber.Router) {
	items := api.Group("/food-items")

	items.Post("/", c.CatalogHandler.AddFoodItem)
	items.Get("/", c.CatalogHandler.GetFoodItems)
	items.Get("/:id", c.CatalogHandler.GetFoodItem)
}
