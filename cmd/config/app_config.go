package config

import (
	"os"
	"strconv"
	"time"

	"receipt-resolver-backend/internal/api/handlers"
	"receipt-resolver-backend/internal/api/routes"
	"receipt-resolver-backend/internal/middleware"
	"receipt-resolver-backend/internal/utils"
	"receipt-resolver-backend/internal/utils/storage"
	"receipt-resolver-backend/pkg/barcode"
	"receipt-resolver-backend/pkg/catalog"
	"receipt-resolver-backend/pkg/receipt"
	"receipt-resolver-backend/pkg/resolution"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

func NewApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
		BodyLimit:         16 * 1024 * 1024,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// utils
	s3 := storage.NewAwsS3()

	// Repository
	receiptRepository := receipt.NewReceiptRepository(db)
	catalogRepository := catalog.NewCatalogRepository(db)

	// Service
	catalogService := catalog.NewCatalogService(catalogRepository)
	barcodeService := barcode.NewBarcodeService(barcode.Config{
		BaseURL: utils.GetConfig("OFF_BASE_URL"),
		Timeout: configSeconds("OFF_TIMEOUT_SECONDS"),
	})
	resolutionService := resolution.NewResolutionService(
		resolution.Config{
			MatchThreshold: configFloat("MATCH_THRESHOLD"),
			Workers:        configInt("RESOLVER_WORKERS"),
		},
		receiptRepository,
		catalogService,
		barcodeService,
	)

	var ocr receipt.OCRProcessor
	if url := utils.GetConfig("OCR_SERVICE_URL"); url != "" {
		ocr = receipt.NewHTTPOCRClient(url)
	}
	receiptService := receipt.NewReceiptService(
		receiptRepository,
		resolutionService,
		catalogService,
		ocr,
		s3,
	)

	// Handler
	receiptHandler := handlers.NewReceiptHandler(receiptService, resolutionService, validator)
	barcodeHandler := handlers.NewBarcodeHandler(barcodeService, validator)
	catalogHandler := handlers.NewCatalogHandler(catalogService, validator)

	// routes
	routesConfig := routes.Config{
		App:            app,
		ReceiptHandler: receiptHandler,
		BarcodeHandler: barcodeHandler,
		CatalogHandler: catalogHandler,
		Middleware:     middlewares,
	}
	routesConfig.Setup()
	return app, nil
}

func configSeconds(key string) time.Duration {
	n, err := strconv.Atoi(utils.GetConfig(key))
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func configInt(key string) int {
	n, err := strconv.Atoi(utils.GetConfig(key))
	if err != nil {
		return 0
	}
	return n
}

func configFloat(key string) float64 {
	f, err := strconv.ParseFloat(utils.GetConfig(key), 64)
	if err != nil {
		return 0
	}
	return f
}
