package utils

import (
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	// Server
	AppPort string `yaml:"APP_PORT"`

	// Database configuration
	DBUser     string `yaml:"DB_USER"`
	DBName     string `yaml:"DB_NAME"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBPort     string `yaml:"DB_PORT"`
	DBHost     string `yaml:"DB_HOST"`

	// Open Food Facts
	OFFBaseURL        string `yaml:"OFF_BASE_URL"`
	OFFTimeoutSeconds string `yaml:"OFF_TIMEOUT_SECONDS"`

	// Resolution tuning
	MatchThreshold  string `yaml:"MATCH_THRESHOLD"`
	ResolverWorkers string `yaml:"RESOLVER_WORKERS"`

	// AWS S3 configuration (receipt image storage)
	AWSS3Bucket  string `yaml:"AWS_S3_BUCKET"`
	AWSS3Region  string `yaml:"AWS_S3_REGION"`
	AWSAccessKey string `yaml:"AWS_ACCESS_KEY"`
	AWSSecretKey string `yaml:"AWS_SECRET_KEY"`

	// OCR collaborator
	OCRServiceURL string `yaml:"OCR_SERVICE_URL"`
}

var config Config

func LoadConfig() {
	file, err := os.ReadFile("config.yaml")
	if err != nil {
		log.Printf("Error reading YAML file: %s\n", err)
		return
	}

	err = yaml.Unmarshal(file, &config)
	if err != nil {
		log.Printf("Error parsing YAML file: %s\n", err)
		return
	}
}

func GetConfig(key string) string {
	switch key {
	case "APP_PORT":
		return config.AppPort
	case "DB_USER":
		return config.DBUser
	case "DB_NAME":
		return config.DBName
	case "DB_PASSWORD":
		return config.DBPassword
	case "DB_PORT":
		return config.DBPort
	case "DB_HOST":
		return config.DBHost
	case "OFF_BASE_URL":
		return config.OFFBaseURL
	case "OFF_TIMEOUT_SECONDS":
		return config.OFFTimeoutSeconds
	case "MATCH_THRESHOLD":
		return config.MatchThreshold
	case "RESOLVER_WORKERS":
		return config.ResolverWorkers
	case "AWS_S3_BUCKET":
		return config.AWSS3Bucket
	case "AWS_S3_REGION":
		return config.AWSS3Region
	case "AWS_ACCESS_KEY":
		return config.AWSAccessKey
	case "AWS_SECRET_KEY":
		return config.AWSSecretKey
	case "OCR_SERVICE_URL":
		return config.OCRServiceURL
	default:
		return ""
	}
}
