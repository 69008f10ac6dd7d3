package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Blob    BlobConfig
	Queue   QueueConfig
	Ingest  IngestConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ShutdownTimeout time.Duration
}

type StoreConfig struct {
	Provider  string // "memory" or "mongo"
	MongoURI  string
	Database  string
	TableName string
	PageLimit int
	MaxLimit  int
}

type BlobConfig struct {
	Provider string // "fs"
	RootDir  string
}

type QueueConfig struct {
	Provider      string // "memory" or "nats"
	NatsURL       string
	NatsToken     string
	Destination   string
	WorkerCount   int
	ChannelBuffer int
	MaxRetries    int
}

type IngestConfig struct {
	BatchSize int
}

type LoggingConfig struct {
	Level string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values")
	}

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Store: StoreConfig{
			Provider:  getEnv("STORE_PROVIDER", "memory"),
			MongoURI:  getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:  getEnv("MONGODB_DATABASE", "loyalty"),
			TableName: getEnv("LOYALTY_CARDS_TABLE_NAME", "loyalty_cards"),
			PageLimit: getIntEnv("LIST_PAGE_LIMIT", 20),
			MaxLimit:  getIntEnv("LIST_MAX_LIMIT", 100),
		},
		Blob: BlobConfig{
			Provider: getEnv("BLOB_PROVIDER", "fs"),
			RootDir:  getEnv("BLOB_ROOT_DIR", "./data/blobs"),
		},
		Queue: QueueConfig{
			Provider:      getEnv("QUEUE_PROVIDER", "memory"),
			NatsURL:       getEnv("NATS_URL", "nats://localhost:4222"),
			NatsToken:     getEnv("NATS_TOKEN", ""),
			Destination:   getEnv("LOYALTY_CARDS_QUEUE_SUBJECT", "loyalty-cards.create"),
			WorkerCount:   getIntEnv("QUEUE_WORKER_COUNT", 10),
			ChannelBuffer: getIntEnv("QUEUE_CHANNEL_BUFFER_SIZE", 1000),
			MaxRetries:    getIntEnv("QUEUE_MAX_RETRIES", 5),
		},
		Ingest: IngestConfig{
			BatchSize: getIntEnv("INGEST_BATCH_SIZE", 1000),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid duration for %s: %s, using default: %s", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}
