package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Supported blob store backends.
const (
	StorageBackendMinio = "minio"
	StorageBackendGCS   = "gcs"
)

// Supported cleanup queue backends.
const (
	MQBackendRabbitMQ = "rabbitmq"
	MQBackendPubSub   = "pubsub"
	MQBackendNone     = "none"
)

type Config struct {
	ServerPort int
	JWTSecret  string
	Database   DatabaseConfig
	Storage    StorageConfig
	MQ         MQConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// StorageConfig describes the external blob store and the upload limits
// enforced before any provider call.
type StorageConfig struct {
	Backend string

	// MaxFileBytes is the per-file upload size limit.
	MaxFileBytes int64

	// MaxFilesPerBatch caps how many files one upload request may carry.
	MaxFilesPerBatch int

	// OpTimeout bounds every provider call.
	OpTimeout time.Duration

	Minio MinioConfig
	GCS   GCSConfig
}

type MinioConfig struct {
	Endpoint string
	Bucket   string
	UseSSL   bool
}

type GCSConfig struct {
	Bucket    string
	ProjectID string
}

// MQConfig describes the queue used for out-of-band orphaned blob cleanup.
type MQConfig struct {
	Backend        string
	CleanupChannel string
	RabbitMQ       RabbitMQConfig
	PubSub         PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID       string
	CredentialsFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "shiftnotes"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "shiftnotes_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	storageConfig := StorageConfig{
		Backend:          getEnv("STORAGE_BACKEND", StorageBackendMinio),
		MaxFileBytes:     getEnvInt64("STORAGE_MAX_FILE_BYTES", 50<<20),
		MaxFilesPerBatch: getEnvInt("STORAGE_MAX_FILES_PER_BATCH", 10),
		OpTimeout:        getEnvDuration("STORAGE_OP_TIMEOUT", 30*time.Second),
		Minio: MinioConfig{
			Endpoint: getEnv("MINIO_ENDPOINT", "localhost:9000"),
			Bucket:   getEnv("MINIO_BUCKET", "shiftnotes"),
			UseSSL:   getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			Bucket:    getEnv("GCS_BUCKET", ""),
			ProjectID: getEnv("GCS_PROJECT_ID", ""),
		},
	}

	mqConfig := MQConfig{
		Backend:        getEnv("MQ_BACKEND", MQBackendNone),
		CleanupChannel: getEnv("MQ_CLEANUP_CHANNEL", "blob-cleanup"),
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH_COUNT", 1),
		},
		PubSub: PubSubConfig{
			ProjectID:       getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile: getEnv("PUBSUB_CREDENTIALS_FILE", ""),
		},
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		JWTSecret:  getEnv("JWT_SECRET", ""),
		Database:   dbConfig,
		Storage:    storageConfig,
		MQ:         mqConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int64
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return valueStr == "true" || valueStr == "1"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
