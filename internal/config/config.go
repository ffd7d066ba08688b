package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

const (
	SessionDriverRedis  = "redis"
	SessionDriverMemory = "memory"

	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	MaxRetries  int
	PoolSize    int
	DialTimeout int
	Timeout     int
	Prefix      string
}

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	Prefix          string
	URLExpiry       time.Duration
}

type ReceiptConfig struct {
	ReceivedBy    string
	Phone         string
	SignaturePath string
}

type AppConfig struct {
	Port string

	SessionDriver string
	SessionTTL    time.Duration
	Redis         RedisConfig

	StorageDriver     string
	ExportDir         string
	FilesPublicPrefix string
	ExternalURL       string
	FileMaxAge        time.Duration
	CleanupInterval   time.Duration
	S3                S3Config

	Receipt ReceiptConfig
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int value %q: %v", s, err)
	}
	return i
}

func mustBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		log.Fatalf("invalid bool value %q: %v", s, err)
	}
	return b
}

func mustOneOf(key, v string, allowed ...string) string {
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	log.Fatalf("invalid %s %q, expected one of %v", key, v, allowed)
	return ""
}

func minutes(s string) time.Duration {
	return time.Duration(mustAtoi(s)) * time.Minute
}

func Load() AppConfig {
	return AppConfig{
		Port: getenv("APP_PORT", "8060"),

		SessionDriver: mustOneOf("SESSION_DRIVER", getenv("SESSION_DRIVER", SessionDriverRedis), SessionDriverRedis, SessionDriverMemory),
		SessionTTL:    minutes(getenv("SESSION_TTL", "120")),
		Redis: RedisConfig{
			Addr:        getenv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:    getenv("REDIS_PASSWORD", ""),
			DB:          mustAtoi(getenv("REDIS_DB", "0")),
			MaxRetries:  mustAtoi(getenv("REDIS_MAX_RETRIES", "5")),
			PoolSize:    mustAtoi(getenv("REDIS_POOL_SIZE", "10")),
			DialTimeout: mustAtoi(getenv("REDIS_DIAL_TIMEOUT", "10")),
			Timeout:     mustAtoi(getenv("REDIS_TIMEOUT", "5")),
			Prefix:      getenv("REDIS_PREFIX", "recibo_"),
		},

		StorageDriver:     mustOneOf("STORAGE_DRIVER", getenv("STORAGE_DRIVER", StorageDriverLocal), StorageDriverLocal, StorageDriverS3),
		ExportDir:         getenv("EXPORT_DIR", "storage/receipts"),
		FilesPublicPrefix: getenv("FILES_PUBLIC_PREFIX", "/files"),
		ExternalURL:       getenv("EXTERNAL_URL", "http://localhost:8060"),
		FileMaxAge:        minutes(getenv("FILE_MAX_AGE", "30")),
		CleanupInterval:   minutes(getenv("CLEANUP_INTERVAL", "5")),
		S3: S3Config{
			Endpoint:        getenv("S3_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getenv("S3_ACCESS_KEY", "minio"),
			SecretAccessKey: getenv("S3_SECRET_KEY", "minio123"),
			Bucket:          getenv("S3_BUCKET", "receipts"),
			Region:          getenv("S3_REGION", "us-east-1"),
			UseSSL:          mustBool(getenv("S3_USE_SSL", "false")),
			Prefix:          getenv("S3_PREFIX", ""),
			URLExpiry:       minutes(getenv("S3_URL_EXPIRY", "30")),
		},

		Receipt: ReceiptConfig{
			ReceivedBy:    getenv("RECEIPT_RECEIVED_BY", "Teresita Portillo"),
			Phone:         getenv("RECEIPT_PHONE", "6682311921"),
			SignaturePath: getenv("SIGNATURE_PATH", ""),
		},
	}
}
