package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "SESSION_DRIVER", "SESSION_TTL", "STORAGE_DRIVER", "RECEIPT_RECEIVED_BY", "RECEIPT_PHONE", "S3_USE_SSL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8060", cfg.Port)
	assert.Equal(t, SessionDriverRedis, cfg.SessionDriver)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, StorageDriverLocal, cfg.StorageDriver)
	assert.Equal(t, 30*time.Minute, cfg.FileMaxAge)
	assert.Equal(t, "Teresita Portillo", cfg.Receipt.ReceivedBy)
	assert.Equal(t, "6682311921", cfg.Receipt.Phone)
	assert.False(t, cfg.S3.UseSSL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("SESSION_DRIVER", "memory")
	t.Setenv("SESSION_TTL", "15")
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("S3_USE_SSL", "true")
	t.Setenv("S3_URL_EXPIRY", "60")
	t.Setenv("RECEIPT_RECEIVED_BY", "Ana López")
	t.Setenv("SIGNATURE_PATH", "/etc/recibo/firma.png")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, SessionDriverMemory, cfg.SessionDriver)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
	assert.Equal(t, StorageDriverS3, cfg.StorageDriver)
	assert.True(t, cfg.S3.UseSSL)
	assert.Equal(t, time.Hour, cfg.S3.URLExpiry)
	assert.Equal(t, "Ana López", cfg.Receipt.ReceivedBy)
	assert.Equal(t, "/etc/recibo/firma.png", cfg.Receipt.SignaturePath)
}

func TestGetenv(t *testing.T) {
	t.Setenv("RECIBO_TEST_KEY", "")
	assert.Equal(t, "def", getenv("RECIBO_TEST_KEY", "def"))
	t.Setenv("RECIBO_TEST_KEY", "v")
	assert.Equal(t, "v", getenv("RECIBO_TEST_KEY", "def"))
}
