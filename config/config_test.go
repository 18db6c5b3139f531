package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("MQ_BACKEND", "")
	t.Setenv("MQ_POST_EVENTS_CHANNEL", "post-events")
	t.Setenv("CORS_ALLOWED_ORIGINS", " , ")
	t.Setenv("TOKEN_TTL", "not-a-duration")

	cfg := LoadConfig()

	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, MQBackendNone, cfg.MQ.Backend)
	assert.Equal(t, "post-events", cfg.MQ.PostEventsChannel)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_SECRET", "  s3cret  ")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://connectsphere.example")
	t.Setenv("STORE_BACKEND", "Mongo")
	t.Setenv("STORAGE_BACKEND", "MINIO")
	t.Setenv("MQ_BACKEND", "nats")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("MAX_IMAGE_BYTES", "1024")
	t.Setenv("CONNECTSPHERE_API", "http://api.example/")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"http://localhost:5173", "https://connectsphere.example"}, cfg.AllowedOrigins)
	assert.Equal(t, StoreBackendMongo, cfg.StoreBackend)
	assert.Equal(t, StorageBackendMinio, cfg.Storage.Backend)
	assert.Equal(t, MQBackendNATS, cfg.MQ.Backend)
	assert.True(t, cfg.Database.UseSSL)
	assert.Equal(t, int64(1024), cfg.MaxImageBytes)
	assert.Equal(t, "http://api.example", cfg.Client.APIBaseURL)
}
