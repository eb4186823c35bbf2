package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// Fallback cadence between announces, until the tracker dictates its own.
	AnnounceInterval time.Duration
	// Hard cap on a single announce request so a hung tracker cannot stall
	// the session indefinitely.
	HTTPTimeout time.Duration
	// Target simulated upload speed in bytes per second.
	UploadSpeed uint64
	DB          *DBConfig
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		AnnounceInterval: envSeconds("ANNOUNCE_INTERVAL", 1800),
		HTTPTimeout:      envSeconds("HTTP_TIMEOUT", 30),
		UploadSpeed:      envUint("UPLOAD_SPEED_KB", 100) * 1024,
		DB:               NewDBConfig(),
	}
}

func envSeconds(name string, fallback uint64) time.Duration {
	return time.Duration(envUint(name, fallback)) * time.Second
}

func envUint(name string, fallback uint64) uint64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return fallback
	}
	return v
}

var Main *AppConfig

func init() {
	_ = godotenv.Load()
	Main = NewAppConfig()
}
