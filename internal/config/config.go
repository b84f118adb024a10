package config

import (
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	ListenAddr string
	StaticDir  string

	RedisURL  string
	MsgcatDir string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr: ":3000",
	}

	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ListenAddr = ":" + v
		}
	}
	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}

	cfg.StaticDir = strings.TrimSpace(os.Getenv("STATIC_DIR"))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.MsgcatDir = strings.TrimSpace(os.Getenv("MSGCAT_DIR"))

	return cfg, nil
}
