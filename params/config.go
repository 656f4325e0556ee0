package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Feed struct {
	// URL of the upstream broker WebSocket feed (empty disables the feed client)
	URL string
	// HeartbeatTimeout closes a connection that has not delivered a pong within it
	HeartbeatTimeout time.Duration
	ReconnectDelay   time.Duration
	MaxReconnects    int
}

type Server struct {
	ListenAddr     string
	AllowedOrigins []string
	// SendBuffer is the per-client outbound queue; slow clients past it are dropped
	SendBuffer int
}

type Trading struct {
	// MinQuantityIncrement is the smallest accepted order quantity step
	MinQuantityIncrement decimal.Decimal
}

type Config struct {
	Feed    Feed
	Server  Server
	Trading Trading
}

func Default() Config {
	return Config{
		Feed: Feed{
			URL:              "",
			HeartbeatTimeout: 60 * time.Second,
			ReconnectDelay:   5 * time.Second,
			MaxReconnects:    5,
		},
		Server: Server{
			ListenAddr:     ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
			SendBuffer:     256,
		},
		Trading: Trading{
			MinQuantityIncrement: decimal.RequireFromString("0.01"),
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// Optional .env file
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if url := os.Getenv("FEED_URL"); url != "" {
		cfg.Feed.URL = url
	}
	if v := os.Getenv("FEED_HEARTBEAT_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Feed.HeartbeatTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("FEED_RECONNECT_DELAY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Feed.ReconnectDelay = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("FEED_MAX_RECONNECTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Feed.MaxReconnects = n
		}
	}

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		cfg.Server.ListenAddr = addr
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = strings.Split(origins, ",")
	}
	if v := os.Getenv("WS_SEND_BUFFER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Server.SendBuffer = n
		}
	}

	if v := os.Getenv("MIN_QUANTITY_INCREMENT"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && d.IsPositive() {
			cfg.Trading.MinQuantityIncrement = d
		}
	}

	return cfg
}
