package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	ListenAddr  string
	StorageDir  string
	PostgresDSN string

	BrokerURLs  []string
	EventsTopic string

	PageSize int

	TLSExtraHosts []string
	DisableTLS    bool

	OutboxPollInterval   time.Duration
	OutboxInitialBackoff time.Duration
	OutboxMaxBackoff     time.Duration
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "nodegate"
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":3002"
	}

	storageDir := os.Getenv("STORAGE_DIR")
	if storageDir == "" {
		storageDir = "./data"
	}

	topic := os.Getenv("EVENTS_TOPIC")
	if topic == "" {
		topic = "node.events"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("BROKER_URL"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	var extraHosts []string
	for _, value := range strings.Split(os.Getenv("TLS_EXTRA_HOSTS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			extraHosts = append(extraHosts, value)
		}
	}

	return Config{
		ServiceName: service,
		ListenAddr:  addr,
		StorageDir:  storageDir,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		BrokerURLs:  brokers,
		EventsTopic: topic,

		PageSize: envInt("PAGE_SIZE", 100),

		TLSExtraHosts: extraHosts,
		DisableTLS:    envBool("DISABLE_TLS", false),

		OutboxPollInterval:   envDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxInitialBackoff: envDuration("OUTBOX_INITIAL_BACKOFF", 500*time.Millisecond),
		OutboxMaxBackoff:     envDuration("OUTBOX_MAX_BACKOFF", 30*time.Second),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
