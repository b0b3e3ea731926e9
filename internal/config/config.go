package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// NotifyChannel is one configured notification endpoint. Interactive
// approve/reject actions are only attached on the channel flagged as the
// action channel.
type NotifyChannel struct {
	Name          string
	Topic         string
	ActionChannel bool
}

type Database struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
}

// Config is built once at startup and injected into components at
// construction. Nothing reads ambient environment state after Load.
type Config struct {
	Port string

	DB          Database
	RedisAddr   string
	KafkaBroker string
	JWTSecret   string

	// Blob store
	BlobUploadURL    string
	SelfieFolder     string
	DocumentFolder   string
	CheckInFolder    string
	ReceiptFolder    string
	PlaceholderPhoto string

	// Notification routing
	Channels []NotifyChannel

	// Inbound action callbacks
	ActionTopic       string
	ActorNames        map[string]string
	ActorFallbackName string

	// Timings
	DirectoryTTL       time.Duration
	ScanInterval       time.Duration
	OutboxPollInterval time.Duration
}

func Load() (Config, error) {
	cfg := Config{
		Port: getenv("PORT", "3000"),
		DB: Database{
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Port:     getenv("DB_PORT", "5432"),
			SSLMode:  getenv("DB_SSLMODE", "disable"),
		},
		RedisAddr:   getenv("REDIS_ADDR", "localhost:6379"),
		KafkaBroker: os.Getenv("KAFKA_BROKER"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		BlobUploadURL:    os.Getenv("BLOB_UPLOAD_URL"),
		SelfieFolder:     getenv("BLOB_FOLDER_SELFIES", "selfies"),
		DocumentFolder:   getenv("BLOB_FOLDER_DOCUMENTS", "documents"),
		CheckInFolder:    getenv("BLOB_FOLDER_CHECKINS", "checkins"),
		ReceiptFolder:    getenv("BLOB_FOLDER_RECEIPTS", "receipts"),
		PlaceholderPhoto: getenv("PLACEHOLDER_PHOTO_URL", "https://static.go-permit.local/placeholder.png"),

		ActionTopic:       getenv("ACTION_EVENTS_TOPIC", "request-actions"),
		ActorFallbackName: getenv("ACTION_FALLBACK_NAME", "Admin"),

		DirectoryTTL:       getenvDuration("DIRECTORY_TTL", 30*time.Minute),
		ScanInterval:       getenvDuration("ESCALATION_SCAN_INTERVAL", 5*time.Minute),
		OutboxPollInterval: getenvDuration("OUTBOX_POLL_INTERVAL", 3*time.Second),
	}

	channels, err := parseChannels(
		os.Getenv("NOTIFY_CHANNELS"),
		os.Getenv("NOTIFY_ACTION_CHANNEL"),
	)
	if err != nil {
		return Config{}, err
	}
	cfg.Channels = channels
	cfg.ActorNames = parseActorNames(os.Getenv("ACTION_ACTOR_NAMES"))

	return cfg, nil
}

// parseChannels reads "name=topic,name=topic" plus the name of the single
// channel allowed to carry interactive actions.
func parseChannels(raw, actionChannel string) ([]NotifyChannel, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	channels := make([]NotifyChannel, 0, len(parts))
	for _, part := range parts {
		name, topic, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found || name == "" || topic == "" {
			return nil, fmt.Errorf("invalid NOTIFY_CHANNELS entry: %q", part)
		}
		channels = append(channels, NotifyChannel{
			Name:          name,
			Topic:         topic,
			ActionChannel: name == actionChannel,
		})
	}
	return channels, nil
}

// parseActorNames reads "key=Display Name;key2=Other Name".
func parseActorNames(raw string) map[string]string {
	names := make(map[string]string)
	for _, part := range strings.Split(raw, ";") {
		key, name, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found || key == "" || name == "" {
			continue
		}
		names[key] = name
	}
	return names
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// plain integers are read as seconds
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
