package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Env string

	DBUser        string
	DBPassword    string
	DBName        string
	DBHost        string
	DBPort        string
	RedisHost     string
	RedisPort     string
	RedisPassword string

	BotToken string

	// AuthoringChatIDs are the staff chats plays and outcomes arrive from.
	// ExchangeChatID additionally accepts cashout lines.
	AuthoringChatIDs []int64
	ExchangeChatID   int64

	// OperatorChatID receives send-failure alerts and crash reports.
	OperatorChatID int64

	MetricsPort string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Env:              getEnv("ENV", "local"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", "postgres"),
		DBName:           getEnv("DB_NAME", "lotbot"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		RedisHost:        getEnv("REDIS_HOST", "localhost"),
		RedisPort:        getEnv("REDIS_PORT", "6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		BotToken:         getEnv("TELEGRAM_BOT_TOKEN", ""),
		AuthoringChatIDs: getEnvInt64List("AUTHORING_CHAT_IDS"),
		ExchangeChatID:   getEnvInt64("EXCHANGE_CHAT_ID", 0),
		OperatorChatID:   getEnvInt64("OPERATOR_CHAT_ID", 0),
		MetricsPort:      getEnv("METRICS_PORT", "9095"),
	}

	// Boot contract: the platform token and the store endpoint are
	// mandatory.
	if cfg.BotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.DBHost == "" || cfg.DBName == "" {
		log.Fatal("database endpoint is required")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return n
}

func getEnvInt64List(key string) []int64 {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(value, ",") {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			log.Fatalf("invalid %s entry %q: %v", key, part, err)
		}
		ids = append(ids, n)
	}
	return ids
}
