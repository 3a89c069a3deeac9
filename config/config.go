package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabasePath string
	Timezone     *time.Location

	// How many days of reminder instants to materialize, and the
	// outstanding-request ceiling of the notification queue.
	HorizonDays    int
	NotifyCapacity int

	// Optional Telegram delivery; empty token falls back to log delivery.
	TelegramToken  string
	TelegramChatID int64

	// Optional CalDAV publishing of the shift calendar.
	CalDAVURL      string
	CalDAVUsername string
	CalDAVPassword string
	CalDAVCalendar string

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	dbPath := getEnv("DATABASE_PATH", "./data/shiftwell.db")

	tzName := getEnv("TIMEZONE", "Local")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	horizon, err := getEnvInt("HORIZON_DAYS", 30)
	if err != nil {
		return nil, err
	}
	if horizon < 1 {
		return nil, fmt.Errorf("HORIZON_DAYS must be positive, got %d", horizon)
	}

	capacity, err := getEnvInt("NOTIFY_CAPACITY", 64)
	if err != nil {
		return nil, err
	}
	if capacity < 1 {
		return nil, fmt.Errorf("NOTIFY_CAPACITY must be positive, got %d", capacity)
	}

	var chatID int64
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		chatID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID must be a number: %w", err)
		}
	}

	return &Config{
		DatabasePath:   dbPath,
		Timezone:       tz,
		HorizonDays:    horizon,
		NotifyCapacity: capacity,
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID: chatID,
		CalDAVURL:      os.Getenv("CALDAV_URL"),
		CalDAVUsername: os.Getenv("CALDAV_USERNAME"),
		CalDAVPassword: os.Getenv("CALDAV_PASSWORD"),
		CalDAVCalendar: os.Getenv("CALDAV_CALENDAR"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return n, nil
}
