package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	JWTSecret   string
	ServerPort  string
	FrontendURL string

	// Multiplayer tunables.
	RoomCapacity     int
	MinPlayers       int
	DisconnectGrace  time.Duration
	ProgressInterval time.Duration
	RoomMaxIdle      time.Duration
}

func Load() *Config {
	return &Config{
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "typingtest"),
		JWTSecret:   getEnv("JWT_SECRET", "super-secret-key-change-me"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		RoomCapacity:     getEnvInt("ROOM_CAPACITY", 5),
		MinPlayers:       getEnvInt("MIN_PLAYERS", 2),
		DisconnectGrace:  getEnvDuration("DISCONNECT_GRACE", 10*time.Second),
		ProgressInterval: getEnvDuration("PROGRESS_INTERVAL", 50*time.Millisecond),
		RoomMaxIdle:      getEnvDuration("ROOM_MAX_IDLE", 30*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
