package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDB opens the configured database. MySQL for deployments, sqlite for
// local development when no DSN is set.
func InitDB() (*gorm.DB, error) {
	driver := os.Getenv("DB_DRIVER")
	dsn := os.Getenv("DB_DSN")

	switch driver {
	case "mysql":
		if dsn == "" {
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
				os.Getenv("DB_USER"), os.Getenv("DB_PASS"),
				os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_NAME"))
		}
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	default:
		if dsn == "" {
			dsn = "campus_eats.db"
		}
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	}
}

// Reconnect holds the subscriber-side reconnection policy advertised to
// client devices via /api/config.
type Reconnect struct {
	MaxAttempts int           `json:"max_attempts"`
	BaseDelay   time.Duration `json:"base_delay"`
	MaxDelay    time.Duration `json:"max_delay"`
}

// App is the runtime configuration read from the environment once at boot.
type App struct {
	Port           string
	WSPath         string
	MaxRoomMembers int
	Reconnect      Reconnect
}

func Load() App {
	app := App{
		Port:           getenv("PORT", "8080"),
		WSPath:         getenv("WS_PATH", "/ws"),
		MaxRoomMembers: getint("WS_MAX_ROOM_MEMBERS", 0),
		Reconnect: Reconnect{
			MaxAttempts: getint("WS_RECONNECT_ATTEMPTS", 5),
			BaseDelay:   getduration("WS_RECONNECT_BASE_DELAY", time.Second),
			MaxDelay:    getduration("WS_RECONNECT_MAX_DELAY", 5*time.Second),
		},
	}
	return app
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
