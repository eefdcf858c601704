package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type Config struct {
	Port                    string
	AllowedOrigin           string
	DatabaseURL             string
	MongoURI                string
	MongoDatabase           string
	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	MenuCacheTTLSeconds     int
	AuthSecret              string
	AccessTokenTTLMinutes   int
	Timezone                string
	LowStockAlertThreshold  int
	LowStockNotifyThreshold int
	StockFloorAtZero        bool
	ConfigFile              string
}

func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGIN", "http://127.0.0.1:3000")
	v.SetDefault("MONGO_DATABASE", "cafe_billing")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MENU_CACHE_TTL_SECONDS", 60)
	v.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 1440)
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("LOW_STOCK_ALERT_THRESHOLD", 20)
	v.SetDefault("LOW_STOCK_NOTIFY_THRESHOLD", 10)
	v.SetDefault("STOCK_FLOOR_AT_ZERO", false)

	// Environment wins over the file, e.g. PORT=9000.
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return v, nil
}

// Load reads defaults, the optional CONFIG_FILE and the environment.
func Load() (Config, error) {
	path := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	v, err := newViper(path)
	if err != nil {
		return Config{}, err
	}
	cfg := fromViper(v)
	cfg.ConfigFile = path
	return cfg, nil
}

// Watch re-reads path whenever it changes on disk and passes the fresh
// config to onChange. It is a no-op when path is empty.
func Watch(path string, onChange func(Config)) error {
	if path == "" {
		return nil
	}
	v, err := newViper(path)
	if err != nil {
		return err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		log.Printf("[config] reloaded %s (%s)", e.Name, e.Op)
		cfg := fromViper(v)
		cfg.ConfigFile = path
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Port:                    v.GetString("PORT"),
		AllowedOrigin:           v.GetString("ALLOWED_ORIGIN"),
		DatabaseURL:             strings.TrimSpace(v.GetString("DATABASE_URL")),
		MongoURI:                strings.TrimSpace(v.GetString("MONGO_URI")),
		MongoDatabase:           v.GetString("MONGO_DATABASE"),
		RedisAddr:               strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:           v.GetString("REDIS_PASSWORD"),
		RedisDB:                 v.GetInt("REDIS_DB"),
		MenuCacheTTLSeconds:     positiveOr(v.GetInt("MENU_CACHE_TTL_SECONDS"), 60),
		AuthSecret:              strings.TrimSpace(v.GetString("AUTH_SECRET")),
		AccessTokenTTLMinutes:   positiveOr(v.GetInt("ACCESS_TOKEN_TTL_MINUTES"), 1440),
		Timezone:                v.GetString("TIMEZONE"),
		LowStockAlertThreshold:  positiveOr(v.GetInt("LOW_STOCK_ALERT_THRESHOLD"), 20),
		LowStockNotifyThreshold: positiveOr(v.GetInt("LOW_STOCK_NOTIFY_THRESHOLD"), 10),
		StockFloorAtZero:        v.GetBool("STOCK_FLOOR_AT_ZERO"),
	}
}

func positiveOr(value int, fallback int) int {
	if value < 1 {
		return fallback
	}
	return value
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}

func (c Config) MenuCacheTTL() time.Duration {
	return time.Duration(c.MenuCacheTTLSeconds) * time.Second
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}
