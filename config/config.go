package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/leonardo27oliveira02-spec/garccom-app/database"
	"github.com/leonardo27oliveira02-spec/garccom-app/services"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	AllowedOrigin  string
	TrustedProxies []string
	HSTS           bool

	DBDriver     string
	DBDSN        string
	DBHost       string
	DBPort       int
	DBUser       string
	DBPassword   string
	DBName       string
	MaxOpenConns int

	RedisAddr     string
	RedisPassword string
	SubmissionTTL time.Duration

	JWTSecret string

	StoreCallTimeout time.Duration
	StoreReadRetries int
	MonitorInterval  time.Duration
	ChangeRetention  time.Duration
	Refresh          services.ViewRefresh
	Timezone         string
}

// Load reads .env when present, then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Debug("no .env file loaded")
	}

	refresh := services.DefaultViewRefresh()
	cfg := &Config{
		Port:           GetEnv("PORT", "8080"),
		GinMode:        GetEnv("GIN_MODE", "debug"),
		LogLevel:       GetEnv("LOG_LEVEL", "info"),
		AllowedOrigin:  GetEnv("ALLOWED_ORIGIN", "*"),
		TrustedProxies: splitList(GetEnv("TRUSTED_PROXIES", "127.0.0.1")),
		HSTS:           getBool("HSTS", false),

		DBDriver:     strings.ToLower(GetEnv("DB_DRIVER", "mysql")),
		DBDSN:        GetEnv("DB_DSN", ""),
		DBHost:       GetEnv("DB_HOST", "localhost"),
		DBPort:       getInt("DB_PORT", 3306),
		DBUser:       GetEnv("DB_USER", "root"),
		DBPassword:   GetEnv("DB_PASSWORD", ""),
		DBName:       GetEnv("DB_NAME", "garccom"),
		MaxOpenConns: getInt("DB_MAX_OPEN_CONNS", 20),

		RedisAddr:     GetEnv("REDIS_ADDR", ""),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		SubmissionTTL: getDuration("SUBMISSION_KEY_TTL", 24*time.Hour),

		JWTSecret: GetEnv("JWT_SECRET", ""),

		StoreCallTimeout: getDuration("STORE_CALL_TIMEOUT", 5*time.Second),
		StoreReadRetries: getInt("STORE_READ_RETRIES", 2),
		MonitorInterval:  getDuration("MONITOR_INTERVAL", time.Second),
		ChangeRetention:  getDuration("CHANGE_RETENTION", 24*time.Hour),
		Refresh: services.ViewRefresh{
			Kitchen: getDuration("KITCHEN_REFRESH", refresh.Kitchen),
			Waiter:  getDuration("WAITER_REFRESH", refresh.Waiter),
			Floor:   getDuration("FLOOR_REFRESH", refresh.Floor),
		},
		Timezone: GetEnv("RESTAURANT_TIMEZONE", services.DefaultTimezone),
	}
	return cfg
}

// StoreOptions returns the data store settings.
func (c *Config) StoreOptions() database.Options {
	opts := database.DefaultOptions()
	opts.CallTimeout = c.StoreCallTimeout
	opts.ReadRetries = c.StoreReadRetries
	return opts
}

func (c *Config) mysqlDSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// InitDB opens the configured database and applies the pool settings.
func InitDB(c *Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	var (
		db  *gorm.DB
		err error
	)
	switch c.DBDriver {
	case "mysql":
		db, err = gorm.Open(mysql.Open(c.mysqlDSN()), gormCfg)
	case "sqlite":
		dsn := c.DBDSN
		if dsn == "" {
			dsn = "garccom.db"
		}
		db, err = gorm.Open(sqlite.Open(dsn), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.DBDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if c.DBDriver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
		sqlDB.SetMaxIdleConns(c.MaxOpenConns / 2)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	utils.InfoLogger.Printf("Connected to %s database", c.DBDriver)
	return db, nil
}

// InitRedis returns nil when no address is configured.
func InitRedis(c *Config) *redis.Client {
	if c.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword})
}

// GetEnv returns the variable or fallback when it is unset or empty.
func GetEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(GetEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(GetEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(GetEnv(key, "")); err == nil && v > 0 {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
