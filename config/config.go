package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"quizadmin/localstore"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Port           string
	BindAddress    string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	RedisHost      string
	RedisPort      string
	JWTSecret      string
	LocalStore     string
	BadgerPath     string
	LogFile        string
	AppName        string
	TimeZone       string
	BackupLimit    int
	ImportMaxBytes int64
	LoginRate      float64
	LoginBurst     int
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: reading .env: %v", err)
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		BindAddress:    getEnv("BIND_ADDRESS", "localhost"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "quizadmin"),
		DBPassword:     getEnv("DB_PASSWORD", "quizadmin123"),
		DBName:         getEnv("DB_NAME", "quizadmin"),
		RedisHost:      getEnv("REDIS_HOST", "localhost"),
		RedisPort:      getEnv("REDIS_PORT", "6379"),
		JWTSecret:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		LocalStore:     getEnv("LOCAL_STORE", "badger"),
		BadgerPath:     getEnv("BADGER_PATH", "./data/backups"),
		LogFile:        getEnv("LOG_FILE", ""),
		AppName:        getEnv("APP_NAME", "quiz"),
		TimeZone:       getEnv("TIME_ZONE", "UTC"),
		BackupLimit:    getEnvInt("BACKUP_LIMIT", 5),
		ImportMaxBytes: int64(getEnvInt("IMPORT_MAX_BYTES", 10<<20)),
		LoginRate:      getEnvFloat("LOGIN_RATE", 1),
		LoginBurst:     getEnvInt("LOGIN_BURST", 5),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("warning: %s=%q is not a number, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("warning: %s=%q is not a number, using %g", key, value, defaultValue)
		return defaultValue
	}
	return f
}

// Location resolves TimeZone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		log.Printf("warning: unknown time zone %q, using UTC", c.TimeZone)
		return time.UTC
	}
	return loc
}

// SetupLogging mirrors the standard logger into a rotating file when
// LogFile is set.
func SetupLogging(cfg *Config) io.Closer {
	if cfg.LogFile == "" {
		return io.NopCloser(nil)
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	return rotator
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func InitRedis(cfg *Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		DB:   0,
	})

	return client
}

// InitLocalStore opens the backup store selected by LocalStore.
func InitLocalStore(cfg *Config) (localstore.Store, io.Closer, error) {
	switch cfg.LocalStore {
	case "redis":
		client := InitRedis(cfg)
		return localstore.NewRedisStore(client, cfg.AppName), client, nil
	case "badger", "":
		s, err := localstore.OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		return s, s, nil
	}
	return nil, nil, fmt.Errorf("unknown LOCAL_STORE %q", cfg.LocalStore)
}
