package configs

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

var (
	JWTSecret string
	App       AppConfig
)

// AppConfig dikumpulkan sekali saat boot; semua komponen membaca dari sini.
type AppConfig struct {
	Port string

	DBUser             string
	DBPassword         string
	DBHost             string
	DBPort             string
	DBName             string
	DBSSLMode          string
	DBStatementTimeout time.Duration
	DBTxTimeout        time.Duration // budget transaksi bulk create

	RedisURI         string
	TemplateCacheTTL time.Duration

	Timezone       string
	AssessmentCron string

	PDFServiceURL     string
	PDFServiceTimeout time.Duration
}

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ .env not found, using system ENV")
		} else {
			log.Println("✅ .env loaded")
		}
	} else {
		log.Println("🚀 Running in Railway, using system ENV")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	if JWTSecret == "" {
		log.Println("❌ JWT_SECRET is not set!")
	}

	App = AppConfig{
		Port: GetEnv("PORT", "3000"),

		DBUser:             GetEnv("DB_USER"),
		DBPassword:         GetEnv("DB_PASSWORD"),
		DBHost:             GetEnv("DB_HOST", "localhost"),
		DBPort:             GetEnv("DB_PORT", "5432"),
		DBName:             GetEnv("DB_NAME"),
		DBSSLMode:          GetEnv("DB_SSLMODE", "require"),
		DBStatementTimeout: GetDuration("DB_STATEMENT_TIMEOUT", 30*time.Second),
		DBTxTimeout:        GetDuration("DB_TX_TIMEOUT", 60*time.Second),

		RedisURI:         GetEnv("REDIS_URI"),
		TemplateCacheTTL: GetDuration("TEMPLATE_CACHE_TTL", 30*time.Minute),

		Timezone:       GetEnv("APP_TIMEZONE", "Asia/Jakarta"),
		AssessmentCron: GetEnv("ASSESSMENT_CRON", "5 0 * * *"),

		PDFServiceURL:     GetEnv("PDF_SERVICE_URL"),
		PDFServiceTimeout: GetDuration("PDF_SERVICE_TIMEOUT", 30*time.Second),
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if (!exists || value == "") && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

// GetDuration menerima "45s"/"2m" atau angka polos (detik).
func GetDuration(key string, def time.Duration) time.Duration {
	raw := GetEnv(key)
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	log.Printf("⚠️ %s=%q is not a valid duration, fallback %s", key, raw, def)
	return def
}

// Location mengembalikan timezone aplikasi (dipakai untuk menentukan "hari ini").
func (c AppConfig) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger() gormLogger.Interface {
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      gormLogger.Warn,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	cp := *l
	cp.LogLevel = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		log.Printf("[INFO] "+msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		log.Printf("[WARN] "+msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		log.Printf("[ERROR] "+msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	switch {
	case err != nil && l.LogLevel >= gormLogger.Error:
		log.Printf("[ERROR] %s | %v | %s | %d rows | %s", file, err, elapsed, rows, sql)
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		log.Printf("[SLOW SQL] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	case l.LogLevel >= gormLogger.Info:
		log.Printf("[QUERY] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	}
}
