package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Feed source kinds
const (
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

type Config struct {
	Feed     FeedConfig
	Analysis AnalysisConfig
	Report   ReportConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Metrics  MetricsConfig
	SMTP     SMTPConfig
	Schedule ScheduleConfig
	Mirror   MirrorConfig
	Log      LogConfig
}

type FeedConfig struct {
	Source           string
	BaseURL          string
	Username         string
	Key              string
	UserAgent        string
	TemperatureFeed  string
	IlluminationFeed string
	Limit            int
	Timeout          time.Duration
}

type AnalysisConfig struct {
	Clusters       int
	Seed           int64
	AlignStrategy  string
	AlignTolerance time.Duration
	RulesFile      string
}

type ReportConfig struct {
	OutputDir   string
	ReportFile  string
	ScatterFile string
	TrendFile   string
	TrendWindow int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// RedisConfig enables the run lock when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// KafkaConfig enables report events when Brokers is non-empty.
type KafkaConfig struct {
	Brokers      []string
	TopicReports string
}

type MetricsConfig struct {
	PushgatewayURL string
	Job            string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

type ScheduleConfig struct {
	DailyTime string
}

// MirrorConfig controls the HTTP to Postgres copy job. A zero Interval
// copies once and exits.
type MirrorConfig struct {
	Interval      time.Duration
	MigrationsDir string
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	config := &Config{
		Feed: FeedConfig{
			Source:           getEnv("FEED_SOURCE", SourceHTTP),
			BaseURL:          getEnv("AIO_BASE_URL", "https://io.adafruit.com/api/v2"),
			Username:         getEnv("AIO_USERNAME", ""),
			Key:              getEnv("AIO_KEY", ""),
			UserAgent:        getEnv("FEED_USER_AGENT", "farm-report/1.0"),
			TemperatureFeed:  getEnv("FEED_TEMPERATURE", "temperatura"),
			IlluminationFeed: getEnv("FEED_ILLUMINATION", "iluminacion"),
			Limit:            getEnvAsInt("FEED_LIMIT", 100),
			Timeout:          getEnvAsDuration("FEED_TIMEOUT", 15*time.Second),
		},
		Analysis: AnalysisConfig{
			Clusters:       getEnvAsInt("CLUSTER_COUNT", 3),
			Seed:           int64(getEnvAsInt("CLUSTER_SEED", 42)),
			AlignStrategy:  getEnv("ALIGN_STRATEGY", "positional"),
			AlignTolerance: getEnvAsDuration("ALIGN_TOLERANCE", 2*time.Minute),
			RulesFile:      getEnv("RULES_FILE", ""),
		},
		Report: ReportConfig{
			OutputDir:   getEnv("REPORT_DIR", "."),
			ReportFile:  getEnv("REPORT_FILE", "report.html"),
			ScatterFile: getEnv("REPORT_SCATTER_FILE", "clusters.png"),
			TrendFile:   getEnv("REPORT_TREND_FILE", "trend.png"),
			TrendWindow: getEnvAsInt("REPORT_TREND_WINDOW", 5),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "farm_user"),
			Password: getEnv("DB_PASSWORD", "farm_pass"),
			DBName:   getEnv("DB_NAME", "farm_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			LockTTL:  getEnvAsDuration("REDIS_LOCK_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:      splitList(getEnv("KAFKA_BROKERS", "")),
			TopicReports: getEnv("KAFKA_TOPIC_REPORTS", "farm.reports"),
		},
		Metrics: MetricsConfig{
			PushgatewayURL: getEnv("METRICS_PUSHGATEWAY_URL", ""),
			Job:            getEnv("METRICS_JOB", "farm_report"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "farm-report@example.com"),
			To:       getEnv("SMTP_TO", "admin@example.com"),
		},
		Schedule: ScheduleConfig{
			DailyTime: getEnv("REPORT_DAILY_TIME", "06:00"),
		},
		Mirror: MirrorConfig{
			Interval:      getEnvAsDuration("MIRROR_INTERVAL", 0),
			MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
			File:   getEnv("LOG_FILE", ""),
		},
	}

	return config, nil
}

// Validate checks the settings the report entry points depend on. Load
// does not call it so services that never read feeds can start without
// feed credentials.
func (c *Config) Validate() error {
	var errs []error

	switch c.Feed.Source {
	case SourceHTTP:
		if c.Feed.Username == "" || c.Feed.Key == "" {
			errs = append(errs, errors.New("AIO_USERNAME and AIO_KEY are required for the http feed source"))
		}
	case SourcePostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown FEED_SOURCE %q", c.Feed.Source))
	}

	if c.Feed.TemperatureFeed == "" || c.Feed.IlluminationFeed == "" {
		errs = append(errs, errors.New("FEED_TEMPERATURE and FEED_ILLUMINATION must be set"))
	}
	if c.Feed.Limit <= 0 {
		errs = append(errs, fmt.Errorf("FEED_LIMIT must be positive, got %d", c.Feed.Limit))
	}
	if c.Analysis.Clusters <= 0 {
		errs = append(errs, fmt.Errorf("CLUSTER_COUNT must be positive, got %d", c.Analysis.Clusters))
	}
	if c.Report.ReportFile == "" || c.Report.ScatterFile == "" || c.Report.TrendFile == "" {
		errs = append(errs, errors.New("report file names must not be empty"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
