package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AIO_USERNAME", "farmer")
	t.Setenv("AIO_KEY", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Feed.TemperatureFeed != "temperatura" || cfg.Feed.IlluminationFeed != "iluminacion" {
		t.Errorf("Unexpected feed names: %q, %q", cfg.Feed.TemperatureFeed, cfg.Feed.IlluminationFeed)
	}
	if cfg.Feed.Limit != 100 {
		t.Errorf("Expected limit 100, got %d", cfg.Feed.Limit)
	}
	if cfg.Analysis.Clusters != 3 {
		t.Errorf("Expected 3 clusters, got %d", cfg.Analysis.Clusters)
	}
	if cfg.Analysis.Seed != 42 {
		t.Errorf("Expected seed 42, got %d", cfg.Analysis.Seed)
	}
	if cfg.Feed.Timeout != 15*time.Second {
		t.Errorf("Expected 15s timeout, got %s", cfg.Feed.Timeout)
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Errorf("Expected Kafka disabled by default, got %v", cfg.Kafka.Brokers)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FEED_SOURCE", SourcePostgres)
	t.Setenv("CLUSTER_COUNT", "5")
	t.Setenv("FEED_LIMIT", "250")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ALIGN_TOLERANCE", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Analysis.Clusters != 5 {
		t.Errorf("Expected 5 clusters, got %d", cfg.Analysis.Clusters)
	}
	if cfg.Feed.Limit != 250 {
		t.Errorf("Expected limit 250, got %d", cfg.Feed.Limit)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Unexpected brokers: %v", cfg.Kafka.Brokers)
	}
	if cfg.Analysis.AlignTolerance != 90*time.Second {
		t.Errorf("Expected 90s tolerance, got %s", cfg.Analysis.AlignTolerance)
	}
}

func TestLoad_DoesNotRequireCredentials(t *testing.T) {
	t.Setenv("AIO_USERNAME", "")
	t.Setenv("AIO_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected Validate to reject missing credentials")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing credentials", func(c *Config) { c.Feed.Key = "" }, true},
		{"postgres needs no credentials", func(c *Config) { c.Feed.Source = SourcePostgres; c.Feed.Key = "" }, false},
		{"unknown source", func(c *Config) { c.Feed.Source = "ftp" }, true},
		{"zero clusters", func(c *Config) { c.Analysis.Clusters = 0 }, true},
		{"negative limit", func(c *Config) { c.Feed.Limit = -1 }, true},
		{"empty report file", func(c *Config) { c.Report.ReportFile = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Feed: FeedConfig{
					Source:           SourceHTTP,
					Username:         "u",
					Key:              "k",
					TemperatureFeed:  "t",
					IlluminationFeed: "i",
					Limit:            10,
				},
				Analysis: AnalysisConfig{Clusters: 2},
				Report:   ReportConfig{ReportFile: "r.html", ScatterFile: "s.png", TrendFile: "t.png"},
			}
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("DEBUG") != slog.LevelDebug {
		t.Error("Expected debug level")
	}
	if parseLevel("warning") != slog.LevelWarn {
		t.Error("Expected warn level")
	}
	if parseLevel("bogus") != slog.LevelInfo {
		t.Error("Expected info level for unknown input")
	}
}
