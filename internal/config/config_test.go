package config

import (
	"os"
	"testing"
	"time"
)

var allEnvVars = []string{
	"HOST", "PORT", "READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT", "ENVIRONMENT",
	"STORAGE_DRIVER", "DB_PATH", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME",
	"REDIS_ENABLED", "REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
	"REDIS_MIN_IDLE_CONNS", "REDIS_MAX_RETRIES", "REDIS_DIAL_TIMEOUT", "REDIS_READ_TIMEOUT", "REDIS_WRITE_TIMEOUT",
	"WORKER_CONCURRENCY", "WORKER_POLL_INTERVAL", "WORKER_QUEUES",
	"CACHE_VERSION", "UPSTREAM_ORIGIN", "STATIC_ASSETS", "UPSTREAM_TIMEOUT",
	"BREAKER_MAX_FAILURES", "BREAKER_TIMEOUT", "BREAKER_HALF_OPEN_CALLS", "INSTALL_ON_STARTUP",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_RPM", "RATE_LIMIT_BURST", "RATE_LIMIT_CLEANUP",
	"CORS_ALLOWED_ORIGINS",
}

func setEnvVars(vars map[string]string) {
	for k, v := range vars {
		os.Setenv(k, v)
	}
}

func clearEnvVars(vars []string) {
	for _, k := range vars {
		os.Unsetenv(k)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnvVars(allEnvVars)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with default config, got: %v", err)
	}

	if config.Server.Host != "localhost" {
		t.Errorf("Expected default host 'localhost', got %s", config.Server.Host)
	}

	if config.Server.Port != "8080" {
		t.Errorf("Expected default port '8080', got %s", config.Server.Port)
	}

	if config.Database.Driver != "sqlite" {
		t.Errorf("Expected default storage driver 'sqlite', got %s", config.Database.Driver)
	}

	if config.Database.Path != "smart-task-list.db" {
		t.Errorf("Expected default DB path 'smart-task-list.db', got %s", config.Database.Path)
	}

	if config.Redis.Enabled {
		t.Error("Expected redis to be disabled by default")
	}

	if config.Gateway.CacheVersion != "smart-task-list-v1" {
		t.Errorf("Expected default cache version 'smart-task-list-v1', got %s", config.Gateway.CacheVersion)
	}

	expectedAssets := []string{"/", "/index.html", "/styles.css", "/app.js", "/manifest.json"}
	if len(config.Gateway.StaticAssets) != len(expectedAssets) {
		t.Fatalf("Expected %d static assets, got %d", len(expectedAssets), len(config.Gateway.StaticAssets))
	}
	for i, asset := range expectedAssets {
		if config.Gateway.StaticAssets[i] != asset {
			t.Errorf("Expected static asset %d to be %s, got %s", i, asset, config.Gateway.StaticAssets[i])
		}
	}

	if config.Gateway.UpstreamTimeout != 0 {
		t.Errorf("Expected no upstream timeout by default, got %v", config.Gateway.UpstreamTimeout)
	}

	if !config.Gateway.InstallOnStartup {
		t.Error("Expected install on startup by default")
	}

	if len(config.Worker.Queues) != 2 {
		t.Errorf("Expected 2 default queues, got %d", len(config.Worker.Queues))
	}

	if !config.RateLimit.Enabled {
		t.Error("Expected rate limiting to be enabled by default")
	}
}

func TestLoadConfig_CustomEnvironment(t *testing.T) {
	envVars := map[string]string{
		"HOST":                 "0.0.0.0",
		"PORT":                 "9000",
		"ENVIRONMENT":          "production",
		"STORAGE_DRIVER":       "Postgres",
		"DB_PASSWORD":          "secure_password",
		"REDIS_ENABLED":        "true",
		"REDIS_HOST":           "redis.example.com",
		"CACHE_VERSION":        "smart-task-list-v2",
		"UPSTREAM_ORIGIN":      "https://tasks.example.com",
		"STATIC_ASSETS":        "/, /index.html ,,/app.js",
		"UPSTREAM_TIMEOUT":     "10s",
		"CORS_ALLOWED_ORIGINS": "https://a.example.com,https://b.example.com",
	}

	clearEnvVars(allEnvVars)
	setEnvVars(envVars)
	defer clearEnvVars(allEnvVars)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with custom config, got: %v", err)
	}

	if config.Database.Driver != "postgres" {
		t.Errorf("Expected driver 'postgres', got %s", config.Database.Driver)
	}

	if !config.Redis.Enabled {
		t.Error("Expected redis to be enabled")
	}

	if config.Gateway.CacheVersion != "smart-task-list-v2" {
		t.Errorf("Expected cache version 'smart-task-list-v2', got %s", config.Gateway.CacheVersion)
	}

	if len(config.Gateway.StaticAssets) != 3 || config.Gateway.StaticAssets[1] != "/index.html" {
		t.Errorf("Expected trimmed asset list, got %v", config.Gateway.StaticAssets)
	}

	if config.Gateway.UpstreamTimeout != 10*time.Second {
		t.Errorf("Expected upstream timeout 10s, got %v", config.Gateway.UpstreamTimeout)
	}

	if len(config.CORS.AllowedOrigins) != 2 {
		t.Errorf("Expected 2 CORS origins, got %v", config.CORS.AllowedOrigins)
	}
}

func TestLoadConfig_ProductionValidation(t *testing.T) {
	clearEnvVars(allEnvVars)
	setEnvVars(map[string]string{
		"ENVIRONMENT":    "production",
		"STORAGE_DRIVER": "postgres",
	})
	defer clearEnvVars(allEnvVars)

	_, err := LoadConfig()
	if err == nil {
		t.Error("Expected error when postgres password is missing in production")
	}
}

func TestLoadConfig_SqliteInProductionNeedsNoPassword(t *testing.T) {
	clearEnvVars(allEnvVars)
	setEnvVars(map[string]string{"ENVIRONMENT": "production"})
	defer clearEnvVars(allEnvVars)

	if _, err := LoadConfig(); err != nil {
		t.Errorf("Expected sqlite production config to load, got: %v", err)
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "mongo"}},
		{"blank cache version", map[string]string{"CACHE_VERSION": "   "}},
		{"relative origin", map[string]string{"UPSTREAM_ORIGIN": "/static"}},
		{"unparseable origin", map[string]string{"UPSTREAM_ORIGIN": "http://[::1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(allEnvVars)
			setEnvVars(tt.vars)
			defer clearEnvVars(allEnvVars)

			if _, err := LoadConfig(); err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
		})
	}
}

func TestConfig_GetDatabaseDSN(t *testing.T) {
	config := &Config{
		Database: DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     "5432",
			User:     "testuser",
			Password: "testpass",
			Name:     "testdb",
			SSLMode:  "disable",
		},
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	if dsn := config.GetDatabaseDSN(); dsn != expected {
		t.Errorf("Expected DSN %s, got %s", expected, dsn)
	}

	config.Database.Driver = "sqlite"
	config.Database.Path = "/tmp/tasks.db"
	if dsn := config.GetDatabaseDSN(); dsn != "/tmp/tasks.db" {
		t.Errorf("Expected sqlite DSN to be the file path, got %s", dsn)
	}
}

func TestConfig_Addrs(t *testing.T) {
	config := &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: "8080"},
		Redis:  RedisConfig{Host: "redis", Port: "6379"},
	}

	if addr := config.GetServerAddr(); addr != "0.0.0.0:8080" {
		t.Errorf("Expected server addr 0.0.0.0:8080, got %s", addr)
	}

	if addr := config.GetRedisAddr(); addr != "redis:6379" {
		t.Errorf("Expected redis addr redis:6379, got %s", addr)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		value    string
		fallback bool
		expected bool
	}{
		{"true", false, true},
		{"0", true, false},
		{"not-a-bool", true, true},
		{"", false, false},
	}

	for _, tt := range tests {
		os.Setenv("TEST_BOOL", tt.value)
		if got := getEnvAsBool("TEST_BOOL", tt.fallback); got != tt.expected {
			t.Errorf("getEnvAsBool(%q, %v): expected %v, got %v", tt.value, tt.fallback, tt.expected, got)
		}
	}
	os.Unsetenv("TEST_BOOL")
}

func TestGetEnvAsDuration(t *testing.T) {
	os.Setenv("TEST_DURATION", "bogus")
	defer os.Unsetenv("TEST_DURATION")

	if got := getEnvAsDuration("TEST_DURATION", time.Minute); got != time.Minute {
		t.Errorf("Expected fallback of 1m for invalid duration, got %v", got)
	}

	os.Setenv("TEST_DURATION", "90s")
	if got := getEnvAsDuration("TEST_DURATION", time.Minute); got != 90*time.Second {
		t.Errorf("Expected 90s, got %v", got)
	}
}

func TestGetEnvAsList_ReturnsCopyOfDefault(t *testing.T) {
	os.Unsetenv("TEST_LIST")
	defaults := []string{"a", "b"}

	got := getEnvAsList("TEST_LIST", defaults)
	got[0] = "changed"

	if defaults[0] != "a" {
		t.Error("Expected default slice to be left untouched")
	}
}

func BenchmarkLoadConfig(b *testing.B) {
	clearEnvVars(allEnvVars)
	for i := 0; i < b.N; i++ {
		_, _ = LoadConfig()
	}
}
