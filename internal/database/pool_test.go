package database

import (
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm/logger"
)

func TestDefaultPoolConfig(t *testing.T) {
	config := DefaultPoolConfig()

	if config.Driver != DriverSQLite {
		t.Errorf("Expected Driver to be sqlite, got %s", config.Driver)
	}

	if config.MaxOpenConns != 25 {
		t.Errorf("Expected MaxOpenConns to be 25, got %d", config.MaxOpenConns)
	}

	if config.MaxIdleConns != 10 {
		t.Errorf("Expected MaxIdleConns to be 10, got %d", config.MaxIdleConns)
	}

	if config.ConnMaxLifetime != time.Hour {
		t.Errorf("Expected ConnMaxLifetime to be 1 hour, got %v", config.ConnMaxLifetime)
	}

	if config.ConnMaxIdleTime != time.Minute*30 {
		t.Errorf("Expected ConnMaxIdleTime to be 30 minutes, got %v", config.ConnMaxIdleTime)
	}

	if config.LogLevel != logger.Warn {
		t.Errorf("Expected LogLevel to be Warn, got %v", config.LogLevel)
	}
}

func TestNewDatabasePool_WithNilConfig(t *testing.T) {
	_, err := NewDatabasePool(nil)

	if err == nil {
		t.Error("Expected error due to empty DSN, got nil")
	}
}

func TestNewDatabasePool_SQLite(t *testing.T) {
	config := DefaultPoolConfig()
	config.DSN = filepath.Join(t.TempDir(), "pool.db")
	config.LogLevel = logger.Silent

	pool, err := NewDatabasePool(config)
	if err != nil {
		t.Fatalf("Expected sqlite pool to open, got: %v", err)
	}
	defer pool.Close()

	if err := pool.Health(); err != nil {
		t.Errorf("Expected healthy pool, got: %v", err)
	}

	stats := pool.Stats()
	if stats["driver"] != DriverSQLite {
		t.Errorf("Expected driver sqlite in stats, got %v", stats["driver"])
	}
	if stats["max_open"] != 25 {
		t.Errorf("Expected max_open 25 in stats, got %v", stats["max_open"])
	}
}

func TestDatabasePool_Stats_WithoutConnection(t *testing.T) {
	pool := &DatabasePool{
		DB: nil,
		config: &PoolConfig{
			MaxOpenConns: 10,
		},
	}

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Stats() should handle nil DB gracefully, but got panic: %v", r)
		}
	}()

	stats := pool.Stats()

	if _, hasError := stats["error"]; !hasError {
		t.Error("Expected error in stats when DB is nil")
	}
}

func TestDatabasePool_Health_WithoutConnection(t *testing.T) {
	pool := &DatabasePool{
		DB: nil,
	}

	if err := pool.Health(); err == nil {
		t.Error("Expected error when checking health with nil DB")
	}
}

func TestDatabasePool_Close_WithoutConnection(t *testing.T) {
	pool := &DatabasePool{
		DB: nil,
	}

	if err := pool.Close(); err != nil {
		t.Errorf("Expected no error when closing nil DB, got: %v", err)
	}
}

func TestPoolConfig_Validation(t *testing.T) {
	tests := []struct {
		name   string
		config *PoolConfig
	}{
		{
			name: "Empty DSN",
			config: &PoolConfig{
				Driver:   DriverSQLite,
				DSN:      "",
				LogLevel: logger.Silent,
			},
		},
		{
			name: "Negative values configuration",
			config: &PoolConfig{
				Driver:          DriverSQLite,
				DSN:             "tasks.db",
				MaxOpenConns:    -1,
				MaxIdleConns:    -1,
				ConnMaxLifetime: -time.Hour,
				ConnMaxIdleTime: -time.Minute,
				LogLevel:        logger.Silent,
			},
		},
		{
			name: "Unknown driver",
			config: &PoolConfig{
				Driver:   "mysql",
				DSN:      "user:pass@/db",
				LogLevel: logger.Silent,
			},
		},
		{
			name: "Unreachable postgres",
			config: &PoolConfig{
				Driver:   DriverPostgres,
				DSN:      "host=127.0.0.1 port=1 user=nobody dbname=none sslmode=disable connect_timeout=1",
				LogLevel: logger.Silent,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDatabasePool(tt.config); err == nil {
				t.Error("Expected error but pool creation succeeded")
			}
		})
	}
}

func BenchmarkDefaultPoolConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = DefaultPoolConfig()
	}
}
