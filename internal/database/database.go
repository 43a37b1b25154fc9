package database

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xelth-com/pharmsearch/internal/config"
	"github.com/xelth-com/pharmsearch/internal/logger"
	"github.com/xelth-com/pharmsearch/internal/models"
)

const (
	embeddedDataPath = "./db_data"
	embeddedPort     = 5433
	embeddedPassword = "postgres"
)

// DB wraps gorm.DB and the embedded postgres process when one was started
type DB struct {
	*gorm.DB
	embedded *embeddedpostgres.EmbeddedPostgres
}

// Wrap adopts an already opened gorm connection
func Wrap(db *gorm.DB) *DB {
	return &DB{DB: db}
}

// Connect opens the catalog database. A localhost config without a password
// starts an embedded PostgreSQL under ./db_data; anything else is external.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	ctx := context.Background()
	var embedded *embeddedpostgres.EmbeddedPostgres

	password := cfg.Password
	if cfg.Host == "localhost" && cfg.Password == "" {
		logger.Info(ctx, "📦 Mode: [Embedded PostgreSQL] - starting catalog database", "data_path", embeddedDataPath)

		cleanupStaleEmbedded()
		if err := waitForPort(embeddedPort); err != nil {
			return nil, err
		}

		embedded = embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
			DataPath(embeddedDataPath).
			Port(uint32(embeddedPort)).
			Database(cfg.Database).
			Username(cfg.Username).
			Password(embeddedPassword))
		if err := embedded.Start(); err != nil {
			return nil, fmt.Errorf("failed to start embedded database: %w", err)
		}

		cfg.Port = strconv.Itoa(embeddedPort)
		password = embeddedPassword
		logger.Info(ctx, "✅ Embedded PostgreSQL started", "port", embeddedPort)
	} else {
		logger.Info(ctx, "🌐 Mode: [External PostgreSQL]", "host", cfg.Host, "port", cfg.Port)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, password, cfg.Database,
	)

	logLevel := gormlogger.Warn
	if cfg.Alter {
		logLevel = gormlogger.Silent
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		if embedded != nil {
			_ = embedded.Stop()
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	logger.Info(ctx, "✅ Database connection established")
	return &DB{DB: db, embedded: embedded}, nil
}

// Migrate creates or updates the catalog tables
func (db *DB) Migrate() error {
	if err := db.DB.AutoMigrate(&models.Product{}, &models.ProductDetail{}, &models.AlternativeLink{}); err != nil {
		return fmt.Errorf("auto-migrate catalog: %w", err)
	}
	return nil
}

// Close shuts the connection pool and the embedded process down
func (db *DB) Close() error {
	if db.embedded != nil {
		logger.Info(context.Background(), "🛑 Stopping embedded PostgreSQL")
		_ = db.embedded.Stop()
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// cleanupStaleEmbedded stops a postgres left running by a previous crash
func cleanupStaleEmbedded() {
	ctx := context.Background()
	pidFile := filepath.Join(embeddedDataPath, "postmaster.pid")

	data, err := os.ReadFile(pidFile)
	if err != nil {
		return
	}
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	if !scanner.Scan() {
		return
	}
	pid, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		logger.Warn(ctx, "⚠️ Could not parse PID from postmaster.pid", "error", err)
		return
	}

	process, err := os.FindProcess(pid)
	if err != nil || process.Signal(syscall.Signal(0)) != nil {
		logger.Info(ctx, "🧹 Removing stale postmaster.pid", "pid", pid)
		_ = os.Remove(pidFile)
		return
	}

	logger.Warn(ctx, "⚠️ Found orphaned PostgreSQL process, stopping it", "pid", pid)
	_ = process.Signal(syscall.SIGTERM)
	for i := 0; i < 10; i++ {
		time.Sleep(500 * time.Millisecond)
		if process.Signal(syscall.Signal(0)) != nil {
			_ = os.Remove(pidFile)
			return
		}
	}

	logger.Warn(ctx, "⚠️ Orphaned PostgreSQL ignored SIGTERM, killing it", "pid", pid)
	_ = process.Kill()
	time.Sleep(500 * time.Millisecond)
	_ = os.Remove(pidFile)
}

func waitForPort(port int) error {
	for i := 0; i < 6 && portInUse(port); i++ {
		time.Sleep(500 * time.Millisecond)
	}
	if portInUse(port) {
		return fmt.Errorf("port %d is still in use by another process", port)
	}
	return nil
}

func portInUse(port int) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
