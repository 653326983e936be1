// Package database holds the Postgres store for the notification log and sweep history.
package database

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	log "github.com/sirupsen/logrus"
	"github.com/xelth-com/receivinggo/internal/config"
	"github.com/xelth-com/receivinggo/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// embeddedPassword is the superuser password of the private embedded instance
const embeddedPassword = "postgres"

// ErrPortInUse means the embedded port is taken, usually by a previous run still shutting down
var ErrPortInUse = errors.New("embedded postgres port is in use")

// DB wraps gorm.DB and includes a reference to an embedded process if active
type DB struct {
	*gorm.DB
	embedded *embeddedpostgres.EmbeddedPostgres
}

// Connect opens the configured database, starting the embedded instance first when cfg.Embedded is set
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	var embedded *embeddedpostgres.EmbeddedPostgres
	if cfg.Embedded {
		var err error
		if embedded, err = startEmbedded(cfg); err != nil {
			return nil, err
		}
	} else {
		log.Printf("🌐 Mode: [External PostgreSQL] - Connecting to %s:%s", cfg.Host, cfg.Port)
	}

	db, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{
		Logger:  gormLogger(cfg.Debug),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		if embedded != nil {
			_ = embedded.Stop()
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		open := cfg.MaxOpenConns
		if open <= 0 {
			open = 5
		}
		sqlDB.SetMaxOpenConns(open)
		sqlDB.SetMaxIdleConns(open)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Println("✅ Database connection established")
	return &DB{DB: db, embedded: embedded}, nil
}

// DSN builds a postgres URL for cfg. Embedded mode always targets the local private instance.
func DSN(cfg config.DatabaseConfig) string {
	host, port, password := cfg.Host, cfg.Port, cfg.Password
	if cfg.Embedded {
		host, port, password = "localhost", strconv.Itoa(cfg.EmbeddedPort), embeddedPassword
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, password),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + cfg.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func startEmbedded(cfg config.DatabaseConfig) (*embeddedpostgres.EmbeddedPostgres, error) {
	log.Println("📦 Mode: [Embedded PostgreSQL] - Initializing internal database...")

	if portInUse(cfg.EmbeddedPort) {
		return nil, fmt.Errorf("%w: %d", ErrPortInUse, cfg.EmbeddedPort)
	}
	// Nothing is listening, so a leftover pid file is from a crashed run
	if removeStalePID(cfg.DataPath) {
		log.Printf("🧹 Removed stale postmaster.pid from %s", cfg.DataPath)
	}

	embedded := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		DataPath(cfg.DataPath).
		Port(uint32(cfg.EmbeddedPort)).
		Database(cfg.Database).
		Username(cfg.Username).
		Password(embeddedPassword).
		Logger(log.StandardLogger().WriterLevel(log.DebugLevel)))
	if err := embedded.Start(); err != nil {
		return nil, fmt.Errorf("failed to start embedded database: %w", err)
	}
	log.Printf("✅ Embedded PostgreSQL process started on port %d", cfg.EmbeddedPort)
	return embedded, nil
}

func removeStalePID(dataPath string) bool {
	return os.Remove(filepath.Join(dataPath, "postmaster.pid")) == nil
}

func portInUse(port int) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// gormLogger routes gorm output through logrus
func gormLogger(debug bool) logger.Interface {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return logger.New(log.StandardLogger(), logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// Close ensures the database connection and embedded process are shut down
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err == nil {
		err = sqlDB.Close()
	}
	if db.embedded != nil {
		log.Println("🛑 Stopping Embedded PostgreSQL process...")
		if stopErr := db.embedded.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
	}
	return err
}

// Migrate creates or updates the tables owned by this service
func (db *DB) Migrate() error {
	if err := db.DB.AutoMigrate(&models.NotificationLog{}, &models.BacklogSweepRun{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	log.Println("✅ Database schema migrated")
	return nil
}
