package postgres

import (
	"account-service/internal/config"
	"account-service/internal/logger"
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
)

type DB struct {
	*gorm.DB
}

func NewDB(cfg *config.Config) (*DB, error) {
	dsn := cfg.Database.DSN()

	db, err := open(postgres.New(postgres.Config{
		DriverName: "pgx",
		DSN:        dsn,
	}), cfg.Server.Environment)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	logger.Info("Database connection established",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
		zap.Int("max_open_connections", maxOpenConns),
		zap.Int("max_idle_connections", maxIdleConns),
	)

	return db, nil
}

// open wraps a dialector with the gorm settings shared by the server and tests.
// Writes outside WithinTx run without an implicit transaction, and driver
// errors are translated so unique violations surface as gorm.ErrDuplicatedKey.
func open(dialector gorm.Dialector, environment string) (*DB, error) {
	gormLogLevel := gormLogger.Info
	switch environment {
	case "production":
		gormLogLevel = gormLogger.Warn
	case "test":
		gormLogLevel = gormLogger.Silent
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger.Default.LogMode(gormLogLevel),
		SkipDefaultTransaction: true,
		TranslateError:         true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		return nil, err
	}
	return &DB{DB: db}, nil
}

func (d *DB) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *DB) Health(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
