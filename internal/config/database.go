package config

import (
	"context"
	"fmt"
	"time"

	"microloan/internal/adapters/persistence/models"
	"microloan/internal/adapters/persistence/mongostore"
	"microloan/internal/adapters/persistence/repositories"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenStore connects the configured storage backend and prepares its schema
func OpenStore(ctx context.Context, cfg *Config, log *zap.Logger) (repositories.Store, error) {
	switch cfg.StoreDriver {
	case "mongo":
		store, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Transactions)
		if err != nil {
			return nil, err
		}
		log.Info("mongo connected",
			zap.String("database", cfg.Mongo.Database),
			zap.Bool("transactions", cfg.Mongo.Transactions),
		)
		return store, nil
	default:
		db, err := ConnectDatabase(cfg, log)
		if err != nil {
			return nil, err
		}
		if err := models.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return repositories.NewGormStore(db), nil
	}
}

// ConnectDatabase establishes connection to MySQL database
func ConnectDatabase(cfg *Config, log *zap.Logger) (*gorm.DB, error) {
	dsn := buildDSN(cfg.Database)

	// Configure GORM logger based on mode
	var gormLogger logger.Interface
	if cfg.IsDev() {
		gormLogger = logger.Default.LogMode(logger.Info)
	} else {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("port", cfg.Database.Port),
		zap.String("name", cfg.Database.DBName),
	)
	return db, nil
}

// buildDSN returns the database connection string
func buildDSN(d DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.DBName,
	)
}
