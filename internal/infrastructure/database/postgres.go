package database

import (
	"fmt"
	"strings"

	"github.com/sangkips/qbo-connector/internal/config"
	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// States without a general sales tax; every other state is seeded taxable.
var nonTaxableStates = map[string]bool{
	"ak": true,
	"de": true,
	"mt": true,
	"nh": true,
	"or": true,
}

var stateCodes = []string{
	"al", "ak", "az", "ar", "ca", "co", "ct", "de", "dc", "fl", "ga", "hi", "id",
	"il", "in", "ia", "ks", "ky", "la", "me", "md", "ma", "mi", "mn", "ms", "mo",
	"mt", "ne", "nv", "nh", "nj", "nm", "ny", "nc", "nd", "oh", "ok", "or", "pa",
	"ri", "sc", "sd", "tn", "tx", "ut", "vt", "va", "wa", "wv", "wi", "wy",
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, debug bool, log *logrus.Logger) (*gorm.DB, error) {
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.WithField("host", cfg.Host).Info("Successfully connected to PostgreSQL database")
	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	err := db.AutoMigrate(
		// Parties
		&entity.Organization{},
		&entity.NegotiatedPrice{},
		&entity.Customer{},
		&entity.Item{},

		// Documents
		&entity.Invoice{},
		&entity.InvoiceItem{},
		&entity.Payment{},
		&entity.PaymentReference{},
		&entity.LedgerEntry{},
		&entity.ShipmentTracker{},

		// System entities
		&entity.QuickBooksSettings{},
		&entity.StateTaxInfo{},
		&entity.IdempotencyKey{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations completed successfully")
	return nil
}

// SeedDefaultData seeds the state tax table on an empty database
func SeedDefaultData(db *gorm.DB, log *logrus.Logger) error {
	var count int64
	if err := db.Model(&entity.StateTaxInfo{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count state tax rows: %w", err)
	}
	if count > 0 {
		log.WithField("rows", count).Info("State tax table already seeded")
		return nil
	}

	rows := make([]entity.StateTaxInfo, 0, len(stateCodes))
	for _, code := range stateCodes {
		rows = append(rows, entity.StateTaxInfo{
			State:   strings.ToLower(code),
			Taxable: !nonTaxableStates[code],
		})
	}
	if err := db.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to seed state tax rows: %w", err)
	}

	log.WithField("rows", len(rows)).Info("Default data seeding completed")
	return nil
}
