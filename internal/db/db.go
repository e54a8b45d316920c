package db

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hostel-allocation-backend/config"
	"hostel-allocation-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		dialector = postgres.Open(cfg.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, err
	}

	if cfg.Driver == "postgres" && cfg.EnableConstraints {
		log.Println("Applying booking integrity constraints...")
		if err := applyConstraintDDL(db); err != nil {
			log.Printf("Warning: failed to apply some constraint DDL: %v. Continuing with application-level checks only.", err)
		}
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Room{},
		&model.Bed{},
		&model.Guest{},
		&model.Booking{},
		&model.OccupancySnapshot{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

// constraintDDL backs the allocation rules at the storage level. The bed
// exclusion constraint uses the same half-open '[)' convention as the
// application, so same-day turnover stays legal.
var constraintDDL = []string{
	"CREATE EXTENSION IF NOT EXISTS btree_gist;",

	"ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_one_resource;",
	"ALTER TABLE bookings ADD CONSTRAINT bookings_one_resource " +
		"CHECK ((room_id IS NULL) <> (bed_id IS NULL));",

	"ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_range_valid;",
	"ALTER TABLE bookings ADD CONSTRAINT bookings_range_valid CHECK (check_in < check_out);",

	"ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_bed_no_overlap;",
	"ALTER TABLE bookings ADD CONSTRAINT bookings_bed_no_overlap EXCLUDE USING GIST (" +
		"bed_id WITH =, daterange(check_in, check_out, '[)') WITH &&) " +
		"WHERE (bed_id IS NOT NULL AND status IN ('requested', 'confirmed', 'checked_in'));",

	"CREATE INDEX IF NOT EXISTS idx_bookings_active_bed ON bookings (bed_id, check_in) " +
		"WHERE status IN ('requested', 'confirmed', 'checked_in');",
	"CREATE INDEX IF NOT EXISTS idx_bookings_active_room ON bookings (room_id, check_in) " +
		"WHERE status IN ('requested', 'confirmed', 'checked_in');",
}

func applyConstraintDDL(db *gorm.DB) error {
	for _, ddl := range constraintDDL {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}

func logLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
