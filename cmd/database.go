package cmd

import (
	"fmt"
	"time"

	"github.com/frahmantamala/restaurant-ops/internal"
	employeeDatamodel "github.com/frahmantamala/restaurant-ops/internal/core/datamodel/employee"
	scheduleDatamodel "github.com/frahmantamala/restaurant-ops/internal/core/datamodel/schedule"
	userDatamodel "github.com/frahmantamala/restaurant-ops/internal/core/datamodel/user"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Database bundles the gorm handle used by repositories with an sqlx view of
// the same pool for raw queries.
type Database struct {
	Gorm *gorm.DB
	SQL  *sqlx.DB
}

func (d *Database) Close() error {
	return d.SQL.Close()
}

// initDB opens the configured database. The sqlite driver is for local runs
// and migrates its schema in place; postgres is migrated with goose.
func initDB(cfg internal.DatabaseConfig) (*Database, error) {
	var (
		dialector  gorm.Dialector
		driverName string
	)
	switch cfg.Driver {
	case internal.DriverSQLite:
		dialector = sqlite.Open(cfg.Source)
		driverName = "sqlite3"
	default:
		dialector = postgres.Open(cfg.GetDSN())
		driverName = "pgx"
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormLogger.Default.LogMode(gormLogger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.Driver == internal.DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Driver == internal.DriverSQLite {
		if err := db.AutoMigrate(models()...); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
	}

	return &Database{Gorm: db, SQL: sqlx.NewDb(sqlDB, driverName)}, nil
}

func models() []interface{} {
	return []interface{}{
		&employeeDatamodel.Employee{},
		&scheduleDatamodel.Shift{},
		&scheduleDatamodel.TimeOffRequest{},
		&userDatamodel.User{},
		&userDatamodel.Permission{},
		&userDatamodel.UserPermission{},
	}
}
