package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/unibite/unibite-backend/internal/config"
)

// Open connects to MySQL with the pool sizing from cfg and verifies the
// connection before returning.  Claim traffic is bursty around pickup
// windows, so the pool bounds are configuration rather than constants.
func Open(cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxConns)
	db.SetMaxIdleConns(cfg.DBMaxConns)
	db.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifeMin) * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// dsn builds the connection string.  parseTime maps the claimed_at /
// redeemed_at / available_until DATETIME columns to time.Time, and
// loc=UTC keeps those timestamps comparable without timezone math.
// The password is optional so local setups can run without one.
func dsn(cfg config.Config) string {
	auth := cfg.DBUser
	if cfg.DBPass != "" {
		auth += ":" + cfg.DBPass
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, cfg.DBHost, cfg.DBPort, cfg.DBName)
}
