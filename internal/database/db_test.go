package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unibite/unibite-backend/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.Config{
		DBUser: "app",
		DBPass: "s3cret",
		DBHost: "db.internal",
		DBPort: "3306",
		DBName: "unibite",
	}
	assert.Equal(t,
		"app:s3cret@tcp(db.internal:3306)/unibite?charset=utf8mb4&parseTime=true&loc=UTC",
		dsn(cfg))
}

func TestDSNWithoutPassword(t *testing.T) {
	cfg := config.Config{
		DBUser: "app",
		DBHost: "localhost",
		DBPort: "3306",
		DBName: "unibite",
	}
	assert.Equal(t,
		"app@tcp(localhost:3306)/unibite?charset=utf8mb4&parseTime=true&loc=UTC",
		dsn(cfg))
}
