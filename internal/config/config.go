package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable; strings for identifiers and
// secrets, ints for durations and costs.
type Config struct {
	Env              string // application environment (e.g. "dev", "prod")
	Port             string // HTTP port to listen on
	DBUser           string // database username
	DBPass           string // database password (optional)
	DBHost           string // database host address
	DBPort           string // database port number
	DBName           string // database name
	DBMaxConns       int    // max open (and idle) database connections
	DBConnMaxLifeMin int    // database connection lifetime in minutes
	JWTSecret        string // secret used to sign JWTs
	AccessTTLMin     int    // access token time-to-live in minutes
	RefreshTTLDays   int    // refresh token time-to-live in days
	BcryptCost       int    // bcrypt cost for password hashing
}

// Load reads configuration from environment variables.  Required
// variables are enforced by must() and missing values cause the
// program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"), // empty allowed
		DBHost:           must("DB_HOST"),
		DBPort:           must("DB_PORT"),
		DBName:           must("DB_NAME"),
		DBMaxConns:       intDefault("DB_MAX_CONNS", 25),
		DBConnMaxLifeMin: intDefault("DB_CONN_MAX_LIFE_MIN", 30),
		JWTSecret:        must("JWT_SECRET"),
		AccessTTLMin:     mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:   mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:       mustInt("BCRYPT_COST"),
	}
}

// must retrieves the value of a required environment variable.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the value into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// intDefault reads an optional integer environment variable, falling
// back to def when unset.
func intDefault(key string, def int) int {
	s, ok := os.LookupEnv(key)
	if !ok || s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
