// Package config loads server settings from flags, LEDGER_* environment
// variables and an optional .env file, in that order of priority.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff"
)

// Config holds every setting of the ledger server
type Config struct {
	GRPCAddr string
	APIToken string

	DBConnStr        string
	DBMaxOpenConns   int
	DBMaxIdleConns   int
	DBLockTimeout    time.Duration
	DBConnectRetries int

	RedisAddr     string // empty disables transfer throttling
	RedisPassword string
	RedisDB       int

	TransferRateLimit  int
	TransferRateWindow time.Duration
}

// Load parses args (without the program name) on top of the environment
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env file: %v", err)
	}

	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	var (
		grpcAddr = fs.String("grpc-addr", ":8080", "gRPC listen address")
		apiToken = fs.String("api-token", "dev-token", "token expected in the authorization header")

		dbConnStr        = fs.String("db-conn-str", "", "full PostgreSQL connection string, overrides the db-* parts")
		dbHost           = fs.String("db-host", "localhost", "PostgreSQL host")
		dbPort           = fs.String("db-port", "5432", "PostgreSQL port")
		dbUser           = fs.String("db-user", "postgres", "PostgreSQL user")
		dbPassword       = fs.String("db-password", "postgres", "PostgreSQL password")
		dbName           = fs.String("db-name", "ledger", "PostgreSQL database name")
		dbMaxOpenConns   = fs.Int("db-max-open-conns", 25, "maximum open database connections")
		dbMaxIdleConns   = fs.Int("db-max-idle-conns", 5, "maximum idle database connections")
		dbLockTimeout    = fs.Duration("db-lock-timeout", 5*time.Second, "maximum wait for a row lock, 0 uses the server default")
		dbConnectRetries = fs.Int("db-connect-retries", 10, "database connection attempts at startup")

		redisAddr     = fs.String("redis-addr", "", "Redis address for transfer throttling, empty disables it")
		redisPassword = fs.String("redis-password", "", "Redis password")
		redisDB       = fs.Int("redis-db", 0, "Redis database number")

		transferRateLimit  = fs.Int("transfer-rate-limit", 60, "transfers allowed per sender per window")
		transferRateWindow = fs.Duration("transfer-rate-window", time.Minute, "transfer throttle window")
	)

	err := ff.Parse(fs, args,
		ff.WithEnvVarPrefix("LEDGER"),
		ff.WithIgnoreUndefined(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Config{
		GRPCAddr:           *grpcAddr,
		APIToken:           *apiToken,
		DBConnStr:          *dbConnStr,
		DBMaxOpenConns:     *dbMaxOpenConns,
		DBMaxIdleConns:     *dbMaxIdleConns,
		DBLockTimeout:      *dbLockTimeout,
		DBConnectRetries:   *dbConnectRetries,
		RedisAddr:          *redisAddr,
		RedisPassword:      *redisPassword,
		RedisDB:            *redisDB,
		TransferRateLimit:  *transferRateLimit,
		TransferRateWindow: *transferRateWindow,
	}

	// If explicit string is missing, build it from individual parts (Docker friendly)
	if cfg.DBConnStr == "" {
		cfg.DBConnStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			*dbHost, *dbPort, *dbUser, *dbPassword, *dbName)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures the configuration is usable
func (c *Config) Validate() error {
	if c.APIToken == "" {
		return errors.New("api-token must not be empty")
	}
	if c.DBLockTimeout < 0 {
		return errors.New("db-lock-timeout must not be negative")
	}
	if c.RedisAddr != "" {
		if c.TransferRateLimit <= 0 {
			return errors.New("transfer-rate-limit must be positive")
		}
		if c.TransferRateWindow <= 0 {
			return errors.New("transfer-rate-window must be positive")
		}
	}
	return nil
}
