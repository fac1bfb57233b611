// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Supported vote store backends
const (
	DatabaseMongo    = "mongo"
	DatabasePostgres = "postgres"
	DatabaseSQLite   = "sqlite"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	DatabaseName string

	HomeTeam string
	AwayTeam string
	MaxScore int

	VoterHashSalt string

	RedisURL      string
	TallyCacheTTL time.Duration

	AMQPURL   string
	AMQPQueue string
}

// ParseFlags reads flags, then .env and environment variables for anything
// left unset. An empty database URL is not an error: the server starts in
// degraded mode and storage calls fail.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("matchday-vote", flag.ContinueOnError)

	var envFile string
	fs.StringVar(&envFile, "env-file", ".env", "Dotenv file to load")

	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (mongo, postgres or sqlite)")
	fs.StringVar(&cfg.DatabaseName, "db-name", "", "Mongo database name")

	fs.StringVar(&cfg.HomeTeam, "home", "", "Home team identifier")
	fs.StringVar(&cfg.AwayTeam, "away", "", "Away team identifier")
	fs.IntVar(&cfg.MaxScore, "max-score", -1, "Highest accepted score prediction")

	fs.StringVar(&cfg.VoterHashSalt, "ip-salt", "", "Voter IP hash salt (prefer env)")

	fs.StringVar(&cfg.RedisURL, "redis", "", "Redis URL for the tally cache")
	fs.DurationVar(&cfg.TallyCacheTTL, "cache-ttl", 0, "Tally cache TTL")

	fs.StringVar(&cfg.AMQPURL, "amqp", "", "RabbitMQ URL for vote events")
	fs.StringVar(&cfg.AMQPQueue, "queue", "", "RabbitMQ queue for vote events")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Existing environment variables win over the file
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3000 // default
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("MONGODB_URI")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = getEnv("DATABASE_TYPE", DatabaseMongo)
	}
	switch cfg.DatabaseType {
	case DatabaseMongo, DatabasePostgres, DatabaseSQLite:
	default:
		return Config{}, fmt.Errorf("unknown database type %q", cfg.DatabaseType)
	}

	if cfg.DatabaseName == "" {
		cfg.DatabaseName = getEnv("DATABASE_NAME", "matchday")
	}

	if cfg.HomeTeam == "" {
		cfg.HomeTeam = getEnv("HOME_TEAM", "real")
	}
	if cfg.AwayTeam == "" {
		cfg.AwayTeam = getEnv("AWAY_TEAM", "city")
	}
	if cfg.HomeTeam == cfg.AwayTeam {
		return Config{}, errors.New("home and away teams must differ")
	}

	if cfg.MaxScore < 0 {
		if s := os.Getenv("MAX_SCORE"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				return Config{}, errors.New("invalid MAX_SCORE env variable")
			}
			cfg.MaxScore = n
		} else {
			cfg.MaxScore = 20
		}
	}

	if cfg.VoterHashSalt == "" {
		cfg.VoterHashSalt = os.Getenv("VOTER_HASH_SALT")
	}

	if cfg.RedisURL == "" {
		cfg.RedisURL = os.Getenv("REDIS_URL")
	}
	if cfg.TallyCacheTTL == 0 {
		if s := os.Getenv("TALLY_CACHE_TTL"); s != "" {
			ttl, err := time.ParseDuration(s)
			if err != nil {
				return Config{}, errors.New("invalid TALLY_CACHE_TTL env variable")
			}
			cfg.TallyCacheTTL = ttl
		} else {
			cfg.TallyCacheTTL = 5 * time.Second
		}
	}

	if cfg.AMQPURL == "" {
		cfg.AMQPURL = os.Getenv("RABBITMQ_URL")
	}
	if cfg.AMQPQueue == "" {
		cfg.AMQPQueue = getEnv("RABBITMQ_QUEUE", "votes")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
