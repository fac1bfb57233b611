// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Lookup Order

Each setting is resolved in this order:

 1. CLI flag
 2. Environment variable
 3. .env file (loaded with godotenv, never overrides the environment)
 4. Default

# Settings

	-p          PORT             Server port (default: 3000)
	-d          MONGODB_URI      Vote store connection string
	            DATABASE_URL     (fallback for -d)
	-t          DATABASE_TYPE    mongo, postgres or sqlite (default: mongo)
	-db-name    DATABASE_NAME    Mongo database name (default: matchday)
	-home       HOME_TEAM        Home team id (default: real)
	-away       AWAY_TEAM        Away team id (default: city)
	-max-score  MAX_SCORE        Highest score prediction (default: 20)
	-ip-salt    VOTER_HASH_SALT  Salt for voter IP hashes
	-redis      REDIS_URL        Tally cache (disabled when empty)
	-cache-ttl  TALLY_CACHE_TTL  Tally cache TTL (default: 5s)
	-amqp       RABBITMQ_URL     Vote events (disabled when empty)
	-queue      RABBITMQ_QUEUE   Vote event queue (default: votes)
	-env-file                    Dotenv path (default: .env)

# Degraded Mode

A missing connection string is not a parse error. The server starts and
every vote or tally request answers 500 until it is configured.
*/
package cliparse
