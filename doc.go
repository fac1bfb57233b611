// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the matchday voting API server.

Fans pick which of two teams they back and may predict the final score. The
server stores every vote and serves running tallies to a results display.

# Starting the Server

	MONGODB_URI=mongodb://localhost:27017 go run .

Or with flags:

	go run . -p 3000 -t postgres -d "postgres://..."

Settings are also read from a .env file in the working directory.

# Configuration

  - PORT (-p): Server port (default: 3000)
  - MONGODB_URI / DATABASE_URL (-d): Vote store connection string
  - DATABASE_TYPE (-t): mongo, postgres or sqlite (default: mongo)
  - HOME_TEAM, AWAY_TEAM: Team ids (default: real, city)
  - MAX_SCORE: Highest accepted score prediction (default: 20)
  - VOTER_HASH_SALT: Secret for voter IP hashing
  - REDIS_URL: Enables the tally cache
  - RABBITMQ_URL: Enables vote events

The server starts without a connection string; vote requests then fail with
500 until one is configured.

# Architecture

  - handlers: Vote submission, tally and live updates
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - store: Lazily connected vote store (MongoDB, PostgreSQL, SQLite)
  - cache: Redis tally cache
  - events: RabbitMQ vote events
  - live: WebSocket hub
  - metrics: Prometheus collectors
  - fingerprint: Voter IP hashing
  - models: Request/response types
  - cliparse: Configuration parsing
*/
package main
