// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/danielhkuo/matchday-vote/models"
)

const (
	maxDialAttempts = 5
	dialRetryDelay  = 2 * time.Second
)

// Publisher announces accepted votes to downstream consumers
type Publisher interface {
	PublishVote(ctx context.Context, event models.VoteEvent) error
}

// Nop drops every event
type Nop struct{}

func (Nop) PublishVote(ctx context.Context, event models.VoteEvent) error { return nil }

// AMQPPublisher publishes JSON vote events to a durable queue.
// amqp.Channel is not safe for concurrent publishes, hence the mutex.
type AMQPPublisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	mu    sync.Mutex
}

// DialAMQP connects with a few retries, opens a channel and declares queue
func DialAMQP(url, queue string) (*AMQPPublisher, error) {
	var conn *amqp.Connection
	var err error
	for attempt := 1; attempt <= maxDialAttempts; attempt++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		slog.Warn("rabbitmq connection failed", "attempt", attempt, "error", err)
		if attempt < maxDialAttempts {
			time.Sleep(dialRetryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("rabbitmq connection failed after %d attempts: %w", maxDialAttempts, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	slog.Info("rabbitmq connected", "queue", queue)
	return &AMQPPublisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *AMQPPublisher) PublishVote(ctx context.Context, event models.VoteEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode vote event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.VoteID,
			Timestamp:    event.Timestamp,
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// NewEvent builds the event for a stored vote
func NewEvent(vote models.Vote) models.VoteEvent {
	return models.VoteEvent{
		VoteID:    vote.ID,
		Team:      vote.Team,
		HomeScore: vote.HomeScore,
		AwayScore: vote.AwayScore,
		Timestamp: vote.Timestamp,
	}
}
