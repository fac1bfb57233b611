// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/danielhkuo/matchday-vote/models"
)

const votesCollection = "votes"

// MongoStore keeps one document per vote in the votes collection
type MongoStore struct {
	client *mongo.Client
	votes  *mongo.Collection
}

// OpenMongo connects to uri and verifies the primary is reachable
func OpenMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	return NewMongoStore(client, dbName), nil
}

func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	return &MongoStore{
		client: client,
		votes:  client.Database(dbName).Collection(votesCollection),
	}
}

func (s *MongoStore) InsertVote(ctx context.Context, vote models.Vote) error {
	if _, err := s.votes.InsertOne(ctx, vote); err != nil {
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

// CountByTeam groups the whole collection by team
func (s *MongoStore) CountByTeam(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$team"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := s.votes.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate votes: %w", err)
	}
	defer cursor.Close(ctx)

	var groups []struct {
		Team  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode vote counts: %w", err)
	}

	counts := make(map[string]int64, len(groups))
	for _, g := range groups {
		counts[g.Team] = g.Count
	}
	return counts, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
