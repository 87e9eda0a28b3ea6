package database

import (
	"context"
	"log"

	"github.com/streamhive/vidtube/config"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Collections bundles the handles the controllers need so they are opened
// once at startup instead of per request.
type Collections struct {
	Users         *mongo.Collection
	Subscriptions *mongo.Collection
	Videos        *mongo.Collection
}

func Connect(ctx context.Context, cfg *config.Config) (*mongo.Client, *Collections, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(serverAPI)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, nil, err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, nil, err
	}
	log.Println("Connected to MongoDB")

	db := client.Database(cfg.DatabaseName)
	cols := &Collections{
		Users:         db.Collection("users"),
		Subscriptions: db.Collection("subscriptions"),
		Videos:        db.Collection("videos"),
	}

	if err := ensureIndexes(ctx, cols.Users); err != nil {
		return nil, nil, err
	}
	return client, cols, nil
}

// ensureIndexes backs the Conflict checks: duplicate email/username inserts
// fail with E11000 even when the pre-insert lookup races.
func ensureIndexes(ctx context.Context, users *mongo.Collection) error {
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}
