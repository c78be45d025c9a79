package mongo

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// New connects to MongoDB and pings it, retrying up to tries times with a fixed backoff.
func New(ctx context.Context, uri string, tries int, backoff time.Duration) (*mongo.Client, error) {
	if tries <= 0 {
		tries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= tries; attempt++ {
		client, err := connect(ctx, uri)
		if err == nil {
			return client, nil
		}
		lastErr = err
		log.Printf("mongo connect attempt %d/%d failed: %v", attempt, tries, err)

		if attempt == tries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect mongo canceled: %w", ctx.Err())
		case <-time.After(backoff):
		}
	}
	return nil, fmt.Errorf("connect mongo failed after %d attempts: %w", tries, lastErr)
}

func connect(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetConnectTimeout(5 * time.Second).
		SetMaxPoolSize(50)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("open mongo client failed: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo failed: %w", err)
	}
	return client, nil
}
