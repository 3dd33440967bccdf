package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"nft-marketplace-api/internal/config"
	"nft-marketplace-api/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	var (
		initDB     = flag.Bool("init", false, "Initialize database with schema and indexes")
		seedData   = flag.Bool("seed", false, "Seed database with test API keys")
		clearCache = flag.Bool("clear-cache", false, "Delete the persisted feed snapshot")
		all        = flag.Bool("all", false, "Run init and seed (full setup)")
	)
	flag.Parse()

	cfg := config.LoadConfig()

	if !*initDB && !*seedData && !*clearCache && !*all {
		fmt.Println("Database Setup Utility")
		fmt.Println("Usage:")
		fmt.Println("  -init         Initialize database with schema and indexes")
		fmt.Println("  -seed         Seed database with test API keys")
		fmt.Println("  -clear-cache  Delete the persisted feed snapshot")
		fmt.Println("  -all          Run full setup (init + seed)")
		fmt.Println()
		fmt.Println("Environment Variables:")
		fmt.Println("  MONGODB_URI                    MongoDB connection string")
		fmt.Println("  MONGODB_DATABASE               Database name")
		fmt.Println("  MONGODB_APIKEY_COLLECTION      API keys collection name")
		fmt.Println("  MONGODB_FEED_CACHE_COLLECTION  Feed snapshot collection name")
		os.Exit(1)
	}

	setup, err := NewDatabaseSetup(&cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer setup.Close()

	if *initDB || *all {
		if err := setup.InitializeDatabase(); err != nil {
			log.Fatalf("Database initialization failed: %v", err)
		}
	}

	if *seedData || *all {
		if err := setup.SeedAPIKeys(); err != nil {
			log.Fatalf("Data seeding failed: %v", err)
		}
	}

	if *clearCache {
		if err := setup.ClearFeedSnapshot(); err != nil {
			log.Fatalf("Clearing feed snapshot failed: %v", err)
		}
	}

	log.Println("Database setup completed successfully!")
}

// DatabaseSetup handles schema setup and seeding
type DatabaseSetup struct {
	client *mongo.Client
	db     *mongo.Database
	config *config.MongoDBConfig
}

// NewDatabaseSetup connects to MongoDB
func NewDatabaseSetup(cfg *config.MongoDBConfig) (*DatabaseSetup, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI)
	clientOptions.SetMaxPoolSize(cfg.MaxPoolSize)
	clientOptions.SetConnectTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &DatabaseSetup{
		client: client,
		db:     client.Database(cfg.Database),
		config: cfg,
	}, nil
}

// InitializeDatabase creates the collections and indexes the API expects
func (ds *DatabaseSetup) InitializeDatabase() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Println("Setting up database schema...")

	apiKeys := ds.db.Collection(ds.config.APIKeyCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "active", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "key", Value: 1},
				{Key: "active", Value: 1},
			},
		},
	}

	if _, err := apiKeys.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create API key indexes: %w", err)
	}

	// The snapshot collection holds a single fixed-id document; _id is enough
	if err := ds.db.CreateCollection(ctx, ds.config.FeedCacheCollection); err != nil {
		// Collection may already exist
		log.Printf("Feed snapshot collection: %v", err)
	}

	log.Println("Database schema setup completed successfully")
	return nil
}

// SeedAPIKeys creates sample API keys when the collection is empty
func (ds *DatabaseSetup) SeedAPIKeys() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Println("Creating test API keys...")

	collection := ds.db.Collection(ds.config.APIKeyCollection)

	count, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count existing documents: %w", err)
	}
	if count > 0 {
		log.Printf("Found %d existing API keys, skipping seed data creation", count)
		return nil
	}

	testAPIKeys := []models.APIKey{
		{
			Key:       "test-api-key-1",
			Name:      "Test API Key 1",
			Active:    true,
			CreatedAt: time.Now(),
		},
		{
			Key:       "test-api-key-2",
			Name:      "Test API Key 2",
			Active:    true,
			CreatedAt: time.Now(),
		},
		{
			Key:       "inactive-test-key",
			Name:      "Inactive Test Key",
			Active:    false,
			CreatedAt: time.Now(),
		},
	}

	for i := 0; i < 5; i++ {
		randomKey, err := generateRandomAPIKey()
		if err != nil {
			return fmt.Errorf("failed to generate random API key: %w", err)
		}

		testAPIKeys = append(testAPIKeys, models.APIKey{
			Key:       randomKey,
			Name:      fmt.Sprintf("Generated Test Key %d", i+1),
			Active:    true,
			CreatedAt: time.Now(),
		})
	}

	documents := make([]interface{}, 0, len(testAPIKeys))
	for _, apiKey := range testAPIKeys {
		documents = append(documents, apiKey)
	}

	result, err := collection.InsertMany(ctx, documents)
	if err != nil {
		return fmt.Errorf("failed to insert test API keys: %w", err)
	}

	log.Printf("Successfully created %d test API keys", len(result.InsertedIDs))
	for _, apiKey := range testAPIKeys {
		status := "active"
		if !apiKey.Active {
			status = "inactive"
		}
		log.Printf("  - %s (%s) [%s]", apiKey.Key, apiKey.Name, status)
	}

	return nil
}

// ClearFeedSnapshot deletes the persisted feed snapshot so the next server
// start begins with a cold cache
func (ds *DatabaseSetup) ClearFeedSnapshot() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := ds.db.Collection(ds.config.FeedCacheCollection)

	result, err := collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to delete feed snapshot: %w", err)
	}

	log.Printf("Deleted %d feed snapshot document(s)", result.DeletedCount)
	return nil
}

// generateRandomAPIKey generates a cryptographically secure random API key
func generateRandomAPIKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// Close closes the database connection
func (ds *DatabaseSetup) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return ds.client.Disconnect(ctx)
}
