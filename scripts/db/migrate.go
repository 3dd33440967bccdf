package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"nft-marketplace-api/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	Up          func(*mongo.Database) error
	Down        func(*mongo.Database) error
}

// MigrationManager handles database migrations
type MigrationManager struct {
	client     *mongo.Client
	db         *mongo.Database
	config     *config.MongoDBConfig
	migrations []Migration
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(cfg *config.MongoDBConfig) (*MigrationManager, error) {
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

	mm := &MigrationManager{
		client: client,
		db:     client.Database(cfg.Database),
		config: cfg,
	}
	mm.initializeMigrations()

	return mm, nil
}

// initializeMigrations sets up all available migrations
func (mm *MigrationManager) initializeMigrations() {
	mm.migrations = []Migration{
		{
			Version:     1,
			Description: "Create API keys collection with unique key index",
			Up:          mm.migration001Up,
			Down:        mm.migration001Down,
		},
		{
			Version:     2,
			Description: "Create feed cache collection for the snapshot document",
			Up:          mm.migration002Up,
			Down:        mm.migration002Down,
		},
		{
			Version:     3,
			Description: "Add lookup indexes for API key validation",
			Up:          mm.migration003Up,
			Down:        mm.migration003Down,
		},
	}
}

// migration001Up creates the API keys collection with a unique key index
func (mm *MigrationManager) migration001Up(db *mongo.Database) error {
	collection := db.Collection(mm.config.APIKeyCollection)

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create unique index on key: %w", err)
	}

	log.Println("Migration 001: Created API keys collection with unique key index")
	return nil
}

// migration001Down removes the API keys collection
func (mm *MigrationManager) migration001Down(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.Collection(mm.config.APIKeyCollection).Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop API keys collection: %w", err)
	}

	log.Println("Migration 001 rollback: Dropped API keys collection")
	return nil
}

// migration002Up creates the feed cache collection. The service holds one
// snapshot document in it, so no indexes beyond _id are needed.
func (mm *MigrationManager) migration002Up(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.CreateCollection(ctx, mm.config.FeedCacheCollection); err != nil {
		// Already existing is fine; the service upserts into it either way
		var cmdErr mongo.CommandError
		if !errors.As(err, &cmdErr) || cmdErr.Name != "NamespaceExists" {
			return fmt.Errorf("failed to create feed cache collection: %w", err)
		}
	}

	log.Println("Migration 002: Created feed cache collection")
	return nil
}

// migration002Down removes the feed cache collection
func (mm *MigrationManager) migration002Down(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.Collection(mm.config.FeedCacheCollection).Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop feed cache collection: %w", err)
	}

	log.Println("Migration 002 rollback: Dropped feed cache collection")
	return nil
}

// migration003Up adds lookup indexes used by API key validation
func (mm *MigrationManager) migration003Up(db *mongo.Database) error {
	collection := db.Collection(mm.config.APIKeyCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	activeIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "active", Value: 1}},
	}
	if _, err := collection.Indexes().CreateOne(ctx, activeIndexModel); err != nil {
		return fmt.Errorf("failed to create active index: %w", err)
	}

	compoundIndexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "key", Value: 1},
			{Key: "active", Value: 1},
		},
	}
	if _, err := collection.Indexes().CreateOne(ctx, compoundIndexModel); err != nil {
		return fmt.Errorf("failed to create compound index: %w", err)
	}

	log.Println("Migration 003: Added API key lookup indexes")
	return nil
}

// migration003Down removes the lookup indexes
func (mm *MigrationManager) migration003Down(db *mongo.Database) error {
	collection := db.Collection(mm.config.APIKeyCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().DropOne(ctx, "active_1"); err != nil {
		log.Printf("Warning: failed to drop active index: %v", err)
	}
	if _, err := collection.Indexes().DropOne(ctx, "key_1_active_1"); err != nil {
		log.Printf("Warning: failed to drop compound index: %v", err)
	}

	log.Println("Migration 003 rollback: Removed API key lookup indexes")
	return nil
}

// GetCurrentVersion returns the current migration version
func (mm *MigrationManager) GetCurrentVersion() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	collection := mm.db.Collection("migrations")

	var result struct {
		Version int `bson:"version"`
	}

	err := collection.FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil // No migrations have been run
		}
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}

	return result.Version, nil
}

// setVersion records the current migration version
func (mm *MigrationManager) setVersion(version int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	doc := bson.M{
		"version":    version,
		"applied_at": time.Now(),
	}

	if _, err := mm.db.Collection("migrations").InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to set version: %w", err)
	}

	return nil
}

// MigrateUp runs all pending migrations
func (mm *MigrationManager) MigrateUp() error {
	currentVersion, err := mm.GetCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	log.Printf("Current migration version: %d", currentVersion)

	for _, migration := range mm.migrations {
		if migration.Version > currentVersion {
			log.Printf("Running migration %d: %s", migration.Version, migration.Description)

			if err := migration.Up(mm.db); err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}
			if err := mm.setVersion(migration.Version); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
			}

			log.Printf("Migration %d completed successfully", migration.Version)
		}
	}

	log.Println("All migrations completed successfully")
	return nil
}

// MigrateDown rolls back the last migration
func (mm *MigrationManager) MigrateDown() error {
	currentVersion, err := mm.GetCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	if currentVersion == 0 {
		log.Println("No migrations to roll back")
		return nil
	}

	var target *Migration
	for i := range mm.migrations {
		if mm.migrations[i].Version == currentVersion {
			target = &mm.migrations[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("migration %d not found", currentVersion)
	}

	log.Printf("Rolling back migration %d: %s", target.Version, target.Description)

	if err := target.Down(mm.db); err != nil {
		return fmt.Errorf("rollback of migration %d failed: %w", target.Version, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := mm.db.Collection("migrations").DeleteOne(ctx, bson.M{"version": currentVersion}); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}

	log.Printf("Migration %d rolled back successfully", target.Version)
	return nil
}

// Close closes the database connection
func (mm *MigrationManager) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return mm.client.Disconnect(ctx)
}

func main() {
	var (
		up      = flag.Bool("up", false, "Run all pending migrations")
		down    = flag.Bool("down", false, "Roll back the last migration")
		version = flag.Bool("version", false, "Print the current migration version")
	)
	flag.Parse()

	if !*up && !*down && !*version {
		flag.Usage()
		return
	}

	cfg := config.LoadConfig()

	manager, err := NewMigrationManager(&cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to create migration manager: %v", err)
	}
	defer manager.Close()

	switch {
	case *version:
		v, err := manager.GetCurrentVersion()
		if err != nil {
			log.Fatalf("Failed to read migration version: %v", err)
		}
		log.Printf("Current migration version: %d", v)
	case *down:
		if err := manager.MigrateDown(); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
	case *up:
		if err := manager.MigrateUp(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Database migration completed successfully!")
	}
}
