package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/Jonathon-AR/resollectAssignment/internal/config"
	"github.com/Jonathon-AR/resollectAssignment/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoConnectTimeout = 10 * time.Second
	mongoQueryTimeout   = 5 * time.Second
)

// MongoDBClient stores task records in a MongoDB collection
type MongoDBClient struct {
	client     *mongo.Client
	database   *mongo.Database
	collection *mongo.Collection
}

// NewMongoDBClient connects to MongoDB and ensures the task indexes exist
func NewMongoDBClient(cfg config.MongoDBConfig) (*MongoDBClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()

	uri, logURI := buildMongoURI(cfg)
	log.Printf("Attempting to connect to MongoDB at %s", logURI)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB at %s: %w", logURI, err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB at %s: %w", logURI, err)
	}

	database := client.Database(cfg.Database)
	collection := database.Collection(cfg.Collection)

	// Listing sorts on created_at; the sweeper filters on status + deadline
	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "deadline", Value: 1}}},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		// Index might already exist, that's okay
		log.Printf("Note: MongoDB task index creation: %v", err)
	}

	log.Printf("Successfully connected to MongoDB (database: %s, collection: %s)", cfg.Database, cfg.Collection)

	return &MongoDBClient{
		client:     client,
		database:   database,
		collection: collection,
	}, nil
}

// withQueryTimeout bounds ctx by mongoQueryTimeout unless the caller already
// set a deadline
func withQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, mongoQueryTimeout)
}

// buildMongoURI returns the connection URI and a copy safe for logging
func buildMongoURI(cfg config.MongoDBConfig) (uri string, logURI string) {
	if cfg.URI != "" {
		return cfg.URI, "(configured URI)"
	}

	authSource := cfg.AuthSource
	if authSource == "" {
		authSource = "admin"
	}

	if cfg.Username != "" && cfg.Password != "" {
		// url.UserPassword escapes reserved characters in credentials
		userInfo := url.UserPassword(cfg.Username, cfg.Password)
		uri = fmt.Sprintf("mongodb://%s@%s:%s/%s?authSource=%s",
			userInfo.String(), cfg.Host, cfg.Port, cfg.Database, url.QueryEscape(authSource))
		logURI = fmt.Sprintf("mongodb://%s:***@%s:%s/%s?authSource=%s",
			url.User(cfg.Username).String(), cfg.Host, cfg.Port, cfg.Database, url.QueryEscape(authSource))
		return uri, logURI
	}

	uri = fmt.Sprintf("mongodb://%s:%s/%s", cfg.Host, cfg.Port, cfg.Database)
	return uri, uri
}

// Close closes the MongoDB client connection
func (c *MongoDBClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoQueryTimeout)
	defer cancel()
	return c.client.Disconnect(ctx)
}

// Ping checks that the MongoDB deployment is reachable
func (c *MongoDBClient) Ping(ctx context.Context) error {
	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()
	return c.client.Ping(ctx, nil)
}

// ListTasks returns matching tasks, newest first
func (c *MongoDBClient) ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := c.collection.Find(ctx, taskFilterDocument(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := make([]models.Task, 0)
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}

	return tasks, nil
}

// GetTask retrieves a task by ID
func (c *MongoDBClient) GetTask(ctx context.Context, id string) (*models.Task, error) {
	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	var task models.Task
	err := c.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to query task %s: %w", id, err)
	}

	return &task, nil
}

// InsertTask stores a new task document
func (c *MongoDBClient) InsertTask(ctx context.Context, task *models.Task) error {
	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	if _, err := c.collection.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("failed to insert task %s: %w", task.ID, err)
	}

	return nil
}

// UpdateTask applies a partial update and returns the updated document
func (c *MongoDBClient) UpdateTask(ctx context.Context, id string, update TaskUpdate) (*models.Task, error) {
	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var task models.Task
	err := c.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, taskUpdateDocument(update), opts).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task %s: %w", id, err)
	}

	return &task, nil
}

// UpdateMany applies update to every matching task in a single UpdateMany call
func (c *MongoDBClient) UpdateMany(ctx context.Context, filter TaskFilter, update TaskUpdate) (int64, error) {
	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	result, err := c.collection.UpdateMany(ctx, taskFilterDocument(filter), taskUpdateDocument(update))
	if err != nil {
		return 0, fmt.Errorf("failed to update tasks: %w", err)
	}

	return result.ModifiedCount, nil
}

// DeleteTask removes a task by ID
func (c *MongoDBClient) DeleteTask(ctx context.Context, id string) error {
	ctx, cancel := withQueryTimeout(ctx)
	defer cancel()

	result, err := c.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// taskFilterDocument translates a TaskFilter into a MongoDB query document
func taskFilterDocument(filter TaskFilter) bson.M {
	doc := bson.M{}
	if filter.ID != nil {
		doc["_id"] = *filter.ID
	}
	if filter.Status != nil {
		doc["status"] = string(*filter.Status)
	}
	if filter.DeadlineBefore != nil {
		doc["deadline"] = bson.M{"$lt": *filter.DeadlineBefore}
	}
	return doc
}

// taskUpdateDocument translates a TaskUpdate into a $set document
func taskUpdateDocument(update TaskUpdate) bson.M {
	set := bson.M{"updated_at": update.UpdatedAt}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Status != nil {
		set["status"] = string(*update.Status)
	}
	if update.Deadline != nil {
		set["deadline"] = *update.Deadline
	}
	if update.Completed != nil {
		set["completed"] = *update.Completed
	}
	if update.SetCompletedAt {
		set["completed_at"] = update.CompletedAt
	}
	return bson.M{"$set": set}
}
