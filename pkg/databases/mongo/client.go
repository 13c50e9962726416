package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/haguru/choji/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	MAXPOOLSIZE = 20
	IDFIELD     = "_id"
	SEQFIELD    = "seq"
)

// MongoDBClient owns the MongoDB connection shared by the Mongo repositories.
type MongoDBClient struct {
	ServerOpts       *options.ServerAPIOptions
	client           *mongo.Client
	db               *mongo.Database
	timeout          time.Duration
	countersName     string
	validCollections map[string]bool // A map to validate collection names
}

// NewMongoDB returns an unconnected client configured from dbConfig.
func NewMongoDB(dbConfig *config.MongoDBConfig, countersCollection string) (*MongoDBClient, error) {
	if dbConfig == nil {
		return nil, fmt.Errorf("MongoDBClient: config cannot be nil")
	}
	return &MongoDBClient{
		timeout:          dbConfig.Timeout,
		ServerOpts:       config.BuildServerAPIOptions(dbConfig.Options),
		countersName:     countersCollection,
		validCollections: config.ListToMap(dbConfig.ValidCollections),
	}, nil
}

// NewMongoDBFromDatabase wraps an already connected database.
func NewMongoDBFromDatabase(db *mongo.Database, countersCollection string, validCollections []string) *MongoDBClient {
	return &MongoDBClient{
		client:           db.Client(),
		db:               db,
		countersName:     countersCollection,
		validCollections: config.ListToMap(validCollections),
	}
}

// Connect establishes a connection to the MongoDB database using the provided DSN (Data Source Name).
// The DSN should be in the format "mongodb://<host>:<port>/<database>"; the path selects the database.
func (m *MongoDBClient) Connect(ctx context.Context, dsn string) error {
	if dsn == "" {
		return fmt.Errorf("MongoDBClient: DSN is empty")
	}
	if !strings.HasPrefix(dsn, "mongodb://") && !strings.HasPrefix(dsn, "mongodb+srv://") {
		return fmt.Errorf("MongoDBClient: Invalid DSN format, expected 'mongodb://' or 'mongodb+srv://'")
	}

	databaseName, err := getDBNameFromMongoDSN(dsn)
	if err != nil {
		return fmt.Errorf("MongoDBClient: Failed to extract database name from datasource name(dsn): %w", err)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	clientOptions := options.Client().ApplyURI(dsn)
	if m.ServerOpts != nil {
		clientOptions.SetServerAPIOptions(m.ServerOpts)
	}
	clientOptions.SetMaxPoolSize(MAXPOOLSIZE)
	clientOptions.SetReadPreference(readpref.PrimaryPreferred())

	m.client, err = mongo.Connect(ctx, clientOptions)
	if err != nil {
		return err
	}

	if err = m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("MongoDBClient: Failed to connect to MongoDB server: %w", err)
	}

	m.db = m.client.Database(databaseName)
	return nil
}

// Disconnect closes the connection to the MongoDB database.
func (m *MongoDBClient) Disconnect(ctx context.Context) error {
	if m.client != nil {
		return m.client.Disconnect(ctx)
	}
	return nil
}

// Ping verifies the MongoDB connection health using a ping command.
func (m *MongoDBClient) Ping(ctx context.Context) error {
	if m.client == nil {
		return fmt.Errorf("MongoDBClient is not connected to a database")
	}
	return m.client.Ping(ctx, nil)
}

// Collection returns a handle to a whitelisted collection.
func (m *MongoDBClient) Collection(name string) (*mongo.Collection, error) {
	if m.db == nil {
		return nil, fmt.Errorf("MongoDBClient is not connected to a database")
	}
	if name == "" {
		return nil, fmt.Errorf("MongoDBClient: Collection name cannot be empty")
	}
	if !m.validCollections[name] {
		return nil, fmt.Errorf("MongoDBClient: Invalid collection name: %s", name)
	}
	return m.db.Collection(name), nil
}

// NextSequence atomically increments and returns the named counter. Counters
// start at 1 and give documents increasing integer ids in insertion order.
func (m *MongoDBClient) NextSequence(ctx context.Context, name string) (int64, error) {
	counters, err := m.Collection(m.countersName)
	if err != nil {
		return 0, err
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err = counters.FindOneAndUpdate(ctx,
		bson.M{IDFIELD: name},
		bson.M{"$inc": bson.M{SEQFIELD: int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("MongoDBClient: Failed to advance sequence %s: %w", name, err)
	}
	return counter.Seq, nil
}

// EnsureSchema creates the given indexes on a collection. The collection is
// created implicitly if it does not exist.
func (m *MongoDBClient) EnsureSchema(ctx context.Context, collectionName string, models ...mongo.IndexModel) error {
	collection, err := m.Collection(collectionName)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		return nil
	}
	_, err = collection.Indexes().CreateMany(ctx, models)
	return err
}

// getDBNameFromMongoDSN extracts the database name from a MongoDB DSN.
func getDBNameFromMongoDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse MongoDB DSN: %w", err)
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("no database name found in MongoDB DSN path")
	}

	// For /db/collection style paths only the first segment names the database.
	if idx := strings.Index(dbName, "/"); idx != -1 {
		dbName = dbName[:idx]
	}

	return dbName, nil
}
