package database

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DB struct {
	Client *mongo.Client
}

var _init_ctx sync.Once
var _instance *DB
var DatabaseName = "StreamServerClient"

// New returns the shared MongoDB client. The connection is configured
// through MONGODB_URI, or MONGODB_HOST with optional credentials.
func New() *DB {
	_init_ctx.Do(func() {
		_instance = new(DB)

		uri := os.Getenv("MONGODB_URI")
		if uri == "" {
			uri = "mongodb://" + os.Getenv("MONGODB_HOST")
		}
		clientOptions := options.Client().
			ApplyURI(uri).
			SetConnectTimeout(3 * time.Second).
			SetServerSelectionTimeout(5 * time.Second)

		username := os.Getenv("MONGODB_USERNAME")
		if username != "" {
			clientOptions.SetAuth(options.Credential{
				AuthSource: os.Getenv("MONGODB_DATABASE_CREDENTIALS"),
				Username:   username,
				Password:   os.Getenv("MONGODB_PASSWORD"),
			})
		}
		if name := os.Getenv("MONGODB_DATABASE"); name != "" {
			DatabaseName = name
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client, err := mongo.Connect(ctx, clientOptions)
		if err != nil {
			log.Log.Fatal("database.main.New(): " + err.Error())
			return
		}
		_instance.Client = client
	})
	return _instance
}

// Collection returns a collection of the configured database.
func (db *DB) Collection(name string) *mongo.Collection {
	return db.Client.Database(DatabaseName).Collection(name)
}
