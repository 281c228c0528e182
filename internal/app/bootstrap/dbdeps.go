// internal/app/bootstrap/dbdeps.go
package bootstrap

import "go.mongodb.org/mongo-driver/mongo"

// DBDeps bundles the database handles this app needs at runtime.
//
// WAFFLE passes this struct to EnsureSchema, Startup, BuildHandler, and
// Shutdown, so anything connected in ConnectDB should be carried here.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
}
