// Package database opens connections to the relational and document
// endpoints the loader and extractor talk to. The SQL driver is selected
// from the connection string's URI scheme.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// OpenSQL opens a relational endpoint identified by a connection-string URI
// and verifies it with a short ping. It returns the handle together with the
// resolved driver name so callers can pick the right placeholder dialect.
func OpenSQL(connString string) (*sql.DB, string, error) {
	driverName, dsn, err := resolveDriver(connString)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("error opening %s database: %w", driverName, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("error connecting to %s database (ping failed): %w", driverName, err)
	}

	return db, driverName, nil
}

// resolveDriver maps a URI scheme to a registered driver and the DSN form
// that driver expects. lib/pq and go-mssqldb take the URI as-is; the mysql
// and sqlite drivers want it without the scheme prefix.
func resolveDriver(connString string) (driverName, dsn string, err error) {
	scheme, rest, found := strings.Cut(connString, "://")
	if !found {
		return "", "", fmt.Errorf("connection string must be a URI with a scheme: %q", connString)
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return "postgres", connString, nil
	case "mysql":
		return "mysql", rest, nil
	case "sqlite", "file":
		return "sqlite", rest, nil
	case "sqlserver":
		return "sqlserver", connString, nil
	case "mssql":
		return "sqlserver", "sqlserver://" + rest, nil
	default:
		return "", "", fmt.Errorf("unsupported database scheme %q", scheme)
	}
}

// ConnectMongo connects to a MongoDB endpoint and verifies it with a ping.
func ConnectMongo(connString string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connString))
	if err != nil {
		return nil, fmt.Errorf("error creating MongoDB client: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)

		return nil, fmt.Errorf("error connecting to MongoDB (ping failed): %w", err)
	}

	return client, nil
}
