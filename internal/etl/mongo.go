package etl

import (
	"context"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ricferal/mvpPucEngenhariaDados/pkg/logger"
)

// MongoExtractor reads a MongoDB collection into a Dataset.
type MongoExtractor struct {
	Client *mongo.Client
}

// FromCollection fetches the documents matching filter (nil means all) into
// a Dataset. Documents are sorted by _id for a stable row order; BSON scalar
// types are normalized to the dataset's scalar types.
func (m *MongoExtractor) FromCollection(ctx context.Context, dbName, collName string, filter bson.M) (*Dataset, error) {
	if m.Client == nil {
		return nil, fmt.Errorf("%w: mongo client not established", ErrState)
	}
	if filter == nil {
		filter = bson.M{}
	}

	logger.Infof("Extracting data from MongoDB collection: %s.%s", dbName, collName)
	coll := m.Client.Database(dbName).Collection(collName)

	findOpts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := coll.Find(ctx, filter, findOpts)
	if err != nil {
		logger.Errorf("Error extracting data from MongoDB: %v", err)
		return nil, fmt.Errorf("find %s.%s: %w: %w", dbName, collName, ErrIO, err)
	}
	defer cursor.Close(ctx)

	var rows []Row
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode document: %w: %w", ErrParse, err)
		}
		row := make(Row, len(doc))
		for k, v := range doc {
			row[k] = normalizeBSONValue(v)
		}
		rows = append(rows, row)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s.%s: %w: %w", dbName, collName, ErrIO, err)
	}

	names := collectColumnNames(rows)
	ds := &Dataset{Schema: InferSchema(names, rows), Rows: rows}
	logger.Infof("Successfully extracted %d documents from MongoDB", ds.NumRows())
	return ds, nil
}

// normalizeBSONValue maps BSON scalars to dataset scalars. Nested documents
// and arrays are kept as serialized JSON strings.
func normalizeBSONValue(v any) any {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time()
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case primitive.A, primitive.M:
		b, _ := json.Marshal(t)
		return string(b)
	default:
		return v
	}
}
