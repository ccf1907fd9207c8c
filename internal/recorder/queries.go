package recorder

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// TickFilter controls which journaled ticks to return.
type TickFilter struct {
	Symbol string
	Limit  int
	Offset int
	From   *time.Time
	To     *time.Time
}

// TickReader abstracts read-only tick queries.
type TickReader interface {
	QueryTicks(ctx context.Context, f TickFilter) ([]Tick, error)
}

// MongoTickReader implements TickReader using a mongo.Database.
type MongoTickReader struct {
	db *mongo.Database
}

// NewMongoTickReader creates a new MongoTickReader.
func NewMongoTickReader(db *mongo.Database) *MongoTickReader {
	return &MongoTickReader{db: db}
}

// QueryTicks returns ticks for a symbol, newest first, with optional time
// range and pagination.
func (r *MongoTickReader) QueryTicks(ctx context.Context, f TickFilter) ([]Tick, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 100
	}

	filter := bson.M{"symbol": f.Symbol}
	if f.From != nil || f.To != nil {
		timeFilter := bson.M{}
		if f.From != nil {
			timeFilter["$gte"] = *f.From
		}
		if f.To != nil {
			timeFilter["$lte"] = *f.To
		}
		filter["recorded_at"] = timeFilter
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "recorded_at", Value: -1}}).
		SetLimit(int64(f.Limit)).
		SetSkip(int64(f.Offset))

	cursor, err := r.db.Collection("ticks").Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query ticks: %w", err)
	}
	defer cursor.Close(ctx)

	ticks := []Tick{}
	if err := cursor.All(ctx, &ticks); err != nil {
		return nil, fmt.Errorf("decode ticks: %w", err)
	}
	return ticks, nil
}
