package recorder

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// PruneOnce deletes journaled ticks older than the retention window.
// A retention of 0 days keeps everything.
func PruneOnce(ctx context.Context, store *Store, retentionDays int, log *slog.Logger) {
	if retentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	res, err := store.DB().Collection("ticks").DeleteMany(ctx, bson.M{
		"recorded_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		log.Warn("tick retention prune failed", "error", err)
		return
	}
	if res.DeletedCount > 0 {
		log.Info("pruned old ticks", "deleted", res.DeletedCount, "cutoff", cutoff)
	}
}
