package recorder

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Archiver moves old ticks from MongoDB to local gzipped NDJSON files,
// deleting the oldest archives when total size exceeds maxBytes.
type Archiver struct {
	db       *mongo.Database
	dir      string
	maxBytes int64
	maxAge   time.Duration
	log      *slog.Logger
}

// NewArchiver creates an archiver writing under dir.
func NewArchiver(db *mongo.Database, dir string, maxGB, afterHours int, log *slog.Logger) *Archiver {
	return &Archiver{
		db:       db,
		dir:      dir,
		maxBytes: int64(maxGB) * 1 << 30,
		maxAge:   time.Duration(afterHours) * time.Hour,
		log:      log,
	}
}

// Cycle archives every tick older than the age threshold, grouped per day,
// then rotates local archives above the size cap.
func (a *Archiver) Cycle(ctx context.Context) {
	cursor, err := a.loadCursor(ctx)
	if err != nil {
		a.log.Warn("tick archiver: load cursor", "error", err)
		return
	}

	cutoff := time.Now().Add(-a.maxAge)
	if !cursor.Before(cutoff) {
		return
	}

	ticks, err := a.queryTicks(ctx, cursor, cutoff)
	if err != nil {
		a.log.Warn("tick archiver: query", "error", err)
		return
	}
	if len(ticks) == 0 {
		a.saveCursor(ctx, cutoff)
		return
	}

	for day, batch := range groupByDay(ticks) {
		if err := a.writeBatch(day, batch); err != nil {
			a.log.Warn("tick archiver: write", "day", day, "error", err)
			return
		}
		if err := a.deleteBatch(ctx, day, batch); err != nil {
			a.log.Warn("tick archiver: delete", "day", day, "error", err)
			return
		}
		a.log.Info("archived ticks", "day", day, "count", len(batch))
	}

	a.saveCursor(ctx, cutoff)
	a.rotate()
}

func (a *Archiver) loadCursor(ctx context.Context) (time.Time, error) {
	var doc struct {
		ValueTime time.Time `bson:"value_time"`
	}
	err := a.db.Collection("recorder_state").FindOne(ctx, bson.M{"key": "archive_cursor"}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return doc.ValueTime, nil
}

func (a *Archiver) saveCursor(ctx context.Context, t time.Time) {
	_, err := a.db.Collection("recorder_state").UpdateOne(ctx,
		bson.M{"key": "archive_cursor"},
		bson.M{"$set": bson.M{
			"key":        "archive_cursor",
			"value_time": t,
			"updated_at": time.Now(),
		}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		a.log.Warn("tick archiver: save cursor", "error", err)
	}
}

func (a *Archiver) queryTicks(ctx context.Context, from, to time.Time) ([]Tick, error) {
	filter := bson.M{
		"recorded_at": bson.M{"$gte": from, "$lt": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "recorded_at", Value: 1}})

	cur, err := a.db.Collection("ticks").Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find ticks: %w", err)
	}
	defer cur.Close(ctx)

	var ticks []Tick
	if err := cur.All(ctx, &ticks); err != nil {
		return nil, fmt.Errorf("decode ticks: %w", err)
	}
	return ticks, nil
}

func groupByDay(ticks []Tick) map[string][]Tick {
	batches := make(map[string][]Tick)
	for _, t := range ticks {
		day := t.RecordedAt.UTC().Format("2006/01/02")
		batches[day] = append(batches[day], t)
	}
	return batches
}

// writeBatch writes ticks as gzipped NDJSON to dir/ticks/YYYY/MM/DD.jsonl.gz.
func (a *Archiver) writeBatch(day string, ticks []Tick) error {
	path := filepath.Join(a.dir, "ticks", day+".jsonl.gz")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := json.NewEncoder(gz)
	for _, t := range ticks {
		if err := enc.Encode(t); err != nil {
			gz.Close()
			return fmt.Errorf("encode: %w", err)
		}
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("gzip close: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (a *Archiver) deleteBatch(ctx context.Context, day string, ticks []Tick) error {
	first := ticks[0].RecordedAt
	last := ticks[len(ticks)-1].RecordedAt

	_, err := a.db.Collection("ticks").DeleteMany(ctx, bson.M{
		"recorded_at": bson.M{"$gte": first, "$lte": last},
	})
	if err != nil {
		return fmt.Errorf("delete archived ticks: %w", err)
	}
	return nil
}

// rotate deletes the oldest archive files until total size is under maxBytes.
func (a *Archiver) rotate() {
	root := filepath.Join(a.dir, "ticks")

	type entry struct {
		path string
		size int64
	}

	var files []entry
	var total int64

	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		files = append(files, entry{path: path, size: info.Size()})
		total += info.Size()
		return nil
	})

	if total <= a.maxBytes {
		return
	}

	// Path is YYYY/MM/DD so lexicographic order is chronological.
	sort.Slice(files, func(i, j int) bool {
		return files[i].path < files[j].path
	})

	for _, f := range files {
		if total <= a.maxBytes {
			break
		}
		if err := os.Remove(f.path); err != nil {
			a.log.Warn("tick archiver: remove", "path", f.path, "error", err)
			continue
		}
		total -= f.size
		a.log.Info("rotated out archive", "path", f.path, "bytes", f.size)
	}
}
