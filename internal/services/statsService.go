package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/arzan03/CloudVault/internal/db"
	"github.com/arzan03/CloudVault/internal/models"
)

// AccessBreakdown groups access counts per dimension, e.g.
// {"country": {"DE": 4}, "browser": {"Firefox": 2}}.
type AccessBreakdown map[string]map[string]int64

// AccessLogSource supplies per-file access breakdowns. The default build
// has none; stats then carry the lifetime counters only.
type AccessLogSource interface {
	FileBreakdown(ctx context.Context, fileID primitive.ObjectID) (AccessBreakdown, error)
}

// StatsService answers usage questions: storage against quota and
// per-file access figures.
type StatsService struct {
	db     *mongo.Database
	quota  int64
	access AccessLogSource
}

// NewStatsService wires the stats service. access may be nil.
func NewStatsService(database *mongo.Database, quotaBytes int64, access AccessLogSource) *StatsService {
	return &StatsService{db: database, quota: quotaBytes, access: access}
}

func (s *StatsService) files() *mongo.Collection {
	return s.db.Collection(db.CollFiles)
}

// StorageStats reports usage against the fixed quota. Trashed files still
// count until purged since their bytes are still held.
type StorageStats struct {
	UsedBytes      int64   `json:"used_bytes"`
	QuotaBytes     int64   `json:"quota_bytes"`
	AvailableBytes int64   `json:"available_bytes"`
	UsedPercent    float64 `json:"used_percent"`
	FileCount      int64   `json:"file_count"`
	UsedHuman      string  `json:"used_human"`
	QuotaHuman     string  `json:"quota_human"`
}

// Storage sums the owner's file sizes and relates them to the quota.
func (s *StatsService) Storage(ctx context.Context, ownerID string) (StorageStats, error) {
	owner, err := parseID(ownerID, "user")
	if err != nil {
		return StorageStats{}, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"owner_id": owner}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"size":  bson.M{"$sum": "$size"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := s.files().Aggregate(ctx, pipeline)
	if err != nil {
		return StorageStats{}, fmt.Errorf("aggregate storage usage: %w", err)
	}
	var rows []struct {
		Size  int64 `bson:"size"`
		Count int64 `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return StorageStats{}, fmt.Errorf("decode storage usage: %w", err)
	}

	stats := StorageStats{QuotaBytes: s.quota}
	if len(rows) > 0 {
		stats.UsedBytes = rows[0].Size
		stats.FileCount = rows[0].Count
	}
	stats.AvailableBytes = stats.QuotaBytes - stats.UsedBytes
	if stats.AvailableBytes < 0 {
		stats.AvailableBytes = 0
	}
	if stats.QuotaBytes > 0 {
		stats.UsedPercent = float64(stats.UsedBytes) / float64(stats.QuotaBytes) * 100
	}
	stats.UsedHuman = humanize.IBytes(uint64(stats.UsedBytes))
	stats.QuotaHuman = humanize.IBytes(uint64(stats.QuotaBytes))
	return stats, nil
}

// FileStats carries the lifetime counters of one file plus, when an
// access log source is wired in, the per-dimension breakdown.
type FileStats struct {
	FileID             string          `json:"file_id"`
	Name               string          `json:"name"`
	Size               int64           `json:"size"`
	SizeHuman          string          `json:"size_human"`
	Downloads          int64           `json:"downloads"`
	LastAccessedAt     *time.Time      `json:"last_accessed_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	BreakdownAvailable bool            `json:"breakdown_available"`
	Breakdown          AccessBreakdown `json:"breakdown,omitempty"`
}

// FileStats answers for one owned, non-deleted file. Without an access
// log source the breakdown is reported as unavailable rather than made
// up.
func (s *StatsService) FileStats(ctx context.Context, ownerID, id string) (FileStats, error) {
	owner, err := parseID(ownerID, "user")
	if err != nil {
		return FileStats{}, err
	}
	oid, err := parseID(id, "file")
	if err != nil {
		return FileStats{}, err
	}

	var file models.File
	err = s.files().FindOne(ctx, bson.M{"_id": oid, "owner_id": owner, "deleted_at": nil}).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return FileStats{}, notFound("file")
		}
		return FileStats{}, fmt.Errorf("load file: %w", err)
	}

	stats := FileStats{
		FileID:         file.ID.Hex(),
		Name:           file.Name,
		Size:           file.Size,
		SizeHuman:      humanize.IBytes(uint64(file.Size)),
		Downloads:      file.Downloads,
		LastAccessedAt: file.LastAccessedAt,
		CreatedAt:      file.CreatedAt,
	}
	if s.access != nil {
		breakdown, err := s.access.FileBreakdown(ctx, file.ID)
		if err != nil {
			return FileStats{}, fmt.Errorf("load access breakdown: %w", err)
		}
		stats.Breakdown = breakdown
		stats.BreakdownAvailable = true
	}
	return stats, nil
}
