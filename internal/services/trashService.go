package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arzan03/CloudVault/internal/db"
	"github.com/arzan03/CloudVault/internal/models"
	"github.com/arzan03/CloudVault/internal/storage"
	"github.com/arzan03/CloudVault/internal/utils"
)

// TrashService handles everything soft-deleted: listing, restore and the
// two permanent exits (purge one file, empty everything).
type TrashService struct {
	db    *mongo.Database
	store *storage.Store
}

// NewTrashService wires the trash service to its database and object
// store.
func NewTrashService(database *mongo.Database, store *storage.Store) *TrashService {
	return &TrashService{db: database, store: store}
}

func (s *TrashService) files() *mongo.Collection {
	return s.db.Collection(db.CollFiles)
}

func (s *TrashService) folders() *mongo.Collection {
	return s.db.Collection(db.CollFolders)
}

// Index lists the owner's trashed files and folders, newest deletions
// first.
func (s *TrashService) Index(ctx context.Context, ownerID string) ([]models.File, []models.Folder, error) {
	owner, err := parseID(ownerID, "user")
	if err != nil {
		return nil, nil, err
	}

	filter := bson.M{"owner_id": owner, "deleted_at": bson.M{"$ne": nil}}
	sort := options.Find().SetSort(bson.D{{Key: "deleted_at", Value: -1}})

	fileCursor, err := s.files().Find(ctx, filter, sort)
	if err != nil {
		return nil, nil, fmt.Errorf("list trashed files: %w", err)
	}
	var files []models.File
	if err := fileCursor.All(ctx, &files); err != nil {
		return nil, nil, fmt.Errorf("decode trashed files: %w", err)
	}

	folderCursor, err := s.folders().Find(ctx, filter, sort)
	if err != nil {
		return nil, nil, fmt.Errorf("list trashed folders: %w", err)
	}
	var folders []models.Folder
	if err := folderCursor.All(ctx, &folders); err != nil {
		return nil, nil, fmt.Errorf("decode trashed folders: %w", err)
	}
	return files, folders, nil
}

// Restore clears the deletion mark on the given items. Restoring a
// folder also restores its direct files and direct subfolders, mirroring
// the delete cascade one level deep.
func (s *TrashService) Restore(ctx context.Context, ownerID string, fileIDs, folderIDs []string) ([]ItemResult, error) {
	owner, err := parseID(ownerID, "user")
	if err != nil {
		return nil, err
	}
	if len(fileIDs)+len(folderIDs) == 0 {
		return nil, NewValidationError("nothing to restore")
	}

	results := make([]ItemResult, 0, len(fileIDs)+len(folderIDs))
	for _, id := range fileIDs {
		err := s.restoreFile(ctx, owner, id)
		results = append(results, itemOutcome("file", id, StatusRestored, err))
	}
	for _, id := range folderIDs {
		err := s.restoreFolder(ctx, owner, id)
		results = append(results, itemOutcome("folder", id, StatusRestored, err))
	}
	return results, nil
}

func (s *TrashService) restoreFile(ctx context.Context, owner primitive.ObjectID, id string) error {
	oid, err := parseID(id, "file")
	if err != nil {
		return err
	}
	res, err := s.files().UpdateOne(ctx,
		bson.M{"_id": oid, "owner_id": owner, "deleted_at": bson.M{"$ne": nil}},
		restoreUpdate(),
	)
	if err != nil {
		return fmt.Errorf("restore file: %w", err)
	}
	if res.MatchedCount == 0 {
		return notFound("trashed file")
	}
	return nil
}

func (s *TrashService) restoreFolder(ctx context.Context, owner primitive.ObjectID, id string) error {
	oid, err := parseID(id, "folder")
	if err != nil {
		return err
	}
	res, err := s.folders().UpdateOne(ctx,
		bson.M{"_id": oid, "owner_id": owner, "deleted_at": bson.M{"$ne": nil}},
		restoreUpdate(),
	)
	if err != nil {
		return fmt.Errorf("restore folder: %w", err)
	}
	if res.MatchedCount == 0 {
		return notFound("trashed folder")
	}

	if _, err := s.files().UpdateMany(ctx,
		bson.M{"folder_id": oid, "deleted_at": bson.M{"$ne": nil}},
		restoreUpdate(),
	); err != nil {
		return fmt.Errorf("restore folder files: %w", err)
	}
	if _, err := s.folders().UpdateMany(ctx,
		bson.M{"parent_id": oid, "deleted_at": bson.M{"$ne": nil}},
		restoreUpdate(),
	); err != nil {
		return fmt.Errorf("restore subfolders: %w", err)
	}
	return nil
}

func restoreUpdate() bson.M {
	return bson.M{
		"$unset": bson.M{"deleted_at": ""},
		"$set":   bson.M{"updated_at": time.Now()},
	}
}

// PurgeFile permanently deletes one trashed file: bytes first, row
// second. Missing bytes are tolerated so a purge can always finish.
func (s *TrashService) PurgeFile(ctx context.Context, ownerID, id string) error {
	owner, err := parseID(ownerID, "user")
	if err != nil {
		return err
	}
	oid, err := parseID(id, "file")
	if err != nil {
		return err
	}

	var file models.File
	err = s.files().FindOne(ctx, bson.M{"_id": oid, "owner_id": owner, "deleted_at": bson.M{"$ne": nil}}).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return notFound("trashed file")
		}
		return fmt.Errorf("load trashed file: %w", err)
	}

	if err := s.store.Remove(ctx, file.StorageKey); err != nil {
		return fmt.Errorf("remove file content: %w", err)
	}
	if _, err := s.files().DeleteOne(ctx, bson.M{"_id": file.ID}); err != nil {
		return fmt.Errorf("delete file row: %w", err)
	}
	return nil
}

// TrashCounts reports how many rows Empty removed.
type TrashCounts struct {
	Files   int64 `json:"files"`
	Folders int64 `json:"folders"`
}

// Empty permanently deletes everything in the owner's trash. Object
// removals fan out over a worker pool and are best-effort; the rows go
// regardless so the trash always ends up empty.
func (s *TrashService) Empty(ctx context.Context, ownerID string) (TrashCounts, error) {
	owner, err := parseID(ownerID, "user")
	if err != nil {
		return TrashCounts{}, err
	}

	filter := bson.M{"owner_id": owner, "deleted_at": bson.M{"$ne": nil}}

	cursor, err := s.files().Find(ctx, filter, options.Find().SetProjection(bson.M{"storage_key": 1}))
	if err != nil {
		return TrashCounts{}, fmt.Errorf("list trashed files: %w", err)
	}
	var rows []struct {
		StorageKey string `bson:"storage_key"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return TrashCounts{}, fmt.Errorf("decode trashed files: %w", err)
	}

	if len(rows) > 0 {
		pool := utils.NewWorkerPool(8)
		for _, row := range rows {
			key := row.StorageKey
			pool.AddTask(func() {
				_ = s.store.Remove(ctx, key)
			})
		}
		pool.Wait()
		pool.Close()
	}

	fileRes, err := s.files().DeleteMany(ctx, filter)
	if err != nil {
		return TrashCounts{}, fmt.Errorf("delete trashed files: %w", err)
	}
	folderRes, err := s.folders().DeleteMany(ctx, filter)
	if err != nil {
		return TrashCounts{}, fmt.Errorf("delete trashed folders: %w", err)
	}
	return TrashCounts{Files: fileRes.DeletedCount, Folders: folderRes.DeletedCount}, nil
}
