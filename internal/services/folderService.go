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
)

// maxFolderDepth bounds ancestor walks so a corrupted parent chain can
// never loop a request forever.
const maxFolderDepth = 64

// parentLookup resolves a folder id to its parent id (nil at root level).
type parentLookup func(primitive.ObjectID) (*primitive.ObjectID, error)

// wouldCreateCycle reports whether parenting folderID under destID would
// make the folder its own ancestor: destID equals the folder itself or
// lies anywhere in the folder's subtree. The destination's ancestor chain
// is walked iteratively to the root.
func wouldCreateCycle(folderID primitive.ObjectID, destID *primitive.ObjectID, lookup parentLookup) (bool, error) {
	current := destID
	for depth := 0; current != nil; depth++ {
		if depth >= maxFolderDepth {
			return false, errors.New("folder tree too deep")
		}
		if *current == folderID {
			return true, nil
		}
		parent, err := lookup(*current)
		if err != nil {
			return false, err
		}
		current = parent
	}
	return false, nil
}

// FolderService owns the per-user folder tree.
type FolderService struct {
	db *mongo.Database
}

// NewFolderService wires the folder service to its database.
func NewFolderService(database *mongo.Database) *FolderService {
	return &FolderService{db: database}
}

func (s *FolderService) folders() *mongo.Collection {
	return s.db.Collection(db.CollFolders)
}

func (s *FolderService) files() *mongo.Collection {
	return s.db.Collection(db.CollFiles)
}

// CreateFolderInput is the validated payload for Create.
type CreateFolderInput struct {
	Name            string
	ParentID        string
	Visibility      string
	Password        string
	AllowDownload   bool
	WatermarkImages bool
}

// Create adds a folder for the owner. The parent, when given, must be an
// existing folder of the same owner.
func (s *FolderService) Create(ctx context.Context, ownerID string, in CreateFolderInput, defaultVisibility string) (models.Folder, error) {
	owner, err := parseID(ownerID, "user")
	if err != nil {
		return models.Folder{}, err
	}
	parent, err := s.resolveParent(ctx, owner, in.ParentID)
	if err != nil {
		return models.Folder{}, err
	}

	visibility := in.Visibility
	if visibility == "" {
		visibility = defaultVisibility
	}
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}

	now := time.Now()
	folder := models.Folder{
		ID:              primitive.NewObjectID(),
		OwnerID:         owner,
		ParentID:        parent,
		Name:            in.Name,
		Visibility:      visibility,
		AllowDownload:   in.AllowDownload,
		WatermarkImages: in.WatermarkImages,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.Password != "" {
		hashed, err := HashPassword(in.Password)
		if err != nil {
			return models.Folder{}, fmt.Errorf("hash folder password: %w", err)
		}
		folder.Password = &hashed
	}

	if _, err := s.folders().InsertOne(ctx, folder); err != nil {
		return models.Folder{}, fmt.Errorf("insert folder: %w", err)
	}
	return folder, nil
}

// Get loads an owned, non-deleted folder.
func (s *FolderService) Get(ctx context.Context, ownerID, id string) (models.Folder, error) {
	owner, err := parseID(ownerID, "user")
	if err != nil {
		return models.Folder{}, err
	}
	oid, err := parseID(id, "folder")
	if err != nil {
		return models.Folder{}, err
	}
	var folder models.Folder
	err = s.folders().FindOne(ctx, bson.M{"_id": oid, "owner_id": owner, "deleted_at": nil}).Decode(&folder)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Folder{}, notFound("folder")
		}
		return models.Folder{}, fmt.Errorf("load folder: %w", err)
	}
	return folder, nil
}

// List returns one page of the owner's folders. parentScope nil means all
// folders; the empty string scopes to root level; an id scopes to that
// folder's direct subfolders.
func (s *FolderService) List(ctx context.Context, ownerID string, params ListParams, parentScope *string) ([]models.Folder, PageMeta, error) {
	owner, err := parseID(ownerID, "user")
	if err != nil {
		return nil, PageMeta{}, err
	}

	filter := bson.M{"owner_id": owner, "deleted_at": nil}
	if parentScope != nil {
		if *parentScope == "" {
			filter["parent_id"] = nil
		} else {
			parent, err := parseID(*parentScope, "folder")
			if err != nil {
				return nil, PageMeta{}, err
			}
			filter["parent_id"] = parent
		}
	}
	if params.Query != "" {
		filter["name"] = substringFilter(params.Query)
	}

	page, pageSize, sort := params.normalize(folderSortFields)
	total, err := s.folders().CountDocuments(ctx, filter)
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("count folders: %w", err)
	}
	cursor, err := s.folders().Find(ctx, filter, findOptions(page, pageSize, sort))
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("list folders: %w", err)
	}
	var folders []models.Folder
	if err := cursor.All(ctx, &folders); err != nil {
		return nil, PageMeta{}, fmt.Errorf("decode folders: %w", err)
	}
	return folders, NewPageMeta(total, page, pageSize), nil
}

// UpdateFolderInput is the partial update payload. Nil pointers leave
// fields untouched. ParentID "" moves the folder to root level. Password
// "" clears protection, any other value re-hashes.
type UpdateFolderInput struct {
	Name            *string
	ParentID        *string
	Visibility      *string
	Password        *string
	AllowDownload   *bool
	WatermarkImages *bool
}

// Update applies a partial update, running the cycle check whenever the
// folder is reparented.
func (s *FolderService) Update(ctx context.Context, ownerID, id string, in UpdateFolderInput) (models.Folder, error) {
	folder, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return models.Folder{}, err
	}

	set := bson.M{"updated_at": time.Now()}
	unset := bson.M{}

	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.Visibility != nil {
		set["visibility"] = *in.Visibility
	}
	if in.AllowDownload != nil {
		set["allow_download"] = *in.AllowDownload
	}
	if in.WatermarkImages != nil {
		set["watermark_images"] = *in.WatermarkImages
	}
	if in.Password != nil {
		if *in.Password == "" {
			unset["password"] = ""
		} else {
			hashed, err := HashPassword(*in.Password)
			if err != nil {
				return models.Folder{}, fmt.Errorf("hash folder password: %w", err)
			}
			set["password"] = hashed
		}
	}
	if in.ParentID != nil {
		dest, err := s.resolveParent(ctx, folder.OwnerID, *in.ParentID)
		if err != nil {
			return models.Folder{}, err
		}
		cycle, err := wouldCreateCycle(folder.ID, dest, s.parentOf(ctx, folder.OwnerID))
		if err != nil {
			return models.Folder{}, err
		}
		if cycle {
			return models.Folder{}, NewValidationError("a folder cannot be moved into itself or its own subfolder")
		}
		if dest == nil {
			unset["parent_id"] = ""
		} else {
			set["parent_id"] = *dest
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if _, err := s.folders().UpdateOne(ctx, bson.M{"_id": folder.ID}, update); err != nil {
		return models.Folder{}, fmt.Errorf("update folder: %w", err)
	}
	return s.Get(ctx, ownerID, id)
}

// SoftDelete trashes a folder and cascades one level down: its direct
// files and direct subfolders get the same deletion timestamp. Deeper
// levels are intentionally left alone; restore mirrors this.
func (s *FolderService) SoftDelete(ctx context.Context, ownerID, id string) error {
	folder, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}

	now := time.Now()
	mark := bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}}

	res, err := s.folders().UpdateOne(ctx, bson.M{"_id": folder.ID, "deleted_at": nil}, mark)
	if err != nil {
		return fmt.Errorf("trash folder: %w", err)
	}
	if res.MatchedCount == 0 {
		return notFound("folder")
	}

	if _, err := s.files().UpdateMany(ctx, bson.M{"folder_id": folder.ID, "deleted_at": nil}, mark); err != nil {
		return fmt.Errorf("trash folder files: %w", err)
	}
	if _, err := s.folders().UpdateMany(ctx, bson.M{"parent_id": folder.ID, "deleted_at": nil}, mark); err != nil {
		return fmt.Errorf("trash subfolders: %w", err)
	}
	return nil
}

// Contents returns the folder itself, all direct subfolders and one page
// of its direct files.
func (s *FolderService) Contents(ctx context.Context, ownerID, id string, params ListParams) (models.Folder, []models.Folder, []models.File, PageMeta, error) {
	folder, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return models.Folder{}, nil, nil, PageMeta{}, err
	}

	subCursor, err := s.folders().Find(ctx,
		bson.M{"parent_id": folder.ID, "deleted_at": nil},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}),
	)
	if err != nil {
		return models.Folder{}, nil, nil, PageMeta{}, fmt.Errorf("list subfolders: %w", err)
	}
	var subfolders []models.Folder
	if err := subCursor.All(ctx, &subfolders); err != nil {
		return models.Folder{}, nil, nil, PageMeta{}, fmt.Errorf("decode subfolders: %w", err)
	}

	filter := bson.M{"folder_id": folder.ID, "deleted_at": nil}
	if params.Query != "" {
		filter["$or"] = bson.A{
			bson.M{"name": substringFilter(params.Query)},
			bson.M{"description": substringFilter(params.Query)},
		}
	}
	page, pageSize, sort := params.normalize(fileSortFields)
	total, err := s.files().CountDocuments(ctx, filter)
	if err != nil {
		return models.Folder{}, nil, nil, PageMeta{}, fmt.Errorf("count folder files: %w", err)
	}
	fileCursor, err := s.files().Find(ctx, filter, findOptions(page, pageSize, sort))
	if err != nil {
		return models.Folder{}, nil, nil, PageMeta{}, fmt.Errorf("list folder files: %w", err)
	}
	var files []models.File
	if err := fileCursor.All(ctx, &files); err != nil {
		return models.Folder{}, nil, nil, PageMeta{}, fmt.Errorf("decode folder files: %w", err)
	}

	return folder, subfolders, files, NewPageMeta(total, page, pageSize), nil
}

// FolderStats aggregates direct children only; nothing recurses.
type FolderStats struct {
	FileCount      int64 `json:"file_count"`
	SubfolderCount int64 `json:"subfolder_count"`
	TotalSize      int64 `json:"total_size"`
	TotalDownloads int64 `json:"total_downloads"`
}

// Stats computes direct file count, direct subfolder count and the sums
// of sizes and download counters.
func (s *FolderService) Stats(ctx context.Context, ownerID, id string) (FolderStats, error) {
	folder, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return FolderStats{}, err
	}

	var stats FolderStats

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"folder_id": folder.ID, "deleted_at": nil}}},
		{{Key: "$group", Value: bson.M{
			"_id":       nil,
			"count":     bson.M{"$sum": 1},
			"size":      bson.M{"$sum": "$size"},
			"downloads": bson.M{"$sum": "$downloads"},
		}}},
	}
	cursor, err := s.files().Aggregate(ctx, pipeline)
	if err != nil {
		return FolderStats{}, fmt.Errorf("aggregate folder files: %w", err)
	}
	var rows []struct {
		Count     int64 `bson:"count"`
		Size      int64 `bson:"size"`
		Downloads int64 `bson:"downloads"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return FolderStats{}, fmt.Errorf("decode folder stats: %w", err)
	}
	if len(rows) > 0 {
		stats.FileCount = rows[0].Count
		stats.TotalSize = rows[0].Size
		stats.TotalDownloads = rows[0].Downloads
	}

	subfolders, err := s.folders().CountDocuments(ctx, bson.M{"parent_id": folder.ID, "deleted_at": nil})
	if err != nil {
		return FolderStats{}, fmt.Errorf("count subfolders: %w", err)
	}
	stats.SubfolderCount = subfolders
	return stats, nil
}

// MoveFolder reparents one folder, skipping moves that would create a
// cycle. Used by the bulk move operation.
func (s *FolderService) MoveFolder(ctx context.Context, owner primitive.ObjectID, folderID string, dest *primitive.ObjectID) error {
	oid, err := parseID(folderID, "folder")
	if err != nil {
		return err
	}
	err = s.folders().FindOne(ctx, bson.M{"_id": oid, "owner_id": owner, "deleted_at": nil}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return notFound("folder")
		}
		return fmt.Errorf("load folder: %w", err)
	}

	cycle, err := wouldCreateCycle(oid, dest, s.parentOf(ctx, owner))
	if err != nil {
		return err
	}
	if cycle {
		return NewValidationError("a folder cannot be moved into itself or its own subfolder")
	}

	update := bson.M{"$set": bson.M{"updated_at": time.Now()}}
	if dest == nil {
		update["$unset"] = bson.M{"parent_id": ""}
	} else {
		update["$set"].(bson.M)["parent_id"] = *dest
	}
	if _, err := s.folders().UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
		return fmt.Errorf("move folder: %w", err)
	}
	return nil
}

// CopyFolder duplicates the folder row only; contents are not copied.
func (s *FolderService) CopyFolder(ctx context.Context, owner primitive.ObjectID, folderID string, dest *primitive.ObjectID) (models.Folder, error) {
	oid, err := parseID(folderID, "folder")
	if err != nil {
		return models.Folder{}, err
	}
	var src models.Folder
	err = s.folders().FindOne(ctx, bson.M{"_id": oid, "owner_id": owner, "deleted_at": nil}).Decode(&src)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Folder{}, notFound("folder")
		}
		return models.Folder{}, fmt.Errorf("load folder: %w", err)
	}

	now := time.Now()
	dup := src
	dup.ID = primitive.NewObjectID()
	dup.ParentID = dest
	dup.Name = "Copy of " + src.Name
	dup.CreatedAt = now
	dup.UpdatedAt = now

	if _, err := s.folders().InsertOne(ctx, dup); err != nil {
		return models.Folder{}, fmt.Errorf("copy folder: %w", err)
	}
	return dup, nil
}

// resolveParent maps a parent id from the API onto a destination pointer:
// "" means root level. The folder must belong to the owner and be live.
func (s *FolderService) resolveParent(ctx context.Context, owner primitive.ObjectID, parentID string) (*primitive.ObjectID, error) {
	if parentID == "" {
		return nil, nil
	}
	oid, err := parseID(parentID, "parent folder")
	if err != nil {
		return nil, err
	}
	err = s.folders().FindOne(ctx, bson.M{"_id": oid, "owner_id": owner, "deleted_at": nil}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound("parent folder")
		}
		return nil, fmt.Errorf("load parent folder: %w", err)
	}
	return &oid, nil
}

// parentOf adapts the collection into the lookup the cycle walk needs.
func (s *FolderService) parentOf(ctx context.Context, owner primitive.ObjectID) parentLookup {
	return func(id primitive.ObjectID) (*primitive.ObjectID, error) {
		var row struct {
			ParentID *primitive.ObjectID `bson:"parent_id"`
		}
		err := s.folders().FindOne(ctx,
			bson.M{"_id": id, "owner_id": owner},
			options.FindOne().SetProjection(bson.M{"parent_id": 1}),
		).Decode(&row)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				// A dangling parent pointer terminates the chain.
				return nil, nil
			}
			return nil, fmt.Errorf("walk folder ancestors: %w", err)
		}
		return row.ParentID, nil
	}
}
