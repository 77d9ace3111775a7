package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/arzan03/CloudVault/internal/db"
	"github.com/arzan03/CloudVault/internal/models"
	"github.com/arzan03/CloudVault/internal/storage"
	"github.com/arzan03/CloudVault/internal/utils"
)

// FileService owns file metadata and the object bytes behind it.
type FileService struct {
	db      *mongo.Database
	store   *storage.Store
	folders *FolderService
}

// NewFileService wires the file service to its database and object store.
func NewFileService(database *mongo.Database, store *storage.Store, folders *FolderService) *FileService {
	return &FileService{db: database, store: store, folders: folders}
}

func (s *FileService) files() *mongo.Collection {
	return s.db.Collection(db.CollFiles)
}

// UploadFailure reports one file that could not be stored.
type UploadFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Upload stores every part of a multipart upload independently and in
// parallel. One bad file never rolls back the others; callers get both
// the created rows and the per-file failures.
func (s *FileService) Upload(ctx context.Context, ownerID, folderID, description string, headers []*multipart.FileHeader) ([]models.File, []UploadFailure, error) {
	owner, err := parseID(ownerID, "user")
	if err != nil {
		return nil, nil, err
	}
	folder, err := s.folders.resolveParent(ctx, owner, folderID)
	if err != nil {
		return nil, nil, err
	}
	if len(headers) == 0 {
		return nil, nil, NewValidationError("no files in upload")
	}

	tasks := make([]utils.ParallelTask, len(headers))
	for i, fh := range headers {
		fh := fh
		tasks[i] = func() (interface{}, error) {
			return s.uploadOne(ctx, owner, folder, fh, description)
		}
	}
	results, errs := utils.RunParallelTasks(tasks)

	var uploaded []models.File
	var failed []UploadFailure
	for i := range results {
		if errs[i] != nil {
			failed = append(failed, UploadFailure{Name: headers[i].Filename, Reason: errs[i].Error()})
			continue
		}
		uploaded = append(uploaded, results[i].(models.File))
	}
	return uploaded, failed, nil
}

func (s *FileService) uploadOne(ctx context.Context, owner primitive.ObjectID, folder *primitive.ObjectID, fh *multipart.FileHeader, description string) (models.File, error) {
	src, err := fh.Open()
	if err != nil {
		return models.File{}, errors.New("failed to open uploaded file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return models.File{}, errors.New("failed to read uploaded file")
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
	}

	fileID := primitive.NewObjectID()
	folderHex := ""
	if folder != nil {
		folderHex = folder.Hex()
	}
	key := storage.ObjectKey(owner.Hex(), folderHex, fileID.Hex(), fh.Filename)

	now := time.Now()
	fileData := models.File{
		ID:          fileID,
		OwnerID:     owner,
		FolderID:    folder,
		Name:        fh.Filename,
		Description: description,
		StorageKey:  key,
		MimeType:    contentType,
		Size:        int64(len(data)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Object write and metadata insert run in parallel; whichever side
	// fails, the other is rolled back so no orphan survives.
	storeChan := make(chan error, 1)
	metaChan := make(chan error, 1)

	go func() {
		storeChan <- s.store.Save(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
	}()
	go func() {
		_, err := s.files().InsertOne(ctx, fileData)
		metaChan <- err
	}()

	storeErr := <-storeChan
	metaErr := <-metaChan

	if storeErr != nil {
		if metaErr == nil {
			go func() {
				_, _ = s.files().DeleteOne(context.Background(), bson.M{"_id": fileID})
			}()
		}
		return models.File{}, errors.New("failed to store file: " + storeErr.Error())
	}
	if metaErr != nil {
		go func() {
			_ = s.store.Remove(context.Background(), key)
		}()
		return models.File{}, errors.New("failed to save file metadata: " + metaErr.Error())
	}
	return fileData, nil
}

// Get loads an owned, non-deleted file.
func (s *FileService) Get(ctx context.Context, ownerID, id string) (models.File, error) {
	owner, err := parseID(ownerID, "user")
	if err != nil {
		return models.File{}, err
	}
	oid, err := parseID(id, "file")
	if err != nil {
		return models.File{}, err
	}
	var file models.File
	err = s.files().FindOne(ctx, bson.M{"_id": oid, "owner_id": owner, "deleted_at": nil}).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.File{}, notFound("file")
		}
		return models.File{}, fmt.Errorf("load file: %w", err)
	}
	return file, nil
}

// List returns one page of the owner's files. folderScope nil means all
// files; the empty string scopes to root-level files; an id scopes to
// that folder.
func (s *FileService) List(ctx context.Context, ownerID string, params ListParams, folderScope *string) ([]models.File, PageMeta, error) {
	owner, err := parseID(ownerID, "user")
	if err != nil {
		return nil, PageMeta{}, err
	}

	filter := bson.M{"owner_id": owner, "deleted_at": nil}
	if folderScope != nil {
		if *folderScope == "" {
			filter["folder_id"] = nil
		} else {
			folder, err := parseID(*folderScope, "folder")
			if err != nil {
				return nil, PageMeta{}, err
			}
			filter["folder_id"] = folder
		}
	}
	if params.Query != "" {
		filter["$or"] = bson.A{
			bson.M{"name": substringFilter(params.Query)},
			bson.M{"description": substringFilter(params.Query)},
		}
	}

	page, pageSize, sort := params.normalize(fileSortFields)
	total, err := s.files().CountDocuments(ctx, filter)
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("count files: %w", err)
	}
	cursor, err := s.files().Find(ctx, filter, findOptions(page, pageSize, sort))
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("list files: %w", err)
	}
	var files []models.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, PageMeta{}, fmt.Errorf("decode files: %w", err)
	}
	return files, NewPageMeta(total, page, pageSize), nil
}

// UpdateFileInput is the partial update payload. FolderID "" moves the
// file to root level.
type UpdateFileInput struct {
	Name        *string
	Description *string
	FolderID    *string
}

// Update renames, re-describes or moves a file. The storage key is fixed
// at upload time; renaming only touches metadata.
func (s *FileService) Update(ctx context.Context, ownerID, id string, in UpdateFileInput) (models.File, error) {
	file, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return models.File{}, err
	}

	set := bson.M{"updated_at": time.Now()}
	unset := bson.M{}

	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.FolderID != nil {
		dest, err := s.folders.resolveParent(ctx, file.OwnerID, *in.FolderID)
		if err != nil {
			return models.File{}, err
		}
		if dest == nil {
			unset["folder_id"] = ""
		} else {
			set["folder_id"] = *dest
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if _, err := s.files().UpdateOne(ctx, bson.M{"_id": file.ID}, update); err != nil {
		return models.File{}, fmt.Errorf("update file: %w", err)
	}
	return s.Get(ctx, ownerID, id)
}

// SoftDelete moves a file to the trash. Bytes stay in place until purge.
func (s *FileService) SoftDelete(ctx context.Context, ownerID, id string) error {
	owner, err := parseID(ownerID, "user")
	if err != nil {
		return err
	}
	oid, err := parseID(id, "file")
	if err != nil {
		return err
	}
	now := time.Now()
	res, err := s.files().UpdateOne(ctx,
		bson.M{"_id": oid, "owner_id": owner, "deleted_at": nil},
		bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}},
	)
	if err != nil {
		return fmt.Errorf("trash file: %w", err)
	}
	if res.MatchedCount == 0 {
		return notFound("file")
	}
	return nil
}

// Download opens the object stream and bumps the counters. The increment
// happens once per successful gate pass, before any byte is sent, and
// never on a failed attempt.
func (s *FileService) Download(ctx context.Context, ownerID, id string) (models.File, io.ReadCloser, error) {
	file, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return models.File{}, nil, err
	}

	reader, _, err := s.store.Get(ctx, file.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.File{}, nil, ErrMissingContent
		}
		return models.File{}, nil, fmt.Errorf("open file content: %w", err)
	}

	now := time.Now()
	_, err = s.files().UpdateOne(ctx,
		bson.M{"_id": file.ID},
		bson.M{"$inc": bson.M{"downloads": 1}, "$set": bson.M{"last_accessed_at": now}},
	)
	if err != nil {
		reader.Close()
		return models.File{}, nil, fmt.Errorf("record download: %w", err)
	}
	file.Downloads++
	file.LastAccessedAt = &now
	return file, reader, nil
}

// ArchiveFiles zips the given owned live files into a temp file and
// returns its path. Files whose ids are unknown, trashed or whose bytes
// are gone are skipped; download counters are bumped only for entries
// actually written. The temp file is removed on every error path, so a
// non-nil error never leaks an artifact.
func (s *FileService) ArchiveFiles(ctx context.Context, ownerID string, fileIDs []string) (string, int, error) {
	owner, err := parseID(ownerID, "user")
	if err != nil {
		return "", 0, err
	}
	if len(fileIDs) == 0 {
		return "", 0, NewValidationError("no file ids given")
	}

	var files []models.File
	for _, id := range fileIDs {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		var file models.File
		err = s.files().FindOne(ctx, bson.M{"_id": oid, "owner_id": owner, "deleted_at": nil}).Decode(&file)
		if err != nil {
			continue
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		return "", 0, notFound("files")
	}

	tmp, err := os.CreateTemp("", "archive-"+uuid.NewString()+"-*.zip")
	if err != nil {
		return "", 0, fmt.Errorf("create archive: %w", err)
	}
	cleanup := func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}

	zw := zip.NewWriter(tmp)
	taken := make(map[string]int)
	var included []primitive.ObjectID
	for _, file := range files {
		obj, _, err := s.store.Get(ctx, file.StorageKey)
		if err != nil {
			continue
		}
		entry, err := zw.Create(utils.ArchiveEntryName(taken, file.Name))
		if err != nil {
			obj.Close()
			cleanup()
			return "", 0, fmt.Errorf("write archive entry: %w", err)
		}
		if _, err := io.Copy(entry, obj); err != nil {
			obj.Close()
			cleanup()
			return "", 0, fmt.Errorf("write archive entry: %w", err)
		}
		obj.Close()
		included = append(included, file.ID)
	}
	if err := zw.Close(); err != nil {
		cleanup()
		return "", 0, fmt.Errorf("finish archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("finish archive: %w", err)
	}
	if len(included) == 0 {
		os.Remove(tmp.Name())
		return "", 0, ErrMissingContent
	}

	now := time.Now()
	_, err = s.files().UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": included}},
		bson.M{"$inc": bson.M{"downloads": 1}, "$set": bson.M{"last_accessed_at": now}},
	)
	if err != nil {
		os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("record downloads: %w", err)
	}
	return tmp.Name(), len(included), nil
}

// MoveFile reparents one file. Used by the bulk move operation; the
// destination is resolved and ownership-checked by the caller.
func (s *FileService) MoveFile(ctx context.Context, owner primitive.ObjectID, fileID string, dest *primitive.ObjectID) error {
	oid, err := parseID(fileID, "file")
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{"updated_at": time.Now()}}
	if dest == nil {
		update["$unset"] = bson.M{"folder_id": ""}
	} else {
		update["$set"].(bson.M)["folder_id"] = *dest
	}
	res, err := s.files().UpdateOne(ctx, bson.M{"_id": oid, "owner_id": owner, "deleted_at": nil}, update)
	if err != nil {
		return fmt.Errorf("move file: %w", err)
	}
	if res.MatchedCount == 0 {
		return notFound("file")
	}
	return nil
}

// CopyFile duplicates a file into dest: bytes via a server-side object
// copy, a fresh row named "Copy of <name>" with its download counter
// reset. The source row is untouched.
func (s *FileService) CopyFile(ctx context.Context, owner primitive.ObjectID, fileID string, dest *primitive.ObjectID) (models.File, error) {
	oid, err := parseID(fileID, "file")
	if err != nil {
		return models.File{}, err
	}
	var src models.File
	err = s.files().FindOne(ctx, bson.M{"_id": oid, "owner_id": owner, "deleted_at": nil}).Decode(&src)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.File{}, notFound("file")
		}
		return models.File{}, fmt.Errorf("load file: %w", err)
	}

	newID := primitive.NewObjectID()
	destHex := ""
	if dest != nil {
		destHex = dest.Hex()
	}
	name := "Copy of " + src.Name
	key := storage.ObjectKey(owner.Hex(), destHex, newID.Hex(), name)

	if err := s.store.Copy(ctx, src.StorageKey, key); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.File{}, ErrMissingContent
		}
		return models.File{}, fmt.Errorf("copy file content: %w", err)
	}

	now := time.Now()
	dup := src
	dup.ID = newID
	dup.FolderID = dest
	dup.Name = name
	dup.StorageKey = key
	dup.Downloads = 0
	dup.LastAccessedAt = nil
	dup.CreatedAt = now
	dup.UpdatedAt = now
	dup.DeletedAt = nil

	if _, err := s.files().InsertOne(ctx, dup); err != nil {
		go func() {
			_ = s.store.Remove(context.Background(), key)
		}()
		return models.File{}, fmt.Errorf("copy file metadata: %w", err)
	}
	return dup, nil
}
