package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arzan03/CloudVault/internal/db"
	"github.com/arzan03/CloudVault/internal/models"
	"github.com/arzan03/CloudVault/internal/storage"
)

// generateShareToken returns a 32-char hex token from crypto/rand.
func generateShareToken() (string, error) {
	token := make([]byte, 16)
	_, err := rand.Read(token)
	if err != nil {
		return "", fmt.Errorf("failed to generate share token: %w", err)
	}
	return hex.EncodeToString(token), nil
}

// ShareService owns share links and the public access path behind them.
type ShareService struct {
	db    *mongo.Database
	store *storage.Store
}

// NewShareService wires the share service to its database and object
// store.
func NewShareService(database *mongo.Database, store *storage.Store) *ShareService {
	return &ShareService{db: database, store: store}
}

func (s *ShareService) links() *mongo.Collection {
	return s.db.Collection(db.CollShareLinks)
}

func (s *ShareService) files() *mongo.Collection {
	return s.db.Collection(db.CollFiles)
}

func (s *ShareService) folders() *mongo.Collection {
	return s.db.Collection(db.CollFolders)
}

// CreateLinkInput is the validated payload for Create.
type CreateLinkInput struct {
	TargetKind     string
	TargetID       string
	LinkType       string
	RecipientEmail string
	ExpiresAt      *time.Time
	Password       string
	Permission     string
}

// Create issues a share link for an owned file or folder. Tokens are
// globally unique; an insert that collides on the token index retries
// with a fresh one.
func (s *ShareService) Create(ctx context.Context, ownerID string, in CreateLinkInput) (models.ShareLink, error) {
	owner, err := parseID(ownerID, "user")
	if err != nil {
		return models.ShareLink{}, err
	}

	target, err := s.resolveTarget(ctx, owner, in.TargetKind, in.TargetID)
	if err != nil {
		return models.ShareLink{}, err
	}

	linkType := in.LinkType
	if linkType == "" {
		linkType = models.LinkInternal
	}
	switch linkType {
	case models.LinkInternal, models.LinkEmail, models.LinkPublic:
	default:
		return models.ShareLink{}, NewFieldError("link_type", "must be one of internal, email, public")
	}
	if linkType == models.LinkEmail && in.RecipientEmail == "" {
		return models.ShareLink{}, NewFieldError("recipient_email", "required for email links")
	}

	permission := in.Permission
	if permission == "" {
		permission = models.PermissionView
	}
	switch permission {
	case models.PermissionView, models.PermissionUploadDownloadView:
	default:
		return models.ShareLink{}, NewFieldError("permission", "must be view or upload-download-view")
	}

	if in.ExpiresAt != nil && !in.ExpiresAt.After(time.Now()) {
		return models.ShareLink{}, NewFieldError("expires_at", "must be in the future")
	}

	now := time.Now()
	link := models.ShareLink{
		ID:             primitive.NewObjectID(),
		OwnerID:        owner,
		Target:         target,
		LinkType:       linkType,
		RecipientEmail: in.RecipientEmail,
		ExpiresAt:      in.ExpiresAt,
		Permission:     permission,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.Password != "" {
		hashed, err := HashPassword(in.Password)
		if err != nil {
			return models.ShareLink{}, fmt.Errorf("hash link password: %w", err)
		}
		link.Password = &hashed
	}

	for attempt := 0; attempt < 5; attempt++ {
		token, err := generateShareToken()
		if err != nil {
			return models.ShareLink{}, err
		}
		link.Token = token
		_, err = s.links().InsertOne(ctx, link)
		if err == nil {
			return link, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return models.ShareLink{}, fmt.Errorf("insert share link: %w", err)
		}
	}
	return models.ShareLink{}, errors.New("could not allocate a unique share token")
}

// resolveTarget checks the share target is a live, owned file or folder.
func (s *ShareService) resolveTarget(ctx context.Context, owner primitive.ObjectID, kind, id string) (models.ShareTarget, error) {
	var coll *mongo.Collection
	switch kind {
	case models.TargetFile:
		coll = s.files()
	case models.TargetFolder:
		coll = s.folders()
	default:
		return models.ShareTarget{}, NewFieldError("target_kind", "must be file or folder")
	}

	oid, err := parseID(id, kind)
	if err != nil {
		return models.ShareTarget{}, err
	}
	err = coll.FindOne(ctx, bson.M{"_id": oid, "owner_id": owner, "deleted_at": nil}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ShareTarget{}, notFound(kind)
		}
		return models.ShareTarget{}, fmt.Errorf("load share target: %w", err)
	}
	return models.ShareTarget{Kind: kind, ID: oid}, nil
}

// List returns one page of the owner's share links.
func (s *ShareService) List(ctx context.Context, ownerID string, params ListParams) ([]models.ShareLink, PageMeta, error) {
	owner, err := parseID(ownerID, "user")
	if err != nil {
		return nil, PageMeta{}, err
	}

	filter := bson.M{"owner_id": owner}
	if params.Query != "" {
		filter["$or"] = bson.A{
			bson.M{"token": substringFilter(params.Query)},
			bson.M{"recipient_email": substringFilter(params.Query)},
		}
	}

	page, pageSize, sort := params.normalize(linkSortFields)
	total, err := s.links().CountDocuments(ctx, filter)
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("count share links: %w", err)
	}
	cursor, err := s.links().Find(ctx, filter, findOptions(page, pageSize, sort))
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("list share links: %w", err)
	}
	var links []models.ShareLink
	if err := cursor.All(ctx, &links); err != nil {
		return nil, PageMeta{}, fmt.Errorf("decode share links: %w", err)
	}
	return links, NewPageMeta(total, page, pageSize), nil
}

// Get loads one owned share link.
func (s *ShareService) Get(ctx context.Context, ownerID, id string) (models.ShareLink, error) {
	owner, err := parseID(ownerID, "user")
	if err != nil {
		return models.ShareLink{}, err
	}
	oid, err := parseID(id, "share link")
	if err != nil {
		return models.ShareLink{}, err
	}
	var link models.ShareLink
	err = s.links().FindOne(ctx, bson.M{"_id": oid, "owner_id": owner}).Decode(&link)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ShareLink{}, notFound("share link")
		}
		return models.ShareLink{}, fmt.Errorf("load share link: %w", err)
	}
	return link, nil
}

// UpdateLinkInput is the partial update payload. Password semantics match
// folders: nil untouched, "" clears, non-empty re-hashes. ClearExpiry
// removes the expiry; otherwise a non-nil ExpiresAt replaces it.
type UpdateLinkInput struct {
	LinkType       *string
	RecipientEmail *string
	Permission     *string
	Password       *string
	ExpiresAt      *time.Time
	ClearExpiry    bool
}

// Update edits a link in place. The token never changes.
func (s *ShareService) Update(ctx context.Context, ownerID, id string, in UpdateLinkInput) (models.ShareLink, error) {
	link, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return models.ShareLink{}, err
	}

	set := bson.M{"updated_at": time.Now()}
	unset := bson.M{}

	linkType := link.LinkType
	if in.LinkType != nil {
		linkType = *in.LinkType
		switch linkType {
		case models.LinkInternal, models.LinkEmail, models.LinkPublic:
		default:
			return models.ShareLink{}, NewFieldError("link_type", "must be one of internal, email, public")
		}
		set["link_type"] = linkType
	}
	recipient := link.RecipientEmail
	if in.RecipientEmail != nil {
		recipient = *in.RecipientEmail
		set["recipient_email"] = recipient
	}
	if linkType == models.LinkEmail && recipient == "" {
		return models.ShareLink{}, NewFieldError("recipient_email", "required for email links")
	}

	if in.Permission != nil {
		switch *in.Permission {
		case models.PermissionView, models.PermissionUploadDownloadView:
		default:
			return models.ShareLink{}, NewFieldError("permission", "must be view or upload-download-view")
		}
		set["permission"] = *in.Permission
	}

	if in.Password != nil {
		if *in.Password == "" {
			unset["password"] = ""
		} else {
			hashed, err := HashPassword(*in.Password)
			if err != nil {
				return models.ShareLink{}, fmt.Errorf("hash link password: %w", err)
			}
			set["password"] = hashed
		}
	}

	if in.ClearExpiry {
		unset["expires_at"] = ""
	} else if in.ExpiresAt != nil {
		if !in.ExpiresAt.After(time.Now()) {
			return models.ShareLink{}, NewFieldError("expires_at", "must be in the future")
		}
		set["expires_at"] = *in.ExpiresAt
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if _, err := s.links().UpdateOne(ctx, bson.M{"_id": link.ID}, update); err != nil {
		return models.ShareLink{}, fmt.Errorf("update share link: %w", err)
	}
	return s.Get(ctx, ownerID, id)
}

// Delete removes a link permanently. The target is untouched.
func (s *ShareService) Delete(ctx context.Context, ownerID, id string) error {
	owner, err := parseID(ownerID, "user")
	if err != nil {
		return err
	}
	oid, err := parseID(id, "share link")
	if err != nil {
		return err
	}
	res, err := s.links().DeleteOne(ctx, bson.M{"_id": oid, "owner_id": owner})
	if err != nil {
		return fmt.Errorf("delete share link: %w", err)
	}
	if res.DeletedCount == 0 {
		return notFound("share link")
	}
	return nil
}

// SharedWithMe resolves every live target shared to the given email over
// an unexpired email link, deduplicated by target.
func (s *ShareService) SharedWithMe(ctx context.Context, email string) ([]models.File, []models.Folder, error) {
	cursor, err := s.links().Find(ctx,
		bson.M{"link_type": models.LinkEmail, "recipient_email": email},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("list received links: %w", err)
	}
	var links []models.ShareLink
	if err := cursor.All(ctx, &links); err != nil {
		return nil, nil, fmt.Errorf("decode received links: %w", err)
	}

	now := time.Now()
	seen := make(map[primitive.ObjectID]bool)
	var files []models.File
	var folders []models.Folder
	for _, link := range links {
		if link.Expired(now) || seen[link.Target.ID] {
			continue
		}
		seen[link.Target.ID] = true
		switch link.Target.Kind {
		case models.TargetFile:
			var file models.File
			err := s.files().FindOne(ctx, bson.M{"_id": link.Target.ID, "deleted_at": nil}).Decode(&file)
			if err == nil {
				files = append(files, file)
			}
		case models.TargetFolder:
			var folder models.Folder
			err := s.folders().FindOne(ctx, bson.M{"_id": link.Target.ID, "deleted_at": nil}).Decode(&folder)
			if err == nil {
				folders = append(folders, folder)
			}
		}
	}
	return files, folders, nil
}

// SharedContent is what a resolved token grants. Exactly one of File and
// Folder is set. Reader is open only for file targets and the caller
// must close it.
type SharedContent struct {
	Link       models.ShareLink
	File       *models.File
	Reader     io.ReadCloser
	Folder     *models.Folder
	Subfolders []models.Folder
	Files      []models.File
}

// Resolve gates public access to a token: unknown token 404, expired
// link denied, wrong or missing password denied. File targets get an
// open byte stream; the download counter moves only for links with the
// upload-download-view permission. Folder targets get a one-level
// listing of live contents.
func (s *ShareService) Resolve(ctx context.Context, token, password string) (SharedContent, error) {
	var link models.ShareLink
	err := s.links().FindOne(ctx, bson.M{"token": token}).Decode(&link)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return SharedContent{}, notFound("share link")
		}
		return SharedContent{}, fmt.Errorf("load share link: %w", err)
	}

	if link.Expired(time.Now()) {
		return SharedContent{}, ErrExpiredLink
	}
	if link.Password != nil {
		if password == "" || !VerifyPassword(password, *link.Password) {
			return SharedContent{}, ErrWrongPassword
		}
	}

	content := SharedContent{Link: link}
	switch link.Target.Kind {
	case models.TargetFile:
		var file models.File
		err := s.files().FindOne(ctx, bson.M{"_id": link.Target.ID, "deleted_at": nil}).Decode(&file)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return SharedContent{}, notFound("shared content")
			}
			return SharedContent{}, fmt.Errorf("load shared file: %w", err)
		}
		reader, _, err := s.store.Get(ctx, file.StorageKey)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return SharedContent{}, ErrMissingContent
			}
			return SharedContent{}, fmt.Errorf("open shared file content: %w", err)
		}
		if link.Permission == models.PermissionUploadDownloadView {
			now := time.Now()
			_, err = s.files().UpdateOne(ctx,
				bson.M{"_id": file.ID},
				bson.M{"$inc": bson.M{"downloads": 1}, "$set": bson.M{"last_accessed_at": now}},
			)
			if err != nil {
				reader.Close()
				return SharedContent{}, fmt.Errorf("record download: %w", err)
			}
			file.Downloads++
			file.LastAccessedAt = &now
		}
		content.File = &file
		content.Reader = reader

	case models.TargetFolder:
		var folder models.Folder
		err := s.folders().FindOne(ctx, bson.M{"_id": link.Target.ID, "deleted_at": nil}).Decode(&folder)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return SharedContent{}, notFound("shared content")
			}
			return SharedContent{}, fmt.Errorf("load shared folder: %w", err)
		}
		subCursor, err := s.folders().Find(ctx,
			bson.M{"parent_id": folder.ID, "deleted_at": nil},
			options.Find().SetSort(bson.D{{Key: "name", Value: 1}}),
		)
		if err != nil {
			return SharedContent{}, fmt.Errorf("list shared subfolders: %w", err)
		}
		if err := subCursor.All(ctx, &content.Subfolders); err != nil {
			return SharedContent{}, fmt.Errorf("decode shared subfolders: %w", err)
		}
		fileCursor, err := s.files().Find(ctx,
			bson.M{"folder_id": folder.ID, "deleted_at": nil},
			options.Find().SetSort(bson.D{{Key: "name", Value: 1}}),
		)
		if err != nil {
			return SharedContent{}, fmt.Errorf("list shared files: %w", err)
		}
		if err := fileCursor.All(ctx, &content.Files); err != nil {
			return SharedContent{}, fmt.Errorf("decode shared files: %w", err)
		}
		content.Folder = &folder

	default:
		return SharedContent{}, fmt.Errorf("share link %s has unknown target kind %q", link.ID.Hex(), link.Target.Kind)
	}
	return content, nil
}
