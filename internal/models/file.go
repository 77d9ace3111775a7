package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// File is the metadata row for an uploaded object. The bytes live in the
// object store under StorageKey; FolderID nil means the file is un-filed.
type File struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty"`
	OwnerID        primitive.ObjectID  `bson:"owner_id"`
	FolderID       *primitive.ObjectID `bson:"folder_id,omitempty"`
	Name           string              `bson:"name"`
	Description    string              `bson:"description,omitempty"`
	StorageKey     string              `bson:"storage_key"`
	MimeType       string              `bson:"mime_type"`
	Size           int64               `bson:"size"`
	Downloads      int64               `bson:"downloads"`
	LastAccessedAt *time.Time          `bson:"last_accessed_at,omitempty"`
	CreatedAt      time.Time           `bson:"created_at"`
	UpdatedAt      time.Time           `bson:"updated_at"`
	DeletedAt      *time.Time          `bson:"deleted_at,omitempty"`
}

// FileView is the allow-list of file fields exposed over the API. The
// storage key stays internal.
type FileView struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"owner_id"`
	FolderID       *string    `json:"folder_id,omitempty"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	MimeType       string     `json:"mime_type"`
	Size           int64      `json:"size"`
	Downloads      int64      `json:"downloads"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// Public maps the model onto its API view.
func (f File) Public() FileView {
	v := FileView{
		ID:             f.ID.Hex(),
		OwnerID:        f.OwnerID.Hex(),
		Name:           f.Name,
		Description:    f.Description,
		MimeType:       f.MimeType,
		Size:           f.Size,
		Downloads:      f.Downloads,
		LastAccessedAt: f.LastAccessedAt,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
		DeletedAt:      f.DeletedAt,
	}
	if f.FolderID != nil {
		id := f.FolderID.Hex()
		v.FolderID = &id
	}
	return v
}

// PublicFiles maps a slice of files onto views.
func PublicFiles(files []File) []FileView {
	views := make([]FileView, 0, len(files))
	for _, f := range files {
		views = append(views, f.Public())
	}
	return views
}
