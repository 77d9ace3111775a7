package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Folder is a node in the per-user folder tree. ParentID nil means the
// folder sits at the root level. DeletedAt non-nil marks it trashed.
type Folder struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty"`
	OwnerID         primitive.ObjectID  `bson:"owner_id"`
	ParentID        *primitive.ObjectID `bson:"parent_id,omitempty"`
	Name            string              `bson:"name"`
	Visibility      string              `bson:"visibility"`
	Password        *string             `bson:"password,omitempty"`
	AllowDownload   bool                `bson:"allow_download"`
	WatermarkImages bool                `bson:"watermark_images"`
	CreatedAt       time.Time           `bson:"created_at"`
	UpdatedAt       time.Time           `bson:"updated_at"`
	DeletedAt       *time.Time          `bson:"deleted_at,omitempty"`
}

// FolderView is the allow-list of folder fields exposed over the API.
// The password hash is reduced to a boolean.
type FolderView struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"owner_id"`
	ParentID        *string    `json:"parent_id,omitempty"`
	Name            string     `json:"name"`
	Visibility      string     `json:"visibility"`
	HasPassword     bool       `json:"has_password"`
	AllowDownload   bool       `json:"allow_download"`
	WatermarkImages bool       `json:"watermark_images"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// Public maps the model onto its API view.
func (f Folder) Public() FolderView {
	v := FolderView{
		ID:              f.ID.Hex(),
		OwnerID:         f.OwnerID.Hex(),
		Name:            f.Name,
		Visibility:      f.Visibility,
		HasPassword:     f.Password != nil,
		AllowDownload:   f.AllowDownload,
		WatermarkImages: f.WatermarkImages,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
		DeletedAt:       f.DeletedAt,
	}
	if f.ParentID != nil {
		id := f.ParentID.Hex()
		v.ParentID = &id
	}
	return v
}

// PublicFolders maps a slice of folders onto views.
func PublicFolders(folders []Folder) []FolderView {
	views := make([]FolderView, 0, len(folders))
	for _, f := range folders {
		views = append(views, f.Public())
	}
	return views
}
