package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles assigned to users. Registration always grants RoleUser; admins
// are seeded out of band.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Visibility values shared by users (as a default preference) and folders.
const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

// User is the persistence model. It is never serialized directly;
// handlers go through Public() so the password hash cannot leak.
type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Username          string             `bson:"username"`
	Email             string             `bson:"email"`
	Password          string             `bson:"password"`
	Role              string             `bson:"role"`
	DefaultVisibility string             `bson:"default_visibility"`
	WatermarkImages   bool               `bson:"watermark_images"`
	AvatarURL         string             `bson:"avatar_url,omitempty"`
	CreatedAt         time.Time          `bson:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at"`
}

// UserView is the explicit allow-list of user fields exposed over the API.
type UserView struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	Role              string    `json:"role"`
	DefaultVisibility string    `json:"default_visibility"`
	WatermarkImages   bool      `json:"watermark_images"`
	AvatarURL         string    `json:"avatar_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// PublicUsers maps a slice of users onto views, never nil.
func PublicUsers(users []User) []UserView {
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.Public())
	}
	return views
}

// Public maps the model onto its API view.
func (u User) Public() UserView {
	return UserView{
		ID:                u.ID.Hex(),
		Username:          u.Username,
		Email:             u.Email,
		Role:              u.Role,
		DefaultVisibility: u.DefaultVisibility,
		WatermarkImages:   u.WatermarkImages,
		AvatarURL:         u.AvatarURL,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}
