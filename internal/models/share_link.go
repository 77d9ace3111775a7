package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kinds a share link can point at. The tagged ShareTarget replaces the
// type-string/id column pair of a classic polymorphic relation.
const (
	TargetFile   = "file"
	TargetFolder = "folder"
)

// Link types. Email links carry a recipient address and show up in that
// recipient's shared-with-me listing; public and internal links differ
// only in intent, both resolve through the public token route.
const (
	LinkInternal = "internal"
	LinkEmail    = "email"
	LinkPublic   = "public"
)

// Permission levels a link grants on its target.
const (
	PermissionView               = "view"
	PermissionUploadDownloadView = "upload-download-view"
)

// ShareTarget is a tagged reference to exactly one file or folder.
type ShareTarget struct {
	Kind string             `bson:"kind"`
	ID   primitive.ObjectID `bson:"id"`
}

// ShareLink grants token-gated access to a file or folder without
// authenticating as the owner. Password, when set, is a bcrypt hash and
// strictly write-only. There is no soft delete; links are removed outright.
type ShareLink struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID        primitive.ObjectID `bson:"owner_id"`
	Target         ShareTarget        `bson:"target"`
	LinkType       string             `bson:"link_type"`
	Token          string             `bson:"token"`
	RecipientEmail string             `bson:"recipient_email,omitempty"`
	ExpiresAt      *time.Time         `bson:"expires_at,omitempty"`
	Password       *string            `bson:"password,omitempty"`
	Permission     string             `bson:"permission"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

// Expired reports whether the link is past its expiry at the given time.
// Links without an expiry never expire.
func (l ShareLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// ShareTargetView mirrors ShareTarget for API output.
type ShareTargetView struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// ShareLinkView is the allow-list of link fields exposed to the owner.
// The password hash is reduced to a boolean.
type ShareLinkView struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"owner_id"`
	Target         ShareTargetView `json:"target"`
	LinkType       string          `json:"link_type"`
	Token          string          `json:"token"`
	URL            string          `json:"url"`
	RecipientEmail string          `json:"recipient_email,omitempty"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	Protected      bool            `json:"protected"`
	Permission     string          `json:"permission"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// PublicShareLinks maps a slice of links onto views, never nil.
func PublicShareLinks(links []ShareLink, baseURL string) []ShareLinkView {
	views := make([]ShareLinkView, 0, len(links))
	for _, l := range links {
		views = append(views, l.Public(baseURL))
	}
	return views
}

// Public maps the model onto its API view, building the share URL from
// the service's public base URL.
func (l ShareLink) Public(baseURL string) ShareLinkView {
	return ShareLinkView{
		ID:             l.ID.Hex(),
		OwnerID:        l.OwnerID.Hex(),
		Target:         ShareTargetView{Kind: l.Target.Kind, ID: l.Target.ID.Hex()},
		LinkType:       l.LinkType,
		Token:          l.Token,
		URL:            baseURL + "/share/" + l.Token,
		RecipientEmail: l.RecipientEmail,
		ExpiresAt:      l.ExpiresAt,
		Protected:      l.Password != nil,
		Permission:     l.Permission,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}
