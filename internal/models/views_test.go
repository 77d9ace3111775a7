package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserView(t *testing.T) {
	user := User{
		ID:                primitive.NewObjectID(),
		Username:          "alice",
		Email:             "alice@example.com",
		Password:          "$2a$10$secrethash",
		Role:              RoleUser,
		DefaultVisibility: "private",
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}

	out, err := json.Marshal(user.Public())
	if err != nil {
		t.Fatalf("Failed to marshal view: %v", err)
	}
	body := string(out)
	if strings.Contains(body, "secrethash") || strings.Contains(body, "password") {
		t.Errorf("Password leaked into the API view: %s", body)
	}
	if !strings.Contains(body, `"id":"`+user.ID.Hex()+`"`) {
		t.Errorf("Expected hex id in view: %s", body)
	}
	if !strings.Contains(body, `"username":"alice"`) {
		t.Errorf("Expected username in view: %s", body)
	}
}

func TestFileView(t *testing.T) {
	folderID := primitive.NewObjectID()
	file := File{
		ID:         primitive.NewObjectID(),
		OwnerID:    primitive.NewObjectID(),
		FolderID:   &folderID,
		Name:       "report.pdf",
		StorageKey: "users/abc/folders/def/report.pdf",
		MimeType:   "application/pdf",
		Size:       1024,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	out, err := json.Marshal(file.Public())
	if err != nil {
		t.Fatalf("Failed to marshal view: %v", err)
	}
	body := string(out)
	if strings.Contains(body, "storage_key") || strings.Contains(body, file.StorageKey) {
		t.Errorf("Storage key leaked into the API view: %s", body)
	}
	if !strings.Contains(body, `"folder_id":"`+folderID.Hex()+`"`) {
		t.Errorf("Expected folder id in view: %s", body)
	}

	t.Run("Root Level Omits Folder", func(t *testing.T) {
		file.FolderID = nil
		out, err := json.Marshal(file.Public())
		if err != nil {
			t.Fatalf("Failed to marshal view: %v", err)
		}
		if strings.Contains(string(out), "folder_id") {
			t.Errorf("Expected folder_id omitted at root level: %s", out)
		}
	})
}

func TestFolderView(t *testing.T) {
	hash := "$2a$10$folderhash"
	folder := Folder{
		ID:         primitive.NewObjectID(),
		OwnerID:    primitive.NewObjectID(),
		Name:       "Taxes",
		Visibility: "private",
		Password:   &hash,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	out, err := json.Marshal(folder.Public())
	if err != nil {
		t.Fatalf("Failed to marshal view: %v", err)
	}
	body := string(out)
	if strings.Contains(body, "folderhash") {
		t.Errorf("Password hash leaked into the API view: %s", body)
	}
	if !strings.Contains(body, `"has_password":true`) {
		t.Errorf("Expected has_password flag: %s", body)
	}

	folder.Password = nil
	out, _ = json.Marshal(folder.Public())
	if !strings.Contains(string(out), `"has_password":false`) {
		t.Errorf("Expected has_password false without a password: %s", out)
	}
}

func TestShareLinkExpired(t *testing.T) {
	now := time.Now()

	t.Run("No Expiry", func(t *testing.T) {
		link := ShareLink{}
		if link.Expired(now) {
			t.Error("A link without expiry must never expire")
		}
	})

	t.Run("Future Expiry", func(t *testing.T) {
		future := now.Add(time.Hour)
		link := ShareLink{ExpiresAt: &future}
		if link.Expired(now) {
			t.Error("A link expiring in the future is still live")
		}
	})

	t.Run("Past Expiry", func(t *testing.T) {
		past := now.Add(-time.Minute)
		link := ShareLink{ExpiresAt: &past}
		if !link.Expired(now) {
			t.Error("A link past its expiry must report expired")
		}
	})

	t.Run("Exact Boundary", func(t *testing.T) {
		link := ShareLink{ExpiresAt: &now}
		if link.Expired(now) {
			t.Error("A link expiring exactly now is still live")
		}
	})
}

func TestShareLinkView(t *testing.T) {
	hash := "$2a$10$linkhash"
	link := ShareLink{
		ID:         primitive.NewObjectID(),
		OwnerID:    primitive.NewObjectID(),
		Target:     ShareTarget{Kind: TargetFile, ID: primitive.NewObjectID()},
		LinkType:   LinkPublic,
		Token:      "0123456789abcdef0123456789abcdef",
		Password:   &hash,
		Permission: PermissionView,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	view := link.Public("https://vault.example.com")
	if view.URL != "https://vault.example.com/share/0123456789abcdef0123456789abcdef" {
		t.Errorf("Unexpected share URL: %q", view.URL)
	}
	if !view.Protected {
		t.Error("Expected Protected true for a password-gated link")
	}

	out, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("Failed to marshal view: %v", err)
	}
	if strings.Contains(string(out), "linkhash") {
		t.Errorf("Password hash leaked into the API view: %s", out)
	}
}

func TestViewSlicesNeverNull(t *testing.T) {
	cases := []struct {
		name string
		out  interface{}
	}{
		{"Users", PublicUsers(nil)},
		{"Files", PublicFiles(nil)},
		{"Folders", PublicFolders(nil)},
		{"Links", PublicShareLinks(nil, "http://localhost:8080")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := json.Marshal(tc.out)
			if err != nil {
				t.Fatalf("Failed to marshal: %v", err)
			}
			if string(out) != "[]" {
				t.Errorf("Expected empty array, got %s", out)
			}
		})
	}
}
