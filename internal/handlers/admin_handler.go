package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arzan03/CloudVault/internal/db"
	"github.com/arzan03/CloudVault/internal/models"
	"github.com/arzan03/CloudVault/internal/storage"
)

// AdminHandler is the operator surface. It reads the collections
// directly; there is no per-user scoping to share with the services.
type AdminHandler struct {
	db    *mongo.Database
	store *storage.Store
}

func NewAdminHandler(database *mongo.Database, store *storage.Store) *AdminHandler {
	return &AdminHandler{db: database, store: store}
}

// ListUsers returns every account, newest first.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	cursor, err := h.db.Collection(db.CollUsers).Find(c.Context(), bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return respondError(c, fmt.Errorf("list users: %w", err))
	}
	var users []models.User
	if err := cursor.All(c.Context(), &users); err != nil {
		return respondError(c, fmt.Errorf("decode users: %w", err))
	}
	return success(c, "", models.PublicUsers(users))
}

// ListFiles returns every file row, trashed ones included.
func (h *AdminHandler) ListFiles(c *fiber.Ctx) error {
	cursor, err := h.db.Collection(db.CollFiles).Find(c.Context(), bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return respondError(c, fmt.Errorf("list files: %w", err))
	}
	var files []models.File
	if err := cursor.All(c.Context(), &files); err != nil {
		return respondError(c, fmt.Errorf("decode files: %w", err))
	}
	return success(c, "", models.PublicFiles(files))
}

// GetUser returns one account by id.
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	oid, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusNotFound, "user not found")
	}
	var user models.User
	err = h.db.Collection(db.CollUsers).FindOne(c.Context(), bson.M{"_id": oid}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fail(c, fiber.StatusNotFound, "user not found")
		}
		return respondError(c, fmt.Errorf("load user: %w", err))
	}
	return success(c, "", user.Public())
}

// DeleteFile force-deletes any file regardless of owner or trash state:
// bytes first, then the row.
func (h *AdminHandler) DeleteFile(c *fiber.Ctx) error {
	oid, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusNotFound, "file not found")
	}

	var file models.File
	err = h.db.Collection(db.CollFiles).FindOne(c.Context(), bson.M{"_id": oid}).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fail(c, fiber.StatusNotFound, "file not found")
		}
		return respondError(c, fmt.Errorf("load file: %w", err))
	}

	if err := h.store.Remove(c.Context(), file.StorageKey); err != nil {
		return respondError(c, fmt.Errorf("remove file content: %w", err))
	}
	if _, err := h.db.Collection(db.CollFiles).DeleteOne(c.Context(), bson.M{"_id": file.ID}); err != nil {
		return respondError(c, fmt.Errorf("delete file row: %w", err))
	}
	return success(c, "file deleted", nil)
}
