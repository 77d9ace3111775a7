package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arzan03/CloudVault/internal/middleware"
	"github.com/arzan03/CloudVault/internal/models"
	"github.com/arzan03/CloudVault/internal/services"
)

// TrashHandler exposes the trash: listing, restore, purge and empty.
type TrashHandler struct {
	trash *services.TrashService
}

func NewTrashHandler(trash *services.TrashService) *TrashHandler {
	return &TrashHandler{trash: trash}
}

// Index lists everything in the caller's trash, newest deletions first.
func (h *TrashHandler) Index(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	files, folders, err := h.trash.Index(c.Context(), p.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "", fiber.Map{
		"files":   models.PublicFiles(files),
		"folders": models.PublicFolders(folders),
	})
}

type restoreRequest struct {
	FileIDs   []string `json:"file_ids"`
	FolderIDs []string `json:"folder_ids"`
}

// Restore brings trashed items back, folders together with their direct
// contents. One outcome per item.
func (h *TrashHandler) Restore(c *fiber.Ctx) error {
	var req restoreRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}

	p := middleware.PrincipalFrom(c)
	results, err := h.trash.Restore(c.Context(), p.UserID, req.FileIDs, req.FolderIDs)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "restore processed", fiber.Map{"results": results})
}

// PurgeFile permanently deletes one trashed file, bytes included.
func (h *TrashHandler) PurgeFile(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	if err := h.trash.PurgeFile(c.Context(), p.UserID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return success(c, "file permanently deleted", nil)
}

// Empty permanently deletes the whole trash and reports the counts.
func (h *TrashHandler) Empty(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	counts, err := h.trash.Empty(c.Context(), p.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "trash emptied", counts)
}
