package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arzan03/CloudVault/internal/middleware"
	"github.com/arzan03/CloudVault/internal/models"
	"github.com/arzan03/CloudVault/internal/services"
)

// FolderHandler exposes the folder tree.
type FolderHandler struct {
	folders *services.FolderService
	auth    *services.AuthService
}

func NewFolderHandler(folders *services.FolderService, auth *services.AuthService) *FolderHandler {
	return &FolderHandler{folders: folders, auth: auth}
}

type createFolderRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=255"`
	ParentID        string `json:"parent_id"`
	Visibility      string `json:"visibility" validate:"omitempty,oneof=private public"`
	Password        string `json:"password"`
	AllowDownload   bool   `json:"allow_download"`
	WatermarkImages bool   `json:"watermark_images"`
}

// Create adds a folder, at root level or under an owned parent.
func (h *FolderHandler) Create(c *fiber.Ctx) error {
	var req createFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}
	if err := validate.Struct(&req); err != nil {
		return failValidation(c, err)
	}

	p := middleware.PrincipalFrom(c)

	// New folders inherit the account's default visibility unless the
	// request names one.
	defaultVisibility := ""
	if req.Visibility == "" {
		user, err := h.auth.Me(c.Context(), p.UserID)
		if err != nil {
			return respondError(c, err)
		}
		defaultVisibility = user.DefaultVisibility
	}

	folder, err := h.folders.Create(c.Context(), p.UserID, services.CreateFolderInput{
		Name:            req.Name,
		ParentID:        req.ParentID,
		Visibility:      req.Visibility,
		Password:        req.Password,
		AllowDownload:   req.AllowDownload,
		WatermarkImages: req.WatermarkImages,
	}, defaultVisibility)
	if err != nil {
		return respondError(c, err)
	}
	return created(c, "folder created", folder.Public())
}

// List returns one page of folders. parent_id absent lists everything,
// empty lists root level, an id lists that folder's subfolders.
func (h *FolderHandler) List(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	folders, meta, err := h.folders.List(c.Context(), p.UserID, listParams(c), scopeParam(c, "parent_id"))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "", page{Items: models.PublicFolders(folders), PageMeta: meta})
}

// Get returns one folder.
func (h *FolderHandler) Get(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	folder, err := h.folders.Get(c.Context(), p.UserID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "", folder.Public())
}

type updateFolderRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=255"`
	ParentID        *string `json:"parent_id"`
	Visibility      *string `json:"visibility" validate:"omitempty,oneof=private public"`
	Password        *string `json:"password"`
	AllowDownload   *bool   `json:"allow_download"`
	WatermarkImages *bool   `json:"watermark_images"`
}

// Update edits folder settings or moves it. Empty parent_id means root
// level; empty password removes protection.
func (h *FolderHandler) Update(c *fiber.Ctx) error {
	var req updateFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}
	if err := validate.Struct(&req); err != nil {
		return failValidation(c, err)
	}

	p := middleware.PrincipalFrom(c)
	folder, err := h.folders.Update(c.Context(), p.UserID, c.Params("id"), services.UpdateFolderInput{
		Name:            req.Name,
		ParentID:        req.ParentID,
		Visibility:      req.Visibility,
		Password:        req.Password,
		AllowDownload:   req.AllowDownload,
		WatermarkImages: req.WatermarkImages,
	})
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "folder updated", folder.Public())
}

// Delete moves the folder and its direct contents to the trash.
func (h *FolderHandler) Delete(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	if err := h.folders.SoftDelete(c.Context(), p.UserID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return success(c, "folder moved to trash", nil)
}

// Contents returns the folder with its direct subfolders and one page of
// its files.
func (h *FolderHandler) Contents(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	folder, subfolders, files, meta, err := h.folders.Contents(c.Context(), p.UserID, c.Params("id"), listParams(c))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "", fiber.Map{
		"folder":     folder.Public(),
		"subfolders": models.PublicFolders(subfolders),
		"files":      page{Items: models.PublicFiles(files), PageMeta: meta},
	})
}

// Stats returns the direct-children aggregates of one folder.
func (h *FolderHandler) Stats(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	stats, err := h.folders.Stats(c.Context(), p.UserID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "", stats)
}
