package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/arzan03/CloudVault/internal/middleware"
	"github.com/arzan03/CloudVault/internal/models"
	"github.com/arzan03/CloudVault/internal/services"
)

// ShareHandler exposes link management plus the public access endpoint.
type ShareHandler struct {
	shares  *services.ShareService
	baseURL string
}

func NewShareHandler(shares *services.ShareService, baseURL string) *ShareHandler {
	return &ShareHandler{shares: shares, baseURL: baseURL}
}

type createLinkRequest struct {
	TargetKind     string     `json:"target_kind" validate:"required,oneof=file folder"`
	TargetID       string     `json:"target_id" validate:"required"`
	LinkType       string     `json:"link_type" validate:"omitempty,oneof=internal email public"`
	RecipientEmail string     `json:"recipient_email" validate:"omitempty,email"`
	ExpiresAt      *time.Time `json:"expires_at"`
	Password       string     `json:"password"`
	Permission     string     `json:"permission" validate:"omitempty,oneof=view upload-download-view"`
}

// Create issues a share link for an owned file or folder.
func (h *ShareHandler) Create(c *fiber.Ctx) error {
	var req createLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}
	if err := validate.Struct(&req); err != nil {
		return failValidation(c, err)
	}

	p := middleware.PrincipalFrom(c)
	link, err := h.shares.Create(c.Context(), p.UserID, services.CreateLinkInput{
		TargetKind:     req.TargetKind,
		TargetID:       req.TargetID,
		LinkType:       req.LinkType,
		RecipientEmail: req.RecipientEmail,
		ExpiresAt:      req.ExpiresAt,
		Password:       req.Password,
		Permission:     req.Permission,
	})
	if err != nil {
		return respondError(c, err)
	}
	return created(c, "share link created", link.Public(h.baseURL))
}

// List returns one page of the caller's share links.
func (h *ShareHandler) List(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	links, meta, err := h.shares.List(c.Context(), p.UserID, listParams(c))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "", page{Items: models.PublicShareLinks(links, h.baseURL), PageMeta: meta})
}

// Get returns one share link.
func (h *ShareHandler) Get(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	link, err := h.shares.Get(c.Context(), p.UserID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "", link.Public(h.baseURL))
}

type updateLinkRequest struct {
	LinkType       *string `json:"link_type" validate:"omitempty,oneof=internal email public"`
	RecipientEmail *string `json:"recipient_email" validate:"omitempty,email"`
	Permission     *string `json:"permission" validate:"omitempty,oneof=view upload-download-view"`
	Password       *string `json:"password"`
	ExpiresAt      *string `json:"expires_at"`
}

// Update edits a link. expires_at takes an RFC3339 timestamp or the
// empty string to remove the expiry; password empty removes protection.
func (h *ShareHandler) Update(c *fiber.Ctx) error {
	var req updateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}
	if err := validate.Struct(&req); err != nil {
		return failValidation(c, err)
	}

	in := services.UpdateLinkInput{
		LinkType:       req.LinkType,
		RecipientEmail: req.RecipientEmail,
		Permission:     req.Permission,
		Password:       req.Password,
	}
	if req.ExpiresAt != nil {
		if *req.ExpiresAt == "" {
			in.ClearExpiry = true
		} else {
			expiry, err := time.Parse(time.RFC3339, *req.ExpiresAt)
			if err != nil {
				return respondError(c, services.NewFieldError("expires_at", "must be an RFC3339 timestamp"))
			}
			in.ExpiresAt = &expiry
		}
	}

	p := middleware.PrincipalFrom(c)
	link, err := h.shares.Update(c.Context(), p.UserID, c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "share link updated", link.Public(h.baseURL))
}

// Delete removes a share link. Its target stays untouched.
func (h *ShareHandler) Delete(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	if err := h.shares.Delete(c.Context(), p.UserID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return success(c, "share link deleted", nil)
}

// SharedWithMe lists everything shared to the caller's email address.
func (h *ShareHandler) SharedWithMe(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	files, folders, err := h.shares.SharedWithMe(c.Context(), p.Email)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "", fiber.Map{
		"files":   models.PublicFiles(files),
		"folders": models.PublicFolders(folders),
	})
}

type resolveRequest struct {
	Password string `json:"password"`
}

// Resolve serves a share token to anyone holding it. File links stream
// the content: inline for view links, as an attachment for
// upload-download-view links. Folder links answer with a one-level
// listing.
func (h *ShareHandler) Resolve(c *fiber.Ctx) error {
	password := c.Query("password")
	var req resolveRequest
	if err := c.BodyParser(&req); err == nil && req.Password != "" {
		password = req.Password
	}

	content, err := h.shares.Resolve(c.Context(), c.Params("token"), password)
	if err != nil {
		return respondError(c, err)
	}

	if content.File != nil {
		file := *content.File
		disposition := "inline"
		if content.Link.Permission == models.PermissionUploadDownloadView {
			disposition = "attachment"
		}
		c.Set(fiber.HeaderContentType, file.MimeType)
		c.Set(fiber.HeaderContentDisposition, disposition+"; filename="+strconv.Quote(file.Name))
		return c.SendStream(content.Reader, int(file.Size))
	}

	return success(c, "", fiber.Map{
		"kind":       models.TargetFolder,
		"folder":     content.Folder.Public(),
		"subfolders": models.PublicFolders(content.Subfolders),
		"files":      models.PublicFiles(content.Files),
		"permission": content.Link.Permission,
	})
}
