package handlers

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/arzan03/CloudVault/internal/middleware"
	"github.com/arzan03/CloudVault/internal/models"
	"github.com/arzan03/CloudVault/internal/services"
)

// FileHandler exposes upload, metadata and download endpoints.
type FileHandler struct {
	files *services.FileService
}

func NewFileHandler(files *services.FileService) *FileHandler {
	return &FileHandler{files: files}
}

// selfDeletingFile removes its backing file once the response stream is
// closed. fasthttp closes body streams that implement io.Closer after
// the response is sent, so temp archives never outlive their download.
type selfDeletingFile struct {
	*os.File
}

func (f *selfDeletingFile) Close() error {
	err := f.File.Close()
	os.Remove(f.File.Name())
	return err
}

// Upload stores the multipart "files" parts. Files land at root level
// unless folder_id names an owned folder; a description only fits a
// single-file upload.
func (h *FileHandler) Upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "expected multipart form data")
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}
	if len(headers) == 0 {
		return fail(c, fiber.StatusBadRequest, "no files in upload")
	}

	description := c.FormValue("description")
	if description != "" && len(headers) > 1 {
		return fail(c, fiber.StatusUnprocessableEntity, "description applies to single-file uploads only")
	}

	p := middleware.PrincipalFrom(c)
	uploaded, failures, err := h.files.Upload(c.Context(), p.UserID, c.FormValue("folder_id"), description, headers)
	if err != nil {
		return respondError(c, err)
	}

	data := fiber.Map{
		"uploaded": models.PublicFiles(uploaded),
		"failed":   failures,
	}
	if len(uploaded) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(envelope{Success: false, Message: "upload failed", Data: data})
	}
	return created(c, "upload complete", data)
}

// List returns one page of files. folder_id absent lists everything,
// empty lists root-level files, an id lists that folder's files.
func (h *FileHandler) List(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	files, meta, err := h.files.List(c.Context(), p.UserID, listParams(c), scopeParam(c, "folder_id"))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "", page{Items: models.PublicFiles(files), PageMeta: meta})
}

// Get returns one file's metadata.
func (h *FileHandler) Get(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	file, err := h.files.Get(c.Context(), p.UserID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "", file.Public())
}

type updateFileRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	FolderID    *string `json:"folder_id"`
}

// Update renames, re-describes or moves a file. Empty folder_id moves it
// to root level.
func (h *FileHandler) Update(c *fiber.Ctx) error {
	var req updateFileRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}
	if err := validate.Struct(&req); err != nil {
		return failValidation(c, err)
	}

	p := middleware.PrincipalFrom(c)
	file, err := h.files.Update(c.Context(), p.UserID, c.Params("id"), services.UpdateFileInput{
		Name:        req.Name,
		Description: req.Description,
		FolderID:    req.FolderID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "file updated", file.Public())
}

// Delete moves a file to the trash.
func (h *FileHandler) Delete(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	if err := h.files.SoftDelete(c.Context(), p.UserID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return success(c, "file moved to trash", nil)
}

// Download streams one file as an attachment.
func (h *FileHandler) Download(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	file, reader, err := h.files.Download(c.Context(), p.UserID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, file.MimeType)
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+strconv.Quote(file.Name))
	return c.SendStream(reader, int(file.Size))
}

type downloadManyRequest struct {
	FileIDs []string `json:"file_ids" validate:"required,min=1"`
}

// DownloadMany streams a zip of the requested files. Entries that cannot
// be resolved are skipped; the archive reports how many made it in.
func (h *FileHandler) DownloadMany(c *fiber.Ctx) error {
	var req downloadManyRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}
	if err := validate.Struct(&req); err != nil {
		return failValidation(c, err)
	}

	p := middleware.PrincipalFrom(c)
	path, count, err := h.files.ArchiveFiles(c.Context(), p.UserID, req.FileIDs)
	if err != nil {
		return respondError(c, err)
	}

	archive, err := os.Open(path)
	if err != nil {
		os.Remove(path)
		return respondError(c, fmt.Errorf("open archive: %w", err))
	}
	info, err := archive.Stat()
	if err != nil {
		archive.Close()
		os.Remove(path)
		return respondError(c, fmt.Errorf("stat archive: %w", err))
	}

	name := "files-" + time.Now().Format("20060102-150405") + ".zip"
	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+strconv.Quote(name))
	c.Set("X-Archived-Files", strconv.Itoa(count))
	return c.SendStream(&selfDeletingFile{File: archive}, int(info.Size()))
}
