package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arzan03/CloudVault/internal/middleware"
	"github.com/arzan03/CloudVault/internal/models"
	"github.com/arzan03/CloudVault/internal/services"
)

// SearchHandler answers substring searches across files and folders.
type SearchHandler struct {
	files   *services.FileService
	folders *services.FolderService
}

func NewSearchHandler(files *services.FileService, folders *services.FolderService) *SearchHandler {
	return &SearchHandler{files: files, folders: folders}
}

// Search matches the query against file names and descriptions and
// folder names. type=files|folders|all narrows the scope.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	params := listParams(c)
	if params.Query == "" {
		return fail(c, fiber.StatusUnprocessableEntity, "query parameter q is required")
	}

	kind := c.Query("type", "all")
	switch kind {
	case "files", "folders", "all":
	default:
		return fail(c, fiber.StatusUnprocessableEntity, "type must be files, folders or all")
	}

	p := middleware.PrincipalFrom(c)
	data := fiber.Map{}

	if kind == "files" || kind == "all" {
		files, meta, err := h.files.List(c.Context(), p.UserID, params, nil)
		if err != nil {
			return respondError(c, err)
		}
		data["files"] = page{Items: models.PublicFiles(files), PageMeta: meta}
	}
	if kind == "folders" || kind == "all" {
		folders, meta, err := h.folders.List(c.Context(), p.UserID, params, nil)
		if err != nil {
			return respondError(c, err)
		}
		data["folders"] = page{Items: models.PublicFolders(folders), PageMeta: meta}
	}
	return success(c, "", data)
}
