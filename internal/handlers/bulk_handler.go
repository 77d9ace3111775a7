package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arzan03/CloudVault/internal/middleware"
	"github.com/arzan03/CloudVault/internal/services"
)

// BulkHandler exposes the multi-item move and copy endpoints.
type BulkHandler struct {
	bulk *services.BulkService
}

func NewBulkHandler(bulk *services.BulkService) *BulkHandler {
	return &BulkHandler{bulk: bulk}
}

type bulkRequest struct {
	FileIDs       []string `json:"file_ids"`
	FolderIDs     []string `json:"folder_ids"`
	DestinationID string   `json:"destination_id"`
}

// Move reparents files and folders into the destination. The response
// carries one outcome per item; a skipped or failed item never fails the
// request.
func (h *BulkHandler) Move(c *fiber.Ctx) error {
	var req bulkRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}

	p := middleware.PrincipalFrom(c)
	results, err := h.bulk.Move(c.Context(), p.UserID, services.BulkInput{
		FileIDs:       req.FileIDs,
		FolderIDs:     req.FolderIDs,
		DestinationID: req.DestinationID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "move processed", fiber.Map{"results": results})
}

// Copy duplicates files and folders into the destination, reporting one
// outcome per item.
func (h *BulkHandler) Copy(c *fiber.Ctx) error {
	var req bulkRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}

	p := middleware.PrincipalFrom(c)
	results, err := h.bulk.Copy(c.Context(), p.UserID, services.BulkInput{
		FileIDs:       req.FileIDs,
		FolderIDs:     req.FolderIDs,
		DestinationID: req.DestinationID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "copy processed", fiber.Map{"results": results})
}
