package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arzan03/CloudVault/internal/middleware"
	"github.com/arzan03/CloudVault/internal/services"
)

// StatsHandler exposes usage figures.
type StatsHandler struct {
	stats *services.StatsService
}

func NewStatsHandler(stats *services.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Storage reports the caller's usage against the quota.
func (h *StatsHandler) Storage(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	stats, err := h.stats.Storage(c.Context(), p.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "", stats)
}

// FileStats reports one file's lifetime counters and, when an access log
// source is configured, the per-dimension breakdown.
func (h *StatsHandler) FileStats(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	stats, err := h.stats.FileStats(c.Context(), p.UserID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "", stats)
}
