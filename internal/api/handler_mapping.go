package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"printfleet-backend/internal/fleet"
	"printfleet-backend/internal/matching"
)

// GetPrinterMapping handles GET /api/printers/{printer_id}/mapping: the
// full per-printer mapping view, including per-slot comparisons.
func (h *Handler) GetPrinterMapping(c *gin.Context) {
	printerID := c.Param("printer_id")

	result, ok := h.orch.Result(printerID)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "printer is not part of the current selection"})
		return
	}
	c.JSON(http.StatusOK, result)
}

type putJobRequest struct {
	Requirements    []matching.FilamentRequirement `json:"requirements" binding:"required"`
	DefaultMappings map[int]int                    `json:"defaultMappings"`
}

// PutJob handles PUT /api/job: the sliced-file parsing collaborator submits
// the print job's filament requirements and optional fleet-wide defaults.
func (h *Handler) PutJob(c *gin.Context) {
	var req putJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.orch.SetRequirements(req.Requirements)
	if req.DefaultMappings != nil {
		h.orch.SetDefaultMappings(req.DefaultMappings)
	}
	c.Status(http.StatusNoContent)
}

// PatchPrinterConfig handles PATCH /api/printers/{printer_id}/config.
func (h *Handler) PatchPrinterConfig(c *gin.Context) {
	printerID := c.Param("printer_id")

	var patch fleet.ConfigPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, ok := h.orch.UpdatePrinterConfig(printerID, patch)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "printer is not part of the current selection"})
		return
	}

	h.persistConfig(c, printerID, cfg)
	c.JSON(http.StatusOK, cfg)
}

// AutoConfigurePrinter handles POST /api/printers/{printer_id}/auto_configure.
func (h *Handler) AutoConfigurePrinter(c *gin.Context) {
	printerID := c.Param("printer_id")

	cfg, ok := h.orch.AutoConfigurePrinter(printerID)
	if !ok {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "nothing to configure: no requirements or no telemetry yet"})
		return
	}

	h.persistConfig(c, printerID, cfg)
	c.JSON(http.StatusOK, cfg)
}

// AutoConfigureAll handles POST /api/auto_configure.
func (h *Handler) AutoConfigureAll(c *gin.Context) {
	h.orch.AutoConfigureAll()

	configs := make(map[string]fleet.Config)
	for _, result := range h.orch.PrinterResults() {
		cfg, ok := h.orch.Config(result.PrinterID)
		if !ok {
			continue
		}
		configs[result.PrinterID] = cfg
		h.persistConfig(c, result.PrinterID, cfg)
	}
	c.JSON(http.StatusOK, configs)
}

// persistConfig writes a configuration change through to the store. A
// failed write is logged, not surfaced: the in-session configuration is
// authoritative and persistence is best effort.
func (h *Handler) persistConfig(c *gin.Context, printerID string, cfg fleet.Config) {
	if err := h.store.SaveConfig(c.Request.Context(), printerID, cfg); err != nil {
		log.Printf("Error persisting config for printer %s: %v", printerID, err)
	}
}
