package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"printfleet-backend/internal/fleet"
	"printfleet-backend/internal/model"
)

// PrinterResponse represents the API response for a single printer.
type PrinterResponse struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Model           string            `json:"model"`
	MatchStatus     fleet.ReadyStatus `json:"matchStatus"`
	ExactMatches    int               `json:"exactMatches"`
	TypeOnlyMatches int               `json:"typeOnlyMatches"`
	MissingTypes    int               `json:"missingTypes"`
	TotalSlots      int               `json:"totalSlots"`
}

// GetPrinters handles the GET /api/printers request: printer metadata from
// the database merged with the live per-printer mapping roll-up.
func (h *Handler) GetPrinters(c *gin.Context) {
	var printers []model.Printer
	if err := h.store.DB().Find(&printers).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve printers"})
		return
	}

	results := h.orch.PrinterResults()
	resultMap := make(map[string]fleet.PrinterResult, len(results))
	for _, r := range results {
		resultMap[r.PrinterID] = r
	}

	responses := make([]PrinterResponse, 0, len(printers))
	for _, p := range printers {
		r := resultMap[p.ID] // zero value when the printer is not selected
		if r.MatchStatus == "" {
			r.MatchStatus = fleet.StatusMissing
		}
		responses = append(responses, PrinterResponse{
			ID: p.ID, Name: p.Name, Model: p.Model,
			MatchStatus:     r.MatchStatus,
			ExactMatches:    r.ExactMatches,
			TypeOnlyMatches: r.TypeOnlyMatches,
			MissingTypes:    r.MissingTypes,
			TotalSlots:      r.TotalSlots,
		})
	}
	c.JSON(http.StatusOK, responses)
}

// GetReadiness handles GET /api/readiness, the fleet-wide dispatch gate.
func (h *Handler) GetReadiness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"allPrintersReady": h.orch.AllPrintersReady()})
}
