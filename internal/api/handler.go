package api

import (
	"printfleet-backend/internal/fleet"
	"printfleet-backend/internal/store"

	"github.com/SherClockHolmes/webpush-go"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	orch    *fleet.Orchestrator
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, orch *fleet.Orchestrator, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		orch:    orch,
		webpush: webpushOptions,
	}
}
