package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"printfleet-backend/internal/ams"
	"printfleet-backend/internal/fleet"
	"printfleet-backend/internal/matching"
	"printfleet-backend/internal/store"
)

// stubStore records persisted configs and backs the mapping handlers, which
// never touch the database directly.
type stubStore struct {
	saved map[string]fleet.Config
}

func (s *stubStore) DB() *gorm.DB { return nil }

func (s *stubStore) UpsertPrinters(ctx context.Context, printers []store.PrinterInfo) error {
	return nil
}

func (s *stubStore) SaveConfig(ctx context.Context, printerID string, cfg fleet.Config) error {
	if s.saved == nil {
		s.saved = make(map[string]fleet.Config)
	}
	s.saved[printerID] = cfg
	return nil
}

func (s *stubStore) LoadConfigs(ctx context.Context) (map[string]fleet.Config, error) {
	return nil, nil
}

func (s *stubStore) UpdateReadiness(ctx context.Context, now time.Time, results []fleet.PrinterResult) ([]string, error) {
	return nil, nil
}

func setupMappingRouter(t *testing.T) (*gin.Engine, *fleet.Orchestrator, *stubStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	orch := fleet.NewOrchestrator(matching.NewMatcher(nil))
	orch.SetRequirements([]matching.FilamentRequirement{
		{SlotID: 1, Type: "PLA", Color: "#FF0000"},
	})
	orch.SelectPrinters([]string{"p1"})
	orch.UpdateSnapshot("p1", []ams.LoadedFilament{
		{Type: "PLA", Color: "#FF0000", GlobalTrayID: 10},
	})

	st := &stubStore{}
	handler := NewHandler(st, orch, nil)

	r := gin.New()
	r.GET("/api/printers/:printer_id/mapping", handler.GetPrinterMapping)
	r.PATCH("/api/printers/:printer_id/config", handler.PatchPrinterConfig)
	r.POST("/api/printers/:printer_id/auto_configure", handler.AutoConfigurePrinter)
	r.GET("/api/readiness", handler.GetReadiness)
	r.PUT("/api/job", handler.PutJob)
	return r, orch, st
}

func TestGetPrinterMapping(t *testing.T) {
	router, _, _ := setupMappingRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/printers/p1/mapping", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result fleet.PrinterResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "p1", result.PrinterID)
	assert.Equal(t, fleet.StatusFull, result.MatchStatus)
	assert.Equal(t, []int{10}, result.FinalMapping)
}

func TestGetPrinterMapping_UnknownPrinter(t *testing.T) {
	router, _, _ := setupMappingRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/printers/nope/mapping", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPatchPrinterConfig_PersistsThrough(t *testing.T) {
	router, orch, st := setupMappingRouter(t)

	body := `{"manualMappings":{"1":10}}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PATCH", "/api/printers/p1/config", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	cfg, ok := orch.Config("p1")
	require.True(t, ok)
	assert.False(t, cfg.UseDefault)
	assert.Equal(t, map[int]int{1: 10}, cfg.ManualMappings)
	assert.Equal(t, cfg, st.saved["p1"])
}

func TestAutoConfigurePrinterEndpoint(t *testing.T) {
	router, orch, st := setupMappingRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/printers/p1/auto_configure", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	cfg, _ := orch.Config("p1")
	assert.True(t, cfg.AutoConfigured)
	assert.Equal(t, map[int]int{1: 10}, cfg.ManualMappings)
	assert.Equal(t, cfg, st.saved["p1"])
}

func TestPutJobAndReadiness(t *testing.T) {
	router, _, _ := setupMappingRouter(t)

	// The loaded PLA spool cannot satisfy an ASA requirement.
	body := `{"requirements":[{"slotId":1,"type":"ASA","color":"#000000"}]}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/job", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/readiness", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"allPrintersReady":false}`, w.Body.String())
}
