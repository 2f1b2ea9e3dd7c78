package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"printfleet-backend/config"
	"printfleet-backend/internal/ams"
	"printfleet-backend/internal/db"
	"printfleet-backend/internal/fleet"
	"printfleet-backend/internal/matching"
	"printfleet-backend/internal/model"
	"printfleet-backend/internal/poller"
	"printfleet-backend/internal/store"
)

// TestReadinessLifecycle simulates a printer going from a blocked filament
// mapping to a ready one across two poll cycles and verifies the database
// state at each step.
func TestReadinessLifecycle(t *testing.T) {
	testDB, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to the in-memory database: %v", err)
	}
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	require.NoError(t, db.Migrate(testDB))

	// Mock printer: first cycle reports only PETG, second cycle the PLA the
	// job needs has been loaded.
	var requestCount int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var trays []ams.Tray
		if requestCount == 0 {
			trays = []ams.Tray{{ID: 0, Type: "PETG", Color: "#00FF00"}}
		} else {
			trays = []ams.Tray{
				{ID: 0, Type: "PETG", Color: "#00FF00"},
				{ID: 1, Type: "PLA", Color: "#FF0000"},
			}
		}
		requestCount++

		json.NewEncoder(w).Encode(poller.StatusResponse{
			Code: 0,
			Data: ams.PrinterStatus{
				Units: []ams.Unit{{ID: 0, Trays: trays}},
			},
		})
	}))
	defer server.Close()

	mockConfig := &config.Config{
		Poller: config.PollerConfig{
			Printers: []config.PrinterEndpoint{
				{ID: "X1C-001", Name: "Workshop X1C", Model: "X1C", URL: server.URL},
			},
			TimeoutSeconds: 5,
			TrayCapacity:   4,
			ExternalBase:   1000,
		},
	}
	mockConfig.WorkerPool.Size = 4

	appStore := store.NewGormStore(testDB)
	orch := fleet.NewOrchestrator(matching.NewMatcher(nil))
	orch.SetRequirements([]matching.FilamentRequirement{
		{SlotID: 1, Type: "PLA", Color: "#FF0000"},
	})

	service := poller.NewService(mockConfig, appStore, orch)

	// --- Cycle 1: the requirement cannot be satisfied ---
	service.PollOnce(context.Background())

	var printers []model.Printer
	require.NoError(t, testDB.Find(&printers).Error)
	require.Len(t, printers, 1)
	assert.Equal(t, "Workshop X1C", printers[0].Name)

	var open model.ReadinessOpen
	require.NoError(t, testDB.First(&open, "printer_id = ?", "X1C-001").Error)
	assert.Equal(t, "missing", open.Status)
	assert.Equal(t, 1, open.MissingTypes)
	assert.False(t, orch.AllPrintersReady())

	// --- Cycle 2: the PLA spool has been loaded ---
	service.PollOnce(context.Background())

	err = testDB.First(&model.ReadinessOpen{}, "printer_id = ?", "X1C-001").Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "ready printers leave the hot table")

	var history []model.ReadinessHistory
	require.NoError(t, testDB.Find(&history, "printer_id = ?", "X1C-001").Error)
	require.Len(t, history, 1)
	assert.Equal(t, "missing", history[0].Status)
	assert.True(t, history[0].PeriodEnd.After(history[0].PeriodStart) ||
		history[0].PeriodEnd.Equal(history[0].PeriodStart))

	assert.True(t, orch.AllPrintersReady())
	mapping := orch.GetFinalMapping("X1C-001")
	require.NotNil(t, mapping)
	assert.Equal(t, []int{1}, mapping, "slot 1 maps to unit 0 tray 1")
}
