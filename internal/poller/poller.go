package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"printfleet-backend/config"
	"printfleet-backend/internal/ams"
	"printfleet-backend/internal/fleet"
	"printfleet-backend/internal/notification"
	"printfleet-backend/internal/store"

	"github.com/SherClockHolmes/webpush-go"
)

// trayIDCodec is this deployment's canonical (unit, slot) -> global tray ID
// bijection. AMS trays occupy the dense range below ExternalBase; external
// holders get their own namespace starting at ExternalBase.
type trayIDCodec struct {
	trayCapacity int
	externalBase int
}

func (c trayIDCodec) AMSTrayID(unit, tray int) int {
	return unit*c.trayCapacity + tray
}

func (c trayIDCodec) ExternalTrayID(index int) int {
	return c.externalBase + index
}

// Service polls every configured printer's telemetry endpoint and feeds the
// normalized spool inventories into the fleet orchestrator.
type Service struct {
	cfg        *config.Config
	store      store.Store
	orch       *fleet.Orchestrator
	client     *http.Client
	codec      ams.TrayIDCodec
	workerPool *notification.WorkerPool
}

// NewService creates and initializes a new poller service.
func NewService(cfg *config.Config, st store.Store, orch *fleet.Orchestrator) *Service {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.Poller.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.Poller.HTTPProxy)
		if err != nil {
			log.Printf("Warning: Invalid proxy URL %q: %v. Poller will not use a proxy.", cfg.Poller.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, st.DB(), &webpushOptions)

	return &Service{
		cfg:   cfg,
		store: st,
		orch:  orch,
		client: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Poller.TimeoutSeconds) * time.Second,
		},
		codec: trayIDCodec{
			trayCapacity: cfg.Poller.TrayCapacity,
			externalBase: cfg.Poller.ExternalBase,
		},
		workerPool: workerPool,
	}
}

// Run starts the polling process in a loop.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Poller.Enabled {
		log.Println("Poller is disabled. Not starting.")
		return
	}
	log.Println("Starting poller service...")

	s.workerPool.Start(ctx)

	s.PollOnce(ctx)

	timer := time.NewTimer(s.cfg.Poller.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Poller service shutting down.")
			return
		case <-timer.C:
			s.PollOnce(ctx)
			timer.Reset(s.cfg.Poller.Interval)
		}
	}
}

// PollOnce performs a single fan-out round: every printer is fetched
// independently, results are published into the orchestrator as they land,
// and the readiness tables are reconciled afterwards. A printer whose fetch
// failed keeps its previous snapshot; partial arrival is the steady state.
func (s *Service) PollOnce(ctx context.Context) {
	log.Println("Executing poll cycle...")
	now := time.Now().UTC()

	printers := make([]store.PrinterInfo, 0, len(s.cfg.Poller.Printers))
	ids := make([]string, 0, len(s.cfg.Poller.Printers))
	for _, p := range s.cfg.Poller.Printers {
		printers = append(printers, store.PrinterInfo{ID: p.ID, Name: p.Name, Model: p.Model, Host: p.URL})
		ids = append(ids, p.ID)
	}
	s.orch.SelectPrinters(ids)

	if err := s.store.UpsertPrinters(ctx, printers); err != nil {
		log.Printf("Error upserting printers: %v", err)
		return
	}

	var wg sync.WaitGroup
	for _, endpoint := range s.cfg.Poller.Printers {
		wg.Add(1)
		go func(ep config.PrinterEndpoint) {
			defer wg.Done()
			status, err := s.fetchStatus(ctx, ep)
			if err != nil {
				log.Printf("Error fetching status for printer %s: %v", ep.ID, err)
				return
			}
			s.orch.UpdateSnapshot(ep.ID, ams.Extract(status, s.codec))
		}(endpoint)
	}
	wg.Wait()

	readyIDs, err := s.store.UpdateReadiness(ctx, now, s.orch.PrinterResults())
	if err != nil {
		log.Printf("Error processing readiness changes: %v", err)
	}

	if len(readyIDs) > 0 {
		log.Printf("Dispatching notifications for %d printers", len(readyIDs))
		for _, printerID := range readyIDs {
			s.workerPool.Dispatch(printerID)
		}
	}

	log.Println("Poll cycle finished.")
}

// fetchStatus fetches one printer's status snapshot.
func (s *Service) fetchStatus(ctx context.Context, ep config.PrinterEndpoint) (*ams.PrinterStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range ep.Headers {
		req.Header.Set(key, value)
	}
	if ep.AccessCode != "" {
		req.Header.Set("Authorization", "Bearer "+ep.AccessCode)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var statusResp StatusResponse
	if err := json.Unmarshal(body, &statusResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status response: %w", err)
	}

	if statusResp.Code != 0 {
		return nil, fmt.Errorf("printer returned non-zero application code: %d", statusResp.Code)
	}

	return &statusResp.Data, nil
}
