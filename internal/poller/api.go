package poller

import "printfleet-backend/internal/ams"

// StatusResponse models the envelope of a printer's status endpoint.
type StatusResponse struct {
	Code int               `json:"code"`
	Data ams.PrinterStatus `json:"data"`
}
