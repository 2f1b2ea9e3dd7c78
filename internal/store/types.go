package store

// PrinterInfo is the printer metadata the poller feeds into the store.
type PrinterInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Model string `json:"model"`
	Host  string `json:"host"`
}
