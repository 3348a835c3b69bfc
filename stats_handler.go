package via

import (
	"encoding/json"
	"net/http"

	"github.com/go-via/via/stats"
)

// statsPayload is the JSON shape of GET /_stats, per spec.md §6.
type statsPayload struct {
	Contexts     int                           `json:"contexts"`
	Clients      map[string]stats.ClientRecord `json:"clients"`
	RenderStats  stats.RenderSnapshot          `json:"render_stats"`
	Memory       stats.MemorySnapshot          `json:"memory"`
	Uptime       int64                         `json:"uptime"`
}

// handleStats implements GET /_stats: application/json, pretty-printed.
func (app *Application) handleStats(w http.ResponseWriter, r *http.Request) {
	payload := statsPayload{
		Contexts:    len(app.allContexts()),
		Clients:     app.registry.Snapshot(),
		RenderStats: app.renderStats.Snapshot(),
		Memory:      stats.SampleMemory(),
		Uptime:      stats.Uptime(),
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
