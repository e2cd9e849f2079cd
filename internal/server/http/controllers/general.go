package controllers

import (
	"net/http"

	"github.com/yuuhhe/microlog/internal/runtime"
)

// GeneralController handles health, stats and store listing.
type GeneralController struct {
	rt *runtime.Runtime
}

func NewGeneralController(rt *runtime.Runtime) *GeneralController {
	return &GeneralController{rt: rt}
}

// RegisterRoutes registers:
//   - /v1/healthz
//   - /v1/stats
//   - /v1/stores   GET list, DELETE ?name= drop
func (c *GeneralController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/healthz", c.handleHealth)
	mux.HandleFunc("/v1/stats", c.handleStats)
	mux.HandleFunc("/v1/stores", c.handleStores)
}

// handleHealth returns 200 {"status":"ok"} when healthy, 503 otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_serving")
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (c *GeneralController) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, c.rt.Stats())
}

func (c *GeneralController) handleStores(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodDelete:
		if err := c.rt.DropStore(r.URL.Query().Get("name")); err != nil {
			writeErr(w, err)
			return
		}
		writeNoContent(w)
		return
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	names, err := c.rt.Stores()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list stores")
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, map[string]any{"stores": names})
}
