package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/yuuhhe/microlog/internal/ringlog"
	"github.com/yuuhhe/microlog/internal/runtime"
	"github.com/yuuhhe/microlog/pkg/log"
)

// LogsController exposes the configured appender and read access to any
// record store.
type LogsController struct {
	rt     *runtime.Runtime
	logger log.Logger
}

func NewLogsController(rt *runtime.Runtime, logger log.Logger) *LogsController {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &LogsController{rt: rt, logger: logger.WithComponent("http.logs")}
}

// RegisterRoutes registers:
//   - /v1/log        POST append, GET read, DELETE clear
//   - /v1/log/count  GET
//   - /v1/log/size   GET
func (c *LogsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/log", c.handleLog)
	mux.HandleFunc("/v1/log/count", c.handleCount)
	mux.HandleFunc("/v1/log/size", c.handleSize)
}

func (c *LogsController) handleLog(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		c.handleAppend(w, r)
	case http.MethodGet:
		c.handleRead(w, r)
	case http.MethodDelete:
		c.handleClear(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleAppend formats and stores one entry in the configured store.
func (c *LogsController) handleAppend(w http.ResponseWriter, r *http.Request) {
	var req appendReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	level := log.InfoLevel
	if req.Level != "" {
		lv, err := log.ParseLevel(req.Level)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid level")
			return
		}
		level = lv
	}
	ts := req.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	clientID := req.ClientID
	if clientID == "" {
		clientID = c.rt.ClientID()
	}
	app, err := c.rt.OpenAppender()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	var cause error
	if req.Error != "" {
		cause = errors.New(req.Error)
	}
	app.DoLog(clientID, req.Name, ts, level, req.Message, cause)
	w.WriteHeader(http.StatusAccepted)
}

// handleRead returns the window of ?store= (default: configured store) in
// ?order= asc|desc, optionally restricted by a CEL ?filter=. With
// ?format=text it returns the newline-joined text.
func (c *LogsController) handleRead(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	order, ok := ringlog.ParseOrder(q.Get("order"))
	if !ok {
		writeError(w, http.StatusBadRequest, "order must be asc or desc")
		return
	}
	loader, err := c.rt.NewLoader(q.Get("store"))
	if err != nil {
		writeErr(w, err)
		return
	}
	loader.SetSortOrder(order)
	if err := loader.SetFilter(q.Get("filter")); err != nil {
		writeErr(w, err)
		return
	}

	if q.Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(loader.LogContent()))
		return
	}

	entries, err := loader.Entries()
	if err != nil {
		c.logger.Warn("read failed", log.Store(loader.RecordStoreName()), log.Err(err))
		writeErr(w, err)
		return
	}
	limit := parseLimit(q.Get("limit"))
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]entryResp, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResp{ID: uint64(e.ID), Timestamp: e.Timestamp, Text: e.Text})
	}
	writeJSON(w, readResp{Store: loader.RecordStoreName(), Order: order.String(), Entries: out})
}

// handleClear deletes every record of ?store=. The configured store is
// cleared through the appender so its window restarts empty.
func (c *LogsController) handleClear(w http.ResponseWriter, r *http.Request) {
	loader, err := c.rt.NewLoader(r.URL.Query().Get("store"))
	if err != nil {
		writeErr(w, err)
		return
	}
	app := c.rt.Appender()
	if loader.RecordStoreName() == app.RecordStoreName() && app.IsOpen() {
		app.Clear()
	} else {
		loader.ClearLog()
	}
	writeNoContent(w)
}

func (c *LogsController) handleCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	loader, err := c.rt.NewLoader(r.URL.Query().Get("store"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"store": loader.RecordStoreName(), "count": loader.NumLogItems()})
}

// handleSize reports the configured store's payload bytes; -1 when
// undefined.
func (c *LogsController) handleSize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	app := c.rt.Appender()
	writeJSON(w, map[string]any{"store": app.RecordStoreName(), "size": app.LogSize()})
}
