package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/yuuhhe/microlog/internal/recordstore"
	"github.com/yuuhhe/microlog/internal/ringlog"
)

type errorResp struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResp{Error: message})
}

// statusFor maps log and store sentinels onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ringlog.ErrInvalidConfiguration), errors.Is(err, recordstore.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, recordstore.ErrStoreNotFound):
		return http.StatusNotFound
	case errors.Is(err, recordstore.ErrStoreInUse):
		return http.StatusConflict
	case errors.Is(err, ringlog.ErrStoreUnavailable), errors.Is(err, recordstore.ErrNotOpen):
		return http.StatusServiceUnavailable
	case errors.Is(err, recordstore.ErrStoreFull):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// parseLimit reads ?limit; anything but a positive integer means no limit.
func parseLimit(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
