package server

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/blake2b"

	"libraryledger/internal/circulation"
	"libraryledger/internal/httpjson"
)

// dataResponse is the envelope of /api/data.
type dataResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// dataHandler serves the whole library, or its items or users, from the
// current snapshot.
type dataHandler struct {
	svc circulation.Service
}

func newDataHandler(svc circulation.Service) *dataHandler {
	return &dataHandler{svc: svc}
}

func (h *dataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snap := h.svc.Snapshot()

	var data any
	switch r.URL.Query().Get("action") {
	case "getSampleData":
		data = snap
	case "getItems":
		data = snap.Items
	case "getUsers":
		data = snap.Members
	default:
		writeData(w, r, http.StatusBadRequest, dataResponse{Message: "Invalid action"})
		return
	}
	writeData(w, r, http.StatusOK, dataResponse{Success: true, Data: data})
}

// writeData encodes resp with a content hash ETag and answers 304 when the
// client already has it.
func writeData(w http.ResponseWriter, r *http.Request, status int, resp dataResponse) {
	payload, err := json.Marshal(resp)
	if err != nil {
		httpjson.Logger(r.Context()).ErrorContext(r.Context(), "failed to encode data response", "err", err)
		http.Error(w, `{"success":false,"message":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusOK {
		sum := blake2b.Sum256(payload)
		etag := `"` + hex.EncodeToString(sum[:16]) + `"`
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")
		if etagMatches(r.Header.Get("If-None-Match"), etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag || candidate == "*" {
			return true
		}
	}
	return false
}
