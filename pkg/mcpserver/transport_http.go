package mcpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

const sessionHeader = "Mcp-Session-Id"

// maxBodyBytes bounds a single JSON-RPC request body.
const maxBodyBytes = 1 << 20

func newHTTPHandler(server *Server) http.Handler {
	h := &httpHandler{
		server:   server,
		sessions: make(map[string]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /mcp", h.handleMCP)
	mux.HandleFunc("DELETE /mcp", h.handleTerminate)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	return mux
}

type httpHandler struct {
	server   *Server
	mu       sync.RWMutex
	sessions map[string]struct{}
}

func (h *httpHandler) handleMCP(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var rpcReq JSONRPCRequest
	if err := json.Unmarshal(body, &rpcReq); err != nil {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse(nil, ErrCodeParse, "invalid JSON: "+err.Error()))
		return
	}

	// Clients that never initialized may omit the header; a header we did
	// not issue is rejected.
	sessionID := r.Header.Get(sessionHeader)
	if rpcReq.Method != "initialize" && sessionID != "" && !h.hasSession(sessionID) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	resp := h.server.Handle(r.Context(), rpcReq)
	if resp.IsNotification() {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	switch {
	case rpcReq.Method == "initialize" && resp.Error == nil:
		w.Header().Set(sessionHeader, h.newSession())
	case sessionID != "":
		w.Header().Set(sessionHeader, sessionID)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *httpHandler) handleTerminate(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing "+sessionHeader)
		return
	}
	h.mu.Lock()
	_, ok := h.sessions[sessionID]
	delete(h.sessions, sessionID)
	h.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *httpHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
}

func (h *httpHandler) newSession() string {
	sid := uuid.NewString()
	h.mu.Lock()
	h.sessions[sid] = struct{}{}
	h.mu.Unlock()
	return sid
}

func (h *httpHandler) hasSession(id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.sessions[id]
	return ok
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	buf, err := json.Marshal(payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "marshal failure")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg}) //nolint:errcheck
}
