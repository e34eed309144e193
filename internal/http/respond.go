package httpx

import (
	"encoding/json"
	"net/http"
)

// writeJSON encodes a response body with the given status. Handlers pass
// queue entry payloads, export manifests and plain maps through here.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError wraps a message in the {"error": ...} shape every endpoint
// reports failures with.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
