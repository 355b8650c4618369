package handlers

import "net/http"

// Ready reports process liveness. It deliberately does not touch the
// database.
func Ready(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{"ok"})
}
