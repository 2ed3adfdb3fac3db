package handler

import (
	"net/http"
	"time"

	"github.com/aiframe/capture-server-go/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

func nowRFC3339() string {
	return time.Now().Format(time.RFC3339)
}
