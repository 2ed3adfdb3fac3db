package middleware

import "net/http"

// CORSMiddleware allows all origins. Capture clients run in browsers and
// headsets on arbitrary hosts; there is no credentialed cross-origin use.
type CORSMiddleware struct {
	exposeHeaders string
}

func NewCORSMiddleware(exposeHeaders string) *CORSMiddleware {
	return &CORSMiddleware{exposeHeaders: exposeHeaders}
}

func (m *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if m.exposeHeaders != "" {
			w.Header().Set("Access-Control-Expose-Headers", m.exposeHeaders)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
