package snapshot

import (
	"net/http"
	"strings"
)

// handleFunc registers h for a "METHOD /path" pattern. It stands in for
// Go 1.22 ServeMux method patterns: the method is checked here, and a
// path with {wildcard} segments is registered as a subtree prefix.
func handleFunc(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	method, path, _ := strings.Cut(pattern, " ")
	if i := strings.Index(path, "{"); i >= 0 {
		path = path[:i]
	}
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	})
}
