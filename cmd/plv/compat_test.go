package main

import (
	"net/http"
	"os"
	"strings"
	"testing"
)

// chdir changes the working directory to dir for the duration of the test.
// It stands in for testing.T.Chdir, which needs Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restore working directory: %v", err)
		}
	})
}

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
