package server

import (
	"embed"
	"net/http"
)

//go:embed static/*
var staticFiles embed.FS

// IndexHandler serves the embedded single-page UI.
func (s *Server) IndexHandler() http.HandlerFunc {
	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		panic("Failed to read embedded index page: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}
}
