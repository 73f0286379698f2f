package main

import (
	"net/http"

	"github.com/draganm/go-pages/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// newRouter serves the pages and answers everything else with 404. chi only runs
// its middleware stack for routed requests, hence the catch-all route.
func newRouter(p *web.Pages) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, requestValues, p.Middleware)
	r.Handle("/*", http.HandlerFunc(notFound))
	r.NotFound(notFound)
	return r
}

func notFound(w http.ResponseWriter, r *http.Request) {
	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}
