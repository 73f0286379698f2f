package main

import (
	"net/http"

	"github.com/draganm/go-pages/common/values"
	"github.com/go-chi/chi/v5/middleware"
)

// requestValues exposes request details to every rendered page.
func requestValues(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := values.NewContext(r.Context(), values.Values{
			"request_id":   middleware.GetReqID(r.Context()),
			"request_path": r.URL.Path,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
