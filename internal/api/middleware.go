package api

import (
	"context"
	"net/http"
)

type contextKey string

const localityKey contextKey = "localityID"

// RequireLocality extracts the locality from the X-Locality-ID header
// set by the upstream auth middleware. Requests without it are rejected.
func RequireLocality(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		localityID := r.Header.Get("X-Locality-ID")
		if localityID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "Missing X-Locality-ID header",
			})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), localityKey, localityID)))
	})
}

// localityFrom returns the locality placed in the context by RequireLocality
func localityFrom(ctx context.Context) string {
	localityID, _ := ctx.Value(localityKey).(string)
	return localityID
}
