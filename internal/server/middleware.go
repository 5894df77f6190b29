package server

import (
	"net/http"
	"strings"

	"github.com/harborloop/settingsd/internal/auth"
)

// withSubject resolves the requesting subject from the X-Subject-ID and
// X-Permissions headers and attaches it to the request context. Both
// headers are set by the fronting proxy after authentication; their
// contents are opaque tokens here. A request without them carries the
// anonymous subject.
func withSubject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub := auth.Subject{ID: strings.TrimSpace(r.Header.Get("X-Subject-ID"))}
		if raw := r.Header.Get("X-Permissions"); raw != "" {
			for _, tok := range strings.Split(raw, ",") {
				if tok = strings.TrimSpace(tok); tok != "" {
					sub.Permissions = append(sub.Permissions, tok)
				}
			}
		}
		next.ServeHTTP(w, r.WithContext(auth.WithSubject(r.Context(), sub)))
	})
}
