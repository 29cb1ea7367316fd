// Package api implements the Dagaz REST API using chi.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/starford/dagaz/internal/metrics"
)

type ctxKey int

const (
	ctxKeyTenant ctxKey = iota
	ctxKeyCanEdit
)

// DefaultTenant is used when a request carries no X-Tenant header.
const DefaultTenant = "default"

// AuthMode values accepted by AuthMiddleware.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// tenantFrom returns the request's tenant id.
func tenantFrom(r *http.Request) string {
	return r.Context().Value(ctxKeyTenant).(string)
}

// canEdit reports whether the request is allowed to mutate records.
func canEdit(r *http.Request) bool {
	v, ok := r.Context().Value(ctxKeyCanEdit).(bool)
	return ok && v
}

// requestPerms adapts the request's edit capability to the scheduler's
// permission collaborator.
type requestPerms bool

func (p requestPerms) CanEdit() bool { return bool(p) }

// TenantMiddleware resolves the tenant from the X-Tenant header, falling
// back to DefaultTenant, and records request metrics.
func TenantMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := r.Header.Get("X-Tenant")
		if tenant == "" {
			tenant = DefaultTenant
		}
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(context.WithValue(r.Context(), ctxKeyTenant, tenant)))
		metrics.CountRequest(r.Method, sw.status)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// AuthMiddleware returns middleware that validates a Bearer token and
// derives the request's edit capability.
//
// In disabled mode every request passes with full edit rights. In token
// mode the edit token grants writes; the optional read token grants
// read-only access, which makes reschedule attempts fail the permission
// guard instead of the request failing outright.
func AuthMiddleware(mode, editToken, readToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if mode != AuthModeToken {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyCanEdit, true)))
				return
			}

			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			token := strings.TrimPrefix(auth, "Bearer ")
			switch {
			case token == editToken:
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyCanEdit, true)))
			case readToken != "" && token == readToken:
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyCanEdit, false)))
			default:
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
			}
		})
	}
}
