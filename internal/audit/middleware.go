package audit

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ziadkadry99/auto-assign/internal/logging"
)

// ActorHeader names the caller of a mutating request.
const ActorHeader = "X-Actor"

// Recorder is the subset of Store that Middleware writes to.
type Recorder interface {
	Log(ctx context.Context, entry Entry) error
}

// Middleware records every successful POST, PUT, PATCH and DELETE request.
// Entries take the route pattern as their action and the {id} parameter as
// their scope id. Write failures are logged, never returned to the client.
func Middleware(store Recorder, logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logging.OrNop(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !mutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusBadRequest {
				return
			}

			pattern := r.URL.Path
			var scopeID string
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					pattern = p
				}
				scopeID = rctx.URLParam("id")
			}

			actor := r.Header.Get(ActorHeader)
			if actor == "" {
				actor = "anonymous"
			}
			entry := Entry{
				ActorType:  ActorUser,
				ActorID:    actor,
				Action:     Action(r.Method + " " + pattern),
				Scope:      scopeFor(pattern),
				ScopeID:    scopeID,
				Summary:    fmt.Sprintf("%s %s", r.Method, r.URL.Path),
				StatusCode: status,
			}
			if err := store.Log(context.WithoutCancel(r.Context()), entry); err != nil {
				logger.Warn("audit write failed",
					zap.String("action", string(entry.Action)),
					zap.Error(err))
			}
		})
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

var scopePrefixes = []struct {
	prefix string
	scope  Scope
}{
	{"/api/incidents", ScopeIncident},
	{"/api/assignments", ScopeAssignment},
	{"/api/escalations", ScopeEscalation},
	{"/api/agents", ScopeAgent},
	{"/api/notifications", ScopeNotification},
}

func scopeFor(pattern string) Scope {
	for _, sp := range scopePrefixes {
		if strings.HasPrefix(pattern, sp.prefix) {
			return sp.scope
		}
	}
	return ScopeSystem
}
