package audit

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/obs"
)

// HTTPRecorder records admin requests after they have been handled.
type HTTPRecorder struct {
	Service *Service
	OnError func(error)
}

// HTTPConfig customises how the audit entry is produced for a route.
type HTTPConfig struct {
	Action       string
	ResourceType string
	MetadataFunc func(*http.Request, int) map[string]any
}

// Outcome tags an entry as a success or a failure from the response status.
func Outcome(_ *http.Request, status int) map[string]any {
	if status >= 200 && status < 300 {
		return map[string]any{"outcome": "success"}
	}
	return map[string]any{"outcome": "failure"}
}

// Mutations records every non-GET request passing through. Resource ids are
// taken from the "id" or "code" route parameter when present.
func (r HTTPRecorder) Mutations(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodGet || req.Method == http.MethodHead || req.Method == http.MethodOptions {
			next.ServeHTTP(w, req)
			return
		}
		r.record(HTTPConfig{}, next, w, req)
	})
}

// Middleware returns a chi-compatible middleware that records one route,
// including requests made before an admin is known, such as logins.
func (r HTTPRecorder) Middleware(cfg HTTPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			r.record(cfg, next, w, req)
		})
	}
}

func (r HTTPRecorder) record(cfg HTTPConfig, next http.Handler, w http.ResponseWriter, req *http.Request) {
	if r.Service == nil || !r.Service.Enabled {
		next.ServeHTTP(w, req)
		return
	}
	recorder := obs.NewStatusRecorder(w)
	next.ServeHTTP(recorder, req)

	var metadata []byte
	if cfg.MetadataFunc != nil {
		if payload := cfg.MetadataFunc(req, recorder.Status()); payload != nil {
			if data, err := json.Marshal(payload); err == nil {
				metadata = data
			}
		}
	}
	err := r.Service.Record(req.Context(), actorOf(req), cfg.Action, cfg.ResourceType, resourceID(req), req, recorder.Status(), metadata)
	if err != nil && r.OnError != nil {
		r.OnError(err)
	}
}

func actorOf(req *http.Request) Actor {
	if id, ok := common.AdminID(req.Context()); ok {
		return Actor{Kind: ActorKindAdmin, AdminID: id}
	}
	return Actor{Kind: ActorKindAnonymous}
}

func resourceID(req *http.Request) string {
	if id := chi.URLParam(req, "id"); id != "" {
		return id
	}
	return chi.URLParam(req, "code")
}
