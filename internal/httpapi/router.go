package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/mirajehossain/usersvc/internal/logger"
)

// NewRouter wires the user endpoints onto a ServeMux. Exact patterns
// (search, age-range, stats) are registered alongside the /users/
// subtree; the mux prefers the exact match.
func NewRouter(users *UserHandler, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", requireGet(users.Health))

	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			users.List(w, r)
		case http.MethodPost:
			users.Create(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	})

	mux.HandleFunc("/users/search", requireGet(users.Search))
	mux.HandleFunc("/users/age-range", requireGet(users.AgeRange))
	mux.HandleFunc("/users/stats", requireGet(users.Stats))

	mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/users/")
		if id == "" || strings.Contains(id, "/") {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet:
			users.Get(w, r, id)
		case http.MethodPut:
			users.Update(w, r, id)
		case http.MethodDelete:
			users.Delete(w, r, id)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	})

	return requestLogging(log, mux)
}

func requireGet(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		next(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogging(log *logger.Logger, next http.Handler) http.Handler {
	if log == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		log.Info("http request", map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}
