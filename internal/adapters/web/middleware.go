package web

import (
	"context"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ctxKey int

const requestIDKey ctxKey = iota

const requestIDHeader = "X-Request-ID"

// Upstream ids are echoed only when they look like a uuid or a short token.
var acceptableRequestID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestID tags every request with an id, reusing the caller's X-Request-ID when acceptable.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if !acceptableRequestID.MatchString(id) {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// responseMeter remembers what a handler wrote so Logger and Recoverer can see it.
type responseMeter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (m *responseMeter) WriteHeader(code int) {
	if m.status == 0 {
		m.status = code
	}
	m.ResponseWriter.WriteHeader(code)
}

func (m *responseMeter) Write(b []byte) (int, error) {
	if m.status == 0 {
		m.status = http.StatusOK
	}
	n, err := m.ResponseWriter.Write(b)
	m.bytes += n
	return n, err
}

func meter(w http.ResponseWriter) *responseMeter {
	if m, ok := w.(*responseMeter); ok {
		return m
	}
	return &responseMeter{ResponseWriter: w}
}

// Logger writes one [HTTP] line per request.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m := meter(w)
		next.ServeHTTP(m, r)
		status := m.status
		if status == 0 {
			status = http.StatusOK
		}
		log.Printf("[HTTP] %s %s -> %d (%dB) in %s request_id=%s",
			r.Method, r.URL.RequestURI(), status, m.bytes,
			time.Since(start).Round(time.Microsecond), requestIDFromContext(r.Context()))
	})
}

// Recoverer turns a handler panic into a JSON 500, unless the response has already started.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := meter(w)
		defer func() {
			rv := recover()
			if rv == nil {
				return
			}
			if rv == http.ErrAbortHandler {
				panic(rv)
			}
			log.Printf("[HTTP] panic serving %s %s request_id=%s: %v",
				r.Method, r.URL.Path, requestIDFromContext(r.Context()), rv)
			if m.status == 0 {
				writeError(m, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(m, r)
	})
}

// CORS allows the comma-separated origins to read the API from a browser. Preflight
// requests are answered here and never reach the router.
func CORS(allowedOrigins string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool)
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")
			if origin := r.Header.Get("Origin"); allowed[origin] {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
				h.Set("Access-Control-Expose-Headers", requestIDHeader)
				h.Set("Access-Control-Max-Age", "600")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestBodyLimit caps request bodies at maxBytes. Invoice generation takes its input
// from the URL, so anything large is rejected while reading.
func RequestBodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeError(w, r, "request body too large", "PAYLOAD_TOO_LARGE", http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
