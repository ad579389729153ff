package api

import (
	"net/http"
	"time"

	"github.com/flavien-hugs/unsta-sfs/internal/config"
	"github.com/flavien-hugs/unsta-sfs/internal/logging"
	"github.com/flavien-hugs/unsta-sfs/internal/service"
	"github.com/flavien-hugs/unsta-sfs/internal/version"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

// Permissions checked against the remote permission service when one is
// configured. Names follow the "<app>:<action>" convention.
const (
	PermWriteBucket = "sfs:can-write-bucket"
	PermReadFile    = "sfs:can-read-file"
	PermDeleteFile  = "sfs:can-delete-file"
)

// Server binds the managers to their HTTP surface.
type Server struct {
	cfg     *config.Config
	log     logging.Logger
	buckets *service.Buckets
	media   *service.Media
	public  *service.PublicAccess
	access  *AccessChecker
}

func NewServer(cfg *config.Config, log logging.Logger, buckets *service.Buckets, media *service.Media, public *service.PublicAccess, access *AccessChecker) *Server {
	return &Server{cfg: cfg, log: log, buckets: buckets, media: media, public: public, access: access}
}

type statusRecorder struct {
	http.ResponseWriter
	code  int
	bytes int64
}

func (sr *statusRecorder) WriteHeader(statusCode int) {
	sr.code = statusCode
	sr.ResponseWriter.WriteHeader(statusCode)
}
func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += int64(n)
	return n, err
}

// Router assembles the full route tree and request middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	// request id + structured request log
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			w.Header().Set("X-Request-Id", id)
			rec := &statusRecorder{ResponseWriter: w, code: 200}
			started := time.Now()
			next.ServeHTTP(rec, r)
			s.log.Info("http_request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.code,
				"durationMs", float64(time.Since(started))/1e6,
				"bytesOut", rec.bytes,
				"requestId", id,
			)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"name": "unsta-sfs", "version": version.Version})
		})
		r.Route("/v1", func(r chi.Router) {
			s.registerBuckets(r)

			r.Group(func(r chi.Router) {
				r.With(s.access.Require(PermWriteBucket)).Post("/media", s.uploadMedia)
				r.With(s.access.Require(PermReadFile)).Get("/media", s.listMedia)
				r.With(s.access.Require(PermReadFile)).Get("/media/{bucket}/{key}", s.readMedia)
				r.With(s.access.Require(PermDeleteFile)).Delete("/media/{bucket}/{key}", s.deleteMedia)
			})
		})
	})

	// Public delivery path, no authentication: access is decided solely by
	// the record's is_public flag and its TTL window.
	r.Get("/media/public/{bucket}/{key}", s.readPublicMedia)

	return r
}
