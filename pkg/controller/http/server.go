package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/mindforge/pkg/usecase"
)

// maxUploadBytes bounds an image upload
const maxUploadBytes = 20 << 20

type Server struct {
	router    *chi.Mux
	uc        *usecase.UseCases
	uploadDir string
}

type Options func(*Server)

// WithUploadDir sets the directory uploaded images are written to. Defaults to the
// system temp directory.
func WithUploadDir(dir string) Options {
	return func(s *Server) {
		s.uploadDir = dir
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/inbox", func(r chi.Router) {
			r.Post("/text", s.inboxTextHandler)
			r.Post("/url", s.inboxURLHandler)
			r.Post("/image", s.inboxImageHandler)
		})
		r.Post("/synthesis", s.synthesisHandler)
		r.Post("/review", s.reviewHandler)
		r.Get("/tasks", s.tasksHandler)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// NewHTTPServer wraps the handler with timeouts suitable for the API
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
}
