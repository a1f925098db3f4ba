// Package web serves the browser UI, the JSON API and the generated audio.
package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/valpere/bhasha/internal/audio"
	"github.com/valpere/bhasha/internal/handler"
	"github.com/valpere/bhasha/internal/store"
)

const (
	DefaultRateLimit = 60
	maxBodyBytes     = 64 << 10
)

// Translator runs one translate-then-speak request. *handler.Handler
// satisfies it.
type Translator interface {
	TranslateWithAudio(ctx context.Context, text, sourceLang, targetLang string) handler.Result
}

// AudioSource opens generated audio by artifact ID. *audio.Manager
// satisfies it.
type AudioSource interface {
	Open(id string) (*os.File, *audio.Artifact, error)
}

// Memory exposes the translation memory and the artifact registry.
// *store.Store satisfies it.
type Memory interface {
	ListMemory(ctx context.Context) ([]store.MemoryEntry, error)
	Stats(ctx context.Context) (*store.CacheStats, error)
	ClearMemory(ctx context.Context) (int64, error)
	DeleteMemory(ctx context.Context, id string) error
	ListArtifacts(ctx context.Context) ([]audio.Artifact, error)
}

type Config struct {
	// RateLimit is the number of translate requests allowed per IP per
	// minute. Zero disables limiting.
	RateLimit      int
	AllowedOrigins []string
	// Memory enables the /api/memory and /api/artifacts routes.
	Memory Memory
}

type Server struct {
	translator Translator
	audio      AudioSource
	memory     Memory
	logger     zerolog.Logger
	cfg        Config
	page       *template.Template
	// limit counts translate requests per IP; nil when limiting is off.
	limit func(http.Handler) http.Handler
}

func NewServer(tr Translator, src AudioSource, logger zerolog.Logger, cfg Config) *Server {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	s := &Server{
		translator: tr,
		audio:      src,
		memory:     cfg.Memory,
		logger:     logger,
		cfg:        cfg,
		page:       pageTemplate,
	}
	if cfg.RateLimit > 0 {
		s.limit = httprate.LimitByIP(cfg.RateLimit, time.Minute)
	}
	return s
}

// limited wraps h with the shared translate rate limiter.
func (s *Server) limited(h http.HandlerFunc) http.Handler {
	if s.limit == nil {
		return h
	}
	return s.limit(h)
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/", s.index)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	r.Get("/audio/{id}", s.serveAudio)

	// The form post limits only its translate action, see submit.
	r.Post("/", s.submit)
	r.Method(http.MethodPost, "/api/translate", s.limited(s.apiTranslate))

	r.Get("/api/languages", s.apiLanguages)
	r.Get("/api/examples", s.apiExamples)

	if s.memory != nil {
		r.Route("/api/memory", func(r chi.Router) {
			r.Get("/", s.apiMemory)
			r.Delete("/", s.apiClearMemory)
			r.Delete("/{id}", s.apiDeleteMemory)
		})
		r.Get("/api/artifacts", s.apiArtifacts)
	}

	return r
}

func (s *Server) serveAudio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	f, art, err := s.audio.Open(id)
	if err != nil {
		if errors.Is(err, audio.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error().Err(err).Str("id", id).Msg("failed to open audio")
		http.Error(w, "failed to open audio", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", audio.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, art.ID+".mp3", art.CreatedAt, f)
}

// audioURL prefers the published object URL over the local route.
func audioURL(a *audio.Artifact) string {
	if a == nil {
		return ""
	}
	if a.URL != "" {
		return a.URL
	}
	return "/audio/" + a.ID
}

func accessLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.Info().
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("remote", r.RemoteAddr).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("latency", time.Since(start)).
					Msg("http request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
