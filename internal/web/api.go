package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/valpere/bhasha/internal/catalog"
	"github.com/valpere/bhasha/internal/handler"
	"github.com/valpere/bhasha/internal/store"
)

type translateResponse struct {
	Status         handler.Status `json:"status"`
	TranslatedText string         `json:"translated_text"`
	AudioURL       string         `json:"audio_url,omitempty"`
	Error          string         `json:"error,omitempty"`
	ErrorKind      string         `json:"error_kind,omitempty"`
	DetectedLang   string         `json:"detected_lang,omitempty"`
	Service        string         `json:"service,omitempty"`
	Cached         bool           `json:"cached,omitempty"`
}

func (s *Server) apiTranslate(w http.ResponseWriter, r *http.Request) {
	var req handler.TranslationRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json: " + err.Error()})
		return
	}
	if req.SourceLang == "" {
		req.SourceLang = catalog.DefaultSource
	}
	if req.TargetLang == "" {
		req.TargetLang = catalog.DefaultTarget
	}

	res := s.translator.TranslateWithAudio(r.Context(), req.SourceText, req.SourceLang, req.TargetLang)

	resp := translateResponse{
		Status:         res.Status,
		TranslatedText: res.TranslatedText,
		AudioURL:       audioURL(res.Audio),
		DetectedLang:   res.DetectedLang,
		Service:        res.Service,
		Cached:         res.Cached,
	}
	if res.Failure != nil {
		resp.Error = res.Failure.Message()
		resp.ErrorKind = string(res.Failure.Kind)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) apiLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]catalog.LanguageEntry{
		"source": catalog.All(),
		"target": catalog.Targets(),
	})
}

func (s *Server) apiExamples(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Examples())
}

type memoryResponse struct {
	Stats   *store.CacheStats   `json:"stats"`
	Entries []store.MemoryEntry `json:"entries"`
}

type artifactView struct {
	ID        string    `json:"id"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	AudioURL  string    `json:"audio_url"`
}

func (s *Server) apiMemory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.memory.ListMemory(r.Context())
	if err != nil {
		s.internalError(w, err, "failed to list memory")
		return
	}
	stats, err := s.memory.Stats(r.Context())
	if err != nil {
		s.internalError(w, err, "failed to read memory stats")
		return
	}
	if entries == nil {
		entries = []store.MemoryEntry{}
	}
	writeJSON(w, http.StatusOK, memoryResponse{Stats: stats, Entries: entries})
}

func (s *Server) apiClearMemory(w http.ResponseWriter, r *http.Request) {
	n, err := s.memory.ClearMemory(r.Context())
	if err != nil {
		s.internalError(w, err, "failed to clear memory")
		return
	}
	s.logger.Info().Int64("removed", n).Msg("translation memory cleared")
	writeJSON(w, http.StatusOK, map[string]int64{"removed": n})
}

func (s *Server) apiDeleteMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.memory.DeleteMemory(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		s.internalError(w, err, "failed to delete memory entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiArtifacts(w http.ResponseWriter, r *http.Request) {
	list, err := s.memory.ListArtifacts(r.Context())
	if err != nil {
		s.internalError(w, err, "failed to list artifacts")
		return
	}
	views := make([]artifactView, 0, len(list))
	for i := range list {
		a := &list[i]
		views = append(views, artifactView{ID: a.ID, Size: a.Size, CreatedAt: a.CreatedAt, AudioURL: audioURL(a)})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) internalError(w http.ResponseWriter, err error, msg string) {
	s.logger.Error().Err(err).Msg(msg)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
