package web

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/valpere/bhasha/internal/catalog"
	"github.com/valpere/bhasha/internal/handler"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// State is everything the page shows.
type State struct {
	InputText  string
	OutputText string
	AudioURL   string
	Source     string
	Target     string
	Error      string
}

func DefaultState() State {
	return State{Source: catalog.DefaultSource, Target: catalog.DefaultTarget}
}

// Clear empties the input, the output and the audio. The language
// selections are kept.
func (s State) Clear() State {
	return State{Source: s.Source, Target: s.Target}
}

// Apply copies a handler result into the output controls.
func (s State) Apply(res handler.Result) State {
	s.OutputText = res.TranslatedText
	s.AudioURL = audioURL(res.Audio)
	s.Error = ""
	if res.Status == handler.StatusSpeechFailed && res.Failure != nil {
		s.Error = res.Failure.Message()
	}
	return s
}

type pageData struct {
	State
	Sources  []catalog.LanguageEntry
	Targets  []catalog.LanguageEntry
	Examples []catalog.Example
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	st := DefaultState()
	if raw := r.URL.Query().Get("example"); raw != "" {
		if i, err := strconv.Atoi(raw); err == nil {
			if ex, ok := catalog.ExampleAt(i); ok {
				st.InputText = ex.Text
				st.Source = ex.SourceLang
				st.Target = ex.TargetLang
			}
		}
	}
	s.render(w, http.StatusOK, st)
}

// inputTooLarge is shown instead of a translation when the posted text
// exceeds maxBodyBytes.
const inputTooLarge = handler.WarningMarker + "input too large"

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	form, tooLarge, err := readForm(r)
	if err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	st := State{
		InputText: form.Get("text"),
		Source:    formValue(form, "source", catalog.DefaultSource),
		Target:    formValue(form, "target", catalog.DefaultTarget),
	}

	// Buttons also carry the action in the query string so it survives a
	// truncated body.
	action := form.Get("action")
	if action == "" {
		action = r.URL.Query().Get("action")
	}

	switch action {
	case "clear":
		s.render(w, http.StatusOK, st.Clear())
	case "translate", "":
		s.limited(func(w http.ResponseWriter, r *http.Request) {
			if tooLarge {
				st.InputText = ""
				st.OutputText = inputTooLarge
			} else {
				res := s.translator.TranslateWithAudio(r.Context(), st.InputText, st.Source, st.Target)
				st = st.Apply(res)
			}
			s.render(w, http.StatusOK, st)
		}).ServeHTTP(w, r)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
	}
}

// readForm parses at most maxBodyBytes of a urlencoded body. When the body is
// longer, the pairs that arrived complete are kept and tooLarge is set.
func readForm(r *http.Request) (form url.Values, tooLarge bool, err error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, false, err
	}

	raw := string(body)
	if len(raw) > maxBodyBytes {
		tooLarge = true
		raw = raw[:maxBodyBytes]
		if i := strings.LastIndexByte(raw, '&'); i >= 0 {
			raw = raw[:i]
		} else {
			raw = ""
		}
	}

	form, err = url.ParseQuery(raw)
	if err != nil && !tooLarge {
		return nil, false, err
	}
	return form, tooLarge, nil
}

func formValue(form url.Values, key, fallback string) string {
	if v := form.Get(key); v != "" {
		return v
	}
	return fallback
}

func (s *Server) render(w http.ResponseWriter, status int, st State) {
	data := pageData{
		State:    st,
		Sources:  catalog.All(),
		Targets:  catalog.Targets(),
		Examples: catalog.Examples(),
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		s.logger.Error().Err(err).Msg("failed to render page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
