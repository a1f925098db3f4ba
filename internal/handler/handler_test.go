package handler

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/valpere/bhasha/internal/audio"
	"github.com/valpere/bhasha/internal/store"
	"github.com/valpere/bhasha/internal/translator"
)

type mockTranslator struct {
	detects     bool
	translateFn func(ctx context.Context, req translator.TranslateRequest) (*translator.ServiceResult, error)
	calls       int
	lastReq     translator.TranslateRequest
}

func (m *mockTranslator) Translate(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	m.calls++
	m.lastReq = req
	return m.translateFn(ctx, req)
}

func (m *mockTranslator) DetectsSource() bool { return m.detects }

type mockSynth struct {
	synthFn func(ctx context.Context, text, lang string, w io.Writer) error
	calls   int
	text    string
	lang    string
}

func (m *mockSynth) Name() string { return "mock" }

func (m *mockSynth) Synthesize(ctx context.Context, text, lang string, w io.Writer) error {
	m.calls++
	m.text, m.lang = text, lang
	return m.synthFn(ctx, text, lang, w)
}

type mockDetector struct {
	code string
	ok   bool
}

func (m mockDetector) DetectCode(string) (string, bool) { return m.code, m.ok }

func translatesTo(text string) *mockTranslator {
	return &mockTranslator{
		detects: true,
		translateFn: func(ctx context.Context, req translator.TranslateRequest) (*translator.ServiceResult, error) {
			return &translator.ServiceResult{ServiceName: "mock", TranslatedText: text, DetectedLang: "en"}, nil
		},
	}
}

func speaks() *mockSynth {
	return &mockSynth{synthFn: func(ctx context.Context, text, lang string, w io.Writer) error {
		_, err := io.WriteString(w, "ID3-mp3-bytes")
		return err
	}}
}

func newManager(t *testing.T) *audio.Manager {
	t.Helper()
	m, err := audio.NewManager(audio.Options{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestTranslateWithAudio_Success(t *testing.T) {
	tr := translatesTo("नमस्ते, आप कैसे हैं?")
	synth := speaks()
	h := New(tr, synth, newManager(t))

	res := h.TranslateWithAudio(context.Background(), "Hello, how are you?", "auto", "hi")
	defer res.Release()

	if res.Status != StatusOK {
		t.Fatalf("Status = %q, failure = %v", res.Status, res.Failure)
	}
	if res.TranslatedText != "नमस्ते, आप कैसे हैं?" {
		t.Errorf("TranslatedText = %q", res.TranslatedText)
	}
	if !res.HasAudio() {
		t.Fatal("expected audio")
	}
	data, err := os.ReadFile(res.Audio.Path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "ID3-mp3-bytes" {
		t.Errorf("audio = %q", data)
	}
	if synth.text != res.TranslatedText || synth.lang != "hi" {
		t.Errorf("synthesized %q in %q", synth.text, synth.lang)
	}
	if tr.lastReq.SourceLang != "auto" || tr.lastReq.TargetLang != "hi" {
		t.Errorf("request = %+v", tr.lastReq)
	}
	if res.DetectedLang != "en" || res.Service != "mock" {
		t.Errorf("DetectedLang = %q, Service = %q", res.DetectedLang, res.Service)
	}
}

func TestTranslateWithAudio_EmptyInput(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		source string
		target string
	}{
		{"auto to hindi", "", "auto", "hi"},
		{"english to spanish", "", "en", "es"},
		{"spaces", "   ", "en", "es"},
		{"newlines and tabs", "\n\t ", "gu", "en"},
		{"unknown source", "", "xx", "hi"},
		{"auto target", " ", "en", "auto"},
		{"unsupported target", "", "en", "kl"},
		{"both invalid", "\t", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := translatesTo("x")
			synth := speaks()
			h := New(tr, synth, newManager(t))

			res := h.TranslateWithAudio(context.Background(), tt.text, tt.source, tt.target)
			if res.Status != StatusEmpty {
				t.Errorf("Status = %q, want %q", res.Status, StatusEmpty)
			}
			if res.TranslatedText != "" || res.HasAudio() || res.Failure != nil {
				t.Errorf("expected empty result, got %+v", res)
			}
			if tr.calls != 0 || synth.calls != 0 {
				t.Errorf("collaborators called (%d, %d)", tr.calls, synth.calls)
			}
		})
	}
}

func TestTranslateWithAudio_TranslationFailure(t *testing.T) {
	tr := &mockTranslator{
		detects: true,
		translateFn: func(ctx context.Context, req translator.TranslateRequest) (*translator.ServiceResult, error) {
			return nil, errors.New("connection timed out")
		},
	}
	synth := speaks()
	h := New(tr, synth, newManager(t))

	res := h.TranslateWithAudio(context.Background(), "Hello", "en", "fr")

	if res.Status != StatusTranslationFailed {
		t.Fatalf("Status = %q", res.Status)
	}
	if res.TranslatedText != "⚠️ Error: connection timed out" {
		t.Errorf("TranslatedText = %q", res.TranslatedText)
	}
	if res.HasAudio() {
		t.Error("expected no audio")
	}
	if synth.calls != 0 {
		t.Error("speech should not run after a translation failure")
	}
	if !errors.Is(res.Failure, ErrExternalService) {
		t.Error("failure should match ErrExternalService")
	}
	if res.Failure.Kind != FailureTranslation {
		t.Errorf("Kind = %q", res.Failure.Kind)
	}
}

func TestTranslateWithAudio_SpeechFailureKeepsTranslation(t *testing.T) {
	m := newManager(t)
	synth := &mockSynth{synthFn: func(ctx context.Context, text, lang string, w io.Writer) error {
		return errors.New("language not supported")
	}}
	h := New(translatesTo("Bonjour"), synth, m)

	res := h.TranslateWithAudio(context.Background(), "Hello", "en", "fr")

	if res.Status != StatusSpeechFailed {
		t.Fatalf("Status = %q", res.Status)
	}
	if res.TranslatedText != "Bonjour" {
		t.Errorf("TranslatedText = %q", res.TranslatedText)
	}
	if res.HasAudio() {
		t.Error("expected no audio")
	}
	if got := res.Failure.Message(); got != "⚠️ Error: language not supported" {
		t.Errorf("Message = %q", got)
	}
	if !errors.Is(res.Failure, ErrExternalService) {
		t.Error("failure should match ErrExternalService")
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d, want no leftover artifacts", m.Len())
	}
	entries, _ := os.ReadDir(m.Dir())
	if len(entries) != 0 {
		t.Errorf("audio dir has %d leftover files", len(entries))
	}
}

func TestTranslateWithAudio_EmptyAudioIsFailure(t *testing.T) {
	synth := &mockSynth{synthFn: func(ctx context.Context, text, lang string, w io.Writer) error {
		return nil
	}}
	h := New(translatesTo("Bonjour"), synth, newManager(t))

	res := h.TranslateWithAudio(context.Background(), "Hello", "en", "fr")
	if res.Status != StatusSpeechFailed {
		t.Fatalf("Status = %q", res.Status)
	}
	if !errors.Is(res.Failure, audio.ErrEmpty) {
		t.Errorf("failure = %v, want ErrEmpty", res.Failure)
	}
}

func TestTranslateWithAudio_UnsupportedLanguage(t *testing.T) {
	tests := []struct {
		name   string
		source string
		target string
		want   string
	}{
		{"unknown source", "xx", "hi", "unsupported source language"},
		{"auto target", "en", "auto", "unsupported target language"},
		{"unknown target", "en", "kl", "unsupported target language"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := translatesTo("x")
			h := New(tr, speaks(), newManager(t))

			res := h.TranslateWithAudio(context.Background(), "Hello", tt.source, tt.target)
			if res.Status != StatusTranslationFailed {
				t.Fatalf("Status = %q", res.Status)
			}
			if !strings.HasPrefix(res.TranslatedText, WarningMarker) || !strings.Contains(res.TranslatedText, tt.want) {
				t.Errorf("TranslatedText = %q", res.TranslatedText)
			}
			if tr.calls != 0 {
				t.Error("translator should not be called")
			}
		})
	}
}

func TestTranslateWithAudio_Timeout(t *testing.T) {
	tr := &mockTranslator{
		detects: true,
		translateFn: func(ctx context.Context, req translator.TranslateRequest) (*translator.ServiceResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	h := New(tr, speaks(), newManager(t), WithTimeout(20*time.Millisecond))

	res := h.TranslateWithAudio(context.Background(), "Hello", "en", "fr")
	if res.Status != StatusTranslationFailed {
		t.Fatalf("Status = %q", res.Status)
	}
	if !strings.Contains(res.TranslatedText, "timed out after") {
		t.Errorf("TranslatedText = %q", res.TranslatedText)
	}
}

func TestTranslateWithAudio_DetectsSourceWhenServiceCannot(t *testing.T) {
	tr := translatesTo("Hello")
	tr.detects = false
	tr.translateFn = func(ctx context.Context, req translator.TranslateRequest) (*translator.ServiceResult, error) {
		return &translator.ServiceResult{ServiceName: "mymemory", TranslatedText: "Hello"}, nil
	}
	h := New(tr, speaks(), newManager(t), WithDetector(mockDetector{code: "fr", ok: true}))

	res := h.TranslateWithAudio(context.Background(), "Bonjour tout le monde", "auto", "en")
	defer res.Release()

	if res.Status != StatusOK {
		t.Fatalf("Status = %q, failure = %v", res.Status, res.Failure)
	}
	if tr.lastReq.SourceLang != "fr" {
		t.Errorf("SourceLang = %q, want fr", tr.lastReq.SourceLang)
	}
	if res.DetectedLang != "fr" {
		t.Errorf("DetectedLang = %q", res.DetectedLang)
	}
}

func TestTranslateWithAudio_DetectionFails(t *testing.T) {
	tr := translatesTo("x")
	tr.detects = false
	h := New(tr, speaks(), newManager(t), WithDetector(mockDetector{}))

	res := h.TranslateWithAudio(context.Background(), "???", "auto", "en")
	if res.Status != StatusTranslationFailed {
		t.Fatalf("Status = %q", res.Status)
	}
	if tr.calls != 0 {
		t.Error("translator should not be called")
	}
}

func TestTranslateWithAudio_Memory(t *testing.T) {
	s, err := store.New()
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	defer s.Close()

	tr := translatesTo("Hola")
	synth := speaks()
	h := New(tr, synth, newManager(t), WithMemory(s))
	ctx := context.Background()

	first := h.TranslateWithAudio(ctx, "Hello", "en", "es")
	defer first.Release()
	second := h.TranslateWithAudio(ctx, "Hello", "en", "es")
	defer second.Release()

	if first.Cached || !second.Cached {
		t.Errorf("Cached = %v, %v", first.Cached, second.Cached)
	}
	if second.TranslatedText != "Hola" || second.Status != StatusOK {
		t.Errorf("second = %+v", second)
	}
	if tr.calls != 1 {
		t.Errorf("translator calls = %d, want 1", tr.calls)
	}
	if synth.calls != 2 {
		t.Errorf("synth calls = %d, want 2", synth.calls)
	}
	if first.Audio.ID == second.Audio.ID {
		t.Error("each request should get its own artifact")
	}
}

func TestTranslateWithAudio_FailuresAreNotCached(t *testing.T) {
	s, err := store.New()
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	defer s.Close()

	fail := true
	tr := &mockTranslator{
		detects: true,
		translateFn: func(ctx context.Context, req translator.TranslateRequest) (*translator.ServiceResult, error) {
			if fail {
				return nil, errors.New("boom")
			}
			return &translator.ServiceResult{ServiceName: "mock", TranslatedText: "Hola"}, nil
		},
	}
	h := New(tr, speaks(), newManager(t), WithMemory(s))

	h.TranslateWithAudio(context.Background(), "Hello", "en", "es")
	fail = false
	res := h.TranslateWithAudio(context.Background(), "Hello", "en", "es")
	defer res.Release()

	if res.Status != StatusOK || res.Cached {
		t.Errorf("res = %+v", res)
	}
	if tr.calls != 2 {
		t.Errorf("calls = %d", tr.calls)
	}
}

func TestSpeak(t *testing.T) {
	synth := speaks()
	h := New(translatesTo("x"), synth, newManager(t))

	art, err := h.Speak(context.Background(), "Guten Tag", "de")
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	defer art.Release()

	if art.Size != int64(len("ID3-mp3-bytes")) {
		t.Errorf("Size = %d", art.Size)
	}
	if synth.lang != "de" {
		t.Errorf("lang = %q", synth.lang)
	}
}
