package translator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGoogleWebService_Translate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("client") != "gtx" || q.Get("dt") != "t" {
			t.Errorf("unexpected query: %v", q)
		}
		if q.Get("sl") != "auto" || q.Get("tl") != "hi" {
			t.Errorf("unexpected language pair: sl=%q tl=%q", q.Get("sl"), q.Get("tl"))
		}
		if q.Get("q") != "Hello, how are you?" {
			t.Errorf("unexpected text: %q", q.Get("q"))
		}
		w.Write([]byte(`[[["नमस्ते, ","Hello, ",null,null,10],["आप कैसे हैं?","how are you?",null,null,10]],null,"en",null,null,null,1]`))
	}))
	defer server.Close()

	svc := &GoogleWebService{baseURL: server.URL, client: server.Client()}

	result, err := svc.Translate(context.Background(), ServiceConfig{}, TranslateRequest{
		Text:       "Hello, how are you?",
		SourceLang: "auto",
		TargetLang: "hi",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TranslatedText != "नमस्ते, आप कैसे हैं?" {
		t.Errorf("unexpected translation %q", result.TranslatedText)
	}
	if result.DetectedLang != "en" {
		t.Errorf("expected detected 'en', got %q", result.DetectedLang)
	}
	if result.ServiceName != "googleweb" {
		t.Errorf("expected service name 'googleweb', got %q", result.ServiceName)
	}
}

func TestGoogleWebService_Translate_EmptySourceMeansAuto(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sl") != "auto" {
			t.Errorf("expected sl=auto, got %q", r.URL.Query().Get("sl"))
		}
		w.Write([]byte(`[[["Hola","Hello",null,null,10]],null,"en"]`))
	}))
	defer server.Close()

	svc := &GoogleWebService{baseURL: server.URL, client: server.Client()}

	if _, err := svc.Translate(context.Background(), ServiceConfig{}, TranslateRequest{Text: "Hello", TargetLang: "es"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGoogleWebService_Translate_ConfigBaseURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[["Bonjour","Hello",null,null,10]],null,"en"]`))
	}))
	defer server.Close()

	svc := NewGoogleWebService()

	result, err := svc.Translate(context.Background(), ServiceConfig{BaseURL: server.URL}, TranslateRequest{
		Text: "Hello", SourceLang: "en", TargetLang: "fr",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TranslatedText != "Bonjour" {
		t.Errorf("expected 'Bonjour', got %q", result.TranslatedText)
	}
}

func TestGoogleWebService_Translate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("rate limited"))
	}))
	defer server.Close()

	svc := &GoogleWebService{baseURL: server.URL, client: server.Client()}

	result, err := svc.Translate(context.Background(), ServiceConfig{}, TranslateRequest{
		Text: "Hello", SourceLang: "en", TargetLang: "fr",
	})
	if err == nil {
		t.Error("expected error for non-OK status")
	}
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result.Error == "" {
		t.Error("expected error message in result")
	}
}

func TestGoogleWebService_Translate_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer server.Close()

	svc := &GoogleWebService{baseURL: server.URL, client: server.Client()}

	_, err := svc.Translate(context.Background(), ServiceConfig{}, TranslateRequest{
		Text: "Hello", SourceLang: "en", TargetLang: "fr",
	})
	if err == nil {
		t.Error("expected decode error")
	}
}

func TestGoogleWebService_Translate_EmptyTranslation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[],null,"en"]`))
	}))
	defer server.Close()

	svc := &GoogleWebService{baseURL: server.URL, client: server.Client()}

	result, err := svc.Translate(context.Background(), ServiceConfig{}, TranslateRequest{
		Text: "Hello", SourceLang: "en", TargetLang: "fr",
	})
	if err == nil {
		t.Error("expected error for empty translation")
	}
	if result.Error != "no translation returned" {
		t.Errorf("unexpected error message %q", result.Error)
	}
}

func TestMyMemoryService_Translate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("langpair") != "en|es" {
			t.Errorf("unexpected langpair %q", q.Get("langpair"))
		}
		if q.Get("de") != "test@example.com" {
			t.Errorf("expected email parameter, got %q", q.Get("de"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"responseData":   map[string]any{"translatedText": "Gracias por tu ayuda", "match": 0.98},
			"responseStatus": 200,
		})
	}))
	defer server.Close()

	svc := NewMyMemoryService("test@example.com")
	svc.baseURL = server.URL
	svc.client = server.Client()

	result, err := svc.Translate(context.Background(), ServiceConfig{}, TranslateRequest{
		Text: "Thank you for your help", SourceLang: "en", TargetLang: "es",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TranslatedText != "Gracias por tu ayuda" {
		t.Errorf("unexpected translation %q", result.TranslatedText)
	}
}

func TestMyMemoryService_Translate_QuotaError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"responseData":    map[string]any{"translatedText": ""},
			"responseStatus":  "429",
			"responseDetails": "MYMEMORY WARNING: YOU USED ALL AVAILABLE FREE TRANSLATIONS FOR TODAY",
		})
	}))
	defer server.Close()

	svc := NewMyMemoryService("")
	svc.baseURL = server.URL
	svc.client = server.Client()

	result, err := svc.Translate(context.Background(), ServiceConfig{}, TranslateRequest{
		Text: "Hello", SourceLang: "en", TargetLang: "es",
	})
	if err == nil {
		t.Fatal("expected API error")
	}
	if result.Error == "" {
		t.Error("expected error message in result")
	}
}

func TestMyMemoryService_Translate_RejectsAuto(t *testing.T) {
	svc := NewMyMemoryService("")

	result, err := svc.Translate(context.Background(), ServiceConfig{}, TranslateRequest{
		Text: "Hello", SourceLang: "auto", TargetLang: "es",
	})
	if err == nil {
		t.Error("expected error for auto source")
	}
	if result == nil || result.Error == "" {
		t.Error("expected error message in result")
	}
}

func TestMyMemoryService_Name(t *testing.T) {
	svc := NewMyMemoryService("")

	if svc.Name() != "mymemory" {
		t.Errorf("expected 'mymemory', got %q", svc.Name())
	}
	if DetectsSource(svc) {
		t.Error("mymemory must not claim source detection")
	}
}

func TestMyMemoryService_SupportedLanguages(t *testing.T) {
	svc := NewMyMemoryService("")

	langs, err := svc.SupportedLanguages(context.Background())
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(langs) == 0 {
		t.Error("expected non-empty language list")
	}
}

func TestDetectsSource(t *testing.T) {
	if !DetectsSource(NewGoogleWebService()) {
		t.Error("googleweb should detect source")
	}
	if !DetectsSource(NewGoogleService("")) {
		t.Error("google should detect source")
	}
}

func TestGoogleService_Translate_InvalidTarget(t *testing.T) {
	svc := NewGoogleService("")

	result, err := svc.Translate(context.Background(), ServiceConfig{}, TranslateRequest{
		Text: "Hello", SourceLang: "en", TargetLang: "not a tag!",
	})
	if err == nil {
		t.Error("expected error for invalid target language")
	}
	if result.Error == "" {
		t.Error("expected error message in result")
	}
	if result.ServiceName != "google" {
		t.Errorf("expected service name 'google', got %q", result.ServiceName)
	}
}
