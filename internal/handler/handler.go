// Package handler implements the translate-then-speak request flow behind
// every user action.
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/valpere/bhasha/internal/audio"
	"github.com/valpere/bhasha/internal/catalog"
	"github.com/valpere/bhasha/internal/speech"
	"github.com/valpere/bhasha/internal/store"
	"github.com/valpere/bhasha/internal/translator"
)

const DefaultTimeout = 30 * time.Second

// Translator is the translation collaborator. *orchestrator.Orchestrator
// satisfies it.
type Translator interface {
	Translate(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error)
	DetectsSource() bool
}

type ArtifactCreator interface {
	Create(ctx context.Context, fill func(w io.Writer) error) (*audio.Artifact, error)
}

type Memory interface {
	GetCachedTranslation(ctx context.Context, sourceText, sourceLang, targetLang string) (*store.MemoryEntry, bool, error)
	SaveToMemory(ctx context.Context, e store.MemoryEntry) error
}

type Detector interface {
	DetectCode(text string) (string, bool)
}

type Handler struct {
	translator Translator
	synth      speech.Synthesizer
	artifacts  ArtifactCreator

	memory    Memory
	detector  Detector
	timeout   time.Duration
	svcConfig translator.ServiceConfig
	logger    zerolog.Logger
}

type Option func(*Handler)

func WithMemory(m Memory) Option { return func(h *Handler) { h.memory = m } }

func WithDetector(d Detector) Option { return func(h *Handler) { h.detector = d } }

func WithLogger(l zerolog.Logger) Option { return func(h *Handler) { h.logger = l } }

// WithTimeout bounds each external call. Zero disables the bound.
func WithTimeout(d time.Duration) Option { return func(h *Handler) { h.timeout = d } }

func WithServiceConfig(cfg translator.ServiceConfig) Option {
	return func(h *Handler) { h.svcConfig = cfg }
}

func New(tr Translator, synth speech.Synthesizer, artifacts ArtifactCreator, opts ...Option) *Handler {
	h := &Handler{
		translator: tr,
		synth:      synth,
		artifacts:  artifacts,
		timeout:    DefaultTimeout,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// TranslateWithAudio translates text and voices the translation. It never
// returns an error: failures come back as a tagged Result.
func (h *Handler) TranslateWithAudio(ctx context.Context, text, sourceLang, targetLang string) Result {
	return h.Handle(ctx, TranslationRequest{SourceText: text, SourceLang: sourceLang, TargetLang: targetLang})
}

func (h *Handler) Handle(ctx context.Context, req TranslationRequest) Result {
	if strings.TrimSpace(req.SourceText) == "" {
		return Result{Status: StatusEmpty}
	}

	start := time.Now()
	res := h.handle(ctx, req)

	ev := h.logger.Info()
	if res.Failure != nil {
		ev = h.logger.Warn().Err(res.Failure.Err).Str("failure", string(res.Failure.Kind))
	}
	ev.Str("status", string(res.Status)).
		Str("source", req.SourceLang).
		Str("target", req.TargetLang).
		Str("service", res.Service).
		Bool("cached", res.Cached).
		Int("chars", len([]rune(req.SourceText))).
		Dur("latency", time.Since(start)).
		Msg("translation request")

	return res
}

func (h *Handler) handle(ctx context.Context, req TranslationRequest) Result {
	if !catalog.IsSource(req.SourceLang) {
		return translationFailed(fmt.Errorf("unsupported source language %q", req.SourceLang))
	}
	if !catalog.IsTarget(req.TargetLang) {
		return translationFailed(fmt.Errorf("unsupported target language %q", req.TargetLang))
	}

	tr, err := h.translate(ctx, req)
	if err != nil {
		return translationFailed(err)
	}

	res := Result{
		TranslatedText: tr.TranslatedText,
		DetectedLang:   tr.DetectedLang,
		Service:        tr.ServiceName,
		Cached:         tr.cached,
	}

	art, err := h.Speak(ctx, tr.TranslatedText, req.TargetLang)
	if err != nil {
		res.Status = StatusSpeechFailed
		res.Failure = failed(FailureSpeech, err)
		return res
	}

	res.Status = StatusOK
	res.Audio = art
	return res
}

func translationFailed(err error) Result {
	f := failed(FailureTranslation, err)
	return Result{
		Status:         StatusTranslationFailed,
		TranslatedText: f.Message(),
		Failure:        f,
	}
}

type translation struct {
	translator.ServiceResult
	cached bool
}

func (h *Handler) translate(ctx context.Context, req TranslationRequest) (*translation, error) {
	if h.memory != nil {
		entry, found, err := h.memory.GetCachedTranslation(ctx, req.SourceText, req.SourceLang, req.TargetLang)
		if err != nil {
			h.logger.Debug().Err(err).Msg("translation memory lookup failed")
		}
		if found {
			return &translation{
				ServiceResult: translator.ServiceResult{
					ServiceName:    entry.ServiceUsed,
					TranslatedText: entry.TranslatedText,
					DetectedLang:   entry.DetectedLang,
				},
				cached: true,
			}, nil
		}
	}

	sourceLang := req.SourceLang
	var detected string
	if sourceLang == catalog.AutoDetect && !h.translator.DetectsSource() && h.detector != nil {
		code, ok := h.detector.DetectCode(req.SourceText)
		if !ok {
			return nil, fmt.Errorf("could not detect the source language")
		}
		sourceLang, detected = code, code
	}

	callCtx, cancel := h.withTimeout(ctx)
	defer cancel()

	res, err := h.translator.Translate(callCtx, h.svcConfig, translator.TranslateRequest{
		Text:       req.SourceText,
		SourceLang: sourceLang,
		TargetLang: req.TargetLang,
	})
	if err != nil {
		return nil, h.describe(callCtx, "translation", err)
	}
	if res == nil || strings.TrimSpace(res.TranslatedText) == "" {
		return nil, fmt.Errorf("translation service returned no text")
	}
	if res.DetectedLang == "" {
		res.DetectedLang = detected
	}

	if h.memory != nil {
		err := h.memory.SaveToMemory(ctx, store.MemoryEntry{
			SourceText:     req.SourceText,
			SourceLang:     req.SourceLang,
			TargetLang:     req.TargetLang,
			TranslatedText: res.TranslatedText,
			DetectedLang:   res.DetectedLang,
			ServiceUsed:    res.ServiceName,
		})
		if err != nil {
			h.logger.Debug().Err(err).Msg("translation memory save failed")
		}
	}

	return &translation{ServiceResult: *res}, nil
}

// Speak synthesizes text into a new audio artifact owned by the caller.
func (h *Handler) Speak(ctx context.Context, text, lang string) (*audio.Artifact, error) {
	callCtx, cancel := h.withTimeout(ctx)
	defer cancel()

	art, err := h.artifacts.Create(callCtx, func(w io.Writer) error {
		return h.synth.Synthesize(callCtx, text, lang, w)
	})
	if err != nil {
		return nil, h.describe(callCtx, "speech synthesis", err)
	}
	return art, nil
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}

func (h *Handler) describe(ctx context.Context, what string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s", what, h.timeout)
	}
	return err
}
