package handler

import (
	"errors"

	"github.com/valpere/bhasha/internal/audio"
)

// WarningMarker prefixes every failure shown to the user.
const WarningMarker = "⚠️ Error: "

type Status string

const (
	StatusEmpty             Status = "empty"
	StatusOK                Status = "ok"
	StatusTranslationFailed Status = "translation_failed"
	StatusSpeechFailed      Status = "speech_failed"
)

type FailureKind string

const (
	FailureTranslation FailureKind = "translation"
	FailureSpeech      FailureKind = "speech"
)

// ErrExternalService matches every Failure via errors.Is.
var ErrExternalService = errors.New("external service failure")

// Failure is an external service failure. Kind records which collaborator
// failed; both kinds are handled the same way.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	return string(f.Kind) + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() []error {
	return []error{ErrExternalService, f.Err}
}

// Message is the user-visible rendering of the failure.
func (f *Failure) Message() string {
	return WarningMarker + f.Err.Error()
}

type TranslationRequest struct {
	SourceText string `json:"text"`
	SourceLang string `json:"source"`
	TargetLang string `json:"target"`
}

type Result struct {
	Status         Status
	TranslatedText string
	// Audio is owned by the caller, who must Release it.
	Audio        *audio.Artifact
	Failure      *Failure
	DetectedLang string
	Service      string
	Cached       bool
}

func (r Result) HasAudio() bool {
	return r.Audio != nil
}

// Release frees the result's audio, if any.
func (r Result) Release() error {
	return r.Audio.Release()
}

func failed(kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}
