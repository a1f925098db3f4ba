/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/valpere/bhasha/internal/audio"
	"github.com/valpere/bhasha/internal/detector"
	"github.com/valpere/bhasha/internal/handler"
	"github.com/valpere/bhasha/internal/orchestrator"
	"github.com/valpere/bhasha/internal/speech"
	"github.com/valpere/bhasha/internal/store"
	"github.com/valpere/bhasha/internal/translator"
)

// buildServices constructs the translation services named in cfg.
func buildServices(cfg *Config, log zerolog.Logger) ([]translator.TranslationService, error) {
	var list []translator.TranslationService

	for _, name := range cfg.Translators {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "googleweb":
			list = append(list, translator.NewGoogleWebService())
		case "google":
			list = append(list, translator.NewGoogleService(cfg.GoogleCredentials))
		case "mymemory":
			list = append(list, translator.NewMyMemoryService(cfg.MyMemoryEmail))
		case "llm":
			list = append(list, translator.NewLLMService(translator.LLMConfig{
				APIKey:  cfg.LLMAPIKey,
				BaseURL: cfg.LLMBaseURL,
				Model:   cfg.LLMModel,
			}))
		case "":
		default:
			log.Warn().Str("service", name).Msg("unknown translation service, skipping")
		}
	}

	if len(list) == 0 {
		return nil, fmt.Errorf("no valid translation services configured")
	}
	return list, nil
}

func buildSynthesizer(cfg *Config) (speech.Synthesizer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Speech)) {
	case "", "googletts":
		return speech.NewGoogleTTS(), nil
	case "elevenlabs":
		if cfg.ElevenLabsAPIKey == "" {
			return nil, fmt.Errorf("elevenlabs requires BHASHA_ELEVENLABS_API_KEY")
		}
		return speech.NewElevenLabs(speech.ElevenLabsConfig{
			APIKey:  cfg.ElevenLabsAPIKey,
			VoiceID: cfg.ElevenLabsVoice,
		}), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai requires BHASHA_OPENAI_API_KEY")
		}
		return speech.NewOpenAI(speech.OpenAIConfig{APIKey: cfg.OpenAIAPIKey}), nil
	default:
		return nil, fmt.Errorf("unknown speech service: %s", cfg.Speech)
	}
}

// app holds the collaborators shared by every command.
type app struct {
	cfg     *Config
	store   *store.Store
	audio   *audio.Manager
	handler *handler.Handler
}

func newApp(ctx context.Context, cfg *Config, log zerolog.Logger) (*app, error) {
	services, err := buildServices(cfg, log)
	if err != nil {
		return nil, err
	}
	synth, err := buildSynthesizer(cfg)
	if err != nil {
		return nil, err
	}

	db, err := store.New()
	if err != nil {
		return nil, err
	}

	opts := audio.Options{Dir: cfg.AudioDir, TTL: cfg.AudioTTL, Hook: db}
	if cfg.S3.Enabled() {
		pub, err := audio.NewS3Publisher(ctx, cfg.S3)
		if err != nil {
			db.Close()
			return nil, err
		}
		opts.Publisher = pub
	}

	mgr, err := audio.NewManager(opts)
	if err != nil {
		db.Close()
		return nil, err
	}

	orch := orchestrator.New(services, orchestrator.OrchestratorConfig{Timeout: cfg.Timeout})

	h := handler.New(orch, synth, mgr,
		handler.WithMemory(db),
		handler.WithDetector(detector.New()),
		handler.WithLogger(log),
		handler.WithTimeout(cfg.Timeout),
		handler.WithServiceConfig(translator.ServiceConfig{
			Credentials: cfg.GoogleCredentials,
			ProjectID:   cfg.GoogleProject,
			Timeout:     cfg.Timeout,
		}),
	)

	names := make([]string, 0, len(orch.Services()))
	for _, svc := range orch.Services() {
		names = append(names, svc.Name())
	}
	log.Debug().
		Strs("translators", names).
		Str("speech", synth.Name()).
		Str("audio_dir", mgr.Dir()).
		Bool("s3", opts.Publisher != nil).
		Msg("services configured")

	return &app{cfg: cfg, store: db, audio: mgr, handler: h}, nil
}

// Close removes every artifact still on disk.
func (a *app) Close() error {
	return errors.Join(a.audio.Close(), a.store.Close())
}

// saveArtifact copies a to path and releases it.
func saveArtifact(a *audio.Artifact, path string) error {
	defer a.Release()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	src, err := os.Open(a.Path)
	if err != nil {
		return fmt.Errorf("failed to open audio: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return dst.Close()
}

// inputText joins positional args, or reads the file named by input; "-"
// reads stdin.
func inputText(args []string, input string) (string, error) {
	if input == "" {
		return strings.Join(args, " "), nil
	}
	if len(args) > 0 {
		return "", fmt.Errorf("pass the text either as arguments or with --input, not both")
	}

	var data []byte
	var err error
	if input == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input file: %w", err)
	}
	return string(data), nil
}
