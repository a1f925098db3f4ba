package speech

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Voice   string
}

type OpenAI struct {
	client *openai.Client
	voice  openai.SpeechVoice
	hasKey bool
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	voice := openai.VoiceAlloy
	if cfg.Voice != "" {
		voice = openai.SpeechVoice(cfg.Voice)
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		voice:  voice,
		hasKey: cfg.APIKey != "",
	}
}

func (o *OpenAI) Name() string {
	return "openai"
}

// Synthesize ignores lang: tts-1 reads the script it is given.
func (o *OpenAI) Synthesize(ctx context.Context, text, lang string, w io.Writer) error {
	if !o.hasKey {
		return fmt.Errorf("OpenAI API key required")
	}

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          o.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Close()

	if _, err := io.Copy(w, resp); err != nil {
		return fmt.Errorf("failed to read audio: %w", err)
	}
	return nil
}
