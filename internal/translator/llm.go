package translator

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/valpere/bhasha/internal/catalog"
)

// LLMConfig points LLMService at any OpenAI-compatible chat endpoint, e.g.
// https://openrouter.ai/api/v1.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// LLMService translates through a chat completion model.
type LLMService struct {
	client *openai.Client
	model  string
	hasKey bool
}

func NewLLMService(cfg LLMConfig) *LLMService {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &LLMService{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		hasKey: cfg.APIKey != "",
	}
}

func (s *LLMService) Name() string {
	return "llm"
}

// DetectsSource is true: the prompt asks the model to infer the source.
func (s *LLMService) DetectsSource() bool {
	return true
}

func (s *LLMService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	if !s.hasKey {
		result.Error = "LLM API key required"
		return result, fmt.Errorf("LLM API key required")
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: llmSystemPrompt(req.SourceLang, req.TargetLang)},
			{Role: openai.ChatMessageRoleUser, Content: req.Text},
		},
		MaxTokens: 2048,
	})
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result, fmt.Errorf("request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		result.Error = "empty response from API"
		return result, fmt.Errorf("empty response from API")
	}

	text := cleanCompletion(resp.Choices[0].Message.Content)
	if text == "" {
		result.Error = "empty translation"
		return result, fmt.Errorf("empty translation")
	}

	result.TranslatedText = text
	result.Metadata = map[string]string{
		"model":             resp.Model,
		"prompt_tokens":     fmt.Sprintf("%d", resp.Usage.PromptTokens),
		"completion_tokens": fmt.Sprintf("%d", resp.Usage.CompletionTokens),
	}
	return result, nil
}

func (s *LLMService) IsAvailable(ctx context.Context) error {
	if !s.hasKey {
		return fmt.Errorf("LLM API key not configured")
	}
	return nil
}

func (s *LLMService) SupportedLanguages(ctx context.Context) ([]string, error) {
	var codes []string
	for _, l := range catalog.Targets() {
		codes = append(codes, l.Code)
	}
	return codes, nil
}

func llmSystemPrompt(sourceLang, targetLang string) string {
	source := catalog.Name(sourceLang)
	if isAuto(sourceLang) {
		source = "the language it is written in"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a professional translator. Translate the user's text from %s to %s.\n", source, catalog.Name(targetLang))
	sb.WriteString("Only respond with the translation, nothing else. No explanations, no quotes, just the translation.")
	return sb.String()
}

// RE2 has no backreferences, so each tag pair is listed.
var thinkingRe = regexp.MustCompile(`(?is)<think>.*?</think>|<thinking>.*?</thinking>|<reasoning>.*?</reasoning>`)

var preambleRe = regexp.MustCompile(`(?i)^(?:(?:sure|certainly|of course)[,.!]?\s*)?here(?:'s| is)(?: the| your)? (?:translation|translated text)\s*:\s*`)

// cleanCompletion strips reasoning blocks, a chatty preamble and one pair of
// wrapping quotes.
func cleanCompletion(text string) string {
	text = strings.TrimSpace(thinkingRe.ReplaceAllString(text, ""))
	text = preambleRe.ReplaceAllString(text, "")

	r := []rune(text)
	if n := len(r); n >= 2 {
		switch {
		case r[0] == '"' && r[n-1] == '"',
			r[0] == '“' && r[n-1] == '”',
			r[0] == '«' && r[n-1] == '»':
			text = string(r[1 : n-1])
		}
	}
	return strings.TrimSpace(text)
}
