package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultGoogleWebURL = "https://translate.googleapis.com/translate_a/single"

// GoogleWebService talks to the keyless Google Translate web endpoint used by
// the browser widget. It needs no credentials and detects the source language.
type GoogleWebService struct {
	baseURL string
	client  *http.Client
}

func NewGoogleWebService() *GoogleWebService {
	return &GoogleWebService{
		baseURL: defaultGoogleWebURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *GoogleWebService) Name() string {
	return "googleweb"
}

func (s *GoogleWebService) DetectsSource() bool {
	return true
}

func (s *GoogleWebService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	sourceLang := req.SourceLang
	if isAuto(sourceLang) {
		sourceLang = "auto"
	}

	baseURL := s.baseURL
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", sourceLang)
	params.Set("tl", req.TargetLang)
	params.Set("dt", "t")
	params.Set("q", req.Text)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+params.Encode(), nil)
	if err != nil {
		result.Error = fmt.Sprintf("failed to create request: %v", err)
		return result, err
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		result.Error = fmt.Sprintf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		return result, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	text, detected, err := decodeGoogleWeb(resp.Body)
	if err != nil {
		result.Error = fmt.Sprintf("failed to decode response: %v", err)
		return result, err
	}

	if text == "" {
		result.Error = "no translation returned"
		return result, fmt.Errorf("no translation returned")
	}

	result.TranslatedText = text
	result.DetectedLang = detected

	return result, nil
}

// decodeGoogleWeb extracts the translation from the positional array the
// endpoint returns: [[[translated, original, ...], ...], null, "detected", ...].
func decodeGoogleWeb(r io.Reader) (string, string, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return "", "", err
	}
	if len(raw) == 0 {
		return "", "", fmt.Errorf("empty response")
	}

	var segments [][]any
	if err := json.Unmarshal(raw[0], &segments); err != nil {
		return "", "", fmt.Errorf("unexpected segment layout: %w", err)
	}

	var sb strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if part, ok := seg[0].(string); ok {
			sb.WriteString(part)
		}
	}

	var detected string
	if len(raw) > 2 {
		_ = json.Unmarshal(raw[2], &detected)
	}

	return sb.String(), detected, nil
}

func (s *GoogleWebService) IsAvailable(ctx context.Context) error {
	return nil
}

func (s *GoogleWebService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return nil, nil
}
