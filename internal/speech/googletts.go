package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/valpere/bhasha/internal/chunker"
)

const (
	defaultGoogleTTSURL = "https://translate.google.com/translate_tts"
	userAgent           = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// GoogleTTS uses the keyless Google Translate speech endpoint. The endpoint
// caps each request at 100 characters, so longer text is chunked and the MP3
// frames are concatenated.
type GoogleTTS struct {
	baseURL  string
	maxRunes int
	client   *http.Client
}

func NewGoogleTTS() *GoogleTTS {
	return &GoogleTTS{
		baseURL:  defaultGoogleTTSURL,
		maxRunes: chunker.DefaultMaxRunes,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *GoogleTTS) Name() string {
	return "googletts"
}

func (g *GoogleTTS) Synthesize(ctx context.Context, text, lang string, w io.Writer) error {
	chunks := chunker.Chunk(text, g.maxRunes)
	if len(chunks) == 0 {
		return fmt.Errorf("no text to speak")
	}

	for i, chunk := range chunks {
		if err := g.fetch(ctx, chunk, lang, i, len(chunks), w); err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return nil
}

func (g *GoogleTTS) fetch(ctx context.Context, chunk, lang string, idx, total int, w io.Writer) error {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("tl", lang)
	params.Set("q", chunk)
	params.Set("idx", strconv.Itoa(idx))
	params.Set("total", strconv.Itoa(total))
	params.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", "https://translate.google.com/")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readError(resp)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to read audio: %w", err)
	}
	return nil
}
