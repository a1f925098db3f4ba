// Package speech turns translated text into MP3 audio through an external
// text-to-speech service.
package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

type Synthesizer interface {
	Name() string
	// Synthesize writes MP3 audio for text spoken in lang to w.
	Synthesize(ctx context.Context, text, lang string, w io.Writer) error
}

func readError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if len(body) == 0 {
		return fmt.Errorf("tts returned status %d", resp.StatusCode)
	}
	return fmt.Errorf("tts returned status %d: %s", resp.StatusCode, body)
}
