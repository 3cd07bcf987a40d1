package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Public Google Translate endpoint; no key required. The response is a
// nested array whose first element holds the translated segments.
const defaultEndpoint = "https://translate.googleapis.com/translate_a/single"

// The endpoint rejects payloads near 5000 chars, so clamp below that.
const maxSegmentRunes = 4500

func clampText(text string) string {
	runes := []rune(text)
	if len(runes) <= maxSegmentRunes {
		return text
	}
	return string(runes[:maxSegmentRunes])
}

func (s *Service) googleTranslate(ctx context.Context, text, targetLang string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", "auto")
	params.Set("tl", targetLang)
	params.Set("dt", "t")
	params.Set("q", clampText(text))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate backend returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading translate response: %w", err)
	}
	return parseGoogleResponse(body)
}

// parseGoogleResponse walks the nested-array payload and concatenates the
// translated segments. Any deviation from the expected shape is an error;
// the caller falls back to the original text.
func parseGoogleResponse(body []byte) (string, error) {
	var response []interface{}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", err
	}
	if len(response) == 0 {
		return "", errors.New("empty translate response")
	}

	segments, ok := response[0].([]interface{})
	if !ok {
		return "", errors.New("unexpected translate response shape")
	}

	var b strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]interface{})
		if !ok || len(parts) == 0 {
			continue
		}
		if translated, ok := parts[0].(string); ok {
			b.WriteString(translated)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("translate response held no segments")
	}
	if !utf8.ValidString(b.String()) {
		return "", errors.New("translate response is not valid UTF-8")
	}
	return b.String(), nil
}
