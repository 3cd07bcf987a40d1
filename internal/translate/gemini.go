package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiFallback is the second rung of the translation chain, used only when
// an API key is configured and the free endpoint failed.
type geminiFallback struct {
	client *genai.Client
}

func newGeminiFallback(ctx context.Context, apiKey string) (*geminiFallback, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &geminiFallback{client: client}, nil
}

func (g *geminiFallback) translate(ctx context.Context, text, targetLang string) (string, error) {
	model := g.client.GenerativeModel("gemini-1.5-flash")

	prompt := fmt.Sprintf(`Translate the following text to the language with ISO code %q.
Keep the meaning and tone of the original. Do not translate proper nouns.
Reply with the translation only, no comments or notes.

Text:
%s`, targetLang, clampText(text))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini returned no candidates")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", errors.New("gemini returned empty translation")
	}
	return out, nil
}

func (g *geminiFallback) close() {
	if g.client != nil {
		g.client.Close()
	}
}
