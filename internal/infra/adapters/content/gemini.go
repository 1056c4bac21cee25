package content

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
)

var _ Generator = (*GeminiGenerator)(nil)

type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if model == "" || strings.HasPrefix(model, "gpt") {
		model = "gemini-2.0-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiGenerator{client: c, model: model}, nil
}

func (g *GeminiGenerator) Name() string  { return "gemini" }
func (g *GeminiGenerator) Model() string { return g.model }

func (g *GeminiGenerator) Generate(ctx context.Context, system, prompt string, maxTokens int) (string, int, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
	}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", 0, err
	}

	text := ""
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		var sb strings.Builder
		for _, p := range resp.Candidates[0].Content.Parts {
			if p != nil {
				sb.WriteString(p.Text)
			}
		}
		text = sb.String()
	}
	if text == "" {
		return "", 0, errors.New("gemini: empty response")
	}
	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return text, tokens, nil
}
