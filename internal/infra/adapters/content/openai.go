package content

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

var _ Generator = (*OpenAIGenerator)(nil)

// OpenAIGenerator talks to the Chat Completions API or any compatible gateway.
type OpenAIGenerator struct {
	client openai.Client
	model  string
}

func NewOpenAIGenerator(apiKey, baseURL, model string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
	}
	return &OpenAIGenerator{client: openai.NewClient(opts...), model: model}, nil
}

func (o *OpenAIGenerator) Name() string  { return "openai" }
func (o *OpenAIGenerator) Model() string { return o.model }

func (o *OpenAIGenerator) Generate(ctx context.Context, system, prompt string, maxTokens int) (string, int, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(o.model),
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(maxTokens))
	}
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", 0, err
	}
	for _, c := range resp.Choices {
		if c.Message.Content != "" {
			return c.Message.Content, int(resp.Usage.CompletionTokens), nil
		}
	}
	return "", 0, errors.New("no choice content")
}
