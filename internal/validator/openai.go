package validator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

const defaultOpenAIModel = "gpt-4o"

var statusCodePattern = regexp.MustCompile(`status code: (\d{3})`)

// openAICompleter goes through langchaingo's OpenAI client, which also
// serves OpenAI-compatible gateways via BaseURL.
type openAICompleter struct {
	llm llms.Model
}

func newOpenAICompleter(opts Options) (*openAICompleter, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("openai API key required")
	}
	model := opts.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	clientOpts := []openai.Option{
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
		openai.WithToken(opts.APIKey),
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, openai.WithHTTPClient(opts.HTTPClient))
	}

	llm, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return &openAICompleter{llm: llm}, nil
}

func (o *openAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	messages := []llms.MessageContent{
		{Role: schema.ChatMessageTypeSystem, Parts: []llms.ContentPart{llms.TextContent{Text: system}}},
		{Role: schema.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextContent{Text: user}}},
	}

	resp, err := o.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(0),
		llms.WithMaxTokens(defaultMaxTokens),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", fmt.Errorf("empty response from API")
	}
	return resp.Choices[0].Content, nil
}

// classifyOpenAIError marks 429, 5xx and errors without a status code
// (network failures) as retryable.
func classifyOpenAIError(err error) error {
	m := statusCodePattern.FindStringSubmatch(err.Error())
	if m == nil {
		return &retryableError{err: err}
	}
	code, _ := strconv.Atoi(m[1])
	if code == 429 || code >= 500 {
		return &retryableError{err: err}
	}
	return err
}
