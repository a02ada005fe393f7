package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicDefaultModel = "claude-3-5-haiku-20241022"

// anthropicProvider implements Provider for the Anthropic Messages API via
// the official SDK. Anthropic has no embeddings endpoint, so Embed returns
// ErrEmbeddingUnsupported; pair it with an embedding-capable provider.
//
// API key: set via config or the ANTHROPIC_API_KEY env var.
type anthropicProvider struct {
	client anthropic.Client
	cfg    Config
}

// NewAnthropic creates a provider for Anthropic.
func NewAnthropic(cfg Config) Provider {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	// The SDK retries 429/5xx itself; keep depth aligned with the compat
	// client's behaviour.
	opts = append(opts, option.WithMaxRetries(maxRetries))

	return &anthropicProvider{
		client: anthropic.NewClient(opts...),
		cfg:    cfg,
	}
}

func (p *anthropicProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}
	if model == "" {
		model = anthropicDefaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	// System messages travel in a dedicated field; the rest alternate as
	// user/assistant turns.
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case "assistant":
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic chat: %w", err)
	}

	var content strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	if content.Len() == 0 {
		return nil, fmt.Errorf("anthropic chat: no text blocks in response")
	}

	in := int(message.Usage.InputTokens)
	out := int(message.Usage.OutputTokens)
	return &ChatResponse{
		Content:          content.String(),
		Model:            string(message.Model),
		FinishReason:     string(message.StopReason),
		PromptTokens:     in,
		CompletionTokens: out,
		TotalTokens:      in + out,
	}, nil
}

func (p *anthropicProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, ErrEmbeddingUnsupported
}
