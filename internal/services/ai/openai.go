package ai

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/benvon/project-assistant/internal/request"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second
	// DefaultMaxTokens caps the length of a chat answer
	DefaultMaxTokens = 600

	noProjectContext = "No specific project context available."
)

const systemPrompt = `You are an AI project management assistant with direct access to project data. You should provide specific information about projects when available, not just instructions on how to find it.

When project information is available in the context, use it to give specific answers about the project's details, tasks, and status. Don't tell users to navigate the UI - you have direct access to the information. Be concise.`

// OpenAIProvider implements the AIProvider interface using OpenAI's API
type OpenAIProvider struct {
	client    openai.Client
	model     string
	maxTokens int64
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		maxTokens: DefaultMaxTokens,
		logger:    logger,
		debugMode: debugMode,
	}
}

// Chat sends the conversation to the chat completions API with the project context in the system prompt
func (p *OpenAIProvider) Chat(ctx context.Context, messages []ChatMessage, projectContext string) (*ChatResponse, error) {
	requestID := request.RequestID(ctx)
	var owner string
	if user := request.User(ctx); user != nil {
		owner = HashOwner(user.Email)
	}

	openAIMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	openAIMessages = append(openAIMessages, openai.SystemMessage(buildSystemPrompt(projectContext)))
	for _, msg := range messages {
		switch msg.Role {
		case "assistant":
			openAIMessages = append(openAIMessages, openai.AssistantMessage(msg.Content))
		default:
			openAIMessages = append(openAIMessages, openai.UserMessage(msg.Content))
		}
	}

	if p.debugMode {
		previews := make([]string, 0, len(messages))
		for _, msg := range messages {
			previews = append(previews, SanitizePrompt(msg.Content, false))
		}
		p.logger.Debug("llm_api_request",
			zap.String("operation", "chat"),
			zap.String("model", p.model),
			zap.Int("message_count", len(openAIMessages)),
			zap.Strings("message_previews", previews),
			zap.Bool("has_project_context", projectContext != ""),
			zap.String("owner_hash", owner),
			zap.String("request_id", requestID),
		)
	}

	req := openai.ChatCompletionNewParams{
		Model:     shared.ChatModel(p.model),
		Messages:  openAIMessages,
		MaxTokens: openai.Int(p.maxTokens),
		// Temperature omitted: some models only accept their default value
	}

	startTime := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(startTime)

	if err != nil {
		if p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "chat"),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to chat: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to chat: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	content := resp.Choices[0].Message.Content

	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "chat"),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return &ChatResponse{Message: content}, nil
}

func buildSystemPrompt(projectContext string) string {
	if projectContext == "" {
		projectContext = noProjectContext
	}
	return systemPrompt + "\n\nCurrent Project Context:\n" + projectContext
}

// RegisterOpenAI registers the OpenAI provider with the registry
func RegisterOpenAI(registry *ProviderRegistry, logger *zap.Logger, debugMode bool) {
	registry.Register("openai", func(config map[string]string) (AIProvider, error) {
		apiKey, ok := config["api_key"]
		if !ok || apiKey == "" {
			return nil, fmt.Errorf("openai api_key is required")
		}

		provider := NewOpenAIProviderWithLogger(apiKey, config["base_url"], config["model"], logger, debugMode)
		if raw := config["max_tokens"]; raw != "" {
			maxTokens, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || maxTokens <= 0 {
				return nil, fmt.Errorf("openai max_tokens must be a positive integer, got %q", raw)
			}
			provider.maxTokens = maxTokens
		}
		return provider, nil
	})
}
