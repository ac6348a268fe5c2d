package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog"

	cfgmodel "productivity_agent/src/model"
)

const (
	systemPrompt = "You are a Productivity AI Agent helping with task management."
	userPrompt   = "Previous Context:\n{context}\n\nUser Request: {query}\n\nProvide a helpful, concise response."
)

// RemoteResponder sends requests through a template → chat model chain
type RemoteResponder struct {
	chain   compose.Runnable[map[string]any, *schema.Message]
	timeout time.Duration
}

// NewRemoteResponder compiles the prompt chain around chatModel.
// A non-positive timeout leaves the call bounded only by the caller's context.
func NewRemoteResponder(ctx context.Context, chatModel model.BaseChatModel, timeout time.Duration) (*RemoteResponder, error) {
	chain, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(newPromptTemplate()).
		AppendChatModel(chatModel).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating Eino chain: %w", err)
	}

	return &RemoteResponder{
		chain:   chain,
		timeout: timeout,
	}, nil
}

func newPromptTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	)
}

// Respond invokes the chain. An empty model reply is replaced with "Processed: <input>".
func (r *RemoteResponder) Respond(ctx context.Context, contextBlock, userInput string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	out, err := r.chain.Invoke(ctx, map[string]any{
		"context": contextBlock,
		"query":   userInput,
	})
	if err != nil {
		return "", err
	}

	if out == nil || out.Content == "" {
		return "Processed: " + userInput, nil
	}
	return out.Content, nil
}

// Available always reports true
func (r *RemoteResponder) Available() bool {
	return true
}

// NullResponder answers without a model
type NullResponder struct{}

// Respond echoes the input
func (NullResponder) Respond(_ context.Context, _ string, userInput string) (string, error) {
	return "AI model not available. Received: " + userInput, nil
}

// Available always reports false
func (NullResponder) Available() bool {
	return false
}

// NewResponder builds the responder for cfg. Missing credentials or a model that fails to
// build degrade to a NullResponder so the agent keeps serving requests.
func NewResponder(ctx context.Context, cfg cfgmodel.AgentConfig, log zerolog.Logger) Responder {
	provider := strings.ToLower(cfg.Provider)
	if cfg.APIKey == "" && provider != "ollama" {
		log.Warn().Str("provider", provider).Msg("No API key configured, AI model disabled")
		return NullResponder{}
	}

	chatModel, err := newChatModel(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Str("provider", provider).Msg("Failed to create chat model")
		return NullResponder{}
	}

	responder, err := NewRemoteResponder(ctx, chatModel, cfg.Timeout)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build responder chain")
		return NullResponder{}
	}

	log.Info().
		Str("provider", provider).
		Str("model", cfg.Model).
		Dur("timeout", cfg.Timeout).
		Msg("AI model configured")
	return responder
}

func newChatModel(ctx context.Context, cfg cfgmodel.AgentConfig) (model.BaseChatModel, error) {
	maxTokens := cfg.MaxTokens
	temperature := float32(cfg.Temperature)

	switch strings.ToLower(cfg.Provider) {
	case "openai":
		chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
			Timeout:     cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating openai chat model: %w", err)
		}
		return chatModel, nil

	case "deepseek":
		chatModel, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			Timeout:     cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating deepseek chat model: %w", err)
		}
		return chatModel, nil

	case "ark":
		timeout := cfg.Timeout
		chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
			Timeout:     &timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating ark chat model: %w", err)
		}
		return chatModel, nil

	case "ollama":
		chatModel, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
			Options: &api.Options{
				Temperature: temperature,
				NumPredict:  maxTokens,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("error creating ollama chat model: %w", err)
		}
		return chatModel, nil

	default:
		return nil, fmt.Errorf("unsupported model provider: %q", cfg.Provider)
	}
}
