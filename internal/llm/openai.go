package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// openaiModels maps friendly names to OpenAI model IDs.
var openaiModels = map[string]string{
	"gpt-4o":      "gpt-4o",
	"gpt-4o-mini": "gpt-4o-mini",
}

// schemaMode selects how a JSON schema is conveyed to an OpenAI-compatible
// endpoint.
type schemaMode int

const (
	// schemaStrict uses response_format json_schema with strict decoding.
	schemaStrict schemaMode = iota
	// schemaInPrompt uses response_format json_object and describes the
	// schema in the system prompt, for APIs without json_schema support.
	schemaInPrompt
)

// OpenAIProvider implements Provider using the OpenAI SDK.
// It also serves DeepSeek, OpenRouter and other compatible APIs via BaseURL.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	mode   schemaMode
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	p, err := newOpenAIProviderRaw(cfg, schemaStrict)
	if err != nil {
		return nil, err
	}
	p.model = resolveModel(cfg.Model, openaiModels)
	return p, nil
}

// newOpenAIProviderRaw builds the client without friendly-name mapping.
func newOpenAIProviderRaw(cfg OpenAIConfig, mode schemaMode) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
		mode:   mode,
	}, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: float32(req.Temperature),
	}
	// Compatible APIs still expect the older max_tokens field.
	if p.mode == schemaInPrompt {
		chatReq.MaxTokens = req.MaxTokens
	} else {
		chatReq.MaxCompletionTokens = req.MaxTokens
	}

	system := req.System
	if req.Schema != nil {
		schemaBytes, err := json.Marshal(req.Schema.Definition)
		if err != nil {
			return nil, fmt.Errorf("marshal schema: %w", err)
		}

		switch p.mode {
		case schemaInPrompt:
			chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			}
			system = appendSchemaInstructions(system, req.Schema, schemaBytes)
		default:
			chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
				JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
					Name:        req.Schema.Name,
					Description: req.Schema.Description,
					Schema:      json.RawMessage(schemaBytes),
					Strict:      true,
				},
			}
		}
	}
	chatReq.Messages = buildOpenAIMessages(system, req.Messages)

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, mapOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &ErrInvalidResponse{
			Err: fmt.Errorf("no choices in chat completion response"),
		}
	}

	usage := Usage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}
	return complete(req, resp.Choices[0].Message.Content, usage, resp.Model,
		mapOpenAIStopReason(resp.Choices[0].FinishReason))
}

func (p *OpenAIProvider) ModelID() string {
	return p.model
}

func appendSchemaInstructions(system string, schema *Schema, schemaBytes []byte) string {
	instr := fmt.Sprintf("Respond only with a JSON object that conforms to this JSON schema (%s):\n%s",
		schema.Name, schemaBytes)
	if schema.Description != "" {
		instr = schema.Description + "\n" + instr
	}
	if system == "" {
		return instr
	}
	return system + "\n\n" + instr
}

func buildOpenAIMessages(system string, msgs []Message) []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage

	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for _, m := range msgs {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	return messages
}

func mapOpenAIStopReason(reason openai.FinishReason) string {
	if reason == openai.FinishReasonLength {
		return "max_tokens"
	}
	return "end"
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return &ErrRateLimit{Err: err}
		case apiErr.HTTPStatusCode >= 500:
			return &ErrProviderUnavailable{Err: err}
		}
	}
	return &ErrProviderUnavailable{Err: err}
}
