package judge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultTemperature = 0.7
)

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Log         *slog.Logger
}

type OpenAIJudge struct {
	client      *openai.Client
	model       string
	temperature float32
	log         *slog.Logger
}

func NewOpenAIJudge(cfg OpenAIConfig) *OpenAIJudge {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &OpenAIJudge{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		log:         log.With("component", "judge", "backend", "openai"),
	}
}

func (j *OpenAIJudge) Compare(ctx context.Context, first, second string) (Comparison, error) {
	resp, err := j.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: j.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: Prompt(first, second)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: j.temperature,
	})
	if err != nil {
		return Comparison{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return Comparison{}, errors.New("chat completion: empty response")
	}

	c, err := Parse(resp.Choices[0].Message.Content)
	if err != nil {
		j.log.Warn("judgment degraded to tie", "error", err)
	}
	return c, nil
}
