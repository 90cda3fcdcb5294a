package judge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Log         *slog.Logger
}

type GeminiJudge struct {
	client      *genai.Client
	model       string
	temperature float32
	log         *slog.Logger
}

func NewGeminiJudge(ctx context.Context, cfg GeminiConfig) (*GeminiJudge, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiJudge{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		log:         log.With("component", "judge", "backend", "gemini"),
	}, nil
}

func (j *GeminiJudge) Compare(ctx context.Context, first, second string) (Comparison, error) {
	resp, err := j.client.Models.GenerateContent(ctx, j.model, genai.Text(Prompt(first, second)), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr(j.temperature),
	})
	if err != nil {
		return Comparison{}, fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return Comparison{}, errors.New("generate content: empty response")
	}

	c, err := Parse(text)
	if err != nil {
		j.log.Warn("judgment degraded to tie", "error", err)
	}
	return c, nil
}
