package core

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/example/askdrk-backend/internal/config"
	"github.com/example/askdrk-backend/internal/models"
)

const (
	maxPromptChars         = 16000
	defaultTemperature     = 0.7
	defaultMaxOutputTokens = 1024
	maxOutputTokensLimit   = 8192
)

// aiService implements AIService.
type aiService struct {
	generator TextGenerator
	cfg       *config.Config
	logger    *zap.Logger
}

// NewAIService creates a new aiService. generator may be nil when no API key is configured.
func NewAIService(generator TextGenerator, cfg *config.Config, logger *zap.Logger) AIService {
	return &aiService{generator: generator, cfg: cfg, logger: logger}
}

// buildTextRequest validates req and fills defaults.
func buildTextRequest(req models.GenerateTextRequest, model string) (TextGenerationRequest, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return TextGenerationRequest{}, fmt.Errorf("%w: prompt is required", ErrInvalidArgument)
	}
	if utf8.RuneCountInString(prompt) > maxPromptChars {
		return TextGenerationRequest{}, fmt.Errorf("%w: prompt exceeds %d characters", ErrInvalidArgument, maxPromptChars)
	}

	temperature := defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
		if temperature < 0 || temperature > 2 {
			return TextGenerationRequest{}, fmt.Errorf("%w: temperature must be within [0, 2]", ErrInvalidArgument)
		}
	}

	maxTokens := defaultMaxOutputTokens
	if req.MaxOutputTokens != nil {
		maxTokens = *req.MaxOutputTokens
		if maxTokens < 1 || maxTokens > maxOutputTokensLimit {
			return TextGenerationRequest{}, fmt.Errorf("%w: maxOutputTokens must be within [1, %d]", ErrInvalidArgument, maxOutputTokensLimit)
		}
	}

	var asJSON bool
	switch strings.ToLower(req.ResponseFormat) {
	case "", "text":
	case "json":
		asJSON = true
	default:
		return TextGenerationRequest{}, fmt.Errorf("%w: responseFormat must be \"text\" or \"json\"", ErrInvalidArgument)
	}

	return TextGenerationRequest{
		Model:             model,
		Prompt:            prompt,
		SystemInstruction: strings.TrimSpace(req.SystemInstruction),
		Temperature:       float32(temperature),
		MaxOutputTokens:   int32(maxTokens),
		JSON:              asJSON,
	}, nil
}

// Generate validates the request and forwards it to the configured model.
func (s *aiService) Generate(ctx context.Context, req models.GenerateTextRequest) (*GenerateTextResult, error) {
	if s.cfg.GeminiAPIKey == "" || s.generator == nil {
		return nil, fmt.Errorf("%w: generative AI key is not configured", ErrInvalidConfig)
	}
	genReq, err := buildTextRequest(req, s.cfg.GeminiModel)
	if err != nil {
		return nil, err
	}

	text, err := s.generator.GenerateText(ctx, genReq)
	if err != nil {
		s.logger.Error("Text generation failed", zap.String("model", genReq.Model), zap.Error(err))
		return nil, fmt.Errorf("%w: generate text: %v", ErrUpstream, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: model returned no text", ErrUpstream)
	}
	return &GenerateTextResult{Text: text, Model: genReq.Model}, nil
}
