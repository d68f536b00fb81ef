package ai

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/example/askdrk-backend/internal/core"
)

// contentGenerator is satisfied by *genai.Models.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator implements core.TextGenerator with the Gemini API.
type GeminiGenerator struct {
	models contentGenerator
	logger *zap.Logger
}

// NewGeminiGenerator creates a Gemini API client for apiKey.
func NewGeminiGenerator(ctx context.Context, apiKey string, logger *zap.Logger) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &GeminiGenerator{models: client.Models, logger: logger}, nil
}

func generationConfig(req core.TextGenerationRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: req.MaxOutputTokens,
	}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

// GenerateText runs a single-turn generation and returns the concatenated text parts.
func (g *GeminiGenerator) GenerateText(ctx context.Context, req core.TextGenerationRequest) (string, error) {
	resp, err := g.models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), generationConfig(req))
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini blocked prompt: %s", resp.PromptFeedback.BlockReason)
	}
	text := resp.Text()
	if resp.UsageMetadata != nil {
		g.logger.Debug("Gemini usage",
			zap.String("model", req.Model),
			zap.Int32("promptTokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("candidateTokens", resp.UsageMetadata.CandidatesTokenCount))
	}
	return text, nil
}
