package ai

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/example/askdrk-backend/internal/core"
)

type stubModels struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (s *stubModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.model, s.contents, s.config = model, contents, config
	return s.resp, s.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(text, genai.RoleModel)}},
	}
}

func TestGenerateTextConfig(t *testing.T) {
	stub := &stubModels{resp: textResponse(`{"ok":true}`)}
	g := &GeminiGenerator{models: stub, logger: zap.NewNop()}

	text, err := g.GenerateText(context.Background(), core.TextGenerationRequest{
		Model: "gemini-2.0-flash", Prompt: "hi", SystemInstruction: "be brief", Temperature: 0.3, MaxOutputTokens: 256, JSON: true,
	})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != `{"ok":true}` {
		t.Errorf("text = %q", text)
	}
	if stub.model != "gemini-2.0-flash" || len(stub.contents) != 1 || stub.contents[0].Parts[0].Text != "hi" {
		t.Errorf("request model=%s contents=%v", stub.model, stub.contents)
	}
	cfg := stub.config
	if cfg.ResponseMIMEType != "application/json" || cfg.MaxOutputTokens != 256 || cfg.Temperature == nil || *cfg.Temperature != 0.3 {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text != "be brief" {
		t.Errorf("system instruction = %+v", cfg.SystemInstruction)
	}
}

func TestGenerateTextPlainOmitsOptionalConfig(t *testing.T) {
	stub := &stubModels{resp: textResponse("hello")}
	g := &GeminiGenerator{models: stub, logger: zap.NewNop()}

	if _, err := g.GenerateText(context.Background(), core.TextGenerationRequest{Model: "m", Prompt: "p", Temperature: 0.7, MaxOutputTokens: 1024}); err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if stub.config.SystemInstruction != nil || stub.config.ResponseMIMEType != "" {
		t.Errorf("config = %+v", stub.config)
	}
}

func TestGenerateTextErrors(t *testing.T) {
	g := &GeminiGenerator{models: &stubModels{err: errors.New("quota")}, logger: zap.NewNop()}
	if _, err := g.GenerateText(context.Background(), core.TextGenerationRequest{Model: "m", Prompt: "p"}); err == nil {
		t.Fatal("expected provider error")
	}

	blocked := &genai.GenerateContentResponse{PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety}}
	g = &GeminiGenerator{models: &stubModels{resp: blocked}, logger: zap.NewNop()}
	if _, err := g.GenerateText(context.Background(), core.TextGenerationRequest{Model: "m", Prompt: "p"}); err == nil {
		t.Fatal("expected blocked prompt error")
	}
}
