package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "askdrk-test")
	t.Setenv("GIN_MODE", "release")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.WebhookDedupTTL != 24*time.Hour {
		t.Errorf("WebhookDedupTTL = %v, want 24h", cfg.WebhookDedupTTL)
	}
	if cfg.TipsTotalDays != 30 {
		t.Errorf("TipsTotalDays = %d, want 30", cfg.TipsTotalDays)
	}
	if cfg.TipsTopic != "daily_tips" {
		t.Errorf("TipsTopic = %q, want daily_tips", cfg.TipsTopic)
	}
	if cfg.GeminiModel == "" {
		t.Error("GeminiModel should have a default")
	}
	if !cfg.IsRelease() {
		t.Error("IsRelease() = false, want true")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "askdrk-test")
	t.Setenv("GIN_MODE", "release")
	t.Setenv("RAZORPAY_PLAN_YEARLY", "plan_yearly")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("TIPS_TOTAL_DAYS", "7")
	t.Setenv("REDIS_DB", "3")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.RazorpayPlanYearly != "plan_yearly" {
		t.Errorf("RazorpayPlanYearly = %q", cfg.RazorpayPlanYearly)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", cfg.RequestTimeout)
	}
	if cfg.TipsTotalDays != 7 {
		t.Errorf("TipsTotalDays = %d, want 7", cfg.TipsTotalDays)
	}
	if cfg.RedisDB != 3 {
		t.Errorf("RedisDB = %d, want 3", cfg.RedisDB)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing project",
			env:     map[string]string{"FIREBASE_PROJECT_ID": ""},
			wantErr: "FIREBASE_PROJECT_ID",
		},
		{
			name:    "bad timezone",
			env:     map[string]string{"FIREBASE_PROJECT_ID": "p", "TIPS_TIMEZONE": "Mars/Olympus"},
			wantErr: "TIPS_TIMEZONE",
		},
		{
			name:    "zero days",
			env:     map[string]string{"FIREBASE_PROJECT_ID": "p", "TIPS_TOTAL_DAYS": "0"},
			wantErr: "TIPS_TOTAL_DAYS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GIN_MODE", "release")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestLoadTipsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tips.yaml")
	content := `tips:
  - day: 1
    title: Warm water
    body: Start the day with a glass of warm water.
  - day: 2
    title: Walk after meals
    body: A ten minute walk helps digestion.
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	tips, err := LoadTipsFile(path, 2)
	if err != nil {
		t.Fatalf("LoadTipsFile() error = %v", err)
	}
	if len(tips) != 2 {
		t.Fatalf("got %d tips, want 2", len(tips))
	}
	if tips[1].Title != "Walk after meals" {
		t.Errorf("tips[1].Title = %q", tips[1].Title)
	}

	if _, err := LoadTipsFile(path, 3); err == nil || !strings.Contains(err.Error(), "missing days: 3") {
		t.Errorf("expected missing day error, got %v", err)
	}
}

func TestValidateTipsRejectsDuplicatesAndRange(t *testing.T) {
	dup := `tips:
  - {day: 1, title: a, body: b}
  - {day: 1, title: c, body: d}
`
	outOfRange := `tips:
  - {day: 5, title: a, body: b}
`
	for name, content := range map[string]string{"duplicate": dup, "range": outOfRange} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tips.yaml")
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadTipsFile(path, 2); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestShippedTipsFileIsValid(t *testing.T) {
	tips, err := LoadTipsFile(filepath.Join("..", "..", "configs", "tips.yaml"), 30)
	if err != nil {
		t.Fatalf("configs/tips.yaml: %v", err)
	}
	if len(tips) != 30 {
		t.Errorf("got %d tips, want 30", len(tips))
	}
}
