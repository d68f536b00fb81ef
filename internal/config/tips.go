package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/askdrk-backend/internal/models"
)

// TipsFile is the on-disk format used to seed the tips collection.
//
//	tips:
//	  - day: 1
//	    title: Drink water first thing
//	    body: A glass of warm water before tea helps digestion.
type TipsFile struct {
	Tips []models.Tip `yaml:"tips"`
}

// LoadTipsFile reads and validates a tips seed file. Every day in [1, totalDays] must appear exactly once.
func LoadTipsFile(path string, totalDays int) ([]models.Tip, error) {
	if path == "" {
		path = os.Getenv("PATH_TIPS")
	}
	if path == "" {
		path = "configs/tips.yaml"
	}
	log.Printf("Loading tips from: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tips file %s: %w", path, err)
	}

	var file TipsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse tips file %s: %w", path, err)
	}

	return validateTips(file.Tips, totalDays)
}

func validateTips(tips []models.Tip, totalDays int) ([]models.Tip, error) {
	if totalDays < 1 {
		return nil, fmt.Errorf("total days must be at least 1, got %d", totalDays)
	}
	seen := make(map[int]bool, len(tips))
	for i, tip := range tips {
		if tip.Day < 1 || tip.Day > totalDays {
			return nil, fmt.Errorf("tip #%d: day %d outside [1, %d]", i+1, tip.Day, totalDays)
		}
		if seen[tip.Day] {
			return nil, fmt.Errorf("tip #%d: day %d listed twice", i+1, tip.Day)
		}
		if strings.TrimSpace(tip.Title) == "" || strings.TrimSpace(tip.Body) == "" {
			return nil, fmt.Errorf("tip #%d (day %d): title and body are required", i+1, tip.Day)
		}
		seen[tip.Day] = true
	}
	if len(seen) != totalDays {
		var missing []string
		for d := 1; d <= totalDays; d++ {
			if !seen[d] {
				missing = append(missing, fmt.Sprint(d))
			}
		}
		return nil, fmt.Errorf("tips file is missing days: %s", strings.Join(missing, ", "))
	}
	return tips, nil
}
