package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/the-spice-must-sort/internal/engine"
)

// cleanMarkdownWrapper strips a ```json fence some models wrap around JSON.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```")
	if idx := strings.Index(content, "\n"); idx >= 0 {
		content = content[idx+1:]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")

	return strings.TrimSpace(content)
}

type classificationResponse struct {
	Results []struct {
		ID         string  `json:"id"`
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	} `json:"results"`
}

// parseSuggestions decodes a model reply. Confidences below 1 are read as
// fractions and scaled to 0-100.
func parseSuggestions(content string) ([]engine.Suggestion, error) {
	var resp classificationResponse
	if err := json.Unmarshal([]byte(cleanMarkdownWrapper(content)), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse classification response: %w", err)
	}

	suggestions := make([]engine.Suggestion, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.ID == "" {
			continue
		}
		suggestions = append(suggestions, engine.Suggestion{
			TransactionID: r.ID,
			Category:      strings.TrimSpace(r.Category),
			Confidence:    normalizeConfidence(r.Confidence),
		})
	}

	return suggestions, nil
}

func normalizeConfidence(c float64) int {
	if c > 0 && c < 1 {
		c *= 100
	}
	return int(math.Round(math.Min(math.Max(c, 0), 100)))
}
