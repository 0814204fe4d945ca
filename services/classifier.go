// Package services wraps the external collaborators (vision classifier,
// image store, identity verifier) behind narrow interfaces so controllers can
// swap them out in tests.
package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"civicsense-be/config"
	"civicsense-be/models"

	"go.uber.org/zap"
)

// Classification is the advisory result of a vision-AI call. It is a hint for
// the reporter, never authoritative.
type Classification struct {
	Category     models.IssueCategory   `json:"category"`
	Confidence   int                    `json:"confidence"`
	Severity     models.SeverityLevel   `json:"severity"`
	Description  string                 `json:"description"`
	Alternatives []models.IssueCategory `json:"alternatives,omitempty"`
}

// ImageClassifier suggests a category for an uploaded photo. Implementations
// never fail: on any upstream problem they return the deterministic
// low-confidence fallback.
type ImageClassifier interface {
	Classify(ctx context.Context, image []byte, mimeType string) Classification
}

const (
	minConfidence = 50
	maxConfidence = 95
)

// FallbackClassification is returned whenever the vision call is unavailable
// or unusable. Deterministic so callers only ever handle "low confidence".
func FallbackClassification() Classification {
	return Classification{
		Category:    models.OtherCategory,
		Confidence:  minConfidence,
		Severity:    models.SeverityMedium,
		Description: "Civic issue (automatic classification unavailable)",
	}
}

type visionClassifier struct {
	apiKey   string
	endpoint string
	model    string
	client   *http.Client
}

// NewImageClassifier builds the vision-AI backed classifier from environment
// configuration. A missing key is not an error; the classifier degrades to
// the fallback at call time.
func NewImageClassifier() ImageClassifier {
	endpoint := os.Getenv("VISION_API_URL")
	if endpoint == "" {
		endpoint = "https://api.groq.com/openai/v1/chat/completions"
	}
	model := os.Getenv("VISION_MODEL")
	if model == "" {
		model = "llama-3.2-90b-vision-preview"
	}
	return &visionClassifier{
		apiKey:   os.Getenv("VISION_API_KEY"),
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: 20 * time.Second},
	}
}

const classifyPrompt = `Classify this civic issue photo. Reply with JSON only:
{"category": one of [pothole, garbage, water_leak, streetlight, sewage, road_damage, tree_fall, encroachment, stray_animals, others],
"confidence": 0-100, "severity": one of [low, medium, high, critical],
"description": short sentence, "alternatives": up to two other plausible categories}`

func (v *visionClassifier) Classify(ctx context.Context, image []byte, mimeType string) Classification {
	if v.apiKey == "" {
		return FallbackClassification()
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))
	payload := map[string]interface{}{
		"model": v.model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": classifyPrompt},
					{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
				},
			},
		},
		"temperature": 0.2,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return FallbackClassification()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return FallbackClassification()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.apiKey)

	resp, err := v.client.Do(req)
	if err != nil {
		config.Logger.Warn("vision call failed, using fallback", zap.Error(err))
		return FallbackClassification()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		config.Logger.Warn("vision call returned non-200, using fallback",
			zap.Int("status", resp.StatusCode))
		return FallbackClassification()
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil || len(completion.Choices) == 0 {
		return FallbackClassification()
	}

	return ParseClassification(completion.Choices[0].Message.Content)
}

// ParseClassification sanitizes a raw model reply. It first tries strict
// JSON, then falls back to string-matching category names in the text.
func ParseClassification(content string) Classification {
	result := FallbackClassification()

	var parsed struct {
		Category     string   `json:"category"`
		Confidence   int      `json:"confidence"`
		Severity     string   `json:"severity"`
		Description  string   `json:"description"`
		Alternatives []string `json:"alternatives"`
	}

	// Models often wrap JSON in prose; extract the outermost object.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start && json.Unmarshal([]byte(content[start:end+1]), &parsed) == nil {
		if cat := models.IssueCategory(parsed.Category); models.ValidCategories[cat] {
			result.Category = cat
		}
		result.Confidence = clampConfidence(parsed.Confidence)
		switch models.SeverityLevel(parsed.Severity) {
		case models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical:
			result.Severity = models.SeverityLevel(parsed.Severity)
		}
		if parsed.Description != "" {
			result.Description = parsed.Description
		}
		for _, alt := range parsed.Alternatives {
			if cat := models.IssueCategory(alt); models.ValidCategories[cat] && cat != result.Category {
				result.Alternatives = append(result.Alternatives, cat)
			}
		}
		return result
	}

	// String-matching fallback: first category name present in the reply wins.
	lower := strings.ToLower(content)
	for _, cat := range models.AllCategories {
		if cat != models.OtherCategory && strings.Contains(lower, string(cat)) {
			result.Category = cat
			break
		}
	}
	return result
}

func clampConfidence(c int) int {
	if c < minConfidence {
		return minConfidence
	}
	if c > maxConfidence {
		return maxConfidence
	}
	return c
}
