package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"civicsense-be/models"
)

func TestFallbackClassification_Deterministic(t *testing.T) {
	first := FallbackClassification()
	second := FallbackClassification()
	if !reflect.DeepEqual(first, second) {
		t.Error("fallback classification must be deterministic")
	}
	if first.Category != models.OtherCategory {
		t.Errorf("expected fallback category others, got %q", first.Category)
	}
	if first.Confidence != 50 {
		t.Errorf("expected fallback confidence 50, got %d", first.Confidence)
	}
}

func TestParseClassification_JSON(t *testing.T) {
	content := `Here is my answer: {"category":"pothole","confidence":99,"severity":"high",
"description":"A deep pothole","alternatives":["road_damage","pothole","not_a_category"]}`

	got := ParseClassification(content)
	if got.Category != models.Pothole {
		t.Errorf("expected pothole, got %q", got.Category)
	}
	if got.Confidence != 95 {
		t.Errorf("expected confidence clamped to 95, got %d", got.Confidence)
	}
	if got.Severity != models.SeverityHigh {
		t.Errorf("expected high severity, got %q", got.Severity)
	}
	if got.Description != "A deep pothole" {
		t.Errorf("unexpected description %q", got.Description)
	}
	if len(got.Alternatives) != 1 || got.Alternatives[0] != models.RoadDamage {
		t.Errorf("expected alternatives [road_damage], got %v", got.Alternatives)
	}
}

func TestParseClassification_ConfidenceClampedLow(t *testing.T) {
	got := ParseClassification(`{"category":"garbage","confidence":5,"severity":"low","description":"x"}`)
	if got.Confidence != 50 {
		t.Errorf("expected confidence clamped to 50, got %d", got.Confidence)
	}
}

func TestParseClassification_UnknownCategoryFallsBack(t *testing.T) {
	got := ParseClassification(`{"category":"spaceship","confidence":80,"severity":"medium","description":"x"}`)
	if got.Category != models.OtherCategory {
		t.Errorf("expected others, got %q", got.Category)
	}
}

func TestParseClassification_TextFallback(t *testing.T) {
	got := ParseClassification("This image shows an overflowing garbage bin near a bus stop.")
	if got.Category != models.Garbage {
		t.Errorf("expected string-matched garbage, got %q", got.Category)
	}
	if got.Confidence != 50 {
		t.Errorf("expected fallback confidence, got %d", got.Confidence)
	}
}

func TestClassify_MissingKeyUsesFallback(t *testing.T) {
	v := &visionClassifier{client: &http.Client{Timeout: time.Second}}
	got := v.Classify(context.Background(), []byte("img"), "image/jpeg")
	if !reflect.DeepEqual(got, FallbackClassification()) {
		t.Error("expected fallback when no API key is configured")
	}
}

func TestClassify_UpstreamErrorUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	v := &visionClassifier{apiKey: "test", endpoint: srv.URL, model: "m", client: srv.Client()}
	got := v.Classify(context.Background(), []byte("img"), "image/jpeg")
	if !reflect.DeepEqual(got, FallbackClassification()) {
		t.Error("expected fallback on upstream 500")
	}
}

func TestClassify_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		reply := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{
					"content": `{"category":"streetlight","confidence":88,"severity":"medium","description":"Broken streetlight"}`,
				}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reply)
	}))
	defer srv.Close()

	v := &visionClassifier{apiKey: "test", endpoint: srv.URL, model: "m", client: srv.Client()}
	got := v.Classify(context.Background(), []byte("img"), "image/jpeg")

	if got.Category != models.Streetlight {
		t.Errorf("expected streetlight, got %q", got.Category)
	}
	if got.Confidence != 88 {
		t.Errorf("expected confidence 88, got %d", got.Confidence)
	}
}
