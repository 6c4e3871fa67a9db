package enhance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/lorescan/internal/model"
)

// completionResponse builds a minimal chat completion payload whose
// assistant message is content.
func completionResponse(t *testing.T, content string, promptTokens, completionTokens int) []byte {
	t.Helper()

	payload := map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal test payload: %v", err)
	}
	return data
}

func testClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append(opts, WithRetryDelay(time.Millisecond))
	client, err := NewClient("test-key", server.URL, server.Client(), opts...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := NewClient("", "", nil); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("NewClient() error = %v, want ErrNoAPIKey", err)
	}
}

func TestNewDefaultHTTPClient(t *testing.T) {
	t.Parallel()

	if got := newDefaultHTTPClient().Timeout; got != DefaultTimeout {
		t.Errorf("default transport timeout = %v, want %v", got, DefaultTimeout)
	}
	if _, err := NewClient("test-key", "", nil); err != nil {
		t.Errorf("NewClient() with nil transport: unexpected error %v", err)
	}
}

func TestEnhance(t *testing.T) { //nolint:paralleltest // subtests share nothing but run servers
	verdictJSON := `[
		{"name": "Aria Stormwind", "type": "character", "confidence": 92, "noise": false},
		{"name": "Rain", "noise": true}
	]`

	t.Run("parses plain JSON verdicts and computes cost", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(completionResponse(t, verdictJSON, 1000, 200))
		})

		result, err := client.Enhance(context.Background(), Request{
			Entities: []model.ClassifiedEntity{
				{Name: "Aria Stormwind"},
				{Name: "Rain"},
			},
			BookTitle: "The Shattered Crown",
			Genre:     "fantasy",
		})
		if err != nil {
			t.Fatalf("Enhance() error = %v", err)
		}

		if len(result.Verdicts) != 2 {
			t.Fatalf("len(Verdicts) = %d, want 2", len(result.Verdicts))
		}
		if result.Verdicts[0].Type != model.EntityTypeCharacter || result.Verdicts[0].Confidence != 92 {
			t.Errorf("first verdict = %+v, want character/92", result.Verdicts[0])
		}
		if !result.Verdicts[1].Noise {
			t.Error("expected second verdict to be flagged noise")
		}

		wantCost := 1000.0/1_000_000*inputTokenPricePerMillion + 200.0/1_000_000*outputTokenPricePerMillion
		if diff := result.CostUSD - wantCost; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("CostUSD = %g, want %g", result.CostUSD, wantCost)
		}
	})

	t.Run("tolerates markdown code fences", func(t *testing.T) {
		fenced := "```json\n" + verdictJSON + "\n```"
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(completionResponse(t, fenced, 10, 10))
		})

		result, err := client.Enhance(context.Background(), Request{
			Entities: []model.ClassifiedEntity{{Name: "Aria Stormwind"}},
		})
		if err != nil {
			t.Fatalf("Enhance() error = %v", err)
		}
		if len(result.Verdicts) != 2 {
			t.Errorf("len(Verdicts) = %d, want 2", len(result.Verdicts))
		}
	})

	t.Run("normalizes malformed verdicts", func(t *testing.T) {
		sloppy := `[
			{"name": "The Veil", "type": "faction", "confidence": 250},
			{"name": "  "},
			{"name": "Mistwood", "type": "location", "confidence": -5}
		]`
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(completionResponse(t, sloppy, 10, 10))
		})

		result, err := client.Enhance(context.Background(), Request{
			Entities: []model.ClassifiedEntity{{Name: "The Veil"}},
		})
		if err != nil {
			t.Fatalf("Enhance() error = %v", err)
		}
		if len(result.Verdicts) != 2 {
			t.Fatalf("len(Verdicts) = %d, want 2 (blank name dropped)", len(result.Verdicts))
		}
		if result.Verdicts[0].Type != model.EntityTypeCharacter {
			t.Errorf("unknown type normalized to %q, want character", result.Verdicts[0].Type)
		}
		if result.Verdicts[0].Confidence != 100 || result.Verdicts[1].Confidence != 0 {
			t.Errorf("confidence clamping = %d/%d, want 100/0",
				result.Verdicts[0].Confidence, result.Verdicts[1].Confidence)
		}
	})

	t.Run("reports progress per candidate", func(t *testing.T) {
		var seen []string
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(completionResponse(t, `[]`, 10, 10))
		}, WithProgress(func(name string) { seen = append(seen, name) }))

		_, err := client.Enhance(context.Background(), Request{
			Entities: []model.ClassifiedEntity{{Name: "Aria"}, {Name: "Kael"}},
		})
		if err != nil {
			t.Fatalf("Enhance() error = %v", err)
		}
		if len(seen) != 2 || seen[0] != "Aria" || seen[1] != "Kael" {
			t.Errorf("progress callbacks = %v, want [Aria Kael]", seen)
		}
	})

	t.Run("returns error after exhausting retries", func(t *testing.T) {
		var calls int
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			http.Error(w, "upstream unavailable", http.StatusInternalServerError)
		}, WithMaxAttempts(2))

		_, err := client.Enhance(context.Background(), Request{
			Entities: []model.ClassifiedEntity{{Name: "Aria"}},
		})
		if err == nil {
			t.Fatal("expected error from failing server")
		}
		if calls != 2 {
			t.Errorf("server calls = %d, want 2 (retry budget)", calls)
		}
	})

	t.Run("empty input needs no network", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request for empty input")
		})

		result, err := client.Enhance(context.Background(), Request{})
		if err != nil {
			t.Fatalf("Enhance() error = %v", err)
		}
		if len(result.Verdicts) != 0 || result.CostUSD != 0 {
			t.Errorf("result = %+v, want empty", result)
		}
	})
}

func TestEstimateCost(t *testing.T) {
	t.Parallel()

	if got := EstimateCost(0); got != 0 {
		t.Errorf("EstimateCost(0) = %g, want 0", got)
	}
	if got := EstimateCost(-3); got != 0 {
		t.Errorf("EstimateCost(-3) = %g, want 0", got)
	}

	small := EstimateCost(5)
	large := EstimateCost(100)
	if small <= 0 {
		t.Errorf("EstimateCost(5) = %g, want > 0", small)
	}
	if large <= small {
		t.Errorf("EstimateCost should grow with count: %g vs %g", small, large)
	}

	// Deterministic: same input, same estimate.
	if EstimateCost(42) != EstimateCost(42) {
		t.Error("EstimateCost is not deterministic")
	}
}

func TestParseVerdictsRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, content := range []string{"", "not json at all", "{\"name\": \"obj not array\"}"} {
		if _, err := parseVerdicts(content); err == nil {
			t.Errorf("parseVerdicts(%q) expected error", content)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	prompt := buildPrompt(Request{BookTitle: "Ashes of Ravenport", Genre: "mystery"},
		[]model.ClassifiedEntity{
			{Name: "Veyra", Frequency: 7, ChapterSpread: 3, Contexts: []string{"Veyra smiled."}},
		})

	for _, want := range []string{
		"Book: Ashes of Ravenport",
		"Genre: mystery",
		"Veyra (appears 7 times across 3 chapters)",
		fmt.Sprintf("context: %q", "Veyra smiled."),
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
