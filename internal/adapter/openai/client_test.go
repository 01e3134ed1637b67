package openai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/flood-resilience-service/internal/domain"
	"github.com/couchcryptid/flood-resilience-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey           = "sk-test"
	testModel         = "gpt-test"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

const validContent = `{"recommendations":[{"action":"Install flood vents","priority":"medium",` +
	`"costRange":{"min":2500,"max":4000},"benefit":"Equalizes hydrostatic pressure","timeframe":"Within 6 months",` +
	`"roi":4,"type":"mitigation","feasibility":"easy"}],"summary":"Fair resilience today, declining by 2040."}`

func testClient(t *testing.T, baseURL string, retryMax int) *Client {
	t.Helper()
	return NewClient(Options{
		APIKey:        testKey,
		BaseURL:       baseURL + "/",
		Model:         testModel,
		Timeout:       2 * time.Second,
		RetryMax:      retryMax,
		RatePerSecond: 100,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

func testContext() domain.AssessmentContext {
	return domain.AssessmentContext{
		Input:           domain.BuildingInput{Neighborhood: "marigny", FoundationType: "crawlspace", Elevation: 9, Materials: "brick_veneer", FloodMitigation: "flood_vents"},
		FoundationScore: 62.79,
		OverallScore:    59.25,
		Timeline: []domain.PerformancePoint{
			{Year: 2025, Score: 59}, {Year: 2030, Score: 46}, {Year: 2035, Score: 34},
		},
		Neighborhood: domain.NeighborhoodProfile{Name: "Faubourg Marigny", BaseBFE: 7, FloodZone: "A", SubsidenceRate: 0.31, SeaLevelRise2055: 1.5},
		Foundation:   domain.FoundationProfile{Name: "Crawlspace Foundation"},
		RiskFactors:  []string{"Foundation type vulnerable to flood forces"},
		Mitigation: domain.MitigationAnalysis{
			CostBenefit: []domain.CostBenefit{{Feature: "Dry Floodproofing", Cost: 25000, Benefit: 18, Priority: domain.PriorityHigh}},
		},
	}
}

// chatResponse renders a minimal chat completion payload.
func chatResponse(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	resp := map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1735689600,
		"model":   testModel,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
	w.Header().Set(headerContentType, contentTypeJSON)
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestClient_Narrate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer "+testKey, r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, testModel, body.Model)
		if assert.Len(t, body.Messages, 2) {
			assert.Equal(t, "system", body.Messages[0].Role)
			assert.Equal(t, "user", body.Messages[1].Role)
			assert.Contains(t, body.Messages[1].Content, "Faubourg Marigny")
			assert.Contains(t, body.Messages[1].Content, "$25,000")
		}

		chatResponse(t, w, "Here you go:\n```json\n"+validContent+"\n```")
	}))
	defer srv.Close()

	n, err := testClient(t, srv.URL, 0).Narrate(context.Background(), testContext())
	require.NoError(t, err)

	assert.Equal(t, domain.SourceRemote, n.Source)
	assert.Equal(t, "Fair resilience today, declining by 2040.", n.Summary)
	require.Len(t, n.Recommendations, 1)
	assert.Equal(t, domain.TypeMitigation, n.Recommendations[0].Type)
	assert.Equal(t, domain.CostRange{Min: 2500, Max: 4000}, n.Recommendations[0].CostRange)
}

func TestClient_Narrate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL, 0).Narrate(context.Background(), testContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestClient_Narrate_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		chatResponse(t, w, validContent)
	}))
	defer srv.Close()

	n, err := testClient(t, srv.URL, 2).Narrate(context.Background(), testContext())
	require.NoError(t, err)
	assert.Equal(t, domain.SourceRemote, n.Source)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Narrate_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL, 1).Narrate(context.Background(), testContext())
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Narrate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := testClient(t, srv.URL, 0).Narrate(ctx, testContext())
	require.Error(t, err)
}

func TestClient_Narrate_InvalidContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no json", "I cannot help with that.", "no JSON object"},
		{"malformed json", `{"recommendations": [`, "no JSON object"},
		{"truncated object", `{"recommendations": [}`, "decode narrative"},
		{"empty summary", `{"recommendations":[{"action":"x","priority":"low","costRange":{"min":1,"max":2},"type":"material","feasibility":"easy"}],"summary":" "}`, "summary is empty"},
		{"no recommendations", `{"recommendations":[],"summary":"ok"}`, "no recommendations"},
		{"bad enum", `{"recommendations":[{"action":"x","priority":"urgent","costRange":{"min":1,"max":2},"type":"material","feasibility":"easy"}],"summary":"ok"}`, "unknown priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				chatResponse(t, w, tt.content)
			}))
			defer srv.Close()

			_, err := testClient(t, srv.URL, 0).Narrate(context.Background(), testContext())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestClient_Narrate_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		chatResponse(t, w, validContent)
	}))
	defer srv.Close()

	c := NewClient(Options{
		APIKey:        testKey,
		BaseURL:       srv.URL + "/",
		Model:         testModel,
		Timeout:       time.Second,
		RatePerSecond: 0.01,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())

	_, err := c.Narrate(context.Background(), testContext())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = c.Narrate(ctx, testContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt(testContext())

	assert.Contains(t, p, "Faubourg Marigny, Crawlspace Foundation, 9.0ft elevation")
	assert.Contains(t, p, "Foundation score: 63%")
	assert.Contains(t, p, "Overall score: 59%")
	assert.Contains(t, p, "Flood zone: A")
	assert.Contains(t, p, "Timeline: 2025=59 2030=46 2035=34")
	assert.Contains(t, p, "- Dry Floodproofing: $25,000, high priority")
}
