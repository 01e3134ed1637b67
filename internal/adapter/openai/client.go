package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/flood-resilience-service/internal/domain"
	"github.com/couchcryptid/flood-resilience-service/internal/observability"
	"github.com/hashicorp/go-retryablehttp"
	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"
)

// Options configures a Client.
type Options struct {
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration // per HTTP attempt
	RetryMax int
	// RatePerSecond bounds outgoing calls; bursts of up to 2x are allowed.
	RatePerSecond float64
}

// Client implements domain.Narrator using the OpenAI chat completions API.
type Client struct {
	api     oai.Client
	model   string
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewClient creates an OpenAI narrative client. Transient HTTP failures are
// retried by the transport; the SDK's own retries are disabled.
func NewClient(opts Options, logger *slog.Logger, metrics *observability.Metrics) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.RetryMax = opts.RetryMax
	rc.HTTPClient.Timeout = opts.Timeout
	rc.Logger = logger
	// Hand the final response to the SDK so API errors keep their status code.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithHTTPClient(rc.StandardClient()),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	burst := max(1, int(opts.RatePerSecond*2))
	return &Client{
		api:     oai.NewClient(reqOpts...),
		model:   opts.Model,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst),
		logger:  logger,
		metrics: metrics,
	}
}

// Narrate implements domain.Narrator.
func (c *Client) Narrate(ctx context.Context, ac domain.AssessmentContext) (domain.Narrative, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Narrative{}, fmt.Errorf("openai rate limit: %w", err)
	}

	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: oai.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(systemPrompt),
			oai.UserMessage(buildPrompt(ac)),
		},
	})
	c.metrics.NarrativeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		var apiErr *oai.Error
		if errors.As(err, &apiErr) {
			return domain.Narrative{}, fmt.Errorf("openai API error: status %d: %w", apiErr.StatusCode, err)
		}
		return domain.Narrative{}, fmt.Errorf("narrative request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Narrative{}, errors.New("openai response has no choices")
	}

	n, err := parseNarrative(resp.Choices[0].Message.Content)
	if err != nil {
		return domain.Narrative{}, err
	}
	c.logger.Debug("remote narrative generated",
		"model", c.model,
		"recommendations", len(n.Recommendations),
		"duration", time.Since(start),
	)
	return n, nil
}

// response is the JSON object the model is asked to produce.
type response struct {
	Recommendations []domain.Recommendation `json:"recommendations"`
	Summary         string                  `json:"summary"`
}

// parseNarrative extracts the outermost JSON object from content, which may
// be wrapped in prose or a code fence, and validates it.
func parseNarrative(content string) (domain.Narrative, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return domain.Narrative{}, errors.New("openai response contains no JSON object")
	}

	var r response
	if err := json.Unmarshal([]byte(content[start:end+1]), &r); err != nil {
		return domain.Narrative{}, fmt.Errorf("decode narrative: %w", err)
	}

	if strings.TrimSpace(r.Summary) == "" {
		return domain.Narrative{}, errors.New("narrative summary is empty")
	}
	if len(r.Recommendations) == 0 {
		return domain.Narrative{}, errors.New("narrative has no recommendations")
	}
	for i, rec := range r.Recommendations {
		if err := rec.Validate(); err != nil {
			return domain.Narrative{}, fmt.Errorf("recommendation %d: %w", i, err)
		}
	}

	return domain.Narrative{
		Recommendations: r.Recommendations,
		Summary:         strings.TrimSpace(r.Summary),
		Source:          domain.SourceRemote,
	}, nil
}
