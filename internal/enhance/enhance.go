package enhance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/nao1215/lorescan/internal/model"
)

const (
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "gpt-4o-mini"
	// DefaultMaxAttempts is the number of tries per batch request.
	DefaultMaxAttempts = 3
	// DefaultTimeout bounds each HTTP request when NewClient builds its
	// own transport.
	DefaultTimeout = 120 * time.Second
	// batchSize is the number of candidates sent per request. Larger
	// batches save tokens on the shared instructions but make a single
	// malformed response more expensive.
	batchSize = 20
)

// Token pricing in USD per million tokens. Used both for reporting the
// cost of a completed run and for EstimateCost before committing to one.
const (
	inputTokenPricePerMillion  = 0.15
	outputTokenPricePerMillion = 0.60
)

// Rough per-candidate token footprint for cost estimation. A candidate
// contributes its name plus up to three context snippets on the way in
// and one compact verdict object on the way out.
const (
	estimatedInputTokensPerEntity  = 90
	estimatedOutputTokensPerEntity = 25
	estimatedFixedPromptTokens     = 220
)

// ErrNoAPIKey is returned when enhancement is attempted without credentials.
var ErrNoAPIKey = errors.New("no API key configured for enhancement")

// ErrEmptyResponse is returned when the model answers with no usable content.
var ErrEmptyResponse = errors.New("empty response from model")

// Request is one enhancement batch: the candidates needing review plus
// the book metadata that gives the model narrative context.
type Request struct {
	// Entities are the needs-review candidates, in pipeline order.
	Entities []model.ClassifiedEntity
	// BookTitle is the manuscript title, if known.
	BookTitle string
	// Genre is the project genre, if known.
	Genre string
}

// Verdict is the model's answer for one candidate name.
type Verdict struct {
	// Name echoes the candidate name the verdict applies to.
	Name string `json:"name"`
	// Type is the model's entity type, empty when the model gave none.
	Type model.EntityType `json:"type"`
	// Confidence is the model's 0-100 confidence, 0 when absent.
	Confidence int `json:"confidence"`
	// Noise reports that the name is not a story entity at all.
	Noise bool `json:"noise"`
}

// Result is the outcome of a successful enhancement run.
type Result struct {
	// Verdicts holds one entry per name the model ruled on. Names the
	// model skipped are simply absent.
	Verdicts []Verdict
	// CostUSD is the token cost of the run computed from reported usage.
	CostUSD float64
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	api         openai.Client
	model       string
	maxAttempts uint
	retryDelay  time.Duration
	onItem      func(name string)
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the chat model.
func WithModel(m string) Option {
	return func(c *Client) {
		if m != "" {
			c.model = m
		}
	}
}

// WithMaxAttempts sets the retry budget per batch request.
func WithMaxAttempts(n uint) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithRetryDelay sets the base delay between retries.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retryDelay = d
		}
	}
}

// WithProgress registers a callback invoked once per candidate after its
// batch has been processed.
func WithProgress(fn func(name string)) Option {
	return func(c *Client) {
		c.onItem = fn
	}
}

// WithLogger sets the logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates an enhancement client. baseURL and httpClient exist
// for tests against a local server; pass empty/nil for production use,
// in which case requests are bounded by DefaultTimeout.
func NewClient(apiKey, baseURL string, httpClient *http.Client, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// The SDK retries internally; batch retries are handled here so
		// they share one policy with response parsing.
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	if httpClient == nil {
		httpClient = newDefaultHTTPClient()
	}
	reqOpts = append(reqOpts, option.WithHTTPClient(httpClient))

	c := &Client{
		api:         openai.NewClient(reqOpts...),
		model:       DefaultModel,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  2 * time.Second,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// newDefaultHTTPClient builds the transport used when the caller supplies
// none. Without a deadline a hung connection would stall the whole run.
func newDefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// EstimateCost predicts the USD cost of enhancing needsReview candidates
// without performing any network call. The estimate is deterministic and
// intentionally conservative.
func EstimateCost(needsReview int) float64 {
	if needsReview <= 0 {
		return 0
	}
	batches := (needsReview + batchSize - 1) / batchSize
	inputTokens := float64(needsReview*estimatedInputTokensPerEntity + batches*estimatedFixedPromptTokens)
	outputTokens := float64(needsReview * estimatedOutputTokensPerEntity)
	return inputTokens/1_000_000*inputTokenPricePerMillion +
		outputTokens/1_000_000*outputTokenPricePerMillion
}

// Enhance submits the request in batches and collects the verdicts.
// Any failure is returned to the caller as an error; partial verdicts
// from batches that completed before the failure are discarded so the
// caller sees either a full result or none.
func (c *Client) Enhance(ctx context.Context, req Request) (Result, error) {
	var result Result
	if len(req.Entities) == 0 {
		return result, nil
	}

	for start := 0; start < len(req.Entities); start += batchSize {
		end := start + batchSize
		if end > len(req.Entities) {
			end = len(req.Entities)
		}
		batch := req.Entities[start:end]

		verdicts, cost, err := c.enhanceBatch(ctx, req, batch)
		if err != nil {
			return Result{}, fmt.Errorf("enhancement batch %d-%d: %w", start, end, err)
		}
		result.Verdicts = append(result.Verdicts, verdicts...)
		result.CostUSD += cost

		if c.onItem != nil {
			for _, entity := range batch {
				c.onItem(entity.Name)
			}
		}
	}
	return result, nil
}

// enhanceBatch performs one chat completion call with retries.
func (c *Client) enhanceBatch(ctx context.Context, req Request, batch []model.ClassifiedEntity) ([]Verdict, float64, error) {
	prompt := buildPrompt(req, batch)

	var verdicts []Verdict
	var cost float64
	err := retry.Do(
		func() error {
			resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
				Model: openai.ChatModel(c.model),
				Messages: []openai.ChatCompletionMessageParamUnion{
					openai.SystemMessage(systemPrompt),
					openai.UserMessage(prompt),
				},
				Temperature: openai.Float(0),
			})
			if err != nil {
				return err
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
				return ErrEmptyResponse
			}

			parsed, err := parseVerdicts(resp.Choices[0].Message.Content)
			if err != nil {
				return err
			}
			verdicts = parsed
			cost = float64(resp.Usage.PromptTokens)/1_000_000*inputTokenPricePerMillion +
				float64(resp.Usage.CompletionTokens)/1_000_000*outputTokenPricePerMillion
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.maxAttempts),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("enhancement request failed, retrying",
				"attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, 0, err
	}
	return verdicts, cost, nil
}

const systemPrompt = `You classify proper names extracted from fiction manuscripts.
For each name decide whether it is a real story entity and, if so, its kind:
character, location, organization, artifact, concept, or event.
Answer with a JSON array only, one object per name:
[{"name": "...", "type": "...", "confidence": 0-100, "noise": false}]
Set "noise" to true for names that are not story entities (common words,
fragments, scanning artifacts). Do not add commentary.`

// buildPrompt renders one batch of candidates with their surrounding
// context snippets.
func buildPrompt(req Request, batch []model.ClassifiedEntity) string {
	var b strings.Builder
	if req.BookTitle != "" {
		fmt.Fprintf(&b, "Book: %s\n", req.BookTitle)
	}
	if req.Genre != "" {
		fmt.Fprintf(&b, "Genre: %s\n", req.Genre)
	}
	b.WriteString("Names to classify:\n")
	for _, entity := range batch {
		fmt.Fprintf(&b, "- %s (appears %d times", entity.Name, entity.Frequency)
		if entity.ChapterSpread > 1 {
			fmt.Fprintf(&b, " across %d chapters", entity.ChapterSpread)
		}
		b.WriteString(")\n")
		for _, snippet := range entity.Contexts {
			fmt.Fprintf(&b, "    context: %q\n", snippet)
		}
	}
	return b.String()
}

// parseVerdicts extracts the verdict array from model output, tolerating
// markdown code fences and surrounding prose.
func parseVerdicts(content string) ([]Verdict, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyResponse
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONArray(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	var lastErr error
	for _, candidate := range candidates {
		var verdicts []Verdict
		if err := json.Unmarshal([]byte(candidate), &verdicts); err != nil {
			lastErr = err
			continue
		}
		return sanitizeVerdicts(verdicts), nil
	}
	return nil, fmt.Errorf("failed to parse verdicts: %w", lastErr)
}

// sanitizeVerdicts drops entries without a name and clamps confidence
// into range. Unknown type strings fall back to character via
// ParseEntityType, matching local classification behavior.
func sanitizeVerdicts(verdicts []Verdict) []Verdict {
	out := verdicts[:0]
	for _, v := range verdicts {
		if strings.TrimSpace(v.Name) == "" {
			continue
		}
		if v.Type != "" {
			v.Type = model.ParseEntityType(string(v.Type))
		}
		if v.Confidence < 0 {
			v.Confidence = 0
		}
		if v.Confidence > 100 {
			v.Confidence = 100
		}
		out = append(out, v)
	}
	return out
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
