// Package reasoning turns a profile's free text into a fixed-shape stance
// analysis by prompting an external text-generation service.
package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cardscraper/pkg/config"
	"cardscraper/pkg/llm"
	"cardscraper/pkg/logger"
	"cardscraper/pkg/models"
	"cardscraper/pkg/report"
)

const systemPrompt = "You are an expert analyst of Catholic Church leadership and their positions."

// parse failure message kept stable: downstream tooling matches on it
const parseFailureMessage = "Failed to parse model response as JSON"

// Client sends profile text to the reasoning service and parses the
// four-dimension rating object out of its response
type Client struct {
	provider        llm.Provider
	model           string
	temperature     float64
	maxTokens       int
	maxProfileChars int
	logger          logger.Logger
}

// NewClient creates a reasoning client. A missing API key is a hard error:
// the analyze stage cannot run without one.
func NewClient(cfg config.ReasoningConfig, log logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("reasoning service API key not set")
	}
	if log == nil {
		log = logger.GetLogger()
	}

	provider, err := llm.NewProvider(llm.Config{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
		APIKey:   cfg.APIKey,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		provider:        provider,
		model:           cfg.Model,
		temperature:     cfg.Temperature,
		maxTokens:       cfg.MaxTokens,
		maxProfileChars: cfg.MaxProfileChars,
		logger:          log,
	}, nil
}

// Analyze rates a profile on the four stance dimensions. Failures are
// returned as an Analysis in its error form, never as a Go error: the
// orchestrator logs and moves on, keeping the raw response for diagnosis.
func (c *Client) Analyze(ctx context.Context, text *report.ProfileText) *models.Analysis {
	prompt := c.BuildPrompt(text.Summary, text.Narrative)

	resp, err := c.provider.Chat(ctx, llm.ChatRequest{
		Model: c.model,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		// Ask for strict JSON; the brace-scan fallback below still covers
		// providers that ignore the response format.
		ResponseFormat: "json_object",
	})
	if err != nil {
		return &models.Analysis{Err: fmt.Sprintf("API call failed: %v", err)}
	}

	return ParseAnalysis(resp.Content)
}

// ParseAnalysis extracts the structured rating object from the service's
// free-form response. First the substring between the outermost braces is
// tried, then the raw text; if both fail the raw text is retained in the
// returned error form.
func ParseAnalysis(raw string) *models.Analysis {
	candidates := make([]string, 0, 2)

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		candidates = append(candidates, raw[start:end+1])
	}
	candidates = append(candidates, raw)

	for _, candidate := range candidates {
		var analysis models.Analysis
		if err := json.Unmarshal([]byte(candidate), &analysis); err != nil {
			continue
		}
		// An object without rating groups is still a successful parse; it
		// simply yields no attributes downstream.
		return &analysis
	}

	return &models.Analysis{
		Err:         parseFailureMessage,
		RawResponse: raw,
	}
}

// TruncateProfile cuts the narrative to the configured character budget,
// marking the cut with a trailing ellipsis. The budget counts characters,
// not bytes, so multi-byte text is never split mid-rune.
func (c *Client) TruncateProfile(narrative string) string {
	runes := []rune(narrative)
	if len(runes) > c.maxProfileChars {
		return string(runes[:c.maxProfileChars]) + "..."
	}
	return narrative
}

// BuildPrompt constructs the analysis instruction embedding the profile
// text and the strict output-format template
func (c *Client) BuildPrompt(summary, narrative string) string {
	truncated := c.TruncateProfile(narrative)

	return fmt.Sprintf(`Analyze this Catholic Cardinal's profile data and rate them on specific dimensions.

CARDINAL SUMMARY:
%s

CARDINAL PROFILE (truncated):
%s

For each category below, rate on a scale of 1-5 where:
1 = Strongly conservative/against
2 = Moderately conservative/against
3 = Neutral/balanced
4 = Moderately progressive/supports
5 = Strongly progressive/supports

THEOLOGICAL STANCE RATINGS:
- Conservative: [?]
- Reform-Leaning: [?]

ISSUE POSITION RATINGS:
- LGBTQ+ Policies: [?]
- Environmentalism: [?]

Format your response as a JSON object with this structure:
{
  "theological_stance": {
    "conservative": { "rating": X, "explanation": "..." },
    "reform_leaning": { "rating": X, "explanation": "..." }
  },
  "issue_positions": {
    "lgbtq_policies": { "rating": X, "explanation": "..." },
    "environmentalism": { "rating": X, "explanation": "..." }
  }
}`, summary, truncated)
}

// ConvertToAttributes projects the analysis ratings onto attribute records.
// Labels come from the fixed rating-scale table, independent of the label
// vocabulary the page extractor produces.
func ConvertToAttributes(analysis *models.Analysis) []models.Attribute {
	if analysis == nil || analysis.Failed() {
		return nil
	}

	var attributes []models.Attribute

	appendRating := func(issueTitle, subtitle string, dim *models.DimensionRating) {
		if dim == nil {
			return
		}
		attributes = append(attributes, models.Attribute{
			IssueTitle:  issueTitle,
			Subtitle:    subtitle,
			Value:       fmt.Sprintf("%d", dim.Rating),
			Label:       models.LabelForRating(dim.Rating),
			Explanation: dim.Explanation,
		})
	}

	if ts := analysis.TheologicalStance; ts != nil {
		appendRating("Theological Conservatism",
			"Level of adherence to traditional theological positions", ts.Conservative)
		appendRating("Reform-Leaning Theology",
			"Openness to theological reforms and changes", ts.ReformLeaning)
	}
	if ip := analysis.IssuePositions; ip != nil {
		appendRating("LGBTQ+ Policies",
			"Positions on LGBTQ+ inclusion and related policies", ip.LGBTQPolicies)
		appendRating("Environmentalism",
			"Positions on environmental issues and climate change", ip.Environmentalism)
	}

	return attributes
}
