// Package analyst asks a hosted language model for a narrative reading of
// the team's performance figures.
package analyst

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/okian/evalboard/internal/domain/types"
	"github.com/okian/evalboard/pkg/metrics"
)

const (
	messagesPath = "/v1/messages"
	apiVersion   = "2023-06-01"
	maxTokens    = 1024
)

// ErrEmptyResponse is returned when the model answers without any text.
var ErrEmptyResponse = errors.New("empty response from analyst")

// Snapshot is the data the narrative is written about.
type Snapshot struct {
	From   string
	To     string
	KPIs   types.GlobalKPIs
	Matrix []types.ComparativeMatrixRow
}

// Client produces narrative analyses.
type Client interface {
	Analyze(ctx context.Context, snap Snapshot) (string, error)
}

type client struct {
	http  *resty.Client
	model string
}

// New creates a client that authenticates with apiKey.
func New(apiKey string, opts ...Option) Client {
	c := &client{
		model: defaultModel,
	}
	cfg := options{baseURL: defaultBaseURL, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.model != "" {
		c.model = cfg.model
	}

	c.http = resty.New().
		SetBaseURL(strings.TrimRight(cfg.baseURL, "/")).
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(cfg.timeout)
	return c
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

const systemPrompt = `You are an operations analyst for a field inspection team.
You receive the team's headline KPIs and a ranked comparative matrix of inspectors.
Write a short report in plain prose: overall productivity, quality of submissions,
who needs attention and why, and two or three concrete recommendations.
Do not invent figures that are not in the data.`

// Analyze sends the snapshot to the model and returns its narrative.
func (c *client) Analyze(ctx context.Context, snap Snapshot) (string, error) {
	start := time.Now()
	text, err := c.analyze(ctx, snap)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordAnalystRequest(outcome)
	metrics.RecordAnalyticsLatency("analysis", float64(time.Since(start).Milliseconds()))
	return text, err
}

func (c *client) analyze(ctx context.Context, snap Snapshot) (string, error) {
	req := messageRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages:  []message{{Role: "user", Content: Prompt(snap)}},
	}

	var out messageResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post(messagesPath)
	if err != nil {
		return "", fmt.Errorf("analyst call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("analyst api error: status %d: %s", resp.StatusCode(), resp.String())
	}

	var b strings.Builder
	for _, part := range out.Content {
		if part.Type == "" || part.Type == "text" {
			b.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Prompt renders the snapshot as the user message.
func Prompt(snap Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Period: %s to %s\n", orOpen(snap.From), orOpen(snap.To))
	fmt.Fprintf(&b, "Total records: %d\nTotal units: %d\nApproval rate: %d%%\nDaily velocity: %d units/day\n\n",
		snap.KPIs.TotalRecords, snap.KPIs.TotalUnits, snap.KPIs.ApprovalRate, snap.KPIs.DailyVelocity)

	if len(snap.Matrix) == 0 {
		b.WriteString("No inspectors on the roster.\n")
		return b.String()
	}
	b.WriteString("Inspector | score | target % | commitment % | quality % | daily avg | risk\n")
	for _, r := range snap.Matrix {
		fmt.Fprintf(&b, "%s | %d | %.0f | %.0f | %.0f | %.1f | %s\n",
			r.InspectorName, r.WeightedScore, r.TargetAchieved, r.Commitment, r.Quality, r.DailyAvg, r.RiskLevel)
	}
	return b.String()
}

func orOpen(d string) string {
	if d == "" {
		return "open"
	}
	return d
}
