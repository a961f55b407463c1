package loadgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/internal/domain/types"
)

// ErrUnexpectedStatus is returned when the service answers with a status
// the caller does not handle.
var ErrUnexpectedStatus = errors.New("unexpected status")

// outcome classifies one submission.
type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeDuplicate
	outcomeThrottled
	outcomeFailed
)

type submission struct {
	SubmissionID string `json:"submission_id"`
	Date         string `json:"date"`
	InspectorID  string `json:"inspector_id"`
	ItemID       string `json:"item_id"`
	Count        int    `json:"count"`
}

type kpiResponse struct {
	KPIs types.GlobalKPIs `json:"kpis"`
}

type matrixResponse struct {
	Data []types.ComparativeMatrixRow `json:"data"`
}

// client is a thin resty wrapper around the evalboard API.
type client struct {
	http *resty.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{http: resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")}
}

func (c *client) health(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/healthz")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: healthz answered %d", ErrUnexpectedStatus, resp.StatusCode())
	}
	return nil
}

func (c *client) submit(ctx context.Context, sub model.Submission) outcome {
	resp, err := c.http.R().SetContext(ctx).SetBody(submission{
		SubmissionID: sub.SubmissionID,
		Date:         sub.Date,
		InspectorID:  sub.InspectorID,
		ItemID:       sub.ItemID,
		Count:        sub.Count,
	}).Post("/records")
	if err != nil {
		return outcomeFailed
	}
	switch resp.StatusCode() {
	case http.StatusAccepted:
		return outcomeAccepted
	case http.StatusOK:
		return outcomeDuplicate
	case http.StatusTooManyRequests:
		return outcomeThrottled
	default:
		return outcomeFailed
	}
}

// kpis returns the global KPIs for a single day.
func (c *client) kpis(ctx context.Context, date string) (types.GlobalKPIs, error) {
	var out kpiResponse
	resp, err := c.http.R().SetContext(ctx).
		SetQueryParams(map[string]string{"from": date, "to": date}).
		SetResult(&out).
		Get("/kpis")
	if err != nil {
		return types.GlobalKPIs{}, err
	}
	if resp.IsError() {
		return types.GlobalKPIs{}, fmt.Errorf("%w: kpis answered %d", ErrUnexpectedStatus, resp.StatusCode())
	}
	return out.KPIs, nil
}

func (c *client) matrix(ctx context.Context, date string) ([]types.ComparativeMatrixRow, error) {
	var out matrixResponse
	resp, err := c.http.R().SetContext(ctx).
		SetQueryParams(map[string]string{"from": date, "to": date}).
		SetResult(&out).
		Get("/matrix")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: matrix answered %d", ErrUnexpectedStatus, resp.StatusCode())
	}
	return out.Data, nil
}
