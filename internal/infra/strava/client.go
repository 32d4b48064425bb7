package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/yanqian/workout-coach/internal/domain/analysis"
	"github.com/yanqian/workout-coach/internal/domain/workout"
)

const defaultBaseURL = "https://www.strava.com/api/v3"

const streamKeys = "time,distance,heartrate,velocity_smooth,altitude,cadence,watts"

// Client reads activities from the Strava API with the athlete's access token.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client. An empty baseURL targets the public API.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Activity fetches the detail and streams for one activity. An activity
// without recorded streams (404 on the streams endpoint) yields no samples;
// any other streams failure is returned.
func (c *Client) Activity(ctx context.Context, accessToken string, activityID int64) (workout.Activity, []workout.Sample, error) {
	httpClient := c.authorized(ctx, accessToken)

	var detail activityDetail
	if err := c.getJSON(ctx, httpClient, fmt.Sprintf("%s/activities/%d?include_all_efforts=true", c.baseURL, activityID), &detail); err != nil {
		return workout.Activity{}, nil, err
	}

	var streams streamSet
	if err := c.getJSON(ctx, httpClient, fmt.Sprintf("%s/activities/%d/streams?keys=%s&key_by_type=true", c.baseURL, activityID, streamKeys), &streams); err != nil {
		if errors.Is(err, analysis.ErrActivityNotFound) {
			return detail.toActivity(), nil, nil
		}
		return workout.Activity{}, nil, fmt.Errorf("fetch activity streams: %w", err)
	}
	return detail.toActivity(), workout.SamplesFromStreams(streams.toStreams()), nil
}

func (c *Client) authorized(ctx context.Context, accessToken string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))
}

func (c *Client) getJSON(ctx context.Context, httpClient *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build strava request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request strava: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return analysis.ErrActivityNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return analysis.ErrSourceUnauthorized
	case resp.StatusCode >= 300:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("strava request failed: status=%d body=%s", resp.StatusCode, string(payload))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode strava response: %w", err)
	}
	return nil
}

var _ analysis.ActivitySource = (*Client)(nil)
