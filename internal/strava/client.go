// Package strava is a thin client for the Strava v3 API.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// APIBase is the production Strava API root.
const APIBase = "https://www.strava.com/api/v3"

// Activity mirrors the fields of a summary activity that the stats layer
// consumes. Pointer fields distinguish absent from zero.
type Activity struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	SportType      string `json:"sport_type"`
	StartDate      string `json:"start_date"`
	StartDateLocal string `json:"start_date_local"`

	Distance           float64  `json:"distance"`             // meters
	MovingTime         int64    `json:"moving_time"`          // seconds
	ElapsedTime        int64    `json:"elapsed_time"`         // seconds
	TotalElevationGain float64  `json:"total_elevation_gain"` // meters
	AverageSpeed       float64  `json:"average_speed"`        // m/s
	MaxSpeed           float64  `json:"max_speed"`            // m/s
	HasHeartrate       bool     `json:"has_heartrate"`
	AverageHeartrate   *float64 `json:"average_heartrate,omitempty"`
	MaxHeartrate       *float64 `json:"max_heartrate,omitempty"`
	ElevHigh           *float64 `json:"elev_high,omitempty"`
	ElevLow            *float64 `json:"elev_low,omitempty"`
	AchievementCount   int      `json:"achievement_count"`
	PRCount            int      `json:"pr_count"`
}

// Client calls the Strava API with a caller-supplied bearer token.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	log        zerolog.Logger
}

// NewClient returns a client against the production API with a 10s timeout.
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		BaseURL:    APIBase,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.With().Str("component", "strava").Logger(),
	}
}

// Activities fetches a page of the athlete's recent activities.
func (c *Client) Activities(ctx context.Context, accessToken string, page, perPage int) ([]Activity, error) {
	var out []Activity
	params := map[string]string{
		"page":     strconv.Itoa(page),
		"per_page": strconv.Itoa(perPage),
	}
	if err := c.get(ctx, accessToken, "/athlete/activities", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ActivitiesAfter fetches a page of activities started after the given unix
// time; used by the sync worker.
func (c *Client) ActivitiesAfter(ctx context.Context, accessToken string, after int64, page, perPage int) ([]Activity, error) {
	var out []Activity
	params := map[string]string{
		"after":    strconv.FormatInt(after, 10),
		"page":     strconv.Itoa(page),
		"per_page": strconv.Itoa(perPage),
	}
	if err := c.get(ctx, accessToken, "/athlete/activities", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, token, path string, params map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	q := req.URL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("GET %s -> %s: %s", path, resp.Status, string(body))
	}
	return json.Unmarshal(body, out)
}
