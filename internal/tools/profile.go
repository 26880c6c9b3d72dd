package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const profileUserAgent = "IyadBot/1.0"

// ProfileClient fetches user profiles from the chat service's REST API using
// the websocket session token as the bearer credential.
type ProfileClient struct {
	BaseURL string
	Client  *http.Client
}

// NewProfileClient returns a client against the production profile API.
func NewProfileClient() *ProfileClient {
	return &ProfileClient{
		BaseURL: "https://api.chatp.net/v2/user_profile",
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// DisplayName resolves a remote user id to its profile display name.
func (p *ProfileClient) DisplayName(ctx context.Context, token string, userID int64) (string, error) {
	if token == "" {
		return "", errors.New("tools: no session token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL, nil)
	if err != nil {
		return "", fmt.Errorf("tools: profile request: %w", err)
	}
	q := req.URL.Query()
	q.Set("user_id", strconv.FormatInt(userID, 10))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", profileUserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tools: profile fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tools: profile status %d", resp.StatusCode)
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("tools: profile decode: %w", err)
	}
	if body.Name == "" {
		return "", errors.New("tools: profile has no name")
	}
	return body.Name, nil
}
