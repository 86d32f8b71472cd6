package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/grovetools/teamboard/errors"
	"github.com/grovetools/teamboard/pkg/team"
)

// RemoteClient implements Client against a server's HTTP API.
type RemoteClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewRemoteClient creates a client for the server at baseURL, for example
// http://127.0.0.1:3001.
func NewRemoteClient(baseURL string) *RemoteClient {
	transport := &http.Transport{
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}
	return &RemoteClient{
		httpClient: &http.Client{Transport: transport, Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// apiError is the server's error body.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	TeamID  string `json:"teamId"`
}

func (c *RemoteClient) getJSON(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeTransport, "request failed").WithDetail("path", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body apiError
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return statusError(resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// statusError maps an HTTP error response back to a coded error.
func statusError(status int, body apiError) error {
	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	switch status {
	case http.StatusNotFound:
		if body.TeamID != "" {
			return errors.TeamNotFound(body.TeamID)
		}
		return errors.New(errors.ErrCodeNotFound, msg)
	case http.StatusBadRequest:
		return errors.New(errors.ErrCodeValidation, msg)
	case http.StatusServiceUnavailable:
		return errors.New(errors.ErrCodeCapacity, msg)
	default:
		return errors.New(errors.ErrCodeInternal, fmt.Sprintf("server returned %d: %s", status, msg))
	}
}

// ListTeams returns every team snapshot.
func (c *RemoteClient) ListTeams(ctx context.Context) ([]*team.Team, error) {
	var teams []*team.Team
	if err := c.getJSON(ctx, "/api/teams", &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// GetTeam returns one snapshot.
func (c *RemoteClient) GetTeam(ctx context.Context, id string) (*team.Team, error) {
	var t team.Team
	if err := c.getJSON(ctx, "/api/teams/"+url.PathEscape(id), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetMessages returns a team's messages.
func (c *RemoteClient) GetMessages(ctx context.Context, id string, q team.Query) ([]team.Message, error) {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Before != nil {
		params.Set("before", q.Before.UTC().Format(time.RFC3339Nano))
	}
	path := "/api/teams/" + url.PathEscape(id) + "/messages"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var messages []team.Message
	if err := c.getJSON(ctx, path, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// Status returns the raw /api/status body.
func (c *RemoteClient) Status(ctx context.Context) (json.RawMessage, error) {
	var body json.RawMessage
	if err := c.getJSON(ctx, "/api/status", &body); err != nil {
		return nil, err
	}
	return body, nil
}

// IsRunning returns true if the server is available and responding.
func (c *RemoteClient) IsRunning() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Events subscribes to /api/events. Heartbeat comments are skipped.
func (c *RemoteClient) Events(ctx context.Context) (<-chan Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/events", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// The shared client has a timeout; streams must not.
	streamClient := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTransport, "failed to connect to stream")
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		var body apiError
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, statusError(resp.StatusCode, body)
	}

	ch := make(chan Event, 16)
	go func() {
		defer resp.Body.Close()
		defer close(ch)

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

		var ev Event
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				if ev.Name == "" && ev.Data == nil {
					continue
				}
				if ev.Name == "" {
					ev.Name = "message"
				}
				select {
				case ch <- ev:
				case <-ctx.Done():
					return
				}
				ev = Event{}
			case strings.HasPrefix(line, ":"):
			case strings.HasPrefix(line, "event:"):
				ev.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				ev.Data = json.RawMessage(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			}
		}
	}()
	return ch, nil
}

// Close releases idle connections.
func (c *RemoteClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

var _ Client = (*RemoteClient)(nil)
