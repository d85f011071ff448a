package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// Client is the programmatic interface to the catsync API.
type Client struct {
	address    string
	headers    map[string]string
	httpClient *http.Client
}

// NewClient creates a new instance of Client.
func NewClient(address string) *Client {
	return &Client{
		address:    address,
		headers:    make(map[string]string),
		httpClient: &http.Client{},
	}
}

// StartSync begins a new run for the given scope, which will be picked
// up by the supervisor shortly after being created.
func (c *Client) StartSync(scope string, request *StartSyncRequest) (*SyncState, error) {
	resp, err := c.doPost(c.buildURL("/api/sync/%s/start", scope), request)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusAccepted:
		return NewSyncStateFromReader(resp.Body)
	case http.StatusConflict:
		return nil, errors.Errorf("a sync is already active for scope %s", scope)
	default:
		return nil, errors.Errorf("failed with status code %d", resp.StatusCode)
	}
}

// PauseSync requests that the run for the given scope pause at the
// next batch boundary.
func (c *Client) PauseSync(scope string) error {
	return c.postControl(scope, "pause")
}

// ResumeSync continues a paused run from its saved cursor.
func (c *Client) ResumeSync(scope string) error {
	return c.postControl(scope, "resume")
}

// CancelSync requests that the run for the given scope stop at the
// next batch boundary.
func (c *Client) CancelSync(scope string) error {
	return c.postControl(scope, "cancel")
}

func (c *Client) postControl(scope, action string) error {
	resp, err := c.doPost(c.buildURL("/api/sync/%s/%s", scope, action), nil)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusAccepted:
		return nil
	case http.StatusNotFound:
		return errors.Errorf("no sync state exists for scope %s", scope)
	case http.StatusConflict:
		return errors.Errorf("scope %s is not in a state that allows %s", scope, action)
	default:
		return errors.Errorf("failed with status code %d", resp.StatusCode)
	}
}

// GetSyncStatus returns the current SyncState snapshot for a scope, or
// nil if the scope has never been synced.
func (c *Client) GetSyncStatus(scope string) (*SyncState, error) {
	resp, err := c.doGet(c.buildURL("/api/sync/%s/status", scope))
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, nil
	case http.StatusOK:
		return NewSyncStateFromReader(resp.Body)
	default:
		return nil, errors.Errorf("failed with status code %d", resp.StatusCode)
	}
}

// GetAllSyncStatuses returns the SyncState snapshots of every known
// scope.
func (c *Client) GetAllSyncStatuses() ([]*SyncState, error) {
	resp, err := c.doGet(c.buildURL("/api/syncs"))
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return NewSyncStateListFromReader(resp.Body)
	default:
		return nil, errors.Errorf("failed with status code %d", resp.StatusCode)
	}
}

// GetSyncHistory returns the run history for a scope, newest first.
func (c *Client) GetSyncHistory(scope string) ([]*SyncRun, error) {
	resp, err := c.doGet(c.buildURL("/api/sync/%s/history", scope))
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return NewSyncRunListFromReader(resp.Body)
	default:
		return nil, errors.Errorf("failed with status code %d", resp.StatusCode)
	}
}

// GetRecentLogs returns the recent log feed for a scope in
// chronological order.
func (c *Client) GetRecentLogs(scope string) ([]*LogEntry, error) {
	resp, err := c.doGet(c.buildURL("/api/sync/%s/logs", scope))
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return NewLogEntryListFromReader(resp.Body)
	default:
		return nil, errors.Errorf("failed with status code %d", resp.StatusCode)
	}
}

func (c *Client) buildURL(urlPath string, args ...interface{}) string {
	return fmt.Sprintf("%s%s", c.address, fmt.Sprintf(urlPath, args...))
}

func (c *Client) doGet(u string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Add(k, v)
	}

	return c.httpClient.Do(req)
}

func (c *Client) doPost(u string, request interface{}) (*http.Response, error) {
	requestBytes, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(requestBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Add(k, v)
	}

	return c.httpClient.Do(req)
}

// closeBody ensures the Body of an http.Response is properly closed.
func closeBody(r *http.Response) {
	if r.Body != nil {
		_, _ = io.Copy(io.Discard, r.Body)
		_ = r.Body.Close()
	}
}
