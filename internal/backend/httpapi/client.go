// Package httpapi talks to the stories API over JSON/HTTP.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/princekumarofficial/stories-client/internal/backend"
	"github.com/princekumarofficial/stories-client/internal/types"
	"github.com/princekumarofficial/stories-client/internal/utils/response"
)

// maxBodySize bounds how much of a response is read.
const maxBodySize = 8 << 20

// ErrUnexpectedStatus is the cause of every failure built from a non-2xx answer.
var ErrUnexpectedStatus = errors.New("unexpected status")

var _ backend.Backend = (*Client)(nil)

type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	validate *validator.Validate
}

// New creates a client for the API rooted at baseURL, e.g.
// "https://example.com/api". An empty token sends no Authorization header.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		http:     &http.Client{Timeout: timeout},
		validate: validator.New(),
	}
}

func (c *Client) FetchStories(ctx context.Context) (types.Collection, error) {
	var stories types.Collection
	if err := c.do(ctx, http.MethodGet, "/stories", nil, &stories); err != nil {
		return nil, err
	}

	// Story content is stored as returned; only undecodable bodies fail.
	if stories == nil {
		stories = types.Collection{}
	}

	return stories, nil
}

func (c *Client) CreateStory(ctx context.Context, req types.CreateStoryRequest) (types.Story, error) {
	var story types.Story
	if err := c.do(ctx, http.MethodPost, "/stories", req, &story); err != nil {
		return types.Story{}, err
	}

	return story, nil
}

func (c *Client) ViewStory(ctx context.Context, storyID string, req types.ViewStoryRequest) (types.ViewStoryResponse, error) {
	var resp types.ViewStoryResponse
	path := "/stories/" + url.PathEscape(storyID) + "/view"
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return types.ViewStoryResponse{}, err
	}

	if err := c.validate.Struct(resp); err != nil {
		return types.ViewStoryResponse{}, backend.Fail(err, "invalid view confirmation")
	}

	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return backend.Fail(err, "failed to encode request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return backend.Fail(err, "")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return backend.Fail(err, "")
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return backend.Fail(err, "failed to read response")
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return backend.Fail(
			fmt.Errorf("%s %s: %w %d", method, path, ErrUnexpectedStatus, res.StatusCode),
			errorMessage(res.StatusCode, data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return backend.Fail(err, "failed to decode response")
	}

	return nil
}

// errorMessage prefers the message of the API's error envelope and falls back
// to the status text.
func errorMessage(status int, body []byte) string {
	if msg, ok := response.ErrorMessage(body); ok {
		return msg
	}
	return http.StatusText(status)
}
