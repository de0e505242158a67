// Package api is the REST client for the todos HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/model"
)

// DefaultBaseURL is where the API listens in local development.
const DefaultBaseURL = "http://localhost:3000"

// Client talks to the todos API. The zero value is not usable; call New.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	token     string
	logger    *log.Logger
	validator *validator
}

// Option configures a Client.
type Option func(*Client) error

// WithTimeout bounds every request. Each Client owns its http.Client, so
// this never touches a shared one.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.http.Timeout = d
		return nil
	}
}

// WithToken sends the token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) error {
		c.token = strings.TrimSpace(token)
		return nil
	}
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) error {
		c.logger = l
		return nil
	}
}

// WithStrict validates every response envelope against the bundled schemas.
func WithStrict(strict bool) Option {
	return func(c *Client) error {
		if !strict {
			c.validator = nil
			return nil
		}
		v, err := newValidator()
		if err != nil {
			return err
		}
		c.validator = v
		return nil
	}
}

// New builds a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL.String() }

type listEnvelope struct {
	Data         []model.Todo `json:"data"`
	Informations *struct {
		Total int `json:"total"`
	} `json:"informations,omitempty"`
	Status string `json:"status,omitempty"`
}

func (e listEnvelope) list() model.TodoList {
	l := model.TodoList{Items: e.Data, Status: e.Status}
	if l.Items == nil {
		l.Items = []model.Todo{}
	}
	if e.Informations != nil {
		l.Total = e.Informations.Total
	}
	return l
}

type entityEnvelope struct {
	Data model.Todo `json:"data"`
}

type countEnvelope struct {
	Data int `json:"data"`
}

// ListTodos returns the todos matching status.
func (c *Client) ListTodos(ctx context.Context, status model.Status) (model.TodoList, error) {
	var env listEnvelope
	q := url.Values{"status": {status.String()}}
	if err := c.do(ctx, http.MethodGet, "/api/todos", q, nil, schemaList, &env); err != nil {
		return model.TodoList{}, err
	}
	return env.list(), nil
}

// SearchTodos returns the todos whose description contains term.
func (c *Client) SearchTodos(ctx context.Context, term string) (model.TodoList, error) {
	var env listEnvelope
	q := url.Values{"search_term": {term}}
	if err := c.do(ctx, http.MethodGet, "/api/todos", q, nil, schemaList, &env); err != nil {
		return model.TodoList{}, err
	}
	return env.list(), nil
}

// CountTodos returns how many todos match status.
func (c *Client) CountTodos(ctx context.Context, status model.Status) (int, error) {
	var env countEnvelope
	q := url.Values{"status": {status.String()}}
	if err := c.do(ctx, http.MethodGet, "/api/todos/count", q, nil, schemaCount, &env); err != nil {
		return 0, err
	}
	return env.Data, nil
}

// CreateTodo adds a todo and returns it as stored by the server.
func (c *Client) CreateTodo(ctx context.Context, description string) (model.Todo, error) {
	var env entityEnvelope
	body := map[string]string{"description": description}
	if err := c.do(ctx, http.MethodPost, "/api/todos", nil, body, schemaEntity, &env); err != nil {
		return model.Todo{}, err
	}
	return env.Data, nil
}

// MarkAsDone completes a todo.
func (c *Client) MarkAsDone(ctx context.Context, id string) (model.Todo, error) {
	return c.mark(ctx, id, "mark_as_done")
}

// MarkAsUndone reopens a todo.
func (c *Client) MarkAsUndone(ctx context.Context, id string) (model.Todo, error) {
	return c.mark(ctx, id, "mark_as_undone")
}

func (c *Client) mark(ctx context.Context, id, action string) (model.Todo, error) {
	var env entityEnvelope
	p := "/api/todos/" + url.PathEscape(id) + "/" + action
	if err := c.do(ctx, http.MethodPatch, p, nil, nil, schemaEntity, &env); err != nil {
		return model.Todo{}, err
	}
	return env.Data, nil
}

// DeleteTodo removes a todo. The server answers without a body.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/todos/"+url.PathEscape(id), nil, nil, "", nil)
}

func (c *Client) do(ctx context.Context, method, p string, q url.Values, in any, schema string, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + p
	if q != nil {
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("json marshal: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", "method", method, "path", p, "err", err)
		return fmt.Errorf("%s %s: %w", method, p, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	c.logger.Debug("api request", "method", method, "path", p, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(method, p, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if c.validator != nil && schema != "" {
		if err := c.validator.validate(schema, raw); err != nil {
			return err
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	return nil
}

func decodeError(method, p string, code int, raw []byte) error {
	e := &Error{StatusCode: code, Method: method, Path: p}
	var body struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
		e.Status = body.Status
		e.Message = body.Error
	} else if len(raw) > 0 {
		e.Message = strings.TrimSpace(string(raw))
	}
	return e
}
