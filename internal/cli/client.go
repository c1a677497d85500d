package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// QueueInfo — описание очереди.
type QueueInfo struct {
	Name         string         `json:"name"`
	Exchange     string         `json:"exchange"`
	ExchangeType string         `json:"exchange_type"`
	RoutingKey   string         `json:"routing_key"`
	Durable      bool           `json:"durable"`
	AutoDelete   bool           `json:"auto_delete"`
	Arguments    map[string]any `json:"arguments,omitempty"`
}

// Destination — развёрнутые опции доставки.
type Destination struct {
	Queue        QueueInfo      `json:"queue"`
	Exchange     string         `json:"exchange"`
	ExchangeType string         `json:"exchange_type,omitempty"`
	RoutingKey   string         `json:"routing_key"`
	Options      map[string]any `json:"options,omitempty"`
}

// RouteResult — решение маршрутизатора.
type RouteResult struct {
	Task string `json:"task"`
	Destination
	Source string `json:"source"`
	Rule   int    `json:"rule"`
}

// SendResult — результат отправки задачи.
type SendResult struct {
	MessageID string `json:"message_id"`
	Destination
}

// --- Request types ---

// RouteRequest — вызов задачи для route и send.
type RouteRequest struct {
	Task    string         `json:"task"`
	Args    []any          `json:"args,omitempty"`
	Kwargs  map[string]any `json:"kwargs,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError — ошибка, которую вернул сервер.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Client ---

// Client — HTTP-клиент для taskroute API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Backend = (*Client)(nil)

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Route запрашивает решение маршрутизатора.
func (c *Client) Route(ctx context.Context, req RouteRequest) (*RouteResult, error) {
	var result RouteResult
	err := c.post(ctx, "/api/v1/route", req, &result)
	return &result, err
}

// Expand разворачивает назначение.
func (c *Client) Expand(ctx context.Context, dest any) (*Destination, error) {
	body := map[string]any{"destination": dest}
	var result Destination
	err := c.post(ctx, "/api/v1/expand", body, &result)
	return &result, err
}

// Send отправляет задачу через сервер.
func (c *Client) Send(ctx context.Context, req RouteRequest) (*SendResult, error) {
	var result SendResult
	err := c.post(ctx, "/api/v1/send", req, &result)
	return &result, err
}

// Queues возвращает очереди реестра сервера.
func (c *Client) Queues(ctx context.Context) ([]QueueInfo, error) {
	var qs []QueueInfo
	err := c.list(ctx, "/api/v1/queues", &qs)
	return qs, err
}

// Queue возвращает очередь по имени.
func (c *Client) Queue(ctx context.Context, name string) (*QueueInfo, error) {
	var q QueueInfo
	err := c.get(ctx, "/api/v1/queues/"+name, &q)
	return &q, err
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.doData(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	return c.doData(ctx, http.MethodPost, path, body, result)
}

func (c *Client) list(ctx context.Context, path string, result any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(ctx context.Context, method, path string, body any, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return &APIError{Status: resp.StatusCode}
	}

	return &APIError{Status: resp.StatusCode, Code: er.Error.Code, Message: er.Error.Message}
}
