// Package api HTTP адаптер репликации: Pull/Push обработчики и websocket live-поток.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/iudanet/gophsync/internal/models"
	"github.com/iudanet/gophsync/internal/replication"
	"github.com/iudanet/gophsync/pkg/api"
)

// ErrUnauthorized сервер отклонил токен доступа
var ErrUnauthorized = errors.New("unauthorized")

// StatusError ответ сервера с кодом ошибки
type StatusError struct {
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Client представляет HTTP клиент репликации одной коллекции
type Client struct {
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	logger     *slog.Logger
	baseURL    string
	collection string
	token      string
}

var (
	_ replication.PullHandler  = (*Client)(nil)
	_ replication.PushHandler  = (*Client)(nil)
	_ replication.PullStreamer = (*Client)(nil)
)

// NewClient создает новый API клиент
func NewClient(baseURL, collection, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		token:      token,
		logger:     logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}

	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "replication-" + collection,
		MaxRequests: 1,                // запросов в half-open состоянии
		Interval:    30 * time.Second, // период сброса счетчиков в closed состоянии
		Timeout:     15 * time.Second, // через сколько open переходит в half-open
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// отказы авторизации и версии протокола не говорят о недоступности сервера
		IsSuccessful: func(err error) bool {
			return err == nil || replication.IsFatal(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return c
}

// Pull читает пакет изменений master после checkpoint
func (c *Client) Pull(ctx context.Context, checkpoint models.Checkpoint, batchSize int) (*models.DocumentsWithCheckpoint, error) {
	query := url.Values{}
	if len(checkpoint) > 0 {
		query.Set("checkpoint", string(checkpoint))
	}
	query.Set("limit", strconv.Itoa(batchSize))
	path := api.ReplicationPath(c.collection, "pull") + "?" + query.Encode()

	var resp api.PullResponse
	if err := c.execute(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("pull request failed: %w", err)
	}

	if resp.Documents == nil {
		resp.Documents = []*models.Document{}
	}
	return &models.DocumentsWithCheckpoint{
		Checkpoint: resp.Checkpoint,
		Documents:  resp.Documents,
	}, nil
}

// Push отправляет строки в master и возвращает конфликтующие состояния
func (c *Client) Push(ctx context.Context, rows []models.WriteRow) ([]*models.Document, error) {
	var resp api.PushResponse
	err := c.execute(ctx, http.MethodPost, api.ReplicationPath(c.collection, "push"), api.PushRequest{Rows: rows}, &resp)
	if err != nil {
		return nil, fmt.Errorf("push request failed: %w", err)
	}
	return resp.Conflicts, nil
}

// Health проверяет доступность сервера
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, api.PathHealth, nil, &resp); err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	return &resp, nil
}

// execute выполняет запрос через circuit breaker
func (c *Client) execute(ctx context.Context, method, path string, body, result any) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.doRequest(ctx, method, path, body, result)
	})
	return err
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setHeaders(req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, respBody)
	}

	// Декодируем успешный ответ
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func (c *Client) setHeaders(h http.Header) {
	h.Set(api.ProtocolHeader, api.ProtocolVersion)
	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
}

// statusError переводит код ответа в ошибку репликации.
// 426 и отказ авторизации повторять бесполезно.
func statusError(code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		msg = errResp.Error
		if errResp.Message != "" {
			msg += ": " + errResp.Message
		}
	}
	statusErr := &StatusError{StatusCode: code, Message: msg}

	switch code {
	case http.StatusUpgradeRequired:
		return fmt.Errorf("%w: %w", replication.ErrProtocolMismatch, statusErr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return backoff.Permanent(fmt.Errorf("%w: %w", ErrUnauthorized, statusErr))
	default:
		return statusErr
	}
}
