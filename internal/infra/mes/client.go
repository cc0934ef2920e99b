// Package mes клиент REST API производственного бэкенда: заказы, этапы,
// остатки рабочих центров и пакетная отправка расхода.
package mes

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
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/Spok95/shopfloor/internal/metrics"
	"github.com/Spok95/shopfloor/internal/workflow"
)

const maxErrorBody = 512

type Options struct {
	BaseURL          string
	Token            string
	Timeout          time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HTTPClient       *http.Client
	Log              *slog.Logger
	Metrics          *metrics.Metrics
}

// Client реализует workflow.StockLookup и workflow.UsageSubmitter.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	log      *slog.Logger
	metrics  *metrics.Metrics
	breaker  *breaker
	validate *validator.Validate
	newKey   func() string
}

var (
	_ workflow.StockLookup    = (*Client)(nil)
	_ workflow.UsageSubmitter = (*Client)(nil)
)

func New(opts Options) *Client {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		token:    opts.Token,
		http:     hc,
		log:      log,
		metrics:  opts.Metrics,
		breaker:  newBreaker("mes", opts.FailureThreshold, opts.OpenTimeout, log, opts.Metrics),
		validate: validator.New(),
		newKey:   uuid.NewString,
	}
}

// ListOrders заказы, у которых есть этапы на рабочих центрах данного типа.
func (c *Client) ListOrders(ctx context.Context, wcType workflow.WorkcenterType, status string) ([]workflow.Order, error) {
	q := url.Values{}
	q.Set("workcenter_type", string(wcType))
	if status != "" {
		q.Set("status", status)
	}
	var dtos []orderDTO
	err := c.get(ctx, "orders", "/api/orders/?"+q.Encode(), func(body []byte) (err error) {
		dtos, err = decodeList[orderDTO](body)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]workflow.Order, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (c *Client) ListProductionSteps(ctx context.Context, orderID int64, wcType workflow.WorkcenterType) ([]workflow.ProductionStep, error) {
	path := fmt.Sprintf("/api/orders/%d/production-steps/", orderID)
	if wcType != "" {
		path += "?" + url.Values{"workcenter_type": {string(wcType)}}.Encode()
	}
	var dtos []productionStepDTO
	err := c.get(ctx, "production_steps", path, func(body []byte) (err error) {
		dtos, err = decodeList[productionStepDTO](body)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]workflow.ProductionStep, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (c *Client) WorkcenterStock(ctx context.Context, workcenterID int64) (*workflow.StockSnapshot, error) {
	path := fmt.Sprintf("/api/workcenters/%d/stock/", workcenterID)
	var dto stockDTO
	err := c.get(ctx, "stock", path, func(body []byte) error {
		return json.Unmarshal(body, &dto)
	})
	if err != nil {
		return nil, err
	}
	snap := dto.toDomain(workcenterID)
	snap.FetchedAt = time.Now()
	return snap, nil
}

// SubmitUsage отправляет корзину. Отказ бэкенда (4xx с телом) возвращается как
// результат с Success=false, а не как ошибка транспорта.
func (c *Client) SubmitUsage(ctx context.Context, req workflow.BulkUsageRequest) (*workflow.SubmitResult, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid usage request: %w", err)
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode usage request: %w", err)
	}
	// повтор той же корзины приходит с прежним ключом из сессии
	key := req.IdempotencyKey
	if key == "" {
		key = c.newKey()
	}

	var res workflow.SubmitResult
	started := time.Now()
	err = c.breaker.execute(func() error {
		status, body, err := c.do(ctx, http.MethodPost, "/api/material-usage/bulk/", payload, key)
		if err != nil {
			return err
		}
		if status >= http.StatusInternalServerError {
			return statusError(status, body)
		}
		if err := json.Unmarshal(body, &res); err != nil {
			if status >= http.StatusBadRequest {
				res = workflow.SubmitResult{Success: false, Error: fmt.Sprintf("backend returned status %d", status)}
				return nil
			}
			return fmt.Errorf("failed to decode usage response: %w", err)
		}
		if status >= http.StatusBadRequest {
			res.Success = false
		}
		return nil
	})
	c.metrics.ObserveBackend("submit_usage", started, err)
	if err != nil {
		c.log.Error("usage submission failed", "order_id", req.OrderID, "step_id", req.ProductionStepID, "err", err)
		return nil, err
	}
	c.log.Info("usage submitted",
		"order_id", req.OrderID,
		"step_id", req.ProductionStepID,
		"workcenter_id", req.WorkcenterID,
		"items", len(req.Items),
		"success", res.Success,
		"idempotency_key", key,
	)
	return &res, nil
}

func (c *Client) get(ctx context.Context, op, path string, decode func([]byte) error) error {
	started := time.Now()
	notFound := false
	err := c.breaker.execute(func() error {
		status, body, err := c.do(ctx, http.MethodGet, path, nil, "")
		if err != nil {
			return err
		}
		// 404 не говорит о здоровье бэкенда, breaker его не считает
		if status == http.StatusNotFound {
			notFound = true
			return nil
		}
		if status != http.StatusOK {
			return statusError(status, body)
		}
		if err := decode(body); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", op, err)
		}
		return nil
	})
	if err == nil && notFound {
		err = fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	c.metrics.ObserveBackend(op, started, err)
	if err != nil {
		c.log.Warn("backend request failed", "op", op, "path", path, "err", err)
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, idempotencyKey string) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, data, nil
}

func statusError(status int, body []byte) error {
	msg := truncateUTF8(strings.TrimSpace(string(body)), maxErrorBody)
	if msg == "" {
		return fmt.Errorf("backend returned status %d", status)
	}
	return fmt.Errorf("backend returned status %d: %s", status, msg)
}

// truncateUTF8 обрезает строку не длиннее n байт по границе руны;
// битые последовательности из тела ответа заменяются.
func truncateUTF8(s string, n int) string {
	if len(s) > n {
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		s = s[:n]
	}
	return strings.ToValidUTF8(s, "\uFFFD")
}

// IsUnavailable бэкенд недоступен из-за открытого breaker'а.
func IsUnavailable(err error) bool { return errors.Is(err, ErrCircuitOpen) }

// Unavailable breaker открыт, запросы к бэкенду сейчас не выполняются.
func (c *Client) Unavailable() bool { return c.breaker.state() == gobreaker.StateOpen }
