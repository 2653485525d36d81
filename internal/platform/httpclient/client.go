package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/skalibog/vpchart/pkg/logger"
)

// Client HTTP-клиент с ограничением частоты запросов и повторами
type Client struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	opts       Options
}

// Options параметры клиента
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxRetries        int
	MaxElapsedTime    time.Duration
	InitialInterval   time.Duration
}

// New создает клиент; нулевые параметры заменяются значениями по умолчанию
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.MaxElapsedTime <= 0 {
		opts.MaxElapsedTime = 30 * time.Second
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}

	burst := max(1, int(opts.RequestsPerSecond))
	return &Client{
		HTTPClient: &http.Client{Timeout: opts.Timeout},
		Limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst),
		opts:       opts,
	}
}

// StatusError ответ с кодом, отличным от 200
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("неожиданный код ответа %d (%s) от %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// Temporary ошибки сервера и 429 имеет смысл повторить
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Do выполняет запрос с ожиданием лимитера и экспоненциальными повторами.
// Тело успешного ответа закрывает вызывающий.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	var resp *http.Response
	attempt := 0

	operation := func() error {
		attempt++
		if err := c.Limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("ошибка ожидания лимитера: %w", err))
		}

		r, err := c.HTTPClient.Do(req.Clone(ctx))
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		if r.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, r.Body)
			r.Body.Close()
			statusErr := &StatusError{StatusCode: r.StatusCode, URL: req.URL.Redacted()}
			if !statusErr.Temporary() {
				return backoff.Permanent(statusErr)
			}
			return statusErr
		}
		resp = r
		return nil
	}

	notify := func(err error, wait time.Duration) {
		logger.Warn("Повтор HTTP-запроса",
			zap.String("url", req.URL.Redacted()),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.InitialInterval = c.opts.InitialInterval
	strategy.MaxElapsedTime = c.opts.MaxElapsedTime

	policy := backoff.WithContext(backoff.WithMaxRetries(strategy, uint64(c.opts.MaxRetries)), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetJSON выполняет GET и разбирает JSON-ответ в out
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ошибка разбора ответа: %w", err)
	}
	return nil
}

// IsStatus проверяет, что err вызвана ответом с указанным кодом
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
