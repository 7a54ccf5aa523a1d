package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultCLOBBase  = "https://clob.polymarket.com"
	defaultGammaBase = "https://gamma-api.polymarket.com"

	httpTimeout   = 10 * time.Second
	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client habla con las dos APIs públicas de Polymarket (CLOB y Gamma).
// Cada endpoint con límite propio lleva su propio token bucket, y cada
// request pasa por el retry loop de do.
type Client struct {
	http      *http.Client
	clobBase  string
	gammaBase string

	clobLimiter  *rate.Limiter
	gammaLimiter *rate.Limiter
	booksLimiter *rate.Limiter
}

// NewClient crea un Client. Con base URLs vacíos se usan los endpoints
// de producción.
func NewClient(clobBase, gammaBase string) *Client {
	if clobBase == "" {
		clobBase = defaultCLOBBase
	}
	if gammaBase == "" {
		gammaBase = defaultGammaBase
	}
	// Presupuestos al 60% del límite publicado de cada endpoint; el margen
	// restante absorbe los retries.
	//
	//	CLOB general 9000/10s → 540/s
	//	Gamma        300/10s  → 18/s
	//	CLOB /books  500/10s  → 30/s
	return &Client{
		http:         &http.Client{Timeout: httpTimeout},
		clobBase:     clobBase,
		gammaBase:    gammaBase,
		clobLimiter:  rate.NewLimiter(540, 50),
		gammaLimiter: rate.NewLimiter(18, 10),
		booksLimiter: rate.NewLimiter(30, 5),
	}
}

func (c *Client) get(ctx context.Context, limiter *rate.Limiter, url string, out any) error {
	return c.do(ctx, limiter, http.MethodGet, url, nil, out)
}

func (c *Client) post(ctx context.Context, limiter *rate.Limiter, url string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	return c.do(ctx, limiter, http.MethodPost, url, raw, out)
}

// do ejecuta una request JSON contra la API. La request se reconstruye en
// cada intento; 429 y 5xx reintentan con backoff, el resto de 4xx corta
// porque repetir la misma request mal formada no la arregla.
func (c *Client) do(ctx context.Context, limiter *rate.Limiter, method, url string, body []byte, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.backoff(ctx, attempt)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			slog.Warn("polymarket: 429, backing off", "url", url, "attempt", attempt+1)
			c.backoff(ctx, attempt)
			continue

		case resp.StatusCode >= 500:
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.backoff(ctx, attempt)
			continue

		case resp.StatusCode >= 400:
			raw, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, raw)
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// backoff duerme 500ms, 1s, 2s... o hasta que el contexto se cancele.
func (c *Client) backoff(ctx context.Context, attempt int) {
	select {
	case <-time.After(baseRetryWait << attempt):
	case <-ctx.Done():
	}
}
