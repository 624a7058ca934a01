// Package api is the HTTP client for the remote Holidaze REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"holidaze/internal/config"
	"holidaze/internal/metrics"
	"holidaze/internal/models"
)

const cachePrefix = "holidaze:api:"

// Client calls the Holidaze API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client from the api config section.
func NewClient(cfg config.APIConfig, logger *zerolog.Logger) *Client {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = models.DefaultAPITimeoutSeconds * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
	if cfg.RateLimit.RPS > 0 {
		burst := cfg.RateLimit.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), burst)
	}
	return c
}

// UseRedisCache configures optional Redis caching for venue GET endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// SetHTTPClient replaces the transport client.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, cachePrefix+key).Result()
	if err != nil {
		metrics.IncCacheMiss()
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		metrics.IncCacheMiss()
		return false
	}
	metrics.IncCacheHit()
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, cachePrefix+key, data, c.cacheTTL).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("api cache write failed")
	}
}

// invalidate drops cached entries whose key starts with one of prefixes.
func (c *Client) invalidate(ctx context.Context, prefixes ...string) {
	if c.redis == nil {
		return
	}
	for _, p := range prefixes {
		iter := c.redis.Scan(ctx, 0, cachePrefix+p+"*", 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			c.logger.Warn().Err(err).Str("prefix", p).Msg("api cache scan failed")
			continue
		}
		if len(keys) > 0 {
			_ = c.redis.Del(ctx, keys...).Err()
		}
	}
}

// call describes one API request.
type call struct {
	op     string
	method string
	path   string
	query  url.Values
	token  string
	body   any
	header http.Header
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	var body io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", cl.op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.endpoint(cl.path, cl.query), body)
	if err != nil {
		return nil, err
	}
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.addHeaders(req, cl.token)
	for k, vs := range cl.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

func (c *Client) addHeaders(req *http.Request, token string) {
	if c.apiKey != "" {
		req.Header.Set(models.APIKeyHeader, c.apiKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// do sends the call and decodes a successful body into out (nil to discard).
func (c *Client) do(ctx context.Context, cl call, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return transportError(cl.op, err)
		}
	}

	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveAPIDuration(cl.op, time.Since(start).Seconds())
	if err != nil {
		metrics.IncAPIRequest(cl.op, "error")
		c.logger.Warn().Err(err).Str("op", cl.op).Str("method", cl.method).Str("path", cl.path).Msg("api request failed")
		return transportError(cl.op, err)
	}
	defer resp.Body.Close()

	metrics.IncAPIRequest(cl.op, strconv.Itoa(resp.StatusCode))
	c.logger.Debug().
		Str("op", cl.op).
		Str("method", cl.method).
		Str("path", cl.path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return responseError(cl.op, resp.StatusCode, data)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return &Error{Op: cl.op, StatusCode: resp.StatusCode, Message: "invalid response from server", Err: err}
	}
	return nil
}

// getCached serves a GET from Redis when possible and stores fresh results.
func (c *Client) getCached(ctx context.Context, cl call, cacheKey string, out any) error {
	if c.readCache(ctx, cacheKey, out) {
		return nil
	}
	if err := c.do(ctx, cl, out); err != nil {
		return err
	}
	c.writeCache(ctx, cacheKey, out)
	return nil
}
