// Package redisrest implements kv.Store against a Redis-compatible REST
// endpoint (Upstash-style): each command is a JSON array POSTed to the base
// URL, batches are an array of command arrays POSTed to /pipeline, and every
// response carries either {"result":...} or {"error":"..."}.
package redisrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/contentdesk/contentdesk/internal/kv"
)

// Client talks to one REST store endpoint. It is safe for concurrent use;
// connection pooling is handled by the underlying HTTP client.
type Client struct {
	http *resty.Client
}

// New returns a client for the given base URL authenticating with a bearer
// token. Timeout applies per command round trip; callers wanting tighter
// bounds pass a deadline context.
func New(baseURL, token string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if token != "" {
		c.SetAuthToken(token)
	}
	return &Client{http: c}
}

type commandResult struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

func (c *Client) do(ctx context.Context, cmd []any) (json.RawMessage, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(cmd).Post("/")
	if err != nil {
		return nil, fmt.Errorf("redisrest: %v: %w", cmd[0], err)
	}
	var cr commandResult
	if err := json.Unmarshal(resp.Body(), &cr); err != nil {
		return nil, fmt.Errorf("redisrest: %v: decode response (status %d): %w", cmd[0], resp.StatusCode(), err)
	}
	if cr.Error != "" {
		return nil, fmt.Errorf("redisrest: %v: %s", cmd[0], cr.Error)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("redisrest: %v: status %d", cmd[0], resp.StatusCode())
	}
	return cr.Result, nil
}

// --- result decoding ---

// asString decodes a string result; ok is false for null (missing key/field).
func asString(raw json.RawMessage) (string, bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false, fmt.Errorf("redisrest: expected string result, got %s", raw)
	}
	return s, true, nil
}

func asInt(raw json.RawMessage) (int64, error) {
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	// Some endpoints return integers as strings.
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("redisrest: expected integer result, got %s", raw)
	}
	return strconv.ParseInt(s, 10, 64)
}

func asStringSlice(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("redisrest: expected array result, got %s", raw)
	}
	return out, nil
}

func pairsToMap(flat []string) (map[string]string, error) {
	if len(flat)%2 != 0 {
		return nil, fmt.Errorf("redisrest: odd field/value array of length %d", len(flat))
	}
	out := make(map[string]string, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		out[flat[i]] = flat[i+1]
	}
	return out, nil
}

func pairsToZMembers(flat []string) ([]kv.ZMember, error) {
	if len(flat)%2 != 0 {
		return nil, fmt.Errorf("redisrest: odd member/score array of length %d", len(flat))
	}
	out := make([]kv.ZMember, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		score, err := strconv.ParseFloat(flat[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("redisrest: bad score %q: %w", flat[i+1], err)
		}
		out = append(out, kv.ZMember{Member: flat[i], Score: score})
	}
	return out, nil
}

func formatScore(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

// --- Hashes ---

func (c *Client) HSet(ctx context.Context, key string, fields map[string]string) error {
	cmd := make([]any, 0, 2+2*len(fields))
	cmd = append(cmd, "HSET", key)
	for f, v := range fields {
		cmd = append(cmd, f, v)
	}
	_, err := c.do(ctx, cmd)
	return err
}

func (c *Client) HGet(ctx context.Context, key, field string) (string, bool, error) {
	raw, err := c.do(ctx, []any{"HGET", key, field})
	if err != nil {
		return "", false, err
	}
	return asString(raw)
}

func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	raw, err := c.do(ctx, []any{"HGETALL", key})
	if err != nil {
		return nil, err
	}
	flat, err := asStringSlice(raw)
	if err != nil {
		return nil, err
	}
	return pairsToMap(flat)
}

func (c *Client) HDel(ctx context.Context, key string, fields ...string) error {
	cmd := append([]any{"HDEL", key}, toAny(fields)...)
	_, err := c.do(ctx, cmd)
	return err
}

// --- Sets ---

func (c *Client) SAdd(ctx context.Context, key string, members ...string) error {
	cmd := append([]any{"SADD", key}, toAny(members)...)
	_, err := c.do(ctx, cmd)
	return err
}

func (c *Client) SRem(ctx context.Context, key string, members ...string) error {
	cmd := append([]any{"SREM", key}, toAny(members)...)
	_, err := c.do(ctx, cmd)
	return err
}

func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	raw, err := c.do(ctx, []any{"SMEMBERS", key})
	if err != nil {
		return nil, err
	}
	return asStringSlice(raw)
}

func (c *Client) SIsMember(ctx context.Context, key, member string) (bool, error) {
	raw, err := c.do(ctx, []any{"SISMEMBER", key, member})
	if err != nil {
		return false, err
	}
	n, err := asInt(raw)
	return n == 1, err
}

// --- Sorted sets ---

func (c *Client) ZAdd(ctx context.Context, key string, members ...kv.ZMember) error {
	cmd := make([]any, 0, 2+2*len(members))
	cmd = append(cmd, "ZADD", key)
	for _, m := range members {
		cmd = append(cmd, formatScore(m.Score), m.Member)
	}
	_, err := c.do(ctx, cmd)
	return err
}

func (c *Client) ZRem(ctx context.Context, key string, members ...string) error {
	cmd := append([]any{"ZREM", key}, toAny(members)...)
	_, err := c.do(ctx, cmd)
	return err
}

func (c *Client) ZRangeWithScores(ctx context.Context, key string, start, stop int64) ([]kv.ZMember, error) {
	raw, err := c.do(ctx, []any{"ZRANGE", key, start, stop, "WITHSCORES"})
	if err != nil {
		return nil, err
	}
	flat, err := asStringSlice(raw)
	if err != nil {
		return nil, err
	}
	return pairsToZMembers(flat)
}

func (c *Client) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]kv.ZMember, error) {
	raw, err := c.do(ctx, []any{"ZREVRANGE", key, start, stop, "WITHSCORES"})
	if err != nil {
		return nil, err
	}
	flat, err := asStringSlice(raw)
	if err != nil {
		return nil, err
	}
	return pairsToZMembers(flat)
}

// --- Lists ---

func (c *Client) RPush(ctx context.Context, key string, values ...string) error {
	cmd := append([]any{"RPUSH", key}, toAny(values)...)
	_, err := c.do(ctx, cmd)
	return err
}

func (c *Client) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	raw, err := c.do(ctx, []any{"LRANGE", key, start, stop})
	if err != nil {
		return nil, err
	}
	return asStringSlice(raw)
}

func (c *Client) LLen(ctx context.Context, key string) (int64, error) {
	raw, err := c.do(ctx, []any{"LLEN", key})
	if err != nil {
		return 0, err
	}
	return asInt(raw)
}

// --- Strings and generic keys ---

func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	raw, err := c.do(ctx, []any{"GET", key})
	if err != nil {
		return "", false, err
	}
	return asString(raw)
}

func (c *Client) Set(ctx context.Context, key, value string) error {
	_, err := c.do(ctx, []any{"SET", key, value})
	return err
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	cmd := append([]any{"DEL"}, toAny(keys)...)
	_, err := c.do(ctx, cmd)
	return err
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	raw, err := c.do(ctx, []any{"EXISTS", key})
	if err != nil {
		return false, err
	}
	n, err := asInt(raw)
	return n == 1, err
}

func (c *Client) Scan(ctx context.Context, pattern string) ([]string, error) {
	raw, err := c.do(ctx, []any{"KEYS", pattern})
	if err != nil {
		return nil, err
	}
	return asStringSlice(raw)
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, []any{"PING"})
	return err
}

// --- Pipeline ---

type pipeline struct {
	client *Client
	cmds   [][]any
}

// Pipeline returns a batch submitted as one POST to /pipeline. The endpoint
// executes commands in order but offers no atomicity across them.
func (c *Client) Pipeline() kv.Pipeline {
	return &pipeline{client: c}
}

func (p *pipeline) HSet(key string, fields map[string]string) {
	cmd := make([]any, 0, 2+2*len(fields))
	cmd = append(cmd, "HSET", key)
	for f, v := range fields {
		cmd = append(cmd, f, v)
	}
	p.cmds = append(p.cmds, cmd)
}

func (p *pipeline) HDel(key string, fields ...string) {
	p.cmds = append(p.cmds, append([]any{"HDEL", key}, toAny(fields)...))
}

func (p *pipeline) SAdd(key string, members ...string) {
	p.cmds = append(p.cmds, append([]any{"SADD", key}, toAny(members)...))
}

func (p *pipeline) SRem(key string, members ...string) {
	p.cmds = append(p.cmds, append([]any{"SREM", key}, toAny(members)...))
}

func (p *pipeline) ZAdd(key string, members ...kv.ZMember) {
	cmd := make([]any, 0, 2+2*len(members))
	cmd = append(cmd, "ZADD", key)
	for _, m := range members {
		cmd = append(cmd, formatScore(m.Score), m.Member)
	}
	p.cmds = append(p.cmds, cmd)
}

func (p *pipeline) ZRem(key string, members ...string) {
	p.cmds = append(p.cmds, append([]any{"ZREM", key}, toAny(members)...))
}

func (p *pipeline) RPush(key string, values ...string) {
	p.cmds = append(p.cmds, append([]any{"RPUSH", key}, toAny(values)...))
}

func (p *pipeline) Set(key, value string) {
	p.cmds = append(p.cmds, []any{"SET", key, value})
}

func (p *pipeline) Del(keys ...string) {
	p.cmds = append(p.cmds, append([]any{"DEL"}, toAny(keys)...))
}

func (p *pipeline) Len() int { return len(p.cmds) }

func (p *pipeline) Exec(ctx context.Context) error {
	if len(p.cmds) == 0 {
		return nil
	}
	resp, err := p.client.http.R().SetContext(ctx).SetBody(p.cmds).Post("/pipeline")
	if err != nil {
		return fmt.Errorf("redisrest: pipeline: %w", err)
	}
	var results []commandResult
	if err := json.Unmarshal(resp.Body(), &results); err != nil {
		return fmt.Errorf("redisrest: pipeline: decode response (status %d): %w", resp.StatusCode(), err)
	}
	for i, r := range results {
		if r.Error != "" {
			return fmt.Errorf("redisrest: pipeline command %d (%v): %s", i, p.cmds[i][0], r.Error)
		}
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("redisrest: pipeline: status %d", resp.StatusCode())
	}
	p.cmds = nil
	return nil
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
