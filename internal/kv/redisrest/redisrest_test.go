package redisrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/contentdesk/contentdesk/internal/kv"
	"github.com/contentdesk/contentdesk/internal/kv/kvtest"
	"github.com/contentdesk/contentdesk/internal/kv/memkv"
)

// fakeEndpoint implements the REST command protocol on top of a memkv store,
// so the client can be exercised without a live endpoint.
type fakeEndpoint struct {
	store *memkv.Store
	token string
}

func (f *fakeEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.token != "" && r.Header.Get("Authorization") != "Bearer "+f.token {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == "/pipeline" {
		var cmds [][]any
		if err := json.NewDecoder(r.Body).Decode(&cmds); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		results := make([]map[string]any, 0, len(cmds))
		for _, cmd := range cmds {
			res, err := f.eval(r.Context(), cmd)
			if err != nil {
				results = append(results, map[string]any{"error": err.Error()})
				continue
			}
			results = append(results, map[string]any{"result": res})
		}
		_ = json.NewEncoder(w).Encode(results)
		return
	}

	var cmd []any
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	res, err := f.eval(r.Context(), cmd)
	if err != nil {
		_ = json.NewEncoder(w).Encode(map[string]any{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"result": res})
}

func (f *fakeEndpoint) eval(ctx context.Context, cmd []any) (any, error) {
	if len(cmd) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	name, _ := cmd[0].(string)
	args := make([]string, 0, len(cmd)-1)
	for _, a := range cmd[1:] {
		switch v := a.(type) {
		case string:
			args = append(args, v)
		case float64:
			args = append(args, strconv.FormatInt(int64(v), 10))
		default:
			return nil, fmt.Errorf("bad argument %v", a)
		}
	}

	s := f.store
	switch name {
	case "PING":
		return "PONG", nil
	case "HSET":
		fields := map[string]string{}
		for i := 1; i+1 < len(args); i += 2 {
			fields[args[i]] = args[i+1]
		}
		return 1, s.HSet(ctx, args[0], fields)
	case "HGET":
		v, ok, err := s.HGet(ctx, args[0], args[1])
		if err != nil || !ok {
			return nil, err
		}
		return v, nil
	case "HGETALL":
		m, err := s.HGetAll(ctx, args[0])
		if err != nil {
			return nil, err
		}
		flat := make([]string, 0, 2*len(m))
		for k, v := range m {
			flat = append(flat, k, v)
		}
		return flat, nil
	case "HDEL":
		return 1, s.HDel(ctx, args[0], args[1:]...)
	case "SADD":
		return 1, s.SAdd(ctx, args[0], args[1:]...)
	case "SREM":
		return 1, s.SRem(ctx, args[0], args[1:]...)
	case "SMEMBERS":
		return s.SMembers(ctx, args[0])
	case "SISMEMBER":
		ok, err := s.SIsMember(ctx, args[0], args[1])
		if err != nil {
			return nil, err
		}
		if ok {
			return 1, nil
		}
		return 0, nil
	case "ZADD":
		members := make([]kv.ZMember, 0, (len(args)-1)/2)
		for i := 1; i+1 < len(args); i += 2 {
			score, err := strconv.ParseFloat(args[i], 64)
			if err != nil {
				return nil, err
			}
			members = append(members, kv.ZMember{Member: args[i+1], Score: score})
		}
		return 1, s.ZAdd(ctx, args[0], members...)
	case "ZREM":
		return 1, s.ZRem(ctx, args[0], args[1:]...)
	case "ZRANGE", "ZREVRANGE":
		start, _ := strconv.ParseInt(args[1], 10, 64)
		stop, _ := strconv.ParseInt(args[2], 10, 64)
		var members []kv.ZMember
		var err error
		if name == "ZRANGE" {
			members, err = s.ZRangeWithScores(ctx, args[0], start, stop)
		} else {
			members, err = s.ZRevRangeWithScores(ctx, args[0], start, stop)
		}
		if err != nil {
			return nil, err
		}
		flat := make([]string, 0, 2*len(members))
		for _, m := range members {
			flat = append(flat, m.Member, strconv.FormatFloat(m.Score, 'f', -1, 64))
		}
		return flat, nil
	case "RPUSH":
		return 1, s.RPush(ctx, args[0], args[1:]...)
	case "LRANGE":
		start, _ := strconv.ParseInt(args[1], 10, 64)
		stop, _ := strconv.ParseInt(args[2], 10, 64)
		return s.LRange(ctx, args[0], start, stop)
	case "LLEN":
		return s.LLen(ctx, args[0])
	case "GET":
		v, ok, err := s.Get(ctx, args[0])
		if err != nil || !ok {
			return nil, err
		}
		return v, nil
	case "SET":
		return "OK", s.Set(ctx, args[0], args[1])
	case "DEL":
		return len(args), s.Del(ctx, args...)
	case "EXISTS":
		ok, err := s.Exists(ctx, args[0])
		if err != nil {
			return nil, err
		}
		if ok {
			return 1, nil
		}
		return 0, nil
	case "KEYS":
		return s.Scan(ctx, args[0])
	}
	return nil, fmt.Errorf("unknown command %q", name)
}

func newTestClient(t *testing.T, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(&fakeEndpoint{store: memkv.New(), token: token})
	t.Cleanup(srv.Close)
	return New(srv.URL, token, 5*time.Second)
}

func TestCompliance(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kv.Store {
		return newTestClient(t, "test-token")
	})
}

func TestBearerTokenSent(t *testing.T) {
	c := newTestClient(t, "secret")
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping with token: %v", err)
	}

	// A client with the wrong token is rejected by the endpoint.
	srv := httptest.NewServer(&fakeEndpoint{store: memkv.New(), token: "secret"})
	t.Cleanup(srv.Close)
	bad := New(srv.URL, "wrong", 5*time.Second)
	if err := bad.Ping(context.Background()); err == nil {
		t.Fatal("Ping with wrong token should fail")
	}
}

func TestCommandErrorSurfaced(t *testing.T) {
	c := newTestClient(t, "")
	ctx := context.Background()

	if err := c.HSet(ctx, "k", map[string]string{"f": "v"}); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	if err := c.SAdd(ctx, "k", "m"); err == nil {
		t.Fatal("wrong-type error from the endpoint should surface")
	}
}

func TestPipelineErrorNamesCommand(t *testing.T) {
	c := newTestClient(t, "")
	ctx := context.Background()

	if err := c.SAdd(ctx, "taken", "m"); err != nil {
		t.Fatalf("SAdd: %v", err)
	}

	pipe := c.Pipeline()
	pipe.Set("a", "1")
	pipe.HSet("taken", map[string]string{"f": "v"})
	err := pipe.Exec(ctx)
	if err == nil {
		t.Fatal("Exec should surface the mid-batch failure")
	}
	// Earlier commands in the batch still applied.
	if v, ok, _ := c.Get(ctx, "a"); !ok || v != "1" {
		t.Fatalf("command before failure should apply: v=%q ok=%v", v, ok)
	}
}

func TestEmptyPipelineIsNoop(t *testing.T) {
	c := newTestClient(t, "")
	if err := c.Pipeline().Exec(context.Background()); err != nil {
		t.Fatalf("empty pipeline: %v", err)
	}
}
