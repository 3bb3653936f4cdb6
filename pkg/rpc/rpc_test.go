package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

type echoParams struct {
	Text string `json:"text"`
}

var errBoom = errors.New("boom")

func startServer(t *testing.T) (*Server, string) {
	t.Helper()
	s := NewServer()
	s.Register("Echo.Say", func(ctx context.Context, params json.RawMessage) (any, error) {
		var p echoParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &Error{Code: CodeInvalid, Message: err.Error()}
		}
		return p, nil
	})
	s.Register("Echo.Fail", func(ctx context.Context, params json.RawMessage) (any, error) {
		return nil, errBoom
	})
	s.Register("Echo.Block", func(ctx context.Context, params json.RawMessage) (any, error) {
		time.Sleep(200 * time.Millisecond)
		return nil, nil
	})
	ln, err := s.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go s.Serve(ln)
	t.Cleanup(s.Stop)
	return s, ln.Addr().String()
}

func TestCallRoundTrip(t *testing.T) {
	s, addr := startServer(t)
	if s.MethodCount() != 3 {
		t.Errorf("expected 3 methods, got %d", s.MethodCount())
	}
	ctx := context.Background()
	c, err := Dial(ctx, addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	var out echoParams
	if err := c.Call(ctx, "Echo.Say", echoParams{Text: "hi"}, &out); err != nil {
		t.Fatalf("call: %v", err)
	}
	if out.Text != "hi" {
		t.Errorf("expected echo, got %+v", out)
	}
}

func TestCallErrors(t *testing.T) {
	_, addr := startServer(t)
	ctx := context.Background()
	c, err := Dial(ctx, addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	tests := []struct {
		method string
		params any
		code   string
	}{
		{"Echo.Missing", nil, CodeUnknownMethod},
		{"Echo.Fail", nil, CodeInternal},
		{"Echo.Say", "not an object", CodeInvalid},
	}
	for _, tt := range tests {
		err := c.Call(ctx, tt.method, tt.params, nil)
		var wire *Error
		if !errors.As(err, &wire) {
			t.Fatalf("%s: expected *Error, got %v", tt.method, err)
		}
		if wire.Code != tt.code {
			t.Errorf("%s: expected code %s, got %s", tt.method, tt.code, wire.Code)
		}
	}
}

func TestCustomErrorMapper(t *testing.T) {
	s, addr := startServer(t)
	s.SetErrorMapper(func(err error) *Error {
		if errors.Is(err, errBoom) {
			return &Error{Code: CodeUnavailable, Message: "try later"}
		}
		return defaultErrorMapper(err)
	})
	c, err := Dial(context.Background(), addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	err = c.Call(context.Background(), "Echo.Fail", nil, nil)
	var wire *Error
	if !errors.As(err, &wire) || wire.Code != CodeUnavailable {
		t.Errorf("expected unavailable, got %v", err)
	}
}

func TestConcurrentCalls(t *testing.T) {
	_, addr := startServer(t)
	c, err := Dial(context.Background(), addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out echoParams
			if err := c.Call(context.Background(), "Echo.Say", echoParams{Text: "x"}, &out); err != nil || out.Text != "x" {
				t.Errorf("concurrent call failed: %v %+v", err, out)
			}
		}()
	}
	wg.Wait()
}

func TestCallDeadline(t *testing.T) {
	_, addr := startServer(t)
	c, err := Dial(context.Background(), addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := c.Call(ctx, "Echo.Block", nil, nil); err == nil {
		t.Error("expected deadline error")
	}
}

func TestCallRecoversAfterDeadline(t *testing.T) {
	_, addr := startServer(t)
	c, err := Dial(context.Background(), addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := c.Call(ctx, "Echo.Block", nil, nil); err == nil {
		t.Fatal("expected deadline error")
	}

	for i := 0; i < 3; i++ {
		var out echoParams
		if err := c.Call(context.Background(), "Echo.Say", echoParams{Text: "again"}, &out); err != nil {
			t.Fatalf("call %d after timeout: %v", i, err)
		}
		if out.Text != "again" {
			t.Errorf("call %d: expected echo, got %+v", i, out)
		}
	}
}

func TestCallAfterClose(t *testing.T) {
	_, addr := startServer(t)
	c, err := Dial(context.Background(), addr)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Call(context.Background(), "Echo.Say", echoParams{}, nil); !errors.Is(err, ErrClientClosed) {
		t.Errorf("expected ErrClientClosed, got %v", err)
	}
}
