// Package rpc is a small JSON-over-TCP request/response layer used for
// service-to-service and CLI-to-server calls.
//
// Protocol: newline-delimited JSON over a persistent TCP connection. Each
// Request carries a method name ("Service.Method") and raw params; each
// Response echoes the ID and carries either Data or an Error with a
// machine-readable Code.
//
// Example server:
//
//	s := rpc.NewServer()
//	s.Register("DistanceService.ShortestDistance", func(ctx context.Context, params json.RawMessage) (any, error) {
//	    var req proto.DistanceRequest
//	    if err := json.Unmarshal(params, &req); err != nil {
//	        return nil, err
//	    }
//	    ...
//	})
//	ln, _ := s.Listen(":9100")
//	go s.Serve(ln)
//
// Example client:
//
//	c, _ := rpc.Dial(ctx, "localhost:9100")
//	var resp proto.DistanceResponse
//	err := c.Call(ctx, "DistanceService.ShortestDistance", &proto.DistanceRequest{...}, &resp)
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
)

// HandlerFunc processes an RPC request. Returning an *Error sends its code
// to the client; other errors go through the server's ErrorMapper.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// ErrorMapper turns a handler error into a wire error.
type ErrorMapper func(err error) *Error

// Error codes understood by clients.
const (
	CodeNotFound      = "not_found"
	CodeWordNotFound  = "word_not_found"
	CodeInvalid       = "invalid"
	CodeUnavailable   = "unavailable"
	CodeUnknownMethod = "unknown_method"
	CodeInternal      = "internal"
)

type Request struct {
	Method string          `json:"method"`
	ID     string          `json:"id"`
	Params json.RawMessage `json:"params"`
}

type Response struct {
	ID    string          `json:"id"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

// Error is the wire error. Detail carries code-specific context such as the
// missing word.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc %s: %s", e.Code, e.Message)
}

type Server struct {
	handlers  map[string]HandlerFunc
	mapErr    ErrorMapper
	listener  net.Listener
	logger    *slog.Logger
	mu        sync.RWMutex
	conns     map[net.Conn]struct{}
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		handlers: make(map[string]HandlerFunc),
		mapErr:   defaultErrorMapper,
		conns:    make(map[net.Conn]struct{}),
		logger:   slog.Default().With("component", "rpc-server"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetErrorMapper replaces the default mapper, which reports every
// non-*Error failure as CodeInternal.
func (s *Server) SetErrorMapper(m ErrorMapper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mapErr = m
}

// Register adds a handler for method, named "Service.Method".
func (s *Server) Register(method string, handler HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = handler
	s.logger.Debug("method registered", "method", method)
}

// Listen binds addr. Use ":0" in tests and read Addr().
func (s *Server) Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	return ln, nil
}

// Serve accepts connections on ln until Stop is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("rpc server listening", "addr", ln.Addr().String())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error("accept error", "error", err)
			continue
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)
	for {
		var req Request
		if err := decoder.Decode(&req); err != nil {
			return
		}
		resp := s.dispatch(req)
		if err := encoder.Encode(resp); err != nil {
			s.logger.Error("write error", "method", req.Method, "error", err)
			return
		}
	}
}

func (s *Server) dispatch(req Request) Response {
	resp := Response{ID: req.ID}
	s.mu.RLock()
	handler, exists := s.handlers[req.Method]
	mapErr := s.mapErr
	s.mu.RUnlock()
	if !exists {
		resp.Error = &Error{Code: CodeUnknownMethod, Message: "unknown method: " + req.Method}
		return resp
	}

	data, err := handler(s.ctx, req.Params)
	if err != nil {
		var wire *Error
		if !errors.As(err, &wire) {
			wire = mapErr(err)
		}
		resp.Error = wire
		return resp
	}
	raw, err := json.Marshal(data)
	if err != nil {
		resp.Error = &Error{Code: CodeInternal, Message: "encoding response: " + err.Error()}
		return resp
	}
	resp.Data = raw
	return resp
}

// MethodCount returns the number of registered methods.
func (s *Server) MethodCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handlers)
}

// Stop closes the listener and open connections and waits for connection
// goroutines to exit.
func (s *Server) Stop() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.mu.Lock()
		if s.listener != nil {
			s.listener.Close()
		}
		for conn := range s.conns {
			conn.Close()
		}
		s.mu.Unlock()
		s.wg.Wait()
		s.logger.Info("rpc server stopped")
	})
}

func defaultErrorMapper(err error) *Error {
	return &Error{Code: CodeInternal, Message: err.Error()}
}
