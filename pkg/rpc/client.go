package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"
)

// Client is safe for concurrent use; calls are serialised over one
// connection. A call that fails mid-exchange drops the connection and the
// next call redials, so a late response can never be read as the answer to
// a later request.
type Client struct {
	addr    string
	conn    net.Conn
	encoder *json.Encoder
	decoder *json.Decoder
	mu      sync.Mutex
	nextID  int64
	closed  bool
}

var ErrClientClosed = errors.New("rpc: client is closed")

func Dial(ctx context.Context, addr string) (*Client, error) {
	c := &Client{addr: addr}
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", c.addr, err)
	}
	c.conn = conn
	c.encoder = json.NewEncoder(conn)
	c.decoder = json.NewDecoder(conn)
	return nil
}

// reset drops a connection whose stream state is no longer trustworthy.
func (c *Client) reset() {
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn, c.encoder, c.decoder = nil, nil, nil
}

// Call invokes method and decodes the response data into result. A server
// side failure is returned as *Error. The ctx deadline bounds the round
// trip.
func (c *Client) Call(ctx context.Context, method string, params any, result any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshaling params: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	if c.conn == nil {
		if err := c.connect(ctx); err != nil {
			return err
		}
	}
	conn := c.conn

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := conn.SetDeadline(deadline); err != nil {
		c.reset()
		return fmt.Errorf("setting deadline: %w", err)
	}
	if ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() {
			conn.SetDeadline(time.Unix(1, 0))
		})
		defer stop()
	}

	c.nextID++
	req := Request{
		Method: method,
		ID:     strconv.FormatInt(c.nextID, 10),
		Params: raw,
	}
	if err := c.encoder.Encode(req); err != nil {
		c.reset()
		return fmt.Errorf("sending request: %w", err)
	}
	var resp Response
	if err := c.decoder.Decode(&resp); err != nil {
		c.reset()
		if ctx.Err() != nil {
			return fmt.Errorf("reading response: %w", ctx.Err())
		}
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.ID != req.ID {
		c.reset()
		return fmt.Errorf("response id %q does not match request id %q", resp.ID, req.ID)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if result != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, result); err != nil {
			return fmt.Errorf("unmarshaling into result: %w", err)
		}
	}
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn, c.encoder, c.decoder = nil, nil, nil
	return err
}
