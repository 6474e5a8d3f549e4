package dap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// ErrClosed is returned for requests made after the connection ended.
var ErrClosed = errors.New("debug adapter connection closed")

// RequestError is a response with success set to false.
type RequestError struct {
	Command string
	Message string
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return e.Command + " failed"
	}
	return fmt.Sprintf("%s failed: %s", e.Command, e.Message)
}

// Client multiplexes requests and events over a Transport.
type Client struct {
	t      Transport
	logger zerolog.Logger
	seq    atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan response
	err     error

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the logger.
func WithClientLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient starts reading from t.
func NewClient(t Transport, opts ...ClientOption) *Client {
	c := &Client{
		t:       t,
		logger:  zerolog.Nop(),
		pending: make(map[int64]chan response),
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.receive()
	return c
}

// Events delivers adapter events in arrival order. It is closed when the
// connection ends.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Err reports why the connection ended, if it has.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close ends the connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.t.Close()
	})
	return err
}

func (c *Client) receive() {
	defer close(c.events)
	for {
		content, err := c.t.Receive()
		if err != nil {
			c.fail(err)
			return
		}
		switch gjson.GetBytes(content, "type").String() {
		case "response":
			c.deliver(content)
		case "event":
			ev := Event{
				Name: gjson.GetBytes(content, "event").String(),
				Body: json.RawMessage(gjson.GetBytes(content, "body").Raw),
			}
			c.logger.Trace().Str("event", ev.Name).Msg("dap event")
			select {
			case c.events <- ev:
			case <-c.done:
				return
			}
		case "request":
			c.refuse(content)
		default:
			c.logger.Debug().Bytes("content", content).Msg("dropping unknown dap message")
		}
	}
}

func (c *Client) deliver(content []byte) {
	var resp response
	if err := json.Unmarshal(content, &resp); err != nil {
		c.logger.Debug().Err(err).Msg("malformed dap response")
		return
	}
	c.mu.Lock()
	ch, ok := c.pending[resp.RequestSeq]
	delete(c.pending, resp.RequestSeq)
	c.mu.Unlock()
	if ok {
		ch <- resp
	}
}

// refuse answers reverse requests such as runInTerminal, which a terminal
// debugger does not serve.
func (c *Client) refuse(content []byte) {
	cmd := gjson.GetBytes(content, "command").String()
	resp := response{
		Seq:        c.seq.Add(1),
		Type:       "response",
		RequestSeq: gjson.GetBytes(content, "seq").Int(),
		Command:    cmd,
		Message:    "not supported",
	}
	data, err := json.Marshal(resp)
	if err == nil {
		err = c.t.Send(data)
	}
	if err != nil {
		c.logger.Debug().Err(err).Str("command", cmd).Msg("refusing reverse request")
	}
}

func (c *Client) fail(err error) {
	select {
	case <-c.done:
		err = ErrClosed
	default:
	}
	c.mu.Lock()
	c.err = err
	pending := c.pending
	c.pending = make(map[int64]chan response)
	c.mu.Unlock()
	for _, ch := range pending {
		close(ch)
	}
	c.logger.Debug().Err(err).Msg("dap connection ended")
}

// Call sends command with args and decodes the response body into out,
// which may be nil.
func (c *Client) Call(ctx context.Context, command string, args, out any) error {
	seq := c.seq.Add(1)
	req := request{Seq: seq, Type: "request", Command: command}
	if args != nil {
		raw, ok := args.(json.RawMessage)
		if !ok {
			var err error
			if raw, err = json.Marshal(args); err != nil {
				return fmt.Errorf("encode %s arguments: %w", command, err)
			}
		}
		req.Arguments = raw
	}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode %s: %w", command, err)
	}

	ch := make(chan response, 1)
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return ErrClosed
	}
	c.pending[seq] = ch
	c.mu.Unlock()

	c.logger.Trace().Str("command", command).Int64("seq", seq).Msg("dap request")
	if err := c.t.Send(data); err != nil {
		c.forget(seq)
		return fmt.Errorf("send %s: %w (%v)", command, ErrClosed, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return ErrClosed
		}
		if !resp.Success {
			return &RequestError{Command: command, Message: resp.Message}
		}
		if out != nil && len(resp.Body) > 0 {
			if err := json.Unmarshal(resp.Body, out); err != nil {
				return fmt.Errorf("decode %s response: %w", command, err)
			}
		}
		return nil
	case <-ctx.Done():
		c.forget(seq)
		return ctx.Err()
	}
}

func (c *Client) forget(seq int64) {
	c.mu.Lock()
	delete(c.pending, seq)
	c.mu.Unlock()
}
