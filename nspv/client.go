package nspv

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fiatjaf/nspvtest/common"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// DecodeError means the node replied with something that isn't the JSON we
// expected. It's an environment problem, not a protocol error envelope.
type DecodeError struct {
	Method string
	Body   []byte
	Err    error
}

func (e *DecodeError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("invalid reply to %s: %s (body: %q)", e.Method, e.Err, body)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Client calls any method on an nspv node. Methods don't have to be known in
// advance, see Invoke.
type Client struct {
	transport Exchanger
	log       zerolog.Logger

	latestReqID *atomic.Uint64
}

type Options struct {
	Timeout time.Duration
	Logger  *zerolog.Logger
}

func New(endpoint string, opts Options) (*Client, error) {
	t, err := NewTransport(endpoint, opts.Timeout)
	if err != nil {
		return nil, err
	}
	c := NewWithTransport(t)
	if opts.Logger != nil {
		c.log = opts.Logger.With().Str("endpoint", t.Endpoint()).Logger()
	}
	return c, nil
}

func NewWithTransport(t Exchanger) *Client {
	return &Client{
		transport:   t,
		log:         zerolog.Nop(),
		latestReqID: atomic.NewUint64(0),
	}
}

// Close releases the underlying connection, if the transport holds one.
func (c *Client) Close() {
	if t, ok := c.transport.(*Transport); ok {
		t.Close()
	}
}

func (c *Client) nextID() uint64 {
	return c.latestReqID.Inc()
}

// Invoke sends method with params, positionally and verbatim, and returns the
// raw reply.
func (c *Client) Invoke(method string, params ...interface{}) (json.RawMessage, error) {
	if method == "" {
		return nil, errors.New("empty method name")
	}
	if params == nil {
		params = []interface{}{}
	}

	req := common.RPCRequest{
		JSONRPC: common.JSONRPC_VERSION,
		Method:  method,
		Params:  params,
		ID:      c.nextID(),
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("error encoding %s params: %w", method, err)
	}

	start := time.Now()
	reply, err := c.transport.Exchange(body)
	log := c.log.With().Str("method", method).Uint64("id", req.ID).
		Dur("took", time.Since(start)).Logger()
	if err != nil {
		log.Debug().Err(err).Msg("call failed")
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	reply = bytes.TrimSpace(reply)
	if !json.Valid(reply) {
		return nil, &DecodeError{Method: method, Body: reply, Err: errors.New("malformed JSON")}
	}
	log.Debug().Int("size", len(reply)).Msg("call done")

	return json.RawMessage(reply), nil
}

// Call is Invoke for methods replying with a JSON object.
func (c *Client) Call(method string, params ...interface{}) (*common.Response, error) {
	raw, err := c.Invoke(method, params...)
	if err != nil {
		return nil, err
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &DecodeError{Method: method, Body: raw, Err: err}
	}
	return common.NewResponse(fields), nil
}

// CallList is Invoke for methods replying with an array of objects, like
// getpeerinfo.
func (c *Client) CallList(method string, params ...interface{}) ([]*common.Response, error) {
	raw, err := c.Invoke(method, params...)
	if err != nil {
		return nil, err
	}

	var items []map[string]interface{}
	if err := json.Unmarshal(raw, &items); err != nil {
		// an error envelope instead of the list
		var fields map[string]interface{}
		if json.Unmarshal(raw, &fields) == nil {
			if resp := common.NewResponse(fields); resp.Err != nil {
				return nil, resp.Err
			}
		}
		return nil, &DecodeError{Method: method, Body: raw, Err: err}
	}

	list := make([]*common.Response, len(items))
	for i, item := range items {
		list[i] = common.NewResponse(item)
	}
	return list, nil
}
