// Package bitcoind is a minimal JSON-RPC client for the subset of the
// bitcoind API needed to follow the chain, decode transactions and relay
// them.
package bitcoind

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"
)

var (
	// ErrConnectionFailed is returned when the node cannot be reached or
	// answers with a non JSON-RPC failure.
	ErrConnectionFailed = errors.New("bitcoind: connection failed")
	// ErrInvalidResponse is returned when the response cannot be decoded.
	ErrInvalidResponse = errors.New("bitcoind: invalid response")
)

// RPCError is an error returned by the node in the JSON-RPC error field.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("bitcoind: rpc error %d: %s", e.Code, e.Message)
}

const (
	// rpcInvalidAddressOrKey is returned for unknown txs and blocks.
	rpcInvalidAddressOrKey = -5
	// rpcInvalidParameter is returned for heights out of range.
	rpcInvalidParameter = -8
)

// IsNotFound returns whether the error reports an unknown tx or block.
func IsNotFound(err error) bool {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code == rpcInvalidAddressOrKey ||
			rpcErr.Code == rpcInvalidParameter
	}
	return false
}

type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type response struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// Client talks to bitcoind over HTTP with basic auth.
type Client struct {
	url    string
	user   string
	pass   string
	client *http.Client
	nextID atomic.Int64
}

// NewClient returns a client for the given endpoint. Credentials can be
// given either explicitly or as userinfo of the endpoint url.
func NewClient(endpoint, user, password string) (*Client, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid node rpc url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid node rpc url scheme %q", parsed.Scheme)
	}
	if parsed.User != nil {
		if user == "" {
			user = parsed.User.Username()
		}
		if password == "" {
			password, _ = parsed.User.Password()
		}
		parsed.User = nil
	}

	return &Client{
		url:  parsed.String(),
		user: user,
		pass: password,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Call invokes method with params and decodes the result into result, if
// not nil. A null result leaves result untouched.
func (c *Client) Call(
	ctx context.Context, method string, params []interface{}, result interface{},
) error {
	if params == nil {
		params = []interface{}{}
	}
	req := request{
		JSONRPC: "1.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("bitcoind: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.url, bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("bitcoind: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		httpReq.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrConnectionFailed, err)
	}

	// bitcoind answers rpc errors with a 4xx/5xx status and a regular
	// json-rpc body, so the body is inspected before the status.
	var rpcResp response
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf(
				"%w: HTTP %d: %s", ErrConnectionFailed, resp.StatusCode, truncate(respBody),
			)
		}
		return fmt.Errorf("%w: %s", ErrInvalidResponse, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrConnectionFailed, resp.StatusCode)
	}
	if rpcResp.ID != req.ID {
		return fmt.Errorf(
			"%w: response id mismatch: expected %d, got %d",
			ErrInvalidResponse, req.ID, rpcResp.ID,
		)
	}

	if result != nil && len(rpcResp.Result) > 0 && string(rpcResp.Result) != "null" {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidResponse, err)
		}
	}
	return nil
}

func truncate(b []byte) string {
	if len(b) > 256 {
		b = b[:256]
	}
	return string(b)
}
