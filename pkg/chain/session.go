// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package chain owns the connection to a remote node: a single WebSocket
// carrying JSON-RPC 2.0 calls and subscription notifications.
package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	luxlog "github.com/luxfi/log"
)

const (
	jsonRPCVersion = "2.0"
	closeGrace     = time.Second
)

type message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type notification struct {
	Subscription json.RawMessage `json:"subscription"`
	Result       json.RawMessage `json:"result"`
}

type pendingCall struct {
	resp chan *message
	// sub is set for subscription requests; the read loop registers it
	// before any later notification can be routed.
	sub *Subscription
}

type options struct {
	log    luxlog.Logger
	dialer *websocket.Dialer
	header http.Header
}

// Option configures Open.
type Option func(*options)

func WithLogger(log luxlog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithDialer replaces the default websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

func WithHeader(h http.Header) Option {
	return func(o *options) { o.header = h }
}

// Session is one live connection to a node. It is safe for concurrent use.
// Only its owner should call Close.
type Session struct {
	endpoint string
	conn     *websocket.Conn
	log      luxlog.Logger

	writeMu sync.Mutex
	nextID  atomic.Uint64

	mu      sync.Mutex
	pending map[uint64]*pendingCall
	subs    map[string]*Subscription

	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Open validates endpoint and dials it. Malformed endpoints fail with
// ErrInvalidEndpoint before any network attempt; dial and handshake
// failures are *ConnectionError. There is no retry; ctx bounds the dial.
func Open(ctx context.Context, endpoint string, opts ...Option) (*Session, error) {
	u, err := ValidateEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	o := options{
		log:    luxlog.NewNoOpLogger(),
		dialer: websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(&o)
	}

	conn, resp, err := o.dialer.DialContext(ctx, u.String(), o.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, &ConnectionError{Endpoint: u.String(), Cause: err}
	}

	s := &Session{
		endpoint: u.String(),
		conn:     conn,
		log:      o.log,
		pending:  make(map[uint64]*pendingCall),
		subs:     make(map[string]*Subscription),
		closed:   make(chan struct{}),
	}
	go s.readLoop()
	s.log.Debug("chain session opened", "endpoint", s.endpoint)
	return s, nil
}

func (s *Session) Endpoint() string {
	return s.endpoint
}

// Done is closed once the session is closed locally or by the remote end.
func (s *Session) Done() <-chan struct{} {
	return s.closed
}

// Err is nil while the session is open, ErrSessionClosed after Close, or
// the *ConnectionError that terminated it.
func (s *Session) Err() error {
	select {
	case <-s.closed:
		return s.closeErr
	default:
		return nil
	}
}

// Call performs one request and decodes the result into result, which may
// be nil to discard it.
func (s *Session) Call(ctx context.Context, method string, params []any, result any) error {
	resp, err := s.roundTrip(ctx, method, params, nil)
	if err != nil {
		return err
	}
	if result == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("decoding %s result: %w", method, err)
	}
	return nil
}

// Subscribe opens a server-side subscription. unsubMethod is called once
// when the subscription is released.
func (s *Session) Subscribe(ctx context.Context, method, unsubMethod string, params []any) (*Subscription, error) {
	sub := newSubscription(s, method, unsubMethod)
	if _, err := s.roundTrip(ctx, method, params, sub); err != nil {
		// the node may have accepted it just before ctx expired
		s.mu.Lock()
		registered := sub.id != ""
		s.mu.Unlock()
		if registered {
			_ = sub.Unsubscribe()
		}
		return nil, err
	}
	return sub, nil
}

// Close releases the transport. It is idempotent; pending calls fail with
// ErrSessionClosed and every subscription channel is closed.
func (s *Session) Close() error {
	s.terminate(ErrSessionClosed)
	return nil
}

func (s *Session) roundTrip(ctx context.Context, method string, params []any, sub *Subscription) (*message, error) {
	if err := s.Err(); err != nil {
		return nil, err
	}
	if params == nil {
		params = []any{}
	}
	id := s.nextID.Add(1)
	call := &pendingCall{resp: make(chan *message, 1), sub: sub}

	s.mu.Lock()
	s.pending[id] = call
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	if err := s.write(request{JSONRPC: jsonRPCVersion, ID: id, Method: method, Params: params}); err != nil {
		return nil, err
	}

	select {
	case resp := <-call.resp:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.closed:
		return nil, s.closeErr
	}
}

// send writes a request without waiting for its response.
func (s *Session) send(method string, params []any) error {
	if err := s.Err(); err != nil {
		return err
	}
	return s.write(request{JSONRPC: jsonRPCVersion, ID: s.nextID.Add(1), Method: method, Params: params})
}

func (s *Session) write(req request) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(req); err != nil {
		err = &ConnectionError{Endpoint: s.endpoint, Cause: err}
		go s.terminate(err)
		return err
	}
	s.log.Debug("rpc request", "method", req.Method, "id", req.ID)
	return nil
}

func (s *Session) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.terminate(&ConnectionError{Endpoint: s.endpoint, Cause: err})
			return
		}
		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warn("dropping malformed rpc message", "endpoint", s.endpoint, "error", err)
			continue
		}
		switch {
		case msg.ID != nil:
			s.handleResponse(&msg)
		case msg.Method != "":
			s.handleNotification(&msg)
		}
	}
}

func (s *Session) handleResponse(msg *message) {
	s.mu.Lock()
	call, ok := s.pending[*msg.ID]
	if ok && call.sub != nil && msg.Error == nil {
		id := subscriptionKey(msg.Result)
		call.sub.id = id
		s.subs[id] = call.sub
		go call.sub.pump()
	}
	s.mu.Unlock()
	if !ok {
		// unsubscribe acknowledgements and abandoned calls land here
		return
	}
	call.resp <- msg
}

func (s *Session) handleNotification(msg *message) {
	var n notification
	if err := json.Unmarshal(msg.Params, &n); err != nil {
		s.log.Warn("dropping malformed notification", "method", msg.Method, "error", err)
		return
	}
	s.mu.Lock()
	sub, ok := s.subs[subscriptionKey(n.Subscription)]
	s.mu.Unlock()
	if !ok {
		s.log.Debug("notification for unknown subscription", "method", msg.Method)
		return
	}
	sub.deliver(n.Result)
}

func (s *Session) forget(sub *Subscription) {
	s.mu.Lock()
	delete(s.subs, sub.id)
	s.mu.Unlock()
}

func (s *Session) terminate(cause error) {
	s.closeOnce.Do(func() {
		s.closeErr = cause
		close(s.closed)

		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeGrace),
		)
		_ = s.conn.Close()

		s.mu.Lock()
		subs := s.subs
		s.subs = make(map[string]*Subscription)
		s.mu.Unlock()
		for _, sub := range subs {
			sub.stop()
		}

		if errors.Is(cause, ErrSessionClosed) {
			s.log.Debug("chain session closed", "endpoint", s.endpoint)
		} else {
			s.log.Warn("chain session lost", "endpoint", s.endpoint, "error", cause)
		}
	})
}

// subscriptionKey normalizes string and numeric subscription ids.
func subscriptionKey(raw json.RawMessage) string {
	return strings.Trim(strings.TrimSpace(string(raw)), `"`)
}
