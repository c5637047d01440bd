// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// RPCError is returned by a fake handler to answer with a JSON-RPC error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// Handler answers one JSON-RPC method.
type Handler func(params []json.RawMessage) (any, error)

// SubscribeHandler answers a subscription request. The returned values are
// pushed as notifications right after the subscription id.
type SubscribeHandler func(subID string, params []json.RawMessage) ([]any, error)

type rpcCall struct {
	Method string
	Params []json.RawMessage
}

type subscriptionRoute struct {
	notifyMethod string
	handler      SubscribeHandler
}

type fakeConn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *fakeConn) send(v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.WriteJSON(v)
}

// FakeNode is an in-process Substrate-style JSON-RPC node over WebSocket.
type FakeNode struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	handlers map[string]Handler
	subs     map[string]subscriptionRoute
	owners   map[string]*fakeConn
	conns    []*fakeConn
	calls    []rpcCall
	nextSub  int
	agents   []string
}

// TB is the part of testing.TB the fake node needs; GinkgoT() satisfies it.
type TB interface {
	Helper()
	Cleanup(func())
}

// NewFakeNode starts a node that is shut down with the test.
func NewFakeNode(t TB) *FakeNode {
	t.Helper()
	n := &FakeNode{
		handlers: make(map[string]Handler),
		subs:     make(map[string]subscriptionRoute),
		owners:   make(map[string]*fakeConn),
	}
	n.srv = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.srv.Close)
	return n
}

// URL is the ws:// endpoint of the node.
func (n *FakeNode) URL() string {
	return "ws://" + strings.TrimPrefix(n.srv.URL, "http://")
}

func (n *FakeNode) Handle(method string, h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
}

// HandleResult answers method with a fixed result.
func (n *FakeNode) HandleResult(method string, result any) {
	n.Handle(method, func([]json.RawMessage) (any, error) { return result, nil })
}

// HandleSubscription registers a subscription method whose notifications
// are sent with notifyMethod.
func (n *FakeNode) HandleSubscription(method, notifyMethod string, h SubscribeHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs[method] = subscriptionRoute{notifyMethod: notifyMethod, handler: h}
}

// Notify pushes a notification for a live subscription.
func (n *FakeNode) Notify(subID, notifyMethod string, result any) {
	n.mu.Lock()
	c := n.owners[subID]
	n.mu.Unlock()
	if c == nil {
		return
	}
	c.send(notificationFrame(notifyMethod, subID, result))
}

// Calls counts requests received for method.
func (n *FakeNode) Calls(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, c := range n.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// TotalCalls counts every request received.
func (n *FakeNode) TotalCalls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

// Params returns the parameters of every request for method, in order.
func (n *FakeNode) Params(method string) [][]json.RawMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out [][]json.RawMessage
	for _, c := range n.calls {
		if c.Method == method {
			out = append(out, c.Params)
		}
	}
	return out
}

// UserAgents lists the User-Agent of every connection, in order.
func (n *FakeNode) UserAgents() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.agents...)
}

// DropConnections closes every client connection from the server side.
func (n *FakeNode) DropConnections() {
	n.mu.Lock()
	conns := n.conns
	n.conns = nil
	n.mu.Unlock()
	for _, c := range conns {
		_ = c.ws.Close()
	}
}

func (n *FakeNode) serve(w http.ResponseWriter, r *http.Request) {
	ws, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &fakeConn{ws: ws}
	n.mu.Lock()
	n.conns = append(n.conns, c)
	n.agents = append(n.agents, r.UserAgent())
	n.mu.Unlock()
	defer ws.Close()

	for {
		var req struct {
			ID     uint64            `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := ws.ReadJSON(&req); err != nil {
			return
		}
		n.dispatch(c, req.ID, req.Method, req.Params)
	}
}

func (n *FakeNode) dispatch(c *fakeConn, id uint64, method string, params []json.RawMessage) {
	n.mu.Lock()
	n.calls = append(n.calls, rpcCall{Method: method, Params: params})
	h, isCall := n.handlers[method]
	route, isSub := n.subs[method]
	var subID string
	if isSub {
		n.nextSub++
		subID = fmt.Sprintf("sub-%d", n.nextSub)
		n.owners[subID] = c
	}
	n.mu.Unlock()

	switch {
	case isSub:
		initial, err := route.handler(subID, params)
		if err != nil {
			c.send(errorFrame(id, err))
			return
		}
		c.send(map[string]any{"jsonrpc": "2.0", "id": id, "result": subID})
		for _, v := range initial {
			c.send(notificationFrame(route.notifyMethod, subID, v))
		}
	case isCall:
		result, err := h(params)
		if err != nil {
			c.send(errorFrame(id, err))
			return
		}
		c.send(map[string]any{"jsonrpc": "2.0", "id": id, "result": result})
	default:
		c.send(errorFrame(id, &RPCError{Code: -32601, Message: "Method not found"}))
	}
}

func errorFrame(id uint64, err error) map[string]any {
	rpcErr, ok := err.(*RPCError)
	if !ok {
		rpcErr = &RPCError{Code: -32000, Message: err.Error()}
	}
	return map[string]any{"jsonrpc": "2.0", "id": id, "error": rpcErr}
}

func notificationFrame(method, subID string, result any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  map[string]any{"subscription": subID, "result": result},
	}
}
