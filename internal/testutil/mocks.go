package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/rpc"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RPCHandler answers one JSON-RPC method.
type RPCHandler func(params []json.RawMessage) (interface{}, *RPCError)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
}

// MockRPCNode is a JSON-RPC 2.0 server over HTTP that dispatches to per-method handlers.
// Batch requests are supported.
type MockRPCNode struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]RPCHandler
	calls    map[string]int
	params   map[string][][]json.RawMessage
}

// NewMockRPCNode starts a node and stops it when the test ends.
func NewMockRPCNode(t *testing.T) *MockRPCNode {
	t.Helper()

	node := &MockRPCNode{
		handlers: make(map[string]RPCHandler),
		calls:    make(map[string]int),
		params:   make(map[string][][]json.RawMessage),
	}
	node.Server = httptest.NewServer(http.HandlerFunc(node.serve))
	t.Cleanup(node.Close)

	return node
}

// Handle registers the handler for method.
func (n *MockRPCNode) Handle(method string, h RPCHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
}

// Dial returns an rpc client bound to the node.
func (n *MockRPCNode) Dial(t *testing.T) *rpc.Client {
	t.Helper()

	rc, err := rpc.DialHTTP(n.URL)
	require.NoError(t, err)
	t.Cleanup(rc.Close)

	return rc
}

// CallCount returns how many times method was called.
func (n *MockRPCNode) CallCount(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

// LastParams returns the raw params of the most recent call to method.
func (n *MockRPCNode) LastParams(method string) []json.RawMessage {
	n.mu.Lock()
	defer n.mu.Unlock()

	all := n.params[method]
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

func (n *MockRPCNode) handle(req rpcRequest) rpcResponse {
	n.mu.Lock()
	n.calls[req.Method]++
	n.params[req.Method] = append(n.params[req.Method], req.Params)
	h, ok := n.handlers[req.Method]
	n.mu.Unlock()

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	if !ok {
		resp.Error = &RPCError{Code: -32601, Message: "method not found"}
		return resp
	}
	resp.Result, resp.Error = h(req.Params)
	return resp
}

func (n *MockRPCNode) serve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	if strings.HasPrefix(strings.TrimSpace(string(body)), "[") {
		var reqs []rpcRequest
		_ = json.Unmarshal(body, &reqs)
		resps := make([]rpcResponse, len(reqs))
		for i, req := range reqs {
			resps[i] = n.handle(req)
		}
		_ = json.NewEncoder(w).Encode(resps)
		return
	}

	var req rpcRequest
	_ = json.Unmarshal(body, &req)
	_ = json.NewEncoder(w).Encode(n.handle(req))
}
