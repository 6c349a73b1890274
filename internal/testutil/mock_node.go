// Package testutil provides testing utilities for pairscan.
package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/Sternrassler/pairscan/pkg/schema"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrReverted is returned by failing mock methods.
var ErrReverted = errors.New("execution reverted")

// Handler answers one contract method. args are the decoded inputs; the
// returned values are ABI-encoded against the method's outputs.
type Handler func(args []any) ([]any, error)

type mockContract struct {
	schema   *schema.Schema
	handlers map[string]Handler
	delays   map[string]time.Duration
}

type pairInfo struct {
	token0, token1 common.Address
}

// MockNode is an in-memory blockchain node answering eth_call for registered
// factory, pair and token contracts. It implements ethereum.ContractCaller
// directly and can also serve JSON-RPC over HTTP.
type MockNode struct {
	mu        sync.RWMutex
	contracts map[common.Address]*mockContract
	pairs     map[common.Address]pairInfo
	chainID   uint64

	server     *httptest.Server
	httpStatus int

	// Tracking
	calls   int
	callsTo map[common.Address]map[string]int
}

var _ ethereum.ContractCaller = (*MockNode)(nil)

// NewMockNode creates an empty mock node for chain id 1.
func NewMockNode() *MockNode {
	return &MockNode{
		contracts: make(map[common.Address]*mockContract),
		pairs:     make(map[common.Address]pairInfo),
		callsTo:   make(map[common.Address]map[string]int),
		chainID:   1,
	}
}

// Address derives a deterministic test address from n.
func Address(n uint64) common.Address {
	return common.BigToAddress(new(big.Int).SetUint64(0x1000 + n))
}

// SetChainID sets the id reported by eth_chainId.
func (m *MockNode) SetChainID(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chainID = id
}

func (m *MockNode) register(addr common.Address, name schema.Name) *mockContract {
	c, ok := m.contracts[addr]
	if !ok || c.schema.Name != name {
		c = &mockContract{
			schema:   schema.MustLoad(name),
			handlers: make(map[string]Handler),
			delays:   make(map[string]time.Duration),
		}
		m.contracts[addr] = c
	}
	return c
}

// AddFactory registers a factory contract listing pairs in order.
func (m *MockNode) AddFactory(addr common.Address, pairs []common.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := append([]common.Address(nil), pairs...)
	c := m.register(addr, schema.Factory)
	c.handlers["allPairsLength"] = func([]any) ([]any, error) {
		return []any{new(big.Int).SetInt64(int64(len(list)))}, nil
	}
	c.handlers["allPairs"] = func(args []any) ([]any, error) {
		i := args[0].(*big.Int)
		if !i.IsInt64() || i.Int64() >= int64(len(list)) {
			return nil, ErrReverted
		}
		return []any{list[i.Int64()]}, nil
	}
	c.handlers["getPair"] = func(args []any) ([]any, error) {
		a, b := args[0].(common.Address), args[1].(common.Address)
		m.mu.RLock()
		defer m.mu.RUnlock()
		for _, p := range list {
			info, ok := m.pairs[p]
			if !ok {
				continue
			}
			if (info.token0 == a && info.token1 == b) || (info.token0 == b && info.token1 == a) {
				return []any{p}, nil
			}
		}
		return []any{common.Address{}}, nil
	}
}

// AddPair registers a pair contract.
func (m *MockNode) AddPair(addr common.Address, name string, token0, token1 common.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pairs[addr] = pairInfo{token0: token0, token1: token1}
	c := m.register(addr, schema.Pair)
	c.handlers["name"] = constant(name)
	c.handlers["token0"] = constant(token0)
	c.handlers["token1"] = constant(token1)
}

// AddToken registers an ERC-20 token contract.
func (m *MockNode) AddToken(addr common.Address, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.register(addr, schema.Token)
	c.handlers["name"] = constant(name)
}

// SetHandler overrides the handler of one method on a registered contract.
func (m *MockNode) SetHandler(addr common.Address, method string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.contracts[addr]
	if !ok {
		panic(fmt.Sprintf("testutil: contract %s not registered", addr.Hex()))
	}
	c.handlers[method] = h
}

// Fail makes a method revert.
func (m *MockNode) Fail(addr common.Address, method string) {
	m.SetHandler(addr, method, func([]any) ([]any, error) {
		return nil, ErrReverted
	})
}

// SetDelay delays the answer of a method. The delay honours context cancellation.
func (m *MockNode) SetDelay(addr common.Address, method string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.contracts[addr]
	if !ok {
		panic(fmt.Sprintf("testutil: contract %s not registered", addr.Hex()))
	}
	c.delays[method] = d
}

// SetHTTPStatus makes the HTTP server answer every request with status.
// Zero restores normal JSON-RPC handling.
func (m *MockNode) SetHTTPStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.httpStatus = status
}

// CallContract implements ethereum.ContractCaller.
func (m *MockNode) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if msg.To == nil {
		return nil, errors.New("contract creation not supported")
	}
	to := *msg.To

	m.mu.Lock()
	m.calls++
	c, ok := m.contracts[to]
	var (
		handler Handler
		delay   time.Duration
		method  string
		inputs  []any
		err     error
	)
	if ok && len(msg.Data) >= 4 {
		var abiMethod *abiMethodRef
		abiMethod, err = lookup(c.schema, msg.Data)
		if err == nil {
			method = abiMethod.name
			inputs = abiMethod.inputs
			handler = c.handlers[method]
			delay = c.delays[method]
		}
	}
	if m.callsTo[to] == nil {
		m.callsTo[to] = make(map[string]int)
	}
	m.callsTo[to][method]++
	m.mu.Unlock()

	// Calls to accounts without code return empty data, as on a real node.
	if !ok {
		return []byte{}, nil
	}
	if err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, ErrReverted
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := handler(inputs)
	if err != nil {
		return nil, err
	}
	return c.schema.ABI.Methods[method].Outputs.Pack(out...)
}

type abiMethodRef struct {
	name   string
	inputs []any
}

func lookup(s *schema.Schema, data []byte) (*abiMethodRef, error) {
	method, err := s.ABI.MethodById(data[:4])
	if err != nil {
		return nil, ErrReverted
	}
	inputs, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("decode %s inputs: %w", method.Name, err)
	}
	return &abiMethodRef{name: method.Name, inputs: inputs}, nil
}

// Calls returns the number of eth_call requests received.
func (m *MockNode) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// CallsTo returns the number of calls of method on addr. An empty method
// counts every call to addr.
func (m *MockNode) CallsTo(addr common.Address, method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if method != "" {
		return m.callsTo[addr][method]
	}
	total := 0
	for _, n := range m.callsTo[addr] {
		total += n
	}
	return total
}

// Reset clears all tracking counters.
func (m *MockNode) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = 0
	m.callsTo = make(map[common.Address]map[string]int)
}

func constant(v any) Handler {
	return func([]any) ([]any, error) {
		return []any{v}, nil
	}
}

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type callArg struct {
	To    *common.Address `json:"to"`
	Input hexutil.Bytes   `json:"input"`
	Data  hexutil.Bytes   `json:"data"`
}

// URL starts the JSON-RPC HTTP server on first use and returns its address.
func (m *MockNode) URL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.server == nil {
		m.server = httptest.NewServer(http.HandlerFunc(m.serveHTTP))
	}
	return m.server.URL
}

// Close shuts down the HTTP server, if started.
func (m *MockNode) Close() {
	m.mu.Lock()
	srv := m.server
	m.server = nil
	m.mu.Unlock()
	if srv != nil {
		srv.Close()
	}
}

func (m *MockNode) serveHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	status := m.httpStatus
	m.mu.RUnlock()
	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	switch req.Method {
	case "eth_chainId":
		m.mu.RLock()
		resp.Result = hexutil.EncodeUint64(m.chainID)
		m.mu.RUnlock()
	case "eth_call":
		out, err := m.serveCall(r.Context(), req.Params)
		if err != nil {
			resp.Error = &rpcError{Code: -32000, Message: err.Error()}
			if errors.Is(err, ErrReverted) {
				resp.Error.Code = 3
			}
		} else {
			resp.Result = hexutil.Encode(out)
		}
	default:
		resp.Error = &rpcError{Code: -32601, Message: fmt.Sprintf("the method %s does not exist/is not available", req.Method)}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (m *MockNode) serveCall(ctx context.Context, params []json.RawMessage) ([]byte, error) {
	if len(params) == 0 {
		return nil, errors.New("missing call argument")
	}
	var arg callArg
	if err := json.Unmarshal(params[0], &arg); err != nil {
		return nil, fmt.Errorf("invalid call argument: %w", err)
	}
	data := arg.Input
	if len(data) == 0 {
		data = arg.Data
	}
	return m.CallContract(ctx, ethereum.CallMsg{To: arg.To, Data: data}, nil)
}
