package contract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sternrassler/pairscan/internal/testutil"
	"github.com/Sternrassler/pairscan/pkg/schema"
	"github.com/ethereum/go-ethereum/common"
)

func bindProxy(t *testing.T, node *testutil.MockNode, addr common.Address, name schema.Name, opts ...Option) *Proxy {
	t.Helper()
	h, err := Bind(addr, name)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	return NewProxy(h, node, opts...)
}

func TestBind(t *testing.T) {
	h, err := Bind(testutil.Address(1), schema.Pair)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if h.Schema.Name != schema.Pair {
		t.Errorf("Schema = %q, want %q", h.Schema.Name, schema.Pair)
	}

	if _, err := Bind(testutil.Address(1), "router"); err == nil {
		t.Error("Bind() should fail for an unknown schema")
	}
}

func TestProxy_PairFields(t *testing.T) {
	node := testutil.NewMockNode()
	pair, t0, t1 := testutil.Address(1), testutil.Address(2), testutil.Address(3)
	node.AddPair(pair, "Uniswap V2", t0, t1)

	p := bindProxy(t, node, pair, schema.Pair)
	ctx := context.Background()

	if got := p.Name(ctx); got.Degraded() || got.Value != "Uniswap V2" {
		t.Errorf("Name() = %+v, want Uniswap V2", got)
	}
	if got := p.Token0(ctx); got.Degraded() || got.Value != t0 {
		t.Errorf("Token0() = %+v, want %s", got, t0.Hex())
	}
	if got := p.Token1(ctx); got.String() != t1.Hex() {
		t.Errorf("Token1().String() = %s, want %s", got.String(), t1.Hex())
	}
}

func TestProxy_DegradesToNotFound(t *testing.T) {
	node := testutil.NewMockNode()
	token := testutil.Address(1)
	node.AddToken(token, "Tether USD")
	node.Fail(token, "name")

	p := bindProxy(t, node, token, schema.Token)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		if got := p.Invoke(ctx, "name").String(); got != NotFound {
			t.Fatalf("Invoke(name) #%d = %q, want %q", i, got, NotFound)
		}
	}

	res := p.Name(ctx)
	if !res.Degraded() {
		t.Fatal("Name() should be degraded")
	}
	var rce *RemoteCallError
	if !errors.As(res.Err, &rce) {
		t.Fatalf("Err = %T, want *RemoteCallError", res.Err)
	}
	if rce.Stage != StageCall || rce.Method != "name" || rce.Contract != token {
		t.Errorf("RemoteCallError = %+v", rce)
	}
	if !errors.Is(res.Err, testutil.ErrReverted) {
		t.Error("RemoteCallError should unwrap to the node error")
	}
}

func TestProxy_NoCodeIsDecodeError(t *testing.T) {
	node := testutil.NewMockNode()
	p := bindProxy(t, node, testutil.Address(42), schema.Token)

	res := p.Name(context.Background())
	var rce *RemoteCallError
	if !errors.As(res.Err, &rce) || rce.Stage != StageDecode {
		t.Errorf("Name() error = %v, want decode RemoteCallError", res.Err)
	}
	if res.String() != NotFound {
		t.Errorf("String() = %q, want %q", res.String(), NotFound)
	}
}

func TestProxy_UnknownMethod(t *testing.T) {
	node := testutil.NewMockNode()
	p := bindProxy(t, node, testutil.Address(1), schema.Token)

	_, err := p.Call(context.Background(), "symbol")
	if !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("Call(symbol) error = %v, want ErrUnknownMethod", err)
	}
	if node.Calls() != 0 {
		t.Errorf("node calls = %d, want 0", node.Calls())
	}
}

func TestProxy_Factory(t *testing.T) {
	node := testutil.NewMockNode()
	factory := testutil.Address(0)
	pairs := []common.Address{testutil.Address(1), testutil.Address(2), testutil.Address(3)}
	node.AddFactory(factory, pairs)
	node.AddPair(pairs[2], "Uniswap V2", testutil.Address(10), testutil.Address(11))

	p := bindProxy(t, node, factory, schema.Factory)
	ctx := context.Background()

	n, err := p.AllPairsLength(ctx)
	if err != nil {
		t.Fatalf("AllPairsLength() error = %v", err)
	}
	if n != 3 {
		t.Errorf("AllPairsLength() = %d, want 3", n)
	}

	addr, err := p.AllPairs(ctx, 1)
	if err != nil {
		t.Fatalf("AllPairs(1) error = %v", err)
	}
	if addr != pairs[1] {
		t.Errorf("AllPairs(1) = %s, want %s", addr.Hex(), pairs[1].Hex())
	}

	if _, err := p.AllPairs(ctx, 7); err == nil {
		t.Error("AllPairs(7) should propagate the revert")
	}

	got, err := p.GetPair(ctx, testutil.Address(10), testutil.Address(11))
	if err != nil {
		t.Fatalf("GetPair() error = %v", err)
	}
	if got != pairs[2] {
		t.Errorf("GetPair() = %s, want %s", got.Hex(), pairs[2].Hex())
	}
}

func TestProxy_CallTimeout(t *testing.T) {
	node := testutil.NewMockNode()
	token := testutil.Address(1)
	node.AddToken(token, "Slow Token")
	node.SetDelay(token, "name", time.Second)

	p := bindProxy(t, node, token, schema.Token, WithCallTimeout(20*time.Millisecond))

	start := time.Now()
	res := p.Name(context.Background())
	if !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Errorf("Name() error = %v, want context.DeadlineExceeded", res.Err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Name() took %v, timeout not applied", elapsed)
	}
}

func TestResult(t *testing.T) {
	tests := []struct {
		name     string
		result   Result[string]
		degraded bool
		text     string
	}{
		{"ok", OK("WETH"), false, "WETH"},
		{"ok_literal_sentinel", OK(NotFound), false, NotFound},
		{"failed", Failed[string](errors.New("boom")), true, NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Degraded(); got != tt.degraded {
				t.Errorf("Degraded() = %v, want %v", got, tt.degraded)
			}
			if got := tt.result.String(); got != tt.text {
				t.Errorf("String() = %q, want %q", got, tt.text)
			}
		})
	}
}

func TestRemoteCallError(t *testing.T) {
	inner := errors.New("connection refused")
	err := &RemoteCallError{Contract: testutil.Address(1), Method: "name", Stage: StageCall, Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
	want := "remote call " + testutil.Address(1).Hex() + ".name failed at call: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
