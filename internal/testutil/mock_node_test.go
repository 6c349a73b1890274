package testutil

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/Sternrassler/pairscan/pkg/schema"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

func call(t *testing.T, m *MockNode, to common.Address, name schema.Name, method string, args ...any) ([]any, error) {
	t.Helper()
	s := schema.MustLoad(name)
	data, err := s.ABI.Pack(method, args...)
	if err != nil {
		t.Fatalf("Pack(%s) error = %v", method, err)
	}
	out, err := m.CallContract(context.Background(), ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	return s.ABI.Unpack(method, out)
}

func TestMockNode_Factory(t *testing.T) {
	m := NewMockNode()
	factory := Address(0)
	pairs := []common.Address{Address(1), Address(2)}
	m.AddFactory(factory, pairs)
	m.AddPair(pairs[1], "Uniswap V2", Address(10), Address(11))

	out, err := call(t, m, factory, schema.Factory, "allPairsLength")
	if err != nil {
		t.Fatalf("allPairsLength error = %v", err)
	}
	if got := out[0].(*big.Int).Int64(); got != 2 {
		t.Errorf("allPairsLength = %d, want 2", got)
	}

	out, err = call(t, m, factory, schema.Factory, "allPairs", big.NewInt(1))
	if err != nil {
		t.Fatalf("allPairs error = %v", err)
	}
	if got := out[0].(common.Address); got != pairs[1] {
		t.Errorf("allPairs(1) = %s, want %s", got.Hex(), pairs[1].Hex())
	}

	if _, err := call(t, m, factory, schema.Factory, "allPairs", big.NewInt(5)); !errors.Is(err, ErrReverted) {
		t.Errorf("allPairs(5) error = %v, want ErrReverted", err)
	}

	out, err = call(t, m, factory, schema.Factory, "getPair", Address(11), Address(10))
	if err != nil {
		t.Fatalf("getPair error = %v", err)
	}
	if got := out[0].(common.Address); got != pairs[1] {
		t.Errorf("getPair = %s, want %s", got.Hex(), pairs[1].Hex())
	}

	if got := m.CallsTo(factory, "allPairs"); got != 2 {
		t.Errorf("CallsTo(allPairs) = %d, want 2", got)
	}
	if got := m.Calls(); got != 4 {
		t.Errorf("Calls() = %d, want 4", got)
	}

	m.Reset()
	if got := m.Calls(); got != 0 {
		t.Errorf("Calls() after Reset = %d, want 0", got)
	}
}

func TestMockNode_Fail(t *testing.T) {
	m := NewMockNode()
	token := Address(1)
	m.AddToken(token, "Wrapped Ether")
	m.Fail(token, "name")

	if _, err := call(t, m, token, schema.Token, "name"); !errors.Is(err, ErrReverted) {
		t.Errorf("name error = %v, want ErrReverted", err)
	}
}

func TestMockNode_UnknownAddress(t *testing.T) {
	m := NewMockNode()
	to := Address(99)
	out, err := m.CallContract(context.Background(), ethereum.CallMsg{To: &to, Data: []byte{1, 2, 3, 4}}, nil)
	if err != nil {
		t.Fatalf("CallContract error = %v", err)
	}
	if len(out) != 0 {
		t.Errorf("CallContract returned %d bytes, want 0", len(out))
	}
}

func TestMockNode_DelayHonoursContext(t *testing.T) {
	m := NewMockNode()
	token := Address(1)
	m.AddToken(token, "Slow")
	m.SetDelay(token, "name", time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	data, _ := schema.MustLoad(schema.Token).ABI.Pack("name")
	_, err := m.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}
