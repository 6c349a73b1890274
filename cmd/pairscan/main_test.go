package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/pairscan/internal/config"
	"github.com/Sternrassler/pairscan/internal/testutil"
	"github.com/Sternrassler/pairscan/pkg/contract"
	"github.com/Sternrassler/pairscan/pkg/table"
	"github.com/ethereum/go-ethereum/common"
)

func newNode(t *testing.T, pairs int) (*testutil.MockNode, common.Address) {
	t.Helper()

	node := testutil.NewMockNode()
	t.Cleanup(node.Close)

	factory := testutil.Address(0)
	var list []common.Address
	for i := 0; i < pairs; i++ {
		pair := testutil.Address(uint64(100 + i))
		t0, t1 := testutil.Address(uint64(200+2*i)), testutil.Address(uint64(201+2*i))
		node.AddPair(pair, "Uniswap V2", t0, t1)
		node.AddToken(t0, "Token A")
		node.AddToken(t1, "Token B")
		list = append(list, pair)
	}
	node.AddFactory(factory, list)
	return node, factory
}

func settings(t *testing.T, node *testutil.MockNode, factory common.Address) config.Settings {
	t.Helper()
	return config.Settings{
		RPCURL:         node.URL(),
		FactoryAddress: factory.Hex(),
		BatchLimit:     2,
		CallTimeout:    5 * time.Second,
		OutputPath:     filepath.Join(t.TempDir(), "pairs.csv"),
		NameCacheTTL:   time.Hour,
	}
}

func readOutput(t *testing.T, path string) *table.Table {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	tbl, err := table.ReadCSV(f)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	return tbl
}

func TestRun_WritesCSV(t *testing.T) {
	node, factory := newNode(t, 5)
	node.Fail(testutil.Address(201), "name")
	st := settings(t, node, factory)

	if err := run(context.Background(), st); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	tbl := readOutput(t, st.OutputPath)
	if tbl.Len() != 5 {
		t.Fatalf("output rows = %d, want 5", tbl.Len())
	}

	row, _ := tbl.Row(0)
	if row.PairAddress != testutil.Address(100).Hex() {
		t.Errorf("row 0 pair = %s, want %s", row.PairAddress, testutil.Address(100).Hex())
	}
	if row.Token1Name != contract.NotFound {
		t.Errorf("row 0 token1_name = %q, want %q", row.Token1Name, contract.NotFound)
	}
	if row.Token0Name != "Token A" {
		t.Errorf("row 0 token0_name = %q, want %q", row.Token0Name, "Token A")
	}
}

func TestRun_FactoryFailureWritesPartialOutput(t *testing.T) {
	node, factory := newNode(t, 3)
	node.Fail(factory, "allPairsLength")
	st := settings(t, node, factory)

	err := run(context.Background(), st)
	if err == nil {
		t.Fatal("run() should fail when allPairsLength reverts")
	}
	var rce *contract.RemoteCallError
	if !errors.As(err, &rce) {
		t.Errorf("error = %v, want *contract.RemoteCallError in chain", err)
	}

	data, readErr := os.ReadFile(st.OutputPath)
	if readErr != nil {
		t.Fatalf("output should exist: %v", readErr)
	}
	if strings.TrimSpace(string(data)) != strings.Join(table.Columns, ",") {
		t.Errorf("output = %q, want header only", string(data))
	}
}

func TestRun_InvalidSettings(t *testing.T) {
	node, factory := newNode(t, 1)
	st := settings(t, node, factory)
	st.BatchLimit = 0

	err := run(context.Background(), st)
	if err == nil || !strings.Contains(err.Error(), "batch_limit") {
		t.Errorf("run() error = %v, want batch_limit validation error", err)
	}
	if node.Calls() != 0 {
		t.Errorf("node calls = %d, want 0", node.Calls())
	}
}

func TestRun_RedisUnavailable(t *testing.T) {
	node, factory := newNode(t, 1)
	st := settings(t, node, factory)
	st.RedisURL = "redis://127.0.0.1:1/0"

	if err := run(context.Background(), st); err == nil {
		t.Error("run() should fail when redis_url is set but unreachable")
	}
}
