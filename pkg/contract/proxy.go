package contract

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/Sternrassler/pairscan/pkg/logging"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// NameCaller resolves a contract's display name.
type NameCaller interface {
	Name(ctx context.Context) Result[string]
}

// PairCaller resolves the fields of a pair contract.
type PairCaller interface {
	NameCaller
	Token0(ctx context.Context) Result[common.Address]
	Token1(ctx context.Context) Result[common.Address]
}

// FactoryCaller enumerates the pairs registered in a factory contract.
type FactoryCaller interface {
	AllPairs(ctx context.Context, index uint64) (common.Address, error)
	AllPairsLength(ctx context.Context) (uint64, error)
	GetPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error)
}

var (
	_ PairCaller    = (*Proxy)(nil)
	_ FactoryCaller = (*Proxy)(nil)
)

// Proxy issues calls against one bound contract.
type Proxy struct {
	handle  *Handle
	caller  ethereum.ContractCaller
	timeout time.Duration
	logger  zerolog.Logger
}

// Option configures a Proxy.
type Option func(*Proxy)

// WithCallTimeout bounds every call made through the proxy. Zero disables the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(p *Proxy) {
		p.timeout = d
	}
}

// WithLogger sets the logger used for degraded calls.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Proxy) {
		p.logger = logger
	}
}

// NewProxy creates a proxy for handle that calls through caller.
func NewProxy(handle *Handle, caller ethereum.ContractCaller, opts ...Option) *Proxy {
	p := &Proxy{
		handle: handle,
		caller: caller,
		logger: logging.NewLogger("contract-proxy"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle returns the bound contract.
func (p *Proxy) Handle() *Handle {
	return p.handle
}

// Call packs args for method, performs one eth_call at the latest block and
// unpacks the outputs. Every failure is a *RemoteCallError.
func (p *Proxy) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	addr := p.handle.Address
	fail := func(stage Stage, err error) error {
		return &RemoteCallError{Contract: addr, Method: method, Stage: stage, Err: err}
	}

	if !p.handle.Schema.Has(method) {
		return nil, fail(StageEncode, fmt.Errorf("%w: %s has no %q", ErrUnknownMethod, p.handle.Schema.Name, method))
	}

	data, err := p.handle.Schema.ABI.Pack(method, args...)
	if err != nil {
		return nil, fail(StageEncode, err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	out, err := p.caller.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: data}, nil)
	if err != nil {
		return nil, fail(StageCall, err)
	}

	values, err := p.handle.Schema.ABI.Unpack(method, out)
	if err != nil {
		return nil, fail(StageDecode, err)
	}
	if len(values) == 0 {
		return nil, fail(StageDecode, fmt.Errorf("no outputs"))
	}
	return values, nil
}

// Invoke calls method and returns its first output. A failed call yields a
// degraded Result rather than an error.
func (p *Proxy) Invoke(ctx context.Context, method string, args ...any) Result[any] {
	values, err := p.Call(ctx, method, args...)
	if err != nil {
		p.logger.Debug().
			Str("contract", p.handle.Address.Hex()).
			Str("method", method).
			Err(err).
			Msg("Remote call degraded")
		return Failed[any](err)
	}
	return OK(values[0])
}

// Name calls name().
func (p *Proxy) Name(ctx context.Context) Result[string] {
	return invokeAs[string](ctx, p, "name")
}

// Token0 calls token0().
func (p *Proxy) Token0(ctx context.Context) Result[common.Address] {
	return invokeAs[common.Address](ctx, p, "token0")
}

// Token1 calls token1().
func (p *Proxy) Token1(ctx context.Context) Result[common.Address] {
	return invokeAs[common.Address](ctx, p, "token1")
}

// AllPairs calls allPairs(index).
func (p *Proxy) AllPairs(ctx context.Context, index uint64) (common.Address, error) {
	return callAs[common.Address](ctx, p, "allPairs", new(big.Int).SetUint64(index))
}

// AllPairsLength calls allPairsLength().
func (p *Proxy) AllPairsLength(ctx context.Context) (uint64, error) {
	n, err := callAs[*big.Int](ctx, p, "allPairsLength")
	if err != nil {
		return 0, err
	}
	if n.Sign() < 0 || !n.IsUint64() {
		return 0, &RemoteCallError{
			Contract: p.handle.Address,
			Method:   "allPairsLength",
			Stage:    StageDecode,
			Err:      fmt.Errorf("length %s out of range", n),
		}
	}
	return n.Uint64(), nil
}

// GetPair calls getPair(tokenA, tokenB). The zero address means no pair exists.
func (p *Proxy) GetPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	return callAs[common.Address](ctx, p, "getPair", tokenA, tokenB)
}

func callAs[T any](ctx context.Context, p *Proxy, method string, args ...any) (T, error) {
	var zero T
	values, err := p.Call(ctx, method, args...)
	if err != nil {
		return zero, err
	}
	v, ok := values[0].(T)
	if !ok {
		return zero, &RemoteCallError{
			Contract: p.handle.Address,
			Method:   method,
			Stage:    StageDecode,
			Err:      fmt.Errorf("unexpected output type %T", values[0]),
		}
	}
	return v, nil
}

func invokeAs[T any](ctx context.Context, p *Proxy, method string) Result[T] {
	v, err := callAs[T](ctx, p, method)
	if err != nil {
		p.logger.Debug().
			Str("contract", p.handle.Address.Hex()).
			Str("method", method).
			Err(err).
			Msg("Remote call degraded")
		return Failed[T](err)
	}
	return OK(v)
}
