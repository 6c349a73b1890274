package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/pairscan/pkg/batch"
	"github.com/Sternrassler/pairscan/pkg/cache"
	"github.com/Sternrassler/pairscan/pkg/contract"
	"github.com/Sternrassler/pairscan/pkg/logging"
	"github.com/Sternrassler/pairscan/pkg/schema"
	"github.com/Sternrassler/pairscan/pkg/table"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// DefaultBatchLimit is the number of pair indices resolved concurrently.
const DefaultBatchLimit = 5

// DefaultFactoryAddress is the Uniswap v2 factory on Ethereum mainnet.
const DefaultFactoryAddress = "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"

// NameCache stores resolved token names. Implemented by *cache.Manager.
type NameCache interface {
	GetName(ctx context.Context, token common.Address) (string, error)
	SetName(ctx context.Context, token common.Address, name string) error

	// TouchName extends the expiry of a cached name after a hit.
	TouchName(ctx context.Context, token common.Address) error
}

var _ NameCache = (*cache.Manager)(nil)

// Config holds the pipeline configuration.
type Config struct {
	// BatchLimit used by Discover.
	BatchLimit int

	// CallTimeout bounds every contract call. Zero disables the bound.
	CallTimeout time.Duration

	// NameCache is consulted before calling a token's name(). Optional.
	NameCache NameCache

	// OnProgress is called on every state transition. Optional.
	OnProgress func(Progress)
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		BatchLimit:  DefaultBatchLimit,
		CallTimeout: 15 * time.Second,
	}
}

// Pipeline resolves factory pairs through a contract caller.
type Pipeline struct {
	caller ethereum.ContractCaller
	config Config
	logger zerolog.Logger
}

// New creates a pipeline.
func New(caller ethereum.ContractCaller, cfg Config) (*Pipeline, error) {
	if caller == nil {
		return nil, fmt.Errorf("contract caller is required")
	}
	if cfg.BatchLimit == 0 {
		cfg.BatchLimit = DefaultBatchLimit
	}
	if cfg.BatchLimit < 0 {
		return nil, fmt.Errorf("batch_limit must be >= 1 (got %d)", cfg.BatchLimit)
	}
	if cfg.CallTimeout < 0 {
		return nil, fmt.Errorf("call_timeout must not be negative (got %s)", cfg.CallTimeout)
	}

	return &Pipeline{
		caller: caller,
		config: cfg,
		logger: logging.NewLogger("discovery"),
	}, nil
}

// FactoryRef identifies the factory for single-pair lookups: either an
// already bound proxy or an address to bind.
type FactoryRef struct {
	Proxy   *contract.Proxy
	Address string
}

// PairInfo holds the stage-two fields of a pair.
type PairInfo struct {
	Name   contract.Result[string]
	Token0 contract.Result[common.Address]
	Token1 contract.Result[common.Address]
}

// Factory binds a factory proxy for address.
func (p *Pipeline) Factory(address string) (*contract.Proxy, error) {
	return p.resolveFactory(FactoryRef{Address: address})
}

func (p *Pipeline) bind(addr common.Address, name schema.Name) (*contract.Proxy, error) {
	h, err := contract.Bind(addr, name)
	if err != nil {
		return nil, err
	}
	return contract.NewProxy(h, p.caller,
		contract.WithCallTimeout(p.config.CallTimeout),
		contract.WithLogger(p.logger),
	), nil
}

func (p *Pipeline) resolveFactory(ref FactoryRef) (*contract.Proxy, error) {
	if ref.Proxy != nil {
		if ref.Proxy.Handle().Schema.Name != schema.Factory {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("%s is not bound to the factory schema", ref.Proxy.Handle())}
		}
		return ref.Proxy, nil
	}
	if ref.Address == "" {
		return nil, &ConfigurationError{Reason: "either a factory contract or a factory address must be set"}
	}
	if !common.IsHexAddress(ref.Address) {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("invalid factory address %q", ref.Address)}
	}
	return p.bind(common.HexToAddress(ref.Address), schema.Factory)
}

// PairsLength returns allPairsLength() of the factory at address.
func (p *Pipeline) PairsLength(ctx context.Context, address string) (uint64, error) {
	factory, err := p.resolveFactory(FactoryRef{Address: address})
	if err != nil {
		return 0, err
	}
	return factory.AllPairsLength(ctx)
}

// FetchTokenName returns the token's name(), or contract.NotFound if the call fails.
// A cache hit skips the call and refreshes the cached entry's expiry.
func (p *Pipeline) FetchTokenName(ctx context.Context, token common.Address) string {
	if p.config.NameCache != nil {
		name, err := p.config.NameCache.GetName(ctx, token)
		if err == nil {
			if err := p.config.NameCache.TouchName(ctx, token); err != nil {
				p.logger.Warn().Err(err).Str("contract", token.Hex()).Msg("Name cache touch failed")
			}
			return name
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			p.logger.Warn().Err(err).Str("contract", token.Hex()).Msg("Name cache get failed")
		}
	}

	proxy, err := p.bind(token, schema.Token)
	if err != nil {
		degradedFields.WithLabelValues("token_name").Inc()
		return contract.NotFound
	}

	res := proxy.Name(ctx)
	if res.Degraded() {
		degradedFields.WithLabelValues("token_name").Inc()
		return contract.NotFound
	}

	if p.config.NameCache != nil {
		if err := p.config.NameCache.SetName(ctx, token, res.Value); err != nil {
			p.logger.Warn().Err(err).Str("contract", token.Hex()).Msg("Name cache set failed")
		}
	}
	return res.Value
}

// FetchPairInfo resolves name, token0 and token1 of pair concurrently.
// Each field degrades independently.
func (p *Pipeline) FetchPairInfo(ctx context.Context, pair common.Address) PairInfo {
	proxy, err := p.bind(pair, schema.Pair)
	if err != nil {
		return PairInfo{
			Name:   contract.Failed[string](err),
			Token0: contract.Failed[common.Address](err),
			Token1: contract.Failed[common.Address](err),
		}
	}

	var (
		info PairInfo
		wg   sync.WaitGroup
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		info.Name = proxy.Name(ctx)
	}()
	go func() {
		defer wg.Done()
		info.Token0 = proxy.Token0(ctx)
	}()
	go func() {
		defer wg.Done()
		info.Token1 = proxy.Token1(ctx)
	}()
	wg.Wait()

	if info.Name.Degraded() {
		degradedFields.WithLabelValues("pair_name").Inc()
	}
	if info.Token0.Degraded() {
		degradedFields.WithLabelValues("token0").Inc()
	}
	if info.Token1.Degraded() {
		degradedFields.WithLabelValues("token1").Inc()
	}
	return info
}

// FetchPairByIndex resolves the pair at index. A ConfigurationError is
// returned before any call if ref names no factory; allPairs failures are
// returned as is.
func (p *Pipeline) FetchPairByIndex(ctx context.Context, ref FactoryRef, index uint64) (table.PairRecord, error) {
	factory, err := p.resolveFactory(ref)
	if err != nil {
		return table.PairRecord{}, err
	}

	pair, err := factory.AllPairs(ctx, index)
	if err != nil {
		return table.PairRecord{}, fmt.Errorf("allPairs(%d): %w", index, err)
	}

	return p.resolvePair(ctx, pair), nil
}

// LookupPair resolves the pair of tokenA and tokenB through getPair.
func (p *Pipeline) LookupPair(ctx context.Context, ref FactoryRef, tokenA, tokenB common.Address) (table.PairRecord, error) {
	factory, err := p.resolveFactory(ref)
	if err != nil {
		return table.PairRecord{}, err
	}

	pair, err := factory.GetPair(ctx, tokenA, tokenB)
	if err != nil {
		return table.PairRecord{}, fmt.Errorf("getPair: %w", err)
	}
	if pair == (common.Address{}) {
		return table.PairRecord{}, fmt.Errorf("%w: %s/%s", ErrPairNotFound, tokenA.Hex(), tokenB.Hex())
	}

	return p.resolvePair(ctx, pair), nil
}

func (p *Pipeline) resolvePair(ctx context.Context, pair common.Address) table.PairRecord {
	info := p.FetchPairInfo(ctx, pair)

	// A token whose address is unknown has no name to look up.
	names := [2]string{contract.NotFound, contract.NotFound}
	tokens := [2]contract.Result[common.Address]{info.Token0, info.Token1}

	var wg sync.WaitGroup
	for i, tok := range tokens {
		i, tok := i, tok
		if tok.Degraded() {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			names[i] = p.FetchTokenName(ctx, tok.Value)
		}()
	}
	wg.Wait()

	pairsDiscovered.Inc()

	return table.PairRecord{
		PairAddress:   pair.Hex(),
		PairName:      info.Name.String(),
		Token0Address: info.Token0.String(),
		Token0Name:    names[0],
		Token1Address: info.Token1.String(),
		Token1Name:    names[1],
	}
}

// Discover runs DiscoverAllPairs with the configured batch limit.
func (p *Pipeline) Discover(ctx context.Context, factoryAddress string) (*table.Table, error) {
	return p.DiscoverAllPairs(ctx, factoryAddress, p.config.BatchLimit)
}

// DiscoverAllPairs resolves every pair of the factory, batchLimit indices at
// a time. On failure the rows of completed batches are returned with the error.
func (p *Pipeline) DiscoverAllPairs(ctx context.Context, factoryAddress string, batchLimit int) (*table.Table, error) {
	start := time.Now()
	tbl := table.New()
	logger := logging.WithFactory(p.logger, factoryAddress)

	var total uint64
	fail := func(err error) (*table.Table, error) {
		p.report(Progress{State: StateFailed, Total: total, Rows: tbl.Len()})
		logger.Error().
			Err(err).
			Int("rows", tbl.Len()).
			Uint64("total", total).
			Msg("Discovery failed")
		return tbl, err
	}

	factory, err := p.resolveFactory(FactoryRef{Address: factoryAddress})
	if err != nil {
		return fail(err)
	}

	exec, err := batch.NewExecutor[table.PairRecord](batchLimit,
		batch.WithLogger(p.logger),
	)
	if err != nil {
		return fail(&ConfigurationError{Reason: err.Error()})
	}

	p.report(Progress{State: StateInitialized})

	total, err = factory.AllPairsLength(ctx)
	if err != nil {
		return fail(fmt.Errorf("allPairsLength: %w", err))
	}
	p.report(Progress{State: StateLengthResolved, Total: total})

	logger.Info().
		Uint64("total", total).
		Int("batch_limit", batchLimit).
		Msg("Starting pair discovery")

	ref := FactoryRef{Proxy: factory}
	fetch := func(ctx context.Context, index uint64) (table.PairRecord, error) {
		return p.FetchPairByIndex(ctx, ref, index)
	}

	appendBatch := func(records []table.PairRecord) {
		tbl.Append(records...)
		logger.Info().
			Int(logging.FieldBatchSize, len(records)).
			Int("rows", tbl.Len()).
			Uint64("total", total).
			Msg("Batch done")
	}

	for i := uint64(0); i < total; i++ {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		p.report(Progress{State: StateFetching, Index: i, Total: total, Rows: tbl.Len()})

		records, flushed, err := exec.Submit(ctx, batch.Call(fetch, i))
		if err != nil {
			return fail(err)
		}
		if flushed {
			appendBatch(records)
		}
	}

	records, err := exec.Flush(ctx)
	if err != nil {
		return fail(err)
	}
	if len(records) > 0 {
		appendBatch(records)
	}
	p.report(Progress{State: StateDrained, Total: total, Rows: tbl.Len()})

	p.report(Progress{State: StateComplete, Total: total, Rows: tbl.Len()})
	logger.Info().
		Int("rows", tbl.Len()).
		Int("flushes", exec.Flushes()).
		Dur("duration", time.Since(start)).
		Msg("Discovery complete")

	return tbl, nil
}

func (p *Pipeline) report(pr Progress) {
	p.logger.Debug().
		Str("state", pr.State.String()).
		Uint64("index", pr.Index).
		Uint64("total", pr.Total).
		Int("rows", pr.Rows).
		Msg("State transition")

	if p.config.OnProgress != nil {
		p.config.OnProgress(pr)
	}
}
