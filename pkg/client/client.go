// Package client provides the JSON-RPC node client used for contract calls,
// with error classification and Prometheus instrumentation.
package client

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/Sternrassler/pairscan/pkg/logging"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for node calls.
var (
	rpcCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pairscan_rpc_calls_total",
		Help: "Total eth_call requests by selector and status",
	}, []string{"selector", "status"})

	rpcCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pairscan_rpc_call_duration_seconds",
		Help:    "eth_call duration in seconds by selector",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"selector"})

	rpcErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pairscan_rpc_errors_total",
		Help: "Total eth_call errors by class",
	}, []string{"class"})
)

// Client is a contract caller backed by a JSON-RPC node over HTTP.
type Client struct {
	rpc    *rpc.Client
	eth    *ethclient.Client
	config Config
	logger zerolog.Logger
}

var _ ethereum.ContractCaller = (*Client)(nil)

// Config holds the client configuration.
type Config struct {
	// Endpoint is the node's HTTP(S) JSON-RPC URL.
	Endpoint string

	// Timeout bounds each HTTP round trip.
	Timeout time.Duration

	// MaxIdleConns per host; batches reuse connections.
	MaxIdleConns int

	// HTTPClient overrides the transport (for testing).
	HTTPClient *http.Client
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(endpoint string) Config {
	return Config{
		Endpoint:     endpoint,
		Timeout:      30 * time.Second,
		MaxIdleConns: 16,
	}
}

// New dials the node. No request is made until the first call.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint must be http or https (got %q)", u.Scheme)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: cfg.MaxIdleConns,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	rpcClient, err := rpc.DialHTTPWithClient(cfg.Endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.Host, err)
	}

	logger := logging.NewLogger("node-client").With().Str("host", u.Host).Logger()

	return &Client{
		rpc:    rpcClient,
		eth:    ethclient.NewClient(rpcClient),
		config: cfg,
		logger: logger,
	}, nil
}

// CallContract implements ethereum.ContractCaller. Errors are returned as *NodeError.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	selector := selectorOf(msg.Data)

	startTime := time.Now()
	out, err := c.eth.CallContract(ctx, msg, blockNumber)
	rpcCallDuration.WithLabelValues(selector).Observe(time.Since(startTime).Seconds())

	if err != nil {
		class := ClassifyError(err)
		rpcErrorsTotal.WithLabelValues(string(class)).Inc()
		rpcCallsTotal.WithLabelValues(selector, string(class)).Inc()

		c.logger.Debug().
			Str("selector", selector).
			Str("error_class", string(class)).
			Dur("duration", time.Since(startTime)).
			Err(err).
			Msg("eth_call failed")

		return nil, &NodeError{Class: class, Selector: selector, Err: err}
	}

	rpcCallsTotal.WithLabelValues(selector, "ok").Inc()
	return out, nil
}

// ChainID returns the chain id reported by the node.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return nil, &NodeError{Class: ClassifyError(err), Selector: "eth_chainId", Err: err}
	}
	return id, nil
}

// Close closes the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

func selectorOf(data []byte) string {
	if len(data) < 4 {
		return "none"
	}
	return hexutil.Encode(data[:4])
}
