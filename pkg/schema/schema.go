// Package schema holds the contract interface definitions used to talk to a
// Uniswap-v2 style factory, its pair contracts and their ERC-20 tokens.
package schema

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Name identifies one of the known interface schemas.
type Name string

const (
	// Factory is the pair registry (getPair, allPairs, allPairsLength).
	Factory Name = "pair_factory"

	// Pair is a liquidity pair contract (name, token0, token1).
	Pair Name = "pair"

	// Token is an ERC-20 token contract (name).
	Token Name = "token"
)

const factoryABI = `[
	{"constant":true,"inputs":[{"internalType":"address","name":"","type":"address"},{"internalType":"address","name":"","type":"address"}],"name":"getPair","outputs":[{"internalType":"address","name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"internalType":"uint256","name":"","type":"uint256"}],"name":"allPairs","outputs":[{"internalType":"address","name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"allPairsLength","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}
]`

const pairABI = `[
	{"constant":true,"inputs":[],"name":"token0","outputs":[{"internalType":"address","name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"token1","outputs":[{"internalType":"address","name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"name","outputs":[{"internalType":"string","name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"}
]`

const tokenABI = `[
	{"constant":true,"inputs":[],"name":"name","outputs":[{"internalType":"string","name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"}
]`

var sources = map[Name]string{
	Factory: factoryABI,
	Pair:    pairABI,
	Token:   tokenABI,
}

// Schema is a parsed contract interface.
type Schema struct {
	Name Name
	ABI  abi.ABI
}

// Has reports whether the schema declares the given method.
func (s *Schema) Has(method string) bool {
	_, ok := s.ABI.Methods[method]
	return ok
}

var (
	mu     sync.Mutex
	parsed = make(map[Name]*Schema)
)

// Load returns the parsed schema for name. Schemas are parsed once and shared.
func Load(name Name) (*Schema, error) {
	mu.Lock()
	defer mu.Unlock()

	if s, ok := parsed[name]; ok {
		return s, nil
	}

	src, ok := sources[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}

	a, err := abi.JSON(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse %s abi: %w", name, err)
	}

	s := &Schema{Name: name, ABI: a}
	parsed[name] = s
	return s, nil
}

// MustLoad is like Load but panics on error. The built-in schemas always parse.
func MustLoad(name Name) *Schema {
	s, err := Load(name)
	if err != nil {
		panic(err)
	}
	return s
}

// Names returns all known schema names.
func Names() []Name {
	return []Name{Factory, Pair, Token}
}
