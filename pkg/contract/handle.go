// Package contract binds contract addresses to interface schemas and proxies
// typed calls through an ethereum.ContractCaller.
//
// Per-field lookups (name, token0, token1) never fail: a failed call is
// returned as a degraded Result whose text form is the NotFound sentinel.
// Factory lookups (allPairs, allPairsLength, getPair) return their errors.
package contract

import (
	"fmt"

	"github.com/Sternrassler/pairscan/pkg/schema"
	"github.com/ethereum/go-ethereum/common"
)

// Handle is one contract address bound to an interface schema.
type Handle struct {
	Address common.Address
	Schema  *schema.Schema
}

// Bind binds address to the named schema.
func Bind(address common.Address, name schema.Name) (*Handle, error) {
	s, err := schema.Load(name)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", address.Hex(), err)
	}
	return &Handle{Address: address, Schema: s}, nil
}

// String implements fmt.Stringer.
func (h *Handle) String() string {
	return fmt.Sprintf("%s@%s", h.Schema.Name, h.Address.Hex())
}
