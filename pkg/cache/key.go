package cache

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NameKey identifies the cached name of one token.
type NameKey struct {
	// Namespace separates chains (usually the chain id).
	Namespace string

	// Token is the token contract address.
	Token common.Address
}

// String generates a deterministic cache key string.
// Format: pairscan:name:<namespace>:<lower-case address>
//
// Example:
//
//	pairscan:name:1:0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2
func (k NameKey) String() string {
	parts := []string{"pairscan", "name"}

	ns := strings.TrimSpace(k.Namespace)
	if ns == "" {
		ns = "default"
	}
	parts = append(parts, ns, strings.ToLower(k.Token.Hex()))

	return strings.Join(parts, ":")
}
