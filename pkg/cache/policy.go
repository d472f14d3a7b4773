package cache

import (
	"strings"
	"time"
)

// immutableActions are lookups by hash or by a fixed block number.
var immutableActions = map[string]bool{
	"eth_getTransactionByHash":  true,
	"eth_getTransactionReceipt": true,
	"eth_getBlockByNumber":      true,
}

// Policy decides how long a result may be served from the cache.
type Policy struct {
	DefaultTTL   time.Duration
	ImmutableTTL time.Duration
}

// TTL returns the cache lifetime for module/action. Zero means do not cache.
func (p Policy) TTL(module, action string) time.Duration {
	switch {
	case module == "stats":
		return 0
	case module == "proxy" && action == "eth_blockNumber":
		return 0
	case immutableActions[action]:
		return p.ImmutableTTL
	case strings.HasPrefix(action, "eth_"):
		// Other proxy calls may depend on the head.
		return 0
	default:
		return p.DefaultTTL
	}
}
