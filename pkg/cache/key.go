package cache

import (
	"net/url"
	"sort"
	"strings"
)

// excludedParams never take part in a key. The API key identifies the caller,
// not the result.
var excludedParams = map[string]bool{
	"apikey": true,
	"module": true,
	"action": true,
}

// CacheKey identifies one explorer call.
type CacheKey struct {
	Module      string
	Action      string
	QueryParams url.Values
}

// String generates a deterministic cache key string.
// Format: scan:module:action:param1=val1:param2=val2
//
// Example:
//
//	scan:account:txlist:address=0xabc:endblock=200:startblock=100
func (k CacheKey) String() string {
	parts := []string{"scan", k.Module, k.Action}

	keys := make([]string, 0, len(k.QueryParams))
	for key := range k.QueryParams {
		if excludedParams[strings.ToLower(key)] {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		// Addresses and hashes are case-insensitive hex.
		parts = append(parts, key+"="+strings.ToLower(strings.Join(k.QueryParams[key], ",")))
	}

	return strings.Join(parts, ":")
}
