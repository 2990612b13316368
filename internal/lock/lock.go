// Package lock serializes read-check-write sequences on products and orders.
package lock

import (
	"context"
	"fmt"
	"sort"
)

// Locker takes exclusive locks on a set of keys. Keys are acquired in sorted
// order so callers locking overlapping sets cannot deadlock. The returned
// unlock releases every key.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (func(), error)
}

func ProductKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func OrderKey(id int64) string {
	return fmt.Sprintf("order:%d", id)
}

func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
