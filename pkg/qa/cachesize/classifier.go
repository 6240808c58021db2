package cachesize

import "slices"

// CacheTableColumns is the exact column set a table must have to be treated
// as a cache bin.
var CacheTableColumns = []string{"cid", "created", "data", "expire", "serialized"}

// IsCacheTableSchema reports whether columns is exactly the cache bin column
// set, in any order. Supersets, subsets, and case variants do not qualify:
// the platform's cache bins all share this one shape, and anything else is
// some other table that happens to look similar.
func IsCacheTableSchema(columns []string) bool {
	if len(columns) != len(CacheTableColumns) {
		return false
	}
	sorted := slices.Clone(columns)
	slices.Sort(sorted)
	return slices.Equal(sorted, CacheTableColumns)
}
